package log

import (
	"os"
	"sync"
	"testing"
)

var (
	// reuse the same logger across all tests
	testingLoggerMtx = sync.Mutex{}
	testingLogger    Logger
)

// TestingLogger returns a plain debug logger writing to STDOUT if testing
// is being run with the verbose (-v) flag, NopLogger otherwise.
//
// Note that the call to TestingLogger() must be made
// inside a test (not in the init func) because
// verbose flag only set at the time of testing.
func TestingLogger() Logger {
	testingLoggerMtx.Lock()
	defer testingLoggerMtx.Unlock()

	if testingLogger != nil {
		return testingLogger
	}

	if testing.Verbose() {
		l, err := NewLogger(os.Stdout, LogFormatPlain, LogLevelDebug)
		if err != nil {
			panic(err)
		}
		testingLogger = l
	} else {
		testingLogger = NewNopLogger()
	}

	return testingLogger
}
