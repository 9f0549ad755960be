package os

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

type logger interface {
	Info(msg string, keyvals ...interface{})
}

// TrapSignal catches SIGTERM and SIGINT, runs cleanupFunc and exits with a
// value greater than 128.
func TrapSignal(logger logger, cleanupFunc func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigs
		logger.Info("signal trapped", "signal", sig.String())

		if cleanupFunc != nil {
			cleanupFunc()
		}

		exitCode := 128
		if s, ok := sig.(syscall.Signal); ok {
			exitCode += int(s)
		}
		os.Exit(exitCode)
	}()
}

// Kill the running process by sending itself SIGTERM.
func Kill() error {
	p, err := os.FindProcess(os.Getpid())
	if err != nil {
		return err
	}
	return p.Signal(syscall.SIGTERM)
}

// EnsureDir creates dir with mode unless it already exists.
func EnsureDir(dir string, mode os.FileMode) error {
	if err := os.MkdirAll(dir, mode); err != nil {
		return fmt.Errorf("could not create directory %q: %w", dir, err)
	}
	return nil
}

func FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
