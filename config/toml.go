package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/creachadair/atomicfile"

	tmos "github.com/tendermint/escrow/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate")
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't exist,
// and panics if it fails.
func EnsureRoot(rootDir string) {
	if err := tmos.EnsureDir(rootDir, defaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultDataDir), defaultDirPerm); err != nil {
		panic(err.Error())
	}
}

// WriteConfigFile renders config using the template and writes it to
// configFilePath. This function is called by cmd/escrowd/commands/init.go
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(filepath.Join(rootDir, defaultConfigFilePath))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	return writeFile(path, buffer.Bytes(), 0644)
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/escrow/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.escrow" by default, but could be changed via $ESCROW_HOME env variable
# or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# TCP or UNIX socket address the ABCI server listens on for
# connections from Tendermint
proxy-app = "{{ .BaseConfig.ProxyApp }}"

# Mechanism to serve the ABCI application: socket | grpc
abci = "{{ .BaseConfig.ABCI }}"

# Database backend: goleveldb | cleveldb | boltdb | rocksdb | badgerdb | memdb
# * goleveldb (github.com/syndtr/goleveldb - most popular implementation)
#   - pure go
#   - stable
# * memdb
#   - nothing is persisted, for tests and throwaway chains
# Other backends require the matching build tag.
db-backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db-dir = "{{ .BaseConfig.DBPath }}"

# Output level for logging: debug | info | warn | error
log-level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log-format = "{{ .BaseConfig.LogFormat }}"

#######################################################
###       Instrumentation Configuration Options     ###
#######################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
# Check out the documentation for the list of available metrics.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus-listen-addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Maximum number of simultaneous connections.
# If you want to accept a larger number than the default, make sure
# you increase your OS limits.
# 0 - unlimited.
max-open-connections = {{ .Instrumentation.MaxOpenConnections }}

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`

/****** these are for test settings ***********/

// ResetTestRoot creates a fresh root under dir for testName and returns a
// test configuration rooted there.
func ResetTestRoot(dir, testName string) (*Config, error) {
	// unique per call, so parallel tests never share a root
	rootDir, err := os.MkdirTemp(dir, fmt.Sprintf("%s-*", testName))
	if err != nil {
		return nil, err
	}
	// ensure config and data subdirs are created
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm); err != nil {
		return nil, err
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultDataDir), defaultDirPerm); err != nil {
		return nil, err
	}

	config := TestConfig().SetRoot(rootDir)
	if err := WriteConfigFile(rootDir, config); err != nil {
		return nil, err
	}
	return config, nil
}

func writeFile(filePath string, contents []byte, mode os.FileMode) error {
	if _, err := atomicfile.WriteAll(filePath, bytes.NewReader(contents), mode); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
