package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tendermint/escrow/config"
	"github.com/tendermint/escrow/libs/log"
	tmos "github.com/tendermint/escrow/libs/os"
)

// MakeInitFilesCommand returns the command that writes a config file
// reflecting the current flags and environment into the home directory.
func MakeInitFilesCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the escrow home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initFiles(conf, logger, initOverwrite)
		},
	}
	cmd.Flags().BoolVar(&initOverwrite, "overwrite", false, "replace an existing config file")
	return cmd
}

var initOverwrite bool

func initFiles(conf *config.Config, logger log.Logger, overwrite bool) error {
	configFile := filepath.Join(conf.RootDir, "config", "config.toml")
	if tmos.FileExists(configFile) && !overwrite {
		logger.Info("Found config file", "path", configFile)
		return nil
	}

	if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
		return err
	}
	logger.Info("Generated config file", "path", configFile)
	return nil
}
