package main

import (
	"fmt"
	"os"

	"github.com/tendermint/escrow/cmd/escrowd/commands"
	"github.com/tendermint/escrow/config"
	"github.com/tendermint/escrow/libs/log"
)

func main() {
	conf := config.DefaultConfig()

	logger, err := log.NewDefaultLogger(conf.LogFormat, conf.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rcmd := commands.RootCommand(conf, logger)
	rcmd.AddCommand(
		commands.MakeInitFilesCommand(conf, logger),
		commands.MakeStartCommand(conf, logger),
		commands.VersionCmd,
	)

	if err := rcmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
