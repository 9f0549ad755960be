package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	tmversion "github.com/tendermint/tendermint/version"

	"github.com/tendermint/escrow/version"
)

var verbose bool

// VersionCmd ...
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		if verbose {
			values, _ := json.MarshalIndent(struct {
				Escrow      string `json:"escrow"`
				Tendermint  string `json:"tendermint"`
				ABCI        string `json:"abci"`
				AppProtocol uint64 `json:"app_protocol"`
			}{
				Escrow:      version.Version,
				Tendermint:  tmversion.TMCoreSemVer,
				ABCI:        tmversion.ABCIVersion,
				AppProtocol: version.AppProtocol.Uint64(),
			}, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(values))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		}
	},
}

func init() {
	VersionCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show protocol and library versions")
}
