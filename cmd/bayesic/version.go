package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rwhender/BayesicFitting"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bayesic",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "bayesic version %s\n", strings.TrimSpace(bayesicfitting.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
