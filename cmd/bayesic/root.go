package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rwhender/BayesicFitting/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "bayesic",
	Short: "Bayesic fits models to data with nested sampling",
	Long: `Bayesic samples the posterior of a model given data and computes the
Bayesian evidence. Runs are described by a YAML or JSON configuration file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
}

func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	lvl, _ := cmd.Flags().GetString("log-level")
	fmtName, _ := cmd.Flags().GetString("log-format")

	level, err := logging.ParseLevel(lvl)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(fmtName)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format), nil
}
