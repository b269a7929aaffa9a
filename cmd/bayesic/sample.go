package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rwhender/BayesicFitting"
	"github.com/rwhender/BayesicFitting/internal/cli"
	"github.com/rwhender/BayesicFitting/internal/presentation"
)

var sampleOpts cli.SampleOptions

var sampleCmd = &cobra.Command{
	Use:   "sample [config]",
	Short: "Run nested sampling on the configured problem",
	Long: `Loads the data, model and error distribution named in the configuration
file, samples to termination and prints the evidence and the parameters.

Interrupting the run stops it at the next iteration; with a checkpoint
backend configured it can be continued with --resume.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		opts := sampleOpts
		if len(args) > 0 {
			opts.ConfigPath = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !opts.Quiet && presentation.IsTerminal(cmd.ErrOrStderr()) {
			presentation.PrintBanner(cmd.ErrOrStderr(), bayesicfitting.Version)
		}
		return cli.RunSample(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	},
}

func init() {
	rootCmd.AddCommand(sampleCmd)

	f := sampleCmd.Flags()
	f.StringVarP(&sampleOpts.DataPath, "data", "d", "", "CSV data file (overrides data.path)")
	f.IntVarP(&sampleOpts.Ensemble, "ensemble", "n", 0, "Number of walkers")
	f.Uint64Var(&sampleOpts.Seed, "seed", 0, "Random seed")
	f.IntVarP(&sampleOpts.Threads, "threads", "t", 0, "Worker goroutines for the engines")
	f.BoolVar(&sampleOpts.Resume, "resume", false, "Continue from the last checkpoint of --run-id")
	f.StringVar(&sampleOpts.RunID, "run-id", "", "Run identifier; keys the checkpoints")
	f.StringVarP(&sampleOpts.Format, "format", "o", "", "Report format (markdown, json, text)")
	f.StringVar(&sampleOpts.MetricsAddr, "metrics-addr", "", "Serve /metrics and /status on this address")
	f.BoolVarP(&sampleOpts.Quiet, "quiet", "q", false, "No progress output")
}
