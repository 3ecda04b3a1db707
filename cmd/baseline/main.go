package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"webtext_baseline/internal/baseline"
	"webtext_baseline/internal/config"
	"webtext_baseline/internal/logging"
	"webtext_baseline/internal/report"
)

func newRootCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "baseline DATA_DIR LOG_DIR",
		Short: "TF-IDF + logistic regression baseline for detecting generated text",
		Long: `Trains a unigram+bigram TF-IDF logistic regression classifier that separates
webtext from a generated-text source, picks the regularization strength on the
validation split, and writes {LOG_DIR}/{source}.json with the validation and
test accuracy.

DATA_DIR must contain webtext.{train,valid,test}.jsonl and
{source}.{train,valid,test}.jsonl.`,
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBaseline(cmd, args, configPath)
		},
	}

	defaults := config.Default()
	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "YAML run configuration")
	flags.String("source", defaults.Source, "generated-text source to contrast with webtext")
	flags.Int("n-train", defaults.NTrain, "training records to load (half per source, negative for all)")
	flags.Int("n-valid", defaults.NValid, "validation records to load (half per source, negative for all)")
	flags.Int("n-jobs", defaults.Jobs, "parallel candidate fits (non-positive uses every core)")
	flags.Bool("verbose", defaults.Verbose, "log solver diagnostics")
	flags.Int("min-df", defaults.MinDF, "minimum document frequency of a kept n-gram")
	flags.String("history", defaults.HistoryDB, "SQLite file that records every run")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "baseline: %v\n", err)
		os.Exit(1)
	}
}

func runBaseline(cmd *cobra.Command, args []string, configPath string) error {
	cfg, err := resolveConfig(cmd, args, configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := baseline.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}
	report.Print(cmd.OutOrStdout(), res.Report)
	return nil
}

// resolveConfig layers defaults and environment, the optional YAML file,
// positional arguments and explicitly set flags, in that order.
func resolveConfig(cmd *cobra.Command, args []string, configPath string) (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}
	if len(args) > 0 {
		cfg.DataDir = args[0]
	}
	if len(args) > 1 {
		cfg.LogDir = args[1]
	}

	flags := cmd.Flags()
	var err error
	if flags.Changed("source") {
		cfg.Source, err = flags.GetString("source")
	}
	if err == nil && flags.Changed("n-train") {
		cfg.NTrain, err = flags.GetInt("n-train")
	}
	if err == nil && flags.Changed("n-valid") {
		cfg.NValid, err = flags.GetInt("n-valid")
	}
	if err == nil && flags.Changed("n-jobs") {
		cfg.Jobs, err = flags.GetInt("n-jobs")
	}
	if err == nil && flags.Changed("verbose") {
		cfg.Verbose, err = flags.GetBool("verbose")
	}
	if err == nil && flags.Changed("min-df") {
		cfg.MinDF, err = flags.GetInt("min-df")
	}
	if err == nil && flags.Changed("history") {
		cfg.HistoryDB, err = flags.GetString("history")
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
