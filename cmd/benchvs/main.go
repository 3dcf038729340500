// Package main provides the CLI entry point for benchvs, a harness for
// comparing interchangeable implementations of the same operation.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	loadDotEnv(logger)

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "benchvs",
		Short: "Benchmark competing implementations of the same operation",
		Long: `Benchvs measures named variants of a task over repeated trials,
in-process or isolated in a fresh subprocess per trial, ranks them by mean
time, and appends every run to a JSONL history for comparison across
library versions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newSweepCmd(logger))
	root.AddCommand(newHistoryCmd(logger))

	return root
}

// loadDotEnv loads optional defaults from a .env file in the working
// directory. A missing file is not an error.
func loadDotEnv(logger *slog.Logger) {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			return
		}

		logger.Warn("failed to load .env", slog.String("error", err.Error()))
	}
}

// defaultResults resolves the default history path, overridable via
// BENCHVS_RESULTS (flag or .env).
func defaultResults() string {
	if path := os.Getenv("BENCHVS_RESULTS"); path != "" {
		return path
	}

	return "results.jsonl"
}
