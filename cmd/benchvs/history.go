package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwetzel/benchvs/report"
	"github.com/mwetzel/benchvs/store"
)

func newHistoryCmd(logger *slog.Logger) *cobra.Command {
	var (
		resultsPath string
		last        int
		outputJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Summarize recorded benchmark runs",
		RunE: func(*cobra.Command, []string) error {
			records, err := store.New(resultsPath, logger).ReadAll()
			if err != nil {
				return err
			}

			if outputJSON {
				return report.JSON(os.Stdout, records)
			}

			return report.History(os.Stdout, records, last)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&resultsPath, "results", defaultResults(),
		"Path to the JSONL history log")
	flags.IntVar(&last, "last", 0,
		"Show only the most recent N runs (0 = all)")
	flags.BoolVar(&outputJSON, "json", false,
		"Output records as JSON instead of a table")

	return cmd
}
