package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mwetzel/benchvs/report"
	"github.com/mwetzel/benchvs/sampler"
	"github.com/mwetzel/benchvs/stats"
	"github.com/mwetzel/benchvs/store"
	"github.com/mwetzel/benchvs/suite"
	"github.com/mwetzel/benchvs/variant"
	"github.com/mwetzel/benchvs/workload"
)

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		suitePath   string
		resultsPath string
		outputJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the variants of a benchmark suite and rank them",
		Long: `Load a suite definition, measure each of its variants over repeated
trials, print a ranked comparison, and append the run to the history log.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSuite(cmd.Context(), logger, runOptions{
				suitePath:   suitePath,
				resultsPath: resultsPath,
				outputJSON:  outputJSON,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&suitePath, "suite", "",
		"Path to suite YAML (required)")
	flags.StringVar(&resultsPath, "results", defaultResults(),
		"Path to the JSONL history log")
	flags.BoolVar(&outputJSON, "json", false,
		"Output run records as JSON instead of a table")

	cmd.MarkFlagRequired("suite")

	return cmd
}

type runOptions struct {
	suitePath   string
	resultsPath string
	outputJSON  bool
}

func runSuite(ctx context.Context, logger *slog.Logger, opts runOptions) error {
	// Step 1: Load and validate the suite. Configuration errors fail
	// fast: nothing is measured or persisted.
	s, err := suite.LoadFromFile(opts.suitePath)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("suite", s.Name),
		slog.Int("iterations", s.Iterations),
		slog.String("isolation", s.Isolation),
	)

	cfg := sampler.Config{
		Iterations:  s.Iterations,
		Warmup:      s.Warmup,
		KeepPartial: s.KeepPartial,
		Timeout:     s.Timeout(),
	}

	// Step 2: Build every variant set up front so an unknown baseline
	// is caught before the first trial runs.
	var sets []*variant.Set

	for _, w := range s.Workloads {
		set, err := workload.Build(w)
		if err != nil {
			return err
		}

		if s.Baseline != "" && !set.Has(s.Baseline) {
			return fmt.Errorf("suite %q: unknown baseline variant %q",
				s.Name, s.Baseline)
		}

		sets = append(sets, set)
	}

	if len(s.Payloads) > 0 && s.Baseline != "" {
		found := false
		for _, p := range s.Payloads {
			if p.Name == s.Baseline {
				found = true
			}
		}

		if !found {
			return fmt.Errorf("suite %q: unknown baseline variant %q",
				s.Name, s.Baseline)
		}
	}

	smp := sampler.New(logger)
	st := store.New(opts.resultsPath, logger)

	// Step 3: Measure. One record per workload; one record for the
	// payload set. Variants run strictly sequentially.
	for i, set := range sets {
		rec := store.NewRecord(store.RunConfig{
			Suite:      s.Name,
			Iterations: s.Iterations,
			Warmup:     s.Warmup,
			Isolation:  s.Isolation,
			Baseline:   s.Baseline,
			Workload:   workload.Params(s.Workloads[i]),
		})

		values := make(map[string]any)

		var entries []stats.Entry

		for _, v := range set.All() {
			m := smp.Measure(ctx, v, cfg)

			entry, err := recordMeasurement(&rec, m)
			if err != nil {
				return err
			}

			if entry != nil {
				entries = append(entries, *entry)
			}

			values[m.VariantID] = m.Value
		}

		rec.Ranking = stats.Rank(entries)

		check := report.CheckMatch
		if err := workload.CrossCheck(values); err != nil {
			logger.WarnContext(ctx, "variant values disagree",
				slog.String("error", err.Error()),
			)

			check = report.CheckMismatch
		}

		if err := emitRecord(logger, st, rec, check, opts.outputJSON); err != nil {
			return err
		}
	}

	if len(s.Payloads) > 0 {
		rec, err := runPayloads(ctx, logger, smp, s, cfg)
		if err != nil {
			return err
		}

		if err := emitRecord(logger, st, rec, report.CheckSkipped, opts.outputJSON); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}

// runPayloads measures each external payload one fresh subprocess per
// trial and collects the results into a single record.
func runPayloads(
	ctx context.Context,
	logger *slog.Logger,
	smp *sampler.Sampler,
	s *suite.Suite,
	cfg sampler.Config,
) (store.RunRecord, error) {
	rec := store.NewRecord(store.RunConfig{
		Suite:      s.Name,
		Iterations: s.Iterations,
		Warmup:     s.Warmup,
		Isolation:  s.Isolation,
		Baseline:   s.Baseline,
		TimeoutSec: s.TimeoutSec,
	})

	var entries []stats.Entry

	for _, p := range s.Payloads {
		payload := sampler.Payload{Argv: p.Argv}

		if p.SourceFile != "" {
			data, err := os.ReadFile(p.SourceFile)
			if err != nil {
				return rec, fmt.Errorf("payload %q: %w", p.Name, err)
			}

			payload.Source = string(data)
		}

		m := smp.MeasureProcess(ctx, p.Name, payload, cfg)

		entry, err := recordMeasurement(&rec, m)
		if err != nil {
			return rec, err
		}

		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	rec.Ranking = stats.Rank(entries)

	return rec, nil
}

// recordMeasurement summarizes one measurement into the record and
// returns its ranking entry, or nil for a failed measurement. Failed
// variants stay in the record so the report can surface them.
func recordMeasurement(
	rec *store.RunRecord,
	m sampler.Measurement,
) (*stats.Entry, error) {
	if m.Failed() {
		rec.Measurements[m.VariantID] = store.VariantStats{
			Error: m.Err.Error(),
		}

		return nil, nil
	}

	st, err := stats.Summarize(m.Samples)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", m.VariantID, err)
	}

	vs := store.FromStats(st, m.Samples)
	if m.Err != nil {
		vs.Error = m.Err.Error()
	}

	rec.Measurements[m.VariantID] = vs

	return &stats.Entry{ID: m.VariantID, Stats: st}, nil
}

// emitRecord prints the record and appends it to the history. A
// persistence failure is a warning after the results are shown, never
// a loss of the run.
func emitRecord(
	logger *slog.Logger,
	st *store.Store,
	rec store.RunRecord,
	check report.CheckResult,
	outputJSON bool,
) error {
	if outputJSON {
		if err := report.JSON(os.Stdout, rec); err != nil {
			return err
		}
	} else {
		if err := report.Run(os.Stdout, rec, check); err != nil {
			return err
		}

		fmt.Println()
	}

	if err := st.Append(rec); err != nil {
		logger.Warn("failed to persist run record",
			slog.String("error", err.Error()),
		)

		return nil
	}

	logger.Info("run recorded",
		slog.String("id", rec.ID),
		slog.String("path", st.Path()),
	)

	return nil
}
