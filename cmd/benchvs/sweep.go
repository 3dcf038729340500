package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwetzel/benchvs/report"
	"github.com/mwetzel/benchvs/sampler"
	"github.com/mwetzel/benchvs/stats"
	"github.com/mwetzel/benchvs/store"
	"github.com/mwetzel/benchvs/sweep"
)

func newSweepCmd(logger *slog.Logger) *cobra.Command {
	var (
		versions    []string
		installCmd  string
		probeCmd    string
		runCmd      string
		payloadFile string
		iterations  int
		warmup      bool
		timeoutSec  float64
		resultsPath string
		outputJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Benchmark a dependency across installed versions",
		Long: `Install each requested version in turn, measure the run command one
fresh subprocess per trial, and restore the originally installed version
afterwards regardless of failures. Use {version} in the install command and
{payload} in the run command as placeholders.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSweep(cmd.Context(), logger, sweepOptions{
				versions:    versions,
				installCmd:  installCmd,
				probeCmd:    probeCmd,
				runCmd:      runCmd,
				payloadFile: payloadFile,
				iterations:  iterations,
				warmup:      warmup,
				timeoutSec:  timeoutSec,
				resultsPath: resultsPath,
				outputJSON:  outputJSON,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVar(&versions, "versions", nil,
		"Versions to benchmark, in order (required)")
	flags.StringVar(&installCmd, "install-cmd", "",
		`Install command, e.g. "pip install -q requests=={version}" (required)`)
	flags.StringVar(&probeCmd, "probe-cmd", "",
		"Command printing the installed version, used to verify installs and restore the original")
	flags.StringVar(&runCmd, "run-cmd", "",
		`Command measured per trial, e.g. "python {payload}" (required)`)
	flags.StringVar(&payloadFile, "payload-file", "",
		"File whose contents are written to the {payload} temp file")
	flags.IntVar(&iterations, "iterations", sampler.DefaultIterations,
		"Timed trials per version")
	flags.BoolVar(&warmup, "warmup", false,
		"Run one discarded warmup trial per version")
	flags.Float64Var(&timeoutSec, "timeout", 10,
		"Per-trial timeout in seconds")
	flags.StringVar(&resultsPath, "results", defaultResults(),
		"Path to the JSONL history log")
	flags.BoolVar(&outputJSON, "json", false,
		"Output the sweep record as JSON instead of a table")

	cmd.MarkFlagRequired("versions")
	cmd.MarkFlagRequired("install-cmd")
	cmd.MarkFlagRequired("run-cmd")

	return cmd
}

type sweepOptions struct {
	versions    []string
	installCmd  string
	probeCmd    string
	runCmd      string
	payloadFile string
	iterations  int
	warmup      bool
	timeoutSec  float64
	resultsPath string
	outputJSON  bool
}

func runSweep(ctx context.Context, logger *slog.Logger, opts sweepOptions) error {
	// Step 1: Validate configuration before touching the environment.
	cfg := sampler.Config{
		Iterations: opts.iterations,
		Warmup:     opts.warmup,
		Timeout:    time.Duration(opts.timeoutSec * float64(time.Second)),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	installer, err := sweep.NewExecInstaller(
		strings.Fields(opts.installCmd),
		strings.Fields(opts.probeCmd),
		logger,
	)
	if err != nil {
		return err
	}

	payload := sampler.Payload{Argv: strings.Fields(opts.runCmd)}
	if len(payload.Argv) == 0 {
		return fmt.Errorf("run command is empty")
	}

	if opts.payloadFile != "" {
		data, err := os.ReadFile(opts.payloadFile)
		if err != nil {
			return fmt.Errorf("read payload file: %w", err)
		}

		payload.Source = string(data)
	}

	logger.InfoContext(ctx, "starting sweep",
		slog.Any("versions", opts.versions),
		slog.Int("iterations", opts.iterations),
	)

	// Step 2: Run the sweep. The original version is restored inside
	// Run on every exit path.
	sw := sweep.New(installer, sampler.New(logger), logger)
	res := sw.Run(ctx, opts.versions, payload, cfg)

	// Step 3: Persist one record with per-version measurements.
	rec := sweepRecord(opts, res)

	// Step 4: Report, then append; a store failure is surfaced as a
	// warning once the results are already printed.
	if opts.outputJSON {
		if err := report.JSON(os.Stdout, rec); err != nil {
			return err
		}
	} else {
		if err := report.Sweep(os.Stdout, res); err != nil {
			return err
		}
	}

	if err := store.New(opts.resultsPath, logger).Append(rec); err != nil {
		logger.Warn("failed to persist sweep record",
			slog.String("error", err.Error()),
		)
	}

	logger.InfoContext(ctx, "sweep complete")

	return nil
}

func sweepRecord(opts sweepOptions, res sweep.Result) store.RunRecord {
	rec := store.NewRecord(store.RunConfig{
		Suite:      "sweep",
		Iterations: opts.iterations,
		Warmup:     opts.warmup,
		Isolation:  "subprocess",
		TimeoutSec: opts.timeoutSec,
		Versions:   opts.versions,
	})

	var entries []stats.Entry

	for _, vr := range res.Versions {
		if vr.Status == sweep.StatusSkipped {
			rec.Measurements[vr.Version] = store.VariantStats{
				Error: fmt.Sprintf("skipped: %v", vr.InstallErr),
			}
			continue
		}

		if vr.Measurement.Failed() {
			rec.Measurements[vr.Version] = store.VariantStats{
				Error: vr.Measurement.Err.Error(),
			}
			continue
		}

		st, err := stats.Summarize(vr.Measurement.Samples)
		if err != nil {
			rec.Measurements[vr.Version] = store.VariantStats{
				Error: err.Error(),
			}
			continue
		}

		rec.Measurements[vr.Version] = store.FromStats(st, vr.Measurement.Samples)
		entries = append(entries, stats.Entry{ID: vr.Version, Stats: st})
	}

	rec.Ranking = stats.Rank(entries)

	return rec
}
