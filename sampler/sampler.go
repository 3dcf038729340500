// Package sampler executes variants over repeated trials and collects
// raw elapsed-time samples, either in-process or isolated in a fresh
// subprocess per trial. Trials run strictly sequentially; concurrent
// trials would contend for CPU and corrupt the timing signal.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwetzel/benchvs/variant"
)

// DefaultIterations is the trial count used when a configuration
// leaves it unset.
const DefaultIterations = 5

// Config holds parameters for measuring a single variant.
type Config struct {
	// Iterations is the number of timed trials, at least 1.
	Iterations int

	// Warmup runs one extra invocation first and discards its timing.
	Warmup bool

	// KeepPartial keeps the samples of completed trials when a later
	// trial fails, attaching the error instead of discarding the whole
	// measurement. Off by default: silently shrinking a sample set
	// understates variance.
	KeepPartial bool

	// Timeout bounds each subprocess trial. Ignored in-process.
	Timeout time.Duration
}

// Validate checks the configuration before any measurement starts.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1, got %d", c.Iterations)
	}

	return nil
}

// Measurement is the full set of trial samples for one variant in one
// run. It is immutable once returned.
type Measurement struct {
	VariantID string
	Samples   []time.Duration

	// Value is the result of the last successful trial, used only for
	// cross-checking variants against each other.
	Value any

	// Err is set when a trial failed. When no samples survived, the
	// whole measurement is failed.
	Err error
}

// Failed reports whether the measurement produced no usable samples.
func (m Measurement) Failed() bool {
	return len(m.Samples) == 0
}

// TrialError records which trial failed and why.
type TrialError struct {
	Trial int
	Err   error
}

func (e *TrialError) Error() string {
	return fmt.Sprintf("trial %d: %v", e.Trial, e.Err)
}

func (e *TrialError) Unwrap() error { return e.Err }

// Sampler measures variants one at a time.
type Sampler struct {
	logger *slog.Logger
}

// New creates a Sampler logging through the given logger.
func New(logger *slog.Logger) *Sampler {
	return &Sampler{
		logger: logger.With(slog.String("component", "sampler")),
	}
}

// Measure runs the variant cfg.Iterations times in the harness's own
// process and records each trial's elapsed time. In-process mode has
// the lowest overhead but lets warm state leak between trials; use it
// only for cache-insensitive workloads.
//
// A failure on the first trial fails the whole measurement. A failure
// on a later trial fails it too unless cfg.KeepPartial is set, in
// which case the completed samples are kept and the error attached.
func (s *Sampler) Measure(
	ctx context.Context,
	v variant.Variant,
	cfg Config,
) Measurement {
	m := Measurement{VariantID: v.ID()}

	if err := cfg.Validate(); err != nil {
		m.Err = err
		return m
	}

	log := s.logger.With(slog.String("variant", v.ID()))

	if cfg.Warmup {
		if _, err := v.Execute(); err != nil {
			m.Err = &TrialError{Trial: 0, Err: fmt.Errorf("warmup: %w", err)}
			return m
		}
	}

	for i := 0; i < cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return s.trialFailed(&m, cfg, &TrialError{Trial: i, Err: err})
		}

		start := time.Now()
		val, err := v.Execute()
		elapsed := time.Since(start)

		if err != nil {
			log.Warn("trial failed",
				slog.Int("trial", i),
				slog.String("error", err.Error()),
			)

			return s.trialFailed(&m, cfg, &TrialError{Trial: i, Err: err})
		}

		m.Samples = append(m.Samples, elapsed)
		m.Value = val

		log.Debug("trial complete",
			slog.Int("trial", i),
			slog.Duration("elapsed", elapsed),
		)
	}

	return m
}

// trialFailed applies the failure policy: abort the measurement, or
// keep the completed samples when the failure came after the first
// trial and KeepPartial is set.
func (s *Sampler) trialFailed(
	m *Measurement,
	cfg Config,
	terr *TrialError,
) Measurement {
	m.Err = terr

	if terr.Trial == 0 || !cfg.KeepPartial {
		m.Samples = nil
		m.Value = nil
	}

	return *m
}
