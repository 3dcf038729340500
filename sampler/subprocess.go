package sampler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// ErrTimeout marks a trial that exceeded its per-trial bound. The
// subprocess is killed; only the current trial is cancelled, never the
// overall run.
var ErrTimeout = errors.New("trial timed out")

// PayloadPlaceholder in a payload's argv is replaced by the path of
// the temp file holding the payload source.
const PayloadPlaceholder = "{payload}"

// Payload is a self-contained program measured one fresh process per
// trial. Required for cold-start and import-time measurements, where
// warm in-process state would invalidate the result.
type Payload struct {
	// Argv is the command line; PayloadPlaceholder expands to the
	// generated source file path. When Source is empty, Argv runs
	// as-is and no file is written.
	Argv []string

	// Source is written to a temp file for the duration of the
	// measurement and removed on every exit path.
	Source string

	// FilePattern names the temp file, e.g. "benchvs-*.py".
	// Empty means "benchvs-payload-*".
	FilePattern string
}

// ProcStatus classifies the outcome of one subprocess trial.
type ProcStatus int

const (
	ProcCompleted ProcStatus = iota
	ProcTimedOut
	ProcExited
)

// ProcResult is the single well-defined outcome of one subprocess
// trial: completed with a duration, timed out, or exited non-zero.
type ProcResult struct {
	Status   ProcStatus
	Elapsed  time.Duration
	ExitCode int
	Stderr   string
}

// Err converts a non-completed result into the error recorded against
// the trial.
func (r ProcResult) Err() error {
	switch r.Status {
	case ProcTimedOut:
		return ErrTimeout
	case ProcExited:
		if r.Stderr != "" {
			return fmt.Errorf("exit code %d: %s", r.ExitCode, r.Stderr)
		}

		return fmt.Errorf("exit code %d", r.ExitCode)
	default:
		return nil
	}
}

// MeasureProcess runs the payload cfg.Iterations times, launching an
// independent process per trial and taking wall-clock time from launch
// to exit. Each trial is bounded by cfg.Timeout when set. The failure
// policy matches Measure.
func (s *Sampler) MeasureProcess(
	ctx context.Context,
	id string,
	p Payload,
	cfg Config,
) Measurement {
	m := Measurement{VariantID: id}

	if err := cfg.Validate(); err != nil {
		m.Err = err
		return m
	}

	argv, cleanup, err := p.materialize()
	if err != nil {
		m.Err = err
		return m
	}
	defer cleanup()

	log := s.logger.With(slog.String("variant", id))

	if cfg.Warmup {
		res, err := runOnce(ctx, argv, cfg.Timeout)
		if err == nil {
			err = res.Err()
		}

		if err != nil {
			m.Err = &TrialError{Trial: 0, Err: fmt.Errorf("warmup: %w", err)}
			return m
		}
	}

	for i := 0; i < cfg.Iterations; i++ {
		res, err := runOnce(ctx, argv, cfg.Timeout)
		if err == nil {
			err = res.Err()
		}

		if err != nil {
			log.Warn("trial failed",
				slog.Int("trial", i),
				slog.String("error", err.Error()),
			)

			return s.trialFailed(&m, cfg, &TrialError{Trial: i, Err: err})
		}

		m.Samples = append(m.Samples, res.Elapsed)

		log.Debug("trial complete",
			slog.Int("trial", i),
			slog.Duration("elapsed", res.Elapsed),
		)
	}

	return m
}

// materialize writes the payload source to a temp file, if any, and
// returns the expanded argv plus a cleanup function that removes the
// file. The cleanup runs on success, failure, and timeout alike.
func (p Payload) materialize() ([]string, func(), error) {
	if len(p.Argv) == 0 {
		return nil, nil, fmt.Errorf("payload has empty argv")
	}

	if p.Source == "" {
		return p.Argv, func() {}, nil
	}

	pattern := p.FilePattern
	if pattern == "" {
		pattern = "benchvs-payload-*"
	}

	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("create payload file: %w", err)
	}

	path := f.Name()
	cleanup := func() { os.Remove(path) }

	if _, err := f.WriteString(p.Source); err != nil {
		f.Close()
		cleanup()

		return nil, nil, fmt.Errorf("write payload file: %w", err)
	}

	if err := f.Close(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("close payload file: %w", err)
	}

	argv := make([]string, len(p.Argv))
	for i, a := range p.Argv {
		if a == PayloadPlaceholder {
			a = path
		}

		argv[i] = a
	}

	return argv, cleanup, nil
}

// runOnce launches one fresh process and classifies how it ended.
func runOnce(
	ctx context.Context,
	argv []string,
	timeout time.Duration,
) (ProcResult, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err == nil {
		return ProcResult{Status: ProcCompleted, Elapsed: elapsed}, nil
	}

	if ctx.Err() == context.DeadlineExceeded {
		return ProcResult{Status: ProcTimedOut, Elapsed: elapsed}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ProcResult{
			Status:   ProcExited,
			Elapsed:  elapsed,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr.String(),
		}, nil
	}

	return ProcResult{}, fmt.Errorf("launch %s: %w", argv[0], err)
}
