// Package sweep benchmarks a dependency across multiple installed
// versions: install, measure, record, and always restore the version
// that was installed before the sweep started.
package sweep

import (
	"context"
	"log/slog"

	"github.com/mwetzel/benchvs/sampler"
)

// Status of one version within a sweep.
type Status string

const (
	// StatusRecorded means the version was installed and measured.
	StatusRecorded Status = "recorded"

	// StatusSkipped means the version could not be installed. A single
	// install failure never aborts the sweep.
	StatusSkipped Status = "skipped"
)

// VersionResult holds the outcome for one attempted version.
type VersionResult struct {
	Version     string
	Status      Status
	InstallErr  error
	Installed   string
	Measurement sampler.Measurement
}

// Result is the outcome of a whole sweep: attempted versions in order,
// the originally installed version, and whether restoring it failed.
type Result struct {
	Original   string
	Versions   []VersionResult
	RestoreErr error
}

// Installer provisions versions of the dependency under test. The
// "currently installed version" is process-external state owned by
// the sweep for its duration.
type Installer interface {
	Install(ctx context.Context, version string) error
	Current(ctx context.Context) (string, error)
}

// Sweep orchestrates install/measure cycles over a version list.
type Sweep struct {
	installer Installer
	sampler   *sampler.Sampler
	logger    *slog.Logger

	// Verify checks the installed version string after each install
	// and warns on mismatch. Environment resolution may substitute a
	// close version, so a mismatch is never a hard failure.
	Verify bool
}

// New creates a Sweep.
func New(installer Installer, smp *sampler.Sampler, logger *slog.Logger) *Sweep {
	return &Sweep{
		installer: installer,
		sampler:   smp,
		logger:    logger.With(slog.String("component", "sweep")),
		Verify:    true,
	}
}

// Run measures the payload under each requested version in order.
// Versions that fail to install are recorded as skipped and the sweep
// continues. The originally installed version is restored before Run
// returns, on success and failure paths alike: leaving the environment
// on a non-original version would corrupt any subsequent run. A
// restore failure is reported in the Result without discarding the
// measurements already obtained.
func (s *Sweep) Run(
	ctx context.Context,
	versions []string,
	payload sampler.Payload,
	cfg sampler.Config,
) (res Result) {
	original, err := s.installer.Current(ctx)
	if err != nil {
		s.logger.Warn("could not determine original version, skipping restore",
			slog.String("error", err.Error()),
		)
	} else {
		res.Original = original
	}

	defer func() {
		if res.Original == "" {
			return
		}

		s.logger.Info("restoring original version",
			slog.String("version", res.Original),
		)

		// Restore even when the surrounding context was cancelled.
		restoreCtx := context.WithoutCancel(ctx)

		if err := s.installer.Install(restoreCtx, res.Original); err != nil {
			res.RestoreErr = err
			s.logger.Error("restore failed",
				slog.String("version", res.Original),
				slog.String("error", err.Error()),
			)
		}
	}()

	for _, version := range versions {
		res.Versions = append(res.Versions, s.runVersion(ctx, version, payload, cfg))
	}

	return res
}

func (s *Sweep) runVersion(
	ctx context.Context,
	version string,
	payload sampler.Payload,
	cfg sampler.Config,
) VersionResult {
	log := s.logger.With(slog.String("version", version))

	log.Info("installing version")

	if err := s.installer.Install(ctx, version); err != nil {
		log.Warn("install failed, skipping version",
			slog.String("error", err.Error()),
		)

		return VersionResult{
			Version:    version,
			Status:     StatusSkipped,
			InstallErr: err,
		}
	}

	vr := VersionResult{Version: version, Status: StatusRecorded}

	if s.Verify {
		installed, err := s.installer.Current(ctx)
		if err != nil {
			log.Warn("version probe failed",
				slog.String("error", err.Error()),
			)
		} else {
			vr.Installed = installed

			if installed != version {
				log.Warn("installed version differs from requested",
					slog.String("installed", installed),
				)
			}
		}
	}

	log.Info("measuring version")

	vr.Measurement = s.sampler.MeasureProcess(ctx, version, payload, cfg)

	if vr.Measurement.Failed() {
		log.Warn("measurement failed",
			slog.String("error", vr.Measurement.Err.Error()),
		)
	}

	return vr
}
