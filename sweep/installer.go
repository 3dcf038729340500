package sweep

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// VersionPlaceholder in an install command expands to the version
// being provisioned.
const VersionPlaceholder = "{version}"

// ExecInstaller provisions versions by running external commands, e.g.
// InstallArgv ["pip", "install", "-q", "requests=={version}"] with
// ProbeArgv ["python", "-c", "import requests; print(requests.__version__)"].
type ExecInstaller struct {
	InstallArgv []string
	ProbeArgv   []string
	Timeout     time.Duration
	Logger      *slog.Logger
}

// NewExecInstaller creates an ExecInstaller with a default timeout.
func NewExecInstaller(
	installArgv, probeArgv []string,
	logger *slog.Logger,
) (*ExecInstaller, error) {
	if len(installArgv) == 0 {
		return nil, fmt.Errorf("install command is empty")
	}

	return &ExecInstaller{
		InstallArgv: installArgv,
		ProbeArgv:   probeArgv,
		Timeout:     2 * time.Minute,
		Logger:      logger.With(slog.String("component", "installer")),
	}, nil
}

// Install runs the install command with the placeholder expanded.
func (e *ExecInstaller) Install(ctx context.Context, version string) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	argv := make([]string, len(e.InstallArgv))
	for i, a := range e.InstallArgv {
		argv[i] = strings.ReplaceAll(a, VersionPlaceholder, version)
	}

	e.Logger.Info("running install",
		slog.String("version", version),
		slog.Any("argv", argv),
	)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("install %s: %w", version, err)
	}

	return nil
}

// Current probes the installed version string. Probe output is
// trimmed; an empty probe command reports an error so the sweep knows
// restoration is unavailable.
func (e *ExecInstaller) Current(ctx context.Context) (string, error) {
	if len(e.ProbeArgv) == 0 {
		return "", fmt.Errorf("no probe command configured")
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.ProbeArgv[0], e.ProbeArgv[1:]...)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("probe version: %w", err)
	}

	version := strings.TrimSpace(stdout.String())
	if version == "" {
		return "", fmt.Errorf("probe version: empty output")
	}

	return version, nil
}
