// Package suite loads benchmark suite definitions from YAML and
// validates them before any measurement starts. An invalid suite
// fails fast; nothing is measured or persisted.
package suite

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Isolation modes for a suite's trials.
const (
	IsolationInProcess  = "inprocess"
	IsolationSubprocess = "subprocess"
)

// Workload kinds built into the harness.
const (
	KindSum   = "sum"
	KindDedup = "dedup"
)

// Workload parameterizes one built-in workload. Sum workloads count
// to CountTo; dedup workloads deduplicate a generated dataset of Size
// rows with the given duplication rate.
type Workload struct {
	Kind            string  `yaml:"kind"`
	CountTo         int     `yaml:"count_to"`
	Size            int     `yaml:"size"`
	DuplicationRate float64 `yaml:"duplication_rate"`

	// Seed is a pointer so an explicit seed of 0 is distinguishable
	// from an absent one.
	Seed *int64 `yaml:"seed"`
}

// DefaultSeed is used when a dedup workload leaves seed unset.
const DefaultSeed = 42

// SeedValue returns the workload's seed, or DefaultSeed when unset.
func (w Workload) SeedValue() int64 {
	if w.Seed == nil {
		return DefaultSeed
	}
	return *w.Seed
}

// Payload names an external program measured as one variant in a
// subprocess-isolated suite. SourceFile, when set, is read and written
// to a temp file at measurement time; {payload} in argv expands to its
// path.
type Payload struct {
	Name       string   `yaml:"name"`
	Argv       []string `yaml:"argv"`
	SourceFile string   `yaml:"source_file"`
}

// Suite is one benchmark definition: measurement configuration plus
// either built-in workloads (in-process) or external payloads
// (subprocess-isolated).
type Suite struct {
	Name        string     `yaml:"name"`
	Iterations  int        `yaml:"iterations"`
	Warmup      bool       `yaml:"warmup"`
	KeepPartial bool       `yaml:"keep_partial"`
	Isolation   string     `yaml:"isolation"`
	Baseline    string     `yaml:"baseline"`
	TimeoutSec  float64    `yaml:"timeout_seconds"`
	Workloads   []Workload `yaml:"workloads"`
	Payloads    []Payload  `yaml:"payloads"`
}

// DefaultIterations is applied when a suite leaves iterations unset.
const DefaultIterations = 5

// LoadFromFile reads and parses a suite definition.
func LoadFromFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read suite file: %w", err)
	}

	return Parse(data)
}

// Parse decodes, applies defaults, and validates a suite.
func Parse(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse suite YAML: %w", err)
	}

	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *Suite) applyDefaults() {
	if s.Iterations == 0 {
		s.Iterations = DefaultIterations
	}

	if s.Isolation == "" {
		if len(s.Payloads) > 0 {
			s.Isolation = IsolationSubprocess
		} else {
			s.Isolation = IsolationInProcess
		}
	}

	for i := range s.Workloads {
		w := &s.Workloads[i]

		if w.Kind == KindSum && w.CountTo == 0 {
			w.CountTo = 100_000
		}

		if w.Kind == KindDedup && w.Size == 0 {
			w.Size = 100_000
		}
	}
}

// Validate checks structural constraints. Baseline existence is
// checked separately against the built variant set.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("suite has no name")
	}

	if s.Iterations < 1 {
		return fmt.Errorf("suite %q: iterations must be >= 1, got %d",
			s.Name, s.Iterations)
	}

	if s.TimeoutSec < 0 {
		return fmt.Errorf("suite %q: timeout_seconds must not be negative",
			s.Name)
	}

	switch s.Isolation {
	case IsolationInProcess, IsolationSubprocess:
	default:
		return fmt.Errorf("suite %q: unknown isolation mode %q",
			s.Name, s.Isolation)
	}

	if len(s.Workloads) == 0 && len(s.Payloads) == 0 {
		return fmt.Errorf("suite %q has neither workloads nor payloads", s.Name)
	}

	if len(s.Workloads) > 0 && len(s.Payloads) > 0 {
		return fmt.Errorf("suite %q mixes workloads and payloads", s.Name)
	}

	// Built-in workload functions cannot cross a process boundary;
	// payloads cannot run in-process.
	if len(s.Workloads) > 0 && s.Isolation != IsolationInProcess {
		return fmt.Errorf("suite %q: workload suites run in-process", s.Name)
	}

	if len(s.Payloads) > 0 && s.Isolation != IsolationSubprocess {
		return fmt.Errorf("suite %q: payload suites require subprocess isolation",
			s.Name)
	}

	for i, w := range s.Workloads {
		if err := validateWorkload(w); err != nil {
			return fmt.Errorf("suite %q workload %d: %w", s.Name, i, err)
		}
	}

	seen := make(map[string]bool, len(s.Payloads))

	for i, p := range s.Payloads {
		if p.Name == "" {
			return fmt.Errorf("suite %q payload %d has no name", s.Name, i)
		}
		if seen[p.Name] {
			return fmt.Errorf("suite %q: duplicate payload name %q", s.Name, p.Name)
		}
		if len(p.Argv) == 0 {
			return fmt.Errorf("suite %q payload %q has empty argv", s.Name, p.Name)
		}

		seen[p.Name] = true
	}

	return nil
}

// Timeout returns the per-trial timeout as a duration.
func (s *Suite) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec * float64(time.Second))
}

func validateWorkload(w Workload) error {
	switch w.Kind {
	case KindSum:
		if w.CountTo < 1 {
			return fmt.Errorf("count_to must be >= 1, got %d", w.CountTo)
		}
	case KindDedup:
		if w.Size < 1 {
			return fmt.Errorf("size must be >= 1, got %d", w.Size)
		}
		if w.DuplicationRate < 0 || w.DuplicationRate >= 1 {
			return fmt.Errorf("duplication_rate must be in [0, 1), got %v",
				w.DuplicationRate)
		}
	case "":
		return fmt.Errorf("workload has no kind")
	default:
		return fmt.Errorf("unknown workload kind %q", w.Kind)
	}

	return nil
}
