// Package store persists benchmark runs as an append-only JSONL
// history. Each run is one self-contained record on its own line,
// parseable independently of prior or subsequent records; records are
// never rewritten in place, so the log stays comparable across library
// versions and machine states.
package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mwetzel/benchvs/stats"
)

// VariantStats is the persisted summary for one variant. Times are
// float seconds. Failed variants carry an error instead of stats.
type VariantStats struct {
	Mean     float64   `json:"mean"`
	Stdev    float64   `json:"stdev"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	AllTimes []float64 `json:"all_times,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// FromStats converts summary stats and raw samples to the persisted form.
func FromStats(st stats.Stats, samples []time.Duration) VariantStats {
	return VariantStats{
		Mean:     st.Mean,
		Stdev:    st.Stdev,
		Min:      st.Min,
		Max:      st.Max,
		AllTimes: stats.Seconds(samples),
	}
}

// RunConfig records the inputs that produced a run.
type RunConfig struct {
	Suite      string         `json:"suite,omitempty"`
	Iterations int            `json:"iterations"`
	Warmup     bool           `json:"warmup,omitempty"`
	Isolation  string         `json:"isolation,omitempty"`
	Baseline   string         `json:"baseline,omitempty"`
	TimeoutSec float64        `json:"timeout_seconds,omitempty"`
	Workload   map[string]any `json:"workload,omitempty"`
	Versions   []string       `json:"versions,omitempty"`
}

// RunRecord is one harness invocation: configuration, per-variant
// stats with raw samples, and the ranking ascending by mean. Created
// once per run and never mutated after persistence.
type RunRecord struct {
	ID           string                  `json:"id"`
	Timestamp    float64                 `json:"timestamp"`
	Config       RunConfig               `json:"configuration"`
	Measurements map[string]VariantStats `json:"measurements"`
	Ranking      []string                `json:"ranking"`
}

// NewRecord creates an empty record stamped with the current time
// (seconds since epoch) and a fresh id.
func NewRecord(cfg RunConfig) RunRecord {
	return RunRecord{
		ID:           uuid.NewString(),
		Timestamp:    float64(time.Now().UnixNano()) / 1e9,
		Config:       cfg,
		Measurements: make(map[string]VariantStats),
	}
}

// Store owns the on-disk history file. It is the only writer for the
// lifetime of one benchmark invocation; concurrent writers are not
// supported.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a Store for the given history file path.
func New(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With(slog.String("component", "store")),
	}
}

// Path returns the history file path.
func (s *Store) Path() string { return s.path }

// Append writes exactly one record as a single JSON line. The file is
// opened with O_APPEND and never truncated: prior records are never
// modified or removed. A write failure is returned to the caller; the
// in-memory record stays usable for display.
func (s *Store) Append(rec RunRecord) error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history %s: %w", s.path, err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(rec); err != nil {
		f.Close()
		return fmt.Errorf("append record: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close history %s: %w", s.path, err)
	}

	s.logger.Debug("record appended",
		slog.String("id", rec.ID),
		slog.String("path", s.path),
	)

	return nil
}

// ReadAll parses the history line by line. A missing file is an empty
// history, not an error.
func (s *Store) ReadAll() ([]RunRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("open history %s: %w", s.path, err)
	}
	defer f.Close()

	var records []RunRecord

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for scanner.Scan() {
		line++

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var rec RunRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("history %s line %d: %w", s.path, line, err)
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history %s: %w", s.path, err)
	}

	return records, nil
}
