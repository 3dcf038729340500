// Package report formats benchmark results into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/mwetzel/benchvs/stats"
	"github.com/mwetzel/benchvs/store"
	"github.com/mwetzel/benchvs/sweep"
)

// CheckResult is the outcome of the cross-variant value check.
type CheckResult int

const (
	CheckSkipped CheckResult = iota
	CheckMatch
	CheckMismatch
)

// Run writes a markdown comparison table for one run record. Failed
// variants appear as explicit "failed" rows rather than being omitted.
func Run(w io.Writer, rec store.RunRecord, check CheckResult) error {
	if len(rec.Measurements) == 0 {
		return fmt.Errorf("no measurements to report")
	}

	fmt.Fprintf(w, "## %s\n", rec.Config.Suite)
	fmt.Fprintln(w)

	switch check {
	case CheckMatch:
		fmt.Fprintln(w, "Variant values: **all match**")
		fmt.Fprintln(w)
	case CheckMismatch:
		fmt.Fprintln(w, "Variant values: **MISMATCH**")
		fmt.Fprintln(w)
	}

	baseline, ok := baselineMean(rec)
	if !ok {
		fmt.Fprintln(w, "All variants failed.")
	}

	fmt.Fprintln(w, "| Variant | Mean | Stdev | Min | Max | Slowdown |")
	fmt.Fprintln(w, "|---------|------|-------|-----|-----|----------|")

	for _, id := range rec.Ranking {
		m := rec.Measurements[id]
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %.2fx |\n",
			id,
			formatSeconds(m.Mean),
			formatSeconds(m.Stdev),
			formatSeconds(m.Min),
			formatSeconds(m.Max),
			m.Mean/baseline,
		)
	}

	for _, id := range failedIDs(rec) {
		m := rec.Measurements[id]
		fmt.Fprintf(w, "| %s | failed: %s | - | - | - | - |\n", id, m.Error)
	}

	return nil
}

// Sweep writes a per-version comparison table. Change is relative to
// the first recorded version, matching how a regression across library
// versions is usually read.
func Sweep(w io.Writer, res sweep.Result) error {
	if len(res.Versions) == 0 {
		return fmt.Errorf("no versions to report")
	}

	fmt.Fprintln(w, "## Version Sweep")
	fmt.Fprintln(w)

	if res.Original != "" {
		fmt.Fprintf(w, "Original version: %s\n", res.Original)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "| Version | Mean | Stdev | Min | Max | Change |")
	fmt.Fprintln(w, "|---------|------|-------|-----|-----|--------|")

	var baseline float64

	for _, vr := range res.Versions {
		if vr.Status == sweep.StatusSkipped {
			fmt.Fprintf(w, "| %s | skipped: %s | - | - | - | - |\n",
				vr.Version, vr.InstallErr)
			continue
		}

		if vr.Measurement.Failed() {
			fmt.Fprintf(w, "| %s | failed: %s | - | - | - | - |\n",
				vr.Version, vr.Measurement.Err)
			continue
		}

		st, err := stats.Summarize(vr.Measurement.Samples)
		if err != nil {
			return fmt.Errorf("summarize %s: %w", vr.Version, err)
		}

		change := "(baseline)"
		if baseline == 0 {
			baseline = st.Mean
		} else {
			change = fmt.Sprintf("%+.1f%%", (st.Mean-baseline)/baseline*100)
		}

		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s |\n",
			vr.Version,
			formatSeconds(st.Mean),
			formatSeconds(st.Stdev),
			formatSeconds(st.Min),
			formatSeconds(st.Max),
			change,
		)
	}

	if res.RestoreErr != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Warning: failed to restore original version: %s\n",
			res.RestoreErr)
	}

	return nil
}

// History writes one summary line per recorded run, newest last.
func History(w io.Writer, records []store.RunRecord, last int) error {
	if last > 0 && len(records) > last {
		records = records[len(records)-last:]
	}

	if len(records) == 0 {
		fmt.Fprintln(w, "No recorded runs.")
		return nil
	}

	fmt.Fprintln(w, "| Timestamp | Suite | Variants | Fastest | Mean |")
	fmt.Fprintln(w, "|-----------|-------|----------|---------|------|")

	for _, rec := range records {
		fastest, mean := "-", "-"

		if len(rec.Ranking) > 0 {
			fastest = rec.Ranking[0]
			mean = formatSeconds(rec.Measurements[fastest].Mean)
		}

		fmt.Fprintf(w, "| %.0f | %s | %d | %s | %s |\n",
			rec.Timestamp,
			rec.Config.Suite,
			len(rec.Measurements),
			fastest,
			mean,
		)
	}

	return nil
}

// JSON writes v as indented JSON to w.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// baselineMean resolves the mean used for the slowdown column: the
// configured baseline when it ranked, otherwise the fastest variant.
func baselineMean(rec store.RunRecord) (float64, bool) {
	if len(rec.Ranking) == 0 {
		return 1, false
	}

	if id := rec.Config.Baseline; id != "" {
		for _, ranked := range rec.Ranking {
			if ranked == id {
				return rec.Measurements[id].Mean, true
			}
		}
	}

	return rec.Measurements[rec.Ranking[0]].Mean, true
}

func failedIDs(rec store.RunRecord) []string {
	ranked := make(map[string]bool, len(rec.Ranking))
	for _, id := range rec.Ranking {
		ranked[id] = true
	}

	var failed []string
	for id := range rec.Measurements {
		if !ranked[id] {
			failed = append(failed, id)
		}
	}

	sort.Strings(failed)

	return failed
}

func formatSeconds(sec float64) string {
	if sec >= 1 {
		return fmt.Sprintf("%.2fs", sec)
	}

	return fmt.Sprintf("%.3fms", sec*1000)
}
