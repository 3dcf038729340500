package stats

import (
	"fmt"
	"sort"
)

// Entry pairs a variant id with its summary stats. Callers build entries
// in registration order; Rank relies on that order to break ties.
type Entry struct {
	ID    string
	Stats Stats
}

// Rank orders variant ids ascending by mean time. The sort is stable:
// variants with identical means keep their registration order, never
// falling back to id comparison.
func Rank(entries []Entry) []string {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Stats.Mean < sorted[j].Stats.Mean
	})

	ids := make([]string, len(sorted))
	for i, e := range sorted {
		ids[i] = e.ID
	}

	return ids
}

// Speedup reports how many times faster a is than b.
func Speedup(a, b Stats) float64 {
	return b.Mean / a.Mean
}

// RelativeSlowdown reports v's mean as a multiple of the baseline's.
// It is exactly 1.0 for the baseline itself and >= 1.0 for every
// variant when the baseline is the fastest.
func RelativeSlowdown(v, baseline Stats) float64 {
	return v.Mean / baseline.Mean
}

// Baseline resolves the baseline entry: the named variant when id is
// non-empty, otherwise the fastest. An unknown id is a configuration
// error; callers resolve the baseline before measuring so the run
// fails fast.
func Baseline(entries []Entry, id string) (Entry, error) {
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("baseline: no entries")
	}

	if id != "" {
		for _, e := range entries {
			if e.ID == id {
				return e, nil
			}
		}

		return Entry{}, fmt.Errorf("baseline: unknown variant %q", id)
	}

	best := entries[0]
	for _, e := range entries[1:] {
		if e.Stats.Mean < best.Stats.Mean {
			best = e
		}
	}

	return best, nil
}
