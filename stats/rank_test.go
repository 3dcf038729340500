package stats

import (
	"math"
	"testing"
)

func entry(id string, mean float64) Entry {
	return Entry{ID: id, Stats: Stats{Mean: mean, Min: mean, Max: mean}}
}

func TestRankByMean(t *testing.T) {
	// Three variants with deterministic timings: 10ms, 5ms, 20ms.
	entries := []Entry{
		entry("mid", 0.010),
		entry("fast", 0.005),
		entry("slow", 0.020),
	}

	got := Rank(entries)
	want := []string{"fast", "mid", "slow"}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ranking[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	base, err := Baseline(entries, "")
	if err != nil {
		t.Fatalf("Baseline failed: %v", err)
	}

	if base.ID != "fast" {
		t.Errorf("baseline = %q, want fast", base.ID)
	}

	wantSlowdown := map[string]float64{"fast": 1.0, "mid": 2.0, "slow": 4.0}
	for _, e := range entries {
		got := RelativeSlowdown(e.Stats, base.Stats)
		if math.Abs(got-wantSlowdown[e.ID]) > 1e-12 {
			t.Errorf("slowdown(%s) = %v, want %v", e.ID, got, wantSlowdown[e.ID])
		}
	}
}

func TestRankStableTieBreak(t *testing.T) {
	// Identical means must keep registration order, not sort by id.
	entries := []Entry{
		entry("zeta", 0.010),
		entry("alpha", 0.010),
		entry("mike", 0.010),
	}

	got := Rank(entries)
	want := []string{"zeta", "alpha", "mike"}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ranking[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	entries := []Entry{entry("b", 0.2), entry("a", 0.1)}

	Rank(entries)

	if entries[0].ID != "b" || entries[1].ID != "a" {
		t.Error("Rank mutated its input")
	}
}

func TestSpeedup(t *testing.T) {
	a := Stats{Mean: 0.005}
	b := Stats{Mean: 0.020}

	if got := Speedup(a, b); got != 4.0 {
		t.Errorf("Speedup = %v, want 4.0", got)
	}
}

func TestBaselineExplicit(t *testing.T) {
	entries := []Entry{entry("fast", 0.005), entry("ref", 0.010)}

	base, err := Baseline(entries, "ref")
	if err != nil {
		t.Fatalf("Baseline failed: %v", err)
	}

	if base.ID != "ref" {
		t.Errorf("baseline = %q, want ref", base.ID)
	}

	if got := RelativeSlowdown(base.Stats, base.Stats); got != 1.0 {
		t.Errorf("baseline slowdown = %v, want exactly 1.0", got)
	}
}

func TestBaselineUnknown(t *testing.T) {
	entries := []Entry{entry("a", 0.1)}

	if _, err := Baseline(entries, "nope"); err == nil {
		t.Error("expected error for unknown baseline id")
	}
}

func TestBaselineEmpty(t *testing.T) {
	if _, err := Baseline(nil, ""); err == nil {
		t.Error("expected error for empty entries")
	}
}
