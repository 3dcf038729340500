package workload

import (
	"testing"

	"github.com/mwetzel/benchvs/suite"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := Config{Size: 1000, DuplicationRate: 0.5, Seed: 42}

	a := NewGenerator(cfg).Generate()
	b := NewGenerator(cfg).Generate()

	if len(a) != 1000 {
		t.Fatalf("got %d rows, want 1000", len(a))
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatal("datasets differ for the same seed")
		}
	}
}

func TestGenerateDuplicationRate(t *testing.T) {
	tests := []struct {
		rate      float64
		maxUnique int
	}{
		{0.0, 1000},
		{0.5, 500},
		{0.9, 100},
	}

	for _, tt := range tests {
		data := NewGenerator(Config{
			Size: 1000, DuplicationRate: tt.rate, Seed: 7,
		}).Generate()

		seen := make(map[int64]struct{})
		for _, id := range data {
			seen[id] = struct{}{}
		}

		if len(seen) > tt.maxUnique {
			t.Errorf("rate %v: %d unique ids, want <= %d",
				tt.rate, len(seen), tt.maxUnique)
		}
	}
}

func TestSumVariantsAgree(t *testing.T) {
	const n = 10_000

	set, err := SumVariants(n)
	if err != nil {
		t.Fatalf("SumVariants failed: %v", err)
	}

	want := int64(n) * int64(n-1) / 2
	values := make(map[string]any)

	for _, v := range set.All() {
		got, err := v.Execute()
		if err != nil {
			t.Fatalf("%s failed: %v", v.ID(), err)
		}

		if got != want {
			t.Errorf("%s = %v, want %d", v.ID(), got, want)
		}

		values[v.ID()] = got
	}

	if err := CrossCheck(values); err != nil {
		t.Errorf("CrossCheck failed: %v", err)
	}

	want2 := []string{"for-loop", "while-loop", "recursion", "gauss-formula"}
	got2 := set.IDs()
	if len(got2) != len(want2) {
		t.Fatalf("got variants %v, want %v", got2, want2)
	}
	for i := range want2 {
		if got2[i] != want2[i] {
			t.Errorf("variant %d = %q, want %q", i, got2[i], want2[i])
		}
	}
}

func TestDedupVariantsAgree(t *testing.T) {
	data := NewGenerator(Config{
		Size: 5000, DuplicationRate: 0.7, Seed: 42,
	}).Generate()

	truth := make(map[int64]struct{})
	for _, id := range data {
		truth[id] = struct{}{}
	}

	set, err := DedupVariants(data)
	if err != nil {
		t.Fatalf("DedupVariants failed: %v", err)
	}

	for _, v := range set.All() {
		got, err := v.Execute()
		if err != nil {
			t.Fatalf("%s failed: %v", v.ID(), err)
		}

		if got != len(truth) {
			t.Errorf("%s = %v, want %d unique", v.ID(), got, len(truth))
		}
	}
}

func TestBuild(t *testing.T) {
	set, err := Build(suite.Workload{Kind: suite.KindSum, CountTo: 100})
	if err != nil {
		t.Fatalf("Build sum failed: %v", err)
	}
	if set.Len() == 0 {
		t.Error("sum workload produced no variants")
	}

	seed := int64(1)
	set, err = Build(suite.Workload{
		Kind: suite.KindDedup, Size: 100, DuplicationRate: 0.5, Seed: &seed,
	})
	if err != nil {
		t.Fatalf("Build dedup failed: %v", err)
	}
	if set.Len() == 0 {
		t.Error("dedup workload produced no variants")
	}

	if _, err := Build(suite.Workload{Kind: "nope"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestCrossCheckMismatch(t *testing.T) {
	err := CrossCheck(map[string]any{"a": 1, "b": 2})
	if err == nil {
		t.Error("expected mismatch error")
	}
}

func TestCrossCheckNonComparable(t *testing.T) {
	err := CrossCheck(map[string]any{
		"a": []int64{1, 2, 3},
		"b": []int64{1, 2, 3},
	})
	if err != nil {
		t.Errorf("CrossCheck failed on equal slices: %v", err)
	}

	err = CrossCheck(map[string]any{
		"a": []int64{1, 2, 3},
		"b": []int64{1, 2},
	})
	if err == nil {
		t.Error("expected mismatch error for differing slices")
	}
}

func TestCrossCheckSkipsNil(t *testing.T) {
	err := CrossCheck(map[string]any{"a": 5, "failed": nil, "b": 5})
	if err != nil {
		t.Errorf("CrossCheck failed: %v", err)
	}
}
