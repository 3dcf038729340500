// Package workload provides the built-in workloads the harness ships
// with: competing summation implementations and competing
// deduplication implementations over a generated dataset with a
// controlled duplication rate. Every variant of a workload returns a
// value that must agree across variants.
package workload

import (
	"fmt"
	mrand "math/rand"
	"reflect"
	"sort"

	"github.com/mwetzel/benchvs/suite"
	"github.com/mwetzel/benchvs/variant"
)

// Config controls dataset generation parameters.
type Config struct {
	Size            int
	DuplicationRate float64
	Seed            int64
}

// Generator produces deterministic datasets from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Generate returns Size ids where roughly DuplicationRate of the rows
// duplicate an earlier id, shuffled so duplicates mix throughout.
func (g *Generator) Generate() []int64 {
	unique := int(float64(g.cfg.Size) * (1 - g.cfg.DuplicationRate))
	if unique < 1 {
		unique = 1
	}

	ids := make([]int64, g.cfg.Size)
	for i := range ids {
		ids[i] = int64(g.rng.Intn(unique))
	}

	g.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})

	return ids
}

// Build constructs the variant set for one suite workload.
func Build(w suite.Workload) (*variant.Set, error) {
	switch w.Kind {
	case suite.KindSum:
		return SumVariants(w.CountTo)
	case suite.KindDedup:
		data := NewGenerator(Config{
			Size:            w.Size,
			DuplicationRate: w.DuplicationRate,
			Seed:            w.SeedValue(),
		}).Generate()

		return DedupVariants(data)
	default:
		return nil, fmt.Errorf("unknown workload kind %q", w.Kind)
	}
}

// Params describes a workload for the persisted run configuration.
func Params(w suite.Workload) map[string]any {
	switch w.Kind {
	case suite.KindSum:
		return map[string]any{"kind": w.Kind, "count_to": w.CountTo}
	case suite.KindDedup:
		return map[string]any{
			"kind":             w.Kind,
			"size":             w.Size,
			"duplication_rate": w.DuplicationRate,
			"seed":             w.SeedValue(),
		}
	default:
		return map[string]any{"kind": w.Kind}
	}
}

// SumVariants returns competing implementations of summing the
// integers in [0, n).
func SumVariants(n int) (*variant.Set, error) {
	return variant.NewSet(
		variant.Func{Name: "for-loop", Fn: func() (any, error) {
			var total int64
			for i := int64(0); i < int64(n); i++ {
				total += i
			}
			return total, nil
		}},
		variant.Func{Name: "while-loop", Fn: func() (any, error) {
			var total int64
			i := int64(0)
			for i < int64(n) {
				total += i
				i++
			}
			return total, nil
		}},
		variant.Func{Name: "recursion", Fn: func() (any, error) {
			return sumRecursive(int64(n), 0, 0), nil
		}},
		variant.Func{Name: "gauss-formula", Fn: func() (any, error) {
			m := int64(n)
			return m * (m - 1) / 2, nil
		}},
	)
}

func sumRecursive(n, current, total int64) int64 {
	if current >= n {
		return total
	}

	return sumRecursive(n, current+1, total+current)
}

// DedupVariants returns competing implementations of deduplicating
// the given ids, each reporting the unique count.
func DedupVariants(data []int64) (*variant.Set, error) {
	return variant.NewSet(
		variant.Func{Name: "map-ordered", Fn: func() (any, error) {
			seen := make(map[int64]bool)
			out := make([]int64, 0, len(data))

			for _, id := range data {
				if !seen[id] {
					seen[id] = true
					out = append(out, id)
				}
			}

			return len(out), nil
		}},
		variant.Func{Name: "sort-compact", Fn: func() (any, error) {
			sorted := make([]int64, len(data))
			copy(sorted, data)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			n := 0
			for i, id := range sorted {
				if i == 0 || id != sorted[i-1] {
					sorted[n] = id
					n++
				}
			}

			return n, nil
		}},
		variant.Func{Name: "struct-set", Fn: func() (any, error) {
			seen := make(map[int64]struct{}, len(data))
			for _, id := range data {
				seen[id] = struct{}{}
			}

			return len(seen), nil
		}},
	)
}

// CrossCheck verifies that every variant produced the same value,
// keyed by variant id. Nil values (failed variants) are skipped.
func CrossCheck(values map[string]any) error {
	var refID string
	var ref any

	for id, v := range values {
		if v == nil {
			continue
		}

		if ref == nil {
			refID, ref = id, v
			continue
		}

		if !reflect.DeepEqual(v, ref) {
			return fmt.Errorf("value mismatch: %s=%v, %s=%v", refID, ref, id, v)
		}
	}

	return nil
}
