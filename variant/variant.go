// Package variant defines the unit of work a benchmark run compares:
// one named candidate implementation of the task under test.
package variant

import "fmt"

// Variant is one candidate implementation being benchmarked against
// others solving the same task. The returned value is used only for
// optional cross-checks between variants; it must not depend on or
// mutate harness state.
type Variant interface {
	ID() string
	Execute() (any, error)
}

// Func adapts a plain function to the Variant interface.
type Func struct {
	Name string
	Fn   func() (any, error)
}

// ID returns the variant name.
func (f Func) ID() string { return f.Name }

// Execute runs the wrapped function.
func (f Func) Execute() (any, error) { return f.Fn() }

// Set is an insertion-ordered collection of uniquely named variants.
// Registration order is preserved and used as the ranking tie-break.
type Set struct {
	order []Variant
	index map[string]int
}

// NewSet creates an empty Set and registers the given variants in order.
func NewSet(variants ...Variant) (*Set, error) {
	s := &Set{index: make(map[string]int, len(variants))}

	for _, v := range variants {
		if err := s.Add(v); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Add registers a variant. IDs must be non-empty and unique within the set.
func (s *Set) Add(v Variant) error {
	id := v.ID()
	if id == "" {
		return fmt.Errorf("variant has empty id")
	}

	if _, ok := s.index[id]; ok {
		return fmt.Errorf("duplicate variant id %q", id)
	}

	s.index[id] = len(s.order)
	s.order = append(s.order, v)

	return nil
}

// Has reports whether a variant with the given id is registered.
func (s *Set) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// All returns the registered variants in insertion order.
func (s *Set) All() []Variant {
	out := make([]Variant, len(s.order))
	copy(out, s.order)

	return out
}

// IDs returns the registered ids in insertion order.
func (s *Set) IDs() []string {
	ids := make([]string, len(s.order))
	for i, v := range s.order {
		ids[i] = v.ID()
	}

	return ids
}

// Len returns the number of registered variants.
func (s *Set) Len() int { return len(s.order) }
