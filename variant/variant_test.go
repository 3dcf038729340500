package variant

import "testing"

func fn(name string) Func {
	return Func{Name: name, Fn: func() (any, error) { return nil, nil }}
}

func TestSetPreservesOrder(t *testing.T) {
	s, err := NewSet(fn("slow"), fn("fast"), fn("mid"))
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}

	want := []string{"slow", "fast", "mid"}
	got := s.IDs()

	if len(got) != len(want) {
		t.Fatalf("got %d ids, want %d", len(got), len(want))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
}

func TestSetRejectsDuplicateID(t *testing.T) {
	_, err := NewSet(fn("a"), fn("a"))
	if err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestSetRejectsEmptyID(t *testing.T) {
	s, _ := NewSet()
	if err := s.Add(fn("")); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestSetHas(t *testing.T) {
	s, err := NewSet(fn("a"))
	if err != nil {
		t.Fatalf("NewSet failed: %v", err)
	}

	if !s.Has("a") {
		t.Error("Has(a) = false, want true")
	}
	if s.Has("b") {
		t.Error("Has(b) = true, want false")
	}
}
