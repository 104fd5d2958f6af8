package huidu

import (
	"errors"
	"testing"
)

func TestProgramRegistry(t *testing.T) {
	r := NewProgramRegistry(3)

	if r.Count(0) != 0 {
		t.Fatalf("expected empty registry")
	}
	if _, err := r.Lookup(0, 0); !errors.Is(err, ErrProgramIndex) {
		t.Errorf("expected ErrProgramIndex, got %v", err)
	}

	input := []string{"A", "B"}
	if err := r.Replace(0, input); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	input[0] = "changed"

	if r.Count(0) != 2 {
		t.Errorf("expected 2 programs, got %d", r.Count(0))
	}
	if guid, err := r.Lookup(0, 0); err != nil || guid != "A" {
		t.Errorf("expected A, got %q (%v)", guid, err)
	}
	if guid, err := r.Lookup(0, 1); err != nil || guid != "B" {
		t.Errorf("expected B, got %q (%v)", guid, err)
	}
	for _, idx := range []int{-1, 2} {
		if _, err := r.Lookup(0, idx); !errors.Is(err, ErrProgramIndex) {
			t.Errorf("index %d: expected ErrProgramIndex, got %v", idx, err)
		}
	}

	list := r.List(0)
	list[1] = "changed"
	if guid, _ := r.Lookup(0, 1); guid != "B" {
		t.Error("List must return a copy")
	}

	// Yeni liste eskisinin yerine geçer.
	if err := r.Replace(0, []string{"C"}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if r.Count(0) != 1 {
		t.Errorf("expected stale entries to be dropped, got %d", r.Count(0))
	}
	if _, err := r.Lookup(0, 1); !errors.Is(err, ErrProgramIndex) {
		t.Errorf("expected ErrProgramIndex for stale index, got %v", err)
	}

	if err := r.Replace(1, []string{"a", "b", "c", "d"}); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
	if r.Count(1) != 0 {
		t.Error("failed Replace must not modify the registry")
	}

	r.Reset()
	if r.Count(0) != 0 {
		t.Error("Reset should clear all devices")
	}
}
