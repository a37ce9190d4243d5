package state

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStoreApplyAndHistoryLimit(t *testing.T) {
	s := NewStore[int](3)

	if _, ok := s.Current("a"); ok {
		t.Fatalf("expected no current value before any apply")
	}
	for i := 1; i <= 5; i++ {
		s.Apply("a", i)
	}

	if v, ok := s.Current("a"); !ok || v != 5 {
		t.Fatalf("expected current 5, got %d (%v)", v, ok)
	}
	if diff := cmp.Diff([]int{3, 4, 5}, s.History("a")); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}

	h := s.History("a")
	h[0] = 99
	if s.History("a")[0] != 3 {
		t.Fatalf("history must be returned as a copy")
	}
}

func TestStoreSnapshot(t *testing.T) {
	s := NewStore[string](0)
	s.Apply("loud", "x")

	snap := s.Snapshot()
	if diff := cmp.Diff(map[string]string{"loud": "x"}, snap); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if len(s.History("loud")) != 0 {
		t.Fatalf("zero limit must not keep history")
	}
	if s.History("missing") != nil {
		t.Fatalf("expected nil history for unknown id")
	}
}

func TestStoreVersion(t *testing.T) {
	s := NewStore[int](10)
	v0 := s.Version()

	s.Apply("a", 1)
	v1 := s.Version()
	if v1 <= v0 {
		t.Fatalf("apply must bump the version")
	}
	s.Forget("missing")
	if s.Version() != v1 {
		t.Fatalf("forgetting an unknown id must not bump the version")
	}
	s.Forget("a")
	if _, ok := s.Current("a"); ok || s.Version() <= v1 {
		t.Fatalf("forget must drop the entry and bump the version")
	}
	s.Apply("b", 2)
	s.Clear()
	if len(s.Snapshot()) != 0 {
		t.Fatalf("clear must drop every entry")
	}
}

func TestStoreConcurrentApply(t *testing.T) {
	s := NewStore[int](GateHistory)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Apply("g", i)
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()

	if got := len(s.History("g")); got != GateHistory {
		t.Fatalf("expected history capped at %d, got %d", GateHistory, got)
	}
	if s.Version() != 800 {
		t.Fatalf("expected 800 mutations, got %d", s.Version())
	}
}
