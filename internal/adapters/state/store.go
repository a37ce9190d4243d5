// Package state keeps the live telemetry of devices and pipelines in memory.
package state

import (
	"sync"

	"github.com/ghalamif/AquaFlow/internal/ports"
)

// Default history limits per record family.
const (
	GateHistory     = 200
	TankHistory     = 100
	PipelineHistory = 200
)

type entry[T any] struct {
	current T
	has     bool
	history []T
}

// Store holds the current value and a bounded history per ID.
type Store[T any] struct {
	mu      sync.RWMutex
	limit   int
	entries map[string]*entry[T]
	version uint64
}

// NewStore builds a store keeping at most limit history items per ID. A
// non-positive limit keeps only the current value.
func NewStore[T any](limit int) *Store[T] {
	return &Store[T]{limit: limit, entries: make(map[string]*entry[T])}
}

func (s *Store[T]) Apply(id string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		e = &entry[T]{}
		s.entries[id] = e
	}
	e.current = v
	e.has = true
	if s.limit > 0 {
		e.history = append(e.history, v)
		if over := len(e.history) - s.limit; over > 0 {
			e.history = append(e.history[:0], e.history[over:]...)
		}
	}
	s.version++
}

func (s *Store[T]) Current(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok || !e.has {
		var zero T
		return zero, false
	}
	return e.current, true
}

// History returns the retained values for id, oldest first.
func (s *Store[T]) History(id string) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	out := make([]T, len(e.history))
	copy(out, e.history)
	return out
}

// Snapshot copies the current value of every ID that has reported.
func (s *Store[T]) Snapshot() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]T, len(s.entries))
	for id, e := range s.entries {
		if e.has {
			out[id] = e.current
		}
	}
	return out
}

// Forget drops an ID and its history.
func (s *Store[T]) Forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		delete(s.entries, id)
		s.version++
	}
}

func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry[T])
	s.version++
}

func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

var _ ports.LiveStore[int] = (*Store[int])(nil)
