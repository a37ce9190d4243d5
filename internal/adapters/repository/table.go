// Package repository holds the in-memory record repositories for tanks,
// gate walls and pipelines.
package repository

import (
	"sync"
	"time"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

// Option customises a repository.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the clock used for CreatedAt/UpdatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// table is an insertion-ordered map guarded by a RWMutex. Values are cloned
// on the way in and out so callers never share slices with the store.
type table[T any] struct {
	mu      sync.RWMutex
	order   []string
	rows    map[string]T
	version uint64
	clone   func(T) T
}

func newTable[T any](clone func(T) T) *table[T] {
	return &table[T]{rows: make(map[string]T), clone: clone}
}

func (t *table[T]) insert(id string, v T) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; ok {
		return domain.ErrAlreadyExists
	}
	t.rows[id] = t.clone(v)
	t.order = append(t.order, id)
	t.version++
	return nil
}

func (t *table[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[id]
	if !ok {
		return v, false
	}
	return t.clone(v), true
}

func (t *table[T]) list() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.clone(t.rows[id]))
	}
	return out
}

// update replaces the row with fn's result. fn runs under the write lock.
func (t *table[T]) update(id string, fn func(T) (T, error)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, domain.ErrNotFound
	}
	next, err := fn(t.clone(cur))
	if err != nil {
		var zero T
		return zero, err
	}
	t.rows[id] = t.clone(next)
	t.version++
	return t.clone(next), nil
}

func (t *table[T]) remove(id string) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[id]
	if !ok {
		return v, domain.ErrNotFound
	}
	delete(t.rows, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	t.version++
	return v, nil
}

func (t *table[T]) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = make(map[string]T)
	t.order = nil
	t.version++
}

func (t *table[T]) ver() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}
