// Package ingest moves readings from collectors through the WAL and queue
// into live state, and drives the periodic flow refresh.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

var (
	// ErrWALFull is returned when the WAL is over its size limit and the policy drops.
	ErrWALFull = errors.New("wal capacity exceeded")
	// ErrQueueFull is returned when the queue is full and the policy drops or rejects.
	ErrQueueFull = errors.New("queue capacity exceeded")
)

// RunEdge starts col and admits every reading it emits until ctx is done.
// The returned channel is closed once the admit loop has exited, after which
// no further WAL or queue calls are made.
func RunEdge(ctx context.Context, col ports.Collector, wal ports.WAL, q ports.ReadingQueue, pol ports.Policy, obs ports.Observability) (<-chan struct{}, error) {
	ch := make(chan *domain.Reading, pol.MaxQueueLen)

	if err := col.Start(ch); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case r := <-ch:
				if r == nil {
					continue
				}
				_ = Admit(ctx, wal, q, pol, obs, r)
			}
		}
	}()

	return done, nil
}

// Admit appends r to the WAL and enqueues it, applying the capacity policies.
func Admit(ctx context.Context, wal ports.WAL, q ports.ReadingQueue, pol ports.Policy, obs ports.Observability, r *domain.Reading) error {
	if !waitForWALCapacity(ctx, wal, pol, obs) {
		return ErrWALFull
	}

	id, err := wal.Append(r)
	if err != nil {
		obs.LogCritical("wal_append_failed", err)
		return fmt.Errorf("wal append: %w", err)
	}

	if !enqueueWithPolicy(ctx, q, id, r, pol, obs) {
		obs.IncCounter(ports.MetricQueueDropped, 1)
		return ErrQueueFull
	}
	return nil
}

func idleSleep(pol ports.Policy) time.Duration {
	if pol.IdleSleep <= 0 {
		return 5 * time.Millisecond
	}
	return pol.IdleSleep
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func waitForWALCapacity(ctx context.Context, wal ports.WAL, pol ports.Policy, obs ports.Observability) bool {
	if pol.MaxWALSizeBytes <= 0 {
		return true
	}
	sleep := idleSleep(pol)

	for {
		stats := wal.Stats()
		if stats.SizeBytes < pol.MaxWALSizeBytes {
			return true
		}

		switch pol.OnWALFull {
		case "block":
			if !sleepCtx(ctx, sleep) {
				return false
			}
		case "drop":
			obs.LogError("wal_full_drop", fmt.Errorf("size=%d limit=%d", stats.SizeBytes, pol.MaxWALSizeBytes))
			return false
		default:
			obs.LogError("wal_policy_invalid", fmt.Errorf("policy=%s", pol.OnWALFull))
			return false
		}
	}
}

func enqueueWithPolicy(ctx context.Context, q ports.ReadingQueue, id ports.WALEntryID, r *domain.Reading, pol ports.Policy, obs ports.Observability) bool {
	sleep := idleSleep(pol)

	for {
		if ok := q.Enqueue(id, r); ok {
			return true
		}

		switch pol.OnQueueFull {
		case "block":
			if !sleepCtx(ctx, sleep) {
				return false
			}
		case "drop", "reject":
			obs.LogError("queue_full_drop", fmt.Errorf("queue length exceeded capacity %d", pol.MaxQueueLen))
			return false
		default:
			obs.LogError("queue_policy_invalid", fmt.Errorf("policy=%s", pol.OnQueueFull))
			return false
		}
	}
}

// Replay enqueues every uncommitted WAL entry. It runs before collectors start.
func Replay(ctx context.Context, wal ports.WAL, q ports.ReadingQueue, pol ports.Policy, obs ports.Observability) (int, error) {
	stats := wal.Stats()
	if stats.LatestAppended == 0 {
		return 0, nil
	}
	start := stats.OldestUncommitted
	if start == 0 || start > stats.LatestAppended {
		return 0, nil
	}

	sleep := idleSleep(pol)
	var replayed int
	err := wal.Iterate(start, func(id ports.WALEntryID, r *domain.Reading) error {
		for {
			if q.Enqueue(id, r) {
				replayed++
				return nil
			}
			switch pol.OnQueueFull {
			case "drop", "reject":
				return fmt.Errorf("replay entry %d: %w", id, ErrQueueFull)
			default:
				if !sleepCtx(ctx, sleep) {
					return ctx.Err()
				}
			}
		}
	})
	if err != nil {
		return replayed, err
	}
	if replayed > 0 {
		obs.LogInfo("wal_replay_complete",
			ports.Field{Key: "readings", Value: replayed},
			ports.Field{Key: "from_id", Value: uint64(start)})
	}
	return replayed, nil
}
