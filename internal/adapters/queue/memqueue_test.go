package queue

import (
	"testing"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

func TestMemQueueEnqueueDequeueOrder(t *testing.T) {
	q := NewMemQueue(4)

	r1 := &domain.Reading{DeviceID: "gw-1", Kind: domain.KindGate}
	r2 := &domain.Reading{DeviceID: "tank-1", Kind: domain.KindTank}

	if !q.Enqueue(1, r1) || !q.Enqueue(2, r2) {
		t.Fatalf("expected successful enqueue")
	}

	batch := q.DequeueBatch(1)
	if len(batch) != 1 || batch[0].ID != 1 || batch[0].Reading.DeviceID != "gw-1" {
		t.Fatalf("unexpected first batch: %+v", batch)
	}

	remaining := q.DequeueBatch(10)
	if len(remaining) != 1 || remaining[0].ID != 2 || remaining[0].Reading.Kind != domain.KindTank {
		t.Fatalf("unexpected second batch: %+v", remaining)
	}

	if q.Len() != 0 {
		t.Fatalf("queue should be empty, got %d", q.Len())
	}
	if got := q.DequeueBatch(5); got != nil {
		t.Fatalf("expected nil batch from empty queue, got %+v", got)
	}
}

func TestMemQueueCapacity(t *testing.T) {
	q := NewMemQueue(2)

	r := &domain.Reading{DeviceID: "cap"}

	if !q.Enqueue(1, r) || !q.Enqueue(2, r) {
		t.Fatalf("expected enqueue within capacity")
	}
	if q.Enqueue(3, r) {
		t.Fatalf("enqueue should fail when capacity exceeded")
	}

	q.DequeueBatch(1)
	if !q.Enqueue(4, r) {
		t.Fatalf("expected enqueue to succeed after dequeue")
	}
}
