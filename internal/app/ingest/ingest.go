package ingest

import (
	"context"
	"time"

	"github.com/ghalamif/AquaFlow/internal/app/network"
	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

// Applier merges readings into live state.
type Applier interface {
	ApplyReadings(batch []*domain.Reading) (int, []network.RejectedReading)
}

// RunIngest drains the queue into live state until ctx is done. Entries are
// committed once applied, rejected or sent to the DLQ; the WAL is compacted
// when it passes half of its size limit.
func RunIngest(ctx context.Context, wal ports.WAL, q ports.ReadingQueue, tr ports.Transformer, app Applier, pol ports.Policy, obs ports.Observability) {
	sleep := idleSleep(pol)
	for {
		if ctx.Err() != nil {
			return
		}
		batch := q.DequeueBatch(pol.MaxBatchSize)
		if len(batch) == 0 {
			if !sleepCtx(ctx, sleep) {
				return
			}
			continue
		}
		ingestBatch(wal, tr, app, pol, obs, batch)
	}
}

func ingestBatch(wal ports.WAL, tr ports.Transformer, app Applier, pol ports.Policy, obs ports.Observability, batch []ports.QueuedReading) {
	var (
		out   = make([]*domain.Reading, 0, len(batch))
		maxID ports.WALEntryID
	)

	for _, item := range batch {
		if item.ID > maxID {
			maxID = item.ID
		}
		r, err := tr.Transform(item.Reading)
		if err != nil {
			obs.RecordDLQ(item.ID, item.Reading, err)
			continue
		}
		r.TransformVer = tr.Version()
		out = append(out, r)
	}

	if len(out) > 0 {
		start := time.Now()
		applied, rejected := app.ApplyReadings(out)
		obs.ObserveLatency(ports.MetricIngestLatency, time.Since(start).Seconds())
		obs.IncCounter(ports.MetricReadingsIngested, float64(applied))
		if len(rejected) > 0 {
			obs.IncCounter(ports.MetricReadingsRejected, float64(len(rejected)))
			first := rejected[0]
			obs.LogError("readings_rejected", first.Err,
				ports.Field{Key: "count", Value: len(rejected)},
				ports.Field{Key: "device_id", Value: deviceID(first.Reading)})
		}
	}

	if err := wal.Commit(maxID); err != nil {
		obs.LogError("wal_commit_failed", err)
		return
	}
	if pol.MaxWALSizeBytes > 0 && wal.Stats().SizeBytes >= pol.MaxWALSizeBytes/2 {
		if err := wal.TruncateCommitted(); err != nil {
			obs.LogError("wal_truncate_failed", err)
		}
	}
}

func deviceID(r *domain.Reading) string {
	if r == nil {
		return ""
	}
	return r.DeviceID
}
