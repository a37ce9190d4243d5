package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

// Refresher computes one round of pipeline statuses.
type Refresher interface {
	Refresh(ctx context.Context) ([]*domain.PipelineStatus, error)
}

// RoundFunc observes every computed round, including rounds the sink failed to write.
type RoundFunc func(statuses []*domain.PipelineStatus)

// RunRefresh refreshes immediately and then on every interval tick until ctx
// is done.
func RunRefresh(ctx context.Context, r Refresher, sink ports.StatusSink, interval time.Duration, obs ports.Observability, onRound RoundFunc) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		statuses, err := RefreshOnce(ctx, r, sink, obs)
		if statuses != nil && onRound != nil {
			onRound(statuses)
		}
		if err != nil && ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RefreshOnce runs a single round and hands it to sink. A sink failure is
// logged and returned; the round stays in the pipeline state store.
func RefreshOnce(ctx context.Context, r Refresher, sink ports.StatusSink, obs ports.Observability) ([]*domain.PipelineStatus, error) {
	start := time.Now()
	statuses, err := r.Refresh(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			obs.LogError("refresh_failed", err)
		}
		return nil, err
	}
	obs.ObserveLatency(ports.MetricRefreshLatency, time.Since(start).Seconds())
	obs.IncCounter(ports.MetricRefreshRounds, 1)

	flowing := 0
	for _, st := range statuses {
		if st.FlowActive {
			flowing++
		}
	}
	obs.SetGauge(ports.MetricPipelines, float64(len(statuses)))
	obs.SetGauge(ports.MetricPipelinesFlowing, float64(flowing))

	if len(statuses) == 0 {
		return statuses, nil
	}

	writeStart := time.Now()
	if err := sink.WriteBatch(statuses); err != nil {
		obs.LogError("sink_write_failed", err, ports.Field{Key: "sink", Value: sink.Name()})
		return statuses, err
	}
	obs.ObserveLatency(ports.MetricSinkLatency, time.Since(writeStart).Seconds())
	obs.IncCounter(ports.MetricStatusesWritten, float64(len(statuses)))
	return statuses, nil
}
