package observability

import (
	"errors"
	"testing"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObs(logr.Discard(), reg)

	obs.IncCounter(ports.MetricReadingsIngested, 5)
	if got := testutil.ToFloat64(obs.counters[ports.MetricReadingsIngested]); got != 5 {
		t.Fatalf("expected ingested counter 5, got %f", got)
	}

	obs.IncCounter(ports.MetricQueueDropped, 2)
	if got := testutil.ToFloat64(obs.counters[ports.MetricQueueDropped]); got != 2 {
		t.Fatalf("expected queue drop counter 2, got %f", got)
	}

	obs.SetGauge(ports.MetricPipelinesFlowing, 3)
	if got := testutil.ToFloat64(obs.gauges[ports.MetricPipelinesFlowing]); got != 3 {
		t.Fatalf("expected flowing gauge 3, got %f", got)
	}

	obs.ObserveLatency(ports.MetricRefreshLatency, 0.5)
	hCollector := obs.histos[ports.MetricRefreshLatency].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	obs.RecordDLQ(1, &domain.Reading{DeviceID: "gw-1"}, errors.New("bad calibration"))
	obs.RecordDLQ(2, nil, nil)
	if got := testutil.ToFloat64(obs.counters[ports.MetricDLQ]); got != 2 {
		t.Fatalf("expected dlq counter 2, got %f", got)
	}

	// Unknown names are ignored rather than panicking.
	obs.IncCounter("unknown_total", 1)
	obs.SetGauge("unknown", 1)
	obs.ObserveLatency("unknown_seconds", 1)

	if n, err := testutil.GatherAndCount(reg); err != nil || n == 0 {
		t.Fatalf("expected registered metrics, got n=%d err=%v", n, err)
	}
}

func TestPromObsLogsFields(t *testing.T) {
	var lines []string
	sink := logr.New(&recordingSink{lines: &lines})
	obs := NewPromObs(sink, prometheus.NewRegistry())

	obs.LogInfo("refresh_complete", ports.Field{Key: "pipelines", Value: 3})
	obs.LogError("sink_write_failed", errors.New("boom"))
	obs.LogCritical("wal_append_failed", errors.New("disk"))

	if len(lines) != 3 || lines[0] != "refresh_complete" || lines[2] != "wal_append_failed" {
		t.Fatalf("unexpected log lines %v", lines)
	}
}

type recordingSink struct {
	lines *[]string
}

func (s *recordingSink) Init(logr.RuntimeInfo)               {}
func (s *recordingSink) Enabled(int) bool                    { return true }
func (s *recordingSink) Info(_ int, msg string, _ ...any)    { *s.lines = append(*s.lines, msg) }
func (s *recordingSink) Error(_ error, msg string, _ ...any) { *s.lines = append(*s.lines, msg) }
func (s *recordingSink) WithValues(...any) logr.LogSink      { return s }
func (s *recordingSink) WithName(string) logr.LogSink        { return s }
