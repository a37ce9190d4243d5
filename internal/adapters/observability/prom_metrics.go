package observability

import (
	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

type PromObs struct {
	log      logr.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the AquaFlow metric set on reg. A nil reg uses the
// default Prometheus registerer.
func NewPromObs(log logr.Logger, reg prometheus.Registerer) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &PromObs{
		log:      log,
		counters: map[string]prometheus.Counter{},
		gauges:   map[string]prometheus.Gauge{},
		histos:   map[string]prometheus.Observer{},
	}

	counters := map[string]string{
		ports.MetricReadingsIngested: "Readings applied to live device state.",
		ports.MetricReadingsRejected: "Readings that could not be decoded or matched to a device.",
		ports.MetricDLQ:              "Readings sent to DLQ due to transform failures.",
		ports.MetricQueueDropped:     "Readings lost due to queue backpressure policies.",
		ports.MetricRefreshRounds:    "Completed flow refresh rounds.",
		ports.MetricStatusesWritten:  "Pipeline statuses written to the sink.",
	}
	gauges := map[string]string{
		ports.MetricWALSize:          "Size of WAL on disk.",
		ports.MetricQueueLength:      "Current number of readings buffered in the in-memory queue.",
		ports.MetricPipelines:        "Pipelines evaluated in the last refresh round.",
		ports.MetricPipelinesFlowing: "Pipelines carrying water in the last refresh round.",
	}
	histos := map[string]string{
		ports.MetricIngestLatency:  "Time to apply a dequeued batch to live state.",
		ports.MetricRefreshLatency: "Time to compute flow for every pipeline in a round.",
		ports.MetricSinkLatency:    "Time to persist a round of pipeline statuses.",
	}

	var collectors []prometheus.Collector
	for name, help := range counters {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
		p.counters[name] = c
		collectors = append(collectors, c)
	}
	for name, help := range gauges {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
		p.gauges[name] = g
		collectors = append(collectors, g)
	}
	for name, help := range histos {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		})
		p.histos[name] = h
		collectors = append(collectors, h)
	}

	reg.MustRegister(collectors...)
	return p
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.log.Info(msg, keysAndValues(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	p.log.Error(err, msg, keysAndValues(fields)...)
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	p.log.Error(err, msg, append(keysAndValues(fields), "critical", true)...)
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordDLQ(id ports.WALEntryID, r *domain.Reading, err error) {
	p.IncCounter(ports.MetricDLQ, 1)
	if r != nil {
		p.log.Error(err, "reading sent to DLQ", "wal_id", uint64(id), "device_id", r.DeviceID, "kind", string(r.Kind))
	}
}

func keysAndValues(fields []ports.Field) []any {
	if len(fields) == 0 {
		return nil
	}
	kv := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

var _ ports.Observability = (*PromObs)(nil)
