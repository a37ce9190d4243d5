package aquaflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-logr/logr"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/AquaFlow/internal/adapters/httpapi"
	"github.com/ghalamif/AquaFlow/internal/adapters/observability"
	"github.com/ghalamif/AquaFlow/internal/adapters/opcua"
	"github.com/ghalamif/AquaFlow/internal/adapters/queue"
	"github.com/ghalamif/AquaFlow/internal/adapters/repository"
	"github.com/ghalamif/AquaFlow/internal/adapters/simulator"
	"github.com/ghalamif/AquaFlow/internal/adapters/sink"
	"github.com/ghalamif/AquaFlow/internal/adapters/wal"
	"github.com/ghalamif/AquaFlow/internal/app/ingest"
	"github.com/ghalamif/AquaFlow/internal/app/logging"
	"github.com/ghalamif/AquaFlow/internal/app/network"
	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

var (
	// ErrQueueFull indicates the in-memory queue rejected a reading according to policy.
	ErrQueueFull = ingest.ErrQueueFull
	// ErrWALFull indicates the WAL is at capacity and OnWALFull != "block".
	ErrWALFull = ingest.ErrWALFull
	// ErrNotStarted is returned by Publish before Start.
	ErrNotStarted = errors.New("aquaflow: runtime not started")
	// ErrNotFound is wrapped by lookups of unknown records.
	ErrNotFound = domain.ErrNotFound
)

// RoundFunc observes every refresh round.
type RoundFunc = ingest.RoundFunc

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	collector     Collector
	sink          StatusSink
	transformer   Transformer
	wal           WAL
	queue         ReadingQueue
	observability Observability
	hydraulics    Hydraulics
	network       *Network
	logger        *logr.Logger
	onRound       RoundFunc
}

// WithCollector injects a custom collector implementation (MQTT, Modbus, simulators, etc.).
func WithCollector(col Collector) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.collector = col
	}
}

// WithStatusSink injects a custom sink so refresh rounds can be sent to any database or API.
func WithStatusSink(s StatusSink) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.sink = s
	}
}

// WithTransformer overrides the default no-op transformer.
func WithTransformer(t Transformer) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.transformer = t
	}
}

// WithWAL lets callers bring their own WAL implementation or reuse an existing instance.
func WithWAL(w WAL) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.wal = w
	}
}

// WithReadingQueue injects a custom queue implementation (e.g., lock-free, sharded).
func WithReadingQueue(q ReadingQueue) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.queue = q
	}
}

// WithObservability plugs in a custom observability backend (OpenTelemetry, structured logs, etc.).
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithHydraulics replaces the flow rate and pressure estimator used by refresh rounds.
func WithHydraulics(h Hydraulics) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.hydraulics = h
	}
}

// WithNetwork seeds the runtime from n instead of network.seed_path.
func WithNetwork(n *Network) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.network = n
	}
}

// WithLogger replaces the zap logger built from the log config.
func WithLogger(log logr.Logger) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.logger = &log
	}
}

// WithRoundHook registers fn to observe every refresh round.
func WithRoundHook(fn RoundFunc) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.onRound = fn
	}
}

// Runtime wires up the collector → WAL → queue → live state pipeline, the
// periodic flow refresh and the HTTP surfaces, and exposes simple lifecycle
// hooks for embedding AquaFlow inside any Go service.
type Runtime struct {
	cfg         *Config
	log         logr.Logger
	logSync     func()
	policy      ports.Policy
	obs         ports.Observability
	registry    *prometheus.Registry
	wal         ports.WAL
	ownsWAL     bool
	queue       ports.ReadingQueue
	collector   ports.Collector
	transformer ports.Transformer
	sink        ports.StatusSink
	svc         *network.Service
	db          *sql.DB
	onRound     RoundFunc

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	metricsSrv *http.Server
	apiSrv     *http.Server
}

// NewRuntime bootstraps the default adapters (OPC UA or simulator collector,
// file WAL, in-memory queue, Timescale sink, Prometheus observability) and
// seeds the network. Callers can use RuntimeOption values to override any
// dependency.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg.ApplyDefaults()

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	rt := &Runtime{
		cfg:     cfg,
		policy:  cfg.Policy,
		logSync: func() {},
		onRound: overrides.onRound,
	}

	if overrides.logger != nil {
		rt.log = *overrides.logger
	} else {
		log, flush, err := logging.New(cfg.Log)
		if err != nil {
			return nil, err
		}
		rt.log, rt.logSync = log, flush
	}

	rt.obs = overrides.observability
	if rt.obs == nil {
		rt.registry = prometheus.NewRegistry()
		rt.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		rt.obs = observability.NewPromObs(rt.log, rt.registry)
	}

	if err := rt.build(cfg, overrides); err != nil {
		rt.release()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) build(cfg *Config, overrides runtimeOverrides) error {
	var err error

	rt.wal = overrides.wal
	if rt.wal == nil {
		if rt.wal, err = wal.NewFileWAL(cfg.WAL.Dir); err != nil {
			return err
		}
		rt.ownsWAL = true
	}

	rt.queue = overrides.queue
	if rt.queue == nil {
		rt.queue = queue.NewMemQueue(cfg.Policy.MaxQueueLen)
	}

	seed := overrides.network
	if seed == nil && cfg.Network.SeedPath != "" {
		if seed, err = repository.LoadSeed(cfg.Network.SeedPath); err != nil {
			return err
		}
	}

	hyd := overrides.hydraulics
	if hyd == nil && cfg.Simulator.Enabled {
		hyd = simulator.NewGenerator(cfg.Simulator.Seed)
	}

	if rt.svc, err = buildService(seed, cfg.History, hyd, rt.log); err != nil {
		return err
	}

	rt.collector = overrides.collector
	if rt.collector == nil {
		switch {
		case cfg.OPCUA.Endpoint != "":
			rt.collector, err = opcua.NewCollector(cfg.OPCUA, rt.log)
		case cfg.Simulator.Enabled:
			rt.collector, err = simulator.NewCollector(cfg.Simulator, rt.svc, rt.log)
		default:
			err = errors.New("no telemetry source configured")
		}
		if err != nil {
			return err
		}
	}

	rt.sink = overrides.sink
	if rt.sink == nil {
		if cfg.Timescale.ConnString == "" {
			rt.sink = sink.NopSink{}
		} else {
			if rt.db, err = sql.Open("postgres", cfg.Timescale.ConnString); err != nil {
				return err
			}
			rt.sink = sink.NewTimescaleSink(rt.db, cfg.Timescale.Table)
		}
	}

	rt.transformer = overrides.transformer
	if rt.transformer == nil {
		rt.transformer = &noopTransformer{}
	}
	return nil
}

// release closes what NewRuntime opened itself.
func (rt *Runtime) release() []error {
	var errs []error
	if rt.ownsWAL && rt.wal != nil {
		if err := rt.wal.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if rt.db != nil {
		if err := rt.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.logSync()
	return errs
}

// Start replays the WAL, begins the edge, ingest and refresh loops and
// launches the metrics and API servers. It returns immediately; call Run to
// block on a context instead.
func (rt *Runtime) Start() error {
	if rt == nil {
		return fmt.Errorf("runtime is nil")
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.cancel != nil {
		return fmt.Errorf("runtime already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	rt.goLoop(func() {
		ingest.RunIngest(ctx, rt.wal, rt.queue, rt.transformer, rt.svc, rt.policy, rt.obs)
	})

	if _, err := ingest.Replay(ctx, rt.wal, rt.queue, rt.policy, rt.obs); err != nil {
		cancel()
		rt.wg.Wait()
		return fmt.Errorf("wal replay: %w", err)
	}
	edgeDone, err := ingest.RunEdge(ctx, rt.collector, rt.wal, rt.queue, rt.policy, rt.obs)
	if err != nil {
		cancel()
		rt.wg.Wait()
		return err
	}
	rt.goLoop(func() { <-edgeDone })

	rt.goLoop(func() {
		ingest.RunRefresh(ctx, rt.svc, rt.sink, rt.cfg.Refresh.Interval, rt.obs, rt.onRound)
	})
	rt.goLoop(func() {
		rt.recordResourceGauges(ctx, time.Second)
	})

	rt.ctx, rt.cancel = ctx, cancel
	rt.startServers()
	return nil
}

func (rt *Runtime) goLoop(fn func()) {
	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		fn()
	}()
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (rt *Runtime) Run(ctx context.Context) error {
	if err := rt.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return rt.Shutdown(shutdownCtx)
}

// Publish admits r into the WAL and queue under the configured policies.
func (rt *Runtime) Publish(r *Reading) error {
	if r == nil {
		return fmt.Errorf("reading is required")
	}
	rt.mu.Lock()
	ctx := rt.ctx
	rt.mu.Unlock()
	if ctx == nil {
		return ErrNotStarted
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	return ingest.Admit(ctx, rt.wal, rt.queue, rt.policy, rt.obs, r)
}

// PipelineFlow computes the current flow of one pipeline.
func (rt *Runtime) PipelineFlow(id string) (PipelineFlow, error) {
	return rt.svc.PipelineFlow(id)
}

// Status returns the last refresh result of a pipeline.
func (rt *Runtime) Status(id string) (PipelineStatus, bool) {
	return rt.svc.Status(id)
}

// Refresh runs one refresh round outside the ticker and writes it to the sink.
func (rt *Runtime) Refresh(ctx context.Context) ([]*PipelineStatus, error) {
	return ingest.RefreshOnce(ctx, rt.svc, rt.sink, rt.obs)
}

// Handler returns the JSON API router served on api.addr.
func (rt *Runtime) Handler() http.Handler {
	return httpapi.NewRouter(rt.svc, rt, rt.log)
}

// Shutdown stops the servers and collector, drains the loops and closes the
// WAL and DB connection.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.mu.Lock()
	cancel := rt.cancel
	metricsSrv, apiSrv := rt.metricsSrv, rt.apiSrv
	rt.cancel, rt.ctx = nil, nil
	rt.mu.Unlock()

	var errs []error
	for _, srv := range []*http.Server{apiSrv, metricsSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if rt.collector != nil {
		if err := rt.collector.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	if cancel != nil {
		cancel()
		if err := rt.waitLoops(ctx); err != nil {
			return errors.Join(append(errs, err)...)
		}
	}

	errs = append(errs, rt.release()...)
	return errors.Join(errs...)
}

func (rt *Runtime) waitLoops(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		rt.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for loops: %w", ctx.Err())
	}
}

func (rt *Runtime) startServers() {
	if addr := rt.cfg.Metrics.Addr; addr != "" {
		mux := http.NewServeMux()
		if rt.registry != nil {
			mux.Handle("/metrics", promhttp.HandlerFor(rt.registry, promhttp.HandlerOpts{}))
		} else {
			mux.Handle("/metrics", promhttp.Handler())
		}
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})
		rt.metricsSrv = rt.serve("metrics", addr, mux)
	}

	if addr := rt.cfg.API.Addr; addr != "" {
		rt.apiSrv = rt.serve("api", addr, rt.Handler())
	}
}

func (rt *Runtime) serve(name, addr string, h http.Handler) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.Error(err, "server exited", "server", name, "addr", addr)
		}
	}()
	return srv
}

func (rt *Runtime) recordResourceGauges(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := rt.wal.Stats()
			rt.obs.SetGauge(ports.MetricWALSize, float64(stats.SizeBytes))
			rt.obs.SetGauge(ports.MetricQueueLength, float64(rt.queue.Len()))
		}
	}
}

type noopTransformer struct{}

func (n *noopTransformer) Transform(r *domain.Reading) (*domain.Reading, error) { return r, nil }
func (n *noopTransformer) Version() uint16                                      { return 1 }

var _ httpapi.Publisher = (*Runtime)(nil)
