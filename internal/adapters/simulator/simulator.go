// Package simulator produces synthetic gate and tank telemetry for networks
// without field hardware attached.
package simulator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/ghalamif/AquaFlow/internal/domain"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

type Config struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Seed     uint64        `yaml:"seed"`
}

func (c *Config) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
}

// Inventory lists the devices the simulator reports for.
type Inventory interface {
	DeviceIDs() (gates, tanks []string)
}

// Generator draws samples from the value ranges used by the field tooling.
// It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator seeds a generator. A zero seed picks a random one.
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *Generator) GateSample(id string, ts time.Time) domain.GateSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return domain.GateSample{
		GateID:         id,
		Timestamp:      ts,
		FlowDirection:  domain.FlowDirections[g.rng.IntN(len(domain.FlowDirections))],
		ValveState:     g.pick("open", "closed"),
		Pressure:       round(10+g.rng.Float64()*40, 1),
		FlowRate:       round(g.rng.Float64()*150, 1),
		BatteryLevel:   round(50+g.rng.Float64()*50, 0),
		SignalStrength: round(50+g.rng.Float64()*50, 0),
		Temperature:    round(25+g.rng.Float64()*5, 1),
		Mode:           g.pick("auto", "manual"),
		Status:         domain.GateStatus(g.weighted(0.9, string(domain.GateActive), string(domain.GateFault))),
		LastCommand:    g.pick("Open", "Close"),
	}
}

func (g *Generator) TankSample(id string, ts time.Time) domain.TankSample {
	g.mu.Lock()
	defer g.mu.Unlock()
	return domain.TankSample{
		TankID:      id,
		Timestamp:   ts,
		WaterLevel:  round(g.rng.Float64()*10, 2),
		Pressure:    round(g.rng.Float64()*50, 1),
		FlowRate:    round(g.rng.Float64()*150, 1),
		PHLevel:     round(6.5+g.rng.Float64(), 2),
		Temperature: round(20+g.rng.Float64()*10, 1),
		Status:      domain.DeviceStatus(g.weighted(0.9, string(domain.DeviceActive), string(domain.DeviceInactive))),
	}
}

// Estimate scales a random flow rate (up to 200) and pressure (up to 60) by
// the flowing share of the pipeline. Dry pipelines report zero.
func (g *Generator) Estimate(_ domain.Pipeline, f domain.PipelineFlow) (float64, float64) {
	if !f.OverallFlow {
		return 0, 0
	}
	ratio := f.FlowRatio()
	g.mu.Lock()
	defer g.mu.Unlock()
	return round(g.rng.Float64()*200*ratio, 1), round(g.rng.Float64()*60*ratio, 1)
}

func (g *Generator) pick(a, b string) string {
	return g.weighted(0.5, a, b)
}

func (g *Generator) weighted(p float64, a, b string) string {
	if g.rng.Float64() < p {
		return a
	}
	return b
}

func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

var _ ports.Hydraulics = (*Generator)(nil)

// Collector emits one full reading per registered gate and tank on every tick.
type Collector struct {
	cfg   Config
	inv   Inventory
	gen   *Generator
	log   logr.Logger
	now   func() time.Time
	mu    sync.Mutex
	stop  chan struct{}
	done  chan struct{}
	seq   uint64
	ticks uint64
}

func NewCollector(cfg Config, inv Inventory, log logr.Logger) (*Collector, error) {
	cfg.ApplyDefaults()
	if inv == nil {
		return nil, fmt.Errorf("simulator inventory is required")
	}
	return &Collector{
		cfg: cfg,
		inv: inv,
		gen: NewGenerator(cfg.Seed),
		log: log.WithName("simulator"),
		now: time.Now,
	}, nil
}

// Generator exposes the collector's sample source so the same seed can drive
// the hydraulics estimate.
func (c *Collector) Generator() *Generator { return c.gen }

func (c *Collector) Start(out chan<- *domain.Reading) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return fmt.Errorf("simulator collector already started")
	}
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.stop, c.done, out)
	return nil
}

func (c *Collector) Stop() error {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

func (c *Collector) loop(stop <-chan struct{}, done chan<- struct{}, out chan<- *domain.Reading) {
	defer close(done)

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		if !c.emit(stop, out) {
			return
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// emit sends one round of readings. It reports false when stopped mid-round.
func (c *Collector) emit(stop <-chan struct{}, out chan<- *domain.Reading) bool {
	gates, tanks := c.inv.DeviceIDs()
	ts := c.now()

	readings := make([]*domain.Reading, 0, len(gates)+len(tanks))
	for _, id := range gates {
		readings = append(readings, domain.GateReading(c.gen.GateSample(id, ts)))
	}
	for _, id := range tanks {
		readings = append(readings, domain.TankReading(c.gen.TankSample(id, ts)))
	}

	for _, r := range readings {
		c.seq++
		r.Seq = c.seq
		r.SourceNodeID = "simulator"
		select {
		case <-stop:
			return false
		case out <- r:
		}
	}
	c.ticks++
	c.log.V(1).Info("simulated round", "gates", len(gates), "tanks", len(tanks), "round", c.ticks)
	return true
}

var _ ports.Collector = (*Collector)(nil)
