package aquaflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
)

func TestConfFromConfigAndStreamBuilder(t *testing.T) {
	cfg := testConfig(t)

	b, err := ConfFromConfig(cfg, WithRuntimeOptions(WithLogger(logr.Discard())))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if b.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	col := &stubCollector{}
	snk := &stubSink{}
	hyd := &stubHydraulics{}

	rt, err := b.
		StreamIN(
			StreamInCollector(col),
			StreamInNetwork(testNetwork()),
			StreamInObservability(&stubObservability{}),
		).
		StreamOUT(
			StreamOutSink(snk),
			StreamOutTransformer(&stubTransformer{}),
			StreamOutHydraulics(hyd),
			StreamOutObservability(&stubObservability{}),
		)
	if err != nil {
		t.Fatalf("StreamOUT returned error: %v", err)
	}
	defer rt.Shutdown(context.Background())

	if rt.collector != col {
		t.Fatalf("expected custom collector to be wired")
	}
	if rt.sink != snk {
		t.Fatalf("expected custom sink to be wired")
	}
	if _, err := rt.PipelineFlow("main"); err != nil {
		t.Fatalf("expected seeded network: %v", err)
	}
}

func TestBuilderRunUsesStreamOutOptions(t *testing.T) {
	b, err := ConfFromConfig(testConfig(t), WithRuntimeOptions(WithLogger(logr.Discard())))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	// Stop immediately so Run goes straight to shutdown.
	cancel()

	if err := b.StreamIN(
		StreamInCollector(&stubCollector{}),
		StreamInObservability(&stubObservability{}),
	).Run(ctx,
		StreamOutCallback("discard", func([]PipelineStatus) error { return nil }),
		StreamOutObservability(&stubObservability{}),
	); err != nil && err != context.Canceled {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
}

func TestConfLoadsYAML(t *testing.T) {
	dir := t.TempDir()
	seed := filepath.Join(dir, "network.yaml")
	if err := os.WriteFile(seed, []byte("tanks: []\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	path := filepath.Join(dir, "config.yaml")
	raw := "simulator:\n  enabled: true\nnetwork:\n  seed_path: " + seed + "\nwal:\n  dir: " + filepath.Join(dir, "wal") + "\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	b, err := Conf(path)
	if err != nil {
		t.Fatalf("Conf returned error: %v", err)
	}
	if !b.Config().Simulator.Enabled || b.Config().Network.SeedPath != seed {
		t.Fatalf("unexpected config %+v", b.Config())
	}

	if _, err := Conf(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing config to fail")
	}
	var nilBuilder *Builder
	if _, err := nilBuilder.StreamOUT(); err == nil {
		t.Fatalf("expected nil builder to fail")
	}
}
