package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ghalamif/AquaFlow"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

const testNetwork = `
tanks:
  - id: ohsr-1
    name: Village OHSR
    location: {lat: 0, lng: 0}
gates:
  - id: gw-1
    name: Gate 1
    location: {lat: 0, lng: 1}
pipelines:
  - id: main
    name: Main
    points: [{lat: 0, lng: 0}, {lat: 0, lng: 1}, {lat: 0, lng: 2}]
    connected_gate_walls: [gw-1]
    connected_devices: [ohsr-1]
gate_samples:
  - id: gw-1
    flow_direction: none
    status: active
tank_samples:
  - id: ohsr-1
    water_level: 3
    status: active
`

func writeNetwork(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "network.yaml")
	if err := os.WriteFile(path, []byte(testNetwork), 0o644); err != nil {
		t.Fatalf("write network: %v", err)
	}
	return path
}

func TestFlowCommandPrintsPipeline(t *testing.T) {
	path := writeNetwork(t)

	var out bytes.Buffer
	if err := flowCommand([]string{"-network", path, "-pipeline", "main"}, &out); err != nil {
		t.Fatalf("flow command: %v", err)
	}
	var r aquaflow.PipelineResult
	if err := json.Unmarshal(out.Bytes(), &r); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if r.PipelineID != "main" || len(r.Flow.Segments) != 2 {
		t.Fatalf("unexpected result %+v", r)
	}
	if !r.Flow.Segments[0].HasFlow || r.Flow.Segments[1].HasFlow {
		t.Fatalf("expected flow to stop at the closed gate, got %+v", r.Flow.Segments)
	}

	out.Reset()
	if err := flowCommand([]string{"-network", path}, &out); err != nil {
		t.Fatalf("flow command: %v", err)
	}
	var all []aquaflow.PipelineResult
	if err := json.Unmarshal(out.Bytes(), &all); err != nil || len(all) != 1 {
		t.Fatalf("expected every pipeline, got %s (%v)", out.String(), err)
	}

	if err := flowCommand([]string{"-network", path, "-pipeline", "nope"}, &out); err == nil {
		t.Fatalf("expected unknown pipeline to fail")
	}
	if err := flowCommand([]string{"-network", filepath.Join(t.TempDir(), "missing.yaml")}, &out); err == nil {
		t.Fatalf("expected missing network file to fail")
	}
}

func TestPrintMetricsSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Join([]string{
			"# HELP " + ports.MetricReadingsIngested + " Readings applied.",
			"# TYPE " + ports.MetricReadingsIngested + " counter",
			ports.MetricReadingsIngested + " 1.5e+06",
			ports.MetricQueueLength + " 12",
			ports.MetricPipelinesFlowing + " 3",
			ports.MetricPipelines + " 4",
			`go_info{version="go1.22"} 1`,
		}, "\n")))
	}))
	defer srv.Close()

	var out bytes.Buffer
	if err := printMetricsSnapshot(srv.URL, &out); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	line := out.String()
	for _, want := range []string{"readings=1500000", "queue=12", "flowing=3/4", "wal_bytes=0"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer failing.Close()
	if err := printMetricsSnapshot(failing.URL, &out); err == nil {
		t.Fatalf("expected non-200 to fail")
	}
}
