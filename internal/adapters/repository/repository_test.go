package repository

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func samplePipeline(id string) domain.Pipeline {
	return domain.Pipeline{
		ID:     id,
		Name:   "Main " + id,
		Points: []domain.Coordinate{{Lat: 17.385, Lng: 78.4867}, {Lat: 17.39, Lng: 78.49}},
	}
}

func TestPipelinesCRUD(t *testing.T) {
	repo := NewPipelines(WithClock(clock))

	created, err := repo.Create(samplePipeline("p1"))
	require.NoError(t, err)
	require.Equal(t, domain.DefaultMaterial, created.Material)
	require.Equal(t, float64(domain.DefaultDiameter), created.Diameter)
	require.Equal(t, fixedNow, created.CreatedAt)
	require.NotNil(t, created.GateIDs)

	_, err = repo.Create(samplePipeline("p2"))
	require.NoError(t, err)

	_, err = repo.Create(samplePipeline("p1"))
	require.ErrorIs(t, err, domain.ErrAlreadyExists)

	list := repo.List()
	require.Len(t, list, 2)
	require.Equal(t, "p1", list[0].ID)
	require.Equal(t, "p2", list[1].ID)

	name := "Renamed"
	gates := []string{"g1"}
	updated, err := repo.Update("p1", domain.PipelinePatch{Name: &name, GateIDs: &gates})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, []string{"g1"}, updated.GateIDs)

	short := []domain.Coordinate{{Lat: 1, Lng: 1}}
	_, err = repo.Update("p1", domain.PipelinePatch{Points: &short})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "points", verr.Field)

	got, err := repo.Get("p1")
	require.NoError(t, err)
	require.Len(t, got.Points, 2, "failed update must leave the record untouched")

	_, err = repo.Update("missing", domain.PipelinePatch{Name: &name})
	require.ErrorIs(t, err, domain.ErrNotFound)

	deleted, err := repo.Delete("p1")
	require.NoError(t, err)
	require.Equal(t, "p1", deleted.ID)
	_, err = repo.Get("p1")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Len(t, repo.List(), 1)

	repo.Clear()
	require.Empty(t, repo.List())
}

func TestPipelinesRejectInvalid(t *testing.T) {
	repo := NewPipelines()

	_, err := repo.Create(domain.Pipeline{ID: "p", Name: "n", Points: []domain.Coordinate{{}}})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Empty(t, repo.List())
}

func TestRecordsAreCopied(t *testing.T) {
	repo := NewPipelines()
	p := samplePipeline("p1")
	_, err := repo.Create(p)
	require.NoError(t, err)

	p.Points[0].Lat = 0
	got, err := repo.Get("p1")
	require.NoError(t, err)
	require.Equal(t, 17.385, got.Points[0].Lat)

	got.Points[1].Lng = 0
	again, _ := repo.Get("p1")
	require.Equal(t, 78.49, again.Points[1].Lng)
}

func TestVersionBumpsOnMutation(t *testing.T) {
	repo := NewGates(WithClock(clock))
	v0 := repo.Version()

	g, err := repo.Create(domain.Gate{ID: "g1", Name: "Gate 1", Location: domain.Coordinate{Lat: 17, Lng: 78}})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultGateType, g.Type)
	require.Equal(t, domain.DefaultFirmwareVersion, g.FirmwareVersion)
	require.Equal(t, fixedNow, g.InstallationDate)
	require.Equal(t, domain.DefaultCountry, g.Region.Country)

	v1 := repo.Version()
	require.Greater(t, v1, v0)

	_, _ = repo.Get("g1")
	_ = repo.List()
	require.Equal(t, v1, repo.Version(), "reads must not bump the version")

	fw := "v2.0.0"
	_, err = repo.Update("g1", domain.GatePatch{FirmwareVersion: &fw})
	require.NoError(t, err)
	require.Greater(t, repo.Version(), v1)
}

func TestTanksCRUD(t *testing.T) {
	repo := NewTanks(WithClock(clock))

	tank, err := repo.Create(domain.Tank{ID: "ohsr-1", Name: "Tank", Location: domain.Coordinate{Lat: 17, Lng: 78}})
	require.NoError(t, err)
	require.Equal(t, domain.DefaultTankType, tank.Type)
	require.Equal(t, float64(domain.DefaultTankCapacity), tank.Capacity)

	_, err = repo.Create(domain.Tank{ID: "bad", Name: "Tank", Location: domain.Coordinate{Lat: 120}})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "latitude", verr.Field)

	capacity := 2500.0
	tank, err = repo.Update("ohsr-1", domain.TankPatch{Capacity: &capacity})
	require.NoError(t, err)
	require.Equal(t, 2500.0, tank.Capacity)

	_, err = repo.Delete("ohsr-1")
	require.NoError(t, err)
	_, err = repo.Delete("ohsr-1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

const seedYAML = `
tanks:
  - id: ohsr-1
    name: Village OHSR
    location: {lat: 17.385, lng: 78.4867}
gates:
  - id: gw-1
    name: Gate 1
    location: {lat: 17.3875, lng: 78.4883}
pipelines:
  - id: main
    name: Main line
    points:
      - {lat: 17.385, lng: 78.4867}
      - {lat: 17.39, lng: 78.49}
    connected_gate_walls: [gw-1]
    connected_devices: [ohsr-1]
gate_samples:
  - id: gw-1
    flow_direction: left
    status: active
tank_samples:
  - id: ohsr-1
    water_level: 4.2
    status: active
`

func TestLoadAndSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	n, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, n.GateSamples, 1)
	require.Equal(t, domain.FlowLeft, n.GateSamples[0].FlowDirection)
	require.Equal(t, 4.2, n.TankSamples[0].WaterLevel)

	tanks, gates, pipelines := NewTanks(), NewGates(), NewPipelines()
	require.NoError(t, Seed(n, tanks, gates, pipelines))

	p, err := pipelines.Get("main")
	require.NoError(t, err)
	require.Equal(t, []string{"gw-1"}, p.GateIDs)
	require.Equal(t, []string{"ohsr-1"}, p.DeviceIDs)
	require.Len(t, tanks.List(), 1)
	require.Len(t, gates.List(), 1)

	require.Error(t, Seed(n, tanks, gates, pipelines), "seeding twice must hit duplicates")
}

func TestParseSeedRejectsUnknownKeys(t *testing.T) {
	_, err := ParseSeed([]byte("pipelnes: []\n"))
	require.Error(t, err)
}
