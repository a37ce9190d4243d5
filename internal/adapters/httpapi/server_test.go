package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/AquaFlow/internal/adapters/repository"
	"github.com/ghalamif/AquaFlow/internal/adapters/state"
	"github.com/ghalamif/AquaFlow/internal/app/ingest"
	"github.com/ghalamif/AquaFlow/internal/app/network"
	"github.com/ghalamif/AquaFlow/internal/domain"
)

// directPublisher applies readings straight to the service.
type directPublisher struct {
	svc  *network.Service
	full bool
}

func (p *directPublisher) Publish(r *domain.Reading) error {
	if p.full {
		return ingest.ErrQueueFull
	}
	return p.svc.ApplyReading(r)
}

func newTestRouter(t *testing.T) (*mux.Router, *network.Service, *directPublisher) {
	t.Helper()
	svc, err := network.New(network.Deps{
		Tanks:         repository.NewTanks(),
		Gates:         repository.NewGates(),
		Pipelines:     repository.NewPipelines(),
		GateState:     state.NewStore[domain.GateSample](state.GateHistory),
		TankState:     state.NewStore[domain.TankSample](state.TankHistory),
		PipelineState: state.NewStore[domain.PipelineStatus](state.PipelineHistory),
	})
	require.NoError(t, err)
	pub := &directPublisher{svc: svc}
	return NewRouter(svc, pub, logr.Discard()), svc, pub
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const (
	tankBody     = `{"id":"ohsr-1","name":"Village OHSR","latitude":0,"longitude":0}`
	gateBody     = `{"id":"gw-1","name":"Gate 1","latitude":0.001,"longitude":1}`
	pipelineBody = `{"id":"main","name":"Main","points":[[0,0],[0,1],[0,2]],"connectedGateWalls":["gw-1"],"connectedDevices":["ohsr-1"]}`
)

func seedNetwork(t *testing.T, h http.Handler) {
	t.Helper()
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/tanks", tankBody).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/gates", gateBody).Code)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/v1/pipelines", pipelineBody).Code)
}

func TestRecordLifecycle(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/tanks", tankBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	tank := decode[domain.Tank](t, rec)
	require.Equal(t, "ohsr", tank.Type)
	require.Equal(t, "India", tank.Region.Country)

	rec = do(t, h, http.MethodPost, "/api/v1/tanks", tankBody)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPatch, "/api/v1/tanks/ohsr-1", `{"capacity":2500}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2500.0, decode[domain.Tank](t, rec).Capacity)

	rec = do(t, h, http.MethodGet, "/api/v1/tanks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[[]domain.Tank](t, rec), 1)

	rec = do(t, h, http.MethodDelete, "/api/v1/tanks/ohsr-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/v1/tanks/ohsr-1", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateValidation(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/gates", `{"id":"gw-1","name":"Gate"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "latitude", decode[errorBody](t, rec).Field)

	rec = do(t, h, http.MethodPost, "/api/v1/pipelines", `{"id":"p","name":"P","points":[[0,0]]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "points", decode[errorBody](t, rec).Field)

	rec = do(t, h, http.MethodPost, "/api/v1/pipelines", `{"id":"p","name":"P"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/tanks", `{"id":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/tanks", `{"id":"t","name":"T","latitude":1,"longitude":1,"colour":"red"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, "unknown fields are rejected")
}

func TestPipelinePointsRoundTrip(t *testing.T) {
	h, _, _ := newTestRouter(t)
	seedNetwork(t, h)

	rec := do(t, h, http.MethodGet, "/api/v1/pipelines/main", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Points json.RawMessage `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.JSONEq(t, `[[0,0],[0,1],[0,2]]`, string(got.Points))

	rec = do(t, h, http.MethodPatch, "/api/v1/pipelines/main", `{"points":`+string(got.Points)+`}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines", "")
	list := decode[[]pipelineResponse](t, rec)
	require.Len(t, list, 1)
	require.Equal(t, [][2]float64{{0, 0}, {0, 1}, {0, 2}}, list[0].Points)
}

func TestPipelinePatchPoints(t *testing.T) {
	h, _, _ := newTestRouter(t)
	seedNetwork(t, h)

	rec := do(t, h, http.MethodPatch, "/api/v1/pipelines/main", `{"points":[[1,1]]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, "/api/v1/pipelines/main", `{"points":[[0,0],[0,4]],"material":"HDPE"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[pipelineResponse](t, rec)
	require.Equal(t, "HDPE", p.Material)
	require.Equal(t, [2]float64{0, 4}, p.Points[1])

	rec = do(t, h, http.MethodPatch, "/api/v1/pipelines/missing", `{"name":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTelemetryDrivesFlow(t *testing.T) {
	h, _, _ := newTestRouter(t)
	seedNetwork(t, h)

	rec := do(t, h, http.MethodGet, "/api/v1/gates/gw-1/state", "")
	require.Equal(t, http.StatusNotFound, rec.Code, "silent gate has no state")

	rec = do(t, h, http.MethodPost, "/api/v1/telemetry", `[
		{"device_id":"ohsr-1","kind":"tank","values":{"water_level":4,"status":1}},
		{"device_id":"gw-1","kind":"gate","labels":{"flow_direction":"none","status":"active"}}
	]`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Equal(t, 2, decode[publishResponse](t, rec).Accepted)

	rec = do(t, h, http.MethodGet, "/api/v1/gates/gw-1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, domain.FlowNone, decode[domain.GateSample](t, rec).FlowDirection)

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/main/flow", "")
	require.Equal(t, http.StatusOK, rec.Code)
	f := decode[domain.PipelineFlow](t, rec)
	require.True(t, f.OverallFlow)
	require.Len(t, f.Segments, 2)
	require.True(t, f.Segments[0].HasFlow)
	require.False(t, f.Segments[1].HasFlow)

	rec = do(t, h, http.MethodPost, "/api/v1/telemetry", `{"device_id":"gw-1","kind":"gate","values":{"flow_direction":3}}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/main/flow", "")
	f = decode[domain.PipelineFlow](t, rec)
	require.True(t, f.Segments[1].HasFlow)

	rec = do(t, h, http.MethodGet, "/api/v1/gates/gw-1/history", "")
	require.Len(t, decode[[]domain.GateSample](t, rec), 2)
	rec = do(t, h, http.MethodGet, "/api/v1/tanks/ohsr-1/state", "")
	require.Equal(t, 4.0, decode[domain.TankSample](t, rec).WaterLevel)
	rec = do(t, h, http.MethodGet, "/api/v1/tanks/ohsr-1/history", "")
	require.Len(t, decode[[]domain.TankSample](t, rec), 1)
}

func TestTelemetryRejections(t *testing.T) {
	h, _, pub := newTestRouter(t)
	seedNetwork(t, h)

	rec := do(t, h, http.MethodPost, "/api/v1/telemetry", `{"device_id":"gw-1","kind":"pump","values":{"x":1}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "kind", decode[errorBody](t, rec).Field)

	rec = do(t, h, http.MethodPost, "/api/v1/telemetry", `{"device_id":"gw-1","kind":"gate"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/telemetry", ``)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/telemetry", `{"device_id":"ghost","kind":"gate","values":{"status":1}}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	pub.full = true
	rec = do(t, h, http.MethodPost, "/api/v1/telemetry", `{"device_id":"gw-1","kind":"gate","values":{"status":1}}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-Accepted-Readings"))
}

func TestPipelineStatusAfterRefresh(t *testing.T) {
	h, svc, _ := newTestRouter(t)
	seedNetwork(t, h)

	rec := do(t, h, http.MethodGet, "/api/v1/pipelines/main/status", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/main/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[domain.PipelineStatus](t, rec)
	require.Equal(t, "main", st.PipelineID)
	require.Equal(t, domain.StatusColorDry, st.Color)

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/main/history", "")
	require.Len(t, decode[[]domain.PipelineStatus](t, rec), 1)

	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/missing/history", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/pipelines/main", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/v1/pipelines/main/flow", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublishDisabled(t *testing.T) {
	_, svc, _ := newTestRouter(t)
	h := NewRouter(svc, nil, logr.Discard())

	rec := do(t, h, http.MethodPost, "/api/v1/telemetry", `{"device_id":"gw-1","kind":"gate","values":{"status":1}}`)
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}
