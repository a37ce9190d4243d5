// Package httpapi exposes the network records, live state and flow results
// over a JSON HTTP API.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"

	"github.com/ghalamif/AquaFlow/internal/app/ingest"
	"github.com/ghalamif/AquaFlow/internal/app/network"
	"github.com/ghalamif/AquaFlow/internal/domain"
)

const maxBodyBytes = 4 << 20

// Publisher admits readings into the ingest pipeline.
type Publisher interface {
	Publish(r *domain.Reading) error
}

type Server struct {
	svc *network.Service
	pub Publisher
	log logr.Logger
}

// NewRouter builds the /api/v1 routes. A nil pub disables POST /telemetry.
func NewRouter(svc *network.Service, pub Publisher, log logr.Logger) *mux.Router {
	s := &Server{svc: svc, pub: pub, log: log.WithName("httpapi")}

	router := mux.NewRouter().StrictSlash(true)
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/tanks", s.listTanks).Methods(http.MethodGet)
	api.HandleFunc("/tanks", s.createTank).Methods(http.MethodPost)
	api.HandleFunc("/tanks/{id}", s.getTank).Methods(http.MethodGet)
	api.HandleFunc("/tanks/{id}", s.updateTank).Methods(http.MethodPatch)
	api.HandleFunc("/tanks/{id}", s.deleteTank).Methods(http.MethodDelete)
	api.HandleFunc("/tanks/{id}/state", s.tankState).Methods(http.MethodGet)
	api.HandleFunc("/tanks/{id}/history", s.tankHistory).Methods(http.MethodGet)

	api.HandleFunc("/gates", s.listGates).Methods(http.MethodGet)
	api.HandleFunc("/gates", s.createGate).Methods(http.MethodPost)
	api.HandleFunc("/gates/{id}", s.getGate).Methods(http.MethodGet)
	api.HandleFunc("/gates/{id}", s.updateGate).Methods(http.MethodPatch)
	api.HandleFunc("/gates/{id}", s.deleteGate).Methods(http.MethodDelete)
	api.HandleFunc("/gates/{id}/state", s.gateState).Methods(http.MethodGet)
	api.HandleFunc("/gates/{id}/history", s.gateHistory).Methods(http.MethodGet)

	api.HandleFunc("/pipelines", s.listPipelines).Methods(http.MethodGet)
	api.HandleFunc("/pipelines", s.createPipeline).Methods(http.MethodPost)
	api.HandleFunc("/pipelines/{id}", s.getPipeline).Methods(http.MethodGet)
	api.HandleFunc("/pipelines/{id}", s.updatePipeline).Methods(http.MethodPatch)
	api.HandleFunc("/pipelines/{id}", s.deletePipeline).Methods(http.MethodDelete)
	api.HandleFunc("/pipelines/{id}/flow", s.pipelineFlow).Methods(http.MethodGet)
	api.HandleFunc("/pipelines/{id}/status", s.pipelineStatus).Methods(http.MethodGet)
	api.HandleFunc("/pipelines/{id}/history", s.pipelineHistory).Methods(http.MethodGet)

	api.HandleFunc("/telemetry", s.publishTelemetry).Methods(http.MethodPost)

	return router
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error(err, "encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		body.Field = verr.Field
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, ingest.ErrWALFull), errors.Is(err, ingest.ErrQueueFull):
		status = http.StatusServiceUnavailable
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error(err, "request failed")
	}
	s.writeJSON(w, status, body)
}

var errBadRequest = errors.New("bad request")

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func routeID(r *http.Request) string {
	return mux.Vars(r)["id"]
}
