package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

func (s *Server) gateState(w http.ResponseWriter, r *http.Request) {
	id := routeID(r)
	if _, err := s.svc.Gates().Get(id); err != nil {
		s.writeError(w, err)
		return
	}
	sample, ok := s.svc.GateState().Current(id)
	if !ok {
		s.writeError(w, fmt.Errorf("gate %q has not reported: %w", id, domain.ErrNotFound))
		return
	}
	s.writeJSON(w, http.StatusOK, sample)
}

func (s *Server) gateHistory(w http.ResponseWriter, r *http.Request) {
	id := routeID(r)
	if _, err := s.svc.Gates().Get(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(s.svc.GateState().History(id)))
}

func (s *Server) tankState(w http.ResponseWriter, r *http.Request) {
	id := routeID(r)
	if _, err := s.svc.Tanks().Get(id); err != nil {
		s.writeError(w, err)
		return
	}
	sample, ok := s.svc.TankState().Current(id)
	if !ok {
		s.writeError(w, fmt.Errorf("tank %q has not reported: %w", id, domain.ErrNotFound))
		return
	}
	s.writeJSON(w, http.StatusOK, sample)
}

func (s *Server) tankHistory(w http.ResponseWriter, r *http.Request) {
	id := routeID(r)
	if _, err := s.svc.Tanks().Get(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(s.svc.TankState().History(id)))
}

func (s *Server) pipelineFlow(w http.ResponseWriter, r *http.Request) {
	f, err := s.svc.PipelineFlow(routeID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, f)
}

func (s *Server) pipelineStatus(w http.ResponseWriter, r *http.Request) {
	id := routeID(r)
	if _, err := s.svc.Pipelines().Get(id); err != nil {
		s.writeError(w, err)
		return
	}
	st, ok := s.svc.Status(id)
	if !ok {
		s.writeError(w, fmt.Errorf("pipeline %q has no refresh result yet: %w", id, domain.ErrNotFound))
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) pipelineHistory(w http.ResponseWriter, r *http.Request) {
	id := routeID(r)
	if _, err := s.svc.Pipelines().Get(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(s.svc.PipelineState().History(id)))
}

type publishResponse struct {
	Accepted int `json:"accepted"`
}

// publishTelemetry accepts a single reading object or an array of readings.
// Readings are admitted in order; the first failure stops the request and
// the response reports how many were accepted before it.
func (s *Server) publishTelemetry(w http.ResponseWriter, r *http.Request) {
	if s.pub == nil {
		s.writeJSON(w, http.StatusNotImplemented, errorBody{Error: "telemetry publishing is disabled"})
		return
	}

	readings, err := decodeReadings(r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	now := time.Now()
	for i, rd := range readings {
		if err := validateReading(rd); err != nil {
			s.writeError(w, fmt.Errorf("reading %d: %w", i, err))
			return
		}
		if rd.Timestamp.IsZero() {
			rd.Timestamp = now
		}
	}

	for i, rd := range readings {
		if err := s.pub.Publish(rd); err != nil {
			w.Header().Set("X-Accepted-Readings", fmt.Sprint(i))
			s.writeError(w, err)
			return
		}
	}
	s.writeJSON(w, http.StatusAccepted, publishResponse{Accepted: len(readings)})
}

func decodeReadings(body io.Reader) ([]*domain.Reading, error) {
	raw, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", errBadRequest)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if raw[0] == '[' {
		var many []*domain.Reading
		if err := dec.Decode(&many); err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return many, nil
	}
	var one domain.Reading
	if err := dec.Decode(&one); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return []*domain.Reading{&one}, nil
}

func validateReading(r *domain.Reading) error {
	if r == nil {
		return &domain.ValidationError{Field: "reading"}
	}
	if r.DeviceID == "" {
		return &domain.ValidationError{Field: "device_id"}
	}
	if r.Kind != domain.KindGate && r.Kind != domain.KindTank {
		return &domain.ValidationError{Field: "kind", Reason: "must be gate or tank"}
	}
	if len(r.Values) == 0 && len(r.Labels) == 0 {
		return &domain.ValidationError{Field: "values", Reason: "reading carries no fields"}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
