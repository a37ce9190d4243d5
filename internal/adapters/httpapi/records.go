package httpapi

import (
	"net/http"
	"time"

	"github.com/ghalamif/AquaFlow/internal/domain"
)

// Create requests use pointers so a missing required field can be told apart
// from a zero value.

type createTankRequest struct {
	ID                 *string  `json:"id"`
	Name               *string  `json:"name"`
	Type               *string  `json:"type"`
	Capacity           *float64 `json:"capacity"`
	Country            *string  `json:"country"`
	State              *string  `json:"state"`
	District           *string  `json:"district"`
	Mandal             *string  `json:"mandal"`
	Habitation         *string  `json:"habitation"`
	Latitude           *float64 `json:"latitude"`
	Longitude          *float64 `json:"longitude"`
	Altitude           *float64 `json:"altitude"`
	ConnectedPipelines []string `json:"connectedPipelines"`
}

func (req createTankRequest) toTank() (domain.Tank, error) {
	if err := required(
		field{"id", req.ID != nil},
		field{"name", req.Name != nil},
		field{"latitude", req.Latitude != nil},
		field{"longitude", req.Longitude != nil},
	); err != nil {
		return domain.Tank{}, err
	}
	return domain.Tank{
		ID:                 *req.ID,
		Name:               *req.Name,
		Type:               deref(req.Type),
		Capacity:           deref(req.Capacity),
		Region:             region(req.Country, req.State, req.District, req.Mandal, req.Habitation),
		Location:           domain.Coordinate{Lat: *req.Latitude, Lng: *req.Longitude},
		Altitude:           deref(req.Altitude),
		ConnectedPipelines: req.ConnectedPipelines,
	}, nil
}

type createGateRequest struct {
	ID                 *string    `json:"id"`
	Name               *string    `json:"name"`
	Type               *string    `json:"type"`
	Country            *string    `json:"country"`
	State              *string    `json:"state"`
	District           *string    `json:"district"`
	Mandal             *string    `json:"mandal"`
	Habitation         *string    `json:"habitation"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	Altitude           *float64   `json:"altitude"`
	ConnectedPipelines []string   `json:"connectedPipelines"`
	InstallationDate   *time.Time `json:"installationDate"`
	FirmwareVersion    *string    `json:"firmwareVersion"`
	ControllerID       *string    `json:"controllerId"`
}

func (req createGateRequest) toGate() (domain.Gate, error) {
	if err := required(
		field{"id", req.ID != nil},
		field{"name", req.Name != nil},
		field{"latitude", req.Latitude != nil},
		field{"longitude", req.Longitude != nil},
	); err != nil {
		return domain.Gate{}, err
	}
	return domain.Gate{
		ID:                 *req.ID,
		Name:               *req.Name,
		Type:               deref(req.Type),
		Region:             region(req.Country, req.State, req.District, req.Mandal, req.Habitation),
		Location:           domain.Coordinate{Lat: *req.Latitude, Lng: *req.Longitude},
		Altitude:           deref(req.Altitude),
		ConnectedPipelines: req.ConnectedPipelines,
		InstallationDate:   deref(req.InstallationDate),
		FirmwareVersion:    deref(req.FirmwareVersion),
		ControllerID:       deref(req.ControllerID),
	}, nil
}

// Pipeline points travel as [lat, lng] pairs.
type createPipelineRequest struct {
	ID        *string       `json:"id"`
	Name      *string       `json:"name"`
	Points    *[][2]float64 `json:"points"`
	GateIDs   []string      `json:"connectedGateWalls"`
	DeviceIDs []string      `json:"connectedDevices"`
	Material  *string       `json:"material"`
	Diameter  *float64      `json:"diameter"`
	Length    *float64      `json:"length"`
}

func (req createPipelineRequest) toPipeline() (domain.Pipeline, error) {
	if err := required(
		field{"id", req.ID != nil},
		field{"name", req.Name != nil},
		field{"points", req.Points != nil},
	); err != nil {
		return domain.Pipeline{}, err
	}
	return domain.Pipeline{
		ID:        *req.ID,
		Name:      *req.Name,
		Points:    pairsToPoints(*req.Points),
		GateIDs:   req.GateIDs,
		DeviceIDs: req.DeviceIDs,
		Material:  deref(req.Material),
		Diameter:  deref(req.Diameter),
		Length:    deref(req.Length),
	}, nil
}

type patchPipelineRequest struct {
	Name      *string       `json:"name"`
	Points    *[][2]float64 `json:"points"`
	GateIDs   *[]string     `json:"connectedGateWalls"`
	DeviceIDs *[]string     `json:"connectedDevices"`
	Material  *string       `json:"material"`
	Diameter  *float64      `json:"diameter"`
	Length    *float64      `json:"length"`
}

func (req patchPipelineRequest) toPatch() domain.PipelinePatch {
	p := domain.PipelinePatch{
		Name:      req.Name,
		GateIDs:   req.GateIDs,
		DeviceIDs: req.DeviceIDs,
		Material:  req.Material,
		Diameter:  req.Diameter,
		Length:    req.Length,
	}
	if req.Points != nil {
		pts := pairsToPoints(*req.Points)
		p.Points = &pts
	}
	return p
}

type field struct {
	name    string
	present bool
}

func required(fields ...field) error {
	for _, f := range fields {
		if !f.present {
			return &domain.ValidationError{Field: f.name}
		}
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func region(country, state, district, mandal, habitation *string) domain.Region {
	return domain.Region{
		Country:    deref(country),
		State:      deref(state),
		District:   deref(district),
		Mandal:     deref(mandal),
		Habitation: deref(habitation),
	}
}

func pairsToPoints(pairs [][2]float64) []domain.Coordinate {
	out := make([]domain.Coordinate, len(pairs))
	for i, p := range pairs {
		out[i] = domain.Coordinate{Lat: p[0], Lng: p[1]}
	}
	return out
}

func pointsToPairs(points []domain.Coordinate) [][2]float64 {
	out := make([][2]float64, len(points))
	for i, c := range points {
		out[i] = [2]float64{c.Lat, c.Lng}
	}
	return out
}

// pipelineResponse renders a pipeline with its points in the same [lat, lng]
// shape the create and patch requests take.
type pipelineResponse struct {
	domain.Pipeline
	Points [][2]float64 `json:"points"`
}

func newPipelineResponse(p domain.Pipeline) pipelineResponse {
	return pipelineResponse{Pipeline: p, Points: pointsToPairs(p.Points)}
}

func newPipelineResponses(ps []domain.Pipeline) []pipelineResponse {
	out := make([]pipelineResponse, len(ps))
	for i, p := range ps {
		out[i] = newPipelineResponse(p)
	}
	return out
}

func (s *Server) listTanks(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Tanks().List())
}

func (s *Server) createTank(w http.ResponseWriter, r *http.Request) {
	var req createTankRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.toTank()
	if err == nil {
		t, err = s.svc.Tanks().Create(t)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, t)
}

func (s *Server) getTank(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.Tanks().Get(routeID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) updateTank(w http.ResponseWriter, r *http.Request) {
	var patch domain.TankPatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := s.svc.Tanks().Update(routeID(r), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) deleteTank(w http.ResponseWriter, r *http.Request) {
	t, err := s.svc.DeleteTank(routeID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) listGates(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.svc.Gates().List())
}

func (s *Server) createGate(w http.ResponseWriter, r *http.Request) {
	var req createGateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	g, err := req.toGate()
	if err == nil {
		g, err = s.svc.Gates().Create(g)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, g)
}

func (s *Server) getGate(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.Gates().Get(routeID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) updateGate(w http.ResponseWriter, r *http.Request) {
	var patch domain.GatePatch
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}
	g, err := s.svc.Gates().Update(routeID(r), patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) deleteGate(w http.ResponseWriter, r *http.Request) {
	g, err := s.svc.DeleteGate(routeID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, g)
}

func (s *Server) listPipelines(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newPipelineResponses(s.svc.Pipelines().List()))
}

func (s *Server) createPipeline(w http.ResponseWriter, r *http.Request) {
	var req createPipelineRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := req.toPipeline()
	if err == nil {
		p, err = s.svc.Pipelines().Create(p)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, newPipelineResponse(p))
}

func (s *Server) getPipeline(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Pipelines().Get(routeID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPipelineResponse(p))
}

func (s *Server) updatePipeline(w http.ResponseWriter, r *http.Request) {
	var req patchPipelineRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.svc.Pipelines().Update(routeID(r), req.toPatch())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPipelineResponse(p))
}

func (s *Server) deletePipeline(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.DeletePipeline(routeID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPipelineResponse(p))
}
