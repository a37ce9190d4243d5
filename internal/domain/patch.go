package domain

import "time"

// TankPatch lists the editable tank fields; nil fields are left untouched.
type TankPatch struct {
	Name               *string   `json:"name"`
	Capacity           *float64  `json:"capacity"`
	Country            *string   `json:"country"`
	State              *string   `json:"state"`
	District           *string   `json:"district"`
	Mandal             *string   `json:"mandal"`
	Habitation         *string   `json:"habitation"`
	Latitude           *float64  `json:"latitude"`
	Longitude          *float64  `json:"longitude"`
	Altitude           *float64  `json:"altitude"`
	ConnectedPipelines *[]string `json:"connectedPipelines"`
}

// GatePatch lists the editable gate fields. Country is fixed after creation.
type GatePatch struct {
	Name               *string    `json:"name"`
	Type               *string    `json:"type"`
	State              *string    `json:"state"`
	District           *string    `json:"district"`
	Mandal             *string    `json:"mandal"`
	Habitation         *string    `json:"habitation"`
	Latitude           *float64   `json:"latitude"`
	Longitude          *float64   `json:"longitude"`
	Altitude           *float64   `json:"altitude"`
	ConnectedPipelines *[]string  `json:"connectedPipelines"`
	FirmwareVersion    *string    `json:"firmwareVersion"`
	ControllerID       *string    `json:"controllerId"`
	InstallationDate   *time.Time `json:"installationDate"`
}

// PipelinePatch lists the editable pipeline fields.
type PipelinePatch struct {
	Name      *string       `json:"name"`
	Points    *[]Coordinate `json:"points"`
	GateIDs   *[]string     `json:"connectedGateWalls"`
	DeviceIDs *[]string     `json:"connectedDevices"`
	Material  *string       `json:"material"`
	Diameter  *float64      `json:"diameter"`
	Length    *float64      `json:"length"`
}

// Apply returns t with the patch applied and validated. t itself is not modified.
func (p TankPatch) Apply(t Tank, now time.Time) (Tank, error) {
	setString(&t.Name, p.Name)
	setFloat(&t.Capacity, p.Capacity)
	setString(&t.Region.Country, p.Country)
	setString(&t.Region.State, p.State)
	setString(&t.Region.District, p.District)
	setString(&t.Region.Mandal, p.Mandal)
	setString(&t.Region.Habitation, p.Habitation)
	setFloat(&t.Location.Lat, p.Latitude)
	setFloat(&t.Location.Lng, p.Longitude)
	setFloat(&t.Altitude, p.Altitude)
	setStrings(&t.ConnectedPipelines, p.ConnectedPipelines)
	if err := t.Validate(); err != nil {
		return Tank{}, err
	}
	t.UpdatedAt = now
	return t, nil
}

func (p GatePatch) Apply(g Gate, now time.Time) (Gate, error) {
	setString(&g.Name, p.Name)
	setString(&g.Type, p.Type)
	setString(&g.Region.State, p.State)
	setString(&g.Region.District, p.District)
	setString(&g.Region.Mandal, p.Mandal)
	setString(&g.Region.Habitation, p.Habitation)
	setFloat(&g.Location.Lat, p.Latitude)
	setFloat(&g.Location.Lng, p.Longitude)
	setFloat(&g.Altitude, p.Altitude)
	setStrings(&g.ConnectedPipelines, p.ConnectedPipelines)
	setString(&g.FirmwareVersion, p.FirmwareVersion)
	setString(&g.ControllerID, p.ControllerID)
	if p.InstallationDate != nil {
		g.InstallationDate = *p.InstallationDate
	}
	if err := g.Validate(); err != nil {
		return Gate{}, err
	}
	g.UpdatedAt = now
	return g, nil
}

func (p PipelinePatch) Apply(pl Pipeline, now time.Time) (Pipeline, error) {
	setString(&pl.Name, p.Name)
	if p.Points != nil {
		if err := validatePoints(*p.Points); err != nil {
			return Pipeline{}, err
		}
		pl.Points = append([]Coordinate(nil), (*p.Points)...)
	}
	setStrings(&pl.GateIDs, p.GateIDs)
	setStrings(&pl.DeviceIDs, p.DeviceIDs)
	setString(&pl.Material, p.Material)
	setFloat(&pl.Diameter, p.Diameter)
	setFloat(&pl.Length, p.Length)
	if err := pl.Validate(); err != nil {
		return Pipeline{}, err
	}
	pl.UpdatedAt = now
	return pl, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setStrings(dst *[]string, v *[]string) {
	if v != nil {
		*dst = append([]string{}, (*v)...)
	}
}
