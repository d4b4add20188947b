package dto

import (
	"time"

	"food-rescue-service/internal/domain"
)

type DepotRequest struct {
	Name string   `json:"name" validate:"max=100"`
	Lat  *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng  *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type CreateRouteRequest struct {
	VolunteerID string        `json:"volunteer_id" validate:"required"`
	MatchIDs    []string      `json:"match_ids" validate:"required,min=1,unique,dive,required"`
	StartAt     *time.Time    `json:"start_at"`
	Depot       *DepotRequest `json:"depot"`
}

// DepotOr returns the requested depot, or fallback when none was sent.
func (r CreateRouteRequest) DepotOr(fallback domain.Depot) domain.Depot {
	if r.Depot == nil {
		return fallback
	}
	return domain.Depot{
		Name:     r.Depot.Name,
		Location: domain.LatLng{Lat: *r.Depot.Lat, Lng: *r.Depot.Lng},
	}
}

func (r CreateRouteRequest) Start() time.Time {
	if r.StartAt == nil {
		return time.Time{}
	}
	return r.StartAt.UTC()
}

type CreateRoutesRequest struct {
	Routes []CreateRouteRequest `json:"routes" validate:"required,min=1,max=50,dive"`
}

type UpdateStopRequest struct {
	CheckIn      bool     `json:"check_in"`
	Scanned      bool     `json:"scanned"`
	TemperatureC *float64 `json:"temperature_c" validate:"omitempty,gte=-50,lte=60"`
	Complete     bool     `json:"complete"`
}

type StopResponse struct {
	ID           string          `json:"id"`
	Seq          int             `json:"seq"`
	Kind         string          `json:"kind"`
	Name         string          `json:"name"`
	Address      string          `json:"address,omitempty"`
	Lat          float64         `json:"lat"`
	Lng          float64         `json:"lng"`
	Window       *WindowResponse `json:"window,omitempty"`
	ColdChain    bool            `json:"cold_chain"`
	MatchIDs     []string        `json:"match_ids"`
	ETA          *time.Time      `json:"eta,omitempty"`
	CheckedInAt  *time.Time      `json:"checked_in_at,omitempty"`
	Scanned      bool            `json:"scanned"`
	TemperatureC *float64        `json:"temperature_c,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

type DepotResponse struct {
	Name string  `json:"name,omitempty"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type RouteResponse struct {
	ID           string         `json:"id"`
	VolunteerID  string         `json:"volunteer_id"`
	Status       string         `json:"status"`
	Depot        DepotResponse  `json:"depot"`
	TotalKm      float64        `json:"total_km"`
	TotalMinutes int            `json:"total_minutes"`
	CO2Kg        *float64       `json:"co2_kg,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`
	Stops        []StopResponse `json:"stops"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewRouteResponse maps a stored plan. etas are only known right after planning;
// pass nil otherwise.
func NewRouteResponse(p *domain.RoutePlan, etas []time.Time) RouteResponse {
	res := RouteResponse{
		ID:          p.ID,
		VolunteerID: p.VolunteerID,
		Status:      string(p.Status()),
		Depot: DepotResponse{
			Name: p.Depot.Name,
			Lat:  p.Depot.Location.Lat,
			Lng:  p.Depot.Location.Lng,
		},
		TotalKm:      p.TotalKm,
		TotalMinutes: p.TotalMinutes,
		Stops:        make([]StopResponse, 0, len(p.Stops)),
		CreatedAt:    p.CreatedAt,
	}
	for i, s := range p.Stops {
		sr := StopResponse{
			ID:           s.ID,
			Seq:          s.Seq,
			Kind:         string(s.Kind),
			Name:         s.Name,
			Address:      s.Address,
			Lat:          s.Location.Lat,
			Lng:          s.Location.Lng,
			Window:       windowResponse(s.Window),
			ColdChain:    s.ColdChain,
			MatchIDs:     s.MatchIDs,
			CheckedInAt:  s.CheckedInAt,
			Scanned:      s.Scanned,
			TemperatureC: s.TemperatureC,
			CompletedAt:  s.CompletedAt,
		}
		if i < len(etas) {
			eta := etas[i]
			sr.ETA = &eta
		}
		res.Stops = append(res.Stops, sr)
	}
	return res
}

type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
}
