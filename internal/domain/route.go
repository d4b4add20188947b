package domain

import (
	"fmt"
	"time"
)

// StopRequest describes one pickup or dropoff to be placed on a route.
// It is both the input of route generation and the ordered output.
type StopRequest struct {
	Kind      StopKind
	Location  LatLng
	Name      string
	Address   string
	Window    TimeWindow
	ColdChain bool
	MatchIDs  []string
}

// Represents a single stop of a persisted route plan.
// Execution fields are written by the volunteer running the route and never reset.
type Stop struct {
	ID     string
	PlanID string
	Seq    int
	StopRequest

	CheckedInAt  *time.Time
	Scanned      bool
	TemperatureC *float64
	CompletedAt  *time.Time
}

func (s *Stop) CheckIn(at time.Time) error {
	if s.CheckedInAt != nil {
		return fmt.Errorf("check in stop %s: %w", s.ID, ErrStopStateFinal)
	}
	s.CheckedInAt = &at
	return nil
}

func (s *Stop) MarkScanned() error {
	if s.Scanned {
		return fmt.Errorf("scan stop %s: %w", s.ID, ErrStopStateFinal)
	}
	s.Scanned = true
	return nil
}

func (s *Stop) RecordTemperature(c float64) error {
	if s.TemperatureC != nil {
		return fmt.Errorf("record temperature at stop %s: %w", s.ID, ErrStopStateFinal)
	}
	s.TemperatureC = &c
	return nil
}

// Complete closes the stop, checking it in first when the volunteer skipped that step.
func (s *Stop) Complete(at time.Time) error {
	if s.CompletedAt != nil {
		return fmt.Errorf("complete stop %s: %w", s.ID, ErrStopStateFinal)
	}
	if s.CheckedInAt == nil {
		s.CheckedInAt = &at
	}
	s.CompletedAt = &at
	return nil
}

// StopUpdate is what a volunteer reports at a stop. Unset fields are left alone.
type StopUpdate struct {
	CheckIn      bool
	Scanned      bool
	TemperatureC *float64
	Complete     bool
}

func (u StopUpdate) Empty() bool {
	return !u.CheckIn && !u.Scanned && u.TemperatureC == nil && !u.Complete
}

// Apply records u at time at. When any reported field is already set the stop
// is left untouched and ErrStopStateFinal is returned.
func (s *Stop) Apply(u StopUpdate, at time.Time) error {
	switch {
	case u.CheckIn && s.CheckedInAt != nil:
		return fmt.Errorf("check in stop %s: %w", s.ID, ErrStopStateFinal)
	case u.Scanned && s.Scanned:
		return fmt.Errorf("scan stop %s: %w", s.ID, ErrStopStateFinal)
	case u.TemperatureC != nil && s.TemperatureC != nil:
		return fmt.Errorf("record temperature at stop %s: %w", s.ID, ErrStopStateFinal)
	case u.Complete && s.CompletedAt != nil:
		return fmt.Errorf("complete stop %s: %w", s.ID, ErrStopStateFinal)
	}

	if u.CheckIn {
		_ = s.CheckIn(at)
	}
	if u.Scanned {
		_ = s.MarkScanned()
	}
	if u.TemperatureC != nil {
		_ = s.RecordTemperature(*u.TemperatureC)
	}
	if u.Complete {
		_ = s.Complete(at)
	}
	return nil
}

type Depot struct {
	Location LatLng
	Name     string
}

// Represents one volunteer's delivery assignment.
// Stop order is fixed at creation; only stop execution state changes afterwards.
type RoutePlan struct {
	ID           string
	VolunteerID  string
	Depot        Depot
	Stops        []Stop
	TotalKm      float64
	TotalMinutes int
	CreatedAt    time.Time
}

// Status is derived from stop execution state.
func (p *RoutePlan) Status() RoutePlanStatus {
	if len(p.Stops) == 0 {
		return PlanAssigned
	}
	started := false
	done := true
	for _, s := range p.Stops {
		if s.CheckedInAt != nil || s.CompletedAt != nil {
			started = true
		}
		if s.CompletedAt == nil {
			done = false
		}
	}
	switch {
	case done:
		return PlanDone
	case started:
		return PlanInProgress
	default:
		return PlanAssigned
	}
}

func (p *RoutePlan) FindStop(id string) (*Stop, bool) {
	for i := range p.Stops {
		if p.Stops[i].ID == id {
			return &p.Stops[i], true
		}
	}
	return nil, false
}

// MatchIDs lists every match served by the plan, in stop order without duplicates.
func (p *RoutePlan) MatchIDs() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(p.Stops))
	for _, s := range p.Stops {
		for _, id := range s.MatchIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// RouteResult is the output of route generation.
// ETAs[i] is the simulated arrival at OrderedStops[i].
type RouteResult struct {
	OrderedStops []StopRequest
	ETAs         []time.Time
	TotalKm      float64
	TotalMinutes int
	CO2Kg        float64
	Warnings     []string
}
