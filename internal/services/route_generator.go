package services

import (
	"fmt"
	"math"
	"time"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/geo"
	"food-rescue-service/internal/ports"
)

const DefaultServiceTime = 15 * time.Minute

// RouteGenerator orders pickup/dropoff stops into a single-vehicle tour and
// checks time windows and cold-chain ordering along it.
// The zero value uses a 30 km/h speed, 15 minute service time, 100 2-opt
// sweeps and the system clock.
type RouteGenerator struct {
	SpeedKmh    float64
	ServiceTime time.Duration
	MaxSweeps   int
	Clock       ports.Clock
}

// Generate builds a depot-anchored route over stops.
//
// A zero startAt means "now" according to the generator's clock. Constraint
// violations never fail generation; they are reported as warnings.
func (g RouteGenerator) Generate(depot domain.LatLng, stops []domain.StopRequest, startAt time.Time) (domain.RouteResult, error) {
	if len(stops) == 0 {
		return domain.RouteResult{
			OrderedStops: []domain.StopRequest{},
			ETAs:         []time.Time{},
			Warnings:     []string{},
		}, nil
	}

	if err := depot.Validate(); err != nil {
		return domain.RouteResult{}, fmt.Errorf("generate route: depot: %w", err)
	}
	coords := make([]domain.LatLng, len(stops))
	for i, s := range stops {
		if err := s.Location.Validate(); err != nil {
			return domain.RouteResult{}, fmt.Errorf("generate route: stop %d %q: %w", i+1, s.Name, err)
		}
		if err := s.Window.Validate(); err != nil {
			return domain.RouteResult{}, fmt.Errorf("generate route: stop %d %q: %w", i+1, s.Name, err)
		}
		coords[i] = s.Location
	}

	order := geo.BuildTour(depot, coords, g.MaxSweeps)

	ordered := make([]domain.StopRequest, len(order))
	for k, idx := range order {
		ordered[k] = stops[idx]
		ordered[k].MatchIDs = append([]string(nil), stops[idx].MatchIDs...)
	}

	km := geo.TourLengthKm(depot, geo.Positions(coords, order))

	if startAt.IsZero() {
		startAt = g.clock().Now()
	}
	etas, warnings := g.walk(depot, ordered, startAt)
	coldChain := ValidateColdChain(ordered)

	return domain.RouteResult{
		OrderedStops: ordered,
		ETAs:         etas,
		TotalKm:      roundTenth(km),
		TotalMinutes: int(math.Round(geo.TravelTimeMinutes(km, g.speed()))),
		CO2Kg:        roundTenth(geo.CO2Kg(km)),
		Warnings:     append(warnings, coldChain...),
	}, nil
}

// walk simulates driving the ordered stops from startAt, returning arrival
// times and a warning for each arrival outside the stop's window.
func (g RouteGenerator) walk(depot domain.LatLng, ordered []domain.StopRequest, startAt time.Time) ([]time.Time, []string) {
	etas := make([]time.Time, 0, len(ordered))
	warnings := []string{}

	clock := startAt
	pos := depot
	for i, s := range ordered {
		clock = clock.Add(geo.TravelDuration(geo.DistanceKm(pos, s.Location), g.speed()))
		etas = append(etas, clock)

		if !geo.WithinWindow(clock, s.Window) {
			warnings = append(warnings, fmt.Sprintf(
				"stop %d %q: arrival %s outside time window %s",
				i+1, s.Name, clock.Format("15:04"), formatWindow(s.Window),
			))
		}

		clock = clock.Add(g.serviceTime())
		pos = s.Location
	}

	return etas, warnings
}

// ValidateColdChain flags cold-chain dropoffs reached before the pickup of
// every match they deliver. It is advisory; the route stays usable.
func ValidateColdChain(ordered []domain.StopRequest) []string {
	warnings := []string{}
	collected := make(map[string]struct{})

	for i, s := range ordered {
		if !s.ColdChain {
			continue
		}

		switch s.Kind {
		case domain.StopPickup:
			for _, id := range s.MatchIDs {
				collected[id] = struct{}{}
			}
		case domain.StopDropoff:
			var missing []string
			for _, id := range s.MatchIDs {
				if _, ok := collected[id]; !ok {
					missing = append(missing, id)
				}
			}
			if len(missing) > 0 {
				warnings = append(warnings, fmt.Sprintf(
					"stop %d %q: cold chain dropoff before pickup of matches %v",
					i+1, s.Name, missing,
				))
			}
		}
	}

	return warnings
}

func (g RouteGenerator) speed() float64 {
	if g.SpeedKmh <= 0 {
		return geo.DefaultSpeedKmh
	}
	return g.SpeedKmh
}

func (g RouteGenerator) serviceTime() time.Duration {
	if g.ServiceTime <= 0 {
		return DefaultServiceTime
	}
	return g.ServiceTime
}

func (g RouteGenerator) clock() ports.Clock {
	if g.Clock == nil {
		return ports.SystemClock{}
	}
	return g.Clock
}

func formatWindow(w domain.TimeWindow) string {
	start, end := "open", "open"
	if !w.Start.IsZero() {
		start = w.Start.Format("15:04")
	}
	if !w.End.IsZero() {
		end = w.End.Format("15:04")
	}
	return start + "-" + end
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
