package domain

import (
	"math"
	"time"
)

// Immutable geographic coordinates in decimal degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Validate rejects non-finite and out-of-range coordinates.
func (c LatLng) Validate() error {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || c.Lat < -90 || c.Lat > 90 {
		return invalid("lat", "%v is not a latitude", c.Lat)
	}
	if math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) || c.Lng < -180 || c.Lng > 180 {
		return invalid("lng", "%v is not a longitude", c.Lng)
	}
	return nil
}

// TimeWindow bounds an arrival time. A zero Start or End leaves that side open.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

func (w TimeWindow) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

func (w TimeWindow) Validate() error {
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return invalid("window", "end %s before start %s", w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

func validQuantity(field string, q float64) error {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return invalid(field, "%v is not a non-negative quantity", q)
	}
	return nil
}
