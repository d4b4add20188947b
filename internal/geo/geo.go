// Package geo holds the distance, travel-time and tour primitives used by
// matching and route generation. Everything here is pure and safe for concurrent use.
package geo

import (
	"math"
	"time"

	"food-rescue-service/internal/domain"
)

const (
	// EarthRadiusKm is the mean Earth radius.
	EarthRadiusKm = 6371.0

	DefaultSpeedKmh = 30.0

	// CO2KgPerKm is the emission factor of a light commercial vehicle.
	CO2KgPerKm = 0.27
)

// DistanceKm returns the great-circle (haversine) distance between a and b.
func DistanceKm(a, b domain.LatLng) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	sinDLat := math.Sin(toRadians(b.Lat-a.Lat) / 2)
	sinDLng := math.Sin(toRadians(b.Lng-a.Lng) / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// TourLengthKm is the round trip depot -> ordered... -> depot.
func TourLengthKm(depot domain.LatLng, ordered []domain.LatLng) float64 {
	if len(ordered) == 0 {
		return 0
	}

	total := DistanceKm(depot, ordered[0])
	for i := 1; i < len(ordered); i++ {
		total += DistanceKm(ordered[i-1], ordered[i])
	}
	return total + DistanceKm(ordered[len(ordered)-1], depot)
}

// TravelTimeMinutes is a linear estimate at a constant speed.
func TravelTimeMinutes(distanceKm, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultSpeedKmh
	}
	return distanceKm / speedKmh * 60
}

// TravelDuration is TravelTimeMinutes as a time.Duration.
func TravelDuration(distanceKm, speedKmh float64) time.Duration {
	return time.Duration(TravelTimeMinutes(distanceKm, speedKmh) * float64(time.Minute))
}

func CO2Kg(distanceKm float64) float64 {
	return distanceKm * CO2KgPerKm
}

// WithinWindow reports whether t falls inside w. Absent bounds do not constrain.
func WithinWindow(t time.Time, w domain.TimeWindow) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
