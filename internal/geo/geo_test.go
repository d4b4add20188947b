package geo

import (
	"math"
	"testing"
	"time"

	"food-rescue-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

var (
	jurongHub  = domain.LatLng{Lat: 1.3329, Lng: 103.7436}
	tampines   = domain.LatLng{Lat: 1.3496, Lng: 103.9568}
	woodlands  = domain.LatLng{Lat: 1.4382, Lng: 103.7890}
	marinaBay  = domain.LatLng{Lat: 1.2834, Lng: 103.8607}
	equatorOne = domain.LatLng{Lat: 0, Lng: 1}
)

func TestDistanceKmSymmetricAndZero(t *testing.T) {
	points := []domain.LatLng{jurongHub, tampines, woodlands, marinaBay, equatorOne, {Lat: -33.86, Lng: 151.2}}

	for _, p := range points {
		assert.Zero(t, DistanceKm(p, p))
		for _, q := range points {
			assert.InDelta(t, DistanceKm(p, q), DistanceKm(q, p), 1e-12)
		}
	}
}

func TestDistanceKmKnownValues(t *testing.T) {
	// One degree of longitude on the equator is R * pi / 180.
	want := EarthRadiusKm * math.Pi / 180
	assert.InDelta(t, want, DistanceKm(domain.LatLng{}, equatorOne), 1e-9)

	// Jurong to Tampines is roughly 23.8 km.
	assert.InDelta(t, 23.8, DistanceKm(jurongHub, tampines), 0.2)
}

func TestTourLengthKm(t *testing.T) {
	assert.Zero(t, TourLengthKm(jurongHub, nil))

	single := TourLengthKm(jurongHub, []domain.LatLng{tampines})
	assert.InDelta(t, 2*DistanceKm(jurongHub, tampines), single, 1e-9)

	ordered := []domain.LatLng{tampines, woodlands}
	want := DistanceKm(jurongHub, tampines) + DistanceKm(tampines, woodlands) + DistanceKm(woodlands, jurongHub)
	assert.InDelta(t, want, TourLengthKm(jurongHub, ordered), 1e-9)
}

func TestTravelTimeAndEmissions(t *testing.T) {
	assert.InDelta(t, 30.0, TravelTimeMinutes(15, DefaultSpeedKmh), 1e-9)
	assert.InDelta(t, 15.0, TravelTimeMinutes(15, 60), 1e-9)
	assert.InDelta(t, 30.0, TravelTimeMinutes(15, 0), 1e-9, "non-positive speed falls back to default")
	assert.Equal(t, 30*time.Minute, TravelDuration(15, DefaultSpeedKmh))

	assert.InDelta(t, 2.7, CO2Kg(10), 1e-9)
}

func TestWithinWindow(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	window := domain.TimeWindow{Start: base, End: base.Add(30 * time.Minute)}

	tests := []struct {
		name   string
		at     time.Time
		window domain.TimeWindow
		want   bool
	}{
		{"no window", base.Add(-time.Hour), domain.TimeWindow{}, true},
		{"at start", base, window, true},
		{"at end", base.Add(30 * time.Minute), window, true},
		{"inside", base.Add(10 * time.Minute), window, true},
		{"before", base.Add(-time.Minute), window, false},
		{"after", base.Add(45 * time.Minute), window, false},
		{"open end", base.Add(48 * time.Hour), domain.TimeWindow{Start: base}, true},
		{"open start late", base.Add(time.Hour), domain.TimeWindow{End: base}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithinWindow(tt.at, tt.window))
		})
	}
}
