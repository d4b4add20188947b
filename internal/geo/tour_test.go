package geo

import (
	"math/rand"
	"slices"
	"testing"

	"food-rescue-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNearestNeighborSmallInputs(t *testing.T) {
	assert.Empty(t, NearestNeighbor(jurongHub, nil))
	assert.Equal(t, []int{0}, NearestNeighbor(jurongHub, []domain.LatLng{tampines}))
}

func TestNearestNeighborOrder(t *testing.T) {
	depot := domain.LatLng{Lat: 0, Lng: 0}
	points := []domain.LatLng{
		{Lat: 0, Lng: 0.30},
		{Lat: 0, Lng: 0.10},
		{Lat: 0, Lng: 0.20},
	}

	assert.Equal(t, []int{1, 2, 0}, NearestNeighbor(depot, points))
}

func TestNearestNeighborTiesKeepFirstIndex(t *testing.T) {
	depot := domain.LatLng{Lat: 0, Lng: 0}
	points := []domain.LatLng{
		{Lat: 0, Lng: 0.1},
		{Lat: 0, Lng: -0.1},
	}

	assert.Equal(t, []int{0, 1}, NearestNeighbor(depot, points))
}

func TestTwoOptShortInputUnchanged(t *testing.T) {
	points := []domain.LatLng{tampines, woodlands, marinaBay}
	order := []int{2, 0, 1}

	assert.Equal(t, order, TwoOpt(jurongHub, points, order, MaxTwoOptSweeps))
}

func TestTwoOptDoesNotAliasInput(t *testing.T) {
	depot := domain.LatLng{}
	points := []domain.LatLng{
		{Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}, {Lat: 1, Lng: 0}, {Lat: 0.5, Lng: 0.5}, {Lat: 0, Lng: 0.5},
	}
	order := []int{0, 2, 1, 3, 4}
	original := slices.Clone(order)

	_ = TwoOpt(depot, points, order, MaxTwoOptSweeps)

	assert.Equal(t, original, order)
}

func TestTwoOptUntanglesCrossing(t *testing.T) {
	depot := domain.LatLng{Lat: 0, Lng: 0}
	points := []domain.LatLng{
		{Lat: 0, Lng: 0.1},
		{Lat: 0.1, Lng: 0.1},
		{Lat: 0.1, Lng: 0},
		{Lat: 0.05, Lng: 0.12},
	}
	crossed := []int{0, 2, 1, 3}

	improved := TwoOpt(depot, points, crossed, MaxTwoOptSweeps)

	before := TourLengthKm(depot, Positions(points, crossed))
	after := TourLengthKm(depot, Positions(points, improved))
	assert.Less(t, after, before)
	assert.ElementsMatch(t, crossed, improved)
}

func TestTwoOptNeverWorseThanNearestNeighbor(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	depot := jurongHub

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(14)
		points := make([]domain.LatLng, n)
		for i := range points {
			points[i] = domain.LatLng{
				Lat: 1.25 + rng.Float64()*0.2,
				Lng: 103.65 + rng.Float64()*0.35,
			}
		}

		nn := NearestNeighbor(depot, points)
		tour := BuildTour(depot, points, MaxTwoOptSweeps)

		require.Len(t, tour, n)
		require.ElementsMatch(t, nn, tour, "tour must be a permutation")

		nnLen := TourLengthKm(depot, Positions(points, nn))
		tourLen := TourLengthKm(depot, Positions(points, tour))
		require.LessOrEqual(t, tourLen, nnLen+1e-9, "trial %d", trial)
	}
}

func TestBuildTourDeterministic(t *testing.T) {
	points := []domain.LatLng{tampines, woodlands, marinaBay, {Lat: 1.30, Lng: 103.80}, {Lat: 1.37, Lng: 103.85}}

	first := BuildTour(jurongHub, points, MaxTwoOptSweeps)
	second := BuildTour(jurongHub, points, MaxTwoOptSweeps)

	assert.Equal(t, first, second)
}
