package geo

import (
	"math"

	"food-rescue-service/internal/domain"
)

const (
	MaxTwoOptSweeps = 100

	// twoOptMinPoints is the smallest tour 2-opt tries to improve.
	twoOptMinPoints = 4

	// improvementEpsilon keeps float noise from being accepted as an improvement.
	improvementEpsilon = 1e-9
)

// NearestNeighbor builds a visiting order greedily from the depot.
//
// At each step the closest unvisited point is chosen. Ties keep the lowest
// index so the order is reproducible. The depot is implicit at both ends.
func NearestNeighbor(depot domain.LatLng, points []domain.LatLng) []int {
	n := len(points)
	order := make([]int, 0, n)
	if n == 0 {
		return order
	}

	visited := make([]bool, n)
	current := depot
	for len(order) < n {
		best := -1
		bestDist := math.Inf(1)
		for i, p := range points {
			if visited[i] {
				continue
			}
			if d := DistanceKm(current, p); d < bestDist {
				bestDist = d
				best = i
			}
		}

		visited[best] = true
		order = append(order, best)
		current = points[best]
	}

	return order
}

// TwoOpt improves a depot-anchored tour by reversing segments.
//
// Each sweep tests every segment order[i..j]; a reversal is applied as soon
// as it strictly shortens the closed tour (first improvement). The search
// ends after a sweep without improvement or after maxSweeps sweeps.
// Tours under four points are returned as given. The input slice is never modified.
func TwoOpt(depot domain.LatLng, points []domain.LatLng, order []int, maxSweeps int) []int {
	tour := make([]int, len(order))
	copy(tour, order)

	n := len(tour)
	if n < twoOptMinPoints {
		return tour
	}
	if maxSweeps <= 0 {
		maxSweeps = MaxTwoOptSweeps
	}

	at := func(pos int) domain.LatLng {
		if pos < 0 || pos >= n {
			return depot
		}
		return points[tour[pos]]
	}

	for sweep := 0; sweep < maxSweeps; sweep++ {
		improved := false

		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				prev, first := at(i-1), at(i)
				last, next := at(j), at(j+1)

				delta := DistanceKm(prev, last) + DistanceKm(first, next) -
					DistanceKm(prev, first) - DistanceKm(last, next)
				if delta < -improvementEpsilon {
					reverse(tour[i : j+1])
					improved = true
				}
			}
		}

		if !improved {
			break
		}
	}

	return tour
}

// BuildTour runs nearest neighbor followed by 2-opt.
func BuildTour(depot domain.LatLng, points []domain.LatLng, maxSweeps int) []int {
	return TwoOpt(depot, points, NearestNeighbor(depot, points), maxSweeps)
}

// Positions returns points rearranged into the given visiting order.
func Positions(points []domain.LatLng, order []int) []domain.LatLng {
	out := make([]domain.LatLng, len(order))
	for k, idx := range order {
		out[k] = points[idx]
	}
	return out
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
