package services

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/geo"
	"food-rescue-service/internal/platform/obs"
	"food-rescue-service/internal/ports"
)

// wastageHorizonDays: matched lots this close to expiry count as rescued from waste.
const wastageHorizonDays = 3.0

// Snapshot is the state KPIs are computed from.
type Snapshot struct {
	Offers  []*domain.Offer
	Needs   []*domain.Need
	Matches []*domain.Match
	Plans   []*domain.RoutePlan
}

// ComputeKPIs summarizes a snapshot as of asOf. Cancelled matches are ignored.
func ComputeKPIs(s Snapshot, asOf time.Time) domain.KPIs {
	needByID := make(map[string]*domain.Need, len(s.Needs))
	for _, n := range s.Needs {
		needByID[n.ID] = n
	}
	offerByID := make(map[string]*domain.Offer, len(s.Offers))
	for _, o := range s.Offers {
		offerByID[o.ID] = o
	}

	var (
		total         int
		matchMinutes  []float64
		matchedQty    float64
		wastageAvoid  float64
		requestedQty  float64
		totalDistance float64
	)

	for _, m := range s.Matches {
		if m.Status == domain.MatchCancelled {
			continue
		}
		total++
		matchedQty += m.Quantity

		if n, ok := needByID[m.NeedID]; ok {
			matchMinutes = append(matchMinutes, m.CreatedAt.Sub(n.CreatedAt).Minutes())
		}
		if o, ok := offerByID[m.OfferID]; ok && o.ExpiresAt.Sub(asOf).Hours()/24 <= wastageHorizonDays {
			wastageAvoid += m.Quantity
		}
	}

	for _, n := range s.Needs {
		requestedQty += n.MinQuantity
	}
	for _, p := range s.Plans {
		totalDistance += p.TotalKm
	}

	slices.Sort(matchMinutes)

	k := domain.KPIs{
		TotalMatches:    total,
		TimeToMatchP50:  int(math.Round(percentile(matchMinutes, 0.5))),
		TimeToMatchP90:  int(math.Round(percentile(matchMinutes, 0.9))),
		TotalDistanceKm: roundTenth(totalDistance),
		TotalCO2Kg:      roundTenth(geo.CO2Kg(totalDistance)),
		WastageAvoided:  math.Round(wastageAvoid),
		LastUpdated:     asOf,
	}
	if len(s.Needs) > 0 {
		k.MatchRate = roundTenth(float64(total) / float64(len(s.Needs)) * 100)
	}
	if requestedQty > 0 {
		k.FillRate = roundTenth(matchedQty / requestedQty * 100)
	}
	return k
}

// percentile picks the element at floor(len*q) of an ascending slice.
func percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	i := int(math.Floor(float64(len(sorted)) * q))
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}

// LoadKPIs reads a snapshot from the store and computes KPIs as of asOf.
func LoadKPIs(ctx context.Context, store ports.Store, asOf time.Time) (_ domain.KPIs, err error) {
	defer obs.Time(ctx, "kpis.Load")(&err)

	var s Snapshot
	if s.Offers, err = store.ListOffers(ctx); err != nil {
		return domain.KPIs{}, fmt.Errorf("load kpis: list offers: %w", err)
	}
	if s.Needs, err = store.ListNeeds(ctx); err != nil {
		return domain.KPIs{}, fmt.Errorf("load kpis: list needs: %w", err)
	}
	if s.Matches, err = store.ListMatches(ctx); err != nil {
		return domain.KPIs{}, fmt.Errorf("load kpis: list matches: %w", err)
	}
	if s.Plans, err = store.ListRoutePlans(ctx); err != nil {
		return domain.KPIs{}, fmt.Errorf("load kpis: list route plans: %w", err)
	}
	return ComputeKPIs(s, asOf), nil
}
