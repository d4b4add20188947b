package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/geo"
)

const (
	fefoDays         = 2.0
	nearbyKm         = 5.0
	surplusTagRatio  = 1.5
	surplusCostRatio = 3.0
)

// Weights scale the components of a match cost.
type Weights struct {
	Expiry   float64
	Distance float64
	Urgency  float64
	Surplus  float64
}

// DefaultWeights is the production policy. Expiry and distance dominate the cost;
// urgency and surplus act as tiebreakers.
var DefaultWeights = Weights{
	Expiry:   0.5,
	Distance: 0.3,
	Urgency:  0.15,
	Surplus:  0.05,
}

// Matcher scores offers against needs. The zero value uses DefaultWeights.
type Matcher struct {
	Weights *Weights
}

func (m Matcher) weights() Weights {
	if m.Weights == nil {
		return DefaultWeights
	}
	return *m.Weights
}

// Score computes the match cost of offer for need as of asOf (lower is better).
//
// Pairs failing eligibility (category, accepted storage, availability) yield
// the unmatchable sentinel rather than an error. Errors are reserved for
// records that fail validation.
func (m Matcher) Score(offer *domain.Offer, need *domain.Need, asOf time.Time) (domain.MatchExplanation, error) {
	if err := offer.Validate(); err != nil {
		return domain.MatchExplanation{}, fmt.Errorf("score offer %s: %w", offer.ID, err)
	}
	if err := need.Validate(); err != nil {
		return domain.MatchExplanation{}, fmt.Errorf("score need %s: %w", need.ID, err)
	}
	return m.score(offer, need, asOf), nil
}

func (m Matcher) score(offer *domain.Offer, need *domain.Need, asOf time.Time) domain.MatchExplanation {
	if offer.Category != need.Category ||
		!need.Accepts(offer.Storage) ||
		offer.Status != domain.OfferAvailable {
		return domain.Unmatchable()
	}

	w := m.weights()
	days := offer.DaysUntilExpiry(asOf)
	km := geo.DistanceKm(offer.Location, need.Location)

	surplus := 0.0
	if offer.Quantity > surplusCostRatio*need.MinQuantity {
		surplus = 1
	}

	b := domain.ScoreBreakdown{
		ExpiryScore:   w.Expiry * days,
		DistanceScore: w.Distance * km,
		UrgencyScore:  w.Urgency * float64(need.Urgency.Rank()),
		SurplusScore:  w.Surplus * surplus,
	}

	tags := make([]string, 0, 4)
	if days <= fefoDays {
		tags = append(tags, domain.TagFEFO)
	}
	if km <= nearbyKm {
		tags = append(tags, domain.TagNearby)
	}
	if need.Urgency == domain.UrgencyHigh {
		tags = append(tags, domain.TagUrgent)
	}
	if offer.Quantity >= surplusTagRatio*need.MinQuantity {
		tags = append(tags, domain.TagSurplus)
	}

	return domain.MatchExplanation{
		Score:     b.ExpiryScore + b.DistanceScore + b.UrgencyScore + b.SurplusScore,
		Tags:      tags,
		Breakdown: b,
	}
}

// RankOffersForNeed scores every offer, drops the unmatchable ones and sorts
// the rest by ascending cost. Equal costs keep their input order.
func (m Matcher) RankOffersForNeed(offers []*domain.Offer, need *domain.Need, asOf time.Time) ([]domain.RankedOffer, error) {
	if err := need.Validate(); err != nil {
		return nil, fmt.Errorf("rank offers: need %s: %w", need.ID, err)
	}

	ranked := make([]domain.RankedOffer, 0, len(offers))
	for _, o := range offers {
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("rank offers: offer %s: %w", o.ID, err)
		}

		exp := m.score(o, need, asOf)
		if !exp.Matchable() {
			continue
		}
		ranked = append(ranked, domain.RankedOffer{Offer: *o, Explanation: exp})
	}

	slices.SortStableFunc(ranked, func(a, b domain.RankedOffer) int {
		switch {
		case a.Explanation.Score < b.Explanation.Score:
			return -1
		case a.Explanation.Score > b.Explanation.Score:
			return 1
		}
		return 0
	})

	return ranked, nil
}

// FormatBreakdown renders an explanation for tooltips and logs.
func FormatBreakdown(e domain.MatchExplanation) string {
	if !e.Matchable() {
		return "Not eligible"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Score: %.2f\n\nBreakdown:\n", e.Score)
	fmt.Fprintf(&sb, "• Expiry: %.2f\n", e.Breakdown.ExpiryScore)
	fmt.Fprintf(&sb, "• Distance: %.2f\n", e.Breakdown.DistanceScore)
	fmt.Fprintf(&sb, "• Urgency: %.2f\n", e.Breakdown.UrgencyScore)
	fmt.Fprintf(&sb, "• Surplus: %.2f", e.Breakdown.SurplusScore)
	return sb.String()
}
