package domain

import (
	"math"
	"time"
)

const (
	TagFEFO    = "FEFO"
	TagNearby  = "Nearby"
	TagUrgent  = "Urgent"
	TagSurplus = "Surplus"
)

// ScoreBreakdown holds the weighted cost components of a match score.
type ScoreBreakdown struct {
	ExpiryScore   float64
	DistanceScore float64
	UrgencyScore  float64
	SurplusScore  float64
}

// MatchExplanation is a cost (lower is better) plus the reasons behind it.
type MatchExplanation struct {
	Score     float64
	Tags      []string
	Breakdown ScoreBreakdown
}

// Unmatchable is the sentinel returned for pairs that fail eligibility.
func Unmatchable() MatchExplanation {
	return MatchExplanation{Score: math.Inf(1), Tags: []string{}}
}

func (e MatchExplanation) Matchable() bool { return !math.IsInf(e.Score, 1) }

type RankedOffer struct {
	Offer       Offer
	Explanation MatchExplanation
}

// KPIs summarizes platform activity for the ops dashboard.
type KPIs struct {
	TotalMatches    int
	TimeToMatchP50  int
	TimeToMatchP90  int
	MatchRate       float64
	FillRate        float64
	TotalDistanceKm float64
	TotalCO2Kg      float64
	WastageAvoided  float64
	LastUpdated     time.Time
}
