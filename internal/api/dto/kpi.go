package dto

import (
	"time"

	"food-rescue-service/internal/domain"
)

type KPIResponse struct {
	TotalMatches    int       `json:"total_matches"`
	TimeToMatchP50  int       `json:"time_to_match_p50_min"`
	TimeToMatchP90  int       `json:"time_to_match_p90_min"`
	MatchRate       float64   `json:"match_rate_pct"`
	FillRate        float64   `json:"fill_rate_pct"`
	TotalDistanceKm float64   `json:"total_distance_km"`
	TotalCO2Kg      float64   `json:"total_co2_kg"`
	WastageAvoided  float64   `json:"wastage_avoided"`
	LastUpdated     time.Time `json:"last_updated"`
}

func NewKPIResponse(k domain.KPIs) KPIResponse {
	return KPIResponse{
		TotalMatches:    k.TotalMatches,
		TimeToMatchP50:  k.TimeToMatchP50,
		TimeToMatchP90:  k.TimeToMatchP90,
		MatchRate:       k.MatchRate,
		FillRate:        k.FillRate,
		TotalDistanceKm: k.TotalDistanceKm,
		TotalCO2Kg:      k.TotalCO2Kg,
		WastageAvoided:  k.WastageAvoided,
		LastUpdated:     k.LastUpdated,
	}
}
