package dto

import (
	"time"

	"food-rescue-service/internal/domain"
)

type CreateMatchRequest struct {
	OfferID  string  `json:"offer_id" validate:"required"`
	NeedID   string  `json:"need_id" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

type ApproveMatchRequest struct {
	ApprovedBy string `json:"approved_by" validate:"required"`
}

type MatchResponse struct {
	ID            string    `json:"id"`
	OfferID       string    `json:"offer_id"`
	NeedID        string    `json:"need_id"`
	Quantity      float64   `json:"quantity"`
	Status        string    `json:"status"`
	ApprovedBy    string    `json:"approved_by,omitempty"`
	VolunteerID   string    `json:"volunteer_id,omitempty"`
	PickupStopID  string    `json:"pickup_stop_id,omitempty"`
	DropoffStopID string    `json:"dropoff_stop_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewMatchResponse(m *domain.Match) MatchResponse {
	return MatchResponse{
		ID:            m.ID,
		OfferID:       m.OfferID,
		NeedID:        m.NeedID,
		Quantity:      m.Quantity,
		Status:        string(m.Status),
		ApprovedBy:    m.ApprovedBy,
		VolunteerID:   m.VolunteerID,
		PickupStopID:  m.PickupStopID,
		DropoffStopID: m.DropoffStopID,
		CreatedAt:     m.CreatedAt,
	}
}

type ListMatchesResponse struct {
	Matches []MatchResponse `json:"matches"`
}
