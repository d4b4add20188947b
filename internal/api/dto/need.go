package dto

import (
	"time"

	"food-rescue-service/internal/domain"
)

type CreateNeedRequest struct {
	BeneficiaryID     string   `json:"beneficiary_id" validate:"required"`
	Category          string   `json:"category" validate:"required,oneof=Produce Bakery Canned Dairy Meat Frozen Other"`
	MinQuantity       float64  `json:"min_quantity" validate:"gte=0"`
	Urgency           string   `json:"urgency" validate:"required,oneof=Low Medium High"`
	AcceptedStorage   []string `json:"accepted_storage" validate:"required,min=1,unique,dive,oneof=Ambient Chilled Frozen"`
	DeliveryPreferred bool     `json:"delivery_preferred"`
	Lat               *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng               *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Address           string   `json:"address" validate:"max=200"`
}

func (r CreateNeedRequest) ToDomain() *domain.Need {
	storage := make([]domain.Storage, 0, len(r.AcceptedStorage))
	for _, s := range r.AcceptedStorage {
		storage = append(storage, domain.Storage(s))
	}
	return &domain.Need{
		BeneficiaryID:     r.BeneficiaryID,
		Category:          domain.Category(r.Category),
		MinQuantity:       r.MinQuantity,
		Urgency:           domain.Urgency(r.Urgency),
		AcceptedStorage:   storage,
		DeliveryPreferred: r.DeliveryPreferred,
		Location:          domain.LatLng{Lat: *r.Lat, Lng: *r.Lng},
		Address:           r.Address,
	}
}

type NeedResponse struct {
	ID                string    `json:"id"`
	BeneficiaryID     string    `json:"beneficiary_id"`
	Category          string    `json:"category"`
	MinQuantity       float64   `json:"min_quantity"`
	Urgency           string    `json:"urgency"`
	AcceptedStorage   []string  `json:"accepted_storage"`
	DeliveryPreferred bool      `json:"delivery_preferred"`
	Lat               float64   `json:"lat"`
	Lng               float64   `json:"lng"`
	Address           string    `json:"address,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func NewNeedResponse(n *domain.Need) NeedResponse {
	storage := make([]string, 0, len(n.AcceptedStorage))
	for _, s := range n.AcceptedStorage {
		storage = append(storage, string(s))
	}
	return NeedResponse{
		ID:                n.ID,
		BeneficiaryID:     n.BeneficiaryID,
		Category:          string(n.Category),
		MinQuantity:       n.MinQuantity,
		Urgency:           string(n.Urgency),
		AcceptedStorage:   storage,
		DeliveryPreferred: n.DeliveryPreferred,
		Lat:               n.Location.Lat,
		Lng:               n.Location.Lng,
		Address:           n.Address,
		CreatedAt:         n.CreatedAt,
	}
}

type ListNeedsResponse struct {
	Needs []NeedResponse `json:"needs"`
}

type BreakdownResponse struct {
	Expiry   float64 `json:"expiry"`
	Distance float64 `json:"distance"`
	Urgency  float64 `json:"urgency"`
	Surplus  float64 `json:"surplus"`
}

type RankedOfferResponse struct {
	Offer     OfferResponse     `json:"offer"`
	Score     float64           `json:"score"`
	Tags      []string          `json:"tags"`
	Breakdown BreakdownResponse `json:"breakdown"`
	Summary   string            `json:"summary"`
}

func NewRankedOfferResponse(r domain.RankedOffer, summary string) RankedOfferResponse {
	b := r.Explanation.Breakdown
	return RankedOfferResponse{
		Offer: NewOfferResponse(&r.Offer),
		Score: r.Explanation.Score,
		Tags:  r.Explanation.Tags,
		Breakdown: BreakdownResponse{
			Expiry:   b.ExpiryScore,
			Distance: b.DistanceScore,
			Urgency:  b.UrgencyScore,
			Surplus:  b.SurplusScore,
		},
		Summary: summary,
	}
}

type RankedOffersResponse struct {
	NeedID string                `json:"need_id"`
	AsOf   time.Time             `json:"as_of"`
	Offers []RankedOfferResponse `json:"offers"`
}
