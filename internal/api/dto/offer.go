package dto

import (
	"time"

	"food-rescue-service/internal/domain"
)

type WindowRequest struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

func (w *WindowRequest) toDomain() domain.TimeWindow {
	var tw domain.TimeWindow
	if w == nil {
		return tw
	}
	if w.Start != nil {
		tw.Start = w.Start.UTC()
	}
	if w.End != nil {
		tw.End = w.End.UTC()
	}
	return tw
}

type WindowResponse struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

func windowResponse(w domain.TimeWindow) *WindowResponse {
	if w.IsZero() {
		return nil
	}
	var res WindowResponse
	if !w.Start.IsZero() {
		s := w.Start
		res.Start = &s
	}
	if !w.End.IsZero() {
		e := w.End
		res.End = &e
	}
	return &res
}

type CreateOfferRequest struct {
	DonorID      string         `json:"donor_id" validate:"required"`
	Title        string         `json:"title" validate:"required,max=200"`
	Category     string         `json:"category" validate:"required,oneof=Produce Bakery Canned Dairy Meat Frozen Other"`
	Quantity     float64        `json:"quantity" validate:"gt=0"`
	Unit         string         `json:"unit" validate:"omitempty,oneof=kg pcs crates"`
	Storage      string         `json:"storage" validate:"required,oneof=Ambient Chilled Frozen"`
	ExpiresAt    time.Time      `json:"expires_at" validate:"required"`
	PickupWindow *WindowRequest `json:"pickup_window"`
	Lat          *float64       `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng          *float64       `json:"lng" validate:"required,gte=-180,lte=180"`
	Address      string         `json:"address" validate:"max=200"`
	PhotoURL     string         `json:"photo_url" validate:"omitempty,url"`
}

// ToDomain assumes the request passed Validate.
func (r CreateOfferRequest) ToDomain() *domain.Offer {
	return &domain.Offer{
		DonorID:      r.DonorID,
		Title:        r.Title,
		Category:     domain.Category(r.Category),
		Quantity:     r.Quantity,
		Unit:         domain.Unit(r.Unit),
		Storage:      domain.Storage(r.Storage),
		ExpiresAt:    r.ExpiresAt.UTC(),
		PickupWindow: r.PickupWindow.toDomain(),
		Location:     domain.LatLng{Lat: *r.Lat, Lng: *r.Lng},
		Address:      r.Address,
		PhotoURL:     r.PhotoURL,
	}
}

type OfferResponse struct {
	ID           string          `json:"id"`
	DonorID      string          `json:"donor_id"`
	Title        string          `json:"title"`
	Category     string          `json:"category"`
	Quantity     float64         `json:"quantity"`
	Unit         string          `json:"unit,omitempty"`
	Storage      string          `json:"storage"`
	ExpiresAt    time.Time       `json:"expires_at"`
	PickupWindow *WindowResponse `json:"pickup_window,omitempty"`
	Lat          float64         `json:"lat"`
	Lng          float64         `json:"lng"`
	Address      string          `json:"address,omitempty"`
	PhotoURL     string          `json:"photo_url,omitempty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

func NewOfferResponse(o *domain.Offer) OfferResponse {
	return OfferResponse{
		ID:           o.ID,
		DonorID:      o.DonorID,
		Title:        o.Title,
		Category:     string(o.Category),
		Quantity:     o.Quantity,
		Unit:         string(o.Unit),
		Storage:      string(o.Storage),
		ExpiresAt:    o.ExpiresAt,
		PickupWindow: windowResponse(o.PickupWindow),
		Lat:          o.Location.Lat,
		Lng:          o.Location.Lng,
		Address:      o.Address,
		PhotoURL:     o.PhotoURL,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
	}
}

type ListOffersResponse struct {
	Offers []OfferResponse `json:"offers"`
}

type ExpireOffersResponse struct {
	Expired int `json:"expired"`
}
