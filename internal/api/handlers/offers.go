package handlers

import (
	"net/http"

	"food-rescue-service/internal/api/dto"
	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/ports"
	"food-rescue-service/internal/services"
)

// OfferHandler exposes donor lot endpoints.
type OfferHandler struct {
	Store ports.Store
	Clock ports.Clock
}

// List returns every offer, optionally filtered by ?status=.
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.OfferStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.OfferAvailable, domain.OfferClaimed, domain.OfferExpired:
	default:
		writeError(w, r, http.StatusBadRequest, "status must be one of: AVAILABLE CLAIMED EXPIRED")
		return
	}

	offers, err := h.Store.ListOffers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListOffersResponse{Offers: make([]dto.OfferResponse, 0, len(offers))}
	for _, o := range offers {
		if status != "" && o.Status != status {
			continue
		}
		res.Offers = append(res.Offers, dto.NewOfferResponse(o))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOfferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	offer := req.ToDomain()
	if err := services.CreateOffer(r.Context(), h.Store, h.Clock, offer); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewOfferResponse(offer))
}

// Expire runs the expiry sweep as of now.
func (h *OfferHandler) Expire(w http.ResponseWriter, r *http.Request) {
	n, err := services.ExpireOffers(r.Context(), h.Store, now(h.Clock))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.ExpireOffersResponse{Expired: n})
}
