package handlers

import (
	"net/http"
	"time"

	"food-rescue-service/internal/api/dto"
	"food-rescue-service/internal/ports"
	"food-rescue-service/internal/services"
)

type NeedHandler struct {
	Store   ports.Store
	Matcher services.Matcher
	Clock   ports.Clock
}

func (h *NeedHandler) List(w http.ResponseWriter, r *http.Request) {
	needs, err := h.Store.ListNeeds(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListNeedsResponse{Needs: make([]dto.NeedResponse, 0, len(needs))}
	for _, n := range needs {
		res.Needs = append(res.Needs, dto.NewNeedResponse(n))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *NeedHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateNeedRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	need := req.ToDomain()
	if err := services.CreateNeed(r.Context(), h.Store, h.Clock, need); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewNeedResponse(need))
}

// RankedOffers ranks every offer for the need in the path, best first.
// ?as_of= (RFC 3339) scores against another instant; the default is now.
func (h *NeedHandler) RankedOffers(w http.ResponseWriter, r *http.Request) {
	asOf := now(h.Clock)
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "as_of must be an RFC 3339 timestamp")
			return
		}
		asOf = t.UTC()
	}

	needID := r.PathValue("id")
	ranked, err := services.RankForNeed(r.Context(), h.Store, h.Store, h.Matcher, needID, asOf)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.RankedOffersResponse{
		NeedID: needID,
		AsOf:   asOf,
		Offers: make([]dto.RankedOfferResponse, 0, len(ranked)),
	}
	for _, ro := range ranked {
		res.Offers = append(res.Offers, dto.NewRankedOfferResponse(ro, services.FormatBreakdown(ro.Explanation)))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func now(c ports.Clock) time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c.Now()
}
