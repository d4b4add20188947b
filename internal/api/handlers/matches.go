package handlers

import (
	"net/http"

	"food-rescue-service/internal/api/dto"
	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/ports"
	"food-rescue-service/internal/services"
)

// MatchHandler exposes claim, approval and cancellation of matches.
type MatchHandler struct {
	Store   ports.Store
	Matcher services.Matcher
	Clock   ports.Clock
}

// List returns every match, optionally filtered by ?status=.
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.MatchStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.MatchPendingPickup, domain.MatchRouted, domain.MatchCompleted, domain.MatchCancelled:
	default:
		writeError(w, r, http.StatusBadRequest, "status must be one of: PENDING_PICKUP ROUTED COMPLETED CANCELLED")
		return
	}

	matches, err := h.Store.ListMatches(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListMatchesResponse{Matches: make([]dto.MatchResponse, 0, len(matches))}
	for _, m := range matches {
		if status != "" && m.Status != status {
			continue
		}
		res.Matches = append(res.Matches, dto.NewMatchResponse(m))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Create claims part of an offer for a need.
func (h *MatchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := services.ClaimOffer(r.Context(), h.Store, h.Matcher, h.Clock, services.ClaimRequest{
		OfferID:  req.OfferID,
		NeedID:   req.NeedID,
		Quantity: req.Quantity,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, dto.NewMatchResponse(m))
}

func (h *MatchHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req dto.ApproveMatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := services.ApproveMatch(r.Context(), h.Store, r.PathValue("id"), req.ApprovedBy)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewMatchResponse(m))
}

func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	m, err := services.CancelMatch(r.Context(), h.Store, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewMatchResponse(m))
}
