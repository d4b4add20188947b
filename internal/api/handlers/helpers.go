package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"food-rescue-service/internal/api/dto"
	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/platform/obs"

	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().
			Str("req_id", obs.RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Err(err).
			Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object into dst and validates it.
// It writes the 400 response itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	if err := dto.Validate(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// writeServiceError maps domain errors onto HTTP statuses. Unexpected errors are
// logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		writeError(w, r, http.StatusBadRequest, verr.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrIneligible),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyApproved),
		errors.Is(err, domain.ErrInsufficientQuantity),
		errors.Is(err, domain.ErrStopStateFinal):
		writeError(w, r, http.StatusConflict, err.Error())
	default:
		log.Error().
			Str("req_id", obs.RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Err(err).
			Msg("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
