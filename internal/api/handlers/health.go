package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthHandler reports liveness and, when Ping is set, storage readiness.
type HealthHandler struct {
	Ping func(ctx context.Context) error
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.Ping(ctx); err != nil {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	res := map[string]string{"status": "ok"}
	writeJSON(w, r, http.StatusOK, res)
}
