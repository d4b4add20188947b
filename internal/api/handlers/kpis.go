package handlers

import (
	"net/http"

	"food-rescue-service/internal/api/dto"
	"food-rescue-service/internal/ports"
	"food-rescue-service/internal/services"
)

type KPIHandler struct {
	Store ports.Store
	Clock ports.Clock
}

func (h *KPIHandler) Get(w http.ResponseWriter, r *http.Request) {
	k, err := services.LoadKPIs(r.Context(), h.Store, now(h.Clock))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewKPIResponse(k))
}
