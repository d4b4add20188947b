package handlers

import (
	"net/http"

	"food-rescue-service/internal/api/dto"
	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/services"
)

// RouteHandler orchestrates volunteer route planning and stop execution.
type RouteHandler struct {
	Planner      *services.RoutePlanner
	DefaultDepot domain.Depot
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Planner.Store.ListRoutePlans(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(plans))}
	for _, p := range plans {
		res.Routes = append(res.Routes, dto.NewRouteResponse(p, nil))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Planner.Store.GetRoutePlan(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(plan, nil))
}

// Create plans one route. The configured depot is used unless the body names one.
func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRouteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	planned, err := h.Planner.PlanRoute(r.Context(), h.planRequest(req))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, plannedResponse(planned))
}

// CreateBatch plans several routes at once. Either every route is generated or none is.
func (h *RouteHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRoutesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reqs := make([]services.PlanRouteRequest, 0, len(req.Routes))
	for _, rr := range req.Routes {
		reqs = append(reqs, h.planRequest(rr))
	}

	planned, err := h.Planner.PlanRoutes(r.Context(), reqs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListRoutesResponse{Routes: make([]dto.RouteResponse, 0, len(planned))}
	for _, p := range planned {
		res.Routes = append(res.Routes, plannedResponse(p))
	}
	writeJSON(w, r, http.StatusCreated, res)
}

func (h *RouteHandler) UpdateStop(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStopRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	plan, err := h.Planner.UpdateStop(r.Context(), r.PathValue("id"), r.PathValue("stopID"), domain.StopUpdate{
		CheckIn:      req.CheckIn,
		Scanned:      req.Scanned,
		TemperatureC: req.TemperatureC,
		Complete:     req.Complete,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.NewRouteResponse(plan, nil))
}

func (h *RouteHandler) planRequest(req dto.CreateRouteRequest) services.PlanRouteRequest {
	return services.PlanRouteRequest{
		VolunteerID: req.VolunteerID,
		Depot:       req.DepotOr(h.DefaultDepot),
		MatchIDs:    req.MatchIDs,
		StartAt:     req.Start(),
	}
}

func plannedResponse(p *services.PlannedRoute) dto.RouteResponse {
	res := dto.NewRouteResponse(p.Plan, p.ETAs)
	co2 := p.CO2Kg
	res.CO2Kg = &co2
	res.Warnings = p.Warnings
	return res
}
