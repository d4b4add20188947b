package api

import (
	"context"
	"net/http"

	"food-rescue-service/internal/api/handlers"
	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/ports"
	"food-rescue-service/internal/services"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators the HTTP layer needs. Ping is optional.
type Dependencies struct {
	Store   ports.Store
	Planner *services.RoutePlanner
	Matcher services.Matcher
	Clock   ports.Clock
	Depot   domain.Depot
	Ping    func(ctx context.Context) error
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Dependencies) http.Handler {
	mux := http.NewServeMux()

	health := &handlers.HealthHandler{Ping: d.Ping}
	offers := &handlers.OfferHandler{Store: d.Store, Clock: d.Clock}
	needs := &handlers.NeedHandler{Store: d.Store, Matcher: d.Matcher, Clock: d.Clock}
	matches := &handlers.MatchHandler{Store: d.Store, Matcher: d.Matcher, Clock: d.Clock}
	routes := &handlers.RouteHandler{Planner: d.Planner, DefaultDepot: d.Depot}
	kpis := &handlers.KPIHandler{Store: d.Store, Clock: d.Clock}

	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /offers", offers.List)
	mux.HandleFunc("POST /offers", offers.Create)
	mux.HandleFunc("POST /offers/expire", offers.Expire)

	mux.HandleFunc("GET /needs", needs.List)
	mux.HandleFunc("POST /needs", needs.Create)
	mux.HandleFunc("GET /needs/{id}/ranked-offers", needs.RankedOffers)

	mux.HandleFunc("GET /matches", matches.List)
	mux.HandleFunc("POST /matches", matches.Create)
	mux.HandleFunc("POST /matches/{id}/approve", matches.Approve)
	mux.HandleFunc("POST /matches/{id}/cancel", matches.Cancel)

	mux.HandleFunc("GET /routes", routes.List)
	mux.HandleFunc("POST /routes", routes.Create)
	mux.HandleFunc("POST /routes/batch", routes.CreateBatch)
	mux.HandleFunc("GET /routes/{id}", routes.Get)
	mux.HandleFunc("PATCH /routes/{id}/stops/{stopID}", routes.UpdateStop)

	mux.HandleFunc("GET /kpis", kpis.Get)

	return loggingMiddleware(mux)
}
