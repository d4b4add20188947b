package ports

import (
	"context"
	"time"

	"food-rescue-service/internal/domain"
)

// Port: a boundary for storing route plans.
type RoutePlanRepository interface {
	// Persist a new plan and the matches it routed, atomically.
	// Fail with domain.ErrInvalidTransition when a match was routed by someone else first.
	CreateRoutePlan(ctx context.Context, plan *domain.RoutePlan, routed []*domain.Match) error
	// Return domain.ErrNotFound when no plan has the id.
	GetRoutePlan(ctx context.Context, id string) (*domain.RoutePlan, error)
	ListRoutePlans(ctx context.Context) ([]*domain.RoutePlan, error)
	// Apply upd to one stop at time at. Fail with domain.ErrStopStateFinal, writing nothing,
	// when a reported field is already set. Once no stop of the plan is left open, its ROUTED
	// matches become COMPLETED in the same write. Return how many matches were completed.
	UpdateStop(ctx context.Context, planID, stopID string, upd domain.StopUpdate, at time.Time) (int, error)
}

// Store is the full persistence boundary used by the API composition root.
type Store interface {
	OfferRepository
	NeedRepository
	MatchRepository
	RoutePlanRepository
}
