package ports

import (
	"context"

	"food-rescue-service/internal/domain"
)

// Port: a boundary for storing matches.
type MatchRepository interface {
	// Persist a new match together with the offer it decremented, atomically.
	// Fail with domain.ErrInsufficientQuantity when the stored offer no longer has the quantity.
	SaveClaim(ctx context.Context, offer *domain.Offer, match *domain.Match) error
	// Persist a cancelled match together with the offer it released to, atomically.
	SaveRelease(ctx context.Context, offer *domain.Offer, match *domain.Match) error
	// Return domain.ErrNotFound when no match has the id.
	GetMatch(ctx context.Context, id string) (*domain.Match, error)
	ListMatches(ctx context.Context) ([]*domain.Match, error)
	UpdateMatch(ctx context.Context, match *domain.Match) error
}
