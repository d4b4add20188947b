package ports

import (
	"context"
	"time"

	"food-rescue-service/internal/domain"
)

// Port: a boundary for storing donated lots.
type OfferRepository interface {
	CreateOffer(ctx context.Context, offer *domain.Offer) error
	// Return domain.ErrNotFound when no offer has the id.
	GetOffer(ctx context.Context, id string) (*domain.Offer, error)
	ListOffers(ctx context.Context) ([]*domain.Offer, error)
	// Set status EXPIRED when the offer is not already expired and its expiry is at or
	// before asOf. Nothing else is written. Report whether the status changed;
	// an unknown id changes nothing.
	ExpireOffer(ctx context.Context, id string, asOf time.Time) (bool, error)
}
