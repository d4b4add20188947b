package ports

import (
	"context"

	"food-rescue-service/internal/domain"
)

// Port: a boundary for storing recipient requests.
type NeedRepository interface {
	CreateNeed(ctx context.Context, need *domain.Need) error
	// Return domain.ErrNotFound when no need has the id.
	GetNeed(ctx context.Context, id string) (*domain.Need, error)
	ListNeeds(ctx context.Context) ([]*domain.Need, error)
}
