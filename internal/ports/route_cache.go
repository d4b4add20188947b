package ports

import (
	"context"

	"food-rescue-service/internal/domain"
)

// Optional cache of generated routes keyed by a digest of the generation input.
type RouteCache interface {
	// Return ok=false on a miss.
	GetRoute(ctx context.Context, key string) (result domain.RouteResult, ok bool, err error)
	PutRoute(ctx context.Context, key string, result domain.RouteResult) error
}
