package services

import (
	"context"
	"fmt"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/platform/obs"

	"golang.org/x/sync/errgroup"
)

// PlanRoutes plans several volunteer routes in one call.
//
// Requests are generated concurrently and then stored in request order. A match may
// appear in only one request. When storing fails, plans stored before the failure are kept.
func (p *RoutePlanner) PlanRoutes(ctx context.Context, reqs []PlanRouteRequest) (_ []*PlannedRoute, err error) {
	defer obs.Time(ctx, "routes.PlanBatch")(&err)

	owner := make(map[string]int)
	for i, r := range reqs {
		for _, id := range r.MatchIDs {
			if j, ok := owner[id]; ok && j != i {
				return nil, fmt.Errorf("plan routes: %w", &domain.ValidationError{
					Field:  "match_ids",
					Reason: fmt.Sprintf("match %s requested by routes %d and %d", id, j+1, i+1),
				})
			}
			owner[id] = i
		}
	}

	prepared := make([]*pending, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency())
	for i, r := range reqs {
		g.Go(func() error {
			pd, err := p.prepare(gctx, r)
			if err != nil {
				return fmt.Errorf("route %d for volunteer %q: %w", i+1, r.VolunteerID, err)
			}
			prepared[i] = pd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("plan routes: %w", err)
	}

	planned := make([]*PlannedRoute, 0, len(prepared))
	for i, pd := range prepared {
		if err := p.persist(ctx, pd); err != nil {
			return planned, fmt.Errorf("plan routes: route %d: %w", i+1, err)
		}
		planned = append(planned, pd.planned())
	}
	return planned, nil
}

func (p *RoutePlanner) concurrency() int {
	if p.Concurrency <= 0 {
		return defaultPlanConcurrency
	}
	return p.Concurrency
}
