package services

import (
	"context"
	"fmt"
	"math"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/platform/obs"

	"github.com/rs/zerolog/log"
)

// UpdateStop records stop execution. Once every stop of the plan is complete, the
// plan's matches become COMPLETED in the same write.
func (p *RoutePlanner) UpdateStop(ctx context.Context, planID, stopID string, upd domain.StopUpdate) (_ *domain.RoutePlan, err error) {
	defer obs.Time(ctx, "routes.UpdateStop")(&err)

	if upd.Empty() {
		return nil, fmt.Errorf("update stop: %w", &domain.ValidationError{Field: "update", Reason: "nothing to record"})
	}
	if t := upd.TemperatureC; t != nil && (math.IsNaN(*t) || math.IsInf(*t, 0)) {
		return nil, fmt.Errorf("update stop: %w", &domain.ValidationError{Field: "temperature_c", Reason: "must be finite"})
	}

	plan, err := p.Store.GetRoutePlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("update stop: %w", err)
	}
	stop, ok := plan.FindStop(stopID)
	if !ok {
		return nil, fmt.Errorf("update stop: plan %s stop %s: %w", planID, stopID, domain.ErrNotFound)
	}

	completed, err := p.Store.UpdateStop(ctx, planID, stopID, upd, clockOrSystem(p.Clock).Now())
	if err != nil {
		return nil, fmt.Errorf("update stop: save stop %s: %w", stopID, err)
	}

	if t := upd.TemperatureC; t != nil && stop.ColdChain && *t > 5 {
		log.Warn().
			Str("plan_id", planID).
			Str("stop_id", stopID).
			Float64("temperature_c", *t).
			Msg("cold chain temperature above 5C")
	}
	if completed > 0 {
		log.Info().
			Str("req_id", obs.RequestID(ctx)).
			Str("plan_id", planID).
			Int("matches_completed", completed).
			Msg("route plan done")
	}

	plan, err = p.Store.GetRoutePlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("update stop: reload plan: %w", err)
	}
	return plan, nil
}
