package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/platform/obs"
	"food-rescue-service/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultPlanConcurrency = 4

// RoutePlanner turns approved matches into persisted volunteer route plans.
// Cache is optional.
type RoutePlanner struct {
	Generator   RouteGenerator
	Cache       ports.RouteCache
	Store       ports.Store
	Clock       ports.Clock
	Concurrency int
}

type PlanRouteRequest struct {
	VolunteerID string
	Depot       domain.Depot
	MatchIDs    []string
	// Zero means now.
	StartAt time.Time
}

// PlannedRoute is a stored plan plus the generation details that are not persisted.
type PlannedRoute struct {
	Plan     *domain.RoutePlan
	ETAs     []time.Time
	CO2Kg    float64
	Warnings []string
}

// pending is a generated but not yet persisted plan.
type pending struct {
	plan    *domain.RoutePlan
	matches []*domain.Match
	result  domain.RouteResult
}

// PlanRoute expands the requested matches into pickup and dropoff stops, orders them,
// and stores the plan with the matches marked ROUTED.
//
// Pickups are grouped per offer and dropoffs per need, so several matches from
// one donor cost a single stop.
func (p *RoutePlanner) PlanRoute(ctx context.Context, req PlanRouteRequest) (_ *PlannedRoute, err error) {
	defer obs.Time(ctx, "routes.Plan")(&err)

	pd, err := p.prepare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}
	if err := p.persist(ctx, pd); err != nil {
		return nil, fmt.Errorf("plan route: %w", err)
	}
	return pd.planned(), nil
}

// prepare loads and checks matches, generates the route and builds the plan without storing anything.
func (p *RoutePlanner) prepare(ctx context.Context, req PlanRouteRequest) (*pending, error) {
	if req.VolunteerID == "" {
		return nil, &domain.ValidationError{Field: "volunteer_id", Reason: "must be non-empty"}
	}
	if len(req.MatchIDs) == 0 {
		return nil, &domain.ValidationError{Field: "match_ids", Reason: "at least one match is required"}
	}
	if err := req.Depot.Location.Validate(); err != nil {
		return nil, fmt.Errorf("depot: %w", err)
	}

	seen := make(map[string]struct{}, len(req.MatchIDs))
	matches := make([]*domain.Match, 0, len(req.MatchIDs))
	for _, id := range req.MatchIDs {
		if _, dup := seen[id]; dup {
			return nil, &domain.ValidationError{Field: "match_ids", Reason: fmt.Sprintf("match %s listed twice", id)}
		}
		seen[id] = struct{}{}

		m, err := p.Store.GetMatch(ctx, id)
		if err != nil {
			return nil, err
		}
		if !m.Routable() {
			return nil, fmt.Errorf("match %s: status=%s approved=%t volunteer=%q: %w",
				m.ID, m.Status, m.ApprovedBy != "", m.VolunteerID, domain.ErrInvalidTransition)
		}
		matches = append(matches, m)
	}

	stops, err := p.stopRequests(ctx, matches)
	if err != nil {
		return nil, err
	}

	startAt := req.StartAt
	if startAt.IsZero() {
		startAt = clockOrSystem(p.Clock).Now()
	}

	result, err := p.generate(ctx, req.Depot.Location, stops, startAt)
	if err != nil {
		return nil, err
	}

	plan := &domain.RoutePlan{
		ID:           uuid.NewString(),
		VolunteerID:  req.VolunteerID,
		Depot:        req.Depot,
		Stops:        make([]domain.Stop, 0, len(result.OrderedStops)),
		TotalKm:      result.TotalKm,
		TotalMinutes: result.TotalMinutes,
		CreatedAt:    clockOrSystem(p.Clock).Now(),
	}

	pickupOf := make(map[string]string, len(matches))
	dropoffOf := make(map[string]string, len(matches))
	for i, sr := range result.OrderedStops {
		stop := domain.Stop{
			ID:          uuid.NewString(),
			PlanID:      plan.ID,
			Seq:         i + 1,
			StopRequest: sr,
		}
		for _, mid := range sr.MatchIDs {
			if sr.Kind == domain.StopPickup {
				pickupOf[mid] = stop.ID
			} else {
				dropoffOf[mid] = stop.ID
			}
		}
		plan.Stops = append(plan.Stops, stop)
	}

	for _, m := range matches {
		if err := m.Route(req.VolunteerID, pickupOf[m.ID], dropoffOf[m.ID]); err != nil {
			return nil, err
		}
	}

	return &pending{plan: plan, matches: matches, result: result}, nil
}

// stopRequests builds one pickup per offer and one dropoff per need and storage class.
func (p *RoutePlanner) stopRequests(ctx context.Context, matches []*domain.Match) ([]domain.StopRequest, error) {
	type dropoffKey struct {
		needID string
		cold   bool
	}

	var stops []domain.StopRequest
	pickupIdx := make(map[string]int)
	dropoffIdx := make(map[dropoffKey]int)
	offers := make(map[string]*domain.Offer)
	needs := make(map[string]*domain.Need)

	for _, m := range matches {
		offer, ok := offers[m.OfferID]
		if !ok {
			o, err := p.Store.GetOffer(ctx, m.OfferID)
			if err != nil {
				return nil, fmt.Errorf("match %s: %w", m.ID, err)
			}
			offer, offers[m.OfferID] = o, o
		}
		need, ok := needs[m.NeedID]
		if !ok {
			n, err := p.Store.GetNeed(ctx, m.NeedID)
			if err != nil {
				return nil, fmt.Errorf("match %s: %w", m.ID, err)
			}
			need, needs[m.NeedID] = n, n
		}

		cold := offer.Storage.NeedsColdChain()

		if i, ok := pickupIdx[offer.ID]; ok {
			stops[i].MatchIDs = append(stops[i].MatchIDs, m.ID)
		} else {
			pickupIdx[offer.ID] = len(stops)
			stops = append(stops, domain.StopRequest{
				Kind:      domain.StopPickup,
				Location:  offer.Location,
				Name:      stopName("Pickup", offer.Title, offer.ID),
				Address:   offer.Address,
				Window:    offer.PickupWindow,
				ColdChain: cold,
				MatchIDs:  []string{m.ID},
			})
		}

		key := dropoffKey{needID: need.ID, cold: cold}
		if i, ok := dropoffIdx[key]; ok {
			stops[i].MatchIDs = append(stops[i].MatchIDs, m.ID)
		} else {
			dropoffIdx[key] = len(stops)
			stops = append(stops, domain.StopRequest{
				Kind:      domain.StopDropoff,
				Location:  need.Location,
				Name:      stopName("Dropoff", need.BeneficiaryID, need.ID),
				Address:   need.Address,
				ColdChain: cold,
				MatchIDs:  []string{m.ID},
			})
		}
	}

	return stops, nil
}

// generate runs the generator behind the optional cache. Cache failures are logged and ignored.
func (p *RoutePlanner) generate(ctx context.Context, depot domain.LatLng, stops []domain.StopRequest, startAt time.Time) (domain.RouteResult, error) {
	if p.Cache == nil {
		obs.RoutesGeneratedTotal.WithLabelValues("disabled").Inc()
		return p.generateAndObserve(depot, stops, startAt)
	}

	key, err := p.cacheKey(depot, stops, startAt)
	if err != nil {
		return domain.RouteResult{}, err
	}

	cached, ok, err := p.Cache.GetRoute(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("req_id", obs.RequestID(ctx)).Msg("route cache get failed")
	}
	if ok {
		obs.RoutesGeneratedTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}

	obs.RoutesGeneratedTotal.WithLabelValues("miss").Inc()
	res, err := p.generateAndObserve(depot, stops, startAt)
	if err != nil {
		return domain.RouteResult{}, err
	}
	if err := p.Cache.PutRoute(ctx, key, res); err != nil {
		log.Warn().Err(err).Str("req_id", obs.RequestID(ctx)).Msg("route cache put failed")
	}
	return res, nil
}

func (p *RoutePlanner) generateAndObserve(depot domain.LatLng, stops []domain.StopRequest, startAt time.Time) (domain.RouteResult, error) {
	res, err := p.Generator.Generate(depot, stops, startAt)
	if err != nil {
		return domain.RouteResult{}, err
	}

	cold := len(ValidateColdChain(res.OrderedStops))
	obs.RouteStops.Observe(float64(len(res.OrderedStops)))
	obs.RouteWarningsTotal.WithLabelValues("cold_chain").Add(float64(cold))
	obs.RouteWarningsTotal.WithLabelValues("time_window").Add(float64(len(res.Warnings) - cold))
	return res, nil
}

// cacheKey digests everything the generated route depends on.
func (p *RoutePlanner) cacheKey(depot domain.LatLng, stops []domain.StopRequest, startAt time.Time) (string, error) {
	b, err := json.Marshal(struct {
		Depot       domain.LatLng
		Stops       []domain.StopRequest
		StartAt     time.Time
		SpeedKmh    float64
		ServiceTime time.Duration
		MaxSweeps   int
	}{depot, stops, startAt.UTC(), p.Generator.speed(), p.Generator.serviceTime(), p.Generator.MaxSweeps})
	if err != nil {
		return "", fmt.Errorf("route cache key: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

func (p *RoutePlanner) persist(ctx context.Context, pd *pending) error {
	if err := p.Store.CreateRoutePlan(ctx, pd.plan, pd.matches); err != nil {
		return fmt.Errorf("save plan %s: %w", pd.plan.ID, err)
	}

	log.Info().
		Str("req_id", obs.RequestID(ctx)).
		Str("plan_id", pd.plan.ID).
		Str("volunteer_id", pd.plan.VolunteerID).
		Int("stops", len(pd.plan.Stops)).
		Float64("total_km", pd.plan.TotalKm).
		Int("warnings", len(pd.result.Warnings)).
		Msg("route plan created")
	return nil
}

func (pd *pending) planned() *PlannedRoute {
	return &PlannedRoute{
		Plan:     pd.plan,
		ETAs:     pd.result.ETAs,
		CO2Kg:    pd.result.CO2Kg,
		Warnings: pd.result.Warnings,
	}
}

func stopName(kind, label, id string) string {
	if label == "" {
		label = id
	}
	return kind + " " + label
}
