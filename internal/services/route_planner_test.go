package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"food-rescue-service/internal/adapters/repositories"
	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var depot = domain.Depot{Name: "Jurong Hub", Location: domain.LatLng{Lat: 1.3329, Lng: 103.7436}}

type mapCache struct {
	mu   sync.Mutex
	data map[string]domain.RouteResult
	gets int
}

func (c *mapCache) GetRoute(_ context.Context, key string) (domain.RouteResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	r, ok := c.data[key]
	return r, ok, nil
}

func (c *mapCache) PutRoute(_ context.Context, key string, r domain.RouteResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string]domain.RouteResult)
	}
	c.data[key] = r
	return nil
}

type fixture struct {
	store   *repositories.MemoryStore
	clock   ports.Clock
	planner *RoutePlanner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore()
	clock := ports.FixedClock(asOf)
	return &fixture{
		store:   store,
		clock:   clock,
		planner: &RoutePlanner{Store: store, Clock: clock},
	}
}

func (f *fixture) offer(t *testing.T, storage domain.Storage, qty float64, loc domain.LatLng) *domain.Offer {
	t.Helper()
	o := &domain.Offer{
		DonorID:   "donor-1",
		Title:     "Lot",
		Category:  domain.CategoryProduce,
		Quantity:  qty,
		Unit:      domain.UnitKg,
		Storage:   storage,
		ExpiresAt: asOf.Add(36 * time.Hour),
		Location:  loc,
	}
	require.NoError(t, CreateOffer(context.Background(), f.store, f.clock, o))
	return o
}

func (f *fixture) need(t *testing.T, loc domain.LatLng) *domain.Need {
	t.Helper()
	n := testNeed()
	n.ID = ""
	n.AcceptedStorage = []domain.Storage{domain.StorageAmbient, domain.StorageChilled, domain.StorageFrozen}
	n.Location = loc
	require.NoError(t, CreateNeed(context.Background(), f.store, f.clock, n))
	return n
}

// approvedMatch claims qty of offer for need and approves it.
func (f *fixture) approvedMatch(t *testing.T, offer *domain.Offer, need *domain.Need, qty float64) *domain.Match {
	t.Helper()
	ctx := context.Background()
	m, err := ClaimOffer(ctx, f.store, Matcher{}, f.clock, ClaimRequest{OfferID: offer.ID, NeedID: need.ID, Quantity: qty})
	require.NoError(t, err)
	m, err = ApproveMatch(ctx, f.store, m.ID, "ops-1")
	require.NoError(t, err)
	return m
}

func TestRoutePlannerPlanRoute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tampines := domain.LatLng{Lat: 1.3496, Lng: 103.9568}
	woodlands := domain.LatLng{Lat: 1.4382, Lng: 103.7890}
	shelter := domain.LatLng{Lat: 1.3000, Lng: 103.8000}

	chilled := f.offer(t, domain.StorageChilled, 20, tampines)
	ambient := f.offer(t, domain.StorageAmbient, 20, woodlands)
	need := f.need(t, shelter)

	m1 := f.approvedMatch(t, chilled, need, 5)
	m2 := f.approvedMatch(t, chilled, need, 5)
	m3 := f.approvedMatch(t, ambient, need, 5)

	planned, err := f.planner.PlanRoute(ctx, PlanRouteRequest{
		VolunteerID: "vol-1",
		Depot:       depot,
		MatchIDs:    []string{m1.ID, m2.ID, m3.ID},
		StartAt:     asOf,
	})
	require.NoError(t, err)

	plan := planned.Plan
	// One pickup per offer, one dropoff per need and storage class.
	require.Len(t, plan.Stops, 4)
	require.Len(t, planned.ETAs, 4)
	assert.Equal(t, domain.PlanAssigned, plan.Status())
	assert.Greater(t, plan.TotalKm, 0.0)
	assert.Greater(t, plan.TotalMinutes, 0)

	for i, s := range plan.Stops {
		assert.Equal(t, i+1, s.Seq)
		assert.Equal(t, plan.ID, s.PlanID)
		assert.NotEmpty(t, s.ID)
	}

	stored, err := f.store.GetRoutePlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Stops, 4)

	for _, id := range []string{m1.ID, m2.ID, m3.ID} {
		m, err := f.store.GetMatch(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.MatchRouted, m.Status)
		assert.Equal(t, "vol-1", m.VolunteerID)

		pickup, ok := stored.FindStop(m.PickupStopID)
		require.True(t, ok)
		assert.Equal(t, domain.StopPickup, pickup.Kind)
		assert.Contains(t, pickup.MatchIDs, id)

		dropoff, ok := stored.FindStop(m.DropoffStopID)
		require.True(t, ok)
		assert.Equal(t, domain.StopDropoff, dropoff.Kind)
		assert.Contains(t, dropoff.MatchIDs, id)
		assert.Equal(t, pickup.ColdChain, dropoff.ColdChain)
	}

	m, err := f.store.GetMatch(ctx, m1.ID)
	require.NoError(t, err)
	pickup, _ := stored.FindStop(m.PickupStopID)
	assert.True(t, pickup.ColdChain)
	assert.ElementsMatch(t, []string{m1.ID, m2.ID}, pickup.MatchIDs)

	// Routed matches cannot be planned again.
	_, err = f.planner.PlanRoute(ctx, PlanRouteRequest{VolunteerID: "vol-2", Depot: depot, MatchIDs: []string{m1.ID}})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRoutePlannerRejectsBadRequests(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	offer := f.offer(t, domain.StorageAmbient, 10, domain.LatLng{Lat: 1.35, Lng: 103.9})
	need := f.need(t, domain.LatLng{Lat: 1.30, Lng: 103.8})

	unapproved, err := ClaimOffer(ctx, f.store, Matcher{}, f.clock, ClaimRequest{OfferID: offer.ID, NeedID: need.ID, Quantity: 2})
	require.NoError(t, err)
	approved := f.approvedMatch(t, offer, need, 2)

	tests := []struct {
		name string
		req  PlanRouteRequest
		err  error
	}{
		{"no volunteer", PlanRouteRequest{Depot: depot, MatchIDs: []string{approved.ID}}, domain.ErrInvalidInput},
		{"no matches", PlanRouteRequest{VolunteerID: "v", Depot: depot}, domain.ErrInvalidInput},
		{"duplicate match", PlanRouteRequest{VolunteerID: "v", Depot: depot, MatchIDs: []string{approved.ID, approved.ID}}, domain.ErrInvalidInput},
		{"bad depot", PlanRouteRequest{VolunteerID: "v", Depot: domain.Depot{Location: domain.LatLng{Lat: 100}}, MatchIDs: []string{approved.ID}}, domain.ErrInvalidInput},
		{"unknown match", PlanRouteRequest{VolunteerID: "v", Depot: depot, MatchIDs: []string{"missing"}}, domain.ErrNotFound},
		{"unapproved match", PlanRouteRequest{VolunteerID: "v", Depot: depot, MatchIDs: []string{unapproved.ID}}, domain.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.planner.PlanRoute(ctx, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	plans, err := f.store.ListRoutePlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)

	m, err := f.store.GetMatch(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.MatchPendingPickup, m.Status)
}

func TestRoutePlannerUsesCache(t *testing.T) {
	ctx := context.Background()
	first := newFixture(t)
	cache := &mapCache{}
	first.planner.Cache = cache

	offer := first.offer(t, domain.StorageAmbient, 10, domain.LatLng{Lat: 1.35, Lng: 103.9})
	need := first.need(t, domain.LatLng{Lat: 1.30, Lng: 103.8})
	m := first.approvedMatch(t, offer, need, 2)

	stops, err := first.planner.stopRequests(ctx, []*domain.Match{m})
	require.NoError(t, err)

	r1, err := first.planner.generate(ctx, depot.Location, stops, asOf)
	require.NoError(t, err)
	assert.Len(t, cache.data, 1)

	r2, err := first.planner.generate(ctx, depot.Location, stops, asOf)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
	assert.Equal(t, 2, cache.gets)
	assert.Len(t, cache.data, 1)

	_, err = first.planner.generate(ctx, depot.Location, stops, asOf.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, cache.data, 2, "start time is part of the key")
}

func TestPlanRoutesConcurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.planner.Concurrency = 2

	need := f.need(t, domain.LatLng{Lat: 1.30, Lng: 103.8})
	var reqs []PlanRouteRequest
	for i := 0; i < 5; i++ {
		o := f.offer(t, domain.StorageAmbient, 10, domain.LatLng{Lat: 1.31 + float64(i)*0.02, Lng: 103.85})
		m := f.approvedMatch(t, o, need, 1)
		reqs = append(reqs, PlanRouteRequest{VolunteerID: "vol", Depot: depot, MatchIDs: []string{m.ID}, StartAt: asOf})
	}

	planned, err := f.planner.PlanRoutes(ctx, reqs)
	require.NoError(t, err)
	require.Len(t, planned, 5)
	for i, p := range planned {
		require.Len(t, p.Plan.Stops, 2)
		assert.Equal(t, reqs[i].MatchIDs, p.Plan.MatchIDs())
	}

	plans, err := f.store.ListRoutePlans(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 5)
}

func TestPlanRoutesRejectsSharedMatches(t *testing.T) {
	f := newFixture(t)
	req := PlanRouteRequest{VolunteerID: "v", Depot: depot, MatchIDs: []string{"m-1"}}

	_, err := f.planner.PlanRoutes(context.Background(), []PlanRouteRequest{req, req})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlanRoutesFailsAsAWhole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	o := f.offer(t, domain.StorageAmbient, 10, domain.LatLng{Lat: 1.35, Lng: 103.9})
	n := f.need(t, domain.LatLng{Lat: 1.30, Lng: 103.8})
	m := f.approvedMatch(t, o, n, 1)

	_, err := f.planner.PlanRoutes(ctx, []PlanRouteRequest{
		{VolunteerID: "v", Depot: depot, MatchIDs: []string{m.ID}},
		{VolunteerID: "v", Depot: depot, MatchIDs: []string{"missing"}},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	plans, err := f.store.ListRoutePlans(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)
}
