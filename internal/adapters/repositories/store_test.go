package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/platform/db"
	"food-rescue-service/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	conn, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	s := NewSQLStore(conn, DialectSQLite)
	require.NoError(t, s.InitSchema(context.Background()))
	return s
}

func stores() map[string]func(t *testing.T) ports.Store {
	return map[string]func(t *testing.T) ports.Store{
		"memory": func(*testing.T) ports.Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) ports.Store { return newSQLiteStore(t) },
	}
}

func sampleOffer(id string, qty float64) *domain.Offer {
	return &domain.Offer{
		ID:           id,
		DonorID:      "donor-1",
		Title:        "Bread",
		Category:     domain.CategoryBakery,
		Quantity:     qty,
		Unit:         domain.UnitKg,
		Storage:      domain.StorageChilled,
		ExpiresAt:    t0.Add(24 * time.Hour),
		PickupWindow: domain.TimeWindow{Start: t0, End: t0.Add(2 * time.Hour)},
		Location:     domain.LatLng{Lat: 1.35, Lng: 103.95},
		Address:      "1 Bakery Lane",
		Status:       domain.OfferAvailable,
		CreatedAt:    t0,
	}
}

func sampleNeed(id string) *domain.Need {
	return &domain.Need{
		ID:                id,
		BeneficiaryID:     "shelter-1",
		Category:          domain.CategoryBakery,
		MinQuantity:       5,
		Urgency:           domain.UrgencyHigh,
		AcceptedStorage:   []domain.Storage{domain.StorageAmbient, domain.StorageChilled},
		DeliveryPreferred: true,
		Location:          domain.LatLng{Lat: 1.30, Lng: 103.80},
		Address:           "2 Shelter Road",
		CreatedAt:         t0.Add(-time.Hour),
	}
}

func pendingMatch(id, offerID, needID string, qty float64) *domain.Match {
	return &domain.Match{
		ID:         id,
		OfferID:    offerID,
		NeedID:     needID,
		Quantity:   qty,
		Status:     domain.MatchPendingPickup,
		ApprovedBy: "ops-1",
		CreatedAt:  t0.Add(time.Minute),
	}
}

func TestStoreOffersAndNeeds(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			later := sampleOffer("o-2", 4)
			later.CreatedAt = t0.Add(time.Minute)
			require.NoError(t, s.CreateOffer(ctx, later))
			require.NoError(t, s.CreateOffer(ctx, sampleOffer("o-1", 10)))
			require.NoError(t, s.CreateNeed(ctx, sampleNeed("n-1")))

			got, err := s.GetOffer(ctx, "o-1")
			require.NoError(t, err)
			assert.Equal(t, "Bread", got.Title)
			assert.Equal(t, domain.StorageChilled, got.Storage)
			assert.True(t, got.ExpiresAt.Equal(t0.Add(24*time.Hour)))
			assert.True(t, got.PickupWindow.End.Equal(t0.Add(2*time.Hour)))
			assert.Equal(t, 10.0, got.Quantity)

			offers, err := s.ListOffers(ctx)
			require.NoError(t, err)
			require.Len(t, offers, 2)
			assert.Equal(t, "o-1", offers[0].ID)
			assert.Equal(t, "o-2", offers[1].ID)

			changed, err := s.ExpireOffer(ctx, "o-1", t0.Add(23*time.Hour))
			require.NoError(t, err)
			assert.False(t, changed, "not yet expired")

			changed, err = s.ExpireOffer(ctx, "o-1", t0.Add(24*time.Hour))
			require.NoError(t, err)
			assert.True(t, changed)
			got, err = s.GetOffer(ctx, "o-1")
			require.NoError(t, err)
			assert.Equal(t, domain.OfferExpired, got.Status)
			assert.Equal(t, 10.0, got.Quantity)

			changed, err = s.ExpireOffer(ctx, "o-1", t0.Add(48*time.Hour))
			require.NoError(t, err)
			assert.False(t, changed, "already expired")

			need, err := s.GetNeed(ctx, "n-1")
			require.NoError(t, err)
			assert.Equal(t, []domain.Storage{domain.StorageAmbient, domain.StorageChilled}, need.AcceptedStorage)
			assert.True(t, need.DeliveryPreferred)

			needs, err := s.ListNeeds(ctx)
			require.NoError(t, err)
			assert.Len(t, needs, 1)

			_, err = s.GetOffer(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrNotFound)
			_, err = s.GetNeed(ctx, "missing")
			assert.ErrorIs(t, err, domain.ErrNotFound)
			changed, err = s.ExpireOffer(ctx, "missing", t0.Add(48*time.Hour))
			require.NoError(t, err)
			assert.False(t, changed)
		})
	}
}

func TestStoreClaimAndRelease(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.CreateOffer(ctx, sampleOffer("o-1", 10)))
			require.NoError(t, s.CreateNeed(ctx, sampleNeed("n-1")))

			offer, err := s.GetOffer(ctx, "o-1")
			require.NoError(t, err)
			require.NoError(t, offer.Claim(6))
			m1 := pendingMatch("m-1", "o-1", "n-1", 6)
			require.NoError(t, s.SaveClaim(ctx, offer, m1))
			assert.Equal(t, 4.0, offer.Quantity)

			// A stale copy that still believes 10 are left cannot overdraw.
			stale := sampleOffer("o-1", 10)
			require.NoError(t, stale.Claim(6))
			err = s.SaveClaim(ctx, stale, pendingMatch("m-2", "o-1", "n-1", 6))
			assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)

			offer, err = s.GetOffer(ctx, "o-1")
			require.NoError(t, err)
			require.NoError(t, offer.Claim(4))
			require.NoError(t, s.SaveClaim(ctx, offer, pendingMatch("m-3", "o-1", "n-1", 4)))
			assert.Equal(t, domain.OfferClaimed, offer.Status)
			assert.Zero(t, offer.Quantity)

			matches, err := s.ListMatches(ctx)
			require.NoError(t, err)
			assert.Len(t, matches, 2)

			// Cancelling against a CLAIMED offer keeps it CLAIMED.
			m1.Status = domain.MatchCancelled
			require.NoError(t, s.SaveRelease(ctx, offer, m1))
			assert.Equal(t, domain.OfferClaimed, offer.Status)
			assert.Zero(t, offer.Quantity)

			got, err := s.GetMatch(ctx, "m-1")
			require.NoError(t, err)
			assert.Equal(t, domain.MatchCancelled, got.Status)

			assert.ErrorIs(t, s.SaveRelease(ctx, offer, m1), domain.ErrInvalidTransition)
			_, err = s.GetMatch(ctx, "m-2")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestStoreReleaseRestoresAvailableOffer(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.CreateOffer(ctx, sampleOffer("o-1", 10)))
			require.NoError(t, s.CreateNeed(ctx, sampleNeed("n-1")))

			offer, err := s.GetOffer(ctx, "o-1")
			require.NoError(t, err)
			require.NoError(t, offer.Claim(3))
			m := pendingMatch("m-1", "o-1", "n-1", 3)
			require.NoError(t, s.SaveClaim(ctx, offer, m))

			m.Status = domain.MatchCancelled
			require.NoError(t, s.SaveRelease(ctx, offer, m))
			assert.Equal(t, 10.0, offer.Quantity)
			assert.Equal(t, domain.OfferAvailable, offer.Status)
		})
	}
}

func routedPlan(id string, matches ...*domain.Match) *domain.RoutePlan {
	plan := &domain.RoutePlan{
		ID:           id,
		VolunteerID:  "vol-1",
		Depot:        domain.Depot{Name: "Jurong Hub", Location: domain.LatLng{Lat: 1.3329, Lng: 103.7436}},
		TotalKm:      12.3,
		TotalMinutes: 25,
		CreatedAt:    t0.Add(time.Hour),
	}
	for i, m := range matches {
		pickup := domain.Stop{
			ID: id + "-p" + m.ID, PlanID: id, Seq: 2*i + 1,
			StopRequest: domain.StopRequest{
				Kind: domain.StopPickup, Name: "Pickup", Location: domain.LatLng{Lat: 1.35, Lng: 103.95},
				Window: domain.TimeWindow{Start: t0, End: t0.Add(2 * time.Hour)}, ColdChain: true, MatchIDs: []string{m.ID},
			},
		}
		dropoff := domain.Stop{
			ID: id + "-d" + m.ID, PlanID: id, Seq: 2*i + 2,
			StopRequest: domain.StopRequest{
				Kind: domain.StopDropoff, Name: "Dropoff", Location: domain.LatLng{Lat: 1.30, Lng: 103.80},
				ColdChain: true, MatchIDs: []string{m.ID},
			},
		}
		plan.Stops = append(plan.Stops, pickup, dropoff)
		m.Status = domain.MatchRouted
		m.VolunteerID = plan.VolunteerID
		m.PickupStopID = pickup.ID
		m.DropoffStopID = dropoff.ID
	}
	return plan
}

func TestStoreRoutePlans(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.CreateOffer(ctx, sampleOffer("o-1", 10)))
			require.NoError(t, s.CreateNeed(ctx, sampleNeed("n-1")))

			offer, err := s.GetOffer(ctx, "o-1")
			require.NoError(t, err)
			require.NoError(t, offer.Claim(5))
			m := pendingMatch("m-1", "o-1", "n-1", 5)
			require.NoError(t, s.SaveClaim(ctx, offer, m))

			plan := routedPlan("plan-1", m)
			require.NoError(t, s.CreateRoutePlan(ctx, plan, []*domain.Match{m}))

			got, err := s.GetRoutePlan(ctx, "plan-1")
			require.NoError(t, err)
			require.Len(t, got.Stops, 2)
			assert.Equal(t, 1, got.Stops[0].Seq)
			assert.Equal(t, domain.StopPickup, got.Stops[0].Kind)
			assert.Equal(t, []string{"m-1"}, got.Stops[1].MatchIDs)
			assert.True(t, got.Stops[0].ColdChain)
			assert.Nil(t, got.Stops[0].CheckedInAt)
			assert.Nil(t, got.Stops[0].TemperatureC)
			assert.Equal(t, 25, got.TotalMinutes)
			assert.Equal(t, domain.PlanAssigned, got.Status())

			stored, err := s.GetMatch(ctx, "m-1")
			require.NoError(t, err)
			assert.Equal(t, domain.MatchRouted, stored.Status)
			assert.Equal(t, "plan-1-pm-1", stored.PickupStopID)

			// Routing the same match again aborts without a trace.
			again := pendingMatch("m-1", "o-1", "n-1", 5)
			err = s.CreateRoutePlan(ctx, routedPlan("plan-2", again), []*domain.Match{again})
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			_, err = s.GetRoutePlan(ctx, "plan-2")
			assert.ErrorIs(t, err, domain.ErrNotFound)

			temp := 3.5
			first, last := got.Stops[0].ID, got.Stops[1].ID
			n, err := s.UpdateStop(ctx, "plan-1", first, domain.StopUpdate{TemperatureC: &temp, Complete: true}, t0.Add(2*time.Hour))
			require.NoError(t, err)
			assert.Zero(t, n)

			n, err = s.UpdateStop(ctx, "plan-1", last, domain.StopUpdate{Complete: true}, t0.Add(3*time.Hour))
			require.NoError(t, err)
			assert.Equal(t, 1, n)

			got, err = s.GetRoutePlan(ctx, "plan-1")
			require.NoError(t, err)
			require.NotNil(t, got.Stops[0].TemperatureC)
			assert.Equal(t, 3.5, *got.Stops[0].TemperatureC)
			require.NotNil(t, got.Stops[0].CheckedInAt)
			assert.True(t, got.Stops[0].CompletedAt.Equal(t0.Add(2*time.Hour)))
			assert.Equal(t, domain.PlanDone, got.Status())

			stored, err = s.GetMatch(ctx, "m-1")
			require.NoError(t, err)
			assert.Equal(t, domain.MatchCompleted, stored.Status)

			plans, err := s.ListRoutePlans(ctx)
			require.NoError(t, err)
			require.Len(t, plans, 1)
			assert.Len(t, plans[0].Stops, 2)

			_, err = s.UpdateStop(ctx, "plan-1", "nope", domain.StopUpdate{CheckIn: true}, t0)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			_, err = s.UpdateStop(ctx, "plan-x", first, domain.StopUpdate{CheckIn: true}, t0)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestStoreUpdateStopNeverOverwrites(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)
			require.NoError(t, s.CreateOffer(ctx, sampleOffer("o-1", 10)))
			require.NoError(t, s.CreateNeed(ctx, sampleNeed("n-1")))

			offer, err := s.GetOffer(ctx, "o-1")
			require.NoError(t, err)
			require.NoError(t, offer.Claim(5))
			m := pendingMatch("m-1", "o-1", "n-1", 5)
			require.NoError(t, s.SaveClaim(ctx, offer, m))
			plan := routedPlan("plan-1", m)
			require.NoError(t, s.CreateRoutePlan(ctx, plan, []*domain.Match{m}))
			stopID := plan.Stops[0].ID

			_, err = s.UpdateStop(ctx, "plan-1", stopID, domain.StopUpdate{CheckIn: true}, t0)
			require.NoError(t, err)
			_, err = s.UpdateStop(ctx, "plan-1", stopID, domain.StopUpdate{Scanned: true}, t0.Add(time.Minute))
			require.NoError(t, err)

			warm := 9.0
			_, err = s.UpdateStop(ctx, "plan-1", stopID, domain.StopUpdate{CheckIn: true, TemperatureC: &warm}, t0.Add(time.Hour))
			assert.ErrorIs(t, err, domain.ErrStopStateFinal)
			_, err = s.UpdateStop(ctx, "plan-1", stopID, domain.StopUpdate{Scanned: true}, t0.Add(time.Hour))
			assert.ErrorIs(t, err, domain.ErrStopStateFinal)

			got, err := s.GetRoutePlan(ctx, "plan-1")
			require.NoError(t, err)
			stop := got.Stops[0]
			require.NotNil(t, stop.CheckedInAt)
			assert.True(t, stop.CheckedInAt.Equal(t0))
			assert.True(t, stop.Scanned)
			assert.Nil(t, stop.TemperatureC, "a rejected report writes nothing")

			_, err = s.UpdateStop(ctx, "plan-1", stopID, domain.StopUpdate{Complete: true}, t0.Add(2*time.Hour))
			require.NoError(t, err)
			got, err = s.GetRoutePlan(ctx, "plan-1")
			require.NoError(t, err)
			assert.True(t, got.Stops[0].CheckedInAt.Equal(t0), "completion keeps the earlier check-in")
			assert.True(t, got.Stops[0].CompletedAt.Equal(t0.Add(2*time.Hour)))

			stored, err := s.GetMatch(ctx, "m-1")
			require.NoError(t, err)
			assert.Equal(t, domain.MatchRouted, stored.Status, "the dropoff is still open")
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.CreateNeed(ctx, sampleNeed("n-1")))

	n, err := s.GetNeed(ctx, "n-1")
	require.NoError(t, err)
	n.AcceptedStorage[0] = domain.StorageFrozen

	again, err := s.GetNeed(ctx, "n-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StorageAmbient, again.AcceptedStorage[0])
}

func TestRebindForPostgres(t *testing.T) {
	s := &SQLStore{Dialect: DialectPostgres}
	assert.Equal(t, "UPDATE t SET a = $1 WHERE id = $2", s.rebind("UPDATE t SET a = ? WHERE id = ?"))

	s.Dialect = DialectSQLite
	assert.Equal(t, "SELECT ?", s.rebind("SELECT ?"))
}

func TestSeedFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"offers": [{"id": "o-1", "donor_id": "d", "title": "Apples", "category": "Produce", "quantity": 12,
			"unit": "kg", "storage": "Ambient", "expires_in_hours": 30, "pickup_from_hours": 1, "pickup_to_hours": 4,
			"lat": 1.35, "lng": 103.9}],
		"needs": [{"id": "n-1", "beneficiary_id": "b", "category": "Produce", "min_quantity": 5, "urgency": "High",
			"accepted_storage": ["Ambient"], "lat": 1.3, "lng": 103.8, "created_hours_ago": 2}]
	}`), 0o600))

	ctx := context.Background()
	s := newSQLiteStore(t)

	offers, needs, err := s.SeedFromJSON(ctx, path, t0)
	require.NoError(t, err)
	assert.Equal(t, 1, offers)
	assert.Equal(t, 1, needs)

	offers, needs, err = s.SeedFromJSON(ctx, path, t0)
	require.NoError(t, err)
	assert.Zero(t, offers, "existing ids are left alone")
	assert.Zero(t, needs)

	o, err := s.GetOffer(ctx, "o-1")
	require.NoError(t, err)
	assert.True(t, o.ExpiresAt.Equal(t0.Add(30*time.Hour)))
	assert.True(t, o.PickupWindow.Start.Equal(t0.Add(time.Hour)))

	n, err := s.GetNeed(ctx, "n-1")
	require.NoError(t, err)
	assert.True(t, n.CreatedAt.Equal(t0.Add(-2*time.Hour)))
}

func TestLoadSeedRejectsInvalidRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"offers": [{"id": "o-1", "category": "Gravel",
		"quantity": 1, "storage": "Ambient", "expires_in_hours": 1}]}`), 0o600))

	_, err := LoadSeed(path, t0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
