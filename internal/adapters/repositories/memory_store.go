package repositories

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"food-rescue-service/internal/domain"
)

// MemoryStore keeps everything in process memory. Records are copied on the way
// in and out, so callers never share state with the store.
type MemoryStore struct {
	mu      sync.RWMutex
	offers  map[string]*domain.Offer
	needs   map[string]*domain.Need
	matches map[string]*domain.Match
	plans   map[string]*domain.RoutePlan
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		offers:  make(map[string]*domain.Offer),
		needs:   make(map[string]*domain.Need),
		matches: make(map[string]*domain.Match),
		plans:   make(map[string]*domain.RoutePlan),
	}
}

// Seed inserts seed records, skipping ids that already exist.
func (s *MemoryStore) Seed(seed *Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range seed.Offers {
		if _, ok := s.offers[o.ID]; !ok {
			s.offers[o.ID] = cloneOffer(o)
		}
	}
	for _, n := range seed.Needs {
		if _, ok := s.needs[n.ID]; !ok {
			s.needs[n.ID] = cloneNeed(n)
		}
	}
}

func (s *MemoryStore) CreateOffer(_ context.Context, offer *domain.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.offers[offer.ID]; ok {
		return fmt.Errorf("create offer: id %s already exists", offer.ID)
	}
	s.offers[offer.ID] = cloneOffer(offer)
	return nil
}

func (s *MemoryStore) GetOffer(_ context.Context, id string) (*domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.offers[id]
	if !ok {
		return nil, fmt.Errorf("get offer %s: %w", id, domain.ErrNotFound)
	}
	return cloneOffer(o), nil
}

func (s *MemoryStore) ListOffers(_ context.Context) ([]*domain.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Offer, 0, len(s.offers))
	for _, o := range s.offers {
		out = append(out, cloneOffer(o))
	}
	slices.SortFunc(out, func(a, b *domain.Offer) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) ExpireOffer(_ context.Context, id string, asOf time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offers[id]
	if !ok {
		return false, nil
	}
	return o.Expire(asOf), nil
}

func (s *MemoryStore) CreateNeed(_ context.Context, need *domain.Need) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.needs[need.ID]; ok {
		return fmt.Errorf("create need: id %s already exists", need.ID)
	}
	s.needs[need.ID] = cloneNeed(need)
	return nil
}

func (s *MemoryStore) GetNeed(_ context.Context, id string) (*domain.Need, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.needs[id]
	if !ok {
		return nil, fmt.Errorf("get need %s: %w", id, domain.ErrNotFound)
	}
	return cloneNeed(n), nil
}

func (s *MemoryStore) ListNeeds(_ context.Context) ([]*domain.Need, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Need, 0, len(s.needs))
	for _, n := range s.needs {
		out = append(out, cloneNeed(n))
	}
	slices.SortFunc(out, func(a, b *domain.Need) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// SaveClaim applies the claimed quantity to the stored offer, not the caller's copy,
// so concurrent claims cannot overdraw it.
func (s *MemoryStore) SaveClaim(_ context.Context, offer *domain.Offer, match *domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.offers[offer.ID]
	if !ok {
		return fmt.Errorf("save claim: offer %s: %w", offer.ID, domain.ErrNotFound)
	}
	if _, ok := s.matches[match.ID]; ok {
		return fmt.Errorf("save claim: match id %s already exists", match.ID)
	}
	if stored.Status != domain.OfferAvailable || stored.Quantity < match.Quantity {
		return fmt.Errorf("save claim: offer %s: %w", offer.ID, domain.ErrInsufficientQuantity)
	}

	stored.Quantity -= match.Quantity
	if stored.Quantity <= 0 {
		stored.Quantity = 0
		stored.Status = domain.OfferClaimed
	}
	*offer = *cloneOffer(stored)
	s.matches[match.ID] = cloneMatch(match)
	return nil
}

func (s *MemoryStore) SaveRelease(_ context.Context, offer *domain.Offer, match *domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	storedMatch, ok := s.matches[match.ID]
	if !ok {
		return fmt.Errorf("save release: match %s: %w", match.ID, domain.ErrNotFound)
	}
	if storedMatch.Status != domain.MatchPendingPickup {
		return fmt.Errorf("save release: match %s status %s: %w", match.ID, storedMatch.Status, domain.ErrInvalidTransition)
	}
	stored, ok := s.offers[offer.ID]
	if !ok {
		return fmt.Errorf("save release: offer %s: %w", offer.ID, domain.ErrNotFound)
	}

	if stored.Status == domain.OfferAvailable {
		stored.Quantity += match.Quantity
	}
	*offer = *cloneOffer(stored)
	s.matches[match.ID] = cloneMatch(match)
	return nil
}

func (s *MemoryStore) GetMatch(_ context.Context, id string) (*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	if !ok {
		return nil, fmt.Errorf("get match %s: %w", id, domain.ErrNotFound)
	}
	return cloneMatch(m), nil
}

func (s *MemoryStore) ListMatches(_ context.Context) ([]*domain.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Match, 0, len(s.matches))
	for _, m := range s.matches {
		out = append(out, cloneMatch(m))
	}
	slices.SortFunc(out, func(a, b *domain.Match) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) UpdateMatch(_ context.Context, match *domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[match.ID]; !ok {
		return fmt.Errorf("update match %s: %w", match.ID, domain.ErrNotFound)
	}
	s.matches[match.ID] = cloneMatch(match)
	return nil
}

func (s *MemoryStore) CreateRoutePlan(_ context.Context, plan *domain.RoutePlan, routed []*domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[plan.ID]; ok {
		return fmt.Errorf("create route plan: id %s already exists", plan.ID)
	}
	for _, m := range routed {
		stored, ok := s.matches[m.ID]
		if !ok {
			return fmt.Errorf("create route plan: match %s: %w", m.ID, domain.ErrNotFound)
		}
		if stored.Status != domain.MatchPendingPickup || stored.VolunteerID != "" {
			return fmt.Errorf("create route plan: match %s already %s: %w", m.ID, stored.Status, domain.ErrInvalidTransition)
		}
	}

	s.plans[plan.ID] = clonePlan(plan)
	for _, m := range routed {
		s.matches[m.ID] = cloneMatch(m)
	}
	return nil
}

func (s *MemoryStore) GetRoutePlan(_ context.Context, id string) (*domain.RoutePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("get route plan %s: %w", id, domain.ErrNotFound)
	}
	return clonePlan(p), nil
}

func (s *MemoryStore) ListRoutePlans(_ context.Context) ([]*domain.RoutePlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.RoutePlan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, clonePlan(p))
	}
	slices.SortFunc(out, func(a, b *domain.RoutePlan) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *MemoryStore) UpdateStop(_ context.Context, planID, stopID string, upd domain.StopUpdate, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan, ok := s.plans[planID]
	if !ok {
		return 0, fmt.Errorf("update stop: plan %s: %w", planID, domain.ErrNotFound)
	}
	target, ok := plan.FindStop(stopID)
	if !ok {
		return 0, fmt.Errorf("update stop: stop %s: %w", stopID, domain.ErrNotFound)
	}
	if err := target.Apply(upd, at); err != nil {
		return 0, fmt.Errorf("update stop: %w", err)
	}
	if plan.Status() != domain.PlanDone {
		return 0, nil
	}

	completed := 0
	for _, id := range plan.MatchIDs() {
		m, ok := s.matches[id]
		if !ok || m.Status != domain.MatchRouted {
			continue
		}
		if err := m.Complete(); err != nil {
			return completed, fmt.Errorf("update stop: %w", err)
		}
		completed++
	}
	return completed, nil
}

func cloneOffer(o *domain.Offer) *domain.Offer {
	c := *o
	return &c
}

func cloneNeed(n *domain.Need) *domain.Need {
	c := *n
	c.AcceptedStorage = slices.Clone(n.AcceptedStorage)
	return &c
}

func cloneMatch(m *domain.Match) *domain.Match {
	c := *m
	return &c
}

func clonePlan(p *domain.RoutePlan) *domain.RoutePlan {
	c := *p
	c.Stops = make([]domain.Stop, len(p.Stops))
	for i, s := range p.Stops {
		c.Stops[i] = cloneStop(s)
	}
	return &c
}

func cloneStop(s domain.Stop) domain.Stop {
	c := s
	c.MatchIDs = slices.Clone(s.MatchIDs)
	if s.CheckedInAt != nil {
		t := *s.CheckedInAt
		c.CheckedInAt = &t
	}
	if s.TemperatureC != nil {
		v := *s.TemperatureC
		c.TemperatureC = &v
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return c
}
