package services

import (
	"context"
	"fmt"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/platform/obs"
	"food-rescue-service/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ClaimRequest struct {
	OfferID  string
	NeedID   string
	Quantity float64
}

// ClaimOffer reserves part of an offer for a need and records the match as PENDING_PICKUP.
// Pairs the matcher would not rank are rejected with domain.ErrIneligible.
func ClaimOffer(ctx context.Context, store ports.Store, matcher Matcher, clock ports.Clock, req ClaimRequest) (_ *domain.Match, err error) {
	defer obs.Time(ctx, "matches.Claim")(&err)

	offer, err := store.GetOffer(ctx, req.OfferID)
	if err != nil {
		return nil, fmt.Errorf("claim offer: %w", err)
	}
	need, err := store.GetNeed(ctx, req.NeedID)
	if err != nil {
		return nil, fmt.Errorf("claim offer: %w", err)
	}

	now := clockOrSystem(clock).Now()
	exp, err := matcher.Score(offer, need, now)
	if err != nil {
		return nil, fmt.Errorf("claim offer: %w", err)
	}
	if !exp.Matchable() {
		return nil, fmt.Errorf("claim offer %s for need %s: %w", offer.ID, need.ID, domain.ErrIneligible)
	}

	if err := offer.Claim(req.Quantity); err != nil {
		return nil, fmt.Errorf("claim offer: %w", err)
	}

	match := &domain.Match{
		ID:        uuid.NewString(),
		OfferID:   offer.ID,
		NeedID:    need.ID,
		Quantity:  req.Quantity,
		Status:    domain.MatchPendingPickup,
		CreatedAt: now,
	}
	if err := store.SaveClaim(ctx, offer, match); err != nil {
		return nil, fmt.Errorf("claim offer: save: %w", err)
	}

	obs.MatchesClaimedTotal.Inc()
	log.Info().
		Str("req_id", obs.RequestID(ctx)).
		Str("match_id", match.ID).
		Str("offer_id", offer.ID).
		Str("need_id", need.ID).
		Float64("quantity", match.Quantity).
		Float64("score", exp.Score).
		Msg("offer claimed")

	return match, nil
}

func ApproveMatch(ctx context.Context, repo ports.MatchRepository, matchID, opsID string) (_ *domain.Match, err error) {
	defer obs.Time(ctx, "matches.Approve")(&err)

	match, err := repo.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("approve match: %w", err)
	}
	if err := match.Approve(opsID); err != nil {
		return nil, fmt.Errorf("approve match: %w", err)
	}
	if err := repo.UpdateMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("approve match %s: update: %w", matchID, err)
	}
	return match, nil
}

// CancelMatch cancels a match that has not been routed yet and hands its quantity
// back to the offer when the offer is still AVAILABLE.
func CancelMatch(ctx context.Context, store ports.Store, matchID string) (_ *domain.Match, err error) {
	defer obs.Time(ctx, "matches.Cancel")(&err)

	match, err := store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("cancel match: %w", err)
	}
	offer, err := store.GetOffer(ctx, match.OfferID)
	if err != nil {
		return nil, fmt.Errorf("cancel match %s: %w", matchID, err)
	}

	if err := match.Cancel(); err != nil {
		return nil, fmt.Errorf("cancel match: %w", err)
	}
	released, err := offer.Release(match.Quantity)
	if err != nil {
		return nil, fmt.Errorf("cancel match %s: %w", matchID, err)
	}
	if !released {
		log.Info().
			Str("match_id", match.ID).
			Str("offer_id", offer.ID).
			Str("offer_status", string(offer.Status)).
			Msg("cancelled quantity not returned to closed offer")
	}

	if err := store.SaveRelease(ctx, offer, match); err != nil {
		return nil, fmt.Errorf("cancel match %s: save: %w", matchID, err)
	}
	return match, nil
}
