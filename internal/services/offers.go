package services

import (
	"context"
	"fmt"
	"time"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/platform/obs"
	"food-rescue-service/internal/ports"

	"github.com/google/uuid"
)

// CreateOffer validates a new lot, stamps identity and creation time, and stores it as AVAILABLE.
func CreateOffer(ctx context.Context, repo ports.OfferRepository, clock ports.Clock, offer *domain.Offer) (err error) {
	defer obs.Time(ctx, "offers.Create")(&err)

	if offer.DonorID == "" {
		return fmt.Errorf("create offer: %w", &domain.ValidationError{Field: "donor_id", Reason: "must be non-empty"})
	}
	offer.Status = domain.OfferAvailable
	if err := offer.Validate(); err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if offer.Quantity == 0 {
		return fmt.Errorf("create offer: %w", &domain.ValidationError{Field: "quantity", Reason: "must be positive"})
	}

	offer.ID = uuid.NewString()
	offer.CreatedAt = clockOrSystem(clock).Now()

	if err := repo.CreateOffer(ctx, offer); err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	return nil
}

func CreateNeed(ctx context.Context, repo ports.NeedRepository, clock ports.Clock, need *domain.Need) (err error) {
	defer obs.Time(ctx, "needs.Create")(&err)

	if need.BeneficiaryID == "" {
		return fmt.Errorf("create need: %w", &domain.ValidationError{Field: "beneficiary_id", Reason: "must be non-empty"})
	}
	if err := need.Validate(); err != nil {
		return fmt.Errorf("create need: %w", err)
	}

	need.ID = uuid.NewString()
	need.CreatedAt = clockOrSystem(clock).Now()

	if err := repo.CreateNeed(ctx, need); err != nil {
		return fmt.Errorf("create need: %w", err)
	}
	return nil
}

// ExpireOffers moves every offer whose expiry has passed at asOf to EXPIRED and
// returns how many changed. Only the status is written, so claims committed
// after the listing keep their quantity.
func ExpireOffers(ctx context.Context, repo ports.OfferRepository, asOf time.Time) (n int, err error) {
	defer obs.Time(ctx, "offers.Expire")(&err)

	offers, err := repo.ListOffers(ctx)
	if err != nil {
		return 0, fmt.Errorf("expire offers: list offers: %w", err)
	}

	for _, o := range offers {
		if !o.Expire(asOf) {
			continue
		}
		changed, err := repo.ExpireOffer(ctx, o.ID, asOf)
		if err != nil {
			return n, fmt.Errorf("expire offers: %w", err)
		}
		if changed {
			n++
		}
	}

	obs.OffersExpiredTotal.Add(float64(n))
	return n, nil
}

// RankForNeed ranks every stored offer against one need, best match first.
func RankForNeed(
	ctx context.Context,
	offers ports.OfferRepository,
	needs ports.NeedRepository,
	matcher Matcher,
	needID string,
	asOf time.Time,
) (_ []domain.RankedOffer, err error) {
	defer obs.Time(ctx, "needs.RankOffers")(&err)

	need, err := needs.GetNeed(ctx, needID)
	if err != nil {
		return nil, fmt.Errorf("rank for need %s: %w", needID, err)
	}

	all, err := offers.ListOffers(ctx)
	if err != nil {
		return nil, fmt.Errorf("rank for need %s: list offers: %w", needID, err)
	}

	ranked, err := matcher.RankOffersForNeed(all, need, asOf)
	if err != nil {
		return nil, fmt.Errorf("rank for need %s: %w", needID, err)
	}
	return ranked, nil
}

func clockOrSystem(c ports.Clock) ports.Clock {
	if c == nil {
		return ports.SystemClock{}
	}
	return c
}
