package domain

import (
	"fmt"
	"time"
)

// Offer is a donated lot owned by a donor.
// Quantity shrinks as matches claim it; status only moves forward
// AVAILABLE -> CLAIMED -> EXPIRED.
type Offer struct {
	ID           string
	DonorID      string
	Title        string
	Category     Category
	Quantity     float64
	Unit         Unit
	Storage      Storage
	ExpiresAt    time.Time
	PickupWindow TimeWindow
	Location     LatLng
	Address      string
	PhotoURL     string
	Status       OfferStatus
	CreatedAt    time.Time
}

func (o *Offer) Validate() error {
	if !o.Category.Valid() {
		return invalid("category", "unknown value %q", o.Category)
	}
	if _, err := ParseStorage(string(o.Storage)); err != nil {
		return err
	}
	if o.Unit != "" {
		if _, err := ParseUnit(string(o.Unit)); err != nil {
			return err
		}
	}
	if err := validQuantity("quantity", o.Quantity); err != nil {
		return err
	}
	if o.ExpiresAt.IsZero() {
		return invalid("expires_at", "must be set")
	}
	if !o.Status.Valid() {
		return invalid("status", "unknown value %q", o.Status)
	}
	if err := o.PickupWindow.Validate(); err != nil {
		return err
	}
	return o.Location.Validate()
}

// Claim removes q from the available quantity. The offer becomes CLAIMED
// once nothing is left.
func (o *Offer) Claim(q float64) error {
	if err := validQuantity("quantity", q); err != nil {
		return err
	}
	if q == 0 {
		return invalid("quantity", "claim must be positive")
	}
	if o.Status != OfferAvailable {
		return fmt.Errorf("claim offer %s: status %s: %w", o.ID, o.Status, ErrInvalidTransition)
	}
	if q > o.Quantity {
		return fmt.Errorf("claim offer %s: want %v, have %v: %w", o.ID, q, o.Quantity, ErrInsufficientQuantity)
	}

	o.Quantity -= q
	if o.Quantity <= 0 {
		o.Quantity = 0
		o.Status = OfferClaimed
	}
	return nil
}

// Release returns a cancelled claim to an offer that is still AVAILABLE.
// CLAIMED and EXPIRED offers are left as they are because status never moves backwards.
// It reports whether the quantity was restored.
func (o *Offer) Release(q float64) (bool, error) {
	if err := validQuantity("quantity", q); err != nil {
		return false, err
	}
	if o.Status != OfferAvailable {
		return false, nil
	}
	o.Quantity += q
	return true, nil
}

// Expire marks the offer EXPIRED when asOf has reached its expiry.
// It reports whether the status changed.
func (o *Offer) Expire(asOf time.Time) bool {
	if o.Status == OfferExpired || asOf.Before(o.ExpiresAt) {
		return false
	}
	o.Status = OfferExpired
	return true
}

// DaysUntilExpiry is the fractional number of days left, floored at zero.
func (o *Offer) DaysUntilExpiry(asOf time.Time) float64 {
	d := o.ExpiresAt.Sub(asOf).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}
