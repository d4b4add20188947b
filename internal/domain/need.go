package domain

import (
	"slices"
	"time"
)

// Need is a recipient organization's request for food.
type Need struct {
	ID                string
	BeneficiaryID     string
	Category          Category
	MinQuantity       float64
	Urgency           Urgency
	AcceptedStorage   []Storage
	DeliveryPreferred bool
	Location          LatLng
	Address           string
	CreatedAt         time.Time
}

func (n *Need) Validate() error {
	if !n.Category.Valid() {
		return invalid("category", "unknown value %q", n.Category)
	}
	if _, err := ParseUrgency(string(n.Urgency)); err != nil {
		return err
	}
	if err := validQuantity("min_quantity", n.MinQuantity); err != nil {
		return err
	}
	if len(n.AcceptedStorage) == 0 {
		return invalid("accepted_storage", "at least one storage type is required")
	}
	for _, s := range n.AcceptedStorage {
		if _, err := ParseStorage(string(s)); err != nil {
			return err
		}
	}
	return n.Location.Validate()
}

// Accepts reports whether the beneficiary can store lots of the given type.
func (n *Need) Accepts(s Storage) bool {
	return slices.Contains(n.AcceptedStorage, s)
}
