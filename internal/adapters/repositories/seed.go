package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"food-rescue-service/internal/domain"
)

// Seed is demo data read from a JSON file. Times are relative to the moment of seeding.
type Seed struct {
	Offers []*domain.Offer
	Needs  []*domain.Need
}

type offerSeed struct {
	ID              string  `json:"id"`
	DonorID         string  `json:"donor_id"`
	Title           string  `json:"title"`
	Category        string  `json:"category"`
	Quantity        float64 `json:"quantity"`
	Unit            string  `json:"unit"`
	Storage         string  `json:"storage"`
	ExpiresInHours  float64 `json:"expires_in_hours"`
	PickupFromHours float64 `json:"pickup_from_hours"`
	PickupToHours   float64 `json:"pickup_to_hours"`
	Lat             float64 `json:"lat"`
	Lng             float64 `json:"lng"`
	Address         string  `json:"address"`
}

type needSeed struct {
	ID                string   `json:"id"`
	BeneficiaryID     string   `json:"beneficiary_id"`
	Category          string   `json:"category"`
	MinQuantity       float64  `json:"min_quantity"`
	Urgency           string   `json:"urgency"`
	AcceptedStorage   []string `json:"accepted_storage"`
	DeliveryPreferred bool     `json:"delivery_preferred"`
	Lat               float64  `json:"lat"`
	Lng               float64  `json:"lng"`
	Address           string   `json:"address"`
	CreatedHoursAgo   float64  `json:"created_hours_ago"`
}

type seedFile struct {
	Offers []offerSeed `json:"offers"`
	Needs  []needSeed  `json:"needs"`
}

// LoadSeed parses and validates a seed file, anchoring relative times at now.
func LoadSeed(jsonPath string, now time.Time) (*Seed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var data seedFile
	if err := json.Unmarshal(bytes, &data); err != nil {
		return nil, fmt.Errorf("load seed: parse json: %w", err)
	}

	hours := func(h float64) time.Time {
		return now.Add(time.Duration(h * float64(time.Hour)))
	}

	seed := &Seed{
		Offers: make([]*domain.Offer, 0, len(data.Offers)),
		Needs:  make([]*domain.Need, 0, len(data.Needs)),
	}

	for i, item := range data.Offers {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("load seed: offer at index %d: id cannot be empty", i+1)
		}

		o := &domain.Offer{
			ID:        id,
			DonorID:   item.DonorID,
			Title:     item.Title,
			Category:  domain.Category(item.Category),
			Quantity:  item.Quantity,
			Unit:      domain.Unit(item.Unit),
			Storage:   domain.Storage(item.Storage),
			ExpiresAt: hours(item.ExpiresInHours),
			Location:  domain.LatLng{Lat: item.Lat, Lng: item.Lng},
			Address:   item.Address,
			Status:    domain.OfferAvailable,
			CreatedAt: now,
		}
		if item.PickupToHours > 0 {
			o.PickupWindow = domain.TimeWindow{Start: hours(item.PickupFromHours), End: hours(item.PickupToHours)}
		}
		if err := o.Validate(); err != nil {
			return nil, fmt.Errorf("load seed: offer %s: %w", id, err)
		}
		seed.Offers = append(seed.Offers, o)
	}

	for i, item := range data.Needs {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			return nil, fmt.Errorf("load seed: need at index %d: id cannot be empty", i+1)
		}

		storage := make([]domain.Storage, 0, len(item.AcceptedStorage))
		for _, s := range item.AcceptedStorage {
			storage = append(storage, domain.Storage(s))
		}

		n := &domain.Need{
			ID:                id,
			BeneficiaryID:     item.BeneficiaryID,
			Category:          domain.Category(item.Category),
			MinQuantity:       item.MinQuantity,
			Urgency:           domain.Urgency(item.Urgency),
			AcceptedStorage:   storage,
			DeliveryPreferred: item.DeliveryPreferred,
			Location:          domain.LatLng{Lat: item.Lat, Lng: item.Lng},
			Address:           item.Address,
			CreatedAt:         hours(-item.CreatedHoursAgo),
		}
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("load seed: need %s: %w", id, err)
		}
		seed.Needs = append(seed.Needs, n)
	}

	return seed, nil
}
