package domain

// Category of a donated lot. The set is closed; use ParseCategory for untrusted input.
type Category string

const (
	CategoryProduce Category = "Produce"
	CategoryBakery  Category = "Bakery"
	CategoryCanned  Category = "Canned"
	CategoryDairy   Category = "Dairy"
	CategoryMeat    Category = "Meat"
	CategoryFrozen  Category = "Frozen"
	CategoryOther   Category = "Other"
)

var categories = []Category{
	CategoryProduce, CategoryBakery, CategoryCanned, CategoryDairy,
	CategoryMeat, CategoryFrozen, CategoryOther,
}

func ParseCategory(s string) (Category, error) {
	for _, c := range categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", invalid("category", "unknown value %q", s)
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

type Unit string

const (
	UnitKg     Unit = "kg"
	UnitPieces Unit = "pcs"
	UnitCrates Unit = "crates"
)

func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case UnitKg, UnitPieces, UnitCrates:
		return u, nil
	}
	return "", invalid("unit", "unknown value %q", s)
}

// Storage is the handling requirement of a lot.
type Storage string

const (
	StorageAmbient Storage = "Ambient"
	StorageChilled Storage = "Chilled"
	StorageFrozen  Storage = "Frozen"
)

func ParseStorage(s string) (Storage, error) {
	switch st := Storage(s); st {
	case StorageAmbient, StorageChilled, StorageFrozen:
		return st, nil
	}
	return "", invalid("storage", "unknown value %q", s)
}

// NeedsColdChain reports whether the lot must stay temperature controlled in transit.
func (s Storage) NeedsColdChain() bool {
	return s == StorageChilled || s == StorageFrozen
}

type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

func ParseUrgency(s string) (Urgency, error) {
	switch u := Urgency(s); u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return u, nil
	}
	return "", invalid("urgency", "unknown value %q", s)
}

// Rank orders urgencies for scoring: High=0, Medium=1, Low=2.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyHigh:
		return 0
	case UrgencyMedium:
		return 1
	default:
		return 2
	}
}

type OfferStatus string

const (
	OfferAvailable OfferStatus = "AVAILABLE"
	OfferClaimed   OfferStatus = "CLAIMED"
	OfferExpired   OfferStatus = "EXPIRED"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferAvailable, OfferClaimed, OfferExpired:
		return true
	}
	return false
}

type MatchStatus string

const (
	MatchPendingPickup MatchStatus = "PENDING_PICKUP"
	MatchRouted        MatchStatus = "ROUTED"
	MatchCompleted     MatchStatus = "COMPLETED"
	MatchCancelled     MatchStatus = "CANCELLED"
)

type StopKind string

const (
	StopPickup  StopKind = "PICKUP"
	StopDropoff StopKind = "DROPOFF"
)

func ParseStopKind(s string) (StopKind, error) {
	switch k := StopKind(s); k {
	case StopPickup, StopDropoff:
		return k, nil
	}
	return "", invalid("kind", "unknown value %q", s)
}

type RoutePlanStatus string

const (
	PlanAssigned   RoutePlanStatus = "ASSIGNED"
	PlanInProgress RoutePlanStatus = "IN_PROGRESS"
	PlanDone       RoutePlanStatus = "DONE"
)
