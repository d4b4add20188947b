package domain

import (
	"fmt"
	"time"
)

// Match binds a claimed quantity of one Offer to one Need.
type Match struct {
	ID            string
	OfferID       string
	NeedID        string
	Quantity      float64
	Status        MatchStatus
	ApprovedBy    string
	VolunteerID   string
	PickupStopID  string
	DropoffStopID string
	CreatedAt     time.Time
}

// Approve records the ops approver. Approval is set once.
func (m *Match) Approve(opsID string) error {
	if opsID == "" {
		return invalid("approved_by", "must be non-empty")
	}
	if m.ApprovedBy != "" {
		return fmt.Errorf("approve match %s: %w", m.ID, ErrAlreadyApproved)
	}
	if m.Status != MatchPendingPickup {
		return fmt.Errorf("approve match %s: status %s: %w", m.ID, m.Status, ErrInvalidTransition)
	}
	m.ApprovedBy = opsID
	return nil
}

// Routable reports whether ops may put the match on a new route.
func (m *Match) Routable() bool {
	return m.Status == MatchPendingPickup && m.ApprovedBy != "" && m.VolunteerID == ""
}

func (m *Match) Route(volunteerID, pickupStopID, dropoffStopID string) error {
	if !m.Routable() {
		return fmt.Errorf("route match %s: status=%s approved=%t volunteer=%q: %w",
			m.ID, m.Status, m.ApprovedBy != "", m.VolunteerID, ErrInvalidTransition)
	}
	m.Status = MatchRouted
	m.VolunteerID = volunteerID
	m.PickupStopID = pickupStopID
	m.DropoffStopID = dropoffStopID
	return nil
}

func (m *Match) Complete() error {
	if m.Status != MatchRouted {
		return fmt.Errorf("complete match %s: status %s: %w", m.ID, m.Status, ErrInvalidTransition)
	}
	m.Status = MatchCompleted
	return nil
}

// Cancel is allowed until the match has been routed.
func (m *Match) Cancel() error {
	if m.Status != MatchPendingPickup {
		return fmt.Errorf("cancel match %s: status %s: %w", m.ID, m.Status, ErrInvalidTransition)
	}
	m.Status = MatchCancelled
	return nil
}
