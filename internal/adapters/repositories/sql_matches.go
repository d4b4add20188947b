package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"food-rescue-service/internal/domain"
)

const matchColumns = `id, offer_id, need_id, quantity, status, approved_by, volunteer_id,
	pickup_stop_id, dropoff_stop_id, created_at`

func scanMatch(row scanner) (*domain.Match, error) {
	var (
		m               domain.Match
		status, created string
	)
	err := row.Scan(
		&m.ID, &m.OfferID, &m.NeedID, &m.Quantity, &status, &m.ApprovedBy, &m.VolunteerID,
		&m.PickupStopID, &m.DropoffStopID, &created,
	)
	if err != nil {
		return nil, err
	}

	m.Status = domain.MatchStatus(status)
	if m.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("match %s created_at: %w", m.ID, err)
	}
	return &m, nil
}

// SaveClaim decrements the stored offer in a single conditional UPDATE, so two
// concurrent claims can never take more than the offer holds.
func (s *SQLStore) SaveClaim(ctx context.Context, offer *domain.Offer, match *domain.Match) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE offers SET
			quantity = CASE WHEN quantity - ? <= 0 THEN 0 ELSE quantity - ? END,
			status = CASE WHEN quantity - ? <= 0 THEN ? ELSE status END
		WHERE id = ? AND status = ? AND quantity >= ?`
		res, err := tx.ExecContext(ctx, s.rebind(query),
			match.Quantity, match.Quantity, match.Quantity, string(domain.OfferClaimed),
			offer.ID, string(domain.OfferAvailable), match.Quantity,
		)
		if err != nil {
			return fmt.Errorf("save claim: update offer %s: %w", offer.ID, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return fmt.Errorf("save claim: %w", err)
		}
		if n == 0 {
			if _, err := s.getOffer(ctx, tx, offer.ID); err != nil {
				return fmt.Errorf("save claim: %w", err)
			}
			return fmt.Errorf("save claim: offer %s: %w", offer.ID, domain.ErrInsufficientQuantity)
		}

		insert := `INSERT INTO matches (` + matchColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err = tx.ExecContext(ctx, s.rebind(insert),
			match.ID, match.OfferID, match.NeedID, match.Quantity, string(match.Status), match.ApprovedBy,
			match.VolunteerID, match.PickupStopID, match.DropoffStopID, formatTime(match.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("save claim: insert match %s: %w", match.ID, err)
		}

		stored, err := s.getOffer(ctx, tx, offer.ID)
		if err != nil {
			return fmt.Errorf("save claim: %w", err)
		}
		*offer = *stored
		return nil
	})
}

func (s *SQLStore) SaveRelease(ctx context.Context, offer *domain.Offer, match *domain.Match) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE matches SET status = ? WHERE id = ? AND status = ?`
		res, err := tx.ExecContext(ctx, s.rebind(query),
			string(match.Status), match.ID, string(domain.MatchPendingPickup))
		if err != nil {
			return fmt.Errorf("save release: update match %s: %w", match.ID, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return fmt.Errorf("save release: %w", err)
		}
		if n == 0 {
			if _, err := s.getMatch(ctx, tx, match.ID); err != nil {
				return fmt.Errorf("save release: %w", err)
			}
			return fmt.Errorf("save release: match %s: %w", match.ID, domain.ErrInvalidTransition)
		}

		release := `UPDATE offers SET quantity = quantity + ? WHERE id = ? AND status = ?`
		if _, err := tx.ExecContext(ctx, s.rebind(release),
			match.Quantity, offer.ID, string(domain.OfferAvailable)); err != nil {
			return fmt.Errorf("save release: update offer %s: %w", offer.ID, err)
		}

		stored, err := s.getOffer(ctx, tx, offer.ID)
		if err != nil {
			return fmt.Errorf("save release: %w", err)
		}
		*offer = *stored
		return nil
	})
}

func (s *SQLStore) getMatch(ctx context.Context, ex execer, id string) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = ?`
	m, err := scanMatch(ex.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get match %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}
	return m, nil
}

func (s *SQLStore) GetMatch(ctx context.Context, id string) (*domain.Match, error) {
	if s.DB == nil {
		return nil, errors.New("get match: DB is nil")
	}
	return s.getMatch(ctx, s.DB, id)
}

func (s *SQLStore) ListMatches(ctx context.Context) ([]*domain.Match, error) {
	if s.DB == nil {
		return nil, errors.New("list matches: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list matches: query matches table: %w", err)
	}
	defer rows.Close()

	matches := make([]*domain.Match, 0, 64)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("list matches: scan row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list matches: row iteration: %w", err)
	}
	return matches, nil
}

func (s *SQLStore) updateMatch(ctx context.Context, ex execer, m *domain.Match) error {
	query := `UPDATE matches SET
		quantity = ?, status = ?, approved_by = ?, volunteer_id = ?, pickup_stop_id = ?, dropoff_stop_id = ?
	WHERE id = ?`
	res, err := ex.ExecContext(ctx, s.rebind(query),
		m.Quantity, string(m.Status), m.ApprovedBy, m.VolunteerID, m.PickupStopID, m.DropoffStopID, m.ID)
	if err != nil {
		return fmt.Errorf("update match %s: %w", m.ID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("update match %s: %w", m.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("update match %s: %w", m.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) UpdateMatch(ctx context.Context, m *domain.Match) error {
	if s.DB == nil {
		return errors.New("update match: DB is nil")
	}
	return s.updateMatch(ctx, s.DB, m)
}
