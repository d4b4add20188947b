package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"food-rescue-service/internal/domain"
)

const planColumns = `id, volunteer_id, depot_name, depot_lat, depot_lng, total_km, total_minutes, created_at`

const stopColumns = `id, plan_id, seq, kind, name, address, lat, lng, window_start, window_end,
	cold_chain, match_ids, checked_in_at, scanned, temperature_c, completed_at`

// CreateRoutePlan stores the plan and its stops and marks the matches routed.
// A match that is no longer pending and unassigned aborts the whole write.
func (s *SQLStore) CreateRoutePlan(ctx context.Context, plan *domain.RoutePlan, routed []*domain.Match) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		insertPlan := `INSERT INTO route_plans (` + planColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := tx.ExecContext(ctx, s.rebind(insertPlan),
			plan.ID, plan.VolunteerID, plan.Depot.Name, plan.Depot.Location.Lat, plan.Depot.Location.Lng,
			plan.TotalKm, plan.TotalMinutes, formatTime(plan.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("create route plan %s: insert plan: %w", plan.ID, err)
		}

		insertStop := `INSERT INTO stops (` + stopColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		stmt, err := tx.PrepareContext(ctx, s.rebind(insertStop))
		if err != nil {
			return fmt.Errorf("create route plan %s: prepare stop insert: %w", plan.ID, err)
		}
		defer stmt.Close()

		for _, st := range plan.Stops {
			matchIDs, err := json.Marshal(st.MatchIDs)
			if err != nil {
				return fmt.Errorf("create route plan %s: stop %s match ids: %w", plan.ID, st.ID, err)
			}
			_, err = stmt.ExecContext(ctx,
				st.ID, plan.ID, st.Seq, string(st.Kind), st.Name, st.Address, st.Location.Lat, st.Location.Lng,
				formatTime(st.Window.Start), formatTime(st.Window.End), st.ColdChain, string(matchIDs),
				formatTimePtr(st.CheckedInAt), st.Scanned, nullFloat(st.TemperatureC), formatTimePtr(st.CompletedAt),
			)
			if err != nil {
				return fmt.Errorf("create route plan %s: insert stop %d: %w", plan.ID, st.Seq, err)
			}
		}

		route := `UPDATE matches SET status = ?, volunteer_id = ?, pickup_stop_id = ?, dropoff_stop_id = ?
		WHERE id = ? AND status = ? AND volunteer_id = ''`
		for _, m := range routed {
			res, err := tx.ExecContext(ctx, s.rebind(route),
				string(m.Status), m.VolunteerID, m.PickupStopID, m.DropoffStopID,
				m.ID, string(domain.MatchPendingPickup),
			)
			if err != nil {
				return fmt.Errorf("create route plan %s: route match %s: %w", plan.ID, m.ID, err)
			}
			n, err := rowsAffected(res)
			if err != nil {
				return fmt.Errorf("create route plan %s: %w", plan.ID, err)
			}
			if n == 0 {
				if _, err := s.getMatch(ctx, tx, m.ID); err != nil {
					return fmt.Errorf("create route plan %s: %w", plan.ID, err)
				}
				return fmt.Errorf("create route plan %s: match %s already routed or closed: %w",
					plan.ID, m.ID, domain.ErrInvalidTransition)
			}
		}
		return nil
	})
}

func scanPlan(row scanner) (*domain.RoutePlan, error) {
	var (
		p       domain.RoutePlan
		created string
	)
	err := row.Scan(
		&p.ID, &p.VolunteerID, &p.Depot.Name, &p.Depot.Location.Lat, &p.Depot.Location.Lng,
		&p.TotalKm, &p.TotalMinutes, &created,
	)
	if err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("route plan %s created_at: %w", p.ID, err)
	}
	return &p, nil
}

func scanStop(row scanner) (domain.Stop, error) {
	var (
		st                     domain.Stop
		kind, matchIDs         string
		windowStart, windowEnd string
		checkedIn, completed   string
		temperature            sql.NullFloat64
	)
	err := row.Scan(
		&st.ID, &st.PlanID, &st.Seq, &kind, &st.Name, &st.Address, &st.Location.Lat, &st.Location.Lng,
		&windowStart, &windowEnd, &st.ColdChain, &matchIDs, &checkedIn, &st.Scanned, &temperature, &completed,
	)
	if err != nil {
		return domain.Stop{}, err
	}

	st.Kind = domain.StopKind(kind)
	if err := json.Unmarshal([]byte(matchIDs), &st.MatchIDs); err != nil {
		return domain.Stop{}, fmt.Errorf("stop %s match_ids: %w", st.ID, err)
	}
	if st.Window.Start, err = parseTime(windowStart); err != nil {
		return domain.Stop{}, fmt.Errorf("stop %s window_start: %w", st.ID, err)
	}
	if st.Window.End, err = parseTime(windowEnd); err != nil {
		return domain.Stop{}, fmt.Errorf("stop %s window_end: %w", st.ID, err)
	}
	if st.CheckedInAt, err = parseTimePtr(checkedIn); err != nil {
		return domain.Stop{}, fmt.Errorf("stop %s checked_in_at: %w", st.ID, err)
	}
	if st.CompletedAt, err = parseTimePtr(completed); err != nil {
		return domain.Stop{}, fmt.Errorf("stop %s completed_at: %w", st.ID, err)
	}
	if temperature.Valid {
		v := temperature.Float64
		st.TemperatureC = &v
	}
	return st, nil
}

func (s *SQLStore) loadStops(ctx context.Context, planIDs map[string]*domain.RoutePlan, where string, args ...any) error {
	query := `SELECT ` + stopColumns + ` FROM stops ` + where + ` ORDER BY plan_id, seq`
	rows, err := s.DB.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("query stops table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		st, err := scanStop(rows)
		if err != nil {
			return fmt.Errorf("scan stop row: %w", err)
		}
		if p, ok := planIDs[st.PlanID]; ok {
			p.Stops = append(p.Stops, st)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("stop row iteration: %w", err)
	}
	return nil
}

func (s *SQLStore) GetRoutePlan(ctx context.Context, id string) (*domain.RoutePlan, error) {
	if s.DB == nil {
		return nil, errors.New("get route plan: DB is nil")
	}

	query := `SELECT ` + planColumns + ` FROM route_plans WHERE id = ?`
	p, err := scanPlan(s.DB.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get route plan %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route plan %s: %w", id, err)
	}

	p.Stops = []domain.Stop{}
	if err := s.loadStops(ctx, map[string]*domain.RoutePlan{p.ID: p}, `WHERE plan_id = ?`, p.ID); err != nil {
		return nil, fmt.Errorf("get route plan %s: %w", id, err)
	}
	return p, nil
}

func (s *SQLStore) ListRoutePlans(ctx context.Context) ([]*domain.RoutePlan, error) {
	if s.DB == nil {
		return nil, errors.New("list route plans: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+planColumns+` FROM route_plans ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list route plans: query route_plans table: %w", err)
	}
	defer rows.Close()

	plans := make([]*domain.RoutePlan, 0, 16)
	byID := make(map[string]*domain.RoutePlan)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("list route plans: scan row: %w", err)
		}
		p.Stops = []domain.Stop{}
		plans = append(plans, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list route plans: row iteration: %w", err)
	}
	rows.Close()

	if len(plans) == 0 {
		return plans, nil
	}
	if err := s.loadStops(ctx, byID, ``); err != nil {
		return nil, fmt.Errorf("list route plans: %w", err)
	}
	return plans, nil
}

// UpdateStop writes only the reported execution columns of one stop, each guarded
// so a column that is already set is never overwritten. The plan row is locked
// first, so the write that closes the last open stop sees every other completion.
func (s *SQLStore) UpdateStop(ctx context.Context, planID, stopID string, upd domain.StopUpdate, at time.Time) (completed int, err error) {
	if upd.Empty() {
		return 0, fmt.Errorf("update stop %s: %w", stopID, &domain.ValidationError{Field: "update", Reason: "nothing to record"})
	}

	stamp := formatTime(at)
	var (
		sets      []string
		setArgs   []any
		guards    []string
		guardArgs []any
	)
	switch {
	case upd.CheckIn:
		sets = append(sets, `checked_in_at = ?`)
		setArgs = append(setArgs, stamp)
		guards = append(guards, `checked_in_at = ''`)
	case upd.Complete:
		sets = append(sets, `checked_in_at = CASE WHEN checked_in_at = '' THEN ? ELSE checked_in_at END`)
		setArgs = append(setArgs, stamp)
	}
	if upd.Scanned {
		sets = append(sets, `scanned = ?`)
		setArgs = append(setArgs, true)
		guards = append(guards, `scanned = ?`)
		guardArgs = append(guardArgs, false)
	}
	if upd.TemperatureC != nil {
		sets = append(sets, `temperature_c = ?`)
		setArgs = append(setArgs, *upd.TemperatureC)
		guards = append(guards, `temperature_c IS NULL`)
	}
	if upd.Complete {
		sets = append(sets, `completed_at = ?`)
		setArgs = append(setArgs, stamp)
		guards = append(guards, `completed_at = ''`)
	}

	query := `UPDATE stops SET ` + strings.Join(sets, `, `) + ` WHERE id = ? AND plan_id = ?`
	for _, g := range guards {
		query += ` AND ` + g
	}
	args := append(setArgs, stopID, planID)
	args = append(args, guardArgs...)

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`UPDATE route_plans SET id = id WHERE id = ?`), planID)
		if err != nil {
			return fmt.Errorf("update stop %s: lock plan %s: %w", stopID, planID, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return fmt.Errorf("update stop %s: %w", stopID, err)
		}
		if n == 0 {
			return fmt.Errorf("update stop %s: plan %s: %w", stopID, planID, domain.ErrNotFound)
		}

		res, err = tx.ExecContext(ctx, s.rebind(query), args...)
		if err != nil {
			return fmt.Errorf("update stop %s: %w", stopID, err)
		}
		if n, err = rowsAffected(res); err != nil {
			return fmt.Errorf("update stop %s: %w", stopID, err)
		}
		if n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM stops WHERE id = ? AND plan_id = ?`), stopID, planID).Scan(&exists)
			if err != nil {
				return fmt.Errorf("update stop %s: %w", stopID, err)
			}
			if exists == 0 {
				return fmt.Errorf("update stop %s: %w", stopID, domain.ErrNotFound)
			}
			return fmt.Errorf("update stop %s: %w", stopID, domain.ErrStopStateFinal)
		}

		var open int
		err = tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM stops WHERE plan_id = ? AND completed_at = ''`), planID).Scan(&open)
		if err != nil {
			return fmt.Errorf("update stop %s: count open stops: %w", stopID, err)
		}
		if open > 0 {
			return nil
		}

		res, err = tx.ExecContext(ctx, s.rebind(`UPDATE matches SET status = ?
		WHERE status = ? AND pickup_stop_id IN (SELECT id FROM stops WHERE plan_id = ?)`),
			string(domain.MatchCompleted), string(domain.MatchRouted), planID)
		if err != nil {
			return fmt.Errorf("update stop %s: complete matches: %w", stopID, err)
		}
		completed, err = rowsAffected(res)
		if err != nil {
			return fmt.Errorf("update stop %s: %w", stopID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return completed, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
