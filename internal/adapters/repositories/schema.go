package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// InitSchema creates the tables when they do not exist. The DDL is shared by SQLite and Postgres.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("init schema: DB is nil")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS offers (
			id TEXT PRIMARY KEY,
			donor_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL,
			quantity DOUBLE PRECISION NOT NULL,
			unit TEXT NOT NULL DEFAULT '',
			storage TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			pickup_start TEXT NOT NULL DEFAULT '',
			pickup_end TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS needs (
			id TEXT PRIMARY KEY,
			beneficiary_id TEXT NOT NULL,
			category TEXT NOT NULL,
			min_quantity DOUBLE PRECISION NOT NULL,
			urgency TEXT NOT NULL,
			accepted_storage TEXT NOT NULL,
			delivery_preferred BOOLEAN NOT NULL DEFAULT FALSE,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id TEXT PRIMARY KEY,
			offer_id TEXT NOT NULL REFERENCES offers(id),
			need_id TEXT NOT NULL REFERENCES needs(id),
			quantity DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			approved_by TEXT NOT NULL DEFAULT '',
			volunteer_id TEXT NOT NULL DEFAULT '',
			pickup_stop_id TEXT NOT NULL DEFAULT '',
			dropoff_stop_id TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS route_plans (
			id TEXT PRIMARY KEY,
			volunteer_id TEXT NOT NULL,
			depot_name TEXT NOT NULL DEFAULT '',
			depot_lat DOUBLE PRECISION NOT NULL,
			depot_lng DOUBLE PRECISION NOT NULL,
			total_km DOUBLE PRECISION NOT NULL,
			total_minutes INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS stops (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL REFERENCES route_plans(id),
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			window_start TEXT NOT NULL DEFAULT '',
			window_end TEXT NOT NULL DEFAULT '',
			cold_chain BOOLEAN NOT NULL DEFAULT FALSE,
			match_ids TEXT NOT NULL DEFAULT '[]',
			checked_in_at TEXT NOT NULL DEFAULT '',
			scanned BOOLEAN NOT NULL DEFAULT FALSE,
			temperature_c DOUBLE PRECISION,
			completed_at TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS route_cache (
			cache_key TEXT PRIMARY KEY,
			result TEXT NOT NULL,
			expires_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_need ON matches(need_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_offer ON matches(offer_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_stops_plan_seq ON stops(plan_id, seq)`,
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
			}
		}
		return nil
	})
}

// SeedFromJSON loads a seed file and inserts its records, leaving existing ids untouched.
func (s *SQLStore) SeedFromJSON(ctx context.Context, jsonPath string, now time.Time) (offers, needs int, err error) {
	seed, err := LoadSeed(jsonPath, now)
	if err != nil {
		return 0, 0, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, o := range seed.Offers {
			n, err := s.insertOffer(ctx, tx, o, true)
			if err != nil {
				return fmt.Errorf("seed: insert offer %s: %w", o.ID, err)
			}
			offers += n
		}
		for _, nd := range seed.Needs {
			n, err := s.insertNeed(ctx, tx, nd, true)
			if err != nil {
				return fmt.Errorf("seed: insert need %s: %w", nd.ID, err)
			}
			needs += n
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return offers, needs, nil
}
