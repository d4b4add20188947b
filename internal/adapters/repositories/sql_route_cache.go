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
	"food-rescue-service/internal/platform/obs"
	"food-rescue-service/internal/ports"
)

// SQLRouteCache keeps generated routes in the route_cache table. It is the cache
// used when no Redis is configured.
type SQLRouteCache struct {
	store *SQLStore
	ttl   time.Duration
	clock ports.Clock
}

// RouteCache returns a route cache sharing the store's connection. Entries older
// than ttl are treated as misses; ttl <= 0 keeps them forever.
func (s *SQLStore) RouteCache(ttl time.Duration, clock ports.Clock) *SQLRouteCache {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &SQLRouteCache{store: s, ttl: ttl, clock: clock}
}

func (c *SQLRouteCache) GetRoute(ctx context.Context, key string) (_ domain.RouteResult, _ bool, err error) {
	defer obs.Time(ctx, "routes.cache.sql.Get")(&err)

	if strings.TrimSpace(key) == "" {
		return domain.RouteResult{}, false, errors.New("get route cache: key must not be empty")
	}

	var raw, expires string
	err = c.store.DB.QueryRowContext(ctx,
		c.store.rebind(`SELECT result, expires_at FROM route_cache WHERE cache_key = ?`), key,
	).Scan(&raw, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RouteResult{}, false, nil
	}
	if err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("get route cache: query route_cache table: %w", err)
	}

	exp, err := parseTime(expires)
	if err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("get route cache: parse expires_at: %w", err)
	}
	if !exp.IsZero() && !c.clock.Now().Before(exp) {
		return domain.RouteResult{}, false, nil
	}

	var r domain.RouteResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("get route cache: decode %q: %w", key, err)
	}
	return r, true, nil
}

func (c *SQLRouteCache) PutRoute(ctx context.Context, key string, r domain.RouteResult) (err error) {
	defer obs.Time(ctx, "routes.cache.sql.Put")(&err)

	if strings.TrimSpace(key) == "" {
		return errors.New("insert route cache: key must not be empty")
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("insert route cache: encode: %w", err)
	}

	var expires time.Time
	if c.ttl > 0 {
		expires = c.clock.Now().Add(c.ttl)
	}

	_, err = c.store.DB.ExecContext(ctx, c.store.rebind(`
		INSERT INTO route_cache (cache_key, result, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE
		SET result = excluded.result,
			expires_at = excluded.expires_at`),
		key, string(raw), formatTime(expires),
	)
	if err != nil {
		return fmt.Errorf("insert route cache key=%q: %w", key, err)
	}
	return nil
}

// PurgeExpired deletes entries that expired before now and returns how many were removed.
func (c *SQLRouteCache) PurgeExpired(ctx context.Context) (int, error) {
	res, err := c.store.DB.ExecContext(ctx,
		c.store.rebind(`DELETE FROM route_cache WHERE expires_at <> '' AND expires_at <= ?`),
		formatTime(c.clock.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("purge route cache: %w", err)
	}
	return rowsAffected(res)
}
