package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
)

const (
	RouteKeyPrefix  = "routes:result:"
	DefaultRouteTTL = 10 * time.Minute
)

// RedisRouteCache stores generated routes as JSON under a TTL.
type RedisRouteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRouteCache(client *redis.Client, ttl time.Duration) *RedisRouteCache {
	if ttl <= 0 {
		ttl = DefaultRouteTTL
	}
	return &RedisRouteCache{client: client, ttl: ttl}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis dial %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisRouteCache) GetRoute(ctx context.Context, key string) (_ domain.RouteResult, ok bool, err error) {
	defer obs.Time(ctx, "route.cache.Get")(&err)

	if c.client == nil {
		return domain.RouteResult{}, false, errors.New("route cache: client is nil")
	}

	data, err := c.client.Get(ctx, RouteKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.RouteResult{}, false, nil
	}
	if err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("route cache get: %w", err)
	}

	var res domain.RouteResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.RouteResult{}, false, fmt.Errorf("route cache get: decode: %w", err)
	}
	return res, true, nil
}

func (c *RedisRouteCache) PutRoute(ctx context.Context, key string, result domain.RouteResult) (err error) {
	defer obs.Time(ctx, "route.cache.Put")(&err)

	if c.client == nil {
		return errors.New("route cache: client is nil")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("route cache put: encode: %w", err)
	}
	if err := c.client.Set(ctx, RouteKeyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("route cache put: %w", err)
	}
	return nil
}
