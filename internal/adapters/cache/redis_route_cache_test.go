package cache

import (
	"context"
	"testing"
	"time"

	"food-rescue-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*RedisRouteCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisRouteCache(client, ttl), mr
}

func TestRedisRouteCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	eta := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	want := domain.RouteResult{
		OrderedStops: []domain.StopRequest{{
			Kind:      domain.StopPickup,
			Name:      "Pickup Bread",
			Location:  domain.LatLng{Lat: 1.35, Lng: 103.95},
			ColdChain: true,
			MatchIDs:  []string{"m-1"},
		}},
		ETAs:         []time.Time{eta},
		TotalKm:      12.4,
		TotalMinutes: 25,
		CO2Kg:        3.3,
		Warnings:     []string{"late"},
	}

	_, ok, err := c.GetRoute(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.PutRoute(ctx, "k1", want))
	assert.True(t, mr.Exists(RouteKeyPrefix+"k1"))

	got, ok, err := c.GetRoute(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.OrderedStops, got.OrderedStops)
	require.Len(t, got.ETAs, 1)
	assert.True(t, got.ETAs[0].Equal(eta))
	assert.Equal(t, want.TotalKm, got.TotalKm)
	assert.Equal(t, want.TotalMinutes, got.TotalMinutes)
	assert.Equal(t, want.Warnings, got.Warnings)
}

func TestRedisRouteCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)

	require.NoError(t, c.PutRoute(ctx, "k1", domain.RouteResult{TotalKm: 1}))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.GetRoute(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisRouteCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, 0)

	require.NoError(t, mr.Set(RouteKeyPrefix+"bad", "{not json"))

	_, ok, err := c.GetRoute(ctx, "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDialFailsFast(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := Dial(context.Background(), addr, "")
	assert.Error(t, err)
}
