package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food-rescue-service/internal/adapters/cache"
	"food-rescue-service/internal/adapters/repositories"
	"food-rescue-service/internal/api"
	"food-rescue-service/internal/config"
	"food-rescue-service/internal/domain"
	"food-rescue-service/internal/platform/db"
	"food-rescue-service/internal/ports"
	"food-rescue-service/internal/services"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var interruptSignals = []os.Signal{
	os.Interrupt,
	syscall.SIGTERM,
	syscall.SIGINT,
}

// main is the application composition root.
// It wires concrete adapters (SQL or in-memory store, Redis cache) behind ports and starts the HTTP server.
func main() {
	if !config.LoadDotEnv() {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), interruptSignals...)
	defer stop()

	clock := ports.SystemClock{}

	store, ping, closeStore, err := openStore(ctx, cfg, clock.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open store")
	}
	defer closeStore()

	planner := &services.RoutePlanner{
		Generator: services.RouteGenerator{
			SpeedKmh:    cfg.SpeedKmh,
			ServiceTime: cfg.ServiceTime,
			Clock:       clock,
		},
		Store: store,
		Clock: clock,
	}

	switch sqlStore, isSQL := store.(*repositories.SQLStore); {
	case cfg.RedisAddr != "":
		client, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to redis - check REDIS_ADDR")
		}
		defer client.Close()

		planner.Cache = cache.NewRedisRouteCache(client, cfg.RouteCacheTTL)
		log.Info().Str("redis_addr", cfg.RedisAddr).Dur("ttl", cfg.RouteCacheTTL).Msg("redis route cache enabled")
	case isSQL:
		routeCache := sqlStore.RouteCache(cfg.RouteCacheTTL, clock)
		if n, err := routeCache.PurgeExpired(ctx); err != nil {
			log.Warn().Err(err).Msg("purge route cache")
		} else if n > 0 {
			log.Info().Int("purged", n).Msg("expired route cache entries removed")
		}
		planner.Cache = routeCache
		log.Info().Dur("ttl", cfg.RouteCacheTTL).Msg("sql route cache enabled")
	}

	router := api.NewRouter(api.Dependencies{
		Store:   store,
		Planner: planner,
		Matcher: services.Matcher{Weights: &services.Weights{
			Expiry:   cfg.WeightExpiry,
			Distance: cfg.WeightDistance,
			Urgency:  cfg.WeightUrgency,
			Surplus:  cfg.WeightSurplus,
		}},
		Clock: clock,
		Depot: domain.Depot{
			Name:     cfg.DepotName,
			Location: domain.LatLng{Lat: cfg.DepotLat, Lng: cfg.DepotLng},
		},
		Ping: ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("db_driver", cfg.DBDriver).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("graceful shutdown HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		log.Info().Msg("HTTP server is stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

// openStore builds the configured store, initializes its schema and loads seed data
// for local runs. A missing seed file is skipped.
func openStore(ctx context.Context, cfg config.Config, now time.Time) (ports.Store, func(context.Context) error, func(), error) {
	if cfg.DBDriver == config.DriverMemory {
		store := repositories.NewMemoryStore()
		seed, err := repositories.LoadSeed(cfg.SeedPath, now)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warn().Str("seed_path", cfg.SeedPath).Msg("seed file not found, starting empty")
		case err != nil:
			return nil, nil, nil, fmt.Errorf("open store: %w", err)
		default:
			store.Seed(seed)
			log.Info().Int("offers", len(seed.Offers)).Int("needs", len(seed.Needs)).Msg("memory store seeded")
		}
		return store, nil, func() {}, nil
	}

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	store := repositories.NewSQLStore(conn, repositories.Dialect(cfg.DBDriver))
	if err := store.InitSchema(ctx); err != nil {
		conn.Close()
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	offers, needs, err := store.SeedFromJSON(ctx, cfg.SeedPath, now)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Warn().Str("seed_path", cfg.SeedPath).Msg("seed file not found, skipping")
	case err != nil:
		conn.Close()
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	default:
		log.Info().Int("offers", offers).Int("needs", needs).Msg("database seeded")
	}

	return store, conn.PingContext, func() { conn.Close() }, nil
}
