package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DB_DRIVER values. DriverMemory keeps everything in process and skips the database.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
	DriverMemory   = "memory"
)

// Config is the runtime configuration of the server and dbtool.
type Config struct {
	Environment string
	Port        string

	DBDriver    string
	DBPath      string
	DatabaseURL string
	SeedPath    string

	RedisAddr     string
	RedisPassword string
	RouteCacheTTL time.Duration

	DepotLat  float64
	DepotLng  float64
	DepotName string

	SpeedKmh    float64
	ServiceTime time.Duration

	WeightExpiry   float64
	WeightDistance float64
	WeightUrgency  float64
	WeightSurplus  float64
}

// LoadDotEnv reads .env into the process environment. A missing file is not an error.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var errs []string
	float := func(key string, fallback float64) float64 {
		v, err := GetFloat(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}
	duration := func(key string, fallback time.Duration) time.Duration {
		v, err := GetDuration(key, fallback)
		if err != nil {
			errs = append(errs, err.Error())
		}
		return v
	}

	cfg := Config{
		Environment: Get("APP_ENV", "development"),
		Port:        Get("PORT", "8080"),

		DBDriver:    Get("DB_DRIVER", DriverSQLite),
		DBPath:      Get("DB_PATH", "data/app.db"),
		DatabaseURL: Get("DATABASE_URL", ""),
		SeedPath:    Get("SEED_PATH", "data/seeds/seed.json"),

		RedisAddr:     Get("REDIS_ADDR", ""),
		RedisPassword: Get("REDIS_PASSWORD", ""),
		RouteCacheTTL: duration("ROUTE_CACHE_TTL", 10*time.Minute),

		DepotLat:  float("DEPOT_LAT", 1.3329),
		DepotLng:  float("DEPOT_LNG", 103.7436),
		DepotName: Get("DEPOT_NAME", "Jurong Hub"),

		SpeedKmh:    float("SPEED_KMH", 30),
		ServiceTime: duration("SERVICE_TIME", 15*time.Minute),

		WeightExpiry:   float("MATCH_WEIGHT_EXPIRY", 0.5),
		WeightDistance: float("MATCH_WEIGHT_DISTANCE", 0.3),
		WeightUrgency:  float("MATCH_WEIGHT_URGENCY", 0.15),
		WeightSurplus:  float("MATCH_WEIGHT_SURPLUS", 0.05),
	}

	switch cfg.DBDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			errs = append(errs, "DATABASE_URL is required when DB_DRIVER=pgx")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be sqlite, pgx or memory, got %q", cfg.DBDriver))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("load config: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// DSN is the data source for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == DriverPostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetFloat(key string, fallback float64) (float64, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback, fmt.Errorf("%s: %q is not a number", key, v)
	}
	return f, nil
}

func GetDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %q is not a duration", key, v)
	}
	return d, nil
}
