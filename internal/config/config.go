package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Port string

	StoreDriver   string
	DBPath        string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	RedisURL      string

	GoogleMapsAPIKey string
	// MapsRateLimit is the sustained mapping-service request rate per second.
	MapsRateLimit float64

	JWTSecret  string
	KMeansSeed int64
}

// LoadDotEnv reads .env when present; a missing file is not an error.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}
}

// Load builds the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             Get("PORT", "8080"),
		StoreDriver:      strings.ToLower(Get("STORE_DRIVER", DriverSqlite)),
		DBPath:           Get("DB_PATH", "data/app.db"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		MongoURI:         Get("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    Get("MONGO_DATABASE", "route_planner"),
		RedisURL:         os.Getenv("REDIS_URL"),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.MapsRateLimit, err = strconv.ParseFloat(Get("MAPS_RATE_LIMIT", "10"), 64); err != nil {
		return nil, fmt.Errorf("load config: MAPS_RATE_LIMIT: %w", err)
	}
	if cfg.KMeansSeed, err = strconv.ParseInt(Get("KMEANS_SEED", "101"), 10, 64); err != nil {
		return nil, fmt.Errorf("load config: KMEANS_SEED: %w", err)
	}

	switch cfg.StoreDriver {
	case DriverSqlite, DriverMemory, DriverMongo:
	case DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, errors.New("load config: DATABASE_URL is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("load config: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

// Get returns the environment value for key, or fallback when unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
