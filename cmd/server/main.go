package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"route-planner-service/internal/adapters/cache"
	"route-planner-service/internal/adapters/identity"
	"route-planner-service/internal/adapters/maps"
	"route-planner-service/internal/adapters/repositories"
	"route-planner-service/internal/api"
	"route-planner-service/internal/config"
	"route-planner-service/internal/platform/db"
	"route-planner-service/internal/platform/metrics"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
	"strings"
	"syscall"
	"time"
)

type store interface {
	ports.RouteSetRepository
	ports.HeldBackRepository
}

// main is the application composition root.
// It wires concrete adapters (store, caches, Google Maps) behind ports and starts the HTTP server.
func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if strings.TrimSpace(cfg.GoogleMapsAPIKey) == "" {
		log.Fatal("GOOGLE_MAPS_API_KEY is required")
	}

	identities, err := identity.NewJWTResolver(cfg.JWTSecret)
	if err != nil {
		log.Fatalf("JWT_SECRET is required: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	routes, caches, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	// A shared Redis cache takes over reverse-geocoded names when configured.
	if cfg.RedisURL != "" {
		addresses, err := cache.NewRedisAddressCache(cfg.RedisURL, 0)
		if err != nil {
			log.Fatal(err)
		}
		if err := addresses.Ping(ctx); err != nil {
			log.Fatal(err)
		}
		defer addresses.Close()
		caches.Address = addresses
	}

	provider, err := maps.NewGoogleProvider(cfg.GoogleMapsAPIKey, cfg.MapsRateLimit, caches)
	if err != nil {
		log.Fatal(err)
	}

	metrics.Register()

	planner := services.NewPlanner(provider, cfg.KMeansSeed)
	lifecycle := services.NewLifecycle(planner, provider, routes, routes)
	stats := services.NewStatistics(routes, provider)
	router := api.NewRouter(lifecycle, stats, identities)

	// Timeouts are tuned for cold-cache route planning (external API latency).
	log.Printf("Server listening addr=:%s store=%s", cfg.Port, cfg.StoreDriver)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}

// openStore opens the configured route-set store together with the mapping
// caches that live next to it.
func openStore(ctx context.Context, cfg *config.Config) (store, maps.Caches, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		conn, err := db.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, maps.Caches{}, nil, err
		}
		if err := repositories.InitPostgresSchema(conn); err != nil {
			conn.Close()
			return nil, maps.Caches{}, nil, err
		}
		caches := maps.Caches{
			Geocode:  cache.NewSQLGeocodeCache(conn),
			Distance: cache.NewSQLDistanceCache(conn),
			Address:  cache.NewPostgresAddressCache(conn),
		}
		return repositories.NewPostgresRouteRepository(conn), caches, func() { conn.Close() }, nil

	case config.DriverMongo:
		repo, err := repositories.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, maps.Caches{}, nil, err
		}
		// Mapping caches stay in the local SQLite file.
		conn, caches, err := openSqliteCaches(cfg.DBPath)
		if err != nil {
			_ = repo.Close(context.Background())
			return nil, maps.Caches{}, nil, err
		}
		closeAll := func() {
			conn.Close()
			_ = repo.Close(context.Background())
		}
		return repo, caches, closeAll, nil

	case config.DriverMemory:
		return repositories.NewMemoryStore(), maps.Caches{}, func() {}, nil

	default:
		conn, caches, err := openSqliteCaches(cfg.DBPath)
		if err != nil {
			return nil, maps.Caches{}, nil, err
		}
		return repositories.NewSqliteRouteRepository(conn), caches, func() { conn.Close() }, nil
	}
}

func openSqliteCaches(path string) (*sql.DB, maps.Caches, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, maps.Caches{}, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}

	conn, err := db.OpenSqlite(path)
	if err != nil {
		return nil, maps.Caches{}, err
	}
	if err := repositories.InitSchema(conn); err != nil {
		conn.Close()
		return nil, maps.Caches{}, err
	}

	return conn, maps.Caches{
		Geocode:  cache.NewSqliteGeocodeCache(conn),
		Distance: cache.NewSqliteDistanceCache(conn),
		Address:  cache.NewSqliteAddressCache(conn),
	}, nil
}
