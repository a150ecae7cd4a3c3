package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Persistent address -> coordinates cache.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinates) error
}

// Persistent origin -> destination distance cache keyed by coordinate keys.
type DistanceCache interface {
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]DistanceResult, error)
	PutMany(ctx context.Context, origin string, results map[string]DistanceResult) error
}

// Coordinate key -> display name cache for reverse geocoding.
type AddressCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key string, name string) error
}
