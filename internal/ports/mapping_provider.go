package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Geocoder resolves addresses to coordinates and back to display names.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
	ReverseGeocode(ctx context.Context, point domain.Coordinates) (string, error)
}

// WaypointOptimizer returns a locally optimal visiting order for waypoints
// travelled between start and end, as a permutation of waypoint indexes.
type WaypointOptimizer interface {
	OptimizeOrder(
		ctx context.Context,
		start domain.Coordinates,
		waypoints []domain.Coordinates,
		end domain.Coordinates,
		avoidTolls bool,
	) ([]int, error)
}

// Aggregate result of one route computation over an ordered point list.
type RouteSummary struct {
	DistanceMeters  int
	DurationSeconds float64
	Polyline        string
	FuelMicroliters int64
}

// RouteComputer computes driving metrics for an ordered point list (>= 2 points).
// A two-point call yields the geometry of a single leg.
type RouteComputer interface {
	ComputeRoute(ctx context.Context, points []domain.Coordinates, avoidTolls bool) (RouteSummary, error)
}

// MappingProvider is the full mapping-service surface consumed by the planner.
type MappingProvider interface {
	Geocoder
	WaypointOptimizer
	RouteComputer
	DistanceProvider
}
