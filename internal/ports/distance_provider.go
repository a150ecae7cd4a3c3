package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Distance and travel duration between two locations.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for retrieving travel distance and duration between coordinates.
type DistanceProvider interface {
	// Return travel distance and estimated duration between two points.
	GetDistance(ctx context.Context, origin, destination domain.Coordinates) (DistanceResult, error)
}
