package ports

import (
	"context"
	"route-planner-service/internal/domain"
)

// Port: persistence boundary for route sets.
// Missing documents are reported with an error matching domain.ErrNotFound.
type RouteSetRepository interface {
	// Store a new route set and return its generated id.
	Create(ctx context.Context, set *domain.RouteSet) (string, error)
	Get(ctx context.Context, id string) (*domain.RouteSet, error)
	// Replace the whole stored document (last write wins).
	Replace(ctx context.Context, set *domain.RouteSet) error
	// List a user's route sets, oldest first; activeOnly skips completed sets.
	List(ctx context.Context, userID string, activeOnly bool) ([]*domain.RouteSet, error)
	Delete(ctx context.Context, id string) error
}

// Port: persistence boundary for held-back locations, keyed by route set id.
type HeldBackRepository interface {
	GetHeldBack(ctx context.Context, routeSetID string) (*domain.HeldBackLocations, error)
	// Insert or replace the record.
	SaveHeldBack(ctx context.Context, h *domain.HeldBackLocations) error
	// Delete the record; deleting a missing record is not an error.
	DeleteHeldBack(ctx context.Context, routeSetID string) error
}
