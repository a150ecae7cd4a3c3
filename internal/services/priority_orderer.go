package services

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
)

// Tiers are visited from the highest priority down.
var tierOrder = []domain.Priority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow}

// PriorityOrderer orders one cluster's stops tier by tier. The visiting order
// inside a tier is delegated to the mapping service; this type only decides
// which stops feed each call and how the tiers are chained.
type PriorityOrderer struct {
	optimizer ports.WaypointOptimizer
}

func NewPriorityOrderer(optimizer ports.WaypointOptimizer) *PriorityOrderer {
	return &PriorityOrderer{optimizer: optimizer}
}

// Order returns the cluster's stops in visiting order between start and end.
//
// Each non-empty tier runs from the running start (start, then the last stop of
// the previous tier) towards the centroid of the next non-empty tier, or towards
// end for the last tier. A cluster without stops yields an empty list.
func (o *PriorityOrderer) Order(
	ctx context.Context,
	stops []domain.Stop,
	start domain.Coordinates,
	end domain.Coordinates,
	avoidTolls bool,
) ([]domain.Stop, error) {
	tiers := splitTiers(stops)

	ordered := make([]domain.Stop, 0, len(stops))
	from := start
	for i, tier := range tiers {
		to := end
		if i+1 < len(tiers) {
			to, _ = domain.Centroid(stopCoords(tiers[i+1]))
		}

		sorted, err := o.orderTier(ctx, from, tier, to, avoidTolls)
		if err != nil {
			return nil, fmt.Errorf("order priority %d tier: %w", tier[0].Priority, err)
		}

		ordered = append(ordered, sorted...)
		from = sorted[len(sorted)-1].Coords
	}

	return ordered, nil
}

func (o *PriorityOrderer) orderTier(
	ctx context.Context,
	start domain.Coordinates,
	tier []domain.Stop,
	end domain.Coordinates,
	avoidTolls bool,
) ([]domain.Stop, error) {
	if len(tier) == 1 {
		return tier, nil
	}

	order, err := o.optimizer.OptimizeOrder(ctx, start, stopCoords(tier), end, avoidTolls)
	if err != nil {
		return nil, err
	}

	if err := checkPermutation(order, len(tier)); err != nil {
		return nil, &domain.UpstreamError{Op: "optimize waypoint order", Err: err}
	}

	out := make([]domain.Stop, 0, len(tier))
	for _, idx := range order {
		out = append(out, tier[idx])
	}
	return out, nil
}

// splitTiers groups stops by priority in visiting order, skipping empty tiers.
// Stops keep their input order within a tier.
func splitTiers(stops []domain.Stop) [][]domain.Stop {
	tiers := make([][]domain.Stop, 0, len(tierOrder))
	for _, p := range tierOrder {
		var tier []domain.Stop
		for _, s := range stops {
			if s.Priority == p {
				tier = append(tier, s)
			}
		}
		if len(tier) > 0 {
			tiers = append(tiers, tier)
		}
	}
	return tiers
}

func checkPermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("got %d indexes for %d waypoints", len(order), n)
	}

	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return fmt.Errorf("invalid waypoint order %v", order)
		}
		seen[idx] = true
	}
	return nil
}

func stopCoords(stops []domain.Stop) []domain.Coordinates {
	out := make([]domain.Coordinates, len(stops))
	for i, s := range stops {
		out[i] = s.Coords
	}
	return out
}
