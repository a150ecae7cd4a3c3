package services

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
)

// RouteMetrics are the aggregate figures of one ordered route.
type RouteMetrics struct {
	DistanceKm    float64
	DurationHours float64
	FuelLiters    float64
	Polyline      string
	// LegPolylines[i] is the geometry from point i to point i+1.
	LegPolylines []string
}

// DurationMinutes is the unit daily duration limits are expressed in.
func (m RouteMetrics) DurationMinutes() float64 {
	return m.DurationHours * 60
}

type MetricsCalculator struct {
	computer ports.RouteComputer
}

func NewMetricsCalculator(computer ports.RouteComputer) *MetricsCalculator {
	return &MetricsCalculator{computer: computer}
}

// Compute makes one aggregate route call and one call per consecutive pair.
// Failures are returned as-is; retrying is left to the adapter and callers.
func (m *MetricsCalculator) Compute(
	ctx context.Context,
	points []domain.Coordinates,
	avoidTolls bool,
) (RouteMetrics, error) {
	if len(points) < 2 {
		return RouteMetrics{}, fmt.Errorf("compute route metrics: need at least 2 points, got %d", len(points))
	}

	summary, err := m.computer.ComputeRoute(ctx, points, avoidTolls)
	if err != nil {
		return RouteMetrics{}, fmt.Errorf("compute route metrics: %w", err)
	}

	legs := make([]string, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		leg, err := m.computer.ComputeRoute(ctx, points[i:i+2], avoidTolls)
		if err != nil {
			return RouteMetrics{}, fmt.Errorf("compute route metrics: leg %d: %w", i, err)
		}
		legs = append(legs, leg.Polyline)
	}

	return RouteMetrics{
		DistanceKm:    float64(summary.DistanceMeters) / 1000,
		DurationHours: summary.DurationSeconds / 3600,
		FuelLiters:    float64(summary.FuelMicroliters) / 1e6,
		Polyline:      summary.Polyline,
		LegPolylines:  legs,
	}, nil
}
