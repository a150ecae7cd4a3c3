package services

import (
	"context"
	"fmt"
	"math"
	"route-planner-service/internal/domain"
	"sort"
)

// PlannedRoute is one cluster's ordered route with its computed metrics.
type PlannedRoute struct {
	Label int
	Start domain.Coordinates
	End   domain.Coordinates
	// Stops are the intermediate stops in visiting order; StopIndexes maps
	// each of them back to its index in the planning request.
	Stops       []domain.Stop
	StopIndexes []int
	Metrics     RouteMetrics
}

// Points returns the full ordered point list including both endpoints.
func (r PlannedRoute) Points() []domain.Coordinates {
	points := make([]domain.Coordinates, 0, len(r.Stops)+2)
	points = append(points, r.Start)
	points = append(points, stopCoords(r.Stops)...)
	return append(points, r.End)
}

// Candidate is one complete assignment of stops to days.
// Routes are in day-chain order.
type Candidate struct {
	Labels []int
	Routes []PlannedRoute
}

// RecomputeFunc rebuilds a candidate's routes and metrics for a label assignment.
type RecomputeFunc func(ctx context.Context, labels []int) (Candidate, error)

// Recluster runs the bounded repair loop starting from initial and returns every
// candidate produced, initial first.
//
// Each iteration moves one stop from the longest route able to donate to the
// shortest route and recomputes. The loop stops after maxIterations or as soon
// as no route can donate.
func Recluster(
	ctx context.Context,
	initial Candidate,
	stops []domain.Stop,
	maxIterations int,
	recompute RecomputeFunc,
) ([]Candidate, error) {
	candidates := []Candidate{initial}
	current := initial

	for i := 0; i < maxIterations; i++ {
		labels, ok := nextAssignment(current, stops)
		if !ok {
			break
		}

		next, err := recompute(ctx, labels)
		if err != nil {
			return nil, fmt.Errorf("recluster: iteration %d: %w", i+1, err)
		}

		candidates = append(candidates, next)
		current = next
	}

	return candidates, nil
}

// nextAssignment moves one stop from the donor route to the shortest route.
//
// The donor is the longest route with at least two intermediate stops whose
// distance is strictly greater than the shortest route's. When routes tie with
// the shortest, or no long route has a stop to spare, the assignment is
// unrepairable and ok is false.
func nextAssignment(c Candidate, stops []domain.Stop) (labels []int, ok bool) {
	if len(c.Routes) < 2 {
		return nil, false
	}

	shortest := 0
	for i, r := range c.Routes {
		if r.Metrics.DistanceKm < c.Routes[shortest].Metrics.DistanceKm {
			shortest = i
		}
	}
	receiver := c.Routes[shortest]

	byLength := make([]int, len(c.Routes))
	for i := range byLength {
		byLength[i] = i
	}
	sort.SliceStable(byLength, func(a, b int) bool {
		return c.Routes[byLength[a]].Metrics.DistanceKm > c.Routes[byLength[b]].Metrics.DistanceKm
	})

	donor := -1
	for _, idx := range byLength {
		r := c.Routes[idx]
		if r.Metrics.DistanceKm <= receiver.Metrics.DistanceKm {
			break
		}
		if len(r.StopIndexes) >= 2 {
			donor = idx
			break
		}
	}
	if donor < 0 {
		return nil, false
	}

	target, ok := domain.Centroid(stopCoords(receiver.Stops))
	if !ok {
		target, _ = domain.Centroid([]domain.Coordinates{receiver.Start, receiver.End})
	}

	moved := -1
	best := math.Inf(1)
	for _, idx := range c.Routes[donor].StopIndexes {
		if d := stops[idx].Coords.DistanceMeters(target); d < best {
			best = d
			moved = idx
		}
	}

	labels = append([]int(nil), c.Labels...)
	labels[moved] = receiver.Label
	return labels, true
}
