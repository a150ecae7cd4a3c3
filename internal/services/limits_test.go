package services

import (
	"errors"
	"route-planner-service/internal/domain"
	"testing"
)

func candidateWith(metrics ...RouteMetrics) Candidate {
	c := Candidate{}
	for i, m := range metrics {
		c.Routes = append(c.Routes, PlannedRoute{Label: i, Metrics: m})
	}
	return c
}

func limit(v float64) *float64 { return &v }

func TestFilterByLimitsKeepsCandidatesWithinBothLimits(t *testing.T) {
	// build test data
	fits := candidateWith(RouteMetrics{DistanceKm: 40, DurationHours: 1}, RouteMetrics{DistanceKm: 50, DurationHours: 1.5})
	tooFar := candidateWith(RouteMetrics{DistanceKm: 40, DurationHours: 1}, RouteMetrics{DistanceKm: 51, DurationHours: 1})
	tooLong := candidateWith(RouteMetrics{DistanceKm: 10, DurationHours: 2})

	// call the method under test
	kept, err := FilterByLimits([]Candidate{fits, tooFar, tooLong}, limit(50), limit(90))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(kept) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(kept))
	}
	if kept[0].Routes[1].Metrics.DistanceKm != 50 {
		t.Fatalf("expected the fitting candidate to survive")
	}
}

func TestFilterByLimitsDistanceFailsFirst(t *testing.T) {
	candidates := []Candidate{candidateWith(RouteMetrics{DistanceKm: 100, DurationHours: 10})}

	_, err := FilterByLimits(candidates, limit(1), limit(1))
	if !errors.Is(err, domain.ErrDistanceLimitTooSmall) {
		t.Fatalf("expected distance limit error, got %v", err)
	}
	if !errors.Is(err, domain.ErrInfeasible) {
		t.Fatalf("expected infeasible kind, got %v", err)
	}
}

func TestFilterByLimitsDurationInMinutes(t *testing.T) {
	candidates := []Candidate{candidateWith(RouteMetrics{DistanceKm: 10, DurationHours: 0.5})}

	kept, err := FilterByLimits(candidates, nil, limit(30))
	if err != nil || len(kept) != 1 {
		t.Fatalf("expected 30 minute route to fit a 30 minute limit, got %d kept, err %v", len(kept), err)
	}

	_, err = FilterByLimits(candidates, nil, limit(29))
	if !errors.Is(err, domain.ErrDurationLimitTooSmall) {
		t.Fatalf("expected duration limit error, got %v", err)
	}
}

func TestFilterByLimitsUnbounded(t *testing.T) {
	candidates := []Candidate{candidateWith(RouteMetrics{DistanceKm: 1e6, DurationHours: 1e3})}

	kept, err := FilterByLimits(candidates, nil, nil)
	if err != nil || len(kept) != 1 {
		t.Fatalf("expected candidate to pass without limits, got %d kept, err %v", len(kept), err)
	}
}

func TestFilterByLimitsEmptyInput(t *testing.T) {
	kept, err := FilterByLimits(nil, limit(1), limit(1))
	if err != nil || kept != nil {
		t.Fatalf("expected nil, nil for empty input, got %v, %v", kept, err)
	}
}
