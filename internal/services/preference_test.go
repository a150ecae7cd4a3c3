package services

import (
	"errors"
	"route-planner-service/internal/domain"
	"testing"
)

func TestSelectPreferredMinimizesSummedMetric(t *testing.T) {
	// build test data
	short := candidateWith(RouteMetrics{DistanceKm: 10, DurationHours: 3, FuelLiters: 2}, RouteMetrics{DistanceKm: 10, DurationHours: 3, FuelLiters: 2})
	fast := candidateWith(RouteMetrics{DistanceKm: 30, DurationHours: 1, FuelLiters: 3}, RouteMetrics{DistanceKm: 5, DurationHours: 1, FuelLiters: 3})
	frugal := candidateWith(RouteMetrics{DistanceKm: 25, DurationHours: 2, FuelLiters: 1})
	candidates := []Candidate{short, fast, frugal}

	cases := []struct {
		pref domain.Preference
		want float64
	}{
		{pref: domain.PreferDistance, want: 20},
		{pref: domain.PreferDuration, want: 2},
		{pref: domain.PreferFuel, want: 1},
	}

	for _, tc := range cases {
		// call the method under test
		best, err := SelectPreferred(candidates, tc.pref)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.pref, err)
		}
		if got := preferenceSum(best, tc.pref); got != tc.want {
			t.Fatalf("%s: selected sum = %v, want %v", tc.pref, got, tc.want)
		}
		for i, c := range candidates {
			if preferenceSum(c, tc.pref) < preferenceSum(best, tc.pref) {
				t.Fatalf("%s: candidate %d beats the selection", tc.pref, i)
			}
		}
	}
}

func TestSelectPreferredFirstWinsTies(t *testing.T) {
	first := candidateWith(RouteMetrics{DistanceKm: 10, FuelLiters: 1})
	second := candidateWith(RouteMetrics{DistanceKm: 10, FuelLiters: 2})

	best, err := SelectPreferred([]Candidate{first, second}, domain.PreferDistance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Routes[0].Metrics.FuelLiters != 1 {
		t.Fatalf("expected the first candidate on a tie")
	}
}

func TestSelectPreferredEmpty(t *testing.T) {
	_, err := SelectPreferred(nil, domain.PreferFuel)
	if !errors.Is(err, domain.ErrNoFeasibleRoutes) || !errors.Is(err, domain.ErrInfeasible) {
		t.Fatalf("expected no feasible routes error, got %v", err)
	}
}
