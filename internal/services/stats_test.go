package services

import (
	"context"
	"errors"
	"route-planner-service/internal/domain"
	"testing"
)

func TestStatisticsEmptyWindow(t *testing.T) {
	l, store, provider := newTestLifecycle(t)
	generate(t, l, "user-1", GenerateRequest{PlanRequest: baseRequest(1, []string{"Alpha"}, []int{1})})

	// call the method under test
	stats, err := NewStatistics(store, provider).Window(context.Background(), "user-1", "01.01.2026", "31.01.2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.CompletedRoutes != 0 || stats.DistanceKm != 0 || stats.DurationHours != 0 || stats.FuelLiters != 0 {
		t.Fatalf("expected zero sums, got %+v", stats)
	}
	if stats.VisitedLocations != 0 || stats.UnvisitedLocations != 0 {
		t.Fatalf("expected no locations, got %+v", stats)
	}
	if len(stats.TopVisited) != 0 || len(stats.TopMissed) != 0 || len(stats.TopDepots) != 0 {
		t.Fatalf("expected empty rankings, got %+v", stats)
	}
	if len(stats.CompletionsByWeekday) != 7 || len(stats.PriorityCounts) != 3 {
		t.Fatalf("expected every weekday and priority to be present")
	}
}

func TestStatisticsWindowAggregatesCompletedRoutes(t *testing.T) {
	l, store, provider := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha", "Bravo", "Charlie"}, []int{3, 2, 2}),
	})
	route := set.Routes[0]
	skipped := locationOf(t, route, "Charlie")

	var res *MarkResult
	var err error
	for _, w := range route.Waypoints {
		res, err = mark(l, "user-1", set.ID, 0, w.LocationNumber, w.LocationNumber != skipped, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// an incomplete set of the same user is ignored
	generate(t, l, "user-1", GenerateRequest{PlanRequest: baseRequest(1, []string{"Delta"}, []int{1})})

	stats, err := NewStatistics(store, provider).Window(context.Background(), "user-1", "10.03.2026", "10.03.2026")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.CompletedRoutes != 1 {
		t.Fatalf("expected 1 completed route, got %d", stats.CompletedRoutes)
	}
	if stats.DistanceKm != res.Route.DistanceKm || stats.FuelLiters != res.Route.FuelLiters {
		t.Fatalf("sums do not match the completed route: %+v", stats)
	}
	if stats.CompletionsByWeekday["Tuesday"] != 1 {
		t.Fatalf("expected a Tuesday completion, got %v", stats.CompletionsByWeekday)
	}
	if stats.VisitedLocations != 2 || stats.UnvisitedLocations != 1 {
		t.Fatalf("visited = %d, unvisited = %d", stats.VisitedLocations, stats.UnvisitedLocations)
	}
	if stats.PriorityCounts[domain.PriorityHigh] != 1 || stats.PriorityCounts[domain.PriorityMedium] != 1 {
		t.Fatalf("unexpected priority counts %v", stats.PriorityCounts)
	}
	if len(stats.TopMissed) != 1 || stats.TopMissed[0] != (AddressCount{Address: "Charlie", Count: 1}) {
		t.Fatalf("unexpected missed ranking %+v", stats.TopMissed)
	}
	// the depot opens and closes the route but counts once
	if len(stats.TopDepots) != 1 || stats.TopDepots[0] != (AddressCount{Address: "Depot", Count: 1}) {
		t.Fatalf("unexpected depot ranking %+v", stats.TopDepots)
	}

	// another user sees nothing
	other, err := NewStatistics(store, provider).Window(context.Background(), "user-2", "10.03.2026", "10.03.2026")
	if err != nil || other.CompletedRoutes != 0 {
		t.Fatalf("expected no routes for another user, got %+v (err %v)", other, err)
	}
}

func TestStatisticsWindowValidatesDates(t *testing.T) {
	s := NewStatistics(nil, nil)

	cases := [][2]string{
		{"2026-03-01", "10.03.2026"},
		{"01.03.2026", "31.02.2026"},
		{"10.03.2026", "09.03.2026"},
	}
	for _, tc := range cases {
		if _, err := s.Window(context.Background(), "user-1", tc[0], tc[1]); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Window(%q, %q): expected validation error, got %v", tc[0], tc[1], err)
		}
	}
}

func TestStatisticsAllAddresses(t *testing.T) {
	l, store, provider := newTestLifecycle(t)
	generate(t, l, "user-1", GenerateRequest{PlanRequest: baseRequest(1, []string{"Bravo", "Alpha"}, []int{1, 1})})
	generate(t, l, "user-1", GenerateRequest{PlanRequest: baseRequest(1, []string{"Bravo"}, []int{1})})

	ranked, err := NewStatistics(store, provider).AllAddresses(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Depot appears four times across two routes and is halved
	want := []AddressCount{
		{Address: "Bravo", Count: 2},
		{Address: "Depot", Count: 2},
		{Address: "Alpha", Count: 1},
	}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d addresses, got %+v", len(want), ranked)
	}
	for i, w := range want {
		if ranked[i].Address != w.Address || ranked[i].Count != w.Count {
			t.Fatalf("rank %d = %+v, want %+v", i, ranked[i], w)
		}
	}
	if ranked[2].Coords != (domain.Coordinates{Lat: 52.01, Lng: 21.01}) {
		t.Fatalf("unexpected coordinates for Alpha: %v", ranked[2].Coords)
	}
}

func TestRankAddresses(t *testing.T) {
	ranked := rankAddresses(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1}, 3)

	want := []AddressCount{{Address: "c", Count: 5}, {Address: "a", Count: 2}, {Address: "b", Count: 2}}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(ranked))
	}
	for i := range want {
		if ranked[i] != want[i] {
			t.Fatalf("rank %d = %+v, want %+v", i, ranked[i], want[i])
		}
	}
}
