package services

import (
	"context"
	"errors"
	"reflect"
	"route-planner-service/internal/adapters/maps"
	"route-planner-service/internal/adapters/repositories"
	"route-planner-service/internal/domain"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func newTestLifecycle(t *testing.T) (*Lifecycle, *repositories.MemoryStore, *maps.MockProvider) {
	t.Helper()

	provider := newTestMock()
	store := repositories.NewMemoryStore()
	l := NewLifecycle(NewPlanner(provider, DefaultClusterSeed), provider, store, store)
	l.now = func() time.Time { return fixedNow }
	return l, store, provider
}

func generate(t *testing.T, l *Lifecycle, userID string, req GenerateRequest) *domain.RouteSet {
	t.Helper()

	set, err := l.Generate(context.Background(), userID, req)
	if err != nil {
		t.Fatalf("generate: unexpected error: %v", err)
	}
	return set
}

func mark(l *Lifecycle, userID, routesID string, route, location int, visited bool, keep *bool) (*MarkResult, error) {
	return l.MarkWaypoint(context.Background(), userID, MarkWaypointRequest{
		RoutesID:       routesID,
		RouteNumber:    route,
		LocationNumber: location,
		Visited:        visited,
		ShouldKeep:     keep,
	})
}

func locationOf(t *testing.T, r domain.Route, name string) int {
	t.Helper()

	for _, w := range r.Waypoints {
		if w.Name == name && !w.IsDepot {
			return w.LocationNumber
		}
	}
	t.Fatalf("waypoint %q not found in route %d", name, r.Number)
	return -1
}

func TestLifecycleGenerateStoresNewRouteSet(t *testing.T) {
	l, store, _ := newTestLifecycle(t)

	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(2, []string{"Alpha", "Charlie"}, []int{3, 2}),
		Name:        "  Week 11 ",
	})

	if set.ID == "" {
		t.Fatalf("expected an id")
	}
	stored, err := store.Get(context.Background(), set.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.UserID != "user-1" || stored.Name != "Week 11" || !stored.GeneratedAt.Equal(fixedNow) {
		t.Fatalf("unexpected stored set %+v", stored)
	}
	if stored.Completed || len(stored.Routes) != 2 {
		t.Fatalf("expected 2 incomplete routes, got %d (completed %v)", len(stored.Routes), stored.Completed)
	}
	for _, r := range stored.Routes {
		if !r.Waypoints[0].IsDepot || !r.Waypoints[len(r.Waypoints)-1].IsDepot {
			t.Fatalf("route %d is not bookended by depots", r.Number)
		}
	}
}

func TestLifecycleGenerateFailureWritesNothing(t *testing.T) {
	l, store, _ := newTestLifecycle(t)

	req := baseRequest(1, []string{"Charlie"}, []int{1})
	req.DistanceLimit = limit(0.01)

	_, err := l.Generate(context.Background(), "user-1", GenerateRequest{PlanRequest: req})
	if !errors.Is(err, domain.ErrDistanceLimitTooSmall) {
		t.Fatalf("expected distance limit error, got %v", err)
	}

	sets, err := store.List(context.Background(), "user-1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 0 {
		t.Fatalf("expected no stored route sets, got %d", len(sets))
	}
}

func TestLifecycleMarkEveryWaypointCompletesRoute(t *testing.T) {
	l, _, provider := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha", "Bravo"}, []int{2, 2}),
	})
	route := set.Routes[0]
	if len(route.Waypoints) != 4 {
		t.Fatalf("expected 4 waypoints, got %d", len(route.Waypoints))
	}

	var res *MarkResult
	var err error
	for _, w := range route.Waypoints {
		if res != nil && res.Route.Completed {
			t.Fatalf("route completed before every waypoint was marked")
		}
		res, err = mark(l, "user-1", set.ID, 0, w.LocationNumber, true, nil)
		if err != nil {
			t.Fatalf("mark %d: unexpected error: %v", w.LocationNumber, err)
		}
	}

	if !res.Route.Completed || !res.Set.Completed {
		t.Fatalf("expected route and set to be completed")
	}
	if res.Route.CompletedAt == nil || !res.Route.CompletedAt.Equal(fixedNow) {
		t.Fatalf("unexpected completion time %v", res.Route.CompletedAt)
	}

	points := make([]domain.Coordinates, 0, len(route.Waypoints))
	for _, w := range route.Waypoints {
		points = append(points, w.Coords)
	}
	want, err := NewMetricsCalculator(provider).Compute(context.Background(), points, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Route.DistanceKm != want.DistanceKm || res.Route.FuelLiters != want.FuelLiters {
		t.Fatalf("metrics = %v km %v l, want %v km %v l", res.Route.DistanceKm, res.Route.FuelLiters, want.DistanceKm, want.FuelLiters)
	}

	// the completed set rejects any further marks
	if _, err := mark(l, "user-1", set.ID, 0, 1, true, nil); !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestLifecycleCompletedMetricsUseVisitedPointsOnly(t *testing.T) {
	l, _, provider := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha", "Charlie"}, []int{2, 2}),
	})
	route := set.Routes[0]
	charlie := locationOf(t, route, "Charlie")

	var res *MarkResult
	var err error
	for _, w := range route.Waypoints {
		res, err = mark(l, "user-1", set.ID, 0, w.LocationNumber, w.LocationNumber != charlie, nil)
		if err != nil {
			t.Fatalf("mark %d: unexpected error: %v", w.LocationNumber, err)
		}
	}

	first := route.Waypoints[0].Coords
	last := route.Waypoints[len(route.Waypoints)-1].Coords
	alpha := route.Waypoints[locationOf(t, route, "Alpha")].Coords
	want, err := NewMetricsCalculator(provider).Compute(context.Background(), []domain.Coordinates{first, alpha, last}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Route.DistanceKm != want.DistanceKm {
		t.Fatalf("distance = %v, want %v", res.Route.DistanceKm, want.DistanceKm)
	}
	if res.Route.DistanceKm >= route.DistanceKm {
		t.Fatalf("expected skipping Charlie to shorten the route: %v >= %v", res.Route.DistanceKm, route.DistanceKm)
	}
}

func TestLifecycleNothingVisitedHasZeroMetrics(t *testing.T) {
	l, _, _ := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha"}, []int{1}),
	})

	var res *MarkResult
	var err error
	for _, w := range set.Routes[0].Waypoints {
		res, err = mark(l, "user-1", set.ID, 0, w.LocationNumber, w.IsDepot, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if !res.Route.Completed || res.Route.DistanceKm != 0 || res.Route.DurationHours != 0 || res.Route.FuelLiters != 0 {
		t.Fatalf("expected a completed route with zero metrics, got %+v", res.Route)
	}
}

func TestLifecycleMarkWaypointErrors(t *testing.T) {
	l, _, _ := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha", "Bravo"}, []int{1, 1}),
	})

	if _, err := mark(l, "user-1", set.ID, 0, 1, true, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name     string
		userID   string
		routesID string
		route    int
		location int
		want     error
	}{
		{name: "already marked", userID: "user-1", routesID: set.ID, route: 0, location: 1, want: domain.ErrStateConflict},
		{name: "missing route", userID: "user-1", routesID: set.ID, route: 5, location: 1, want: domain.ErrNotFound},
		{name: "missing waypoint", userID: "user-1", routesID: set.ID, route: 0, location: 9, want: domain.ErrNotFound},
		{name: "negative waypoint", userID: "user-1", routesID: set.ID, route: 0, location: -1, want: domain.ErrNotFound},
		{name: "missing set", userID: "user-1", routesID: "nope", route: 0, location: 1, want: domain.ErrNotFound},
		{name: "other user", userID: "user-2", routesID: set.ID, route: 0, location: 2, want: domain.ErrNotFound},
	}

	for _, tc := range cases {
		if _, err := mark(l, tc.userID, tc.routesID, tc.route, tc.location, false, nil); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// the first mark survived every rejected attempt
	stored, err := l.Get(context.Background(), "user-1", set.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := stored.Routes[0].Waypoints[1].Visited; v == nil || !*v {
		t.Fatalf("expected waypoint 1 to stay visited")
	}
	if stored.Routes[0].Waypoints[2].Visited != nil {
		t.Fatalf("expected waypoint 2 to stay unmarked")
	}
}

func TestLifecycleHoldsBackSkippedStops(t *testing.T) {
	l, store, _ := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha", "Bravo"}, []int{3, 2}),
	})
	route := set.Routes[0]
	keep, drop := true, false

	if _, err := mark(l, "user-1", set.ID, 0, locationOf(t, route, "Alpha"), false, &keep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mark(l, "user-1", set.ID, 0, locationOf(t, route, "Bravo"), false, &drop); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// depots are never held back
	if _, err := mark(l, "user-1", set.ID, 0, 0, false, &keep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	held, err := store.GetHeldBack(context.Background(), set.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(held.Addresses, []string{"Alpha"}) {
		t.Fatalf("held back addresses = %v, want [Alpha]", held.Addresses)
	}
	if !reflect.DeepEqual(held.Priorities, []domain.Priority{domain.PriorityHigh}) {
		t.Fatalf("held back priorities = %v", held.Priorities)
	}
	if held.UserID != "user-1" || held.DepotAddress != "Depot" {
		t.Fatalf("unexpected held back record %+v", held)
	}
}

type flakyRouteStore struct {
	*repositories.MemoryStore
	failReplace bool
}

func (f *flakyRouteStore) Replace(ctx context.Context, set *domain.RouteSet) error {
	if f.failReplace {
		f.failReplace = false
		return errors.New("connection reset")
	}
	return f.MemoryStore.Replace(ctx, set)
}

func TestLifecycleRetriedMarkHoldsBackOnce(t *testing.T) {
	// build test data
	provider := newTestMock()
	store := &flakyRouteStore{MemoryStore: repositories.NewMemoryStore()}
	l := NewLifecycle(NewPlanner(provider, DefaultClusterSeed), provider, store, store)
	l.now = func() time.Time { return fixedNow }

	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha", "Bravo"}, []int{3, 2}),
	})
	loc := locationOf(t, set.Routes[0], "Alpha")
	keep := true

	// call the method under test
	store.failReplace = true
	if _, err := mark(l, "user-1", set.ID, 0, loc, false, &keep); err == nil {
		t.Fatalf("expected the failed replace to surface")
	}
	if _, err := mark(l, "user-1", set.ID, 0, loc, false, &keep); err != nil {
		t.Fatalf("retry: unexpected error: %v", err)
	}

	held, err := store.GetHeldBack(context.Background(), set.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(held.Addresses, []string{"Alpha"}) {
		t.Fatalf("held back addresses = %v, want [Alpha]", held.Addresses)
	}
}

func TestLifecycleRegenerateKeepsFirstSeenPriority(t *testing.T) {
	l, store, _ := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha", "Bravo"}, []int{1, 2}),
	})

	// Bravo is held back as High while its waypoint still carries Medium.
	held := domain.NewHeldBackLocations(set)
	held.Add("Bravo", domain.PriorityHigh)
	if err := store.SaveHeldBack(context.Background(), held); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, full := range []bool{false, true} {
		regen, err := l.RegenerateLocations(context.Background(), "user-1", set.ID, full)
		if err != nil {
			t.Fatalf("full=%v: unexpected error: %v", full, err)
		}
		if got := addressesOf(regen.Addresses); !reflect.DeepEqual(got, []string{"Bravo", "Alpha"}) {
			t.Fatalf("full=%v: addresses = %v, want [Bravo Alpha]", full, got)
		}
		if regen.Addresses[0].Priority != domain.PriorityHigh {
			t.Fatalf("full=%v: Bravo priority = %v, want %v", full, regen.Addresses[0].Priority, domain.PriorityHigh)
		}
		if regen.Addresses[1].Priority != domain.PriorityLow {
			t.Fatalf("full=%v: Alpha priority = %v, want %v", full, regen.Addresses[1].Priority, domain.PriorityLow)
		}
	}
}

func TestLifecycleRegenerateLocations(t *testing.T) {
	l, _, _ := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha", "Bravo", "Charlie"}, []int{1, 2, 3}),
	})
	route := set.Routes[0]
	keep := true

	if _, err := mark(l, "user-1", set.ID, 0, locationOf(t, route, "Charlie"), false, &keep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := mark(l, "user-1", set.ID, 0, locationOf(t, route, "Alpha"), true, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// partial: held back first, then unmarked stops
	regen, err := l.RegenerateLocations(context.Background(), "user-1", set.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := addressesOf(regen.Addresses); !reflect.DeepEqual(got, []string{"Charlie", "Bravo"}) {
		t.Fatalf("partial regeneration addresses = %v", got)
	}
	if regen.Addresses[0].Priority != domain.PriorityHigh || regen.Addresses[1].Priority != domain.PriorityMedium {
		t.Fatalf("unexpected priorities %+v", regen.Addresses)
	}
	if regen.Depot.Address != "Depot" || regen.Depot.Coords != (domain.Coordinates{Lat: 52, Lng: 21}) {
		t.Fatalf("unexpected depot %+v", regen.Depot)
	}

	// full: every non-depot stop, deduplicated
	regen, err = l.RegenerateLocations(context.Background(), "user-1", set.ID, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := addressesOf(regen.Addresses)
	if len(got) != 3 || got[0] != "Charlie" {
		t.Fatalf("full regeneration addresses = %v", got)
	}

	req := regen.PlanRequest()
	if req.Days != 1 || req.DepotAddress != "Depot" || len(req.Addresses) != 3 || len(req.Priorities) != 3 {
		t.Fatalf("unexpected plan request %+v", req)
	}
	if _, err := req.Validate(); err != nil {
		t.Fatalf("regenerated request should validate: %v", err)
	}

	if _, err := l.RegenerateLocations(context.Background(), "user-2", set.ID, true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for another user, got %v", err)
	}
}

func addressesOf(located []LocatedAddress) []string {
	out := make([]string, 0, len(located))
	for _, a := range located {
		out = append(out, a.Address)
	}
	return out
}

func TestLifecycleMergeKeepsCompletedRoutes(t *testing.T) {
	l, store, _ := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(2, []string{"Alpha", "Charlie"}, []int{1, 1}),
	})

	// complete the second route only
	for _, w := range set.Routes[1].Waypoints {
		if _, err := mark(l, "user-1", set.ID, 1, w.LocationNumber, true, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	keep := true
	if _, err := mark(l, "user-1", set.ID, 0, 1, false, &keep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before, err := store.Get(context.Background(), set.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Delta"}, []int{2}),
		RoutesID:    set.ID,
		Name:        "Merged",
	})

	after, err := store.Get(context.Background(), set.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after.Routes) != 2 {
		t.Fatalf("expected 2 routes after merge, got %d", len(after.Routes))
	}

	kept := before.Routes[1]
	kept.Number = 0
	if !reflect.DeepEqual(after.Routes[0], kept) {
		t.Fatalf("completed route changed during merge:\n got %+v\nwant %+v", after.Routes[0], kept)
	}
	if after.Routes[1].Number != 1 || after.Routes[1].Completed {
		t.Fatalf("expected the new route numbered 1 and incomplete, got %+v", after.Routes[1])
	}
	if after.Completed || after.Name != "Merged" || after.Params.Days != 1 {
		t.Fatalf("unexpected merged set %+v", after)
	}
	if _, err := store.GetHeldBack(context.Background(), set.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected held back locations to be purged, got %v", err)
	}
}

func TestLifecycleOverwriteReplacesRoutes(t *testing.T) {
	l, store, _ := newTestLifecycle(t)
	set := generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Alpha"}, []int{1}),
	})
	for _, w := range set.Routes[0].Waypoints {
		if _, err := mark(l, "user-1", set.ID, 0, w.LocationNumber, true, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	generate(t, l, "user-1", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Delta"}, []int{1}),
		RoutesID:    set.ID,
		Overwrite:   true,
	})

	after, err := store.Get(context.Background(), set.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(after.Routes) != 1 || after.Routes[0].Waypoints[1].Name != "Delta" {
		t.Fatalf("expected only the Delta route, got %+v", after.Routes)
	}
	if after.Completed || after.CompletedAt != nil {
		t.Fatalf("expected overwritten set to be active again")
	}

	_, err = l.Generate(context.Background(), "user-2", GenerateRequest{
		PlanRequest: baseRequest(1, []string{"Delta"}, []int{1}),
		RoutesID:    set.ID,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for another user's target, got %v", err)
	}
}

func TestLifecycleListRenameDelete(t *testing.T) {
	l, store, _ := newTestLifecycle(t)
	ctx := context.Background()

	done := generate(t, l, "user-1", GenerateRequest{PlanRequest: baseRequest(1, []string{"Alpha"}, []int{1})})
	for _, w := range done.Routes[0].Waypoints {
		if _, err := mark(l, "user-1", done.ID, 0, w.LocationNumber, true, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	active := generate(t, l, "user-1", GenerateRequest{PlanRequest: baseRequest(1, []string{"Bravo"}, []int{1})})
	generate(t, l, "user-2", GenerateRequest{PlanRequest: baseRequest(1, []string{"Charlie"}, []int{1})})

	all, err := l.List(ctx, "user-1", false)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 route sets, got %d (err %v)", len(all), err)
	}
	activeOnly, err := l.List(ctx, "user-1", true)
	if err != nil || len(activeOnly) != 1 || activeOnly[0].ID != active.ID {
		t.Fatalf("expected only the active route set, got %v (err %v)", activeOnly, err)
	}

	if _, err := l.Rename(ctx, "user-1", active.ID, "   "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error for blank name, got %v", err)
	}
	renamed, err := l.Rename(ctx, "user-1", active.ID, " Tuesday ")
	if err != nil || renamed.Name != "Tuesday" {
		t.Fatalf("unexpected rename result %v (err %v)", renamed, err)
	}

	// held back records go with their route set
	keep := true
	if _, err := mark(l, "user-1", active.ID, 0, 1, false, &keep); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := l.DeleteActive(ctx, "user-1")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted route set, got %d (err %v)", n, err)
	}
	if _, err := store.GetHeldBack(ctx, active.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected held back record to be deleted, got %v", err)
	}

	if err := l.Delete(ctx, "user-2", done.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found deleting another user's set, got %v", err)
	}
	if err := l.Delete(ctx, "user-1", done.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := l.Get(ctx, "user-1", done.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected deleted set to be gone, got %v", err)
	}

	n, err = l.DeleteAll(ctx, "user-2")
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted route set for user-2, got %d (err %v)", n, err)
	}
}
