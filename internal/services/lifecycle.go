package services

import (
	"context"
	"errors"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strings"
	"time"
)

// GenerateRequest plans a new route set or regenerates an existing one.
// With RoutesID set, Overwrite replaces the target's routes; otherwise the
// target's completed routes are kept and the new routes appended after them.
type GenerateRequest struct {
	PlanRequest
	RoutesID  string
	Overwrite bool
	Name      string
}

// MarkWaypointRequest records the visit outcome of one waypoint.
type MarkWaypointRequest struct {
	RoutesID       string
	RouteNumber    int
	LocationNumber int
	Visited        bool
	ShouldKeep     *bool
}

// LocatedAddress is an address resolved back to coordinates.
type LocatedAddress struct {
	Address  string
	Coords   domain.Coordinates
	Priority domain.Priority
}

// Regeneration is a resubmittable planning input rebuilt from a route set.
type Regeneration struct {
	RoutesID   string
	Params     domain.PlanParams
	Depot      LocatedAddress
	SemiDepots []LocatedAddress
	Addresses  []LocatedAddress
}

// PlanRequest converts the regeneration into a new planning request.
func (r *Regeneration) PlanRequest() PlanRequest {
	req := PlanRequest{
		Days:          r.Params.Days,
		DistanceLimit: r.Params.DistanceLimit,
		DurationLimit: r.Params.DurationLimit,
		Preference:    string(r.Params.Preference),
		AvoidTolls:    r.Params.AvoidTolls,
		DepotAddress:  r.Depot.Address,
	}
	for _, sd := range r.SemiDepots {
		req.SemiDepotAddresses = append(req.SemiDepotAddresses, sd.Address)
	}
	for _, a := range r.Addresses {
		req.Addresses = append(req.Addresses, a.Address)
		req.Priorities = append(req.Priorities, int(a.Priority))
	}
	return req
}

// Lifecycle manages persisted route sets: generation and merging, waypoint
// completion, held-back locations, regeneration and deletion.
type Lifecycle struct {
	planner  *Planner
	builder  *DocumentBuilder
	metrics  *MetricsCalculator
	geocoder ports.Geocoder
	routes   ports.RouteSetRepository
	heldBack ports.HeldBackRepository
	now      func() time.Time
}

func NewLifecycle(
	planner *Planner,
	provider ports.MappingProvider,
	routes ports.RouteSetRepository,
	heldBack ports.HeldBackRepository,
) *Lifecycle {
	return &Lifecycle{
		planner:  planner,
		builder:  NewDocumentBuilder(provider),
		metrics:  NewMetricsCalculator(provider),
		geocoder: provider,
		routes:   routes,
		heldBack: heldBack,
		now:      time.Now,
	}
}

// Generate plans routes and stores them as a new route set or into the target
// route set. Nothing is written when validation or planning fails.
func (l *Lifecycle) Generate(ctx context.Context, userID string, req GenerateRequest) (_ *domain.RouteSet, err error) {
	defer obs.Time(ctx, "lifecycle.Generate")(&err)

	if _, err := req.Validate(); err != nil {
		return nil, err
	}

	var target *domain.RouteSet
	if req.RoutesID != "" {
		target, err = l.owned(ctx, userID, req.RoutesID)
		if err != nil {
			return nil, err
		}
	}

	plan, err := l.planner.Plan(ctx, req.PlanRequest)
	if err != nil {
		return nil, err
	}

	routes, err := l.builder.Build(ctx, plan)
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()

	if target == nil {
		set := &domain.RouteSet{
			UserID:      userID,
			Name:        strings.TrimSpace(req.Name),
			Params:      plan.Params,
			Routes:      routes,
			GeneratedAt: now,
		}
		id, err := l.routes.Create(ctx, set)
		if err != nil {
			return nil, fmt.Errorf("generate routes: store route set: %w", err)
		}
		set.ID = id
		return set, nil
	}

	if !req.Overwrite {
		routes = mergeCompleted(target.Routes, routes)
	}

	target.Routes = routes
	target.Params = plan.Params
	target.GeneratedAt = now
	target.Completed = false
	target.CompletedAt = nil
	if name := strings.TrimSpace(req.Name); name != "" {
		target.Name = name
	}

	if err := l.routes.Replace(ctx, target); err != nil {
		return nil, fmt.Errorf("generate routes: replace route set %s: %w", target.ID, err)
	}
	if err := l.heldBack.DeleteHeldBack(ctx, target.ID); err != nil {
		return nil, fmt.Errorf("generate routes: purge held-back locations for %s: %w", target.ID, err)
	}

	return target, nil
}

// mergeCompleted keeps the previously completed routes unchanged except for
// their numbers (0..k-1) and appends the new routes numbered from k.
func mergeCompleted(previous, generated []domain.Route) []domain.Route {
	out := make([]domain.Route, 0, len(previous)+len(generated))
	for _, r := range previous {
		if r.Completed {
			r.Number = len(out)
			out = append(out, r)
		}
	}
	for _, r := range generated {
		r.Number = len(out)
		out = append(out, r)
	}
	return out
}

// MarkResult carries the updated route and its owning set.
type MarkResult struct {
	Set   *domain.RouteSet
	Route domain.Route
}

// MarkWaypoint records a waypoint's visit outcome.
//
// All not-found and state-conflict checks run before anything is written.
// A skipped waypoint flagged to keep is added to the held-back record. When
// the route becomes fully marked its metrics are recomputed from the endpoints
// and the visited intermediates only.
func (l *Lifecycle) MarkWaypoint(ctx context.Context, userID string, req MarkWaypointRequest) (_ *MarkResult, err error) {
	defer obs.Time(ctx, "lifecycle.MarkWaypoint")(&err)

	set, err := l.owned(ctx, userID, req.RoutesID)
	if err != nil {
		return nil, err
	}
	if set.Completed {
		return nil, domain.Conflictf("route set %s is already completed", set.ID)
	}

	route, ok := set.Route(req.RouteNumber)
	if !ok {
		return nil, domain.NotFoundf("route %d not found in route set %s", req.RouteNumber, set.ID)
	}
	if route.Completed {
		return nil, domain.Conflictf("route %d is already completed", req.RouteNumber)
	}
	if req.LocationNumber < 0 || req.LocationNumber >= len(route.Waypoints) {
		return nil, domain.NotFoundf("waypoint %d not found in route %d", req.LocationNumber, req.RouteNumber)
	}

	wp := &route.Waypoints[req.LocationNumber]
	if wp.Visited != nil {
		return nil, domain.Conflictf("waypoint %d of route %d is already marked", req.LocationNumber, req.RouteNumber)
	}

	visited := req.Visited
	wp.Visited = &visited
	if req.ShouldKeep != nil {
		keep := *req.ShouldKeep
		wp.ShouldKeep = &keep
	}

	now := l.now().UTC()
	if route.AllMarked() {
		m, err := l.visitedMetrics(ctx, route, set.Params.AvoidTolls)
		if err != nil {
			return nil, fmt.Errorf("mark waypoint: %w", err)
		}
		route.DistanceKm = m.DistanceKm
		route.DurationHours = m.DurationHours
		route.FuelLiters = m.FuelLiters
		route.Polyline = m.Polyline
		route.Completed = true
		route.CompletedAt = &now
	}
	if set.AllRoutesCompleted() {
		set.Completed = true
		set.CompletedAt = &now
	}

	// Held back before the replace; a retried mark does not add it twice.
	if !visited && wp.ShouldKeep != nil && *wp.ShouldKeep && !wp.IsDepot {
		if err := l.holdBack(ctx, set, *wp); err != nil {
			return nil, fmt.Errorf("mark waypoint: %w", err)
		}
	}

	if err := l.routes.Replace(ctx, set); err != nil {
		return nil, fmt.Errorf("mark waypoint: replace route set %s: %w", set.ID, err)
	}

	return &MarkResult{Set: set, Route: *route}, nil
}

// visitedMetrics recomputes a completed route over the points actually driven.
// A route reduced to its two endpoints has zero metrics.
func (l *Lifecycle) visitedMetrics(ctx context.Context, route *domain.Route, avoidTolls bool) (RouteMetrics, error) {
	first := route.Waypoints[0]
	last := route.Waypoints[len(route.Waypoints)-1]

	points := []domain.Coordinates{first.Coords}
	for _, w := range route.Intermediates() {
		if w.Visited != nil && *w.Visited {
			points = append(points, w.Coords)
		}
	}
	points = append(points, last.Coords)

	if len(points) == 2 {
		return RouteMetrics{}, nil
	}
	return l.metrics.Compute(ctx, points, avoidTolls)
}

func (l *Lifecycle) holdBack(ctx context.Context, set *domain.RouteSet, wp domain.Waypoint) error {
	held, err := l.heldBack.GetHeldBack(ctx, set.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		held = domain.NewHeldBackLocations(set)
	case err != nil:
		return fmt.Errorf("load held-back locations for %s: %w", set.ID, err)
	default:
		held.MergeSemiDepots(set.Params.SemiDepotAddresses)
	}

	priority := domain.PriorityLow
	if wp.Priority != nil {
		priority = *wp.Priority
	}
	held.Add(wp.Name, priority)

	if err := l.heldBack.SaveHeldBack(ctx, held); err != nil {
		return fmt.Errorf("save held-back locations for %s: %w", set.ID, err)
	}
	return nil
}

// RegenerateLocations rebuilds a planning input from a route set: held-back
// addresses first, then either the unmarked stops of incomplete routes or, with
// full, every non-depot stop. Addresses are deduplicated keeping the first-seen
// priority and geocoded back to coordinates.
func (l *Lifecycle) RegenerateLocations(ctx context.Context, userID, routesID string, full bool) (_ *Regeneration, err error) {
	defer obs.Time(ctx, "lifecycle.RegenerateLocations")(&err)

	set, err := l.owned(ctx, userID, routesID)
	if err != nil {
		return nil, err
	}

	held, err := l.heldBack.GetHeldBack(ctx, set.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("regenerate locations: load held-back locations: %w", err)
	}

	params := set.Params
	depot := set.Params.DepotAddress
	semiDepots := set.Params.SemiDepotAddresses

	type entry struct {
		address  string
		priority domain.Priority
	}
	var entries []entry
	seen := make(map[string]struct{})
	add := func(address string, p domain.Priority) {
		if _, ok := seen[address]; ok {
			return
		}
		seen[address] = struct{}{}
		entries = append(entries, entry{address: address, priority: p})
	}

	if held != nil {
		params = held.Params
		depot = held.DepotAddress
		semiDepots = held.SemiDepotAddresses
		for i, a := range held.Addresses {
			add(a, held.Priorities[i])
		}
	}

	for _, r := range set.Routes {
		if !full && r.Completed {
			continue
		}
		for _, w := range r.Waypoints {
			if w.IsDepot {
				continue
			}
			if !full && w.Visited != nil {
				continue
			}
			p := domain.PriorityLow
			if w.Priority != nil {
				p = *w.Priority
			}
			add(w.Name, p)
		}
	}

	locate := func(address string, p domain.Priority) (LocatedAddress, error) {
		c, err := l.geocoder.Geocode(ctx, address)
		if err != nil {
			return LocatedAddress{}, fmt.Errorf("regenerate locations: geocode %q: %w", address, err)
		}
		return LocatedAddress{Address: address, Coords: c, Priority: p}, nil
	}

	out := &Regeneration{RoutesID: set.ID, Params: params}
	if out.Depot, err = locate(depot, 0); err != nil {
		return nil, err
	}
	for _, sd := range semiDepots {
		la, err := locate(sd, 0)
		if err != nil {
			return nil, err
		}
		out.SemiDepots = append(out.SemiDepots, la)
	}
	for _, e := range entries {
		la, err := locate(e.address, e.priority)
		if err != nil {
			return nil, err
		}
		out.Addresses = append(out.Addresses, la)
	}

	return out, nil
}

// Get returns one of the user's route sets.
func (l *Lifecycle) Get(ctx context.Context, userID, routesID string) (*domain.RouteSet, error) {
	return l.owned(ctx, userID, routesID)
}

// List returns the user's route sets; activeOnly skips completed ones.
func (l *Lifecycle) List(ctx context.Context, userID string, activeOnly bool) ([]*domain.RouteSet, error) {
	sets, err := l.routes.List(ctx, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list route sets: %w", err)
	}
	return sets, nil
}

func (l *Lifecycle) Rename(ctx context.Context, userID, routesID, name string) (*domain.RouteSet, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("name must be non-empty")
	}

	set, err := l.owned(ctx, userID, routesID)
	if err != nil {
		return nil, err
	}

	set.Name = name
	if err := l.routes.Replace(ctx, set); err != nil {
		return nil, fmt.Errorf("rename route set %s: %w", set.ID, err)
	}
	return set, nil
}

// Delete removes one route set and its held-back locations.
func (l *Lifecycle) Delete(ctx context.Context, userID, routesID string) error {
	set, err := l.owned(ctx, userID, routesID)
	if err != nil {
		return err
	}
	return l.deleteSet(ctx, set.ID)
}

// DeleteActive removes every incomplete route set of the user.
func (l *Lifecycle) DeleteActive(ctx context.Context, userID string) (int, error) {
	return l.deleteListed(ctx, userID, true)
}

// DeleteAll removes every route set of the user.
func (l *Lifecycle) DeleteAll(ctx context.Context, userID string) (int, error) {
	return l.deleteListed(ctx, userID, false)
}

func (l *Lifecycle) deleteListed(ctx context.Context, userID string, activeOnly bool) (int, error) {
	sets, err := l.routes.List(ctx, userID, activeOnly)
	if err != nil {
		return 0, fmt.Errorf("delete route sets: %w", err)
	}

	for i, set := range sets {
		if err := l.deleteSet(ctx, set.ID); err != nil {
			return i, err
		}
	}
	return len(sets), nil
}

func (l *Lifecycle) deleteSet(ctx context.Context, id string) error {
	if err := l.routes.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete route set %s: %w", id, err)
	}
	if err := l.heldBack.DeleteHeldBack(ctx, id); err != nil {
		return fmt.Errorf("delete held-back locations for %s: %w", id, err)
	}
	return nil
}

// owned loads a route set and hides sets owned by other users as not found.
func (l *Lifecycle) owned(ctx context.Context, userID, routesID string) (*domain.RouteSet, error) {
	set, err := l.routes.Get(ctx, routesID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFoundf("route set %s not found", routesID)
	}
	if err != nil {
		return nil, fmt.Errorf("load route set %s: %w", routesID, err)
	}
	if set.UserID != userID {
		return nil, domain.NotFoundf("route set %s not found", routesID)
	}
	return set, nil
}
