package services

import (
	"context"
	"fmt"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/obs"
	"route-planner-service/internal/ports"
	"strings"
)

// PlanRequest is the input of one route generation.
type PlanRequest struct {
	Days               int
	DistanceLimit      *float64
	DurationLimit      *float64
	Preference         string
	AvoidTolls         bool
	DepotAddress       string
	SemiDepotAddresses []string
	Addresses          []string
	Priorities         []int
}

// Validate checks the request without contacting any collaborator and returns
// the normalized generation parameters.
func (r PlanRequest) Validate() (domain.PlanParams, error) {
	if r.Days < 1 {
		return domain.PlanParams{}, domain.Validationf("days must be at least 1")
	}
	if r.Days > domain.MaxDays {
		return domain.PlanParams{}, domain.Validationf("maximum number of days is %d", domain.MaxDays)
	}
	if r.Days > len(r.Addresses) {
		return domain.PlanParams{}, domain.Validationf("too few addresses: %d for %d days", len(r.Addresses), r.Days)
	}
	if len(r.Priorities) != len(r.Addresses) {
		return domain.PlanParams{}, domain.Validationf(
			"priorities must match addresses: got %d priorities for %d addresses",
			len(r.Priorities), len(r.Addresses),
		)
	}
	for i, p := range r.Priorities {
		if !domain.Priority(p).Valid() {
			return domain.PlanParams{}, domain.Validationf("priority at index %d must be 1, 2 or 3, got %d", i, p)
		}
	}
	for i, a := range r.Addresses {
		if strings.TrimSpace(a) == "" {
			return domain.PlanParams{}, domain.Validationf("address at index %d must be non-empty", i)
		}
	}
	if len(r.SemiDepotAddresses) != 0 && len(r.SemiDepotAddresses) != r.Days-1 {
		return domain.PlanParams{}, domain.Validationf("number of semi depots must equal days - 1")
	}
	for i, a := range r.SemiDepotAddresses {
		if strings.TrimSpace(a) == "" {
			return domain.PlanParams{}, domain.Validationf("semi depot address at index %d must be non-empty", i)
		}
	}

	depot := strings.TrimSpace(r.DepotAddress)
	if depot == "" {
		return domain.PlanParams{}, domain.Validationf("depot_address is required")
	}

	if r.DistanceLimit != nil && *r.DistanceLimit <= 0 {
		return domain.PlanParams{}, domain.Validationf("distance_limit must be positive")
	}
	if r.DurationLimit != nil && *r.DurationLimit <= 0 {
		return domain.PlanParams{}, domain.Validationf("duration_limit must be positive")
	}

	pref, err := domain.ParsePreference(r.Preference)
	if err != nil {
		return domain.PlanParams{}, err
	}

	return domain.PlanParams{
		Days:               r.Days,
		DistanceLimit:      r.DistanceLimit,
		DurationLimit:      r.DurationLimit,
		Preference:         pref,
		AvoidTolls:         r.AvoidTolls,
		DepotAddress:       depot,
		SemiDepotAddresses: append([]string(nil), r.SemiDepotAddresses...),
	}, nil
}

// PlanResult is the selected candidate together with the resolved inputs.
type PlanResult struct {
	Params     domain.PlanParams
	Depot      domain.Coordinates
	SemiDepots []domain.Coordinates
	Stops      []domain.Stop
	Candidate  Candidate
	// Evaluated is the number of candidates produced by the repair loop.
	Evaluated int
}

// Planner turns a planning request into the preferred feasible route assignment.
type Planner struct {
	provider ports.MappingProvider
	orderer  *PriorityOrderer
	metrics  *MetricsCalculator
	seed     int64
}

func NewPlanner(provider ports.MappingProvider, seed int64) *Planner {
	return &Planner{
		provider: provider,
		orderer:  NewPriorityOrderer(provider),
		metrics:  NewMetricsCalculator(provider),
		seed:     seed,
	}
}

// Plan validates the request, geocodes it, clusters the stops into days,
// runs the repair loop bounded by days-1 iterations, enforces the daily limits
// and returns the candidate minimizing the requested preference.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (_ *PlanResult, err error) {
	defer obs.Time(ctx, "planner.Plan")(&err)

	params, err := req.Validate()
	if err != nil {
		return nil, err
	}

	geocoded := make(map[string]domain.Coordinates)
	geocode := func(address string) (domain.Coordinates, error) {
		address = strings.TrimSpace(address)
		if c, ok := geocoded[address]; ok {
			return c, nil
		}
		c, err := p.provider.Geocode(ctx, address)
		if err != nil {
			return domain.Coordinates{}, fmt.Errorf("plan routes: geocode %q: %w", address, err)
		}
		geocoded[address] = c
		return c, nil
	}

	depot, err := geocode(params.DepotAddress)
	if err != nil {
		return nil, err
	}

	stops := make([]domain.Stop, 0, len(req.Addresses))
	for i, a := range req.Addresses {
		c, err := geocode(a)
		if err != nil {
			return nil, err
		}
		s, err := domain.NewStop(a, c, req.Priorities[i])
		if err != nil {
			return nil, err
		}
		stops = append(stops, s)
	}

	semiDepots := make([]domain.Coordinates, 0, len(params.SemiDepotAddresses))
	for _, a := range params.SemiDepotAddresses {
		c, err := geocode(a)
		if err != nil {
			return nil, err
		}
		semiDepots = append(semiDepots, c)
	}

	labels, err := KMeans(stopCoords(stops), params.Days, p.seed)
	if err != nil {
		return nil, fmt.Errorf("plan routes: cluster stops: %w", err)
	}

	recompute := func(ctx context.Context, labels []int) (Candidate, error) {
		return p.buildCandidate(ctx, stops, labels, params.Days, depot, semiDepots, params.AvoidTolls)
	}

	initial, err := recompute(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("plan routes: %w", err)
	}

	candidates, err := Recluster(ctx, initial, stops, params.Days-1, recompute)
	if err != nil {
		return nil, fmt.Errorf("plan routes: %w", err)
	}

	feasible, err := FilterByLimits(dropEmptyDays(candidates), params.DistanceLimit, params.DurationLimit)
	if err != nil {
		return nil, err
	}

	best, err := SelectPreferred(feasible, params.Preference)
	if err != nil {
		return nil, err
	}

	return &PlanResult{
		Params:     params,
		Depot:      depot,
		SemiDepots: semiDepots,
		Stops:      stops,
		Candidate:  best,
		Evaluated:  len(candidates),
	}, nil
}

// dropEmptyDays removes candidates that leave a day without stops. They are
// kept only when no candidate fills every day.
func dropEmptyDays(candidates []Candidate) []Candidate {
	filled := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !hasEmptyRoute(c) {
			filled = append(filled, c)
		}
	}
	if len(filled) == 0 {
		return candidates
	}
	return filled
}

func hasEmptyRoute(c Candidate) bool {
	for _, r := range c.Routes {
		if len(r.Stops) == 0 {
			return true
		}
	}
	return false
}

// buildCandidate groups stops by label, chains the clusters into days, orders
// every cluster and computes its route metrics.
func (p *Planner) buildCandidate(
	ctx context.Context,
	stops []domain.Stop,
	labels []int,
	days int,
	depot domain.Coordinates,
	semiDepots []domain.Coordinates,
	avoidTolls bool,
) (Candidate, error) {
	clusters := make([][]domain.Stop, days)
	indexes := make([][]int, days)
	for i, label := range labels {
		clusters[label] = append(clusters[label], stops[i])
		indexes[label] = append(indexes[label], i)
	}

	links, err := chainClusters(ctx, p.provider, clusters, depot, semiDepots)
	if err != nil {
		return Candidate{}, err
	}

	routes := make([]PlannedRoute, 0, len(links))
	for _, link := range links {
		ordered, err := p.orderer.Order(ctx, clusters[link.Label], link.Start, link.End, avoidTolls)
		if err != nil {
			return Candidate{}, fmt.Errorf("cluster %d: %w", link.Label, err)
		}

		route := PlannedRoute{
			Label:       link.Label,
			Start:       link.Start,
			End:         link.End,
			Stops:       ordered,
			StopIndexes: matchIndexes(ordered, stops, indexes[link.Label]),
		}

		route.Metrics, err = p.metrics.Compute(ctx, route.Points(), avoidTolls)
		if err != nil {
			return Candidate{}, fmt.Errorf("cluster %d: %w", link.Label, err)
		}

		routes = append(routes, route)
	}

	return Candidate{Labels: append([]int(nil), labels...), Routes: routes}, nil
}

// matchIndexes maps ordered stops back to request indexes, consuming each
// candidate index once so duplicate stops map to distinct indexes.
func matchIndexes(ordered []domain.Stop, stops []domain.Stop, candidates []int) []int {
	used := make([]bool, len(candidates))
	out := make([]int, 0, len(ordered))
	for _, s := range ordered {
		for j, idx := range candidates {
			if !used[j] && stops[idx] == s {
				used[j] = true
				out = append(out, idx)
				break
			}
		}
	}
	return out
}
