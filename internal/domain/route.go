package domain

import "time"

// Waypoint is one point of a persisted route, annotated for display and
// completion tracking. Visited and ShouldKeep stay nil until the point is marked.
type Waypoint struct {
	Coords         Coordinates
	Name           string
	Priority       *Priority
	LocationNumber int
	Visited        *bool
	ShouldKeep     *bool
	PolylineToNext *string
	IsDepot        bool
	IsSemiDepot    bool
}

// Route is one day's ordered visiting sequence, bookended by depot-type points.
type Route struct {
	Number        int
	Waypoints     []Waypoint
	DistanceKm    float64
	DurationHours float64
	FuelLiters    float64
	Polyline      string
	Completed     bool
	CompletedAt   *time.Time
}

// AllMarked reports whether every waypoint carries a visited mark.
// It is the exact condition under which a route becomes completed.
func (r *Route) AllMarked() bool {
	for _, w := range r.Waypoints {
		if w.Visited == nil {
			return false
		}
	}
	return true
}

// Intermediates returns the waypoints between the two route endpoints.
func (r *Route) Intermediates() []Waypoint {
	if len(r.Waypoints) <= 2 {
		return nil
	}
	return r.Waypoints[1 : len(r.Waypoints)-1]
}

// RouteSet is the persisted collection of routes generated together.
type RouteSet struct {
	ID          string
	UserID      string
	Name        string
	Params      PlanParams
	Routes      []Route
	Completed   bool
	GeneratedAt time.Time
	CompletedAt *time.Time
}

// Route returns the route with the given route number.
func (s *RouteSet) Route(number int) (*Route, bool) {
	for i := range s.Routes {
		if s.Routes[i].Number == number {
			return &s.Routes[i], true
		}
	}
	return nil, false
}

// AllRoutesCompleted reports whether the set holds at least one route and
// every route in it is completed.
func (s *RouteSet) AllRoutesCompleted() bool {
	if len(s.Routes) == 0 {
		return false
	}
	for _, r := range s.Routes {
		if !r.Completed {
			return false
		}
	}
	return true
}

// HeldBackLocations collects stops that were skipped but flagged to keep,
// so a later regeneration of the same route set can include them again.
type HeldBackLocations struct {
	RouteSetID         string
	UserID             string
	DepotAddress       string
	SemiDepotAddresses []string
	Addresses          []string
	Priorities         []Priority
	Params             PlanParams
}

// NewHeldBackLocations starts an empty record seeded from the route set.
func NewHeldBackLocations(set *RouteSet) *HeldBackLocations {
	params := set.Params
	params.SemiDepotAddresses = append([]string(nil), set.Params.SemiDepotAddresses...)

	return &HeldBackLocations{
		RouteSetID:         set.ID,
		UserID:             set.UserID,
		DepotAddress:       set.Params.DepotAddress,
		SemiDepotAddresses: append([]string(nil), set.Params.SemiDepotAddresses...),
		Params:             params,
	}
}

// Add holds back address with priority. An address already held back keeps
// its first priority.
func (h *HeldBackLocations) Add(address string, priority Priority) {
	for _, a := range h.Addresses {
		if a == address {
			return
		}
	}
	h.Addresses = append(h.Addresses, address)
	h.Priorities = append(h.Priorities, priority)
}

// MergeSemiDepots appends semi-depot addresses not already present.
func (h *HeldBackLocations) MergeSemiDepots(addresses []string) {
	seen := make(map[string]struct{}, len(h.SemiDepotAddresses))
	for _, a := range h.SemiDepotAddresses {
		seen[a] = struct{}{}
	}
	for _, a := range addresses {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		h.SemiDepotAddresses = append(h.SemiDepotAddresses, a)
	}
}
