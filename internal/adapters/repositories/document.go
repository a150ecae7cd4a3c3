package repositories

import (
	"route-planner-service/internal/domain"
	"time"
)

// Stored documents share one layout across the SQL, Mongo and memory stores.
// Field names follow the public route-set document.

type ParamsDocument struct {
	Days               int      `json:"days" bson:"days"`
	DistanceLimit      *float64 `json:"distance_limit" bson:"distance_limit"`
	DurationLimit      *float64 `json:"duration_limit" bson:"duration_limit"`
	Preferences        string   `json:"preferences" bson:"preferences"`
	AvoidTolls         bool     `json:"avoid_tolls" bson:"avoid_tolls"`
	DepotAddress       string   `json:"depot_address" bson:"depot_address"`
	SemiDepotAddresses []string `json:"semi_depot_addresses" bson:"semi_depot_addresses"`
}

type WaypointDocument struct {
	Latitude            float64 `json:"latitude" bson:"latitude"`
	Longitude           float64 `json:"longitude" bson:"longitude"`
	Name                string  `json:"name" bson:"name"`
	Priority            *int    `json:"priority,omitempty" bson:"priority,omitempty"`
	LocationNumber      int     `json:"location_number" bson:"location_number"`
	Visited             *bool   `json:"visited" bson:"visited"`
	ShouldKeep          *bool   `json:"should_keep" bson:"should_keep"`
	PolylineToNextPoint *string `json:"polyline_to_next_point,omitempty" bson:"polyline_to_next_point,omitempty"`
	IsDepot             bool    `json:"isDepot" bson:"isDepot"`
	IsSemiDepot         bool    `json:"isSemiDepot" bson:"isSemiDepot"`
}

type RouteDocument struct {
	RouteNumber      int                `json:"route_number" bson:"route_number"`
	Coords           []WaypointDocument `json:"coords" bson:"coords"`
	Completed        bool               `json:"completed" bson:"completed"`
	DateOfCompletion *time.Time         `json:"date_of_completion" bson:"date_of_completion"`
	DistanceKm       float64            `json:"distance_km" bson:"distance_km"`
	DurationHours    float64            `json:"duration_hours" bson:"duration_hours"`
	FuelLiters       float64            `json:"fuel_liters" bson:"fuel_liters"`
	Polyline         string             `json:"polyline" bson:"polyline"`
}

type RouteSetDocument struct {
	UserID           string          `json:"user_id" bson:"user_id"`
	Name             string          `json:"name" bson:"name"`
	Parameters       ParamsDocument  `json:"parameters" bson:"parameters"`
	Routes           []RouteDocument `json:"routes" bson:"routes"`
	Completed        bool            `json:"completed" bson:"completed"`
	DateOfGeneration time.Time       `json:"date_of_generation" bson:"date_of_generation"`
	DateOfCompletion *time.Time      `json:"date_of_completion" bson:"date_of_completion"`
}

type HeldBackDocument struct {
	RoutesID           string         `json:"routes_id" bson:"routes_id"`
	UserID             string         `json:"user_id" bson:"user_id"`
	DepotAddress       string         `json:"depot_address" bson:"depot_address"`
	SemiDepotAddresses []string       `json:"semi_depot_addresses" bson:"semi_depot_addresses"`
	Addresses          []string       `json:"addresses" bson:"addresses"`
	Priorities         []int          `json:"priorities" bson:"priorities"`
	Parameters         ParamsDocument `json:"parameters" bson:"parameters"`
}

func NewParamsDocument(p domain.PlanParams) ParamsDocument {
	return ParamsDocument{
		Days:               p.Days,
		DistanceLimit:      copyPtr(p.DistanceLimit),
		DurationLimit:      copyPtr(p.DurationLimit),
		Preferences:        string(p.Preference),
		AvoidTolls:         p.AvoidTolls,
		DepotAddress:       p.DepotAddress,
		SemiDepotAddresses: append([]string{}, p.SemiDepotAddresses...),
	}
}

func (d ParamsDocument) ToDomain() domain.PlanParams {
	return domain.PlanParams{
		Days:               d.Days,
		DistanceLimit:      copyPtr(d.DistanceLimit),
		DurationLimit:      copyPtr(d.DurationLimit),
		Preference:         domain.Preference(d.Preferences),
		AvoidTolls:         d.AvoidTolls,
		DepotAddress:       d.DepotAddress,
		SemiDepotAddresses: append([]string{}, d.SemiDepotAddresses...),
	}
}

func NewRouteSetDocument(set *domain.RouteSet) RouteSetDocument {
	routes := make([]RouteDocument, 0, len(set.Routes))
	for _, r := range set.Routes {
		coords := make([]WaypointDocument, 0, len(r.Waypoints))
		for _, w := range r.Waypoints {
			var priority *int
			if w.Priority != nil {
				p := int(*w.Priority)
				priority = &p
			}
			coords = append(coords, WaypointDocument{
				Latitude:            w.Coords.Lat,
				Longitude:           w.Coords.Lng,
				Name:                w.Name,
				Priority:            priority,
				LocationNumber:      w.LocationNumber,
				Visited:             copyPtr(w.Visited),
				ShouldKeep:          copyPtr(w.ShouldKeep),
				PolylineToNextPoint: copyPtr(w.PolylineToNext),
				IsDepot:             w.IsDepot,
				IsSemiDepot:         w.IsSemiDepot,
			})
		}

		routes = append(routes, RouteDocument{
			RouteNumber:      r.Number,
			Coords:           coords,
			Completed:        r.Completed,
			DateOfCompletion: copyPtr(r.CompletedAt),
			DistanceKm:       r.DistanceKm,
			DurationHours:    r.DurationHours,
			FuelLiters:       r.FuelLiters,
			Polyline:         r.Polyline,
		})
	}

	return RouteSetDocument{
		UserID:           set.UserID,
		Name:             set.Name,
		Parameters:       NewParamsDocument(set.Params),
		Routes:           routes,
		Completed:        set.Completed,
		DateOfGeneration: set.GeneratedAt,
		DateOfCompletion: copyPtr(set.CompletedAt),
	}
}

func (d RouteSetDocument) ToDomain(id string) *domain.RouteSet {
	routes := make([]domain.Route, 0, len(d.Routes))
	for _, r := range d.Routes {
		waypoints := make([]domain.Waypoint, 0, len(r.Coords))
		for _, w := range r.Coords {
			var priority *domain.Priority
			if w.Priority != nil {
				p := domain.Priority(*w.Priority)
				priority = &p
			}
			waypoints = append(waypoints, domain.Waypoint{
				Coords:         domain.Coordinates{Lat: w.Latitude, Lng: w.Longitude},
				Name:           w.Name,
				Priority:       priority,
				LocationNumber: w.LocationNumber,
				Visited:        copyPtr(w.Visited),
				ShouldKeep:     copyPtr(w.ShouldKeep),
				PolylineToNext: copyPtr(w.PolylineToNextPoint),
				IsDepot:        w.IsDepot,
				IsSemiDepot:    w.IsSemiDepot,
			})
		}

		routes = append(routes, domain.Route{
			Number:        r.RouteNumber,
			Waypoints:     waypoints,
			DistanceKm:    r.DistanceKm,
			DurationHours: r.DurationHours,
			FuelLiters:    r.FuelLiters,
			Polyline:      r.Polyline,
			Completed:     r.Completed,
			CompletedAt:   copyPtr(r.DateOfCompletion),
		})
	}

	return &domain.RouteSet{
		ID:          id,
		UserID:      d.UserID,
		Name:        d.Name,
		Params:      d.Parameters.ToDomain(),
		Routes:      routes,
		Completed:   d.Completed,
		GeneratedAt: d.DateOfGeneration,
		CompletedAt: copyPtr(d.DateOfCompletion),
	}
}

func NewHeldBackDocument(h *domain.HeldBackLocations) HeldBackDocument {
	priorities := make([]int, 0, len(h.Priorities))
	for _, p := range h.Priorities {
		priorities = append(priorities, int(p))
	}

	return HeldBackDocument{
		RoutesID:           h.RouteSetID,
		UserID:             h.UserID,
		DepotAddress:       h.DepotAddress,
		SemiDepotAddresses: append([]string{}, h.SemiDepotAddresses...),
		Addresses:          append([]string{}, h.Addresses...),
		Priorities:         priorities,
		Parameters:         NewParamsDocument(h.Params),
	}
}

func (d HeldBackDocument) ToDomain() *domain.HeldBackLocations {
	priorities := make([]domain.Priority, 0, len(d.Priorities))
	for _, p := range d.Priorities {
		priorities = append(priorities, domain.Priority(p))
	}

	return &domain.HeldBackLocations{
		RouteSetID:         d.RoutesID,
		UserID:             d.UserID,
		DepotAddress:       d.DepotAddress,
		SemiDepotAddresses: append([]string{}, d.SemiDepotAddresses...),
		Addresses:          append([]string{}, d.Addresses...),
		Priorities:         priorities,
		Params:             d.Parameters.ToDomain(),
	}
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
