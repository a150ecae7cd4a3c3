package dto

type GenerateRoutesRequest struct {
	Days               int      `json:"days"`
	DistanceLimit      *float64 `json:"distance_limit"`
	DurationLimit      *float64 `json:"duration_limit"`
	Preferences        string   `json:"preferences"`
	AvoidTolls         bool     `json:"avoid_tolls"`
	DepotAddress       string   `json:"depot_address"`
	SemiDepotAddresses []string `json:"semi_depot_addresses"`
	Addresses          []string `json:"addresses"`
	Priorities         []int    `json:"priorities"`

	// Optional target route set.
	RoutesID  string `json:"routes_id"`
	Overwrite bool   `json:"overwrite"`
	Name      string `json:"name"`
}

type MarkWaypointRequest struct {
	RoutesID       string `json:"routes_id"`
	RouteNumber    *int   `json:"route_number"`
	LocationNumber *int   `json:"location_number"`
	Visited        *bool  `json:"visited"`
	ShouldKeep     *bool  `json:"should_keep"`
}

type RegenerateRequest struct {
	RoutesID string `json:"routes_id"`
	Full     bool   `json:"full"`
}

type RenameRequest struct {
	RoutesID string `json:"routes_id"`
	Name     string `json:"name"`
}

type ParametersResponse struct {
	Days               int      `json:"days"`
	DistanceLimit      *float64 `json:"distance_limit"`
	DurationLimit      *float64 `json:"duration_limit"`
	Preferences        string   `json:"preferences"`
	AvoidTolls         bool     `json:"avoid_tolls"`
	DepotAddress       string   `json:"depot_address"`
	SemiDepotAddresses []string `json:"semi_depot_addresses"`
}

type WaypointResponse struct {
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	Name                string  `json:"name"`
	Priority            *int    `json:"priority,omitempty"`
	LocationNumber      int     `json:"location_number"`
	Visited             *bool   `json:"visited"`
	ShouldKeep          *bool   `json:"should_keep"`
	PolylineToNextPoint *string `json:"polyline_to_next_point,omitempty"`
	IsDepot             bool    `json:"isDepot"`
	IsSemiDepot         bool    `json:"isSemiDepot"`
}

type RouteResponse struct {
	RouteNumber      int                `json:"route_number"`
	Coords           []WaypointResponse `json:"coords"`
	Completed        bool               `json:"completed"`
	DateOfCompletion *string            `json:"date_of_completion"`
	DistanceKm       float64            `json:"distance_km"`
	DurationHours    float64            `json:"duration_hours"`
	FuelLiters       float64            `json:"fuel_liters"`
	Polyline         string             `json:"polyline"`
}

type RouteSetResponse struct {
	RoutesID         string                `json:"routes_id"`
	Name             string                `json:"name"`
	Parameters       ParametersResponse    `json:"parameters"`
	Routes           map[int]RouteResponse `json:"routes"`
	RoutesCompleted  bool                  `json:"routes_completed"`
	DateOfGeneration string                `json:"date_of_generation"`
	DateOfCompletion *string               `json:"date_of_completion"`
}

type ListRouteSetsResponse struct {
	RouteSets []RouteSetResponse `json:"route_sets"`
}

type MarkWaypointResponse struct {
	RoutesID        string        `json:"routes_id"`
	RouteNumber     int           `json:"route_number"`
	Completed       bool          `json:"completed"`
	RoutesCompleted bool          `json:"routes_completed"`
	DistanceKm      float64       `json:"distance_km"`
	DurationHours   float64       `json:"duration_hours"`
	FuelLiters      float64       `json:"fuel_liters"`
	Route           RouteResponse `json:"route"`
}

type LocationResponse struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Priority  int     `json:"priority,omitempty"`
}

// RegenerationResponse carries the POST /routes fields for a new generation
// plus the resolved coordinates of every location.
type RegenerationResponse struct {
	RoutesID           string   `json:"routes_id"`
	Days               int      `json:"days"`
	DistanceLimit      *float64 `json:"distance_limit"`
	DurationLimit      *float64 `json:"duration_limit"`
	Preferences        string   `json:"preferences"`
	AvoidTolls         bool     `json:"avoid_tolls"`
	DepotAddress       string   `json:"depot_address"`
	SemiDepotAddresses []string `json:"semi_depot_addresses"`
	Addresses          []string `json:"addresses"`
	Priorities         []int    `json:"priorities"`

	Depot      LocationResponse   `json:"depot"`
	SemiDepots []LocationResponse `json:"semi_depots"`
	Locations  []LocationResponse `json:"locations"`
}

type DeleteResponse struct {
	Deleted int `json:"deleted"`
}
