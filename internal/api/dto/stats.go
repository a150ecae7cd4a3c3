package dto

type StatsRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type AddressCountResponse struct {
	Address string `json:"address"`
	Count   int    `json:"count"`
}

type StatsResponse struct {
	CompletedRoutes      int                    `json:"completed_routes"`
	DistanceKm           float64                `json:"distance_km"`
	DurationHours        float64                `json:"duration_hours"`
	FuelLiters           float64                `json:"fuel_liters"`
	CompletionsByWeekday map[string]int         `json:"completions_by_weekday"`
	VisitedLocations     int                    `json:"visited_locations"`
	UnvisitedLocations   int                    `json:"unvisited_locations"`
	PriorityCounts       map[string]int         `json:"priority_counts"`
	TopVisited           []AddressCountResponse `json:"top_visited"`
	TopMissed            []AddressCountResponse `json:"top_missed"`
	TopDepots            []AddressCountResponse `json:"top_depots"`
}

type AddressFrequencyResponse struct {
	Address   string  `json:"address"`
	Count     int     `json:"count"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ListAddressesResponse struct {
	Addresses []AddressFrequencyResponse `json:"addresses"`
}
