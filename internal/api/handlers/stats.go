package handlers

import (
	"net/http"
	"route-planner-service/internal/api/dto"
	"route-planner-service/internal/services"
	"strconv"
)

type StatsHandler struct {
	Stats *services.Statistics
}

func (h *StatsHandler) Window(w http.ResponseWriter, r *http.Request) {
	var req dto.StatsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	stats, err := h.Stats.Window(r.Context(), userID(r), req.StartDate, req.EndDate)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.StatsResponse{
		CompletedRoutes:      stats.CompletedRoutes,
		DistanceKm:           stats.DistanceKm,
		DurationHours:        stats.DurationHours,
		FuelLiters:           stats.FuelLiters,
		CompletionsByWeekday: stats.CompletionsByWeekday,
		VisitedLocations:     stats.VisitedLocations,
		UnvisitedLocations:   stats.UnvisitedLocations,
		PriorityCounts:       make(map[string]int, len(stats.PriorityCounts)),
		TopVisited:           addressCounts(stats.TopVisited),
		TopMissed:            addressCounts(stats.TopMissed),
		TopDepots:            addressCounts(stats.TopDepots),
	}
	for p, n := range stats.PriorityCounts {
		res.PriorityCounts[strconv.Itoa(int(p))] = n
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *StatsHandler) Addresses(w http.ResponseWriter, r *http.Request) {
	freqs, err := h.Stats.AllAddresses(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListAddressesResponse{Addresses: make([]dto.AddressFrequencyResponse, 0, len(freqs))}
	for _, f := range freqs {
		res.Addresses = append(res.Addresses, dto.AddressFrequencyResponse{
			Address:   f.Address,
			Count:     f.Count,
			Latitude:  f.Coords.Lat,
			Longitude: f.Coords.Lng,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func addressCounts(in []services.AddressCount) []dto.AddressCountResponse {
	out := make([]dto.AddressCountResponse, 0, len(in))
	for _, a := range in {
		out = append(out, dto.AddressCountResponse{Address: a.Address, Count: a.Count})
	}
	return out
}
