package handlers

import (
	"net/http"
	"route-planner-service/internal/api/dto"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/platform/metrics"
	"route-planner-service/internal/services"
	"strconv"
	"strings"
	"time"
)

// RoutesHandler exposes route-set generation and lifecycle endpoints.
type RoutesHandler struct {
	Lifecycle *services.Lifecycle
}

func (h *RoutesHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req dto.GenerateRoutesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	svcReq := services.GenerateRequest{
		PlanRequest: services.PlanRequest{
			Days:               req.Days,
			DistanceLimit:      req.DistanceLimit,
			DurationLimit:      req.DurationLimit,
			Preference:         req.Preferences,
			AvoidTolls:         req.AvoidTolls,
			DepotAddress:       req.DepotAddress,
			SemiDepotAddresses: req.SemiDepotAddresses,
			Addresses:          req.Addresses,
			Priorities:         req.Priorities,
		},
		RoutesID:  strings.TrimSpace(req.RoutesID),
		Overwrite: req.Overwrite,
		Name:      req.Name,
	}

	set, err := h.Lifecycle.Generate(r.Context(), userID(r), svcReq)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	status, mode := http.StatusCreated, "new"
	if svcReq.RoutesID != "" {
		status, mode = http.StatusOK, "merge"
		if svcReq.Overwrite {
			mode = "overwrite"
		}
	}
	metrics.RouteSetsGenerated.WithLabelValues(mode).Inc()

	writeJSON(w, r, status, routeSetResponse(set))
}

func (h *RoutesHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *RoutesHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *RoutesHandler) list(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	sets, err := h.Lifecycle.List(r.Context(), userID(r), activeOnly)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res := dto.ListRouteSetsResponse{RouteSets: make([]dto.RouteSetResponse, 0, len(sets))}
	for _, s := range sets {
		res.RouteSets = append(res.RouteSets, routeSetResponse(s))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RoutesHandler) Get(w http.ResponseWriter, r *http.Request) {
	set, err := h.Lifecycle.Get(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, routeSetResponse(set))
}

func (h *RoutesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Lifecycle.Delete(r.Context(), userID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.DeleteResponse{Deleted: 1})
}

func (h *RoutesHandler) DeleteActive(w http.ResponseWriter, r *http.Request) {
	n, err := h.Lifecycle.DeleteActive(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.DeleteResponse{Deleted: n})
}

func (h *RoutesHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Lifecycle.DeleteAll(r.Context(), userID(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, dto.DeleteResponse{Deleted: n})
}

func (h *RoutesHandler) MarkWaypoint(w http.ResponseWriter, r *http.Request) {
	var req dto.MarkWaypointRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	switch {
	case strings.TrimSpace(req.RoutesID) == "":
		writeServiceError(w, r, domain.Validationf("routes_id is required"))
		return
	case req.RouteNumber == nil:
		writeServiceError(w, r, domain.Validationf("route_number is required"))
		return
	case req.LocationNumber == nil:
		writeServiceError(w, r, domain.Validationf("location_number is required"))
		return
	case req.Visited == nil:
		writeServiceError(w, r, domain.Validationf("visited is required"))
		return
	}

	res, err := h.Lifecycle.MarkWaypoint(r.Context(), userID(r), services.MarkWaypointRequest{
		RoutesID:       strings.TrimSpace(req.RoutesID),
		RouteNumber:    *req.RouteNumber,
		LocationNumber: *req.LocationNumber,
		Visited:        *req.Visited,
		ShouldKeep:     req.ShouldKeep,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	metrics.WaypointsMarked.WithLabelValues(strconv.FormatBool(*req.Visited)).Inc()

	writeJSON(w, r, http.StatusOK, dto.MarkWaypointResponse{
		RoutesID:        res.Set.ID,
		RouteNumber:     res.Route.Number,
		Completed:       res.Route.Completed,
		RoutesCompleted: res.Set.Completed,
		DistanceKm:      res.Route.DistanceKm,
		DurationHours:   res.Route.DurationHours,
		FuelLiters:      res.Route.FuelLiters,
		Route:           routeResponse(res.Route),
	})
}

func (h *RoutesHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req dto.RegenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RoutesID) == "" {
		writeServiceError(w, r, domain.Validationf("routes_id is required"))
		return
	}

	regen, err := h.Lifecycle.RegenerateLocations(r.Context(), userID(r), strings.TrimSpace(req.RoutesID), req.Full)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	planReq := regen.PlanRequest()
	res := dto.RegenerationResponse{
		RoutesID:           regen.RoutesID,
		Days:               planReq.Days,
		DistanceLimit:      planReq.DistanceLimit,
		DurationLimit:      planReq.DurationLimit,
		Preferences:        planReq.Preference,
		AvoidTolls:         planReq.AvoidTolls,
		DepotAddress:       planReq.DepotAddress,
		SemiDepotAddresses: nonNil(planReq.SemiDepotAddresses),
		Addresses:          nonNil(planReq.Addresses),
		Priorities:         nonNil(planReq.Priorities),
		Depot:              locationResponse(regen.Depot),
		SemiDepots:         make([]dto.LocationResponse, 0, len(regen.SemiDepots)),
		Locations:          make([]dto.LocationResponse, 0, len(regen.Addresses)),
	}
	for _, sd := range regen.SemiDepots {
		res.SemiDepots = append(res.SemiDepots, locationResponse(sd))
	}
	for _, a := range regen.Addresses {
		res.Locations = append(res.Locations, locationResponse(a))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *RoutesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req dto.RenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	set, err := h.Lifecycle.Rename(r.Context(), userID(r), strings.TrimSpace(req.RoutesID), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, routeSetResponse(set))
}

func routeSetResponse(set *domain.RouteSet) dto.RouteSetResponse {
	routes := make(map[int]dto.RouteResponse, len(set.Routes))
	for _, r := range set.Routes {
		routes[r.Number] = routeResponse(r)
	}

	return dto.RouteSetResponse{
		RoutesID: set.ID,
		Name:     set.Name,
		Parameters: dto.ParametersResponse{
			Days:               set.Params.Days,
			DistanceLimit:      set.Params.DistanceLimit,
			DurationLimit:      set.Params.DurationLimit,
			Preferences:        string(set.Params.Preference),
			AvoidTolls:         set.Params.AvoidTolls,
			DepotAddress:       set.Params.DepotAddress,
			SemiDepotAddresses: nonNil(set.Params.SemiDepotAddresses),
		},
		Routes:           routes,
		RoutesCompleted:  set.Completed,
		DateOfGeneration: set.GeneratedAt.Format(services.DateLayout),
		DateOfCompletion: formatDate(set.CompletedAt),
	}
}

func routeResponse(r domain.Route) dto.RouteResponse {
	coords := make([]dto.WaypointResponse, 0, len(r.Waypoints))
	for _, w := range r.Waypoints {
		var priority *int
		if w.Priority != nil {
			p := int(*w.Priority)
			priority = &p
		}
		coords = append(coords, dto.WaypointResponse{
			Latitude:            w.Coords.Lat,
			Longitude:           w.Coords.Lng,
			Name:                w.Name,
			Priority:            priority,
			LocationNumber:      w.LocationNumber,
			Visited:             w.Visited,
			ShouldKeep:          w.ShouldKeep,
			PolylineToNextPoint: w.PolylineToNext,
			IsDepot:             w.IsDepot,
			IsSemiDepot:         w.IsSemiDepot,
		})
	}

	return dto.RouteResponse{
		RouteNumber:      r.Number,
		Coords:           coords,
		Completed:        r.Completed,
		DateOfCompletion: formatDate(r.CompletedAt),
		DistanceKm:       r.DistanceKm,
		DurationHours:    r.DurationHours,
		FuelLiters:       r.FuelLiters,
		Polyline:         r.Polyline,
	}
}

func locationResponse(l services.LocatedAddress) dto.LocationResponse {
	return dto.LocationResponse{
		Address:   l.Address,
		Latitude:  l.Coords.Lat,
		Longitude: l.Coords.Lng,
		Priority:  int(l.Priority),
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(services.DateLayout)
	return &s
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
