package api

import (
	"net/http"
	"route-planner-service/internal/api/handlers"
	"route-planner-service/internal/platform/metrics"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	lifecycle *services.Lifecycle,
	stats *services.Statistics,
	identities ports.IdentityResolver,
) http.Handler {
	mux := http.NewServeMux()

	routes := &handlers.RoutesHandler{Lifecycle: lifecycle}
	statsHandler := &handlers.StatsHandler{Stats: stats}
	auth := authMiddleware(identities)

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("POST /routes", auth(http.HandlerFunc(routes.Generate)))
	mux.Handle("GET /routes", auth(http.HandlerFunc(routes.List)))
	mux.Handle("GET /routes/active", auth(http.HandlerFunc(routes.ListActive)))
	mux.Handle("GET /routes/{id}", auth(http.HandlerFunc(routes.Get)))
	mux.Handle("DELETE /routes", auth(http.HandlerFunc(routes.DeleteAll)))
	mux.Handle("DELETE /routes/active", auth(http.HandlerFunc(routes.DeleteActive)))
	mux.Handle("DELETE /routes/{id}", auth(http.HandlerFunc(routes.Delete)))
	mux.Handle("POST /routes/waypoint", auth(http.HandlerFunc(routes.MarkWaypoint)))
	mux.Handle("POST /routes/regenerate", auth(http.HandlerFunc(routes.Regenerate)))
	mux.Handle("POST /routes/rename", auth(http.HandlerFunc(routes.Rename)))
	mux.Handle("POST /stats", auth(http.HandlerFunc(statsHandler.Window)))
	mux.Handle("GET /addresses", auth(http.HandlerFunc(statsHandler.Addresses)))

	return loggingMiddleware(metricsMiddleware(mux))
}
