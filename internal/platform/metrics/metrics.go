package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, route pattern and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// MapsCalls counts mapping-service calls by operation and outcome.
	MapsCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "maps_calls_total", Help: "Mapping service calls by operation and outcome."},
		[]string{"op", "outcome"},
	)
	// MapsCacheLookups counts cache hits and misses in front of the mapping service.
	MapsCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "maps_cache_lookups_total", Help: "Mapping cache lookups by cache and result."},
		[]string{"cache", "result"},
	)

	RouteSetsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_sets_generated_total", Help: "Generated route sets by mode."},
		[]string{"mode"},
	)
	WaypointsMarked = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "waypoints_marked_total", Help: "Marked waypoints by outcome."},
		[]string{"visited"},
	)
)

var regOnce sync.Once

// Register adds all collectors to Registry. Safe to call more than once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(MapsCalls)
		Registry.MustRegister(MapsCacheLookups)
		Registry.MustRegister(RouteSetsGenerated)
		Registry.MustRegister(WaypointsMarked)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler serves Registry in the Prometheus exposition format.
func Handler() http.Handler {
	Register()
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
