package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the service's Prometheus collectors. A nil *Registry is
// valid and records nothing.
type Registry struct {
	Gatherer prometheus.Gatherer

	searchTotal    *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Registry{
		Gatherer: reg,
		searchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flights_search_requests_total",
			Help: "Flight service operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		searchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flights_search_duration_seconds",
			Help:    "Flight service operation latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flights_search_cache_hits_total",
			Help: "Search results served from cache",
		}, []string{"operation"}),
		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flights_search_cache_misses_total",
			Help: "Search results computed because the cache had no entry",
		}, []string{"operation"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flights_http_requests_total",
			Help: "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status_code"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flights_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func (r *Registry) ObserveOperation(op, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.searchTotal.WithLabelValues(op, outcome).Inc()
	r.searchDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (r *Registry) CacheHit(op string) {
	if r == nil {
		return
	}
	r.cacheHits.WithLabelValues(op).Inc()
}

func (r *Registry) CacheMiss(op string) {
	if r == nil {
		return
	}
	r.cacheMisses.WithLabelValues(op).Inc()
}

func (r *Registry) ObserveHTTP(route, method, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, status).Inc()
	r.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
