// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxprep_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taxprep_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// QuotesBuilt counts successful quote builds.
	QuotesBuilt = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxprep_quotes_built_total",
		Help: "Quotes built or rebuilt",
	})

	// ConfigurationErrors counts operations refused for missing reference data.
	ConfigurationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxprep_configuration_errors_total",
		Help: "Operations failed because reference data is missing",
	}, []string{"operation"})

	// ChecklistsDerived counts checklist derivations.
	ChecklistsDerived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxprep_checklists_derived_total",
		Help: "Checklists derived for quotes",
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxprep_reference_cache_lookups_total",
		Help: "Reference cache lookups by cache and result",
	}, []string{"cache", "result"})

	// NotificationFailures counts notifications that could not be delivered.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taxprep_notification_failures_total",
		Help: "Notifications that failed to send",
	})
)

// CacheObserver records a reference cache lookup. It matches refcache.Observer.
func CacheObserver(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Middleware records count and latency per route. Routes are labelled by the
// matched ServeMux pattern to keep label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
