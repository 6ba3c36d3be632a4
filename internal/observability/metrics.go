package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce       sync.Once
	apiRequestsTotal   *prometheus.CounterVec
	apiLatencySeconds  *prometheus.HistogramVec
	apiErrorsTotal     *prometheus.CounterVec
	submissionsTotal   *prometheus.CounterVec
	catalogCacheLookup *prometheus.CounterVec
	contactMessages    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loopwar",
			Name:      "api_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loopwar",
			Name:      "api_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loopwar",
			Name:      "api_errors_total",
			Help:      "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		submissionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loopwar",
			Name:      "code_submissions_total",
			Help:      "Recorded code submissions by derived status.",
		}, []string{"status"})

		catalogCacheLookup = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loopwar",
			Name:      "catalog_cache_lookups_total",
			Help:      "Catalog cache lookups by result.",
		}, []string{"result"})

		contactMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loopwar",
			Name:      "contact_messages_total",
			Help:      "Contact form messages by outcome.",
		}, []string{"result"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, submissionsTotal, catalogCacheLookup, contactMessages)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Submissions exposes the submission counter keyed by status.
func Submissions() *prometheus.CounterVec {
	RegisterMetrics()
	return submissionsTotal
}

// CatalogCache exposes the catalog cache hit/miss counter.
func CatalogCache() *prometheus.CounterVec {
	RegisterMetrics()
	return catalogCacheLookup
}

// ContactMessages exposes the contact form counter keyed by outcome.
func ContactMessages() *prometheus.CounterVec {
	RegisterMetrics()
	return contactMessages
}

// MetricsHandler serves every collector registered with the default registry,
// including the AI and judge metrics declared in pkg.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}
