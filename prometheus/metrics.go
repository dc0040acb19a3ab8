package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_login_total",
			Help: "Total number of admin login attempts",
		},
	)

	// Organization lifecycle operation counter
	LifecycleOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_lifecycle_operations_total",
			Help: "Total number of organization lifecycle operations",
		},
		[]string{"operation"}, // "create", "get", "update", "rename", "delete"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Auth error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tenant_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "expired_token", "invalid_token", etc.
	)

	// Documents moved by rename migrations
	MigratedDocumentsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tenant_migrated_documents_total",
			Help: "Total number of documents copied by collection migrations",
		},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tenant_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Collection migration duration
	MigrationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tenant_migration_duration_seconds",
			Help:    "Duration of rename collection migrations in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(LifecycleOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(MigratedDocumentsCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(MigrationDuration)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordLifecycleOperation records an organization lifecycle operation
func RecordLifecycleOperation(operation string) {
	LifecycleOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordMigration records a completed collection migration
func RecordMigration(documents int64, elapsed time.Duration) {
	MigratedDocumentsCounter.Add(float64(documents))
	MigrationDuration.Observe(elapsed.Seconds())
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}
