package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Authorization metrics
	AuthzDecisionsTotal   *prometheus.CounterVec
	AuthzCheckDuration    prometheus.Histogram
	GrantCacheHitsTotal   prometheus.Counter
	GrantCacheMissesTotal prometheus.Counter

	// Onboarding metrics
	OnboardingComputeTotal    *prometheus.CounterVec
	OnboardingComputeDuration prometheus.Histogram
	OnboardingRecordsByStatus *prometheus.GaugeVec
	OnboardingOverdueTotal    prometheus.Gauge

	// Document storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	// Redis metrics
	RateLimitRejectionsTotal *prometheus.CounterVec
	RedisCommandDuration     *prometheus.HistogramVec

	// Business metrics
	ClientsTotal     prometheus.Gauge
	ActiveUsersTotal prometheus.Gauge
	APITokensActive  prometheus.Gauge

	// Scheduler metrics
	SchedulerRunsTotal   *prometheus.CounterVec
	SchedulerRunDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glowdesk_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "glowdesk_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "glowdesk_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "path"},
		),

		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glowdesk_authz_decisions_total",
				Help: "Total number of authorization decisions",
			},
			[]string{"module", "action", "result"},
		),
		AuthzCheckDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "glowdesk_authz_check_duration_seconds",
				Help:    "Authorization check duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
			},
		),
		GrantCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "glowdesk_grant_cache_hits_total",
				Help: "Total number of principal grant cache hits",
			},
		),
		GrantCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "glowdesk_grant_cache_misses_total",
				Help: "Total number of principal grant cache misses",
			},
		),

		OnboardingComputeTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glowdesk_onboarding_compute_total",
				Help: "Total number of onboarding progress computations",
			},
			[]string{"trigger"},
		),
		OnboardingComputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "glowdesk_onboarding_compute_duration_seconds",
				Help:    "Onboarding progress computation duration in seconds",
				Buckets: []float64{.0001, .001, .01, .1},
			},
		),
		OnboardingRecordsByStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "glowdesk_onboarding_records",
				Help: "Number of onboarding records per status",
			},
			[]string{"status"},
		),
		OnboardingOverdueTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "glowdesk_onboarding_overdue_total",
				Help: "Number of onboarding records past their expected completion date",
			},
		),

		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glowdesk_storage_operations_total",
				Help: "Total number of document storage operations",
			},
			[]string{"operation", "backend", "status"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "glowdesk_storage_operation_duration_seconds",
				Help:    "Document storage operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "backend"},
		),

		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "glowdesk_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "glowdesk_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		RateLimitRejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glowdesk_ratelimit_rejections_total",
				Help: "Total number of rate-limited requests",
			},
			[]string{"scope"},
		),
		RedisCommandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "glowdesk_redis_command_duration_seconds",
				Help:    "Redis command duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"command"},
		),

		ClientsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "glowdesk_clients_total",
				Help: "Total number of client records",
			},
		),
		ActiveUsersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "glowdesk_active_users_total",
				Help: "Total number of active users",
			},
		),
		APITokensActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "glowdesk_api_tokens_active",
				Help: "Number of active API tokens",
			},
		),

		SchedulerRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "glowdesk_scheduler_runs_total",
				Help: "Total number of scheduled job runs",
			},
			[]string{"job", "status"},
		),
		SchedulerRunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "glowdesk_scheduler_run_duration_seconds",
				Help:    "Scheduled job run duration in seconds",
				Buckets: []float64{.01, .1, .5, 1, 5, 30, 60},
			},
			[]string{"job"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.AuthzDecisionsTotal,
		m.AuthzCheckDuration,
		m.GrantCacheHitsTotal,
		m.GrantCacheMissesTotal,
		m.OnboardingComputeTotal,
		m.OnboardingComputeDuration,
		m.OnboardingRecordsByStatus,
		m.OnboardingOverdueTotal,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
		m.RateLimitRejectionsTotal,
		m.RedisCommandDuration,
		m.ClientsTotal,
		m.ActiveUsersTotal,
		m.APITokensActive,
		m.SchedulerRunsTotal,
		m.SchedulerRunDuration,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
			metrics.HTTPResponseSize.WithLabelValues(r.Method, r.URL.Path).Observe(float64(rw.bytesWritten))
		})
	}
}

// ObserveDBStats records database/sql pool statistics. Called periodically
// from the scheduler.
func (m *Metrics) ObserveDBStats(open, idle int) {
	m.DBConnectionsActive.Set(float64(open))
	m.DBConnectionsIdle.Set(float64(idle))
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
