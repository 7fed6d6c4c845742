// Package observability provides structured logging, Prometheus metrics,
// health checks and graceful shutdown for the GlowDesk API server.
//
// The logger is a thin wrapper over stdlib slog with a JSON handler; request
// and user identifiers attached to the context by middleware are folded into
// every log line via FromContext.
//
// Metrics cover the HTTP surface, authorization decisions, onboarding
// progress computation, storage backends and the database/Redis pools.
// Everything registers against a caller-owned prometheus.Registry so tests
// can use isolated registries.
//
// Typical wiring in main:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	checker := observability.NewHealthChecker(db, redisClient, version)
package observability
