package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/glowdesk/glowdesk/pkg/api"
	"github.com/glowdesk/glowdesk/pkg/audit"
	"github.com/glowdesk/glowdesk/pkg/auth"
	"github.com/glowdesk/glowdesk/pkg/authz"
	"github.com/glowdesk/glowdesk/pkg/clients"
	"github.com/glowdesk/glowdesk/pkg/config"
	"github.com/glowdesk/glowdesk/pkg/database"
	"github.com/glowdesk/glowdesk/pkg/documents"
	"github.com/glowdesk/glowdesk/pkg/invoices"
	"github.com/glowdesk/glowdesk/pkg/middleware"
	"github.com/glowdesk/glowdesk/pkg/observability"
	"github.com/glowdesk/glowdesk/pkg/onboarding"
	"github.com/glowdesk/glowdesk/pkg/reports"
	"github.com/glowdesk/glowdesk/pkg/scheduler"
	"github.com/glowdesk/glowdesk/pkg/staff"
	"github.com/glowdesk/glowdesk/pkg/tasks"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.ParsedLogLevel(), os.Stdout)
	logger.WithField("version", version).Info("starting glowdesk")

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.WithError(err).Error("glowdesk exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	db, err := database.Connect(ctx, cfg.Database.URL, database.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		defer redisClient.Close()
		logger.WithField("addr", cfg.Redis.Addr).Info("redis connected")
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	sessions, err := auth.NewSessionManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	if err != nil {
		return err
	}
	cache, err := auth.NewPrincipalCache(cfg.Auth.GrantCacheSize, cfg.Auth.GrantCacheTTL)
	if err != nil {
		return err
	}

	authStore := auth.NewStore(db)
	engine := authz.NewEngine(authz.NewRegistry())

	clientStore := clients.NewStore(db)
	onboardingStore := onboarding.NewStore(db, cfg.Onboarding.DefaultCompletionWindow)
	taskStore := tasks.NewStore(db)
	invoiceStore := invoices.NewStore(db)
	staffStore := staff.NewStore(db)

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	docService := documents.NewService(documents.NewStore(db), blobs, metrics)
	logger.WithField("backend", blobs.Backend()).Info("document storage ready")

	auditLogger, err := audit.NewDBLogger(db)
	if err != nil {
		return err
	}

	authMW := middleware.NewAuthMiddleware(sessions, authStore, cache, logger, true)

	var rateLimitHandler func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(redisClient, &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			WindowDuration:    cfg.RateLimit.Window,
		}, "glowdesk")
		rateLimitHandler = middleware.NewRateLimitMiddleware(limiter, logger, metrics).Handler
	}

	apiServer := api.NewServer(api.Deps{
		Logger:   logger,
		Metrics:  metrics,
		Engine:   engine,
		Sessions: sessions,
		Auth:     authStore,
		Cache:    cache,

		Clients:    clientStore,
		Onboarding: onboardingStore,
		Tasks:      taskStore,
		Invoices:   invoiceStore,
		Staff:      staffStore,
		Documents:  docService,
		Reports:    reports.NewService(db),

		AuditLogger: auditLogger,
		AuditSearch: auditLogger,

		AuthHandler:      authMW.Handler,
		RateLimitHandler: rateLimitHandler,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
	})

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      apiServer.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics live on a separate port so probes and scrapes skip
	// the auth and rate limit chain.
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(db, redisClient, version))
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(healthServer.Shutdown)

	if cfg.Scheduler.Enabled {
		sched := scheduler.New(logger, metrics, 0)
		sweep := scheduler.NewOverdueSweepJob(onboardingStore, logger)
		if err := sched.AddJob(scheduler.JobOverdueSweep, cfg.Scheduler.OverdueSweepSpec, sweep); err != nil {
			return err
		}
		gauges := scheduler.NewGaugeRefreshJob(onboardingStore, clientStore, authStore, db, metrics)
		if err := sched.AddJob(scheduler.JobGaugeRefresh, cfg.Scheduler.DBStatsSpec, gauges); err != nil {
			return err
		}
		sched.RunNow(scheduler.JobGaugeRefresh, gauges)
		sched.Start()
		shutdown.RegisterShutdownFunc(sched.Stop)
		logger.Info("scheduler started")
	}

	var group errgroup.Group
	group.Go(func() error {
		logger.WithField("addr", server.Addr).Info("api server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(shutdown.WaitForShutdown)

	return group.Wait()
}

// newBlobStore selects the document backend from configuration.
func newBlobStore(ctx context.Context, cfg config.StorageConfig) (documents.BlobStore, error) {
	switch cfg.Type {
	case "s3":
		return documents.NewS3Store(ctx, documents.S3Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		})
	default:
		return documents.NewFilesystemStore(cfg.FilesystemRoot)
	}
}
