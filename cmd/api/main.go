package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	analyticsHttp "marketing-analytics-service/internal/analytics/adapters/http/fiber"
	analyticsPg "marketing-analytics-service/internal/analytics/adapters/postgres"
	"marketing-analytics-service/internal/analytics/core/ports"
	"marketing-analytics-service/internal/analytics/core/usecase"
	"marketing-analytics-service/internal/cache"
	"marketing-analytics-service/internal/invalidation"
	"marketing-analytics-service/internal/monitor"

	_ "marketing-analytics-service/docs"
)

const (
	breakerFailureThreshold = 5
	breakerCooldown         = 60 * time.Second
	maintenanceInterval     = 5 * time.Minute
	performanceSnapshotTTL  = 60 * time.Second
)

// cacheAdapter exposes the cache manager under the core's port, translating
// the port's plain query-type strings into typed manager keys.
type cacheAdapter struct {
	manager *cache.Manager
}

func (a *cacheAdapter) Get(ctx context.Context, queryType string, params map[string]string, dest any) bool {
	return a.manager.Get(ctx, cache.QueryType(queryType), params, dest)
}

func (a *cacheAdapter) Set(ctx context.Context, queryType string, params map[string]string, value any) {
	a.manager.Set(ctx, cache.QueryType(queryType), params, value)
}

func (a *cacheAdapter) SetTTL(ctx context.Context, queryType string, params map[string]string, value any, ttl time.Duration) {
	a.manager.SetTTL(ctx, cache.QueryType(queryType), params, value, ttl)
}

func (a *cacheAdapter) Delete(ctx context.Context, queryType string, params map[string]string) {
	a.manager.Delete(ctx, cache.QueryType(queryType), params)
}

func (a *cacheAdapter) InvalidatePattern(ctx context.Context, pattern string) {
	a.manager.InvalidatePattern(ctx, pattern)
}

type monitorAdapter struct {
	monitor *monitor.Monitor
}

func (a *monitorAdapter) StartQuery(queryID, queryType, organizationID, userID string) ports.QueryTracker {
	return a.monitor.StartQuery(queryID, queryType, organizationID, userID)
}

func main() {
	// .env is optional, real deployments inject the environment directly
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Config
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal("POSTGRES_DSN is not set")
	}
	redisURL := os.Getenv("REDIS_URL")
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// DB connection
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal("failed to open postgres", zap.Error(err))
	}
	defer db.Close()

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to ping postgres", zap.Error(err))
	}

	// Cache
	store := cache.NewTieredStore(redisURL, logger)
	manager := cache.NewManager(store, logger)
	defer manager.Close()
	cachePort := &cacheAdapter{manager: manager}

	// Monitoring
	mon := monitor.New(monitor.DefaultThresholds(), logger)
	mon.OnAlert(func(a monitor.Alert) {
		logger.Warn("performance alert",
			zap.String("type", a.Type),
			zap.String("severity", a.Severity),
			zap.String("message", a.Message),
		)
	})
	breaker := monitor.NewCircuitBreaker(breakerFailureThreshold, breakerCooldown, logger)

	// Repositories
	analyticsDB := analyticsPg.NewSQLDB(db)
	repository := analyticsPg.NewAnalyticsRepository(analyticsDB)
	seriesReader := analyticsPg.NewSeriesReader(analyticsDB, logger)

	// Usecases
	getMetricsUC := usecase.NewGetMetricsUseCase(repository, cachePort, &monitorAdapter{monitor: mon}, nil)
	getOverviewUC := usecase.NewGetOverviewUseCase(repository, cachePort, &monitorAdapter{monitor: mon}, nil)
	getTimeSeriesUC := usecase.NewGetTimeSeriesUseCase(repository, cachePort, &monitorAdapter{monitor: mon}, nil)
	aggregateUC := usecase.NewAggregateReportUseCase(repository, seriesReader, cachePort, &monitorAdapter{monitor: mon}, breaker, nil)

	// Invalidation + warming
	warmer := invalidation.NewWarmer(getMetricsUC, getOverviewUC, repository, logger)
	invalidationSvc := invalidation.NewService(manager, warmer, logger)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	go invalidationSvc.RunMaintenance(rootCtx, maintenanceInterval)

	// The latest performance snapshot is kept in the cache so operators can
	// read it from any instance behind the balancer.
	go func() {
		ticker := time.NewTicker(performanceSnapshotTTL)
		defer ticker.Stop()
		for {
			select {
			case <-rootCtx.Done():
				return
			case <-ticker.C:
				manager.SetTTL(rootCtx, cache.TypePerformance,
					map[string]string{"scope": "global"}, mon.Snapshot(), performanceSnapshotTTL)
			}
		}
	}()

	// HTTP (Fiber) app + handlers
	app := fiber.New()

	analyticsHandler := analyticsHttp.NewAnalyticsHandler(getMetricsUC, getOverviewUC, getTimeSeriesUC, aggregateUC, mon)
	app.Get("/analytics/metrics", analyticsHandler.GetMetrics)
	app.Get("/analytics/overview", analyticsHandler.GetOverview)
	app.Get("/analytics/time-series", analyticsHandler.GetTimeSeries)
	app.Get("/analytics/report", analyticsHandler.GetReport)
	app.Get("/analytics/performance", analyticsHandler.GetPerformance)

	cacheHandler := analyticsHttp.NewCacheHandler(invalidationSvc)
	app.Get("/cache/health", cacheHandler.GetHealth)
	app.Post("/cache/invalidate/content", cacheHandler.InvalidateContent)
	app.Post("/cache/invalidate/campaign", cacheHandler.InvalidateCampaign)
	app.Post("/cache/invalidate/analytics", cacheHandler.InvalidateAnalytics)
	app.Post("/cache/invalidate/membership", cacheHandler.InvalidateMembership)

	// Swagger
	app.Get("/docs/*", fiberSwagger.WrapHandler)

	// Graceful shutdown
	go func() {
		if err := app.Listen(":" + port); err != nil {
			logger.Error("fiber stopped", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	logger.Info("shutting down")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("fiber shutdown error", zap.Error(err))
	}

	logger.Info("server exiting")
}
