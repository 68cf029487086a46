package app

import (
	"context"
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargehub/internal/config"
	"chargehub/internal/db"
	httpserver "chargehub/internal/http"
	"chargehub/internal/http/middleware"
	"chargehub/internal/metrics"
	"chargehub/internal/payment"
	"chargehub/internal/redisstore"
	"chargehub/internal/repository"
	"chargehub/internal/service"
	"chargehub/internal/ws"
)

// App wires the chargehub dependency graph.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	rateLimiter *middleware.RateLimiter
	logger      *zap.Logger
}

// New constructs the application graph. Redis is optional: without an address
// the active session cache is disabled and everything else still works.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := db.RunMigrations(cfg.Database.DSN); err != nil {
		return nil, err
	}

	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	var activeCache service.ActiveCache
	if cfg.Redis.Addr != "" {
		redisClient, err = redisstore.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		activeCache = redisstore.NewStore(redisClient, cfg.ActiveSessionTTL())
	}

	stationRepo := repository.NewStationRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)
	queueRepo := repository.NewQueueRepository(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	coordinatorMetrics := metrics.New(registry)
	metrics.RegisterQueueDepth(registry, queueRepo, logger)

	hub := ws.NewHub(logger)
	gateway := &payment.StubGateway{}

	coordinator := service.NewCoordinatorService(
		stationRepo,
		sessionRepo,
		queueRepo,
		userRepo,
		gateway,
		service.CoordinatorConfig{
			Cache:          activeCache,
			Events:         hub,
			Metrics:        coordinatorMetrics,
			PaymentTimeout: cfg.PaymentTimeout(),
		},
		logger,
	)
	sessionsService := service.NewSessionsService(sessionRepo, stationRepo, coordinator, activeCache, logger)
	stationsService := service.NewStationsService(stationRepo, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	router := httpserver.NewRouter(httpserver.Deps{
		Stations:    stationsService,
		Sessions:    sessionsService,
		Coordinator: coordinator,
		JWTSecret:   cfg.Auth.JWTSecret,
		RateLimiter: rateLimiter,
		WSHandler:   ws.Handler(hub, logger),
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:      logger,
	})
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		db:          sqlDB,
		redisClient: redisClient,
		rateLimiter: rateLimiter,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
