package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/fortuna/fortuna-ledger/internal/amqp"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/config"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/domain"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/handler"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/repository/memory"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/repository/postgres"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/service"
	"github.com/dafibh/fortuna/fortuna-ledger/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Open the store
	var (
		store domain.Store
		pool  *pgxpool.Pool
	)
	switch cfg.Storage {
	case config.StorageMemory:
		store = memory.NewStore()
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
	default:
		pool, err = pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping database")
		}
		log.Info().Msg("Connected to database")

		if cfg.RunMigrations {
			if err := postgres.RunMigrations(pool); err != nil {
				log.Fatal().Err(err).Msg("Failed to run migrations")
			}
			log.Info().Msg("Database migrations applied")
		}
		store = postgres.NewStore(pool)
	}

	// Event fan-out: websocket subscribers, plus RabbitMQ when configured
	hub := websocket.NewHub(log.Logger)
	publishers := websocket.MultiPublisher{hub}

	var amqpPublisher *amqp.Publisher
	if cfg.AMQP.URL != "" {
		amqpPublisher, err = amqp.Dial(cfg.AMQP.URL, cfg.AMQP.Exchange, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		publishers = append(publishers, amqpPublisher)
		log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("Publishing ledger events to RabbitMQ")
	}

	// Initialize services
	ledgerService := service.NewLedgerService(store, log.Logger, service.LedgerConfig{
		MaxConflictRetries: cfg.Ledger.MaxConflictRetries,
		RetryBackoff:       cfg.Ledger.RetryBackoff,
	})
	ledgerService.SetEventPublisher(publishers)

	scheduler := service.NewRecurringScheduler(store, ledgerService, log.Logger)
	scheduler.SetEventPublisher(publishers)
	worker := service.NewSchedulerWorker(scheduler, log.Logger, service.SchedulerWorkerConfig{
		Interval: cfg.Scheduler.Interval,
	})

	workspaceService := service.NewWorkspaceService(store)
	accountService := service.NewAccountService(store, log.Logger)
	categoryService := service.NewCategoryService(store)
	budgetService := service.NewBudgetService(store)
	recurringService := service.NewRecurringService(store)
	dashboardService := service.NewDashboardService(store)

	// Authentication: Auth0 JWTs, or a fixed workspace for local development
	var authenticate echo.MiddlewareFunc
	if cfg.AuthEnabled() {
		authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, workspaceService)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create auth middleware")
		}
		authenticate = authMiddleware.Authenticate()
	} else {
		log.Warn().Int32("workspace_id", cfg.DevWorkspaceID).Msg("Auth0 not configured, serving every request as the dev workspace")
		authenticate = middleware.StaticWorkspace(cfg.DevWorkspaceID)
	}

	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	// Initialize handlers
	var pinger handler.Pinger
	if pool != nil {
		pinger = pool
	}
	handlers := handler.Handlers{
		Health:      handler.NewHealthHandler(pinger),
		Workspace:   handler.NewWorkspaceHandler(workspaceService),
		Account:     handler.NewAccountHandler(accountService),
		Transaction: handler.NewTransactionHandler(ledgerService),
		Category:    handler.NewCategoryHandler(categoryService),
		Budget:      handler.NewBudgetHandler(budgetService),
		Recurring:   handler.NewRecurringHandler(recurringService, worker),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
		WebSocket:   handler.NewWebSocketHandler(hub, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	handler.RegisterRoutes(e, authenticate, rateLimiter, handlers)

	// Background recurring generation
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if cfg.Scheduler.Enabled {
		worker.Start(workerCtx)
		log.Info().Dur("interval", cfg.Scheduler.Interval).Msg("Recurring scheduler started")
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop producers before closing the event sinks they write to
	if cfg.Scheduler.Enabled {
		worker.Stop()
	}
	hub.CloseAll()
	if amqpPublisher != nil {
		if err := amqpPublisher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close RabbitMQ publisher")
		}
	}
	rateLimiter.Stop()

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Int32("workspace_id", middleware.GetWorkspaceID(c)).
				Msg("request")

			return nil
		}
	}
}
