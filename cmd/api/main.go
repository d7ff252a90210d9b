package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/tally/tally-backend/internal/config"
	"github.com/dafibh/tally/tally-backend/internal/domain"
	"github.com/dafibh/tally/tally-backend/internal/handler"
	"github.com/dafibh/tally/tally-backend/internal/middleware"
	"github.com/dafibh/tally/tally-backend/internal/repository/file"
	"github.com/dafibh/tally/tally-backend/internal/repository/postgres"
	"github.com/dafibh/tally/tally-backend/internal/repository/sqlite"
	"github.com/dafibh/tally/tally-backend/internal/repository/storage"
	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/dafibh/tally/tally-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// decisionBackend is a decision store that can report its health
type decisionBackend interface {
	domain.DecisionStore
	Ping(ctx context.Context) error
}

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

	// Load category schema and budgets
	schema, err := file.LoadSchemaFile(cfg.SchemaPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.SchemaPath).Msg("Failed to load category schema")
	}
	budgets, err := file.LoadBudgetFile(cfg.BudgetsPath, schema)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.BudgetsPath).Msg("Failed to load budgets")
	}
	log.Info().Int("categories", len(schema.All())).Msg("Loaded category schema")

	mappingFile, err := file.NewMappingFile(cfg.MappingsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.MappingsPath).Msg("Failed to open mapping log")
	}

	// Connect to the decision store
	var store decisionBackend
	if cfg.UsePostgres() {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to ping database")
		}

		repo := postgres.NewDecisionRepository(pool)
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to create decision tables")
		}
		store = repo
		log.Info().Msg("Connected to Postgres")
	} else {
		repo, err := sqlite.NewDecisionRepository(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Failed to open SQLite database")
		}
		defer repo.Close()
		store = repo
		log.Info().Str("path", cfg.SQLitePath).Msg("Opened SQLite database")
	}

	// Statement archive
	var archive domain.StatementArchive
	if cfg.S3.Enabled() {
		s3Archive, err := storage.NewS3StatementArchive(context.Background(), cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.S3.Bucket).Msg("Failed to initialize S3 archive")
		}
		archive = s3Archive
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Archiving statements to S3")
	} else {
		diskArchive, err := storage.NewDiskStatementArchive(cfg.ArchiveDir)
		if err != nil {
			log.Fatal().Err(err).Str("dir", cfg.ArchiveDir).Msg("Failed to initialize statement archive")
		}
		archive = diskArchive
	}

	// WebSocket hub for per-user events
	hub := websocket.NewHub()

	// Initialize services
	mappingService := service.NewMappingService(mappingFile, schema)
	statementService := service.NewStatementService(service.NewStatementDecider(), mappingService, store, schema, cfg.Users)
	statementService.SetEventPublisher(hub)
	statementService.SetArchive(archive)
	reportService := service.NewReportService(store, service.NewCategoryReporter(schema, budgets))
	reportService.SetUsers(cfg.Users)

	// Initialize handlers
	handlers := handler.Handlers{
		Category:  handler.NewCategoryHandler(schema),
		Mapping:   handler.NewMappingHandler(mappingService),
		Statement: handler.NewStatementHandler(statementService),
		Report:    handler.NewReportHandler(reportService),
		WebSocket: handler.NewWebSocketHandler(hub, cfg.Users, cfg.CORSOrigins),
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       86400,
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

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Register API routes
	handler.RegisterRoutes(e, handlers,
		echomiddleware.BodyLimit(cfg.BodyLimit),
		middleware.RateLimitMiddleware(rateLimiter),
	)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
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
		return
	}

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

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
