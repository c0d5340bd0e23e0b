package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"contentnav/internal/auth"
	"contentnav/internal/capabilities"
	"contentnav/internal/config"
	contentRepo "contentnav/internal/domain/repositories/content"
	"contentnav/internal/handler"
	"contentnav/internal/handler/sse"
	"contentnav/internal/middleware"
	"contentnav/internal/repository/fixture"
	"contentnav/internal/repository/postgres"
	"contentnav/internal/service/navigation"
	"contentnav/internal/service/viewer"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup structured logging, optionally teeing into a rotated log file
	var logFile io.Writer
	if cfg.LogDir != "" {
		f, err := config.SetupLogFile(cfg.LogDir, "server", cfg.LogMaxFiles, time.Now())
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logFile = f
	}
	logger := config.NewLogger(cfg, logFile)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"repository_backend", cfg.RepositoryBackend,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// JWT verification is optional in dev; without it every request is the dev user
	var jwtVerifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		v, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer v.Close()
		jwtVerifier = v
	} else {
		logger.Warn("JWKS_URL not set, authenticating every request as the dev user", "dev_user_id", cfg.DevUserID)
	}

	// Initialize capability registry
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	logger.Info("capability registry initialized", "kinds", len(capabilityRegistry.Kinds()))

	// Content repository
	var repo contentRepo.Repository
	var fixtureRepo *fixture.Repository
	switch cfg.RepositoryBackend {
	case config.BackendPostgres:
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns: config.DBMaxConns,
			MinConns: config.DBMinConns,
		})
		if err != nil {
			log.Fatalf("Failed to create connection pool: %v", err)
		}
		defer pool.Close()

		logger.Info("database connected",
			"max_conns", config.DBMaxConns,
			"min_conns", config.DBMinConns,
		)

		tables := postgres.NewTableNames(cfg.TablePrefix)
		if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		repoConfig := &postgres.RepositoryConfig{
			Pool:   pool,
			Tables: tables,
			Logger: logger,
		}
		repo = postgres.NewContentRepository(repoConfig, postgres.NewTransactionManager(pool, logger))

	case config.BackendFixture:
		tree, err := fixture.ParseFile(cfg.FixturePath)
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
		fixtureRepo = fixture.NewRepository(tree, logger)
		repo = fixtureRepo
		logger.Info("fixture repository loaded", "path", cfg.FixturePath)
	}

	// Workspaces
	registry := navigation.NewRegistry(navigation.Dependencies{
		Repository:    repo,
		Capabilities:  capabilityRegistry,
		ViewerFactory: viewer.NewBridgeFactory(capabilityRegistry, capabilityRegistry.Events()),
		Logger:        logger,
	}, navigation.WorkspaceConfig{
		HostURL:              cfg.HostURL,
		NavSearchDebounce:    cfg.NavSearchDebounce,
		MoveSearchDebounce:   cfg.MoveSearchDebounce,
		CacheErrorTTL:        cfg.CacheErrorTTL,
		ViewerConnectTimeout: cfg.ViewerConnectTimeout,
		Loader: navigation.LoaderConfig{
			MaxDepth:         config.MaxTreeDepth,
			ChildConcurrency: config.ChildConcurrency,
		},
	}, cfg.SessionIdleTimeout)
	defer registry.Close()
	go registry.Run(ctx)

	if fixtureRepo != nil && cfg.FixtureWatch {
		go func() {
			if err := fixtureRepo.Watch(ctx, cfg.FixturePath, registry.ResetCaches); err != nil {
				logger.Error("fixture watcher stopped", "error", err)
			}
		}()
		logger.Info("watching fixture for changes", "path", cfg.FixturePath)
	}

	if cfg.HostURL == "" {
		logger.Warn("VIEWER_HOST_URL not set, every selection will show the load error")
	}

	// Session cookies bind browsers to their workspace
	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		sessionSecret = "contentnav-dev-session-secret-000"
		logger.Warn("SESSION_SECRET not set, using the development secret")
	}
	workspaceSessions := middleware.NewWorkspaceSessions(
		middleware.NewSessionStore(sessionSecret, cfg.Environment == "prod"),
		registry,
		logger,
	)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Handlers{
		Health:     handler.NewHealthHandler(registry),
		Session:    handler.NewSessionHandler(registry, workspaceSessions, logger),
		Navigation: handler.NewNavigationHandler(logger),
		Viewer:     handler.NewViewerHandler(logger),
		Relocate:   handler.NewRelocateHandler(logger),
		Events:     handler.NewEventsHandler(sse.DefaultConfig(), logger),
	})

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Session → Routes
	h = workspaceSessions.Middleware(h)
	h = middleware.AuthMiddleware(jwtVerifier, cfg.DevUserID, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID", middleware.WorkspaceHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", "error", err)
		}
	}()

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
