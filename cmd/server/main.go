// DialCoach - CSR call-training server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dialcoach/dialcoach/internal/analysis"
	"github.com/dialcoach/dialcoach/internal/api"
	"github.com/dialcoach/dialcoach/internal/config"
	"github.com/dialcoach/dialcoach/internal/middleware"
	"github.com/dialcoach/dialcoach/internal/retell"
	"github.com/dialcoach/dialcoach/internal/scenario"
	"github.com/dialcoach/dialcoach/internal/scrape"
	"github.com/dialcoach/dialcoach/internal/session"
	"github.com/dialcoach/dialcoach/internal/store"
	"github.com/dialcoach/dialcoach/internal/tenant"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("Failed to create data directory", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	// Initialize dependencies.
	calls, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := calls.Close(); closeErr != nil {
			slog.Error("Failed to close call store", "error", closeErr)
		}
	}()

	if err := calls.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	tenantStore := tenant.NewStore(cfg.TenantConfigPath())
	scenarios := scenario.NewRepository(cfg.ScenariosPath(), tenantStore)
	registry := session.NewMemoryRegistry()
	voice := retell.NewClient(cfg.RetellAPIKey, cfg.RetellBaseURL)
	analyzer := analysis.NewAnalyzer(analysis.NewClaude(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.AnthropicModel))
	scraper := scrape.NewScraper(analyzer)

	// Initialize handlers.
	baseHandler := api.NewHandler(scenarios, tenantStore, registry, voice, analyzer, scraper, calls)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	origins := []string{cfg.ClientURL}
	if cfg.IsDevelopment() {
		origins = []string{"*"}
	}
	r.Use(middleware.CORS(origins))

	api.NewScenarioHandler(baseHandler).RegisterRoutes(r)
	api.NewCallHandler(baseHandler).RegisterRoutes(r)
	api.NewAnalysisHandler(baseHandler).RegisterRoutes(r)
	api.NewAdminHandler(baseHandler).RegisterRoutes(r)
	api.NewHealthHandler(baseHandler).RegisterRoutes(r)

	// Create server.
	// Note: ending a call waits on the provider's transcript, so writes can
	// take a while.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start retention worker.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.StartRetentionWorker(ctx, calls, cfg.CallRetention)
	slog.Info("Retention worker started", "retention", cfg.CallRetention)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
