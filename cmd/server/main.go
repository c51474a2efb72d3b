// @title           Photo SKU Backend API
// @version         1.0.0
// @description     Batch background removal for product photos. Files are uploaded per SKU, named {sku}_{NNN}, sent through PhotoRoom with bounded concurrency, and delivered as ZIP or to Telegram.

// @contact.name   API Support

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"photo-sku-backend/docs"
	"photo-sku-backend/internal/config"
	"photo-sku-backend/internal/database"
	"photo-sku-backend/internal/handlers"
	"photo-sku-backend/internal/ledger"
	"photo-sku-backend/internal/logger"
	"photo-sku-backend/internal/metrics"
	"photo-sku-backend/internal/orchestrator"
	"photo-sku-backend/internal/packager"
	"photo-sku-backend/internal/photoroom"
	"photo-sku-backend/internal/progress"
	"photo-sku-backend/internal/services"
	"photo-sku-backend/internal/storage"
	"photo-sku-backend/internal/telegram"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		ServiceName: "photo-sku-backend",
		Level:       logger.ParseLevel(cfg.Log.Level),
		Format:      cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	configureSwagger(cfg.Server.BaseURL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	store, err := openStorage(cfg)
	if err != nil {
		return err
	}

	ledgers, closeLedger, err := openLedger(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLedger()

	remover := photoroom.NewClient(cfg.PhotoRoom.BaseURL, cfg.PhotoRoom.APIKey,
		photoroom.WithTimeout(cfg.PhotoRoom.RequestTimeout),
		photoroom.WithRetry(cfg.Batch.MaxAttempts, cfg.Batch.RetryBaseDelay),
		photoroom.WithMetrics(metrics.NewRemoteCallMetrics(registry)),
	)

	hub := progress.NewHub(progress.DefaultBuffer)
	scheduler := orchestrator.New(remover, store, ledgers,
		orchestrator.WithConcurrency(cfg.Batch.MaxConcurrent),
		orchestrator.WithObserver(hub),
		orchestrator.WithLogger(log),
		orchestrator.WithMetrics(metrics.NewBatchMetrics(registry)),
	)

	cleanup := services.NewCleanupService(store, ledgers, cfg.Cleanup.MaxAge, log, hub)
	var sender telegram.Sender
	if cfg.Telegram.Enabled() {
		sender = telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken)
	} else {
		log.Warn(ctx, "TELEGRAM_BOT_TOKEN not set, telegram delivery disabled", nil)
	}
	delivery := services.NewDeliveryService(ledgers, packager.New(store, packager.WithCompressionLevel(6)), sender, cleanup, cfg.Telegram.ChatID, log)

	if err := cleanup.Start(cfg.Cleanup.Schedule); err != nil {
		return err
	}
	defer cleanup.Stop(context.Background())

	router, err := handlers.NewRouter(handlers.RouterDeps{
		Config:   cfg,
		Logger:   log,
		Store:    store,
		Ledgers:  ledgers,
		Runner:   scheduler,
		Hub:      hub,
		Delivery: delivery,
		Cleanup:  cleanup,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Zerolog(ctx).Info().
			Str("port", cfg.Server.Port).
			Str("storage", cfg.Storage.Backend).
			Str("ledger", cfg.Ledger.Backend).
			Int("max_concurrent", scheduler.Concurrency()).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// configureSwagger points the served docs at the deployed host.
func configureSwagger(baseURL string) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return
	}
	docs.SwaggerInfo.Host = u.Host
	if u.Scheme == "https" {
		docs.SwaggerInfo.Schemes = []string{"https", "http"}
	} else {
		docs.SwaggerInfo.Schemes = []string{"http", "https"}
	}
}

func openStorage(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.StorageSupabase:
		return storage.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey, cfg.Supabase.StorageBucket), nil
	default:
		store, err := storage.NewLocalStore(cfg.Storage.UploadsDir, cfg.Server.PublicOrigin)
		if err != nil {
			return nil, fmt.Errorf("failed to open uploads dir: %w", err)
		}
		return store, nil
	}
}

// openLedger returns the configured ledger store and a function releasing
// its connections.
func openLedger(ctx context.Context, cfg *config.Config, log *logger.Logger) (ledger.Store, func(), error) {
	noop := func() {}

	switch cfg.Ledger.Backend {
	case config.LedgerPostgres:
		db, err := database.Open(ctx, cfg.Ledger.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := database.NewMigrator(db, log).Run(ctx); err != nil {
			return nil, noop, multierr.Append(fmt.Errorf("migration failed: %w", err), db.Close())
		}
		return ledger.NewPostgresStore(db), func() { _ = db.Close() }, nil

	case config.LedgerRedis:
		client, err := ledger.NewRedisClient(ctx, cfg.Ledger.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return ledger.NewRedisStore(client, cfg.Ledger.RedisTTL), func() { _ = client.Close() }, nil

	case config.LedgerSupabase:
		store, err := ledger.NewSupabaseStore(cfg.Supabase.URL, cfg.Supabase.ServiceKey, cfg.Supabase.LedgerTable)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	default:
		return ledger.NewFileStore(cfg.Storage.UploadsDir), noop, nil
	}
}
