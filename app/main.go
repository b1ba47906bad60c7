package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/feed-reader/app/api"
	"github.com/lysyi3m/feed-reader/app/cfg"
	"github.com/lysyi3m/feed-reader/app/database"
	"github.com/lysyi3m/feed-reader/app/feed"
	"github.com/lysyi3m/feed-reader/app/ingest"
	"github.com/lysyi3m/feed-reader/app/tasks"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := cfg.Load()
	if err != nil {
		return err
	}
	if appCfg == nil {
		// Help was shown
		return nil
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting feed reader", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load feed subscriptions: %w", err)
	}
	slog.Info("Feed subscriptions loaded", "dir", appCfg.FeedsDir, "count", configCache.GetConfigCount())

	fetcher := feed.NewFetcher(nil, appCfg.UserAgent, appCfg.GetFetchTimeout(),
		feed.NewHostRateLimiter(appCfg.GetHostRateInterval()))

	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	logRepo := database.NewLogRepository(db)

	coordinator := ingest.NewCoordinator(
		fetcher,
		feed.NewParser(),
		feed.NewNormalizer(appCfg.SanitizeContent),
		feed.NewIconResolver(fetcher, appCfg.IconDiscovery),
		feed.NewDateResolver(nil),
		feedRepo,
		articleRepo,
		logRepo,
		appCfg.RefreshConcurrency,
	)

	scheduler := tasks.NewScheduler(configCache, coordinator, feedRepo, logRepo,
		appCfg.GetRefreshInterval(), appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(configCache, feedRepo, articleRepo, logRepo, coordinator)
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler, appCfg.APIAccessKey),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	handler.Close()

	return nil
}
