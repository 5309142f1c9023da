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

	"github.com/lysyi3m/rss-seek/app/api"
	"github.com/lysyi3m/rss-seek/app/cfg"
	"github.com/lysyi3m/rss-seek/app/feed"
	"github.com/lysyi3m/rss-seek/app/magnet"
	"github.com/lysyi3m/rss-seek/app/match"
	"github.com/lysyi3m/rss-seek/app/metrics"
	"github.com/lysyi3m/rss-seek/app/seedr"
	"github.com/lysyi3m/rss-seek/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logger, closeLog := cfg.SetupLogger(appCfg.LogFile, appCfg.Debug)
	defer closeLog()
	slog.SetDefault(logger)

	slog.Info("Starting RSS Seek server", "version", appCfg.Version)

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load feed configurations", "error", err)
		os.Exit(1)
	}
	if err := configCache.AddURLs(appCfg.FeedURLs); err != nil {
		slog.Error("Invalid feed URL", "error", err)
		os.Exit(1)
	}
	slog.Info("Feed configurations loaded", "count", configCache.GetConfigCount(), "dir", appCfg.FeedsDir)
	if configCache.GetConfigCount() == 0 {
		slog.Warn("No feed sources configured, searches will report an empty feed")
	}

	metrics.Register()

	httpClient := &http.Client{Timeout: appCfg.FetchTimeout}

	embedder, err := newEmbedder(appCfg)
	if err != nil {
		slog.Error("Failed to create embedder", "error", err)
		os.Exit(1)
	}

	source := feed.NewSource(configCache, httpClient, feed.NewParser(), appCfg.UserAgent)
	matcher := match.NewService(source, embedder)
	extractor := magnet.NewExtractor(httpClient, appCfg.UserAgent, appCfg.FetchTimeout)

	jobs := tasks.NewJobs()
	scheduler := tasks.NewScheduler(jobs, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	var account api.SeedrInterface
	if appCfg.SeedrConfigured() {
		client := seedr.NewClient(appCfg.SeedrBaseURL, &http.Client{}, appCfg.SeedrTimeout)
		account = seedr.NewService(client, appCfg.Seedr, seedr.Timing{
			SettleDelay:  appCfg.SeedrSettleDelay,
			PollAttempts: appCfg.SeedrPollAttempts,
			PollInterval: appCfg.SeedrPollInterval,
		})
		slog.Info("Seedr offload enabled", "base_url", appCfg.SeedrBaseURL)
	} else {
		slog.Info("Seedr offload disabled (SEEDR_EMAIL/SEEDR_PASSWORD not set)")
	}

	handler := api.NewHandler(matcher, extractor, account, scheduler, jobs, configCache, appCfg.Version)
	router := api.NewServer(handler)

	// WriteTimeout covers the synchronous offload flow, which may poll for over a minute
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "embedding_provider", appCfg.EmbeddingProvider)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}

func newEmbedder(c *cfg.Cfg) (match.Embedder, error) {
	switch c.EmbeddingProvider {
	case "openai":
		openai := match.NewOpenAIEmbedder(match.OpenAIConfig{
			APIKey:     c.EmbeddingAPIKey,
			BaseURL:    c.EmbeddingBaseURL,
			Model:      c.EmbeddingModel,
			Dimensions: c.EmbeddingDimensions,
		})
		return match.NewInstrumentedEmbedder(openai, "openai"), nil
	case "hashing", "":
		dims := c.EmbeddingDimensions
		if dims <= 0 {
			dims = match.DefaultHashingDimensions
		}
		return match.NewInstrumentedEmbedder(match.NewHashingEmbedder(dims), "hashing"), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", c.EmbeddingProvider)
	}
}
