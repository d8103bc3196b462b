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

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/story-feed/app/api"
	"github.com/lysyi3m/story-feed/app/cfg"
	"github.com/lysyi3m/story-feed/app/database"
	"github.com/lysyi3m/story-feed/app/feed"
	"github.com/lysyi3m/story-feed/app/tasks"
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

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	gin.SetMode(gin.ReleaseMode)

	slog.Info("Starting Story Feed server", "version", appCfg.Version)

	if appCfg.SheetURL == "" {
		slog.Warn("SHEET_URL not set, serving fallback stories only")
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	likeRepo := database.NewLikeRepository(db)
	subscriberRepo := database.NewSubscriberRepository(db)
	extractRepo := database.NewExtractRepository(db)

	httpClient := &http.Client{}

	state := feed.NewState()
	loader := feed.NewLoader(httpClient, appCfg.UserAgent, appCfg.FetchTimeout)
	fallback, err := feed.NewFallback(loader, state)
	if err != nil {
		slog.Error("Failed to load fallback stories", "error", err)
		os.Exit(1)
	}

	contentExtractor := feed.NewContentExtractor(appCfg.ExtractMaxLength)

	scheduler := tasks.NewScheduler(fallback, state, extractRepo, httpClient, contentExtractor, tasks.Options{
		SheetURL:           appCfg.SheetURL,
		UserAgent:          appCfg.UserAgent,
		FetchTimeout:       appCfg.FetchTimeout,
		Interval:           appCfg.RefreshInterval,
		WorkerCount:        appCfg.WorkerCount,
		ExtractContent:     appCfg.ExtractContent,
		ExtractMaxAttempts: appCfg.ExtractMaxAttempts,
	})
	scheduler.Start()

	generator := feed.NewGenerator("Story Feed", appCfg.BaseUrl, appCfg.Version)
	exporter := feed.NewExporter("Stories")

	apiHandler := api.NewHandler(state, likeRepo, subscriberRepo, extractRepo, generator, exporter,
		scheduler, appCfg.BaseUrl, appCfg.PlaceholderImage)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "workers", appCfg.WorkerCount,
			"refresh_interval", appCfg.RefreshInterval.String(), "extract_content", appCfg.ExtractContent)

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
	}

	scheduler.Stop()

	slog.Info("Story Feed server shutdown complete")
}
