package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lysyi3m/product-feeds/app/api"
	"github.com/lysyi3m/product-feeds/app/cfg"
	"github.com/lysyi3m/product-feeds/app/database"
	"github.com/lysyi3m/product-feeds/app/record"
	"github.com/lysyi3m/product-feeds/app/tasks"
	"github.com/lysyi3m/product-feeds/app/template"
	"github.com/lysyi3m/product-feeds/app/validation"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("Starting product feeds server", "version", appCfg.Version)

	if err := os.MkdirAll(filepath.Dir(appCfg.DBPath), 0o755); err != nil {
		slog.Error("Failed to create database directory", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	templates := template.NewStore(appCfg.TemplatesDir)
	if err := templates.Run(); err != nil {
		slog.Error("Failed to load templates", "dir", appCfg.TemplatesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Templates loaded", "count", templates.Count(), "active", len(templates.Active()))

	historyRepo := database.NewHistoryRepository(db)
	rateRepo := database.NewRateRepository(db)
	products := record.FileSource{Path: appCfg.ProductsFile}

	runner := tasks.NewRunner(products, rateRepo, historyRepo, tasks.RunnerOptions{
		Validation:  validation.Options{RequireBrand: appCfg.RequireBrand},
		Location:    time.Local,
		ChannelLink: appCfg.BaseUrl,
	})

	scheduler := tasks.NewScheduler(templates, historyRepo, runner,
		time.Duration(appCfg.SchedulerInterval)*time.Second, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(templates, historyRepo, rateRepo, products, runner, scheduler, appCfg.FeedURL)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "feeds", appCfg.FeedURL("<template>.<xml|csv>"))
		if appCfg.APIAccessKey == "" {
			slog.Warn("API endpoints disabled, API_ACCESS_KEY not set")
		}

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Product feeds server stopped")
}
