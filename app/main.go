package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/dbarreiro/rundown-sync/app/api"
	"github.com/dbarreiro/rundown-sync/app/cfg"
	"github.com/dbarreiro/rundown-sync/app/content"
	"github.com/dbarreiro/rundown-sync/app/database"
	"github.com/dbarreiro/rundown-sync/app/fetcher"
	"github.com/dbarreiro/rundown-sync/app/inews"
	"github.com/dbarreiro/rundown-sync/app/monitor"
	"github.com/dbarreiro/rundown-sync/app/rundown"
)

const stateFileName = "content_state.json"

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Rundown Sync", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := rundown.NewConfigCache(appCfg.RundownsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load rundown configurations", "dir", appCfg.RundownsDir, "error", err)
		os.Exit(1)
	}

	enabledConfigs := configCache.GetEnabledConfigs()
	if len(enabledConfigs) == 0 {
		slog.Error("No enabled rundown configurations found", "dir", appCfg.RundownsDir)
		os.Exit(1)
	}
	slog.Info("Rundown configurations loaded",
		"total", configCache.GetConfigCount(), "enabled", len(enabledConfigs))

	if err := os.MkdirAll(appCfg.DownloadPath, 0755); err != nil {
		slog.Error("Failed to create download directory", "path", appCfg.DownloadPath, "error", err)
		os.Exit(1)
	}

	stateStore := content.NewStateStore(filepath.Join(appCfg.DownloadPath, stateFileName))
	if err := stateStore.Load(); err != nil {
		slog.Error("Failed to load content state", "error", err)
		os.Exit(1)
	}
	slog.Info("Content state loaded", "tracked_assets", stateStore.Len())

	client := inews.NewClient(appCfg.INewsHost, appCfg.INewsUser, appCfg.INewsPassword)
	defer client.Disconnect()

	assetFetcher := fetcher.NewTwitterFetcher()
	syncer := content.NewSyncer(appCfg.DownloadPath, stateStore, assetFetcher)
	changeRepo := database.NewChangeRepository(db)

	// Deterministic watcher order so polling rounds visit rundowns in a
	// stable sequence.
	names := make([]string, 0, len(enabledConfigs))
	for name := range enabledConfigs {
		names = append(names, name)
	}
	sort.Strings(names)

	watchers := make([]*rundown.Watcher, 0, len(names))
	for _, name := range names {
		config := enabledConfigs[name]
		watchers = append(watchers, rundown.NewWatcher(config, client, rundown.NewFilterer(config.Kinds)))
		slog.Info("Watching rundown", "rundown", config.Name, "path", config.Path,
			"interval", config.Settings.Interval)
	}

	mon := monitor.NewMonitor(client, watchers, syncer, changeRepo)
	mon.Start()
	defer mon.Stop()

	apiHandler := api.NewHandler(configCache, changeRepo, stateStore, mon)
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
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error, shutting down", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Monitor and client are stopped via defer
	slog.Info("Shutdown complete")
}
