// Package main provides the aura worker entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aura-wellness/aura-core/internal/activities"
	"github.com/aura-wellness/aura-core/internal/cache"
	"github.com/aura-wellness/aura-core/internal/chatapi"
	"github.com/aura-wellness/aura-core/internal/config"
	"github.com/aura-wellness/aura-core/internal/db"
	"github.com/aura-wellness/aura-core/internal/session"
	"github.com/aura-wellness/aura-core/internal/sources"
	"github.com/aura-wellness/aura-core/internal/watcher"
	"github.com/aura-wellness/aura-core/internal/wellness"
	"github.com/aura-wellness/aura-core/internal/worker"
	"github.com/aura-wellness/aura-core/internal/worker/sse"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "Listen port (default: from settings)")
	dataDir := flag.String("data-dir", "", "Data directory (default: ~/.aura)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	// Ensure data directory and settings exist
	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directories")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.WorkerPort = *port
	}

	dbPath := cfg.DBPath
	catalogPath := cfg.CatalogPath
	if *dataDir != "" {
		dbPath = *dataDir + "/aura.db"
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down worker")
		cancel()
	}()

	// Initialize the local store (migrations run automatically)
	store, err := db.NewStore(db.Config{
		Path:     dbPath,
		MaxConns: 4,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer store.Close()

	summaryStore := db.NewSummaryStore(store)
	moodStore := db.NewMoodStore(store)

	// Bearer credential for the remote APIs; refreshed from the environment
	// on every request so rotation needs no restart.
	token := func() string { return os.Getenv("AURA_API_TOKEN") }

	chatClient := chatapi.NewClient(cfg.ChatAPIBaseURL, cfg.SourceTimeout, token)
	sessionManager := session.NewManager(chatClient)

	moodSource := sources.NewMoodSource(cfg.MoodAPIBaseURL, cfg.SourceTimeout, token)
	activitySource := sources.NewActivitySource(cfg.MoodAPIBaseURL, cfg.SourceTimeout, token)

	catalog, err := activities.Load(catalogPath)
	if err != nil {
		log.Warn().Err(err).Str("path", catalogPath).Msg("Failed to load activity catalog, using defaults")
		catalog, _ = activities.Load("")
	}

	broadcaster := sse.NewBroadcaster()
	snapshotCache := cache.New(cfg.RedisAddr)
	defer snapshotCache.Close()

	publishers := []wellness.SnapshotPublisher{worker.NewSnapshotPublisher(broadcaster)}
	if snapshotCache != nil {
		publishers = append(publishers, snapshotCache)
	}

	refresher := wellness.NewRefresher(wellness.RefresherConfig{
		Mood:       moodSource,
		Activities: activitySource,
		Chat:       chatClient,
		UserID:     "default-user",
		Interval:   cfg.RefreshInterval,
		Journal:    summaryStore,
		Publishers: publishers,
	})
	if err := refresher.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start dashboard refresher")
	}
	defer refresher.Stop()

	// Reload settings on change; the refresh interval applies live.
	settingsWatcher, err := watcher.New(config.SettingsPath(), func() {
		reloaded := config.Reload()
		if err := refresher.SetInterval(ctx, reloaded.RefreshInterval); err != nil {
			log.Warn().Err(err).Msg("Failed to apply new refresh interval")
		}
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create settings watcher")
	} else {
		if err := settingsWatcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start settings watcher")
		}
		defer settingsWatcher.Stop()
	}

	svc := worker.New(worker.Deps{
		Version:        Version,
		Config:         cfg,
		Store:          store,
		SummaryStore:   summaryStore,
		MoodStore:      moodStore,
		SessionManager: sessionManager,
		MoodSource:     moodSource,
		ActivitySource: activitySource,
		Refresher:      refresher,
		Catalog:        catalog,
		SnapshotCache:  snapshotCache,
		Broadcaster:    broadcaster,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := svc.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Shutdown error")
		}
	}()

	log.Info().Int("port", cfg.WorkerPort).Str("version", Version).Msg("Starting aura worker")
	if err := svc.Start(); err != nil {
		log.Fatal().Err(err).Msg("Worker server error")
	}
}
