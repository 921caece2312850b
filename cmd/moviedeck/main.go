package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/moviedeck/moviedeck/internal/api"
	"github.com/moviedeck/moviedeck/internal/catalog/tmdb"
	"github.com/moviedeck/moviedeck/internal/config"
	"github.com/moviedeck/moviedeck/internal/database"
	"github.com/moviedeck/moviedeck/internal/kvstore"
	"github.com/moviedeck/moviedeck/internal/logger"
	"github.com/moviedeck/moviedeck/internal/movies"
	"github.com/moviedeck/moviedeck/internal/scheduler"
	"github.com/moviedeck/moviedeck/internal/scheduler/tasks"
	"github.com/moviedeck/moviedeck/internal/session"
	"github.com/moviedeck/moviedeck/internal/startup"
	"github.com/moviedeck/moviedeck/internal/theme"
	"github.com/moviedeck/moviedeck/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to config file")
	envFile := flag.String("env-file", ".env", "Path to a .env file to load before reading config")
	flag.Parse()

	// A missing .env is normal outside development.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		panic("failed to load env file: " + err.Error())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		Path:            cfg.Logging.Path,
		MaxSizeMB:       cfg.Logging.MaxSizeMB,
		MaxBackups:      cfg.Logging.MaxBackups,
		MaxAgeDays:      cfg.Logging.MaxAgeDays,
		Compress:        cfg.Logging.Compress,
		EnableStreaming: true,
		BufferSize:      1000,
	})
	defer log.Close()

	log.Info().
		Str("version", config.Version).
		Str("logLevel", cfg.Logging.Level).
		Msg("starting MovieDeck")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store kvstore.Store
	if cfg.Database.Ephemeral {
		log.Warn().Msg("ephemeral storage enabled, state will not survive a restart")
		store = kvstore.NewMemory()
	} else {
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
		}
		defer db.Close()

		log.Info().Msg("running database migrations")
		version, err := db.Migrate(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Int64("schemaVersion", version).Msg("database ready")
		store = kvstore.NewSQLite(db.Conn())
	}

	hub := websocket.NewHub(log.Logger)
	go hub.Run(ctx)

	// Enable log streaming via WebSocket now that hub is available
	log.SetBroadcastHub(hub)

	clock := clockwork.NewRealClock()
	catalogClient := tmdb.NewClient(cfg.Catalog, log.Logger)

	movieService := movies.NewService(catalogClient, store, log.Logger)
	sessionService := session.NewService(store, clock, cfg.Session.LoginLatency(), log.Logger)
	themeService := theme.NewService(store, cfg.Theme.PreferDark, log.Logger)

	// Restore failures leave the defaults in place; nothing here is fatal.
	if err := movieService.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to restore catalog state")
	}
	if err := sessionService.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to restore session")
	}
	if err := themeService.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to restore theme")
	}

	movieService.SetBroadcaster(hub)
	sessionService.SetBroadcaster(hub)
	themeService.SetBroadcaster(hub)

	go checkCatalog(ctx, catalogClient, log)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := tasks.RegisterTrendingRefreshTask(sched, movieService, &cfg.Scheduler, log.Logger); err != nil {
		log.Error().Err(err).Msg("failed to register trending refresh task")
	}
	sched.Start()

	server := api.NewServer(api.Services{
		Movies:    movieService,
		Session:   sessionService,
		Theme:     themeService,
		Images:    catalogClient.Images(),
		Scheduler: sched,
		Logs:      log,
	}, hub, cfg, clock, log.Logger)
	server.StartMaintenance(ctx)

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}

	log.Info().Msg("server stopped")
}

// checkCatalog verifies the catalog is reachable, retrying while the network
// comes up. It only reports; every catalog operation surfaces its own failure.
func checkCatalog(ctx context.Context, client *tmdb.Client, log *logger.Logger) {
	if !client.IsConfigured() {
		log.Warn().Msg("no TMDB API key configured, catalog requests will fail")
		return
	}

	retryCfg := startup.DefaultRetryConfig()
	retryCfg.Retryable = func(err error) bool {
		return startup.IsNetworkError(err) || errors.Is(err, tmdb.ErrRateLimited)
	}

	err := startup.WithRetry(ctx, "catalog connectivity check", retryCfg, client.Test, log.Logger)
	if err != nil {
		log.Warn().Err(err).Msg("catalog is unreachable, movie data may be unavailable until it recovers")
		return
	}
	log.Info().Str("provider", client.Name()).Msg("catalog reachable")
}
