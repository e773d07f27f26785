// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pitchside/pitchside/internal/chat"
	"github.com/pitchside/pitchside/internal/config"
	"github.com/pitchside/pitchside/internal/db"
	"github.com/pitchside/pitchside/internal/events"
	"github.com/pitchside/pitchside/internal/matches"
	"github.com/pitchside/pitchside/internal/roster"
	"github.com/pitchside/pitchside/internal/scheduler"
	"github.com/pitchside/pitchside/internal/stadiums"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	// Event bus and chat mirror. The mirror subscribes before any engine can
	// publish, so no roster change is missed.
	bus := events.NewBus()
	hub := chat.NewHub()
	go hub.Run()
	mirror := chat.NewMirror(hub)
	bus.Subscribe(mirror.HandleEvent)

	rosterEngine, err := roster.NewEngine(database, bus, roster.Config{
		AllowCreatorJoin: cfg.Roster.AllowCreatorJoin,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create roster engine")
	}

	matchEngine, err := matches.NewEngine(database, bus)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create match engine")
	}

	stadiumService, err := stadiums.NewService(database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stadium service")
	}

	if cfg.Scheduler.Enabled {
		if err := scheduler.Init(); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize scheduler")
		}
		sweeper := scheduler.NewSweeper(database, matchEngine)
		if err := sweeper.RegisterJob(cfg.Scheduler.SweepCron); err != nil {
			log.Fatal().Err(err).Msg("Failed to register sweep job")
		}
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
		defer func() {
			if err := scheduler.Stop(); err != nil {
				log.Error().Err(err).Msg("Failed to stop scheduler")
			}
		}()
	}

	server := newServer(cfg, serverDeps{
		matchEngine:    matchEngine,
		rosterEngine:   rosterEngine,
		stadiumService: stadiumService,
		mirror:         mirror,
	})

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		bus.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
