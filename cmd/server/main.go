package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pkudinov/liveclass/internal/adapters/directory"
	router "github.com/pkudinov/liveclass/internal/adapters/http"
	"github.com/pkudinov/liveclass/internal/adapters/media"
	"github.com/pkudinov/liveclass/internal/adapters/stream"
	"github.com/pkudinov/liveclass/internal/app"
	"github.com/pkudinov/liveclass/internal/config"
	"github.com/pkudinov/liveclass/internal/core"
	"github.com/pkudinov/liveclass/internal/session"
	"github.com/pkudinov/liveclass/internal/tabs"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	dir := directory.NewClient(cfg.DirectoryURL, cfg.RequestTimeout)
	feeds := stream.NewDialer(cfg.EventFeedURL)
	bus := tabs.NewBus()

	sessCfg := session.Config{
		ReactionTTL:    cfg.ReactionTTL,
		RosterDebounce: cfg.RosterDebounce,
		RequestTimeout: cfg.RequestTimeout,
	}
	mgr := app.NewManager(ctx, bus, dir, feeds, func() core.MediaEngine {
		return media.NewLoopback()
	}, sessCfg, cfg.OccupancyWindow)

	r := router.SetupRouter(cfg, mgr)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("liveclass coordinator started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	mgr.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
