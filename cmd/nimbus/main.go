package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/internal/auth"
	"github.com/nimbusdrive/nimbus/internal/logger"
	"github.com/nimbusdrive/nimbus/internal/server"
	"github.com/nimbusdrive/nimbus/pkg/config"
	"github.com/nimbusdrive/nimbus/pkg/hierarchy"
	"github.com/nimbusdrive/nimbus/pkg/metrics"
	"github.com/nimbusdrive/nimbus/pkg/quota"
	"github.com/nimbusdrive/nimbus/pkg/sharing"
	"github.com/nimbusdrive/nimbus/pkg/trash"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "nimbus: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return err
	}

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}
	driveMetrics := metrics.NewDriveMetrics()

	ctx := context.Background()

	store, err := config.CreateMetadataStore(cfg.Metadata)
	if err != nil {
		return err
	}
	defer store.Close()

	contentStore, err := config.CreateContentStore(ctx, cfg.Content)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	accountant := quota.NewAccountant(store, driveMetrics)
	trashSvc := trash.NewService(store, contentStore, accountant, driveMetrics)

	sweeper := trash.NewSweeper(trashSvc, store, driveMetrics, trash.SweeperConfig{
		Enabled:   cfg.Trash.SweepEnabled,
		Interval:  cfg.Trash.SweepInterval,
		Retention: cfg.Trash.Retention,
	})
	sweeper.Start()

	app := server.New(server.Dependencies{
		Store:     store,
		Content:   contentStore,
		Quota:     accountant,
		Hierarchy: hierarchy.NewService(store, driveMetrics),
		Sharing:   sharing.NewService(store, driveMetrics),
		Trash:     trashSvc,
		Tokens:    tokens,
		Metrics:   driveMetrics,
		BodyLimit: cfg.Server.BodyLimit,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Server.Listen).Msg("nimbus server starting")
		errCh <- app.Listen(cfg.Server.Listen)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Info().Stringer("signal", sig).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := sweeper.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("sweeper did not stop cleanly")
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info().Msg("shutdown complete")
	return nil
}
