package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/baing/baing/internal/api"
	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/database"
	"github.com/baing/baing/internal/llm"
	"github.com/baing/baing/internal/logger"
	"github.com/baing/baing/internal/startup"
	"github.com/baing/baing/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "baing:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to config file")
	skipProbe := flag.Bool("skip-probe", false, "Do not check the recommendation provider at startup")
	migrateDown := flag.Bool("migrate-down", false, "Roll back the last database migration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().
		Str("provider", cfg.Discovery.Provider).
		Str("logLevel", cfg.Logging.Level).
		Msg("Starting bAIng")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if *migrateDown {
		if err := db.MigrateDown(ctx); err != nil {
			return err
		}
		version, err := db.Version(ctx)
		if err != nil {
			return err
		}
		log.Info().Int64("version", version).Msg("Rolled back last migration")
		return nil
	}

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	hub := websocket.NewHub(cfg.Server.AllowOrigins, log.Logger)
	go hub.Run(ctx)

	server, err := api.NewServer(ctx, db, hub, cfg, log.Logger)
	if err != nil {
		var cfgErr *llm.ConfigError
		if errors.As(err, &cfgErr) {
			return fmt.Errorf("invalid provider configuration: %w", err)
		}
		return fmt.Errorf("failed to build server: %w", err)
	}

	if !*skipProbe {
		probe := log.With().Str("component", "startup").Logger()
		err := startup.WithRetry(ctx, "provider probe", startup.DefaultRetryConfig(), server.Gateway().Test, probe)
		if err != nil {
			probe.Warn().Err(err).Msg("Recommendation provider unreachable, continuing")
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.Server.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.ShutdownGrace())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
	return nil
}
