// Command seed loads users and collection entries from a YAML fixture.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/baing/baing/internal/auth"
	"github.com/baing/baing/internal/collections"
	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/crypto"
	"github.com/baing/baing/internal/database"
	"github.com/baing/baing/internal/database/sqlc"
	"github.com/baing/baing/internal/logger"
	"github.com/baing/baing/internal/users"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	fixturePath := flag.String("fixture", "fixtures/seed.yaml", "Path to the YAML fixture")
	flag.Parse()

	if err := run(*configPath, *fixturePath); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run(configPath, fixturePath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	defer log.Close()

	f, err := os.Open(fixturePath)
	if err != nil {
		return err
	}
	defer f.Close()

	fixture, err := ParseFixture(f)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := database.New(ctx, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	queries := sqlc.New(db.Conn())
	authService, err := auth.NewService(ctx, queries, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		return err
	}
	passphrase := cfg.Auth.SecretKey
	if passphrase == "" {
		passphrase = authService.KeyMaterial()
	}
	secrets, err := crypto.OpenSecretStore(ctx, queries, passphrase)
	if err != nil {
		return err
	}

	cols := collections.NewService(queries, log.Logger)
	seeder := &Seeder{
		users:       users.NewService(queries, secrets, cols, log.Logger),
		collections: cols,
		logger:      log.Logger,
	}
	return seeder.Apply(ctx, fixture)
}
