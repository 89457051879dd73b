package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medfinder/internal/adapters/database"
	"github.com/zatekoja/medfinder/internal/infrastructure/clients/sqldb"
	"github.com/zatekoja/medfinder/internal/infrastructure/observability"
	"github.com/zatekoja/medfinder/internal/seed"
	"github.com/zatekoja/medfinder/pkg/config"
	"github.com/zatekoja/medfinder/pkg/secrets"
)

func main() {
	var (
		fixturePath string
		migrate     bool
		timeout     time.Duration
	)
	flag.StringVar(&fixturePath, "file", "fixtures/lagos.yaml", "YAML fixture to load")
	flag.BoolVar(&migrate, "migrate", true, "apply schema migrations before loading")
	flag.DurationVar(&timeout, "timeout", time.Minute, "overall time limit")
	flag.Parse()

	// Secrets from Vault land in the environment before configuration is read
	if result, err := secrets.ApplyVaultSecrets(context.Background(), secrets.LoadVaultConfigFromEnv("")); err != nil {
		log.Fatal().Err(err).Str("path", result.Path).Msg("failed to load secrets from vault")
	} else if result.Enabled {
		log.Info().Str("path", result.Path).Int("loaded", result.Loaded).Int("skipped", result.Skipped).Msg("vault secrets applied")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger("medfinder-seed", cfg.Server.Environment, cfg.Log.Level)

	set, err := seed.LoadFile(fixturePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", fixturePath).Msg("failed to read fixture")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := sqldb.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer client.Close()

	if migrate {
		if err := client.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}

	stats, err := database.NewFixtureLoader(client).Load(ctx, set)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load fixture")
	}

	log.Info().
		Str("file", fixturePath).
		Int64("accounts", stats.Accounts).
		Int64("pharmacies", stats.Pharmacies).
		Int64("offers", stats.Offers).
		Msg("fixture loaded")
}
