package sqldb

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL DEFAULT 'patient',
		pharmacy_id TEXT,
		pending_pharmacy JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS pharmacies (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		license_number TEXT,
		address TEXT,
		city TEXT,
		state TEXT,
		phone TEXT,
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		logo_url TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT pharmacies_owner_id_key UNIQUE (owner_id)
	)`,
	`CREATE TABLE IF NOT EXISTS drug_offers (
		id TEXT PRIMARY KEY,
		pharmacy_id TEXT NOT NULL REFERENCES pharmacies(id),
		name TEXT NOT NULL,
		generic_name TEXT,
		brand_name TEXT,
		category TEXT,
		dosage_form TEXT,
		strength TEXT,
		unit_price NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (unit_price >= 0),
		quantity_in_stock INTEGER NOT NULL DEFAULT 0 CHECK (quantity_in_stock >= 0),
		low_stock_threshold INTEGER DEFAULT 10,
		requires_prescription BOOLEAN NOT NULL DEFAULT FALSE,
		manufacturer TEXT,
		expiry_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_drug_offers_pharmacy_id ON drug_offers (pharmacy_id)`,
	`CREATE INDEX IF NOT EXISTS idx_drug_offers_updated_at ON drug_offers (updated_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_pharmacies_active ON pharmacies (is_active)`,
	`CREATE TABLE IF NOT EXISTS search_events (
		id TEXT PRIMARY KEY,
		term TEXT NOT NULL,
		location TEXT,
		category TEXT,
		in_stock_only BOOLEAN NOT NULL DEFAULT FALSE,
		has_origin BOOLEAN NOT NULL DEFAULT FALSE,
		result_count INTEGER NOT NULL,
		latency_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_events_zero ON search_events (created_at) WHERE result_count = 0`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		role TEXT NOT NULL DEFAULT 'patient',
		pharmacy_id TEXT,
		pending_pharmacy TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS pharmacies (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		license_number TEXT,
		address TEXT,
		city TEXT,
		state TEXT,
		phone TEXT,
		latitude REAL,
		longitude REAL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		logo_url TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS drug_offers (
		id TEXT PRIMARY KEY,
		pharmacy_id TEXT NOT NULL REFERENCES pharmacies(id),
		name TEXT NOT NULL,
		generic_name TEXT,
		brand_name TEXT,
		category TEXT,
		dosage_form TEXT,
		strength TEXT,
		unit_price NUMERIC NOT NULL DEFAULT 0 CHECK (unit_price >= 0),
		quantity_in_stock INTEGER NOT NULL DEFAULT 0 CHECK (quantity_in_stock >= 0),
		low_stock_threshold INTEGER DEFAULT 10,
		requires_prescription BOOLEAN NOT NULL DEFAULT 0,
		manufacturer TEXT,
		expiry_date DATE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_drug_offers_pharmacy_id ON drug_offers (pharmacy_id)`,
	`CREATE INDEX IF NOT EXISTS idx_drug_offers_updated_at ON drug_offers (updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS search_events (
		id TEXT PRIMARY KEY,
		term TEXT NOT NULL,
		location TEXT,
		category TEXT,
		in_stock_only BOOLEAN NOT NULL DEFAULT 0,
		has_origin BOOLEAN NOT NULL DEFAULT 0,
		result_count INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_search_events_created_at ON search_events (created_at)`,
}

// Migrate creates the store schema if it does not exist yet
func (c *Client) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if c.driver == DriverSQLite {
		schema = sqliteSchema
	}

	for i, stmt := range schema {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Info().Str("driver", c.driver).Int("statements", len(schema)).Msg("database schema up to date")
	return nil
}
