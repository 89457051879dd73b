package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/zatekoja/medfinder/pkg/config"
	"github.com/zatekoja/medfinder/pkg/retry"
	_ "modernc.org/sqlite"
)

// Supported store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Client represents a SQL store client for Postgres or SQLite
type Client struct {
	db           *sqlx.DB
	driver       string
	queryTimeout time.Duration
}

// NewClient opens the configured store and waits for it with exponential backoff
func NewClient(cfg *config.DatabaseConfig) (*Client, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	db, err := sqlx.Open(driver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	err = retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		driver,
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return db.PingContext(ctx)
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().
				Err(err).
				Str("driver", driver).
				Int("attempt", attempt).
				Dur("next_delay", nextDelay).
				Msg("database connection attempt failed")
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s after retries: %w", driver, err)
	}

	log.Info().Str("driver", driver).Msg("connected to database")
	return &Client{db: db, driver: driver, queryTimeout: cfg.QueryTimeout}, nil
}

// NewFromDB wraps an already opened connection, e.g. a sqlmock handle in tests
func NewFromDB(db *sql.DB, driver string) *Client {
	return &Client{db: sqlx.NewDb(db, driver), driver: driver}
}

// SetQueryTimeout bounds every statement issued through WithQueryTimeout.
// Zero leaves statements bounded only by the caller's context.
func (c *Client) SetQueryTimeout(timeout time.Duration) {
	c.queryTimeout = timeout
}

// WithQueryTimeout derives the context for a single statement
func (c *Client) WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.queryTimeout)
}

// DB returns the underlying database connection
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Driver returns the configured driver name
func (c *Client) Driver() string {
	return c.driver
}

// Dialect returns the goqu dialect matching the driver
func (c *Client) Dialect() string {
	if c.driver == DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// Builder returns a goqu query builder bound to this connection
func (c *Client) Builder() *goqu.Database {
	return goqu.New(c.Dialect(), c.db)
}

// Close closes the database connection
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping verifies the connection to the database
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
