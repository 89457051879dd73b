package sqldb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Dialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "postgres", NewFromDB(db, DriverPostgres).Dialect())
	assert.Equal(t, "sqlite3", NewFromDB(db, DriverSQLite).Dialect())
}

func TestClient_MigratePostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS accounts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS pharmacies .*UNIQUE \\(owner_id\\)").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS drug_offers").WillReturnResult(sqlmock.NewResult(0, 0))
	for i := 0; i < 3; i++ {
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS search_events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_search_events_zero .* WHERE result_count = 0").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewFromDB(db, DriverPostgres).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_MigrateStopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS accounts").WillReturnError(errors.New("permission denied"))

	err = NewFromDB(db, DriverSQLite).Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 1 failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_WithQueryTimeout(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	client := NewFromDB(db, DriverPostgres)
	ctx, cancel := client.WithQueryTimeout(context.Background())
	_, hasDeadline := ctx.Deadline()
	cancel()
	assert.False(t, hasDeadline, "no timeout configured")

	client.SetQueryTimeout(50 * time.Millisecond)
	ctx, cancel = client.WithQueryTimeout(context.Background())
	defer cancel()
	deadline, hasDeadline := ctx.Deadline()
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
}
