package database

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	apperrors "github.com/zatekoja/medfinder/pkg/errors"
	"modernc.org/sqlite"
)

const (
	pgUniqueViolation          = "23505"
	sqliteConstraintUnique     = 2067
	sqliteConstraintPrimaryKey = 1555
)

// mapStoreError converts a driver error into the application taxonomy. Absence
// is NotFound, a uniqueness violation is Conflict, and everything else,
// including cancellations and deadlines, is UpstreamUnavailable.
func mapStoreError(err error, message string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperrors.NewNotFoundError(message)
	case isUniqueViolation(err):
		return apperrors.NewConflictError(message, err)
	default:
		return apperrors.NewUnavailableError(message, err)
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqliteConstraintUnique || code == sqliteConstraintPrimaryKey
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
