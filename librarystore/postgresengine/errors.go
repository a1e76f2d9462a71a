package postgresengine

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	sqlStateUniqueViolation      = "23505"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// ErrBuildQueryFailed is returned when goqu fails to render a statement.
var ErrBuildQueryFailed = errors.New("building sql query failed")

// ErrScanRowFailed is returned when a result row cannot be converted into a record.
var ErrScanRowFailed = errors.New("scanning database row failed")

// mapDBError translates driver errors of pgx and lib/pq into librarystore sentinel errors.
// Errors without a known SQLSTATE are returned unchanged.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}

	switch sqlState(err) {
	case sqlStateUniqueViolation:
		return errors.Join(librarystore.ErrUniqueViolation, err)
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return errors.Join(librarystore.ErrConcurrencyConflict, err)
	default:
		return err
	}
}

func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	return ""
}

// errorType classifies an error for metrics labels.
func errorType(err error) string {
	switch {
	case errors.Is(err, librarystore.ErrNotFound):
		return "not_found"
	case errors.Is(err, librarystore.ErrGuardFailed):
		return "guard_failed"
	case errors.Is(err, librarystore.ErrUniqueViolation):
		return "unique_violation"
	case errors.Is(err, librarystore.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrBuildQueryFailed):
		return "build_query"
	case errors.Is(err, ErrScanRowFailed):
		return "scan_row"
	default:
		return "database"
	}
}
