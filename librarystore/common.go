package librarystore

import (
	"errors"
)

// ErrNotFound is returned when a row addressed by id or session id does not exist.
var ErrNotFound = errors.New("row not found")

// ErrUniqueViolation is returned when an insert or update violates a unique constraint.
var ErrUniqueViolation = errors.New("unique constraint violated")

// ErrGuardFailed is returned when a guarded conditional update affected no rows,
// e.g. reserving a copy of a book with zero inventory or returning an already returned borrowing.
var ErrGuardFailed = errors.New("guarded update affected no rows")

// ErrConcurrencyConflict is returned when the database aborted the transaction because of a
// serialization failure or a deadlock. The operation can be retried as a whole.
var ErrConcurrencyConflict = errors.New("concurrency conflict, transaction aborted")

// ErrNilDatabaseConnection is returned when a nil database connection is supplied.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")

// ErrEmptyTableNameSupplied is returned when an empty table name is supplied.
var ErrEmptyTableNameSupplied = errors.New("empty table name supplied")

// ErrNilTxFunc is returned when WithTx is called without a function.
var ErrNilTxFunc = errors.New("transaction function must not be nil")
