// Package postgresengine provides a PostgreSQL implementation of librarystore.Store.
//
// The store supports three database adapters:
//   - pgx.Pool (default and recommended)
//   - database/sql with the lib/pq driver
//   - sqlx.DB
//
// All SQL is rendered with goqu using the postgres dialect. Single operations run in autocommit
// mode; WithTx groups operations in one transaction on the primary database. Row locks are taken
// with SELECT ... FOR UPDATE (LockBook, LockBorrowing, LockPaymentBySession) and inventory changes
// are guarded conditional updates, so two concurrent returns of the same borrowing can never both
// increment the inventory.
//
// PostgreSQL errors are translated into librarystore sentinel errors: unique violations become
// librarystore.ErrUniqueViolation, serialization failures and deadlocks become
// librarystore.ErrConcurrencyConflict.
//
// Observability is opt-in through WithLogger, WithContextualLogger, WithMetrics and WithTracing.
// The store never logs or records anything when these options are not supplied.
package postgresengine
