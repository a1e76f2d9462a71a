// Package librarystore defines the persistence contract of the library service.
//
// It holds the row types (Book, Borrowing, Payment), the Store and Tx interfaces that command and
// query handlers depend on, the storage sentinel errors, and the dependency-free observability
// interfaces (Logger, ContextualLogger, MetricsCollector, TracingCollector) that engines and
// handlers accept through functional options.
//
// Engines live in sub-packages. postgresengine implements Store on top of pgx, database/sql or
// sqlx. The oteladapters and zapadapter packages provide ready-made observability implementations.
//
// All mutations of Book.Inventory go through Tx.ReserveCopy and Tx.ReleaseCopy, which are guarded
// conditional updates: inventory can never become negative, even if two transactions race.
package librarystore
