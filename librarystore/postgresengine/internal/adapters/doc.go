// Package adapters provides database adapter implementations for the PostgreSQL store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgxpool.Pool, sql.DB and sqlx.DB. All adapters provide equivalent functionality through
// the DBAdapter interface, including transactions, so the store works with any supported
// connection type.
//
// Every adapter accepts an optional replica connection. Queries are routed to the replica only when
// the context carries librarystore.EventualConsistency; transactions always run on the primary.
package adapters
