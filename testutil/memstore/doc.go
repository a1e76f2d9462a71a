// Package memstore provides an in-memory librarystore.Store for handler and API tests.
//
// Transactions are serialized by a single mutex and rolled back by restoring a snapshot, so the
// store honors the guards and unique constraints of the PostgreSQL engine without a database.
package memstore
