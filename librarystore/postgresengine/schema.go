package postgresengine

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// Migrate creates the tables, constraints and indexes used by the Store if they do not exist yet.
// The unique constraint on the borrowing dates treats NULL as a value and requires PostgreSQL 15.
func (s Store) Migrate(ctx context.Context) error {
	return s.observe(ctx, operationMigrate, func(ctx context.Context) error {
		for _, statement := range s.schemaStatements() {
			if _, err := s.exec(ctx, operationMigrate, statement); err != nil {
				return err
			}
		}

		return nil
	})
}

func (s Store) schemaStatements() []sqlQueryString {
	books := pq.QuoteIdentifier(s.booksTable)
	borrowings := pq.QuoteIdentifier(s.borrowingsTable)
	payments := pq.QuoteIdentifier(s.paymentsTable)

	return []sqlQueryString{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	cover TEXT NOT NULL CHECK (cover IN ('HARD', 'SOFT')),
	inventory INTEGER NOT NULL CHECK (inventory >= 0),
	daily_fee NUMERIC(6, 2) NOT NULL CHECK (daily_fee >= 0)
)`, books),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	borrow_date TIMESTAMPTZ NOT NULL,
	expected_return_date TIMESTAMPTZ NOT NULL,
	actual_return_date TIMESTAMPTZ,
	book_id BIGINT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
	user_id BIGINT NOT NULL,
	CONSTRAINT %s CHECK (expected_return_date > borrow_date),
	CONSTRAINT %s UNIQUE NULLS NOT DISTINCT (borrow_date, expected_return_date, actual_return_date)
)`,
			borrowings,
			books,
			pq.QuoteIdentifier(s.borrowingsTable+"_return_after_borrow"),
			pq.QuoteIdentifier(s.borrowingsTable+"_unique_dates"),
		),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (user_id)`,
			pq.QuoteIdentifier(s.borrowingsTable+"_user_id_idx"), borrowings),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (expected_return_date) WHERE actual_return_date IS NULL`,
			pq.QuoteIdentifier(s.borrowingsTable+"_open_idx"), borrowings),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	status TEXT NOT NULL CHECK (status IN ('PENDING', 'PAID', 'EXPIRED')),
	type TEXT NOT NULL CHECK (type IN ('PAYMENT', 'FINE')),
	borrowing_id BIGINT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
	session_id TEXT NOT NULL UNIQUE,
	session_url TEXT NOT NULL,
	money_to_pay NUMERIC(9, 2) NOT NULL CHECK (money_to_pay >= 0),
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, payments, borrowings),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (borrowing_id)`,
			pq.QuoteIdentifier(s.paymentsTable+"_borrowing_id_idx"), payments),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (status) WHERE status = 'PENDING'`,
			pq.QuoteIdentifier(s.paymentsTable+"_pending_idx"), payments),
	}
}
