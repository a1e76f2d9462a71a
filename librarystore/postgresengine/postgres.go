package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/kapitoshk4/library-service-api/librarystore"
	"github.com/kapitoshk4/library-service-api/librarystore/postgresengine/internal/adapters"
)

const (
	defaultBooksTableName      = "books"
	defaultBorrowingsTableName = "borrowings"
	defaultPaymentsTableName   = "payments"
	dialectPostgres            = "postgres"

	colID                 = "id"
	colTitle              = "title"
	colAuthor             = "author"
	colCover              = "cover"
	colInventory          = "inventory"
	colDailyFee           = "daily_fee"
	colBorrowDate         = "borrow_date"
	colExpectedReturnDate = "expected_return_date"
	colActualReturnDate   = "actual_return_date"
	colBookID             = "book_id"
	colUserID             = "user_id"
	colStatus             = "status"
	colType               = "type"
	colBorrowingID        = "borrowing_id"
	colSessionID          = "session_id"
	colSessionURL         = "session_url"
	colMoneyToPay         = "money_to_pay"
	colExpiresAt          = "expires_at"
	colCreatedAt          = "created_at"
	aliasCount            = "count"
	castText              = "TEXT"

	logMsgBuildQueryFailed    = "failed to build sql query"
	logMsgDBQueryFailed       = "database query execution failed"
	logMsgDBExecFailed        = "database execution failed"
	logMsgCloseRowsFailed     = "failed to close database rows"
	logMsgScanRowFailed       = "failed to scan database row"
	logMsgRowsAffectedFailed  = "failed to get rows affected count"
	logMsgBeginTxFailed       = "failed to begin transaction"
	logMsgCommitTxFailed      = "failed to commit transaction"
	logMsgRollbackTxFailed    = "failed to roll back transaction"
	logMsgOperationFailed     = "store operation failed"
	logMsgConcurrencyConflict = "concurrency conflict detected"
	logMsgSQLExecuted         = "executed sql for: "
	logMsgOperation           = "store operation: "
	logAttrError              = "error"
	logAttrQuery              = "query"
	logAttrDurationMS         = "duration_ms"
	logAttrOperation          = "operation"
	logAttrRowCount           = "row_count"
)

type (
	sqlQueryString = string
)

// Store is the PostgreSQL implementation of librarystore.Store.
// A Store value returned by a constructor runs every operation in autocommit mode.
// The value passed to a TxFunc by WithTx runs every operation in that transaction.
type Store struct {
	db               adapters.DBAdapter
	executor         adapters.DBExecutor
	inTx             bool
	booksTable       string
	borrowingsTable  string
	paymentsTable    string
	logger           Logger
	contextualLogger ContextualLogger
	metricsCollector MetricsCollector
	tracingCollector TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, librarystore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromPGXPoolAndReplica creates a new Store using a primary and a replica pgx Pool.
// Reads are routed to the replica when the context carries librarystore.EventualConsistency.
func NewStoreFromPGXPoolAndReplica(db *pgxpool.Pool, replica *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil || replica == nil {
		return Store{}, librarystore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapterWithReplica(db, replica), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, librarystore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLDBAndReplica creates a new Store using a primary and a replica sql.DB.
func NewStoreFromSQLDBAndReplica(db *sql.DB, replica *sql.DB, options ...Option) (Store, error) {
	if db == nil || replica == nil {
		return Store{}, librarystore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapterWithReplica(db, replica), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, librarystore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

// NewStoreFromSQLXAndReplica creates a new Store using a primary and a replica sqlx.DB.
func NewStoreFromSQLXAndReplica(db *sqlx.DB, replica *sqlx.DB, options ...Option) (Store, error) {
	if db == nil || replica == nil {
		return Store{}, librarystore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapterWithReplica(db, replica), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (Store, error) {
	s := Store{
		db:              db,
		executor:        db,
		booksTable:      defaultBooksTableName,
		borrowingsTable: defaultBorrowingsTableName,
		paymentsTable:   defaultPaymentsTableName,
	}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Store{}, err
		}
	}

	return s, nil
}

// WithTx runs fn inside one database transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
// Calling WithTx on the Store passed to fn reuses the open transaction.
func (s Store) WithTx(ctx context.Context, fn librarystore.TxFunc) error {
	if fn == nil {
		return librarystore.ErrNilTxFunc
	}

	if s.inTx {
		return fn(ctx, s)
	}

	return s.observe(ctx, operationWithTx, func(ctx context.Context) error {
		dbTx, err := s.db.Begin(ctx)
		if err != nil {
			s.logError(ctx, logMsgBeginTxFailed, err)
			return mapDBError(err)
		}

		txStore := s
		txStore.executor = dbTx
		txStore.inTx = true

		if fnErr := fn(ctx, txStore); fnErr != nil {
			if rbErr := dbTx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
				s.logError(ctx, logMsgRollbackTxFailed, rbErr)
			}

			return fnErr
		}

		if err = dbTx.Commit(ctx); err != nil {
			s.logError(ctx, logMsgCommitTxFailed, err)
			return mapDBError(err)
		}

		return nil
	})
}

// query executes a select statement and calls scan for each returned row.
func (s Store) query(
	ctx context.Context,
	action string,
	sqlQuery sqlQueryString,
	scan func(rows adapters.DBRows) error,
) error {
	start := time.Now()

	rows, err := s.executor.Query(ctx, sqlQuery)
	if err != nil {
		s.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return mapDBError(err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logError(ctx, logMsgCloseRowsFailed, closeErr)
		}
	}()

	for rows.Next() {
		if scanErr := scan(rows); scanErr != nil {
			s.logError(ctx, logMsgScanRowFailed, scanErr, logAttrQuery, sqlQuery)
			return scanErr
		}
	}

	if err = rows.Err(); err != nil {
		s.logError(ctx, logMsgDBQueryFailed, err, logAttrQuery, sqlQuery)
		return mapDBError(err)
	}

	s.logQueryWithDuration(sqlQuery, action, time.Since(start))

	return nil
}

// exec executes a statement without result rows and returns the number of affected rows.
func (s Store) exec(ctx context.Context, action string, sqlQuery sqlQueryString) (int64, error) {
	start := time.Now()

	result, err := s.executor.Exec(ctx, sqlQuery)
	if err != nil {
		s.logError(ctx, logMsgDBExecFailed, err, logAttrQuery, sqlQuery)
		return 0, mapDBError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logError(ctx, logMsgRowsAffectedFailed, err, logAttrQuery, sqlQuery)
		return 0, err
	}

	s.logQueryWithDuration(sqlQuery, action, time.Since(start))

	return rowsAffected, nil
}

// count executes a SELECT COUNT(*) statement.
func (s Store) count(ctx context.Context, action string, sqlQuery sqlQueryString) (int, error) {
	var total int64

	err := s.query(ctx, action, sqlQuery, func(rows adapters.DBRows) error {
		return rows.Scan(&total)
	})

	return int(total), err
}

// dialect returns the goqu dialect used for every statement.
func dialect() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// buildFailed wraps a goqu build error.
func (s Store) buildFailed(ctx context.Context, err error) error {
	s.logError(ctx, logMsgBuildQueryFailed, err)
	return errors.Join(ErrBuildQueryFailed, err)
}
