package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/shared/shell/config"
	"github.com/kapitoshk4/library-service-api/librarystore/postgresengine"
)

const (
	// EnvTestDSN names the variable holding the DSN of the integration test database.
	EnvTestDSN = "LIBRARY_TEST_POSTGRES_DSN"

	// EnvAdapterType selects the database adapter the wrapper opens: pgxpool (default), sqldb or sqlx.
	EnvAdapterType = "ADAPTER_TYPE"
)

// Engine type constants
const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"
)

// Wrapper abstracts over the adapter the Store was built on.
type Wrapper interface {
	GetStore() postgresengine.Store
	Exec(ctx context.Context, query string) error
	Close()
}

// Tables holds the prefixed table names a wrapper created.
type Tables struct {
	Books      string
	Borrowings string
	Payments   string
}

func newTables() Tables {
	prefix := "t" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12] + "_"

	return Tables{Books: prefix + "books", Borrowings: prefix + "borrowings", Payments: prefix + "payments"}
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store postgresengine.Store
}

func (w *PGXPoolWrapper) GetStore() postgresengine.Store {
	return w.store
}

func (w *PGXPoolWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.pool.Exec(ctx, query)

	return err
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db    *sql.DB
	store postgresengine.Store
}

func (w *SQLDBWrapper) GetStore() postgresengine.Store {
	return w.store
}

func (w *SQLDBWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)

	return err
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx-based testing
type SQLXWrapper struct {
	db    *sqlx.DB
	store postgresengine.Store
}

func (w *SQLXWrapper) GetStore() postgresengine.Store {
	return w.store
}

func (w *SQLXWrapper) Exec(ctx context.Context, query string) error {
	_, err := w.db.ExecContext(ctx, query)

	return err
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig opens the adapter selected by ADAPTER_TYPE and migrates a fresh set
// of prefixed tables. The tables are dropped and the connection closed when the test finishes.
// The test is skipped when no test database is configured.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	t.Helper()

	dsn := os.Getenv(EnvTestDSN)
	if dsn == "" {
		t.Skipf("%s is not set", EnvTestDSN)
	}

	ctx := context.Background()
	cfg := config.Default().Postgres
	tables := newTables()
	options = append(options, postgresengine.WithTableNames(tables.Books, tables.Borrowings, tables.Payments))

	var wrapper Wrapper

	engineTypeFromEnv := strings.ToLower(os.Getenv(EnvAdapterType))

	switch engineTypeFromEnv {
	case typePGXPool, "":
		pool, err := config.OpenPGXPool(ctx, cfg, dsn)
		require.NoError(t, err, "error connecting to DB pool in test setup")
		store, err := postgresengine.NewStoreFromPGXPool(pool, options...)
		require.NoError(t, err)

		wrapper = &PGXPoolWrapper{pool: pool, store: store}

	case typeSQLDB:
		db, err := config.OpenSQLDB(ctx, cfg, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		store, err := postgresengine.NewStoreFromSQLDB(db, options...)
		require.NoError(t, err)

		wrapper = &SQLDBWrapper{db: db, store: store}

	case typeSQLX:
		db, err := config.OpenSQLX(ctx, cfg, dsn)
		require.NoError(t, err, "error connecting to DB in test setup")
		store, err := postgresengine.NewStoreFromSQLX(db, options...)
		require.NoError(t, err)

		wrapper = &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}

	require.NoError(t, wrapper.GetStore().Migrate(ctx), "error migrating tables in test setup")

	t.Cleanup(func() {
		dropErr := wrapper.Exec(context.Background(), fmt.Sprintf(
			`DROP TABLE IF EXISTS "%s", "%s", "%s" CASCADE`, tables.Payments, tables.Borrowings, tables.Books))
		if dropErr != nil {
			t.Errorf("error dropping test tables: %v", dropErr)
		}

		wrapper.Close()
	})

	return wrapper
}
