package postgresengine_test

import (
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/librarystore"
	"github.com/kapitoshk4/library-service-api/librarystore/postgresengine"
)

func Test_NewStore_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	testCases := []struct {
		name        string
		factoryFunc func() (postgresengine.Store, error)
	}{
		{
			name:        "NewStoreFromPGXPool with nil",
			factoryFunc: func() (postgresengine.Store, error) { return postgresengine.NewStoreFromPGXPool(nil) },
		},
		{
			name:        "NewStoreFromSQLDB with nil",
			factoryFunc: func() (postgresengine.Store, error) { return postgresengine.NewStoreFromSQLDB(nil) },
		},
		{
			name:        "NewStoreFromSQLX with nil",
			factoryFunc: func() (postgresengine.Store, error) { return postgresengine.NewStoreFromSQLX(nil) },
		},
		{
			name: "NewStoreFromSQLDBAndReplica with nil replica",
			factoryFunc: func() (postgresengine.Store, error) {
				return postgresengine.NewStoreFromSQLDBAndReplica(&sql.DB{}, nil)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.factoryFunc()
			assert.ErrorIs(t, err, librarystore.ErrNilDatabaseConnection)
		})
	}
}

func Test_WithTableNames_ShouldFail_WithEmptyName(t *testing.T) {
	// arrange
	db, err := sqlx.Open("postgres", "postgres://localhost/unused?sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	// act
	_, err = postgresengine.NewStoreFromSQLX(db, postgresengine.WithTableNames("books", "", "payments"))

	// assert
	assert.ErrorIs(t, err, librarystore.ErrEmptyTableNameSupplied)
}

func Test_WithTx_ShouldFail_WithNilFunc(t *testing.T) {
	// arrange
	db, err := sql.Open("postgres", "postgres://localhost/unused?sslmode=disable")
	require.NoError(t, err)
	defer db.Close()

	store, err := postgresengine.NewStoreFromSQLDB(db)
	require.NoError(t, err)

	// act
	err = store.WithTx(t.Context(), nil)

	// assert
	assert.ErrorIs(t, err, librarystore.ErrNilTxFunc)
}
