package chargeoverduefines_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/features/command/chargeoverduefines"
	"github.com/kapitoshk4/library-service-api/librarystore"
	. "github.com/kapitoshk4/library-service-api/testutil/helper" //nolint:revive
	"github.com/kapitoshk4/library-service-api/testutil/memstore"
)

func Test_CommandHandler_Handle_OpensFineForOverdueBorrowing(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.New()
	provider := NewCheckoutProviderFake()
	handler := chargeoverduefines.NewCommandHandler(store, NewTestOpener(t, provider))

	book := GivenBook(t, store, 0, "1.50")
	overdue := GivenOpenBorrowing(t, store, book, 1, FixedNow.AddDate(0, 0, -10), FixedNow.AddDate(0, 0, -3))
	GivenOpenBorrowing(t, store, book, 2, FixedNow.AddDate(0, 0, -1), FixedNow.AddDate(0, 0, 5))

	// act
	result, handlerResult, err := handler.Handle(ctx, chargeoverduefines.BuildCommand(FixedNow))

	// assert
	require.NoError(t, err)
	assert.False(t, handlerResult.Idempotent)
	assert.Equal(t, chargeoverduefines.Result{Checked: 1, Charged: 1}, result)

	payments, err := store.ListPaymentsByBorrowing(ctx, overdue.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, librarystore.PaymentTypeFine, payments[0].Type)
	assert.Equal(t, librarystore.PaymentStatusPending, payments[0].Status)
	assert.Equal(t, "9.00", payments[0].MoneyToPay.StringFixed(2))

	require.Len(t, provider.CreatedParams(), 1)
	assert.Equal(t, int64(900), provider.CreatedParams()[0].UnitAmount)
	assert.Equal(t, "Overdue fine: "+book.Title, provider.CreatedParams()[0].ProductName)

	storedBorrowing, err := store.GetBorrowing(ctx, overdue.ID)
	require.NoError(t, err)
	assert.True(t, storedBorrowing.IsActive())
}

func Test_CommandHandler_Handle_SecondRunOnSameDay_DoesNotChargeAgain(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.New()
	provider := NewCheckoutProviderFake()
	handler := chargeoverduefines.NewCommandHandler(store, NewTestOpener(t, provider))

	book := GivenBook(t, store, 0, "1.50")
	overdue := GivenOpenBorrowing(t, store, book, 1, FixedNow.AddDate(0, 0, -10), FixedNow.AddDate(0, 0, -3))

	_, _, err := handler.Handle(ctx, chargeoverduefines.BuildCommand(FixedNow))
	require.NoError(t, err)

	// act
	result, handlerResult, err := handler.Handle(ctx, chargeoverduefines.BuildCommand(FixedNow))

	// assert
	require.NoError(t, err)
	assert.True(t, handlerResult.Idempotent)
	assert.Zero(t, result.Charged)

	payments, err := store.ListPaymentsByBorrowing(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	assert.Len(t, provider.CreatedParams(), 1)
}

func Test_CommandHandler_Handle_NextDay_ReplacesUnpaidFine(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.New()
	handler := chargeoverduefines.NewCommandHandler(store, NewTestOpener(t, NewCheckoutProviderFake()))

	book := GivenBook(t, store, 0, "1.50")
	overdue := GivenOpenBorrowing(t, store, book, 1, FixedNow.AddDate(0, 0, -10), FixedNow.AddDate(0, 0, -3))

	_, _, err := handler.Handle(ctx, chargeoverduefines.BuildCommand(FixedNow))
	require.NoError(t, err)

	// act
	_, _, err = handler.Handle(ctx, chargeoverduefines.BuildCommand(FixedNow.AddDate(0, 0, 1)))

	// assert
	require.NoError(t, err)

	payments, err := store.ListPaymentsByBorrowing(ctx, overdue.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "12.00", payments[0].MoneyToPay.StringFixed(2))
}

func Test_CommandHandler_Handle_ProviderUnavailable_SkipsBorrowing(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.New()
	provider := NewCheckoutProviderFake()
	provider.FailCreate(true)
	logger := NewLoggerSpy(true)
	handler := chargeoverduefines.NewCommandHandler(store, NewTestOpener(t, provider),
		chargeoverduefines.WithContextualLogger(logger))

	book := GivenBook(t, store, 0, "1.50")
	first := GivenOpenBorrowing(t, store, book, 1, FixedNow.AddDate(0, 0, -10), FixedNow.AddDate(0, 0, -3))
	second := GivenOpenBorrowing(t, store, book, 2, FixedNow.AddDate(0, 0, -9), FixedNow.AddDate(0, 0, -2))

	// act
	result, _, err := handler.Handle(ctx, chargeoverduefines.BuildCommand(FixedNow))

	// assert
	require.NoError(t, err)
	assert.Equal(t, chargeoverduefines.Result{Checked: 2, ProviderFailures: 2}, result)
	assert.Equal(t, 2, logger.CountRecords("warn", "overdue fine skipped, payment provider unavailable"))

	for _, borrowing := range []librarystore.Borrowing{first, second} {
		payments, err := store.ListPaymentsByBorrowing(ctx, borrowing.ID)
		require.NoError(t, err)
		assert.Empty(t, payments)
	}
}
