package sweepexpiredpayments_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/features/command/sweepexpiredpayments"
	"github.com/kapitoshk4/library-service-api/librarystore"
	. "github.com/kapitoshk4/library-service-api/testutil/helper" //nolint:revive
	"github.com/kapitoshk4/library-service-api/testutil/memstore"
)

func Test_CommandHandler_Handle_ExpiresStalePayments(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.New()
	provider := NewCheckoutProviderFake()
	logger := NewLoggerSpy(true)
	handler := sweepexpiredpayments.NewCommandHandler(store, provider, sweepexpiredpayments.WithContextualLogger(logger))

	book := GivenBook(t, store, 5, "2.00")
	borrowing := GivenOpenBorrowing(t, store, book, 1, FixedNow.AddDate(0, 0, -3), FixedNow.AddDate(0, 0, 3))

	GivenPayment(t, store, borrowing, librarystore.PaymentTypePayment, librarystore.PaymentStatusPending,
		"cs_expired_at_provider", "12.00", FixedNow.Add(time.Hour))
	provider.MarkExpired("cs_expired_at_provider")

	GivenPayment(t, store, borrowing, librarystore.PaymentTypeFine, librarystore.PaymentStatusPending,
		"cs_past_expiry", "4.00", FixedNow.Add(-time.Minute))
	provider.AddOpenSession("cs_past_expiry")

	GivenPayment(t, store, borrowing, librarystore.PaymentTypeFine, librarystore.PaymentStatusPending,
		"cs_valid", "2.00", FixedNow.Add(time.Hour))
	provider.AddOpenSession("cs_valid")

	GivenPayment(t, store, borrowing, librarystore.PaymentTypeFine, librarystore.PaymentStatusPaid,
		"cs_paid", "6.00", FixedNow.Add(-time.Hour))

	// act
	result, handlerResult, err := handler.Handle(ctx, sweepexpiredpayments.BuildCommand(FixedNow))

	// assert
	require.NoError(t, err)
	assert.False(t, handlerResult.Idempotent)
	assert.Equal(t, sweepexpiredpayments.Result{Checked: 3, Expired: 2}, result)

	assertStatus(t, store, "cs_expired_at_provider", librarystore.PaymentStatusExpired)
	assertStatus(t, store, "cs_past_expiry", librarystore.PaymentStatusExpired)
	assertStatus(t, store, "cs_valid", librarystore.PaymentStatusPending)
	assertStatus(t, store, "cs_paid", librarystore.PaymentStatusPaid)
	assert.Equal(t, 2, logger.CountRecords("info", "payment expired"))
}

func Test_CommandHandler_Handle_ProviderFailure_ContinuesWithStoredExpiry(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.New()
	provider := NewCheckoutProviderFake()
	logger := NewLoggerSpy(true)
	handler := sweepexpiredpayments.NewCommandHandler(store, provider, sweepexpiredpayments.WithLogger(logger))

	book := GivenBook(t, store, 5, "2.00")
	borrowing := GivenOpenBorrowing(t, store, book, 1, FixedNow.AddDate(0, 0, -3), FixedNow.AddDate(0, 0, 3))

	GivenPayment(t, store, borrowing, librarystore.PaymentTypePayment, librarystore.PaymentStatusPending,
		"cs_down_stale", "12.00", FixedNow.Add(-time.Hour))
	GivenPayment(t, store, borrowing, librarystore.PaymentTypeFine, librarystore.PaymentStatusPending,
		"cs_down_valid", "4.00", FixedNow.Add(time.Hour))
	provider.FailGet("cs_down_stale")
	provider.FailGet("cs_down_valid")

	// act
	result, _, err := handler.Handle(ctx, sweepexpiredpayments.BuildCommand(FixedNow))

	// assert
	require.NoError(t, err)
	assert.Equal(t, sweepexpiredpayments.Result{Checked: 2, Expired: 1, ProviderFailures: 2}, result)
	assertStatus(t, store, "cs_down_stale", librarystore.PaymentStatusExpired)
	assertStatus(t, store, "cs_down_valid", librarystore.PaymentStatusPending)
	assert.Equal(t, 2, logger.CountRecords("warn", "checkout session status unavailable, using stored expiry"))
}

func Test_CommandHandler_Handle_NothingToExpire_IsIdempotent(t *testing.T) {
	// arrange
	handler := sweepexpiredpayments.NewCommandHandler(memstore.New(), NewCheckoutProviderFake())

	// act
	result, handlerResult, err := handler.Handle(context.Background(), sweepexpiredpayments.BuildCommand(FixedNow))

	// assert
	require.NoError(t, err)
	assert.True(t, handlerResult.Idempotent)
	assert.Zero(t, result.Checked)
}

func Test_CommandHandler_Handle_StorageFailure_OfOnePayment_DoesNotStopSweep(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.New()
	provider := NewCheckoutProviderFake()
	handler := sweepexpiredpayments.NewCommandHandler(store, provider)

	book := GivenBook(t, store, 5, "2.00")
	borrowing := GivenOpenBorrowing(t, store, book, 1, FixedNow.AddDate(0, 0, -3), FixedNow.AddDate(0, 0, 3))
	GivenPayment(t, store, borrowing, librarystore.PaymentTypePayment, librarystore.PaymentStatusPending,
		"cs_first", "12.00", FixedNow.Add(-time.Hour))
	GivenPayment(t, store, borrowing, librarystore.PaymentTypeFine, librarystore.PaymentStatusPending,
		"cs_second", "4.00", FixedNow.Add(-time.Hour))
	provider.AddOpenSession("cs_first")
	provider.AddOpenSession("cs_second")

	storageErr := errors.New("disk full")
	store.FailNext("UpdatePaymentStatus", storageErr)

	// act
	result, _, err := handler.Handle(ctx, sweepexpiredpayments.BuildCommand(FixedNow))

	// assert
	assert.ErrorIs(t, err, storageErr)
	assert.Equal(t, 2, result.Checked)
	assert.Equal(t, 1, result.Expired)
	assertStatus(t, store, "cs_first", librarystore.PaymentStatusPending)
	assertStatus(t, store, "cs_second", librarystore.PaymentStatusExpired)
}

func assertStatus(t *testing.T, store *memstore.Store, sessionID string, expected librarystore.PaymentStatus) {
	t.Helper()

	payment, err := store.GetPaymentBySession(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, expected, payment.Status, "status of %s", sessionID)
}
