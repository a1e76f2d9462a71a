package paymentsession_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/paymentsession"
	"github.com/kapitoshk4/library-service-api/librarystore"
	"github.com/kapitoshk4/library-service-api/testutil/helper"
	"github.com/kapitoshk4/library-service-api/testutil/memstore"
)

func givenOpener(t *testing.T, provider *helper.CheckoutProviderFake) paymentsession.Opener {
	t.Helper()

	opener, err := paymentsession.NewOpener(
		provider,
		paymentsession.SuccessURL("http://library.test"),
		paymentsession.CancelURL("http://library.test"),
		paymentsession.WithIdempotencyKeys(func() string { return "key-1" }),
	)
	require.NoError(t, err)

	return opener
}

func Test_Unit_Open_CreatesSessionAndPendingPayment(t *testing.T) {
	// arrange
	store := memstore.New()
	provider := helper.NewCheckoutProviderFake()
	opener := givenOpener(t, provider)
	book := helper.GivenBook(t, store, 1, "2.00")
	borrowing := helper.GivenOpenBorrowing(t, store, book, 7, helper.FixedNow, helper.FixedNow.AddDate(0, 0, 14))

	// act
	payment, err := opener.Open(
		t.Context(), store, borrowing, book, decimal.RequireFromString("28.00"), librarystore.PaymentTypePayment, helper.FixedNow,
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, librarystore.PaymentStatusPending, payment.Status)
	assert.Equal(t, librarystore.PaymentTypePayment, payment.Type)
	assert.Equal(t, borrowing.ID, payment.BorrowingID)
	assert.Equal(t, "28.00", payment.MoneyToPay.StringFixed(2))
	assert.Equal(t, helper.FixedNow.Add(24*time.Hour), payment.ExpiresAt)
	assert.NotEmpty(t, payment.SessionID)
	assert.NotEmpty(t, payment.SessionURL)

	params := provider.CreatedParams()
	require.Len(t, params, 1)
	assert.Equal(t, int64(2800), params[0].UnitAmount)
	assert.Equal(t, book.Title, params[0].ProductName)
	assert.Equal(t, "usd", params[0].Currency)
	assert.Equal(t, "key-1", params[0].IdempotencyKey)
	assert.Equal(t, "http://library.test/api/payments/success?session_id={CHECKOUT_SESSION_ID}", params[0].SuccessURL)
	assert.Equal(t, "http://library.test/api/payments/cancel", params[0].CancelURL)
}

func Test_Unit_Open_NamesFineLineItems(t *testing.T) {
	// arrange
	store := memstore.New()
	provider := helper.NewCheckoutProviderFake()
	opener := givenOpener(t, provider)
	book := helper.GivenBook(t, store, 1, "1.50")
	borrowing := helper.GivenOpenBorrowing(t, store, book, 7, helper.FixedNow.AddDate(0, 0, -10), helper.FixedNow.AddDate(0, 0, -3))

	// act
	payment, err := opener.Open(
		t.Context(), store, borrowing, book, decimal.RequireFromString("9.00"), librarystore.PaymentTypeFine, helper.FixedNow,
	)

	// assert
	require.NoError(t, err)
	assert.Equal(t, librarystore.PaymentTypeFine, payment.Type)
	assert.Equal(t, "Overdue fine: "+book.Title, provider.CreatedParams()[0].ProductName)
}

func Test_Unit_Open_ProviderFailure_WritesNothing(t *testing.T) {
	// arrange
	store := memstore.New()
	provider := helper.NewCheckoutProviderFake()
	provider.FailCreate(true)
	opener := givenOpener(t, provider)
	book := helper.GivenBook(t, store, 1, "2.00")
	borrowing := helper.GivenOpenBorrowing(t, store, book, 7, helper.FixedNow, helper.FixedNow.AddDate(0, 0, 14))

	// act
	_, err := opener.Open(
		t.Context(), store, borrowing, book, decimal.RequireFromString("28.00"), librarystore.PaymentTypePayment, helper.FixedNow,
	)

	// assert
	assert.ErrorIs(t, err, core.ErrProviderUnavailable)

	payments, err := store.ListPaymentsByBorrowing(context.Background(), borrowing.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func Test_Unit_Open_RejectsNonPositiveAmount(t *testing.T) {
	// arrange
	store := memstore.New()
	opener := givenOpener(t, helper.NewCheckoutProviderFake())
	book := helper.GivenBook(t, store, 1, "2.00")
	borrowing := helper.GivenOpenBorrowing(t, store, book, 7, helper.FixedNow, helper.FixedNow.AddDate(0, 0, 14))

	// act
	_, err := opener.Open(t.Context(), store, borrowing, book, decimal.Zero, librarystore.PaymentTypePayment, helper.FixedNow)

	// assert
	assert.ErrorIs(t, err, paymentsession.ErrNonPositiveAmount)
}

func Test_Unit_NewOpener_RequiresProvider(t *testing.T) {
	_, err := paymentsession.NewOpener(nil, "", "")

	assert.ErrorIs(t, err, paymentsession.ErrNilProvider)
}
