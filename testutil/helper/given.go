package helper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

// FixedNow is the reference time of handler tests.
var FixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

// GivenBook inserts a book with the given inventory and daily fee.
func GivenBook(t testing.TB, store librarystore.Store, inventory uint, dailyFee string) librarystore.Book {
	t.Helper()

	book, err := store.InsertBook(context.Background(), librarystore.Book{
		Title:     "Book " + uuid.NewString()[:8],
		Author:    "Some Author",
		Cover:     librarystore.CoverHard,
		Inventory: inventory,
		DailyFee:  decimal.RequireFromString(dailyFee),
	})
	require.NoError(t, err, "error in arranging test data")

	return book
}

// GivenOpenBorrowing inserts an open borrowing without touching the book's inventory.
func GivenOpenBorrowing(
	t testing.TB,
	store librarystore.Store,
	book librarystore.Book,
	userID int64,
	borrowDate time.Time,
	expectedReturnDate time.Time,
) librarystore.Borrowing {
	t.Helper()

	borrowing, err := store.InsertBorrowing(context.Background(), librarystore.Borrowing{
		BorrowDate:         borrowDate,
		ExpectedReturnDate: expectedReturnDate,
		BookID:             book.ID,
		UserID:             userID,
	})
	require.NoError(t, err, "error in arranging test data")

	return borrowing
}

// GivenPayment inserts a payment for a borrowing.
func GivenPayment(
	t testing.TB,
	store librarystore.Store,
	borrowing librarystore.Borrowing,
	kind librarystore.PaymentType,
	status librarystore.PaymentStatus,
	sessionID string,
	amount string,
	expiresAt time.Time,
) librarystore.Payment {
	t.Helper()

	payment, err := store.InsertPayment(context.Background(), librarystore.Payment{
		Status:      status,
		Type:        kind,
		BorrowingID: borrowing.ID,
		SessionID:   sessionID,
		SessionURL:  "https://checkout.test/pay/" + sessionID,
		MoneyToPay:  decimal.RequireFromString(amount),
		ExpiresAt:   expiresAt,
		CreatedAt:   expiresAt.Add(-24 * time.Hour),
	})
	require.NoError(t, err, "error in arranging test data")

	return payment
}
