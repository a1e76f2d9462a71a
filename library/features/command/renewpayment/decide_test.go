package renewpayment_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/kapitoshk4/library-service-api/library/features/command/renewpayment"
	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

func Test_Decide(t *testing.T) {
	testCases := []struct {
		status      librarystore.PaymentStatus
		expectedErr error
	}{
		{status: librarystore.PaymentStatusPending},
		{status: librarystore.PaymentStatusExpired},
		{status: librarystore.PaymentStatusPaid, expectedErr: core.ErrPaymentAlreadyPaid},
	}

	for _, tc := range testCases {
		t.Run(string(tc.status), func(t *testing.T) {
			// act
			result := renewpayment.Decide(librarystore.Payment{Status: tc.status})

			// assert
			if tc.expectedErr != nil {
				assert.ErrorIs(t, result.HasError(), tc.expectedErr)
				return
			}

			assert.NoError(t, result.HasError())
		})
	}
}

func Test_AmountToRenew(t *testing.T) {
	borrowDate := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	borrowing := librarystore.Borrowing{BorrowDate: borrowDate, ExpectedReturnDate: borrowDate.AddDate(0, 0, 10)}
	book := librarystore.Book{DailyFee: decimal.RequireFromString("3.00")}

	payment := librarystore.Payment{Type: librarystore.PaymentTypePayment, MoneyToPay: decimal.RequireFromString("20.00")}
	fine := librarystore.Payment{Type: librarystore.PaymentTypeFine, MoneyToPay: decimal.RequireFromString("9.00")}

	assert.Equal(t, "30.00", renewpayment.AmountToRenew(payment, borrowing, book).StringFixed(2))
	assert.Equal(t, "9.00", renewpayment.AmountToRenew(fine, borrowing, book).StringFixed(2))
}
