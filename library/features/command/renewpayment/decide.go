package renewpayment

import (
	"github.com/shopspring/decimal"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Decide checks whether the payment can be renewed.
//
// Business Rules:
//
//	GIVEN: A stored payment
//	WHEN: RenewPayment command is received
//	THEN: the payment is replaced by a new session for the same borrowing
//	ERROR: ErrPaymentAlreadyPaid if the payment is Paid
func Decide(payment librarystore.Payment) core.DecisionResult {
	if payment.Status == librarystore.PaymentStatusPaid {
		return core.ErrorDecision(core.ErrPaymentAlreadyPaid)
	}

	return core.SuccessDecision()
}

// AmountToRenew is the amount of the replacing session: the current total price of the borrowing
// for a PAYMENT, the amount of the old session for a FINE.
func AmountToRenew(
	payment librarystore.Payment,
	borrowing librarystore.Borrowing,
	book librarystore.Book,
) decimal.Decimal {
	if payment.Type == librarystore.PaymentTypeFine {
		return payment.MoneyToPay
	}

	return core.TotalPrice(borrowing.BorrowDate, borrowing.ExpectedReturnDate, book.DailyFee)
}
