package chargeoverduefines

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Plan is the outcome of Decide for one borrowing.
// With a success decision a fine over Amount is opened after the Replace payments were deleted.
type Plan struct {
	Decision core.DecisionResult
	Amount   decimal.Decimal
	Replace  []librarystore.Payment
}

// Decide computes the fine still to charge for a borrowing.
//
// Business Rules:
//
//	GIVEN: An open borrowing, its book and every payment of the borrowing
//	WHEN: the fine run reaches the borrowing
//	THEN: a FINE over (fine due - paid fines) is opened, replacing unpaid pending fines
//	IDEMPOTENCY: If the borrowing was returned, is not overdue by a whole day, is paid up,
//	             or a pending fine over exactly the outstanding amount exists, nothing changes (no-op)
func Decide(
	borrowing librarystore.Borrowing,
	book librarystore.Book,
	payments []librarystore.Payment,
	now time.Time,
) Plan {
	if !borrowing.IsActive() {
		return Plan{Decision: core.IdempotentDecision()}
	}

	due := core.FineAmount(core.DaysOverdue(borrowing.ExpectedReturnDate, now), book.DailyFee)

	paid := decimal.Zero
	var pending []librarystore.Payment

	for _, payment := range payments {
		if payment.Type != librarystore.PaymentTypeFine {
			continue
		}

		switch payment.Status {
		case librarystore.PaymentStatusPaid:
			paid = paid.Add(payment.MoneyToPay)
		case librarystore.PaymentStatusPending:
			pending = append(pending, payment)
		}
	}

	outstanding := due.Sub(paid)
	if !outstanding.IsPositive() {
		return Plan{Decision: core.IdempotentDecision()}
	}

	if len(pending) == 1 && pending[0].MoneyToPay.Equal(outstanding) {
		return Plan{Decision: core.IdempotentDecision()}
	}

	return Plan{
		Decision: core.SuccessDecision(),
		Amount:   outstanding,
		Replace:  pending,
	}
}
