package confirmpayment

import (
	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/checkout"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Decide checks whether the payment can be marked as paid.
//
// Business Rules:
//
//	GIVEN: A stored payment and the session as reported by the provider
//	WHEN: ConfirmPayment command is received
//	THEN: the payment becomes Paid
//	ERROR: ErrPaymentNotCompleted if the provider does not report the session as paid
//	IDEMPOTENCY: If the payment is already Paid, nothing changes (no-op)
func Decide(payment librarystore.Payment, session checkout.Session) core.DecisionResult {
	if payment.Status == librarystore.PaymentStatusPaid {
		return core.IdempotentDecision()
	}

	if !session.IsPaid() {
		return core.ErrorDecision(core.ErrPaymentNotCompleted)
	}

	return core.SuccessDecision()
}
