package sweepexpiredpayments

import (
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/checkout"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Decide checks whether a payment has to be expired. A nil session means the provider could not be asked.
//
// Business Rules:
//
//	GIVEN: A stored payment and, if available, its session as reported by the provider
//	WHEN: the sweep reaches the payment
//	THEN: the payment becomes Expired if the provider reports it expired or now is past its expiry
//	IDEMPOTENCY: If the payment is not Pending, or is still valid, nothing changes (no-op)
func Decide(payment librarystore.Payment, session *checkout.Session, now time.Time) core.DecisionResult {
	if payment.Status != librarystore.PaymentStatusPending {
		return core.IdempotentDecision()
	}

	if session != nil && session.IsPaid() {
		return core.IdempotentDecision()
	}

	if session != nil && session.IsExpired() {
		return core.SuccessDecision()
	}

	if now.After(payment.ExpiresAt) {
		return core.SuccessDecision()
	}

	return core.IdempotentDecision()
}
