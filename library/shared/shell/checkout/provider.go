// Package checkout is the boundary to the external payment provider.
//
// Provider creates hosted checkout sessions and reports their state. StripeClient implements it
// against the Stripe Checkout API. Every failure of a Provider is joined with
// core.ErrProviderUnavailable so callers can match it with errors.Is.
package checkout

import (
	"context"
	"time"
)

// Payment states of a checkout session as reported by the provider.
const (
	PaymentStatusPaid            = "paid"
	PaymentStatusUnpaid          = "unpaid"
	PaymentStatusNoPaymentNeeded = "no_payment_required"
)

// Lifecycle states of a checkout session as reported by the provider.
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// Session is a hosted checkout page issued by the provider.
type Session struct {
	ID            string
	URL           string
	PaymentStatus string
	Status        string
	ExpiresAt     time.Time
}

// IsPaid reports whether the provider confirmed the payment.
func (s Session) IsPaid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// IsExpired reports whether the provider closed the session without payment.
func (s Session) IsExpired() bool {
	return s.Status == SessionStatusExpired
}

// CreateSessionParams describes a single line item checkout.
// UnitAmount is in minor units of Currency.
type CreateSessionParams struct {
	ProductName    string
	UnitAmount     int64
	Currency       string
	Quantity       int64
	SuccessURL     string
	CancelURL      string
	ExpiresAt      time.Time
	IdempotencyKey string
}

// Provider creates and inspects checkout sessions.
type Provider interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (Session, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
}
