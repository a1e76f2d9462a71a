// Package paymentsession opens checkout sessions for borrowings and records them as payments.
package paymentsession

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/checkout"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	// SessionLifetime is how long a checkout session accepts a payment.
	SessionLifetime = 24 * time.Hour

	// SessionIDPlaceholder is replaced by the provider with the id of the session in redirect URLs.
	SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

	finePrefix = "Overdue fine: "
)

var (
	// ErrNilProvider is returned when an Opener is created without a checkout provider.
	ErrNilProvider = errors.New("checkout provider must not be nil")

	// ErrNonPositiveAmount is returned when a session for zero or a negative amount is requested.
	ErrNonPositiveAmount = errors.New("amount to pay must be positive")
)

// Opener creates a provider checkout session and persists it as a Pending payment.
type Opener struct {
	provider   checkout.Provider
	successURL string
	cancelURL  string
	currency   string
	newKey     func() string
}

// Option configures an Opener.
type Option func(*Opener)

// WithCurrency overrides checkout.DefaultCurrency.
func WithCurrency(currency string) Option {
	return func(o *Opener) {
		o.currency = currency
	}
}

// WithIdempotencyKeys replaces the random idempotency keys sent to the provider.
func WithIdempotencyKeys(newKey func() string) Option {
	return func(o *Opener) {
		o.newKey = newKey
	}
}

// NewOpener creates an Opener. The provider redirects the payer to successURL with
// session_id set, or to cancelURL.
func NewOpener(provider checkout.Provider, successURL, cancelURL string, options ...Option) (Opener, error) {
	if provider == nil {
		return Opener{}, ErrNilProvider
	}

	opener := Opener{
		provider:   provider,
		successURL: successURL,
		cancelURL:  cancelURL,
		currency:   checkout.DefaultCurrency,
		newKey:     uuid.NewString,
	}

	for _, option := range options {
		option(&opener)
	}

	return opener, nil
}

// Open asks the provider for a session over amount and then inserts the Pending payment through tx.
// Nothing is written when the provider fails; the error then matches core.ErrProviderUnavailable.
func (o Opener) Open(
	ctx context.Context,
	tx librarystore.Writer,
	borrowing librarystore.Borrowing,
	book librarystore.Book,
	amount decimal.Decimal,
	kind librarystore.PaymentType,
	now time.Time,
) (librarystore.Payment, error) {
	if !amount.IsPositive() {
		return librarystore.Payment{}, ErrNonPositiveAmount
	}

	expiresAt := core.ToStoredTime(now.Add(SessionLifetime))

	session, err := o.provider.CreateSession(ctx, checkout.CreateSessionParams{
		ProductName:    productName(book, kind),
		UnitAmount:     core.ToMinorUnits(amount),
		Currency:       o.currency,
		Quantity:       1,
		SuccessURL:     o.successURL,
		CancelURL:      o.cancelURL,
		ExpiresAt:      expiresAt,
		IdempotencyKey: o.newKey(),
	})
	if err != nil {
		if !errors.Is(err, core.ErrProviderUnavailable) {
			err = errors.Join(core.ErrProviderUnavailable, err)
		}

		return librarystore.Payment{}, err
	}

	return tx.InsertPayment(ctx, librarystore.Payment{
		Status:      librarystore.PaymentStatusPending,
		Type:        kind,
		BorrowingID: borrowing.ID,
		SessionID:   session.ID,
		SessionURL:  session.URL,
		MoneyToPay:  amount.Round(core.MoneyScale),
		ExpiresAt:   expiresAt,
		CreatedAt:   core.ToStoredTime(now),
	})
}

// SuccessURL builds the redirect target for a finished checkout from the public base URL of the API.
func SuccessURL(baseURL string) string {
	return baseURL + "/api/payments/success?session_id=" + SessionIDPlaceholder
}

// CancelURL builds the redirect target for an abandoned checkout from the public base URL of the API.
func CancelURL(baseURL string) string {
	return baseURL + "/api/payments/cancel"
}

func productName(book librarystore.Book, kind librarystore.PaymentType) string {
	if kind == librarystore.PaymentTypeFine {
		return finePrefix + book.Title
	}

	return book.Title
}
