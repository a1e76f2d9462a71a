package confirmpayment

import (
	"context"
	"errors"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/library/shared/shell/checkout"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	WithTx(ctx context.Context, fn librarystore.TxFunc) error
}

// SessionProvider reports the authoritative state of a checkout session.
type SessionProvider interface {
	GetSession(ctx context.Context, sessionID string) (checkout.Session, error)
}

// CommandHandler orchestrates the confirm workflow: Lock -> Ask provider -> Decide -> Update.
// The payment row stays locked while the provider is asked, so a concurrent renew waits.
type CommandHandler struct {
	store        Store
	provider     SessionProvider
	notifier     shell.Notifier
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithNotifier sets the notifier that receives PaymentConfirmed.
func WithNotifier(notifier shell.Notifier) Option {
	return func(h *CommandHandler) {
		h.notifier = notifier
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, provider SessionProvider, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:    store,
		provider: provider,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the confirm workflow and returns the payment as stored afterwards.
func (h CommandHandler) Handle(ctx context.Context, command Command) (librarystore.Payment, shell.HandlerResult, error) {
	var (
		payment      librarystore.Payment
		isIdempotent bool
	)

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		payment, isIdempotent, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return librarystore.Payment{}, shell.NewErrorResult(retryMetrics), err
	}

	if isIdempotent {
		return payment, shell.NewIdempotentResult(retryMetrics), nil
	}

	if h.notifier != nil {
		h.notifier.Notify(ctx, core.PaymentConfirmed{
			PaymentID:   payment.ID,
			BorrowingID: payment.BorrowingID,
			PaymentType: string(payment.Type),
			MoneyToPay:  payment.MoneyToPay,
			SessionID:   payment.SessionID,
		})
	}

	return payment, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (librarystore.Payment, bool, error) {
	var (
		payment      librarystore.Payment
		isIdempotent bool
	)

	ctx = librarystore.WithStrongConsistency(ctx)

	err := h.store.WithTx(ctx, func(ctx context.Context, tx librarystore.Tx) error {
		var err error

		payment, err = tx.LockPaymentBySession(ctx, command.SessionID)
		if err != nil {
			if errors.Is(err, librarystore.ErrNotFound) {
				return errors.Join(core.ErrUnknownSession, err)
			}

			return err
		}

		if payment.Status == librarystore.PaymentStatusPaid {
			isIdempotent = true
			return nil
		}

		session, err := h.provider.GetSession(ctx, payment.SessionID)
		if err != nil {
			if !errors.Is(err, core.ErrProviderUnavailable) {
				err = errors.Join(core.ErrProviderUnavailable, err)
			}

			return err
		}

		decision := Decide(payment, session)
		if err := decision.HasError(); err != nil {
			return err
		}

		if decision.IsIdempotent() {
			isIdempotent = true
			return nil
		}

		payment, err = tx.UpdatePaymentStatus(ctx, payment.ID, librarystore.PaymentStatusPaid)

		return err
	})

	return payment, isIdempotent, err
}
