package renewpayment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	WithTx(ctx context.Context, fn librarystore.TxFunc) error
}

// SessionOpener opens a checkout session and stores it as a Pending payment through tx.
type SessionOpener interface {
	Open(
		ctx context.Context,
		tx librarystore.Writer,
		borrowing librarystore.Borrowing,
		book librarystore.Book,
		amount decimal.Decimal,
		kind librarystore.PaymentType,
		now time.Time,
	) (librarystore.Payment, error)
}

// CommandHandler orchestrates the renew workflow: Lock -> Decide -> Delete -> Open.
type CommandHandler struct {
	store        Store
	opener       SessionOpener
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

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, opener SessionOpener, opts ...Option) CommandHandler {
	handler := CommandHandler{
		store:  store,
		opener: opener,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the renew workflow and returns the replacing payment.
func (h CommandHandler) Handle(ctx context.Context, command Command) (librarystore.Payment, shell.HandlerResult, error) {
	var payment librarystore.Payment

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		payment, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return librarystore.Payment{}, shell.NewErrorResult(retryMetrics), err
	}

	return payment, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (librarystore.Payment, error) {
	var renewed librarystore.Payment

	ctx = librarystore.WithStrongConsistency(ctx)

	err := h.store.WithTx(ctx, func(ctx context.Context, tx librarystore.Tx) error {
		payment, err := tx.LockPaymentBySession(ctx, command.SessionID)
		if err != nil {
			if errors.Is(err, librarystore.ErrNotFound) {
				return errors.Join(core.ErrUnknownSession, err)
			}

			return err
		}

		if err := Decide(payment).HasError(); err != nil {
			return err
		}

		borrowing, err := tx.GetBorrowing(ctx, payment.BorrowingID)
		if err != nil {
			return err
		}

		book, err := tx.GetBook(ctx, borrowing.BookID)
		if err != nil {
			return err
		}

		if err := tx.DeletePayment(ctx, payment.ID); err != nil {
			return err
		}

		renewed, err = h.opener.Open(
			ctx, tx, borrowing, book, AmountToRenew(payment, borrowing, book), payment.Type, command.RenewedAt,
		)

		return err
	})

	return renewed, err
}
