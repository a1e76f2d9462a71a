package chargeoverduefines

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	logMsgFineCharged  = "overdue fine charged"
	logMsgFineSkipped  = "overdue fine skipped, payment provider unavailable"
	logMsgChargeFailed = "charging overdue fine failed"

	logAttrBorrowingID = "borrowing_id"
	logAttrAmount      = "amount"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	ListOverdueBorrowings(ctx context.Context, dueBefore time.Time) ([]librarystore.Borrowing, error)
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

// CommandHandler runs the Fine Calculator: List overdue -> per borrowing: Lock -> Decide -> Replace -> Open.
type CommandHandler struct {
	store            Store
	opener           SessionOpener
	retryOptions     []shell.RetryOption
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for each per-borrowing transaction.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// WithLogger sets the logger for charged and skipped borrowings.
func WithLogger(logger shell.Logger) Option {
	return func(h *CommandHandler) {
		h.logger = logger
	}
}

// WithContextualLogger sets the contextual logger for charged and skipped borrowings.
func WithContextualLogger(logger shell.ContextualLogger) Option {
	return func(h *CommandHandler) {
		h.contextualLogger = logger
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

// Handle runs the Fine Calculator once. A provider failure skips the borrowing until the next run.
// Storage failures of single borrowings are returned joined after every borrowing was visited.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	var (
		result     Result
		chargeErrs []error
		total      shell.RetryMetrics
	)

	ctx = librarystore.WithStrongConsistency(ctx)

	overdue, err := h.store.ListOverdueBorrowings(ctx, command.ChargedAt)
	if err != nil {
		return Result{}, shell.NewErrorResult(shell.RetryMetrics{Attempts: 1}), err
	}

	for _, borrowing := range overdue {
		if ctx.Err() != nil {
			chargeErrs = append(chargeErrs, ctx.Err())
			break
		}

		result.Checked++

		var fine *librarystore.Payment

		retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
			var execErr error
			fine, execErr = h.charge(retryCtx, borrowing.ID, command)

			return execErr
		}, h.retryOptions...)

		total = shell.CombineRetryMetrics(total, retryMetrics)

		switch {
		case errors.Is(err, core.ErrProviderUnavailable):
			result.ProviderFailures++
			shell.LogWarn(ctx, h.logger, h.contextualLogger, logMsgFineSkipped,
				logAttrBorrowingID, borrowing.ID, shell.LogAttrError, err.Error())

		case err != nil:
			chargeErrs = append(chargeErrs, err)
			shell.LogError(ctx, h.logger, h.contextualLogger, logMsgChargeFailed,
				logAttrBorrowingID, borrowing.ID, shell.LogAttrError, err.Error())

		case fine != nil:
			result.Charged++
			shell.LogInfo(ctx, h.logger, h.contextualLogger, logMsgFineCharged,
				logAttrBorrowingID, borrowing.ID, logAttrAmount, fine.MoneyToPay.StringFixed(core.MoneyScale))
		}
	}

	if len(chargeErrs) > 0 {
		return result, shell.NewErrorResult(total), errors.Join(chargeErrs...)
	}

	if result.Charged == 0 {
		return result, shell.NewIdempotentResult(total), nil
	}

	return result, shell.NewSuccessResult(total), nil
}

func (h CommandHandler) charge(ctx context.Context, borrowingID int64, command Command) (*librarystore.Payment, error) {
	var fine *librarystore.Payment

	err := h.store.WithTx(ctx, func(ctx context.Context, tx librarystore.Tx) error {
		borrowing, err := tx.LockBorrowing(ctx, borrowingID)
		if err != nil {
			return err
		}

		book, err := tx.GetBook(ctx, borrowing.BookID)
		if err != nil {
			return err
		}

		payments, err := tx.ListPaymentsByBorrowing(ctx, borrowing.ID)
		if err != nil {
			return err
		}

		plan := Decide(borrowing, book, payments, command.ChargedAt)
		if plan.Decision.IsIdempotent() {
			return nil
		}

		for _, replaced := range plan.Replace {
			if err := tx.DeletePayment(ctx, replaced.ID); err != nil {
				return err
			}
		}

		payment, err := h.opener.Open(
			ctx, tx, borrowing, book, plan.Amount, librarystore.PaymentTypeFine, command.ChargedAt,
		)
		if err != nil {
			return err
		}

		fine = &payment

		return nil
	})

	return fine, err
}
