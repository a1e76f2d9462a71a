package borrowbook

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

// CommandHandler orchestrates the borrow workflow: Lock -> Decide -> Reserve -> Insert -> Open.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	store        Store
	opener       SessionOpener
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

// WithNotifier sets the notifier that receives BorrowingCreated.
func WithNotifier(notifier shell.Notifier) Option {
	return func(h *CommandHandler) {
		h.notifier = notifier
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

// Handle executes the borrow workflow, retrying the whole transaction on concurrency conflicts.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	var result Result

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		result, execErr = h.executeCommand(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return Result{}, shell.NewErrorResult(retryMetrics), err
	}

	if h.notifier != nil {
		h.notifier.Notify(ctx, borrowingCreated(result))
	}

	return result, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, error) {
	var result Result

	ctx = librarystore.WithStrongConsistency(ctx)

	err := h.store.WithTx(ctx, func(ctx context.Context, tx librarystore.Tx) error {
		book, err := tx.LockBook(ctx, command.BookID)
		if err != nil {
			return translateError(err)
		}

		if err := Decide(book, command).HasError(); err != nil {
			return err
		}

		book, err = tx.ReserveCopy(ctx, book.ID)
		if err != nil {
			return translateError(err)
		}

		borrowing, err := tx.InsertBorrowing(ctx, librarystore.Borrowing{
			BorrowDate:         command.BorrowDate,
			ExpectedReturnDate: command.ExpectedReturnDate,
			BookID:             book.ID,
			UserID:             command.UserID,
		})
		if err != nil {
			return translateError(err)
		}

		result = Result{Book: book, Borrowing: borrowing}

		totalPrice := core.TotalPrice(borrowing.BorrowDate, borrowing.ExpectedReturnDate, book.DailyFee)
		if !totalPrice.IsPositive() {
			return nil
		}

		payment, err := h.opener.Open(
			ctx, tx, borrowing, book, totalPrice, librarystore.PaymentTypePayment, command.BorrowDate,
		)
		if err != nil {
			return err
		}

		result.Payment = &payment

		return nil
	})

	return result, err
}

func translateError(err error) error {
	switch {
	case errors.Is(err, librarystore.ErrNotFound):
		return errors.Join(core.ErrBookNotFound, err)
	case errors.Is(err, librarystore.ErrGuardFailed):
		return errors.Join(core.ErrOutOfStock, err)
	case errors.Is(err, librarystore.ErrUniqueViolation):
		return errors.Join(core.ErrDuplicateBorrowing, err)
	default:
		return err
	}
}

func borrowingCreated(result Result) core.BorrowingCreated {
	notification := core.BorrowingCreated{
		BorrowingID:        result.Borrowing.ID,
		UserID:             result.Borrowing.UserID,
		BookID:             result.Book.ID,
		BookTitle:          result.Book.Title,
		BookAuthor:         result.Book.Author,
		BorrowDate:         result.Borrowing.BorrowDate,
		ExpectedReturnDate: result.Borrowing.ExpectedReturnDate,
		MoneyToPay:         decimal.Zero,
	}

	if result.Payment != nil {
		notification.MoneyToPay = result.Payment.MoneyToPay
		notification.SessionURL = result.Payment.SessionURL
	}

	return notification
}
