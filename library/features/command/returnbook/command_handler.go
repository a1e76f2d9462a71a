package returnbook

import (
	"context"
	"errors"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	WithTx(ctx context.Context, fn librarystore.TxFunc) error
}

// CommandHandler orchestrates the return workflow: Lock -> Decide -> MarkReturned -> Release.
type CommandHandler struct {
	store        Store
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
func NewCommandHandler(store Store, opts ...Option) CommandHandler {
	handler := CommandHandler{store: store}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the return workflow, retrying the whole transaction on concurrency conflicts.
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

	return result, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) executeCommand(ctx context.Context, command Command) (Result, error) {
	var result Result

	ctx = librarystore.WithStrongConsistency(ctx)

	err := h.store.WithTx(ctx, func(ctx context.Context, tx librarystore.Tx) error {
		borrowing, err := tx.LockBorrowing(ctx, command.BorrowingID)
		if err != nil {
			return translateError(err)
		}

		if err := Decide(borrowing).HasError(); err != nil {
			return err
		}

		// Guarded by actual_return_date IS NULL.
		borrowing, err = tx.MarkBorrowingReturned(ctx, borrowing.ID, command.ReturnedAt)
		if err != nil {
			return translateError(err)
		}

		book, err := tx.ReleaseCopy(ctx, borrowing.BookID)
		if err != nil {
			return err
		}

		result = Result{Borrowing: borrowing, Book: book}

		return nil
	})

	return result, err
}

func translateError(err error) error {
	switch {
	case errors.Is(err, librarystore.ErrNotFound):
		return errors.Join(core.ErrBorrowingNotFound, err)
	case errors.Is(err, librarystore.ErrGuardFailed):
		return errors.Join(core.ErrAlreadyReturned, err)
	default:
		return err
	}
}
