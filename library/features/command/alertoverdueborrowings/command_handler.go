package alertoverdueborrowings

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/kapitoshk4/library-service-api/library/shared/shell"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// ErrNilNotifier is returned when the handler is created without a notifier.
var ErrNilNotifier = errors.New("notifier must not be nil")

// Store defines the storage operations needed by the CommandHandler.
type Store interface {
	ListOverdueBorrowings(ctx context.Context, dueBefore time.Time) ([]librarystore.Borrowing, error)
	GetBook(ctx context.Context, id int64) (librarystore.Book, error)
}

// CommandHandler runs the overdue alert: List -> Load books -> Decide -> Notify.
type CommandHandler struct {
	store        Store
	notifier     shell.Notifier
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the reads.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, notifier shell.Notifier, opts ...Option) (CommandHandler, error) {
	if notifier == nil {
		return CommandHandler{}, ErrNilNotifier
	}

	handler := CommandHandler{
		store:    store,
		notifier: notifier,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler, nil
}

// Handle runs the overdue alert once. Notifications are sent after all reads succeeded.
func (h CommandHandler) Handle(ctx context.Context, command Command) (Result, shell.HandlerResult, error) {
	var (
		borrowings []librarystore.Borrowing
		books      map[int64]librarystore.Book
	)

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var execErr error
		borrowings, books, execErr = h.load(retryCtx, command)

		return execErr
	}, h.retryOptions...)

	if err != nil {
		return Result{}, shell.NewErrorResult(retryMetrics), err
	}

	notifications := Decide(borrowings, books, command.CheckedAt)

	for _, notification := range notifications {
		h.notifier.Notify(ctx, notification)
	}

	return Result{Notifications: notifications}, shell.NewSuccessResult(retryMetrics), nil
}

func (h CommandHandler) load(
	ctx context.Context,
	command Command,
) ([]librarystore.Borrowing, map[int64]librarystore.Book, error) {
	borrowings, err := h.store.ListOverdueBorrowings(ctx, DueBefore(command.CheckedAt))
	if err != nil {
		return nil, nil, err
	}

	bookIDs := lo.Uniq(lo.Map(borrowings, func(borrowing librarystore.Borrowing, _ int) int64 {
		return borrowing.BookID
	}))

	books := make(map[int64]librarystore.Book, len(bookIDs))

	for _, bookID := range bookIDs {
		book, err := h.store.GetBook(ctx, bookID)
		if errors.Is(err, librarystore.ErrNotFound) {
			continue
		}

		if err != nil {
			return nil, nil, err
		}

		books[bookID] = book
	}

	return borrowings, books, nil
}
