package core

import "errors"

// Business errors reported to callers. Handlers join them with the underlying cause,
// so callers match them with errors.Is.
var (
	// ErrOutOfStock is returned when a book with zero inventory is borrowed.
	ErrOutOfStock = errors.New("book is out of stock")

	// ErrAlreadyReturned is returned when a borrowing that already has an actual return date is returned again.
	ErrAlreadyReturned = errors.New("book already returned")

	// ErrUnknownSession is returned when no payment matches a session id.
	ErrUnknownSession = errors.New("unknown payment session")

	// ErrProviderUnavailable is returned when the payment provider failed or timed out.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrDuplicateBorrowing is returned when a borrowing with the same borrow, expected and actual return dates exists.
	ErrDuplicateBorrowing = errors.New("borrowing with the same dates already exists")

	// ErrInvalidReturnDate is returned when the expected return date is not after the borrow date.
	ErrInvalidReturnDate = errors.New("expected return date must be after borrow date")

	// ErrPaymentNotCompleted is returned by confirm when the provider does not report the session as paid.
	ErrPaymentNotCompleted = errors.New("payment not completed")

	// ErrPaymentAlreadyPaid is returned when a paid payment is renewed.
	ErrPaymentAlreadyPaid = errors.New("payment already paid")

	// ErrBookNotFound is returned when a referenced book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrBorrowingNotFound is returned when a referenced borrowing does not exist.
	ErrBorrowingNotFound = errors.New("borrowing not found")

	// ErrPaymentNotFound is returned when a referenced payment does not exist.
	ErrPaymentNotFound = errors.New("payment not found")
)
