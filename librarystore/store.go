package librarystore

import (
	"context"
	"time"
)

// Reader groups the read operations of a Store.
type Reader interface {
	GetBook(ctx context.Context, id int64) (Book, error)
	ListBooks(ctx context.Context, page Page) ([]Book, int, error)

	GetBorrowing(ctx context.Context, id int64) (Borrowing, error)
	ListBorrowings(ctx context.Context, filter BorrowingFilter) ([]Borrowing, int, error)
	ListOverdueBorrowings(ctx context.Context, dueBefore time.Time) ([]Borrowing, error)

	GetPayment(ctx context.Context, id int64) (Payment, error)
	GetPaymentBySession(ctx context.Context, sessionID string) (Payment, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]Payment, int, error)
	ListPaymentsByBorrowing(ctx context.Context, borrowingID int64) ([]Payment, error)
	ListPendingPayments(ctx context.Context) ([]Payment, error)
}

// Writer groups the mutating operations of a Store.
// The Lock* methods take a row lock that is held until the surrounding transaction ends.
type Writer interface {
	InsertBook(ctx context.Context, book Book) (Book, error)
	UpdateBook(ctx context.Context, book Book) (Book, error)
	DeleteBook(ctx context.Context, id int64) error
	LockBook(ctx context.Context, id int64) (Book, error)

	// ReserveCopy decrements the inventory by one. It fails with ErrGuardFailed when it is zero.
	ReserveCopy(ctx context.Context, bookID int64) (Book, error)
	// ReleaseCopy increments the inventory by one.
	ReleaseCopy(ctx context.Context, bookID int64) (Book, error)

	InsertBorrowing(ctx context.Context, borrowing Borrowing) (Borrowing, error)
	LockBorrowing(ctx context.Context, id int64) (Borrowing, error)
	// MarkBorrowingReturned sets the actual return date. It fails with ErrGuardFailed when it is already set.
	MarkBorrowingReturned(ctx context.Context, id int64, returnedAt time.Time) (Borrowing, error)
	DeleteBorrowing(ctx context.Context, id int64) error

	InsertPayment(ctx context.Context, payment Payment) (Payment, error)
	LockPaymentBySession(ctx context.Context, sessionID string) (Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status PaymentStatus) (Payment, error)
	DeletePayment(ctx context.Context, id int64) error
}

// Tx is the set of operations available inside a transaction.
type Tx interface {
	Reader
	Writer
}

// TxFunc is executed by Store.WithTx. Returning an error rolls the transaction back.
type TxFunc func(ctx context.Context, tx Tx) error

// Store executes single operations in autocommit mode and groups operations with WithTx.
type Store interface {
	Tx
	WithTx(ctx context.Context, fn TxFunc) error
}
