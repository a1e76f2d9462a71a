package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Store is an in-memory librarystore.Store. The zero value is not usable, use New.
type Store struct {
	mu       sync.Mutex
	state    *state
	injected map[string][]error
}

type state struct {
	books      map[int64]librarystore.Book
	borrowings map[int64]librarystore.Borrowing
	payments   map[int64]librarystore.Payment

	nextBookID      int64
	nextBorrowingID int64
	nextPaymentID   int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		state: &state{
			books:      make(map[int64]librarystore.Book),
			borrowings: make(map[int64]librarystore.Borrowing),
			payments:   make(map[int64]librarystore.Payment),
		},
		injected: make(map[string][]error),
	}
}

// FailNext makes the next len(errs) calls of the named operation (e.g. "InsertBorrowing")
// return the given errors in order, without touching any row.
func (s *Store) FailNext(operation string, errs ...error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.injected[operation] = append(s.injected[operation], errs...)
}

// WithTx runs fn with exclusive access to the store. Any error restores the state from before the call.
func (s *Store) WithTx(ctx context.Context, fn librarystore.TxFunc) error {
	if fn == nil {
		return librarystore.ErrNilTxFunc
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()

	if err := fn(ctx, view{store: s}); err != nil {
		s.state = snapshot

		return err
	}

	return nil
}

// autocommit runs one operation under the store lock.
func autocommit[T any](s *Store, fn func(v view) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(view{store: s})
}

func (s *Store) GetBook(ctx context.Context, id int64) (librarystore.Book, error) {
	return autocommit(s, func(v view) (librarystore.Book, error) { return v.GetBook(ctx, id) })
}

func (s *Store) ListBooks(ctx context.Context, page librarystore.Page) ([]librarystore.Book, int, error) {
	var total int

	books, err := autocommit(s, func(v view) (books []librarystore.Book, err error) {
		books, total, err = v.ListBooks(ctx, page)
		return books, err
	})

	return books, total, err
}

func (s *Store) GetBorrowing(ctx context.Context, id int64) (librarystore.Borrowing, error) {
	return autocommit(s, func(v view) (librarystore.Borrowing, error) { return v.GetBorrowing(ctx, id) })
}

func (s *Store) ListBorrowings(
	ctx context.Context,
	filter librarystore.BorrowingFilter,
) ([]librarystore.Borrowing, int, error) {
	var total int

	borrowings, err := autocommit(s, func(v view) (borrowings []librarystore.Borrowing, err error) {
		borrowings, total, err = v.ListBorrowings(ctx, filter)
		return borrowings, err
	})

	return borrowings, total, err
}

func (s *Store) ListOverdueBorrowings(ctx context.Context, dueBefore time.Time) ([]librarystore.Borrowing, error) {
	return autocommit(s, func(v view) ([]librarystore.Borrowing, error) { return v.ListOverdueBorrowings(ctx, dueBefore) })
}

func (s *Store) GetPayment(ctx context.Context, id int64) (librarystore.Payment, error) {
	return autocommit(s, func(v view) (librarystore.Payment, error) { return v.GetPayment(ctx, id) })
}

func (s *Store) GetPaymentBySession(ctx context.Context, sessionID string) (librarystore.Payment, error) {
	return autocommit(s, func(v view) (librarystore.Payment, error) { return v.GetPaymentBySession(ctx, sessionID) })
}

func (s *Store) ListPayments(ctx context.Context, filter librarystore.PaymentFilter) ([]librarystore.Payment, int, error) {
	var total int

	payments, err := autocommit(s, func(v view) (payments []librarystore.Payment, err error) {
		payments, total, err = v.ListPayments(ctx, filter)
		return payments, err
	})

	return payments, total, err
}

func (s *Store) ListPaymentsByBorrowing(ctx context.Context, borrowingID int64) ([]librarystore.Payment, error) {
	return autocommit(s, func(v view) ([]librarystore.Payment, error) { return v.ListPaymentsByBorrowing(ctx, borrowingID) })
}

func (s *Store) ListPendingPayments(ctx context.Context) ([]librarystore.Payment, error) {
	return autocommit(s, func(v view) ([]librarystore.Payment, error) { return v.ListPendingPayments(ctx) })
}

func (s *Store) InsertBook(ctx context.Context, book librarystore.Book) (librarystore.Book, error) {
	return autocommit(s, func(v view) (librarystore.Book, error) { return v.InsertBook(ctx, book) })
}

func (s *Store) UpdateBook(ctx context.Context, book librarystore.Book) (librarystore.Book, error) {
	return autocommit(s, func(v view) (librarystore.Book, error) { return v.UpdateBook(ctx, book) })
}

func (s *Store) DeleteBook(ctx context.Context, id int64) error {
	_, err := autocommit(s, func(v view) (struct{}, error) { return struct{}{}, v.DeleteBook(ctx, id) })
	return err
}

func (s *Store) LockBook(ctx context.Context, id int64) (librarystore.Book, error) {
	return autocommit(s, func(v view) (librarystore.Book, error) { return v.LockBook(ctx, id) })
}

func (s *Store) ReserveCopy(ctx context.Context, bookID int64) (librarystore.Book, error) {
	return autocommit(s, func(v view) (librarystore.Book, error) { return v.ReserveCopy(ctx, bookID) })
}

func (s *Store) ReleaseCopy(ctx context.Context, bookID int64) (librarystore.Book, error) {
	return autocommit(s, func(v view) (librarystore.Book, error) { return v.ReleaseCopy(ctx, bookID) })
}

func (s *Store) InsertBorrowing(ctx context.Context, borrowing librarystore.Borrowing) (librarystore.Borrowing, error) {
	return autocommit(s, func(v view) (librarystore.Borrowing, error) { return v.InsertBorrowing(ctx, borrowing) })
}

func (s *Store) LockBorrowing(ctx context.Context, id int64) (librarystore.Borrowing, error) {
	return autocommit(s, func(v view) (librarystore.Borrowing, error) { return v.LockBorrowing(ctx, id) })
}

func (s *Store) MarkBorrowingReturned(
	ctx context.Context,
	id int64,
	returnedAt time.Time,
) (librarystore.Borrowing, error) {
	return autocommit(s, func(v view) (librarystore.Borrowing, error) { return v.MarkBorrowingReturned(ctx, id, returnedAt) })
}

func (s *Store) DeleteBorrowing(ctx context.Context, id int64) error {
	_, err := autocommit(s, func(v view) (struct{}, error) { return struct{}{}, v.DeleteBorrowing(ctx, id) })
	return err
}

func (s *Store) InsertPayment(ctx context.Context, payment librarystore.Payment) (librarystore.Payment, error) {
	return autocommit(s, func(v view) (librarystore.Payment, error) { return v.InsertPayment(ctx, payment) })
}

func (s *Store) LockPaymentBySession(ctx context.Context, sessionID string) (librarystore.Payment, error) {
	return autocommit(s, func(v view) (librarystore.Payment, error) { return v.LockPaymentBySession(ctx, sessionID) })
}

func (s *Store) UpdatePaymentStatus(
	ctx context.Context,
	id int64,
	status librarystore.PaymentStatus,
) (librarystore.Payment, error) {
	return autocommit(s, func(v view) (librarystore.Payment, error) { return v.UpdatePaymentStatus(ctx, id, status) })
}

func (s *Store) DeletePayment(ctx context.Context, id int64) error {
	_, err := autocommit(s, func(v view) (struct{}, error) { return struct{}{}, v.DeletePayment(ctx, id) })
	return err
}

func (st *state) clone() *state {
	return &state{
		books:           maps.Clone(st.books),
		borrowings:      maps.Clone(st.borrowings),
		payments:        maps.Clone(st.payments),
		nextBookID:      st.nextBookID,
		nextBorrowingID: st.nextBorrowingID,
		nextPaymentID:   st.nextPaymentID,
	}
}

func sortedKeys[V any](m map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(m))
}

var _ librarystore.Store = (*Store)(nil)
