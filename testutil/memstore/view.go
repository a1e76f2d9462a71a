package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

// view operates on the state of a locked Store.
type view struct {
	store *Store
}

func (v view) st() *state {
	return v.store.state
}

func (v view) injected(operation string) error {
	errs := v.store.injected[operation]
	if len(errs) == 0 {
		return nil
	}

	v.store.injected[operation] = errs[1:]

	return errs[0]
}

func (v view) GetBook(_ context.Context, id int64) (librarystore.Book, error) {
	if err := v.injected("GetBook"); err != nil {
		return librarystore.Book{}, err
	}

	book, ok := v.st().books[id]
	if !ok {
		return librarystore.Book{}, librarystore.ErrNotFound
	}

	return book, nil
}

func (v view) ListBooks(_ context.Context, page librarystore.Page) ([]librarystore.Book, int, error) {
	if err := v.injected("ListBooks"); err != nil {
		return nil, 0, err
	}

	books := lo.Values(v.st().books)
	slices.SortFunc(books, func(a, b librarystore.Book) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})

	return paginate(books, page), len(books), nil
}

func (v view) GetBorrowing(_ context.Context, id int64) (librarystore.Borrowing, error) {
	if err := v.injected("GetBorrowing"); err != nil {
		return librarystore.Borrowing{}, err
	}

	borrowing, ok := v.st().borrowings[id]
	if !ok {
		return librarystore.Borrowing{}, librarystore.ErrNotFound
	}

	return borrowing, nil
}

func (v view) ListBorrowings(
	_ context.Context,
	filter librarystore.BorrowingFilter,
) ([]librarystore.Borrowing, int, error) {
	if err := v.injected("ListBorrowings"); err != nil {
		return nil, 0, err
	}

	matching := make([]librarystore.Borrowing, 0)

	for _, id := range sortedKeys(v.st().borrowings) {
		borrowing := v.st().borrowings[id]

		if filter.IsActive != nil && borrowing.IsActive() != *filter.IsActive {
			continue
		}

		if len(filter.UserIDs) > 0 && !slices.Contains(filter.UserIDs, borrowing.UserID) {
			continue
		}

		matching = append(matching, borrowing)
	}

	return paginate(matching, filter.Page), len(matching), nil
}

func (v view) ListOverdueBorrowings(_ context.Context, dueBefore time.Time) ([]librarystore.Borrowing, error) {
	if err := v.injected("ListOverdueBorrowings"); err != nil {
		return nil, err
	}

	overdue := lo.Filter(lo.Values(v.st().borrowings), func(borrowing librarystore.Borrowing, _ int) bool {
		return borrowing.IsActive() && !borrowing.ExpectedReturnDate.After(dueBefore)
	})

	slices.SortFunc(overdue, func(a, b librarystore.Borrowing) int {
		return cmp.Or(a.ExpectedReturnDate.Compare(b.ExpectedReturnDate), cmp.Compare(a.ID, b.ID))
	})

	return overdue, nil
}

func (v view) GetPayment(_ context.Context, id int64) (librarystore.Payment, error) {
	if err := v.injected("GetPayment"); err != nil {
		return librarystore.Payment{}, err
	}

	payment, ok := v.st().payments[id]
	if !ok {
		return librarystore.Payment{}, librarystore.ErrNotFound
	}

	return payment, nil
}

func (v view) GetPaymentBySession(_ context.Context, sessionID string) (librarystore.Payment, error) {
	if err := v.injected("GetPaymentBySession"); err != nil {
		return librarystore.Payment{}, err
	}

	return v.paymentBySession(sessionID)
}

func (v view) ListPayments(_ context.Context, filter librarystore.PaymentFilter) ([]librarystore.Payment, int, error) {
	if err := v.injected("ListPayments"); err != nil {
		return nil, 0, err
	}

	matching := v.paymentsWhere(func(payment librarystore.Payment) bool {
		if len(filter.UserIDs) == 0 {
			return true
		}

		borrowing, ok := v.st().borrowings[payment.BorrowingID]

		return ok && slices.Contains(filter.UserIDs, borrowing.UserID)
	})

	return paginate(matching, filter.Page), len(matching), nil
}

func (v view) ListPaymentsByBorrowing(_ context.Context, borrowingID int64) ([]librarystore.Payment, error) {
	if err := v.injected("ListPaymentsByBorrowing"); err != nil {
		return nil, err
	}

	return v.paymentsWhere(func(payment librarystore.Payment) bool {
		return payment.BorrowingID == borrowingID
	}), nil
}

func (v view) ListPendingPayments(_ context.Context) ([]librarystore.Payment, error) {
	if err := v.injected("ListPendingPayments"); err != nil {
		return nil, err
	}

	return v.paymentsWhere(func(payment librarystore.Payment) bool {
		return payment.Status == librarystore.PaymentStatusPending
	}), nil
}

func (v view) InsertBook(_ context.Context, book librarystore.Book) (librarystore.Book, error) {
	if err := v.injected("InsertBook"); err != nil {
		return librarystore.Book{}, err
	}

	v.st().nextBookID++
	book.ID = v.st().nextBookID
	v.st().books[book.ID] = book

	return book, nil
}

func (v view) UpdateBook(_ context.Context, book librarystore.Book) (librarystore.Book, error) {
	if err := v.injected("UpdateBook"); err != nil {
		return librarystore.Book{}, err
	}

	if _, ok := v.st().books[book.ID]; !ok {
		return librarystore.Book{}, librarystore.ErrNotFound
	}

	v.st().books[book.ID] = book

	return book, nil
}

func (v view) DeleteBook(_ context.Context, id int64) error {
	if err := v.injected("DeleteBook"); err != nil {
		return err
	}

	if _, ok := v.st().books[id]; !ok {
		return librarystore.ErrNotFound
	}

	delete(v.st().books, id)

	for borrowingID, borrowing := range v.st().borrowings {
		if borrowing.BookID == id {
			v.deleteBorrowingCascade(borrowingID)
		}
	}

	return nil
}

func (v view) LockBook(ctx context.Context, id int64) (librarystore.Book, error) {
	if err := v.injected("LockBook"); err != nil {
		return librarystore.Book{}, err
	}

	return v.GetBook(ctx, id)
}

func (v view) ReserveCopy(_ context.Context, bookID int64) (librarystore.Book, error) {
	if err := v.injected("ReserveCopy"); err != nil {
		return librarystore.Book{}, err
	}

	book, ok := v.st().books[bookID]
	if !ok {
		return librarystore.Book{}, librarystore.ErrNotFound
	}

	if book.Inventory == 0 {
		return librarystore.Book{}, librarystore.ErrGuardFailed
	}

	book.Inventory--
	v.st().books[bookID] = book

	return book, nil
}

func (v view) ReleaseCopy(_ context.Context, bookID int64) (librarystore.Book, error) {
	if err := v.injected("ReleaseCopy"); err != nil {
		return librarystore.Book{}, err
	}

	book, ok := v.st().books[bookID]
	if !ok {
		return librarystore.Book{}, librarystore.ErrNotFound
	}

	book.Inventory++
	v.st().books[bookID] = book

	return book, nil
}

func (v view) InsertBorrowing(_ context.Context, borrowing librarystore.Borrowing) (librarystore.Borrowing, error) {
	if err := v.injected("InsertBorrowing"); err != nil {
		return librarystore.Borrowing{}, err
	}

	if _, ok := v.st().books[borrowing.BookID]; !ok {
		return librarystore.Borrowing{}, librarystore.ErrNotFound
	}

	if v.hasSameDates(0, borrowing) {
		return librarystore.Borrowing{}, librarystore.ErrUniqueViolation
	}

	v.st().nextBorrowingID++
	borrowing.ID = v.st().nextBorrowingID
	v.st().borrowings[borrowing.ID] = borrowing

	return borrowing, nil
}

func (v view) LockBorrowing(ctx context.Context, id int64) (librarystore.Borrowing, error) {
	if err := v.injected("LockBorrowing"); err != nil {
		return librarystore.Borrowing{}, err
	}

	return v.GetBorrowing(ctx, id)
}

func (v view) MarkBorrowingReturned(
	_ context.Context,
	id int64,
	returnedAt time.Time,
) (librarystore.Borrowing, error) {
	if err := v.injected("MarkBorrowingReturned"); err != nil {
		return librarystore.Borrowing{}, err
	}

	borrowing, ok := v.st().borrowings[id]
	if !ok {
		return librarystore.Borrowing{}, librarystore.ErrNotFound
	}

	if !borrowing.IsActive() {
		return librarystore.Borrowing{}, librarystore.ErrGuardFailed
	}

	borrowing.ActualReturnDate = &returnedAt

	if v.hasSameDates(id, borrowing) {
		return librarystore.Borrowing{}, librarystore.ErrUniqueViolation
	}

	v.st().borrowings[id] = borrowing

	return borrowing, nil
}

func (v view) DeleteBorrowing(_ context.Context, id int64) error {
	if err := v.injected("DeleteBorrowing"); err != nil {
		return err
	}

	if _, ok := v.st().borrowings[id]; !ok {
		return librarystore.ErrNotFound
	}

	v.deleteBorrowingCascade(id)

	return nil
}

func (v view) InsertPayment(_ context.Context, payment librarystore.Payment) (librarystore.Payment, error) {
	if err := v.injected("InsertPayment"); err != nil {
		return librarystore.Payment{}, err
	}

	if _, ok := v.st().borrowings[payment.BorrowingID]; !ok {
		return librarystore.Payment{}, librarystore.ErrNotFound
	}

	if _, err := v.paymentBySession(payment.SessionID); err == nil {
		return librarystore.Payment{}, librarystore.ErrUniqueViolation
	}

	v.st().nextPaymentID++
	payment.ID = v.st().nextPaymentID
	v.st().payments[payment.ID] = payment

	return payment, nil
}

func (v view) LockPaymentBySession(_ context.Context, sessionID string) (librarystore.Payment, error) {
	if err := v.injected("LockPaymentBySession"); err != nil {
		return librarystore.Payment{}, err
	}

	return v.paymentBySession(sessionID)
}

func (v view) UpdatePaymentStatus(
	_ context.Context,
	id int64,
	status librarystore.PaymentStatus,
) (librarystore.Payment, error) {
	if err := v.injected("UpdatePaymentStatus"); err != nil {
		return librarystore.Payment{}, err
	}

	payment, ok := v.st().payments[id]
	if !ok {
		return librarystore.Payment{}, librarystore.ErrNotFound
	}

	payment.Status = status
	v.st().payments[id] = payment

	return payment, nil
}

func (v view) DeletePayment(_ context.Context, id int64) error {
	if err := v.injected("DeletePayment"); err != nil {
		return err
	}

	if _, ok := v.st().payments[id]; !ok {
		return librarystore.ErrNotFound
	}

	delete(v.st().payments, id)

	return nil
}

func (v view) paymentBySession(sessionID string) (librarystore.Payment, error) {
	for _, payment := range v.st().payments {
		if payment.SessionID == sessionID {
			return payment, nil
		}
	}

	return librarystore.Payment{}, librarystore.ErrNotFound
}

func (v view) paymentsWhere(keep func(librarystore.Payment) bool) []librarystore.Payment {
	matching := make([]librarystore.Payment, 0)

	for _, id := range sortedKeys(v.st().payments) {
		if payment := v.st().payments[id]; keep(payment) {
			matching = append(matching, payment)
		}
	}

	return matching
}

// hasSameDates reports whether another borrowing than exceptID has the same three dates.
func (v view) hasSameDates(exceptID int64, borrowing librarystore.Borrowing) bool {
	for id, other := range v.st().borrowings {
		if id == exceptID {
			continue
		}

		if other.BorrowDate.Equal(borrowing.BorrowDate) &&
			other.ExpectedReturnDate.Equal(borrowing.ExpectedReturnDate) &&
			sameOptionalTime(other.ActualReturnDate, borrowing.ActualReturnDate) {
			return true
		}
	}

	return false
}

func (v view) deleteBorrowingCascade(id int64) {
	delete(v.st().borrowings, id)

	for paymentID, payment := range v.st().payments {
		if payment.BorrowingID == id {
			delete(v.st().payments, paymentID)
		}
	}
}

func sameOptionalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return a.Equal(*b)
}

func paginate[T any](rows []T, page librarystore.Page) []T {
	offset := min(int(page.Offset), len(rows))
	rows = rows[offset:]

	if page.Limit > 0 && int(page.Limit) < len(rows) {
		rows = rows[:page.Limit]
	}

	return rows
}

var _ librarystore.Tx = view{}
