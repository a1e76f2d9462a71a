package postgresengine

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/kapitoshk4/library-service-api/librarystore"
	"github.com/kapitoshk4/library-service-api/librarystore/postgresengine/internal/adapters"
)

// GetBorrowing returns the borrowing with the given id or librarystore.ErrNotFound.
func (s Store) GetBorrowing(ctx context.Context, id int64) (librarystore.Borrowing, error) {
	var borrowing librarystore.Borrowing

	err := s.observe(ctx, operationGetBorrowing, func(ctx context.Context) error {
		var err error
		borrowing, err = s.selectOneBorrowing(ctx, operationGetBorrowing, id, false)

		return err
	})

	return borrowing, err
}

// LockBorrowing returns the borrowing and holds a row lock until the transaction ends.
func (s Store) LockBorrowing(ctx context.Context, id int64) (librarystore.Borrowing, error) {
	var borrowing librarystore.Borrowing

	err := s.observe(ctx, operationLockBorrowing, func(ctx context.Context) error {
		var err error
		borrowing, err = s.selectOneBorrowing(ctx, operationLockBorrowing, id, true)

		return err
	})

	return borrowing, err
}

// ListBorrowings returns one page of borrowings matching filter, ordered by id,
// together with the total number of matching borrowings.
func (s Store) ListBorrowings(ctx context.Context, filter librarystore.BorrowingFilter) ([]librarystore.Borrowing, int, error) {
	var (
		borrowings []librarystore.Borrowing
		total      int
	)

	err := s.observeList(ctx, operationListBorrowings, func(ctx context.Context) error {
		where := borrowingFilterExpressions(filter)

		sqlQuery, err := s.buildSelectBorrowingsQuery(where, filter.Page, false)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		borrowings, err = s.collectBorrowings(ctx, operationListBorrowings, sqlQuery)
		if err != nil {
			return err
		}

		countQuery, err := s.buildCountQuery(s.borrowingsTable, where)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		total, err = s.count(ctx, operationListBorrowings, countQuery)

		return err
	}, func() int { return len(borrowings) })

	return borrowings, total, err
}

// ListOverdueBorrowings returns the open borrowings whose expected return date is at or before dueBefore.
func (s Store) ListOverdueBorrowings(ctx context.Context, dueBefore time.Time) ([]librarystore.Borrowing, error) {
	var borrowings []librarystore.Borrowing

	err := s.observeList(ctx, operationListOverdueBorrowings, func(ctx context.Context) error {
		sqlQuery, err := s.buildSelectOverdueBorrowingsQuery(dueBefore)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		borrowings, err = s.collectBorrowings(ctx, operationListOverdueBorrowings, sqlQuery)

		return err
	}, func() int { return len(borrowings) })

	return borrowings, err
}

// InsertBorrowing stores a new borrowing.
// A borrowing with the same borrow, expected and actual return dates fails with librarystore.ErrUniqueViolation.
func (s Store) InsertBorrowing(ctx context.Context, borrowing librarystore.Borrowing) (librarystore.Borrowing, error) {
	var inserted librarystore.Borrowing

	err := s.observe(ctx, operationInsertBorrowing, func(ctx context.Context) error {
		sqlQuery, err := s.buildInsertBorrowingQuery(borrowing)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		inserted, err = s.returningOneBorrowing(ctx, operationInsertBorrowing, sqlQuery, librarystore.ErrNotFound)

		return err
	})

	return inserted, err
}

// MarkBorrowingReturned sets the actual return date of an open borrowing.
// It returns librarystore.ErrGuardFailed when the borrowing was already returned.
func (s Store) MarkBorrowingReturned(ctx context.Context, id int64, returnedAt time.Time) (librarystore.Borrowing, error) {
	var borrowing librarystore.Borrowing

	err := s.observe(ctx, operationMarkBorrowingReturned, func(ctx context.Context) error {
		sqlQuery, err := s.buildMarkBorrowingReturnedQuery(id, returnedAt)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		borrowing, err = s.returningOneBorrowing(ctx, operationMarkBorrowingReturned, sqlQuery, librarystore.ErrGuardFailed)

		return err
	})

	return borrowing, err
}

// DeleteBorrowing deletes the borrowing and, by cascade, its payments.
func (s Store) DeleteBorrowing(ctx context.Context, id int64) error {
	return s.observe(ctx, operationDeleteBorrowing, func(ctx context.Context) error {
		return s.deleteByID(ctx, operationDeleteBorrowing, s.borrowingsTable, id)
	})
}

func (s Store) selectOneBorrowing(ctx context.Context, action string, id int64, forUpdate bool) (librarystore.Borrowing, error) {
	sqlQuery, err := s.buildSelectBorrowingsQuery([]exp.Expression{goqu.C(colID).Eq(id)}, librarystore.Page{}, forUpdate)
	if err != nil {
		return librarystore.Borrowing{}, s.buildFailed(ctx, err)
	}

	return s.returningOneBorrowing(ctx, action, sqlQuery, librarystore.ErrNotFound)
}

func (s Store) returningOneBorrowing(
	ctx context.Context,
	action string,
	sqlQuery sqlQueryString,
	errNoRow error,
) (librarystore.Borrowing, error) {
	borrowings, err := s.collectBorrowings(ctx, action, sqlQuery)
	if err != nil {
		return librarystore.Borrowing{}, err
	}

	if len(borrowings) == 0 {
		return librarystore.Borrowing{}, errNoRow
	}

	return borrowings[0], nil
}

func (s Store) collectBorrowings(ctx context.Context, action string, sqlQuery sqlQueryString) ([]librarystore.Borrowing, error) {
	borrowings := make([]librarystore.Borrowing, 0)

	err := s.query(ctx, action, sqlQuery, func(rows adapters.DBRows) error {
		borrowing, err := scanBorrowing(rows)
		if err != nil {
			return err
		}

		borrowings = append(borrowings, borrowing)

		return nil
	})

	return borrowings, err
}
