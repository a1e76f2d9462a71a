package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/kapitoshk4/library-service-api/librarystore"
	"github.com/kapitoshk4/library-service-api/librarystore/postgresengine/internal/adapters"
)

// GetBook returns the book with the given id or librarystore.ErrNotFound.
func (s Store) GetBook(ctx context.Context, id int64) (librarystore.Book, error) {
	var book librarystore.Book

	err := s.observe(ctx, operationGetBook, func(ctx context.Context) error {
		var err error
		book, err = s.selectOneBook(ctx, operationGetBook, id, false)

		return err
	})

	return book, err
}

// LockBook returns the book with the given id and holds a row lock until the transaction ends.
func (s Store) LockBook(ctx context.Context, id int64) (librarystore.Book, error) {
	var book librarystore.Book

	err := s.observe(ctx, operationLockBook, func(ctx context.Context) error {
		var err error
		book, err = s.selectOneBook(ctx, operationLockBook, id, true)

		return err
	})

	return book, err
}

// ListBooks returns one page of books ordered by title together with the total number of books.
func (s Store) ListBooks(ctx context.Context, page librarystore.Page) ([]librarystore.Book, int, error) {
	var (
		books []librarystore.Book
		total int
	)

	err := s.observeList(ctx, operationListBooks, func(ctx context.Context) error {
		sqlQuery, err := s.buildSelectBooksQuery(nil, page, false)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		books, err = s.collectBooks(ctx, operationListBooks, sqlQuery)
		if err != nil {
			return err
		}

		countQuery, err := s.buildCountQuery(s.booksTable, nil)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		total, err = s.count(ctx, operationListBooks, countQuery)

		return err
	}, func() int { return len(books) })

	return books, total, err
}

// InsertBook stores a new book and returns it with its generated id.
func (s Store) InsertBook(ctx context.Context, book librarystore.Book) (librarystore.Book, error) {
	var inserted librarystore.Book

	err := s.observe(ctx, operationInsertBook, func(ctx context.Context) error {
		sqlQuery, err := s.buildInsertBookQuery(book)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		inserted, err = s.returningOneBook(ctx, operationInsertBook, sqlQuery, librarystore.ErrNotFound)

		return err
	})

	return inserted, err
}

// UpdateBook replaces every column of the book identified by book.ID.
func (s Store) UpdateBook(ctx context.Context, book librarystore.Book) (librarystore.Book, error) {
	var updated librarystore.Book

	err := s.observe(ctx, operationUpdateBook, func(ctx context.Context) error {
		sqlQuery, err := s.buildUpdateBookQuery(book)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		updated, err = s.returningOneBook(ctx, operationUpdateBook, sqlQuery, librarystore.ErrNotFound)

		return err
	})

	return updated, err
}

// DeleteBook deletes the book and, by cascade, its borrowings and payments.
func (s Store) DeleteBook(ctx context.Context, id int64) error {
	return s.observe(ctx, operationDeleteBook, func(ctx context.Context) error {
		return s.deleteByID(ctx, operationDeleteBook, s.booksTable, id)
	})
}

// ReserveCopy decrements the inventory of a book by one.
// It returns librarystore.ErrGuardFailed when no copy is left and librarystore.ErrNotFound for unknown books.
func (s Store) ReserveCopy(ctx context.Context, bookID int64) (librarystore.Book, error) {
	var book librarystore.Book

	err := s.observe(ctx, operationReserveCopy, func(ctx context.Context) error {
		sqlQuery, err := s.buildReserveCopyQuery(bookID)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		book, err = s.returningOneBook(ctx, operationReserveCopy, sqlQuery, librarystore.ErrGuardFailed)
		if errors.Is(err, librarystore.ErrGuardFailed) {
			if _, getErr := s.selectOneBook(ctx, operationReserveCopy, bookID, false); getErr != nil {
				return getErr
			}
		}

		return err
	})

	return book, err
}

// ReleaseCopy increments the inventory of a book by one.
func (s Store) ReleaseCopy(ctx context.Context, bookID int64) (librarystore.Book, error) {
	var book librarystore.Book

	err := s.observe(ctx, operationReleaseCopy, func(ctx context.Context) error {
		sqlQuery, err := s.buildReleaseCopyQuery(bookID)
		if err != nil {
			return s.buildFailed(ctx, err)
		}

		book, err = s.returningOneBook(ctx, operationReleaseCopy, sqlQuery, librarystore.ErrNotFound)

		return err
	})

	return book, err
}

func (s Store) selectOneBook(ctx context.Context, action string, id int64, forUpdate bool) (librarystore.Book, error) {
	sqlQuery, err := s.buildSelectBooksQuery([]exp.Expression{goqu.C(colID).Eq(id)}, librarystore.Page{}, forUpdate)
	if err != nil {
		return librarystore.Book{}, s.buildFailed(ctx, err)
	}

	return s.returningOneBook(ctx, action, sqlQuery, librarystore.ErrNotFound)
}

// returningOneBook runs a statement that yields at most one book row and returns errNoRow when it yields none.
func (s Store) returningOneBook(ctx context.Context, action string, sqlQuery sqlQueryString, errNoRow error) (librarystore.Book, error) {
	books, err := s.collectBooks(ctx, action, sqlQuery)
	if err != nil {
		return librarystore.Book{}, err
	}

	if len(books) == 0 {
		return librarystore.Book{}, errNoRow
	}

	return books[0], nil
}

func (s Store) collectBooks(ctx context.Context, action string, sqlQuery sqlQueryString) ([]librarystore.Book, error) {
	books := make([]librarystore.Book, 0)

	err := s.query(ctx, action, sqlQuery, func(rows adapters.DBRows) error {
		book, err := scanBook(rows)
		if err != nil {
			return err
		}

		books = append(books, book)

		return nil
	})

	return books, err
}

func (s Store) deleteByID(ctx context.Context, action string, table string, id int64) error {
	sqlQuery, err := s.buildDeleteQuery(table, id)
	if err != nil {
		return s.buildFailed(ctx, err)
	}

	rowsAffected, err := s.exec(ctx, action, sqlQuery)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return librarystore.ErrNotFound
	}

	return nil
}
