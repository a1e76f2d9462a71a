package postgresengine

import (
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

// moneyScale is the number of decimal places stored for money columns.
const moneyScale = 2

func (s Store) bookColumns() []any {
	return []any{
		colID,
		colTitle,
		colAuthor,
		colCover,
		colInventory,
		goqu.Cast(goqu.C(colDailyFee), castText).As(colDailyFee),
	}
}

func (s Store) borrowingColumns() []any {
	return []any{colID, colBorrowDate, colExpectedReturnDate, colActualReturnDate, colBookID, colUserID}
}

func (s Store) paymentColumns() []any {
	return []any{
		colID,
		colStatus,
		colType,
		colBorrowingID,
		colSessionID,
		colSessionURL,
		goqu.Cast(goqu.C(colMoneyToPay), castText).As(colMoneyToPay),
		colExpiresAt,
		colCreatedAt,
	}
}

// buildSelectBooksQuery selects books ordered by title.
func (s Store) buildSelectBooksQuery(where []exp.Expression, page librarystore.Page, forUpdate bool) (sqlQueryString, error) {
	selectStmt := dialect().
		From(s.booksTable).
		Select(s.bookColumns()...).
		Where(where...).
		Order(goqu.C(colTitle).Asc(), goqu.C(colID).Asc())

	selectStmt = withPage(selectStmt, page)

	if forUpdate {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

	sqlQuery, _, err := selectStmt.ToSQL()

	return sqlQuery, err
}

// buildCountQuery counts the rows of table matching where.
func (s Store) buildCountQuery(table string, where []exp.Expression) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		From(table).
		Select(goqu.COUNT(goqu.Star()).As(aliasCount)).
		Where(where...).
		ToSQL()

	return sqlQuery, err
}

func (s Store) buildInsertBookQuery(book librarystore.Book) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		Insert(s.booksTable).
		Rows(goqu.Record{
			colTitle:     book.Title,
			colAuthor:    book.Author,
			colCover:     string(book.Cover),
			colInventory: book.Inventory,
			colDailyFee:  book.DailyFee.StringFixed(moneyScale),
		}).
		Returning(s.bookColumns()...).
		ToSQL()

	return sqlQuery, err
}

func (s Store) buildUpdateBookQuery(book librarystore.Book) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		Update(s.booksTable).
		Set(goqu.Record{
			colTitle:     book.Title,
			colAuthor:    book.Author,
			colCover:     string(book.Cover),
			colInventory: book.Inventory,
			colDailyFee:  book.DailyFee.StringFixed(moneyScale),
		}).
		Where(goqu.C(colID).Eq(book.ID)).
		Returning(s.bookColumns()...).
		ToSQL()

	return sqlQuery, err
}

// buildReserveCopyQuery decrements the inventory, guarded against going below zero.
func (s Store) buildReserveCopyQuery(bookID int64) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		Update(s.booksTable).
		Set(goqu.Record{colInventory: goqu.L("? - 1", goqu.C(colInventory))}).
		Where(goqu.C(colID).Eq(bookID), goqu.C(colInventory).Gt(0)).
		Returning(s.bookColumns()...).
		ToSQL()

	return sqlQuery, err
}

// buildReleaseCopyQuery increments the inventory.
func (s Store) buildReleaseCopyQuery(bookID int64) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		Update(s.booksTable).
		Set(goqu.Record{colInventory: goqu.L("? + 1", goqu.C(colInventory))}).
		Where(goqu.C(colID).Eq(bookID)).
		Returning(s.bookColumns()...).
		ToSQL()

	return sqlQuery, err
}

func (s Store) buildDeleteQuery(table string, id int64) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		Delete(table).
		Where(goqu.C(colID).Eq(id)).
		ToSQL()

	return sqlQuery, err
}

// buildSelectBorrowingsQuery selects borrowings ordered by id.
func (s Store) buildSelectBorrowingsQuery(where []exp.Expression, page librarystore.Page, forUpdate bool) (sqlQueryString, error) {
	selectStmt := dialect().
		From(s.borrowingsTable).
		Select(s.borrowingColumns()...).
		Where(where...).
		Order(goqu.C(colID).Asc())

	selectStmt = withPage(selectStmt, page)

	if forUpdate {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

	sqlQuery, _, err := selectStmt.ToSQL()

	return sqlQuery, err
}

// buildSelectOverdueBorrowingsQuery selects open borrowings due at or before dueBefore.
func (s Store) buildSelectOverdueBorrowingsQuery(dueBefore time.Time) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		From(s.borrowingsTable).
		Select(s.borrowingColumns()...).
		Where(
			goqu.C(colActualReturnDate).IsNull(),
			goqu.C(colExpectedReturnDate).Lte(dueBefore.UTC()),
		).
		Order(goqu.C(colExpectedReturnDate).Asc(), goqu.C(colID).Asc()).
		ToSQL()

	return sqlQuery, err
}

// borrowingFilterExpressions translates a BorrowingFilter into WHERE expressions.
func borrowingFilterExpressions(filter librarystore.BorrowingFilter) []exp.Expression {
	where := make([]exp.Expression, 0, 2)

	if filter.IsActive != nil {
		if *filter.IsActive {
			where = append(where, goqu.C(colActualReturnDate).IsNull())
		} else {
			where = append(where, goqu.C(colActualReturnDate).IsNotNull())
		}
	}

	if len(filter.UserIDs) > 0 {
		where = append(where, goqu.C(colUserID).In(filter.UserIDs))
	}

	return where
}

func (s Store) buildInsertBorrowingQuery(borrowing librarystore.Borrowing) (sqlQueryString, error) {
	var actualReturnDate any
	if borrowing.ActualReturnDate != nil {
		actualReturnDate = borrowing.ActualReturnDate.UTC()
	}

	sqlQuery, _, err := dialect().
		Insert(s.borrowingsTable).
		Rows(goqu.Record{
			colBorrowDate:         borrowing.BorrowDate.UTC(),
			colExpectedReturnDate: borrowing.ExpectedReturnDate.UTC(),
			colActualReturnDate:   actualReturnDate,
			colBookID:             borrowing.BookID,
			colUserID:             borrowing.UserID,
		}).
		Returning(s.borrowingColumns()...).
		ToSQL()

	return sqlQuery, err
}

// buildMarkBorrowingReturnedQuery sets the actual return date, guarded against a second return.
func (s Store) buildMarkBorrowingReturnedQuery(id int64, returnedAt time.Time) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		Update(s.borrowingsTable).
		Set(goqu.Record{colActualReturnDate: returnedAt.UTC()}).
		Where(goqu.C(colID).Eq(id), goqu.C(colActualReturnDate).IsNull()).
		Returning(s.borrowingColumns()...).
		ToSQL()

	return sqlQuery, err
}

// buildSelectPaymentsQuery selects payments ordered by id.
func (s Store) buildSelectPaymentsQuery(where []exp.Expression, page librarystore.Page, forUpdate bool) (sqlQueryString, error) {
	selectStmt := dialect().
		From(s.paymentsTable).
		Select(s.paymentColumns()...).
		Where(where...).
		Order(goqu.C(colID).Asc())

	selectStmt = withPage(selectStmt, page)

	if forUpdate {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

	sqlQuery, _, err := selectStmt.ToSQL()

	return sqlQuery, err
}

// paymentFilterExpressions restricts payments to borrowings owned by the filter's users.
func (s Store) paymentFilterExpressions(filter librarystore.PaymentFilter) []exp.Expression {
	if len(filter.UserIDs) == 0 {
		return nil
	}

	ownedBorrowings := dialect().
		From(s.borrowingsTable).
		Select(colID).
		Where(goqu.C(colUserID).In(filter.UserIDs))

	return []exp.Expression{goqu.C(colBorrowingID).In(ownedBorrowings)}
}

func (s Store) buildInsertPaymentQuery(payment librarystore.Payment) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		Insert(s.paymentsTable).
		Rows(goqu.Record{
			colStatus:      string(payment.Status),
			colType:        string(payment.Type),
			colBorrowingID: payment.BorrowingID,
			colSessionID:   payment.SessionID,
			colSessionURL:  payment.SessionURL,
			colMoneyToPay:  payment.MoneyToPay.StringFixed(moneyScale),
			colExpiresAt:   payment.ExpiresAt.UTC(),
			colCreatedAt:   payment.CreatedAt.UTC(),
		}).
		Returning(s.paymentColumns()...).
		ToSQL()

	return sqlQuery, err
}

func (s Store) buildUpdatePaymentStatusQuery(id int64, status librarystore.PaymentStatus) (sqlQueryString, error) {
	sqlQuery, _, err := dialect().
		Update(s.paymentsTable).
		Set(goqu.Record{colStatus: string(status)}).
		Where(goqu.C(colID).Eq(id)).
		Returning(s.paymentColumns()...).
		ToSQL()

	return sqlQuery, err
}

func withPage(selectStmt *goqu.SelectDataset, page librarystore.Page) *goqu.SelectDataset {
	if page.Limit > 0 {
		selectStmt = selectStmt.Limit(page.Limit)
	}

	if page.Offset > 0 {
		selectStmt = selectStmt.Offset(page.Offset)
	}

	return selectStmt
}
