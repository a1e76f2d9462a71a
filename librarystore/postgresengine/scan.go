package postgresengine

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kapitoshk4/library-service-api/librarystore"
	"github.com/kapitoshk4/library-service-api/librarystore/postgresengine/internal/adapters"
)

func scanBook(rows adapters.DBRows) (librarystore.Book, error) {
	var (
		book      librarystore.Book
		cover     string
		inventory int64
		dailyFee  string
	)

	if err := rows.Scan(&book.ID, &book.Title, &book.Author, &cover, &inventory, &dailyFee); err != nil {
		return librarystore.Book{}, errors.Join(ErrScanRowFailed, err)
	}

	fee, err := decimal.NewFromString(dailyFee)
	if err != nil {
		return librarystore.Book{}, errors.Join(ErrScanRowFailed, err)
	}

	book.Cover = librarystore.Cover(cover)
	book.Inventory = uint(inventory)
	book.DailyFee = fee

	return book, nil
}

func scanBorrowing(rows adapters.DBRows) (librarystore.Borrowing, error) {
	var (
		borrowing        librarystore.Borrowing
		actualReturnDate *time.Time
	)

	err := rows.Scan(
		&borrowing.ID,
		&borrowing.BorrowDate,
		&borrowing.ExpectedReturnDate,
		&actualReturnDate,
		&borrowing.BookID,
		&borrowing.UserID,
	)
	if err != nil {
		return librarystore.Borrowing{}, errors.Join(ErrScanRowFailed, err)
	}

	borrowing.ActualReturnDate = actualReturnDate

	return borrowing, nil
}

func scanPayment(rows adapters.DBRows) (librarystore.Payment, error) {
	var (
		payment     librarystore.Payment
		status      string
		paymentType string
		moneyToPay  string
	)

	err := rows.Scan(
		&payment.ID,
		&status,
		&paymentType,
		&payment.BorrowingID,
		&payment.SessionID,
		&payment.SessionURL,
		&moneyToPay,
		&payment.ExpiresAt,
		&payment.CreatedAt,
	)
	if err != nil {
		return librarystore.Payment{}, errors.Join(ErrScanRowFailed, err)
	}

	amount, err := decimal.NewFromString(moneyToPay)
	if err != nil {
		return librarystore.Payment{}, errors.Join(ErrScanRowFailed, err)
	}

	payment.Status = librarystore.PaymentStatus(status)
	payment.Type = librarystore.PaymentType(paymentType)
	payment.MoneyToPay = amount

	return payment, nil
}
