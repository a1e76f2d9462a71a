package librarystore

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cover is the binding of a book.
type Cover string

const (
	CoverHard Cover = "HARD"
	CoverSoft Cover = "SOFT"
)

// Valid reports whether c is one of the known covers.
func (c Cover) Valid() bool {
	return c == CoverHard || c == CoverSoft
}

// PaymentStatus is the lifecycle state of a payment session.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
	PaymentStatusExpired PaymentStatus = "EXPIRED"
)

// PaymentType distinguishes the original borrowing payment from an overdue fine.
type PaymentType string

const (
	PaymentTypePayment PaymentType = "PAYMENT"
	PaymentTypeFine    PaymentType = "FINE"
)

// Book is a title held by the library. Inventory counts the copies currently on the shelf.
type Book struct {
	ID        int64
	Title     string
	Author    string
	Cover     Cover
	Inventory uint
	DailyFee  decimal.Decimal
}

// Borrowing is one user holding one copy of a book.
// ActualReturnDate is nil while the borrowing is open.
type Borrowing struct {
	ID                 int64
	BorrowDate         time.Time
	ExpectedReturnDate time.Time
	ActualReturnDate   *time.Time
	BookID             int64
	UserID             int64
}

// IsActive reports whether the book has not been returned yet.
func (b Borrowing) IsActive() bool {
	return b.ActualReturnDate == nil
}

// Payment is a checkout session issued by the payment provider for a borrowing.
type Payment struct {
	ID          int64
	Status      PaymentStatus
	Type        PaymentType
	BorrowingID int64
	SessionID   string
	SessionURL  string
	MoneyToPay  decimal.Decimal
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// Page restricts a list query. A zero Limit means no limit.
type Page struct {
	Limit  uint
	Offset uint
}

// BorrowingFilter restricts ListBorrowings.
// A nil IsActive matches open and returned borrowings; an empty UserIDs matches every user.
type BorrowingFilter struct {
	IsActive *bool
	UserIDs  []int64
	Page     Page
}

// PaymentFilter restricts ListPayments to payments of borrowings owned by UserIDs.
type PaymentFilter struct {
	UserIDs []int64
	Page    Page
}
