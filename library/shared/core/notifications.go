package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Notification types.
const (
	BorrowingCreatedType = "BorrowingCreated"
	PaymentConfirmedType = "PaymentConfirmed"
	OverdueAlertType     = "OverdueAlert"
	NoOverdueType        = "NoOverdue"
)

// Notification is a structured event handed to the notifier after the triggering transaction committed.
type Notification interface {
	NotificationType() string
}

// BorrowingCreated is emitted after a borrowing and its payment session were stored.
type BorrowingCreated struct {
	BorrowingID        int64
	UserID             int64
	BookID             int64
	BookTitle          string
	BookAuthor         string
	BorrowDate         time.Time
	ExpectedReturnDate time.Time
	MoneyToPay         decimal.Decimal
	SessionURL         string
}

// NotificationType implements Notification.
func (BorrowingCreated) NotificationType() string { return BorrowingCreatedType }

// PaymentConfirmed is emitted once per payment when the provider confirmed it as paid.
type PaymentConfirmed struct {
	PaymentID   int64
	BorrowingID int64
	PaymentType string
	MoneyToPay  decimal.Decimal
	SessionID   string
}

// NotificationType implements Notification.
func (PaymentConfirmed) NotificationType() string { return PaymentConfirmedType }

// OverdueAlert is emitted for an open borrowing that is due within one day or already overdue.
type OverdueAlert struct {
	BorrowingID        int64
	UserID             int64
	BookID             int64
	BookTitle          string
	ExpectedReturnDate time.Time
	DaysOverdue        int64
}

// NotificationType implements Notification.
func (OverdueAlert) NotificationType() string { return OverdueAlertType }

// NoOverdue is emitted by an overdue sweep that found nothing to report.
type NoOverdue struct {
	CheckedAt time.Time
}

// NotificationType implements Notification.
func (NoOverdue) NotificationType() string { return NoOverdueType }
