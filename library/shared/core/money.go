package core

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// FineMultiplier is applied to the daily fee for every whole day a book is overdue.
	FineMultiplier = 2

	// MoneyScale is the number of decimal places of every stored amount.
	MoneyScale = 2

	minorUnitExponent = 2
	day               = 24 * time.Hour
)

// WholeDays returns the number of complete days between from and to.
// Partial days are dropped towards negative infinity, so one hour before from yields -1.
func WholeDays(from, to time.Time) int64 {
	diff := to.Sub(from)
	days := int64(diff / day)

	if diff < 0 && diff%day != 0 {
		days--
	}

	return days
}

// TotalPrice is the price of a borrowing: whole days between borrow and expected return times the daily fee.
func TotalPrice(borrowDate, expectedReturnDate time.Time, dailyFee decimal.Decimal) decimal.Decimal {
	return dailyFee.Mul(decimal.NewFromInt(WholeDays(borrowDate, expectedReturnDate))).Round(MoneyScale)
}

// DaysOverdue returns the whole days now is past expectedReturnDate, or zero when it is not overdue.
func DaysOverdue(expectedReturnDate, now time.Time) int64 {
	return max(WholeDays(expectedReturnDate, now), 0)
}

// FineAmount is days overdue times the daily fee times FineMultiplier.
func FineAmount(daysOverdue int64, dailyFee decimal.Decimal) decimal.Decimal {
	if daysOverdue <= 0 {
		return decimal.Zero
	}

	return dailyFee.
		Mul(decimal.NewFromInt(daysOverdue)).
		Mul(decimal.NewFromInt(FineMultiplier)).
		Round(MoneyScale)
}

// ToMinorUnits converts an amount to the integer minor units expected by the payment provider.
// Digits beyond the second decimal place are truncated.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(minorUnitExponent).IntPart()
}
