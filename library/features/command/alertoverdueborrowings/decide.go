package alertoverdueborrowings

import (
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// AlertWindow is how far ahead of its expected return date a borrowing is reported.
const AlertWindow = 24 * time.Hour

// DueBefore is the latest expected return date reported by a run at now.
func DueBefore(now time.Time) time.Time {
	return now.Add(AlertWindow)
}

// Decide builds the notifications of one run from the borrowings due before DueBefore(now).
// books maps book ids to books; a missing book leaves the title empty.
//
// Business Rules:
//
//	GIVEN: The open borrowings due within AlertWindow or overdue
//	WHEN: the alert run starts
//	THEN: one OverdueAlert per borrowing, in the given order
//	ELSE: a single NoOverdue
func Decide(borrowings []librarystore.Borrowing, books map[int64]librarystore.Book, now time.Time) []core.Notification {
	if len(borrowings) == 0 {
		return []core.Notification{core.NoOverdue{CheckedAt: now}}
	}

	notifications := make([]core.Notification, 0, len(borrowings))

	for _, borrowing := range borrowings {
		if !borrowing.IsActive() {
			continue
		}

		notifications = append(notifications, core.OverdueAlert{
			BorrowingID:        borrowing.ID,
			UserID:             borrowing.UserID,
			BookID:             borrowing.BookID,
			BookTitle:          books[borrowing.BookID].Title,
			ExpectedReturnDate: borrowing.ExpectedReturnDate,
			DaysOverdue:        core.DaysOverdue(borrowing.ExpectedReturnDate, now),
		})
	}

	if len(notifications) == 0 {
		return []core.Notification{core.NoOverdue{CheckedAt: now}}
	}

	return notifications
}
