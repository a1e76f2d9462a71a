package borrowbook

import (
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	commandType = "BorrowBook"
)

// Command represents the intent of a user to borrow a copy of a book.
// BorrowDate is the time the command was issued.
type Command struct {
	BookID             int64
	UserID             int64
	BorrowDate         time.Time
	ExpectedReturnDate time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(bookID, userID int64, expectedReturnDate, now time.Time) Command {
	return Command{
		BookID:             bookID,
		UserID:             userID,
		BorrowDate:         core.ToStoredTime(now),
		ExpectedReturnDate: core.ToStoredTime(expectedReturnDate),
	}
}

// Result is what a successful borrow created.
// Payment is nil when the borrowing costs nothing, so no checkout session was opened.
type Result struct {
	Book      librarystore.Book
	Borrowing librarystore.Borrowing
	Payment   *librarystore.Payment
}
