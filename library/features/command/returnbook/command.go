package returnbook

import (
	"time"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	commandType = "ReturnBook"
)

// Command represents the intent to return the copy held by a borrowing.
type Command struct {
	BorrowingID int64
	ReturnedAt  time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(borrowingID int64, now time.Time) Command {
	return Command{
		BorrowingID: borrowingID,
		ReturnedAt:  core.ToStoredTime(now),
	}
}

// Result holds the closed borrowing and the book with its restored inventory.
type Result struct {
	Borrowing librarystore.Borrowing
	Book      librarystore.Book
}
