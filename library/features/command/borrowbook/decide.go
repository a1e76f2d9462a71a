package borrowbook

import (
	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Decide checks whether the book can be borrowed.
//
// Business Rules:
//
//	GIVEN: A book and a borrow command for it
//	WHEN: BorrowBook command is received
//	THEN: the borrowing may be created
//	ERROR: ErrInvalidReturnDate if the expected return date is not after the borrow date
//	ERROR: ErrOutOfStock if the book has no copy on the shelf
func Decide(book librarystore.Book, command Command) core.DecisionResult {
	if !command.ExpectedReturnDate.After(command.BorrowDate) {
		return core.ErrorDecision(core.ErrInvalidReturnDate)
	}

	if book.Inventory == 0 {
		return core.ErrorDecision(core.ErrOutOfStock)
	}

	return core.SuccessDecision()
}
