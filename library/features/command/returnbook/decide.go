package returnbook

import (
	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Decide checks whether the borrowing can be returned.
//
// Business Rules:
//
//	GIVEN: A borrowing
//	WHEN: ReturnBook command is received
//	THEN: the actual return date is set and the copy is released
//	ERROR: ErrAlreadyReturned if the borrowing already has an actual return date
func Decide(borrowing librarystore.Borrowing) core.DecisionResult {
	if !borrowing.IsActive() {
		return core.ErrorDecision(core.ErrAlreadyReturned)
	}

	return core.SuccessDecision()
}
