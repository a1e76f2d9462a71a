package auth

import (
	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Policy maps a principal to capabilities. Reads of the catalog are open to every
// authenticated principal; writes and cross-user views need staff.
type Policy struct{}

// NewPolicy creates a Policy.
func NewPolicy() Policy {
	return Policy{}
}

// CanManageBooks reports whether p may create, update and delete books.
func (Policy) CanManageBooks(p Principal) bool {
	return p.Staff
}

// CanManageBorrowings reports whether p may update and delete borrowing records directly.
func (Policy) CanManageBorrowings(p Principal) bool {
	return p.Staff
}

// CanFilterByUsers reports whether p may list borrowings of arbitrary users.
func (Policy) CanFilterByUsers(p Principal) bool {
	return p.Staff
}

// CanAccessBorrowing reports whether p may see and act on the borrowing.
func (Policy) CanAccessBorrowing(p Principal, borrowing librarystore.Borrowing) bool {
	return p.Staff || borrowing.UserID == p.UserID
}

// CanAccessPayment reports whether p may see and act on a payment of the given borrowing.
func (pol Policy) CanAccessPayment(p Principal, borrowing librarystore.Borrowing) bool {
	return pol.CanAccessBorrowing(p, borrowing)
}

// ScopeBorrowings restricts a requested filter to what p may see.
// Staff keep their user filter; everyone else only sees their own borrowings.
func (pol Policy) ScopeBorrowings(p Principal, requested librarystore.BorrowingFilter) librarystore.BorrowingFilter {
	if !pol.CanFilterByUsers(p) {
		requested.UserIDs = []int64{p.UserID}
	}

	return requested
}

// ScopePayments restricts payments to borrowings p owns unless p is staff.
func (Policy) ScopePayments(p Principal, page librarystore.Page) librarystore.PaymentFilter {
	if p.Staff {
		return librarystore.PaymentFilter{Page: page}
	}

	return librarystore.PaymentFilter{UserIDs: []int64{p.UserID}, Page: page}
}
