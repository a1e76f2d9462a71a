// Package renewpayment implements the Renew Payment use case.
//
// Renewing replaces a Pending or Expired payment: the old row is deleted and a fresh checkout
// session is opened for the same borrowing, so the old session id becomes permanently invalid.
// Both steps share one transaction with the lock on the old row, so a failing provider keeps the
// old payment and a concurrent confirm cannot be overtaken.
package renewpayment
