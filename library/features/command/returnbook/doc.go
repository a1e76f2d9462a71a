// Package returnbook implements the Return Book use case.
//
// Returning closes an open borrowing and puts the copy back on the shelf, in one transaction.
// A returned borrowing is terminal: of two concurrent returns only one wins, the other fails with
// core.ErrAlreadyReturned and the inventory is incremented once.
package returnbook
