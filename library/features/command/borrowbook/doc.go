// Package borrowbook implements the Borrow Book use case.
//
// A user borrows one copy of a book until an expected return date. In one transaction the handler
// locks the book, decides, reserves a copy, stores the borrowing and opens a checkout session over
// the total price of the borrowing. A failing provider rolls everything back.
//
// A borrowing shorter than one whole day, or of a book with a daily fee of zero, has a total price of
// zero. No checkout session is opened for it and Result.Payment is nil.
//
// The BorrowingCreated notification is sent after the transaction committed.
package borrowbook
