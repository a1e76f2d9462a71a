// Package listpayments implements the List Payments query use case.
//
// Payments are visible through the borrowing they belong to, so the filter restricts by the borrowing's user.
package listpayments
