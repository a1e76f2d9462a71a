// Package listborrowings implements the List Borrowings query use case.
//
// Borrowings can be filtered by state (open or returned) and by the owning users.
// The caller scopes the filter to what the requesting user may see before building the query.
// Reads may be served by a replica.
package listborrowings
