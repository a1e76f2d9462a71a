// Package core contains the pure rules of the library: money arithmetic for borrowing prices and
// fines, the error taxonomy reported to callers, the notifications emitted after state changes
// and the DecisionResult returned by the Decide functions of the feature slices.
//
// Nothing in this package performs I/O.
package core
