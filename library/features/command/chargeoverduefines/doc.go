// Package chargeoverduefines implements the scheduled Fine Calculator.
//
// For every open borrowing past its expected return date the fine due is
// whole days overdue × daily fee × core.FineMultiplier. Paid fines count against it, so the daily run
// only charges what is still outstanding. An unpaid fine over a smaller amount is replaced by one over
// the current amount. Fines never touch the borrowing itself.
package chargeoverduefines
