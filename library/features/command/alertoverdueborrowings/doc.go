// Package alertoverdueborrowings implements the scheduled overdue alert.
//
// Every open borrowing due within AlertWindow, or already overdue, produces one OverdueAlert.
// A run that finds none sends a single NoOverdue notification. Nothing is written.
package alertoverdueborrowings
