// Package sweepexpiredpayments implements the scheduled sweep that expires stale checkout sessions.
//
// Every Pending payment is checked against the provider. It becomes Expired when the provider reports
// the session as expired or when its stored expiry has passed. A provider failure for one payment is
// logged and the sweep continues; the stored expiry alone still decides for that payment.
package sweepexpiredpayments
