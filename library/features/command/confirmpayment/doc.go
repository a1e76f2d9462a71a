// Package confirmpayment implements the Confirm Payment use case, reached from the provider's success redirect.
//
// The provider is the authority: a payment becomes Paid only when the provider reports its session as paid.
// Confirming a Paid payment again is an idempotent success and notifies nobody.
package confirmpayment
