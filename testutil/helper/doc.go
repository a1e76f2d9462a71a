// Package helper provides spies and fakes for the observability seams, the checkout provider
// and the notifier, plus given... helpers that arrange rows in a librarystore.Store.
package helper
