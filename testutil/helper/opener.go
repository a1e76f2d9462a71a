package helper

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/shared/shell/paymentsession"
)

// TestBaseURL is the public base URL used to build checkout redirect URLs in tests.
const TestBaseURL = "https://library.test"

// NewTestOpener creates a paymentsession.Opener backed by provider.
func NewTestOpener(t testing.TB, provider *CheckoutProviderFake) paymentsession.Opener {
	t.Helper()

	opener, err := paymentsession.NewOpener(
		provider,
		paymentsession.SuccessURL(TestBaseURL),
		paymentsession.CancelURL(TestBaseURL),
	)
	require.NoError(t, err, "error in arranging test dependencies")

	return opener
}
