package listpayments

import "github.com/kapitoshk4/library-service-api/librarystore"

// Payments is one page of payments. Count is the number of matches over all pages.
type Payments struct {
	Payments []librarystore.Payment
	Count    int
}
