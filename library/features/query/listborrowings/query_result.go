package listborrowings

import "github.com/kapitoshk4/library-service-api/librarystore"

// Borrowings is one page of borrowings. Count is the number of matches over all pages.
type Borrowings struct {
	Borrowings []librarystore.Borrowing
	Count      int
}
