package listborrowings

import (
	"context"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Store defines the storage operations needed by the QueryHandler.
type Store interface {
	ListBorrowings(ctx context.Context, filter librarystore.BorrowingFilter) ([]librarystore.Borrowing, int, error)
}

// QueryHandler answers Query. External wrappers handle all observability concerns.
type QueryHandler struct {
	store Store
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(store Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle lists one page of borrowings matching the filter, ordered by id.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Borrowings, error) {
	ctx = librarystore.WithEventualConsistency(ctx)

	borrowings, count, err := h.store.ListBorrowings(ctx, query.Filter)
	if err != nil {
		return Borrowings{}, err
	}

	return Borrowings{Borrowings: borrowings, Count: count}, nil
}
