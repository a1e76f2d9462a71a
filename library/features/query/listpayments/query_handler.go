package listpayments

import (
	"context"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

// Store defines the storage operations needed by the QueryHandler.
type Store interface {
	ListPayments(ctx context.Context, filter librarystore.PaymentFilter) ([]librarystore.Payment, int, error)
}

// QueryHandler answers Query.
type QueryHandler struct {
	store Store
}

func NewQueryHandler(store Store) QueryHandler {
	return QueryHandler{store: store}
}

// Handle lists one page of payments ordered by id.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Payments, error) {
	ctx = librarystore.WithEventualConsistency(ctx)

	payments, count, err := h.store.ListPayments(ctx, query.Filter)
	if err != nil {
		return Payments{}, err
	}

	return Payments{Payments: payments, Count: count}, nil
}
