package listpayments

import "github.com/kapitoshk4/library-service-api/librarystore"

const (
	queryType = "ListPayments"
)

// Query represents the intent to list payments.
type Query struct {
	Filter librarystore.PaymentFilter
}

// BuildQuery creates a new Query. Empty userIDs match the payments of every user.
func BuildQuery(userIDs []int64, page librarystore.Page) Query {
	return Query{
		Filter: librarystore.PaymentFilter{
			UserIDs: userIDs,
			Page:    page,
		},
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
