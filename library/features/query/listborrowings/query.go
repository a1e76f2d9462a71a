package listborrowings

import (
	"errors"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/kapitoshk4/library-service-api/librarystore"
)

const (
	queryType = "ListBorrowings"
)

// ErrInvalidUserIDs is returned when a users filter contains something other than positive integers.
var ErrInvalidUserIDs = errors.New("users must be a comma separated list of ids")

// Query represents the intent to list borrowings.
type Query struct {
	Filter librarystore.BorrowingFilter
}

// BuildQuery creates a new Query. A nil isActive matches open and returned borrowings;
// empty userIDs match every user.
func BuildQuery(isActive *bool, userIDs []int64, page librarystore.Page) Query {
	return Query{
		Filter: librarystore.BorrowingFilter{
			IsActive: isActive,
			UserIDs:  userIDs,
			Page:     page,
		},
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}

// ParseUserIDs parses a users filter such as "1,2,3". Blank entries are ignored.
func ParseUserIDs(raw string) ([]int64, error) {
	parts := lo.Compact(lo.Map(strings.Split(raw, ","), func(part string, _ int) string {
		return strings.TrimSpace(part)
	}))

	userIDs := make([]int64, 0, len(parts))

	for _, part := range parts {
		userID, err := strconv.ParseInt(part, 10, 64)
		if err != nil || userID <= 0 {
			return nil, errors.Join(ErrInvalidUserIDs, err)
		}

		userIDs = append(userIDs, userID)
	}

	return lo.Uniq(userIDs), nil
}
