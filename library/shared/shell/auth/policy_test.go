package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kapitoshk4/library-service-api/library/shared/shell/auth"
	"github.com/kapitoshk4/library-service-api/librarystore"
)

var (
	staff  = auth.Principal{UserID: 1, Staff: true}
	reader = auth.Principal{UserID: 2}
)

func Test_Unit_Policy_Capabilities(t *testing.T) {
	policy := auth.NewPolicy()

	assert.True(t, policy.CanManageBooks(staff))
	assert.False(t, policy.CanManageBooks(reader))
	assert.True(t, policy.CanManageBorrowings(staff))
	assert.False(t, policy.CanManageBorrowings(reader))
	assert.True(t, policy.CanFilterByUsers(staff))
	assert.False(t, policy.CanFilterByUsers(reader))
}

func Test_Unit_Policy_CanAccessBorrowing(t *testing.T) {
	policy := auth.NewPolicy()
	own := librarystore.Borrowing{ID: 1, UserID: reader.UserID}
	foreign := librarystore.Borrowing{ID: 2, UserID: 99}

	assert.True(t, policy.CanAccessBorrowing(reader, own))
	assert.False(t, policy.CanAccessBorrowing(reader, foreign))
	assert.True(t, policy.CanAccessBorrowing(staff, foreign))
	assert.False(t, policy.CanAccessPayment(reader, foreign))
}

func Test_Unit_Policy_ScopeBorrowings(t *testing.T) {
	policy := auth.NewPolicy()
	active := true
	requested := librarystore.BorrowingFilter{IsActive: &active, UserIDs: []int64{5, 6}}

	testCases := []struct {
		name      string
		principal auth.Principal
		expected  []int64
	}{
		{name: "staff keeps the requested users", principal: staff, expected: []int64{5, 6}},
		{name: "reader only sees own borrowings", principal: reader, expected: []int64{reader.UserID}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			scoped := policy.ScopeBorrowings(tc.principal, requested)

			assert.Equal(t, tc.expected, scoped.UserIDs)
			assert.Equal(t, &active, scoped.IsActive)
		})
	}
}

func Test_Unit_Policy_ScopePayments(t *testing.T) {
	policy := auth.NewPolicy()
	page := librarystore.Page{Limit: 10}

	assert.Empty(t, policy.ScopePayments(staff, page).UserIDs)
	assert.Equal(t, []int64{reader.UserID}, policy.ScopePayments(reader, page).UserIDs)
	assert.Equal(t, page, policy.ScopePayments(reader, page).Page)
}
