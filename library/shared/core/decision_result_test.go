package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
)

func Test_DecisionResult_Outcomes(t *testing.T) {
	assert.True(t, core.IdempotentDecision().IsIdempotent())
	assert.NoError(t, core.IdempotentDecision().HasError())

	assert.False(t, core.SuccessDecision().IsIdempotent())
	assert.NoError(t, core.SuccessDecision().HasError())

	result := core.ErrorDecision(core.ErrOutOfStock)
	assert.False(t, result.IsIdempotent())
	assert.ErrorIs(t, result.HasError(), core.ErrOutOfStock)
}
