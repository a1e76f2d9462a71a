package alertoverdueborrowings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kapitoshk4/library-service-api/library/features/command/alertoverdueborrowings"
	"github.com/kapitoshk4/library-service-api/library/shared/core"
	. "github.com/kapitoshk4/library-service-api/testutil/helper" //nolint:revive
	"github.com/kapitoshk4/library-service-api/testutil/memstore"
)

func Test_CommandHandler_Handle_AlertsDueAndOverdueBorrowings(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := memstore.New()
	notifier := NewNotifierSpy()
	handler, err := alertoverdueborrowings.NewCommandHandler(store, notifier)
	require.NoError(t, err)

	book := GivenBook(t, store, 0, "1.00")
	GivenOpenBorrowing(t, store, book, 1, FixedNow.AddDate(0, 0, -10), FixedNow.AddDate(0, 0, -1))
	GivenOpenBorrowing(t, store, book, 2, FixedNow.AddDate(0, 0, -5), FixedNow.Add(12*time.Hour))
	GivenOpenBorrowing(t, store, book, 3, FixedNow.AddDate(0, 0, -5), FixedNow.AddDate(0, 0, 3))

	// act
	result, _, err := handler.Handle(ctx, alertoverdueborrowings.BuildCommand(FixedNow))

	// assert
	require.NoError(t, err)
	assert.Len(t, result.Notifications, 2)
	assert.Equal(t, 2, notifier.CountOfType(core.OverdueAlertType))
	assert.Zero(t, notifier.CountOfType(core.NoOverdueType))
}

func Test_CommandHandler_Handle_NothingDue_SendsNoOverdue(t *testing.T) {
	// arrange
	notifier := NewNotifierSpy()
	handler, err := alertoverdueborrowings.NewCommandHandler(memstore.New(), notifier)
	require.NoError(t, err)

	// act
	_, _, err = handler.Handle(context.Background(), alertoverdueborrowings.BuildCommand(FixedNow))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.CountOfType(core.NoOverdueType))
}

func Test_CommandHandler_Handle_StorageFailure_SendsNothing(t *testing.T) {
	// arrange
	store := memstore.New()
	notifier := NewNotifierSpy()
	handler, err := alertoverdueborrowings.NewCommandHandler(store, notifier)
	require.NoError(t, err)

	storageErr := errors.New("connection refused")
	store.FailNext("ListOverdueBorrowings", storageErr)

	// act
	_, _, err = handler.Handle(context.Background(), alertoverdueborrowings.BuildCommand(FixedNow))

	// assert
	assert.ErrorIs(t, err, storageErr)
	assert.Empty(t, notifier.Notifications())
}

func Test_NewCommandHandler_RequiresNotifier(t *testing.T) {
	_, err := alertoverdueborrowings.NewCommandHandler(memstore.New(), nil)

	assert.ErrorIs(t, err, alertoverdueborrowings.ErrNilNotifier)
}
