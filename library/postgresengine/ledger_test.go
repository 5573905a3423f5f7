package postgresengine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haslett/library-circulation-go/library"
)

func Test_DecrementAvailable_ShouldIssueOneConditionalUpdate(t *testing.T) {
	db := &fakeDB{}
	store := storeOverFake(db)
	bookID := uuid.New()

	err := store.DecrementAvailable(context.Background(), bookID, 1)
	require.NoError(t, err)

	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], `UPDATE "books"`)
	assert.Contains(t, db.execSQL[0], "available_copies - 1")
	assert.Contains(t, db.execSQL[0], `"available_copies" >= 1`)
	assert.Contains(t, db.execSQL[0], bookID.String())
	assert.Empty(t, db.querySQL, "the sufficiency check must not be a separate read")
}

func Test_DecrementAvailable_ShouldReportOutOfStock_WhenTheConditionMisses(t *testing.T) {
	db := &fakeDB{
		execReplies:  []execReply{{rows: 0}},
		queryReplies: []queryReply{{rows: [][]any{{int64(1)}}}}, // the book exists
	}
	store := storeOverFake(db)

	err := store.DecrementAvailable(context.Background(), uuid.New(), 2)
	assert.ErrorIs(t, err, library.ErrOutOfStock)
}

func Test_DecrementAvailable_ShouldReportBookNotFound_WhenTheRowIsAbsent(t *testing.T) {
	db := &fakeDB{
		execReplies:  []execReply{{rows: 0}},
		queryReplies: []queryReply{{rows: nil}}, // no such book
	}
	store := storeOverFake(db)

	err := store.DecrementAvailable(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, library.ErrBookNotFound)
}

func Test_DecrementAvailable_ShouldRejectNonPositiveQuantities(t *testing.T) {
	db := &fakeDB{}
	store := storeOverFake(db)

	assert.ErrorIs(t, store.DecrementAvailable(context.Background(), uuid.New(), 0), library.ErrInvalidQuantity)
	assert.Empty(t, db.execSQL)
}

func Test_IncrementAvailable_ShouldClampAtTheTotal(t *testing.T) {
	db := &fakeDB{}
	store := storeOverFake(db)
	bookID := uuid.New()

	err := store.IncrementAvailable(context.Background(), bookID, 3)
	require.NoError(t, err)

	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], "LEAST(available_copies + 3, total_copies)")
}

func Test_IncrementAvailable_ShouldReportBookNotFound_WhenTheRowIsAbsent(t *testing.T) {
	db := &fakeDB{execReplies: []execReply{{rows: 0}}}
	store := storeOverFake(db)

	err := store.IncrementAvailable(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, library.ErrBookNotFound)
}

func Test_GetBookAvailability_ShouldScanTheCounters(t *testing.T) {
	db := &fakeDB{queryReplies: []queryReply{{rows: [][]any{{5, 3}}}}}
	store := storeOverFake(db)

	avail, err := store.GetBookAvailability(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, library.Availability{Total: 5, Available: 3}, avail)
}

func Test_GetBookAvailability_ShouldReportBookNotFound_WhenTheRowIsAbsent(t *testing.T) {
	db := &fakeDB{queryReplies: []queryReply{{rows: nil}}}
	store := storeOverFake(db)

	_, err := store.GetBookAvailability(context.Background(), uuid.New())
	assert.ErrorIs(t, err, library.ErrBookNotFound)
}
