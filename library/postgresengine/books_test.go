package postgresengine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haslett/library-circulation-go/library"
)

func Test_UpdateBook_ShouldReconcileTheCounter_InOneAtomicStatement(t *testing.T) {
	db := &fakeDB{}
	store := storeOverFake(db)
	bookID := uuid.New()

	book := library.Book{
		ID:          bookID,
		Title:       "The Mythical Man-Month",
		Genre:       "Software",
		ISBN:        "978-0201835953",
		TotalCopies: 6,
	}

	err := store.UpdateBook(context.Background(), book)
	require.NoError(t, err)

	// One UPDATE carrying the open-loan sum as a subquery. A separate read
	// would reopen the lost-update window against a concurrent issue.
	require.Len(t, db.execSQL, 1)
	assert.Empty(t, db.querySQL)
	assert.Equal(t, 0, db.begins)

	assert.Contains(t, db.execSQL[0], `UPDATE "books"`)
	assert.Contains(t, db.execSQL[0], "GREATEST(6 - (SELECT")
	assert.Contains(t, db.execSQL[0], `SUM("bd"."quantity")`)
	assert.Contains(t, db.execSQL[0], `'Borrowed'`)
	assert.Contains(t, db.execSQL[0], bookID.String())
}

func Test_UpdateBook_ShouldReportBookNotFound_WhenTheRowIsAbsent(t *testing.T) {
	db := &fakeDB{execReplies: []execReply{{rows: 0}}}
	store := storeOverFake(db)

	err := store.UpdateBook(context.Background(), library.Book{ID: uuid.New(), TotalCopies: 1})
	assert.ErrorIs(t, err, library.ErrBookNotFound)
}

func Test_CreateBook_ShouldStartTheAvailableCounterAtTheTotal(t *testing.T) {
	db := &fakeDB{}
	store := storeOverFake(db)

	_, err := store.CreateBook(context.Background(), library.Book{Title: "1984", TotalCopies: 3})
	require.NoError(t, err)

	// Columns render alphabetically, so the counter pair brackets the row:
	// available_copies first, total_copies last, both at the total.
	require.Len(t, db.execSQL, 1)
	assert.Contains(t, db.execSQL[0], `"available_copies", "book_id"`)
	assert.Contains(t, db.execSQL[0], "VALUES (3, ")
	assert.Contains(t, db.execSQL[0], ", 3)")
}
