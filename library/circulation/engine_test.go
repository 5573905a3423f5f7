package circulation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haslett/library-circulation-go/library"
	"github.com/haslett/library-circulation-go/library/circulation"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func Test_Engine_Issue_ShouldReserveOneCopy_AndCreateTheBorrowing(t *testing.T) {
	store := newFakeStore()
	bookID := store.addBook(3, 3)
	memberID := store.addMember()

	borrowDate := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	engine := circulation.NewEngine(store, circulation.WithClock(fixedClock(borrowDate)))

	borrowingID, err := engine.Issue(context.Background(), memberID, bookID)
	require.NoError(t, err)

	avail, availErr := store.GetBookAvailability(context.Background(), bookID)
	require.NoError(t, availErr)
	assert.Equal(t, 2, avail.Available)
	assert.Equal(t, 3, avail.Total)

	borrowing, getErr := engine.Borrowing(context.Background(), borrowingID)
	require.NoError(t, getErr)
	assert.Equal(t, memberID, borrowing.MemberID)
	assert.Equal(t, library.StatusBorrowed, borrowing.Status)
	assert.Equal(t, borrowDate, borrowing.BorrowDate)
	assert.Equal(t, borrowDate.AddDate(0, 0, 14), borrowing.DueDate)
	assert.Nil(t, borrowing.ReturnDate)

	details, listErr := store.ListBorrowingDetails(context.Background(), borrowingID)
	require.NoError(t, listErr)
	require.Len(t, details, 1)
	assert.Equal(t, bookID, details[0].BookID)
	assert.Equal(t, 1, details[0].Quantity)
}

func Test_Engine_Issue_ShouldFail_WhenNoCopyIsAvailable(t *testing.T) {
	store := newFakeStore()
	bookID := store.addBook(2, 0)
	memberID := store.addMember()

	engine := circulation.NewEngine(store)

	_, err := engine.Issue(context.Background(), memberID, bookID)
	assert.ErrorIs(t, err, library.ErrOutOfStock)

	avail, availErr := store.GetBookAvailability(context.Background(), bookID)
	require.NoError(t, availErr)
	assert.Equal(t, 0, avail.Available)
}

func Test_Engine_Issue_ShouldFail_WhenTheMemberIsUnknown(t *testing.T) {
	store := newFakeStore()
	bookID := store.addBook(1, 1)

	engine := circulation.NewEngine(store)

	_, err := engine.Issue(context.Background(), uuid.New(), bookID)
	assert.ErrorIs(t, err, library.ErrMemberNotFound)

	avail, availErr := store.GetBookAvailability(context.Background(), bookID)
	require.NoError(t, availErr)
	assert.Equal(t, 1, avail.Available)
}

func Test_Engine_Issue_ShouldFail_WhenTheBookIsUnknown(t *testing.T) {
	store := newFakeStore()
	memberID := store.addMember()

	engine := circulation.NewEngine(store)

	_, err := engine.Issue(context.Background(), memberID, uuid.New())
	assert.ErrorIs(t, err, library.ErrBookNotFound)
}

func Test_Engine_Issue_ShouldRollBackTheReservation_WhenALaterStepFails(t *testing.T) {
	store := newFakeStore()
	bookID := store.addBook(1, 1)
	memberID := store.addMember()
	store.failCreateDetail = true

	engine := circulation.NewEngine(store)

	_, err := engine.Issue(context.Background(), memberID, bookID)
	assert.ErrorIs(t, err, library.ErrStoreUnavailable)

	avail, availErr := store.GetBookAvailability(context.Background(), bookID)
	require.NoError(t, availErr)
	assert.Equal(t, 1, avail.Available, "the rolled-back reservation must not stick")
	assert.Empty(t, store.borrowings, "the rolled-back borrowing must not stick")
}

func Test_Engine_Issue_ShouldRetry_WhenTheStoreReportsAConflict(t *testing.T) {
	store := newFakeStore()
	bookID := store.addBook(1, 1)
	memberID := store.addMember()
	store.conflictsToInject = 2

	engine := circulation.NewEngine(
		store,
		circulation.WithRetryOptions(circulation.WithBaseDelay(0)),
	)

	_, err := engine.Issue(context.Background(), memberID, bookID)
	require.NoError(t, err)

	avail, availErr := store.GetBookAvailability(context.Background(), bookID)
	require.NoError(t, availErr)
	assert.Equal(t, 0, avail.Available)
}

func Test_Engine_IssueAndReturn_ShouldRestoreTheAvailableCounter(t *testing.T) {
	store := newFakeStore()
	bookID := store.addBook(5, 5)
	memberID := store.addMember()

	returnDate := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)
	engine := circulation.NewEngine(store, circulation.WithClock(fixedClock(returnDate)))

	borrowingID, issueErr := engine.Issue(context.Background(), memberID, bookID)
	require.NoError(t, issueErr)

	require.NoError(t, engine.Return(context.Background(), borrowingID))

	avail, availErr := store.GetBookAvailability(context.Background(), bookID)
	require.NoError(t, availErr)
	assert.Equal(t, 5, avail.Available, "a full round trip must restore the counter")

	borrowing, getErr := engine.Borrowing(context.Background(), borrowingID)
	require.NoError(t, getErr)
	assert.Equal(t, library.StatusReturned, borrowing.Status)
	require.NotNil(t, borrowing.ReturnDate)
	assert.Equal(t, returnDate, *borrowing.ReturnDate)
}

func Test_Engine_Return_ShouldBeRejectedOnTheSecondCall_WithoutTouchingTheCounter(t *testing.T) {
	store := newFakeStore()
	bookID := store.addBook(1, 1)
	memberID := store.addMember()

	engine := circulation.NewEngine(store)

	borrowingID, issueErr := engine.Issue(context.Background(), memberID, bookID)
	require.NoError(t, issueErr)

	require.NoError(t, engine.Return(context.Background(), borrowingID))

	err := engine.Return(context.Background(), borrowingID)
	assert.ErrorIs(t, err, library.ErrAlreadyReturned)

	avail, availErr := store.GetBookAvailability(context.Background(), bookID)
	require.NoError(t, availErr)
	assert.Equal(t, 1, avail.Available, "a second return must not release copies twice")
}

func Test_Engine_Return_ShouldFail_WhenTheBorrowingIsUnknown(t *testing.T) {
	store := newFakeStore()
	engine := circulation.NewEngine(store)

	err := engine.Return(context.Background(), uuid.New())
	assert.ErrorIs(t, err, library.ErrBorrowingNotFound)
}

func Test_Engine_Issue_ShouldGrantTheLastCopyToExactlyOneCaller_UnderConcurrency(t *testing.T) {
	store := newFakeStore()
	bookID := store.addBook(1, 1)
	memberID := store.addMember()

	engine := circulation.NewEngine(store)

	const callers = 16

	var wg sync.WaitGroup
	results := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Issue(context.Background(), memberID, bookID)
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successes := 0
	outOfStock := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			assert.ErrorIs(t, err, library.ErrOutOfStock)
			outOfStock++
		}
	}

	assert.Equal(t, 1, successes, "exactly one caller may win the last copy")
	assert.Equal(t, callers-1, outOfStock)

	avail, availErr := store.GetBookAvailability(context.Background(), bookID)
	require.NoError(t, availErr)
	assert.Equal(t, 0, avail.Available)
}

func Test_Engine_Borrowing_ShouldReportOverdue_WithoutPersistingIt(t *testing.T) {
	store := newFakeStore()
	bookID := store.addBook(1, 1)
	memberID := store.addMember()

	borrowDate := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	clock := fixedClock(borrowDate)
	engine := circulation.NewEngine(store, circulation.WithClock(func() time.Time { return clock() }))

	borrowingID, issueErr := engine.Issue(context.Background(), memberID, bookID)
	require.NoError(t, issueErr)

	// 20 days later the loan is past its 14-day due date.
	clock = fixedClock(borrowDate.AddDate(0, 0, 20))

	borrowing, getErr := engine.Borrowing(context.Background(), borrowingID)
	require.NoError(t, getErr)
	assert.Equal(t, library.StatusOverdue, borrowing.Status)

	stored := store.borrowings[borrowingID]
	assert.Equal(t, library.StatusBorrowed, stored.Status, "overdue is derived, never stored")
}
