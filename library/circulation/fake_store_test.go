package circulation_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

// fakeStore is an in-memory library.CirculationStore. WithinTx serializes
// transactions with a mutex, snapshots the state and restores it when fn
// fails, which mirrors the commit/rollback behavior of the real engine
// closely enough for the workflow tests.
type fakeStore struct {
	mu sync.Mutex

	books      map[uuid.UUID]library.Availability
	members    map[uuid.UUID]bool
	borrowings map[uuid.UUID]library.Borrowing
	details    map[uuid.UUID][]library.BorrowingDetail

	// inTx guards against mutations outside a transaction scope.
	inTx bool

	failCreateDetail  bool
	conflictsToInject int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		books:      make(map[uuid.UUID]library.Availability),
		members:    make(map[uuid.UUID]bool),
		borrowings: make(map[uuid.UUID]library.Borrowing),
		details:    make(map[uuid.UUID][]library.BorrowingDetail),
	}
}

func (f *fakeStore) addBook(total, available int) uuid.UUID {
	id := uuid.New()
	f.books[id] = library.Availability{Total: total, Available: available}

	return id
}

func (f *fakeStore) addMember() uuid.UUID {
	id := uuid.New()
	f.members[id] = true

	return id
}

func (f *fakeStore) snapshot() *fakeStore {
	clone := newFakeStore()

	for id, avail := range f.books {
		clone.books[id] = avail
	}
	for id := range f.members {
		clone.members[id] = true
	}
	for id, borrowing := range f.borrowings {
		clone.borrowings[id] = borrowing
	}
	for id, details := range f.details {
		clone.details[id] = append([]library.BorrowingDetail(nil), details...)
	}

	return clone
}

func (f *fakeStore) restore(snap *fakeStore) {
	f.books = snap.books
	f.members = snap.members
	f.borrowings = snap.borrowings
	f.details = snap.details
}

func (f *fakeStore) WithinTx(_ context.Context, fn func(tx library.CirculationStore) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conflictsToInject > 0 {
		f.conflictsToInject--
		return library.ErrConcurrencyConflict
	}

	snap := f.snapshot()
	f.inTx = true

	err := fn(f)

	f.inTx = false

	if err != nil {
		f.restore(snap)
		return err
	}

	return nil
}

func (f *fakeStore) GetBookAvailability(_ context.Context, bookID uuid.UUID) (library.Availability, error) {
	if !f.inTx {
		f.mu.Lock()
		defer f.mu.Unlock()
	}

	avail, ok := f.books[bookID]
	if !ok {
		return library.Availability{}, library.ErrBookNotFound
	}

	return avail, nil
}

func (f *fakeStore) DecrementAvailable(_ context.Context, bookID uuid.UUID, quantity int) error {
	avail, ok := f.books[bookID]
	if !ok {
		return library.ErrBookNotFound
	}

	if avail.Available < quantity {
		return library.ErrOutOfStock
	}

	avail.Available -= quantity
	f.books[bookID] = avail

	return nil
}

func (f *fakeStore) IncrementAvailable(_ context.Context, bookID uuid.UUID, quantity int) error {
	avail, ok := f.books[bookID]
	if !ok {
		return library.ErrBookNotFound
	}

	avail.Available += quantity
	if avail.Available > avail.Total {
		avail.Available = avail.Total
	}
	f.books[bookID] = avail

	return nil
}

func (f *fakeStore) MemberExists(_ context.Context, memberID uuid.UUID) (bool, error) {
	return f.members[memberID], nil
}

func (f *fakeStore) CreateBorrowing(_ context.Context, memberID uuid.UUID, borrowDate, dueDate time.Time) (uuid.UUID, error) {
	id := uuid.New()

	f.borrowings[id] = library.Borrowing{
		ID:         id,
		MemberID:   memberID,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
		Status:     library.StatusBorrowed,
	}

	return id, nil
}

func (f *fakeStore) CreateBorrowingDetail(_ context.Context, borrowingID, bookID uuid.UUID, quantity int) error {
	if f.failCreateDetail {
		return library.ErrStoreUnavailable
	}

	f.details[borrowingID] = append(f.details[borrowingID], library.BorrowingDetail{
		BorrowingID: borrowingID,
		BookID:      bookID,
		Quantity:    quantity,
	})

	return nil
}

func (f *fakeStore) GetBorrowing(_ context.Context, borrowingID uuid.UUID) (library.Borrowing, error) {
	if !f.inTx {
		f.mu.Lock()
		defer f.mu.Unlock()
	}

	borrowing, ok := f.borrowings[borrowingID]
	if !ok {
		return library.Borrowing{}, library.ErrBorrowingNotFound
	}

	return borrowing, nil
}

func (f *fakeStore) UpdateBorrowingStatus(_ context.Context, borrowingID uuid.UUID, status library.BorrowingStatus, returnDate *time.Time) error {
	borrowing, ok := f.borrowings[borrowingID]
	if !ok {
		return library.ErrBorrowingNotFound
	}

	if borrowing.Status == library.StatusReturned {
		return library.ErrAlreadyReturned
	}

	borrowing.Status = status
	borrowing.ReturnDate = returnDate
	f.borrowings[borrowingID] = borrowing

	return nil
}

func (f *fakeStore) ListBorrowingDetails(_ context.Context, borrowingID uuid.UUID) ([]library.BorrowingDetail, error) {
	return append([]library.BorrowingDetail(nil), f.details[borrowingID]...), nil
}
