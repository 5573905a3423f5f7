package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

// Engine orchestrates the borrowing lifecycle and keeps it consistent with
// the inventory ledger. Each operation runs as one scoped store transaction:
// if any step fails after the reservation succeeded, the whole transaction
// rolls back and the counter change never commits.
type Engine struct {
	store        library.CirculationStore
	clock        func() time.Time
	retryOptions []RetryOption
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source, used by tests for deterministic dates.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithRetryOptions sets a custom retry configuration for conflict retries.
func WithRetryOptions(opts ...RetryOption) Option {
	return func(e *Engine) {
		e.retryOptions = opts
	}
}

// NewEngine creates an Engine over the given store with optional
// configuration.
func NewEngine(store library.CirculationStore, opts ...Option) *Engine {
	engine := &Engine{
		store: store,
		clock: time.Now,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// Issue lends one copy of a book to a member.
//
// Workflow, atomic as a whole: reserve one copy in the ledger, create the
// borrowing (due date = borrow date + 14 days, status Borrowed), create the
// line item linking it to the book. Fails with library.ErrOutOfStock when no
// copy is available, library.ErrBookNotFound / library.ErrMemberNotFound
// when a reference is absent. Serialization conflicts are retried.
func (e *Engine) Issue(ctx context.Context, memberID, bookID uuid.UUID) (uuid.UUID, error) {
	var borrowingID uuid.UUID

	err := RetryOnConflict(ctx, func(retryCtx context.Context) error {
		return e.store.WithinTx(retryCtx, func(tx library.CirculationStore) error {
			issuedID, issueErr := e.issueWithin(retryCtx, tx, memberID, bookID)
			if issueErr != nil {
				return issueErr
			}

			borrowingID = issuedID

			return nil
		})
	}, e.retryOptions...)

	if err != nil {
		return uuid.Nil, err
	}

	return borrowingID, nil
}

func (e *Engine) issueWithin(ctx context.Context, tx library.CirculationStore, memberID, bookID uuid.UUID) (uuid.UUID, error) {
	exists, existsErr := tx.MemberExists(ctx, memberID)
	if existsErr != nil {
		return uuid.Nil, existsErr
	}
	if !exists {
		return uuid.Nil, library.ErrMemberNotFound
	}

	ledger := NewLedger(tx)
	if reserveErr := ledger.Reserve(ctx, bookID, 1); reserveErr != nil {
		return uuid.Nil, reserveErr
	}

	borrowDate := e.clock()

	borrowingID, createErr := tx.CreateBorrowing(ctx, memberID, borrowDate, library.DueDateFor(borrowDate))
	if createErr != nil {
		return uuid.Nil, createErr
	}

	if detailErr := tx.CreateBorrowingDetail(ctx, borrowingID, bookID, 1); detailErr != nil {
		return uuid.Nil, detailErr
	}

	return borrowingID, nil
}

// Return closes a borrowing: flips it to Returned with a return date and
// releases the reserved copies of every line item back to the ledger, all in
// one transaction. A second return of the same borrowing fails with
// library.ErrAlreadyReturned and changes nothing.
func (e *Engine) Return(ctx context.Context, borrowingID uuid.UUID) error {
	return RetryOnConflict(ctx, func(retryCtx context.Context) error {
		return e.store.WithinTx(retryCtx, func(tx library.CirculationStore) error {
			returnDate := e.clock()

			if updateErr := tx.UpdateBorrowingStatus(retryCtx, borrowingID, library.StatusReturned, &returnDate); updateErr != nil {
				return updateErr
			}

			details, listErr := tx.ListBorrowingDetails(retryCtx, borrowingID)
			if listErr != nil {
				return listErr
			}

			ledger := NewLedger(tx)
			for _, detail := range details {
				if releaseErr := ledger.Release(retryCtx, detail.BookID, detail.Quantity); releaseErr != nil {
					return releaseErr
				}
			}

			return nil
		})
	}, e.retryOptions...)
}

// Borrowing returns the current state of one borrowing, with the derived
// Overdue display state applied.
func (e *Engine) Borrowing(ctx context.Context, borrowingID uuid.UUID) (library.Borrowing, error) {
	borrowing, err := e.store.GetBorrowing(ctx, borrowingID)
	if err != nil {
		return library.Borrowing{}, err
	}

	borrowing.Status = borrowing.DisplayStatus(e.clock())

	return borrowing, nil
}
