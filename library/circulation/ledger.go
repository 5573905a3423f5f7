package circulation

import (
	"context"

	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

// Ledger guards the per-book availability invariant:
//
//	available = total - sum(quantities of open borrowing details)
//	0 <= available <= total
//
// It delegates the actual counter arithmetic to the store's conditional
// single-statement updates, which serialize concurrent mutations on the same
// book row. A Ledger built over a transaction-scoped store participates in
// that transaction.
type Ledger struct {
	store library.CirculationStore
}

// NewLedger creates a Ledger over the given store view.
func NewLedger(store library.CirculationStore) Ledger {
	return Ledger{store: store}
}

// Reserve checks that at least quantity copies are available and atomically
// decrements the counter. It fails with library.ErrOutOfStock when the book
// has fewer copies available and library.ErrBookNotFound when the book does
// not exist. Two concurrent reservations can never both succeed on the last
// copy.
func (l Ledger) Reserve(ctx context.Context, bookID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return library.ErrInvalidQuantity
	}

	return l.store.DecrementAvailable(ctx, bookID, quantity)
}

// Release atomically increments the counter, clamped so it never exceeds the
// total. The clamp protects the invariant against a double release.
func (l Ledger) Release(ctx context.Context, bookID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return library.ErrInvalidQuantity
	}

	return l.store.IncrementAvailable(ctx, bookID, quantity)
}

// Availability returns the current copy counters for one book.
func (l Ledger) Availability(ctx context.Context, bookID uuid.UUID) (library.Availability, error) {
	return l.store.GetBookAvailability(ctx, bookID)
}
