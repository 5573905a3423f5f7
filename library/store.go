package library

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CirculationStore is the relational-store contract consumed by the
// inventory ledger and the circulation engine. Every mutation is atomic on
// its own; multi-step workflows run inside WithinTx so the copy counters and
// the borrowing lifecycle commit together or not at all.
type CirculationStore interface {
	// GetBookAvailability returns the copy counters for one book, or
	// ErrBookNotFound.
	GetBookAvailability(ctx context.Context, bookID uuid.UUID) (Availability, error)

	// DecrementAvailable conditionally subtracts quantity from the available
	// counter. It fails with ErrOutOfStock when fewer copies are available
	// and with ErrBookNotFound when the book does not exist. The check and
	// the write are a single atomic statement; two concurrent decrements can
	// never both succeed on the last copy.
	DecrementAvailable(ctx context.Context, bookID uuid.UUID, quantity int) error

	// IncrementAvailable adds quantity to the available counter, clamped so
	// it never exceeds the total. Fails with ErrBookNotFound.
	IncrementAvailable(ctx context.Context, bookID uuid.UUID, quantity int) error

	// MemberExists reports whether the member is registered.
	MemberExists(ctx context.Context, memberID uuid.UUID) (bool, error)

	// CreateBorrowing inserts a new borrowing with status Borrowed and
	// returns its identifier.
	CreateBorrowing(ctx context.Context, memberID uuid.UUID, borrowDate, dueDate time.Time) (uuid.UUID, error)

	// CreateBorrowingDetail inserts one line item for a borrowing.
	CreateBorrowingDetail(ctx context.Context, borrowingID, bookID uuid.UUID, quantity int) error

	// GetBorrowing returns one borrowing or ErrBorrowingNotFound.
	GetBorrowing(ctx context.Context, borrowingID uuid.UUID) (Borrowing, error)

	// UpdateBorrowingStatus flips the borrowing status. The update is
	// conditional on the row not already being Returned; a violated
	// condition yields ErrAlreadyReturned, an absent row
	// ErrBorrowingNotFound.
	UpdateBorrowingStatus(ctx context.Context, borrowingID uuid.UUID, status BorrowingStatus, returnDate *time.Time) error

	// ListBorrowingDetails returns the line items of a borrowing.
	ListBorrowingDetails(ctx context.Context, borrowingID uuid.UUID) ([]BorrowingDetail, error)

	// WithinTx runs fn against a transaction-scoped view of the store,
	// committing on nil and rolling back on error or panic.
	WithinTx(ctx context.Context, fn func(tx CirculationStore) error) error
}

// DashboardKPIs are the aggregate figures of the admin dashboard.
type DashboardKPIs struct {
	TotalCopies    int
	OpenBorrowings int
	CollectedFines float64
	MemberCount    int
}

// BorrowingSummary is a borrowing row joined with the member name for
// report views. Status carries the derived display state.
type BorrowingSummary struct {
	ID         uuid.UUID
	MemberName string
	BorrowDate time.Time
	DueDate    time.Time
	Status     BorrowingStatus
}

// OverdueLoan is one open borrowing line past its due date, joined with the
// book title and the member name for the overdue report.
type OverdueLoan struct {
	BorrowingID uuid.UUID
	BookTitle   string
	MemberName  string
	DueDate     time.Time
}

// GenreCount is the number of cataloged titles in one genre.
type GenreCount struct {
	Genre string
	Count int
}

// MonthlyRevenue is the collected fine total of one calendar month, keyed as
// YYYY-MM.
type MonthlyRevenue struct {
	Month  string
	Amount float64
}

// StatusCount is the number of borrowings in one display status.
type StatusCount struct {
	Status BorrowingStatus
	Count  int
}
