package library

import (
	"time"

	"github.com/google/uuid"
)

// LoanPeriodDays is the fixed loan period: due date = borrow date + 14 days.
const LoanPeriodDays = 14

// BorrowingStatus is the lifecycle state of a borrowing.
type BorrowingStatus string

const (
	// StatusBorrowed and StatusReturned are the only statuses ever persisted.
	StatusBorrowed BorrowingStatus = "Borrowed"
	StatusReturned BorrowingStatus = "Returned"

	// StatusOverdue is a derived display state. It is never written to the
	// store; read queries classify a Borrowed row with a past due date as
	// overdue at query time.
	StatusOverdue BorrowingStatus = "Overdue"
)

// Borrowing is one loan transaction of a member. It exclusively owns its
// BorrowingDetail line items; they are created atomically with it and are
// cascade-deleted with it.
type Borrowing struct {
	ID         uuid.UUID
	MemberID   uuid.UUID
	BorrowDate time.Time
	DueDate    time.Time
	ReturnDate *time.Time
	Status     BorrowingStatus
}

// BorrowingDetail links a borrowing to one book with a quantity. Quantity is
// 1 for loans issued by the circulation engine, but the schema allows
// multi-copy line items.
type BorrowingDetail struct {
	BorrowingID uuid.UUID
	BookID      uuid.UUID
	Quantity    int
}

// IsOpen reports whether the borrowing still holds reserved copies.
func (b Borrowing) IsOpen() bool {
	return b.Status == StatusBorrowed
}

// DisplayStatus classifies the borrowing for read queries: a Borrowed row
// whose due date has passed is reported as Overdue without any write.
func (b Borrowing) DisplayStatus(now time.Time) BorrowingStatus {
	if b.Status == StatusBorrowed && b.DueDate.Before(now) {
		return StatusOverdue
	}
	return b.Status
}

// DueDateFor computes the due date for a loan issued at borrowDate.
func DueDateFor(borrowDate time.Time) time.Time {
	return borrowDate.AddDate(0, 0, LoanPeriodDays)
}
