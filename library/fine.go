package library

import (
	"time"

	"github.com/google/uuid"
)

// Payment status values as stored in the fines table.
const (
	FineUnpaid = "Unpaid"
	FinePaid   = "Paid"
)

// Fine is a monetary penalty attached to a borrowing. The circulation core
// never creates fines; reporting consumes them read-only. PaymentDate is nil
// until the fine is paid.
type Fine struct {
	ID            uuid.UUID
	BorrowingID   uuid.UUID
	Amount        float64
	PaymentStatus string
	PaymentDate   *time.Time
}
