package library

import (
	"github.com/google/uuid"
)

// Membership status values as stored in the members table.
const (
	MembershipActive    = "Active"
	MembershipSuspended = "Suspended"
)

// Member is a registered library member. Borrowings reference members but
// never own them; deleting a member with borrow history is rejected by the
// store.
type Member struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Address          string
	MembershipStatus string

	// PasswordHash is a bcrypt hash, never a plaintext credential.
	PasswordHash string
}

// FullName joins first and last name for display and report rows.
func (m Member) FullName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
