package library

import (
	"github.com/google/uuid"
)

// Author, Publisher and Genre are plain directory labels managed by the
// catalog services; books reference them, loans never touch them.
type (
	Author struct {
		ID   uuid.UUID
		Name string
	}

	Publisher struct {
		ID   uuid.UUID
		Name string
	}

	Genre struct {
		ID   uuid.UUID
		Name string
	}
)

// Librarian is a staff account used only by the credential-verification
// collaborator. PasswordHash is a bcrypt hash.
type Librarian struct {
	ID           uuid.UUID
	FirstName    string
	Email        string
	PasswordHash string
}
