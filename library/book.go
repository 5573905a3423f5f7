package library

import (
	"github.com/google/uuid"
)

// Book is a catalog title together with its copy counters.
//
// AvailableCopies is a derived quantity: its sole source of truth is
// TotalCopies minus the summed quantities of all open borrowing details for
// this book. Only the inventory ledger mutates it; catalog edits to
// TotalCopies reconcile it against the open loans in the same statement.
type Book struct {
	ID              uuid.UUID
	Title           string
	AuthorID        *uuid.UUID
	PublisherID     *uuid.UUID
	Genre           string
	ISBN            string
	TotalCopies     int
	AvailableCopies int
}

// Availability is the copy-counter pair for one book.
type Availability struct {
	Total     int
	Available int
}

// BookListing is a book row shaped for list views, with the author name
// resolved from the directory.
type BookListing struct {
	Book
	AuthorName string
}
