package library

import (
	"errors"
)

// Typed error taxonomy returned by the store, the ledger and the engine.
// Infrastructure failures are joined onto these sentinels with errors.Join,
// so callers branch with errors.Is and still see the underlying cause.
var (
	// ErrBookNotFound, ErrMemberNotFound and ErrBorrowingNotFound signal an
	// absent referenced entity.
	ErrBookNotFound      = errors.New("book not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrLibrarianNotFound = errors.New("librarian not found")
	ErrBorrowingNotFound = errors.New("borrowing not found")
	ErrAuthorNotFound    = errors.New("author not found")
	ErrPublisherNotFound = errors.New("publisher not found")
	ErrGenreNotFound     = errors.New("genre not found")

	// ErrOutOfStock is returned when a reservation exceeds the available
	// copies of a book.
	ErrOutOfStock = errors.New("not enough available copies")

	// ErrAlreadyReturned guards return idempotence: a second return of the
	// same borrowing must not release copies twice.
	ErrAlreadyReturned = errors.New("borrowing already returned")

	// ErrStoreUnavailable marks the relational store as unreachable. It is
	// retryable at the request level and must never degrade into a silent
	// zero result.
	ErrStoreUnavailable = errors.New("relational store unavailable")

	// ErrConcurrencyConflict is surfaced when the store detects a
	// serialization failure or deadlock between concurrent transactions.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrLinkedRecords rejects deletes of rows still referenced by history.
	ErrLinkedRecords = errors.New("record is referenced by existing history")

	// ErrAlreadyExists rejects inserts violating a uniqueness constraint.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrInvalidQuantity rejects non-positive reservation quantities.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)
