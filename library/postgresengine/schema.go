package postgresengine

import (
	"context"
)

// Bootstrap DDL. The copy counters carry their invariant as a table
// constraint: 0 <= available_copies <= total_copies. Borrowing details are
// owned by their borrowing and cascade with it; every other reference is
// RESTRICT so history can never be orphaned.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS authors (
		author_id uuid PRIMARY KEY,
		name text NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS publishers (
		publisher_id uuid PRIMARY KEY,
		name text NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS genres (
		genre_id uuid PRIMARY KEY,
		name text NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		book_id uuid PRIMARY KEY,
		title text NOT NULL,
		author_id uuid REFERENCES authors (author_id) ON DELETE RESTRICT,
		publisher_id uuid REFERENCES publishers (publisher_id) ON DELETE RESTRICT,
		genre text NOT NULL DEFAULT '',
		isbn text NOT NULL DEFAULT '',
		total_copies integer NOT NULL CHECK (total_copies >= 0),
		available_copies integer NOT NULL,
		CHECK (available_copies >= 0 AND available_copies <= total_copies)
	)`,
	`CREATE TABLE IF NOT EXISTS members (
		member_id uuid PRIMARY KEY,
		first_name text NOT NULL,
		last_name text NOT NULL DEFAULT '',
		email text NOT NULL UNIQUE,
		phone text NOT NULL DEFAULT '',
		address text NOT NULL DEFAULT '',
		membership_status text NOT NULL DEFAULT 'Active',
		password_hash text NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS librarians (
		librarian_id uuid PRIMARY KEY,
		first_name text NOT NULL,
		email text NOT NULL UNIQUE,
		password_hash text NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS borrowings (
		borrowing_id uuid PRIMARY KEY,
		member_id uuid NOT NULL REFERENCES members (member_id) ON DELETE RESTRICT,
		borrow_date timestamptz NOT NULL,
		due_date timestamptz NOT NULL,
		return_date timestamptz,
		status text NOT NULL CHECK (status IN ('Borrowed', 'Returned'))
	)`,
	`CREATE TABLE IF NOT EXISTS borrowing_details (
		borrowing_id uuid NOT NULL REFERENCES borrowings (borrowing_id) ON DELETE CASCADE,
		book_id uuid NOT NULL REFERENCES books (book_id) ON DELETE RESTRICT,
		quantity integer NOT NULL CHECK (quantity > 0),
		PRIMARY KEY (borrowing_id, book_id)
	)`,
	`CREATE TABLE IF NOT EXISTS fines (
		fine_id uuid PRIMARY KEY,
		borrowing_id uuid NOT NULL REFERENCES borrowings (borrowing_id) ON DELETE RESTRICT,
		amount numeric(10, 2) NOT NULL CHECK (amount >= 0),
		payment_status text NOT NULL CHECK (payment_status IN ('Unpaid', 'Paid')),
		payment_date timestamptz
	)`,
	`CREATE INDEX IF NOT EXISTS idx_borrowings_member ON borrowings (member_id)`,
	`CREATE INDEX IF NOT EXISTS idx_borrowings_status_due ON borrowings (status, due_date)`,
	`CREATE INDEX IF NOT EXISTS idx_borrowing_details_book ON borrowing_details (book_id)`,
}

// Migrate applies the bootstrap schema. Statements are idempotent, so
// running it on every start is safe.
func (s *Store) Migrate(ctx context.Context) error {
	for _, statement := range schemaStatements {
		if _, err := s.q.Exec(ctx, statement); err != nil {
			return classify(err)
		}
	}

	return nil
}
