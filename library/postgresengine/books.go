package postgresengine

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

// CreateBook inserts a new title. The available counter starts at the total:
// a freshly cataloged book has no open loans.
func (s *Store) CreateBook(ctx context.Context, book library.Book) (uuid.UUID, error) {
	bookID, idErr := uuid.NewV7()
	if idErr != nil {
		return uuid.Nil, idErr
	}

	record := goqu.Record{
		colBookID:          bookID.String(),
		colTitle:           book.Title,
		colGenre:           book.Genre,
		colISBN:            book.ISBN,
		colTotalCopies:     book.TotalCopies,
		colAvailableCopies: book.TotalCopies,
	}
	if book.AuthorID != nil {
		record[colAuthorID] = book.AuthorID.String()
	}
	if book.PublisherID != nil {
		record[colPublisherID] = book.PublisherID.String()
	}

	stmt := builder().Insert(tableBooks).Rows(record)

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return uuid.Nil, buildErr
	}

	if _, execErr := s.execExpectingRows(ctx, sqlQuery); execErr != nil {
		return uuid.Nil, execErr
	}

	return bookID, nil
}

// GetBook returns one book by identifier.
func (s *Store) GetBook(ctx context.Context, bookID uuid.UUID) (library.Book, error) {
	var empty library.Book

	stmt := builder().
		From(tableBooks).
		Select(colBookID, colTitle, colAuthorID, colPublisherID, colGenre, colISBN, colTotalCopies, colAvailableCopies).
		Where(goqu.C(colBookID).Eq(bookID.String()))

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return empty, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return empty, library.ErrBookNotFound
	}

	book, scanErr := scanBook(rows)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
		return empty, errors.Join(ErrScanningRowFailed, scanErr)
	}

	return book, nil
}

// ListBooks returns all books with the author name resolved, newest first.
func (s *Store) ListBooks(ctx context.Context) ([]library.BookListing, error) {
	stmt := builder().
		From(goqu.T(tableBooks).As("b")).
		LeftJoin(
			goqu.T(tableAuthors).As("a"),
			goqu.On(goqu.I("b.author_id").Eq(goqu.I("a.author_id"))),
		).
		Select(
			goqu.I("b.book_id"), goqu.I("b.title"), goqu.I("b.author_id"), goqu.I("b.publisher_id"),
			goqu.I("b.genre"), goqu.I("b.isbn"), goqu.I("b.total_copies"), goqu.I("b.available_copies"),
			goqu.COALESCE(goqu.I("a.name"), "").As("author_name"),
		).
		Order(goqu.I("b.book_id").Desc())

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	listings := make([]library.BookListing, 0)

	for rows.Next() {
		var listing library.BookListing
		var rawID string
		var rawAuthorID, rawPublisherID sql.NullString

		scanErr := rows.Scan(
			&rawID, &listing.Title, &rawAuthorID, &rawPublisherID,
			&listing.Genre, &listing.ISBN, &listing.TotalCopies, &listing.AvailableCopies,
			&listing.AuthorName,
		)
		if scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		id, idErr := uuid.Parse(rawID)
		if idErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, idErr)
		}
		listing.ID = id

		if listing.AuthorID, scanErr = parseNullableID(rawAuthorID); scanErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}
		if listing.PublisherID, scanErr = parseNullableID(rawPublisherID); scanErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		listings = append(listings, listing)
	}

	return listings, nil
}

// UpdateBook updates the descriptive fields of a book and reconciles the
// derived available counter against the open loans when the total changes:
// available = clamp(total - open_loans, 0, total). The open-loan sum is a
// subquery of the UPDATE itself, so the read and the write are one atomic
// statement and a concurrent reservation can never be silently undone by a
// stale sum.
func (s *Store) UpdateBook(ctx context.Context, book library.Book) error {
	openLoans := builder().
		From(goqu.T(tableBorrowingDetails).As("bd")).
		Join(
			goqu.T(tableBorrowings).As("b"),
			goqu.On(goqu.I("b.borrowing_id").Eq(goqu.I("bd.borrowing_id"))),
		).
		Select(goqu.COALESCE(goqu.SUM(goqu.I("bd.quantity")), 0)).
		Where(
			goqu.I("bd.book_id").Eq(book.ID.String()),
			goqu.I("b.status").Eq(string(library.StatusBorrowed)),
		)

	record := goqu.Record{
		colTitle:           book.Title,
		colGenre:           book.Genre,
		colISBN:            book.ISBN,
		colTotalCopies:     book.TotalCopies,
		colAvailableCopies: goqu.L("GREATEST(? - ?, 0)", book.TotalCopies, openLoans),
	}

	stmt := builder().
		Update(tableBooks).
		Set(record).
		Where(goqu.C(colBookID).Eq(book.ID.String()))

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.execExpectingRows(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return library.ErrBookNotFound
	}

	return nil
}

// DeleteBook removes a book. Books referenced by borrowing history are
// protected by the foreign key and surface as ErrLinkedRecords.
func (s *Store) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	stmt := builder().
		Delete(tableBooks).
		Where(goqu.C(colBookID).Eq(bookID.String()))

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.execExpectingRows(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return library.ErrBookNotFound
	}

	return nil
}

func scanBook(row rowScanner) (library.Book, error) {
	var empty library.Book
	var book library.Book
	var rawID string
	var rawAuthorID, rawPublisherID sql.NullString

	scanErr := row.Scan(
		&rawID, &book.Title, &rawAuthorID, &rawPublisherID,
		&book.Genre, &book.ISBN, &book.TotalCopies, &book.AvailableCopies,
	)
	if scanErr != nil {
		return empty, scanErr
	}

	id, idErr := uuid.Parse(rawID)
	if idErr != nil {
		return empty, idErr
	}
	book.ID = id

	if book.AuthorID, scanErr = parseNullableID(rawAuthorID); scanErr != nil {
		return empty, scanErr
	}
	if book.PublisherID, scanErr = parseNullableID(rawPublisherID); scanErr != nil {
		return empty, scanErr
	}

	return book, nil
}

func parseNullableID(raw sql.NullString) (*uuid.UUID, error) {
	if !raw.Valid {
		return nil, nil //nolint:nilnil // absent reference
	}

	id, err := uuid.Parse(raw.String)
	if err != nil {
		return nil, err
	}

	return &id, nil
}
