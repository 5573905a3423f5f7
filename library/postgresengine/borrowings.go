package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

// MemberExists reports whether the member is registered.
func (s *Store) MemberExists(ctx context.Context, memberID uuid.UUID) (bool, error) {
	stmt := builder().
		From(tableMembers).
		Select(goqu.L("1")).
		Where(goqu.C(colMemberID).Eq(memberID.String()))

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return false, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return false, queryErr
	}
	defer s.closeRows(rows)

	return rows.Next(), nil
}

// CreateBorrowing inserts a new borrowing with status Borrowed and returns
// its identifier.
func (s *Store) CreateBorrowing(ctx context.Context, memberID uuid.UUID, borrowDate, dueDate time.Time) (uuid.UUID, error) {
	borrowingID, idErr := uuid.NewV7()
	if idErr != nil {
		return uuid.Nil, idErr
	}

	stmt := builder().
		Insert(tableBorrowings).
		Cols(colBorrowingID, colMemberID, colBorrowDate, colDueDate, colStatus).
		Vals(goqu.Vals{
			borrowingID.String(),
			memberID.String(),
			borrowDate,
			dueDate,
			string(library.StatusBorrowed),
		})

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return uuid.Nil, buildErr
	}

	if _, execErr := s.execExpectingRows(ctx, sqlQuery); execErr != nil {
		if errors.Is(execErr, library.ErrLinkedRecords) {
			// foreign key on member_id: the member does not exist
			return uuid.Nil, errors.Join(library.ErrMemberNotFound, execErr)
		}

		return uuid.Nil, execErr
	}

	return borrowingID, nil
}

// CreateBorrowingDetail inserts one (book, quantity) line item for a
// borrowing.
func (s *Store) CreateBorrowingDetail(ctx context.Context, borrowingID, bookID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return library.ErrInvalidQuantity
	}

	stmt := builder().
		Insert(tableBorrowingDetails).
		Cols(colBorrowingID, colBookID, colQuantity).
		Vals(goqu.Vals{borrowingID.String(), bookID.String(), quantity})

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	_, execErr := s.execExpectingRows(ctx, sqlQuery)

	return execErr
}

// GetBorrowing returns one borrowing by identifier.
func (s *Store) GetBorrowing(ctx context.Context, borrowingID uuid.UUID) (library.Borrowing, error) {
	var empty library.Borrowing

	stmt := builder().
		From(tableBorrowings).
		Select(colBorrowingID, colMemberID, colBorrowDate, colDueDate, colReturnDate, colStatus).
		Where(goqu.C(colBorrowingID).Eq(borrowingID.String()))

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
		return empty, library.ErrBorrowingNotFound
	}

	borrowing, scanErr := scanBorrowing(rows)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
		return empty, errors.Join(ErrScanningRowFailed, scanErr)
	}

	return borrowing, nil
}

// UpdateBorrowingStatus flips the borrowing status and sets the return date.
// The update is conditional on the row not already being Returned, which is
// the application-level idempotence guard against double returns.
func (s *Store) UpdateBorrowingStatus(ctx context.Context, borrowingID uuid.UUID, status library.BorrowingStatus, returnDate *time.Time) error {
	record := goqu.Record{colStatus: string(status)}
	if returnDate != nil {
		record[colReturnDate] = *returnDate
	}

	stmt := builder().
		Update(tableBorrowings).
		Set(record).
		Where(
			goqu.C(colBorrowingID).Eq(borrowingID.String()),
			goqu.C(colStatus).Neq(string(library.StatusReturned)),
		)

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.execExpectingRows(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		if _, getErr := s.GetBorrowing(ctx, borrowingID); getErr != nil {
			return getErr
		}

		return library.ErrAlreadyReturned
	}

	return nil
}

// ListBorrowingDetails returns the line items of a borrowing.
func (s *Store) ListBorrowingDetails(ctx context.Context, borrowingID uuid.UUID) ([]library.BorrowingDetail, error) {
	stmt := builder().
		From(tableBorrowingDetails).
		Select(colBorrowingID, colBookID, colQuantity).
		Where(goqu.C(colBorrowingID).Eq(borrowingID.String()))

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	details := make([]library.BorrowingDetail, 0)

	for rows.Next() {
		var detail library.BorrowingDetail
		var rawBorrowingID, rawBookID string

		if scanErr := rows.Scan(&rawBorrowingID, &rawBookID, &detail.Quantity); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		parsedBorrowingID, parseErr := uuid.Parse(rawBorrowingID)
		if parseErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, parseErr)
		}

		parsedBookID, parseErr := uuid.Parse(rawBookID)
		if parseErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, parseErr)
		}

		detail.BorrowingID = parsedBorrowingID
		detail.BookID = parsedBookID
		details = append(details, detail)
	}

	return details, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBorrowing(row rowScanner) (library.Borrowing, error) {
	var empty library.Borrowing
	var rawID, rawMemberID, rawStatus string
	var returnDate sql.NullTime
	var borrowing library.Borrowing

	scanErr := row.Scan(&rawID, &rawMemberID, &borrowing.BorrowDate, &borrowing.DueDate, &returnDate, &rawStatus)
	if scanErr != nil {
		return empty, scanErr
	}

	id, idErr := uuid.Parse(rawID)
	if idErr != nil {
		return empty, idErr
	}

	memberID, memberErr := uuid.Parse(rawMemberID)
	if memberErr != nil {
		return empty, memberErr
	}

	borrowing.ID = id
	borrowing.MemberID = memberID
	borrowing.Status = library.BorrowingStatus(rawStatus)

	if returnDate.Valid {
		t := returnDate.Time
		borrowing.ReturnDate = &t
	}

	return borrowing, nil
}
