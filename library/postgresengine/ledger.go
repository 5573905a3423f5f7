package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

// GetBookAvailability returns the copy counters for one book.
func (s *Store) GetBookAvailability(ctx context.Context, bookID uuid.UUID) (library.Availability, error) {
	var empty library.Availability

	stmt := builder().
		From(tableBooks).
		Select(colTotalCopies, colAvailableCopies).
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

	var availability library.Availability
	if scanErr := rows.Scan(&availability.Total, &availability.Available); scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
		return empty, errors.Join(ErrScanningRowFailed, scanErr)
	}

	return availability, nil
}

// DecrementAvailable atomically subtracts quantity from the available
// counter of one book. The sufficiency check and the write are a single
// conditional UPDATE, so concurrent reservations on the same book serialize
// at the row and can never jointly over-issue the last copy.
func (s *Store) DecrementAvailable(ctx context.Context, bookID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return library.ErrInvalidQuantity
	}

	stmt := builder().
		Update(tableBooks).
		Set(goqu.Record{colAvailableCopies: goqu.L("available_copies - ?", quantity)}).
		Where(
			goqu.C(colBookID).Eq(bookID.String()),
			goqu.C(colAvailableCopies).Gte(quantity),
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
		exists, existsErr := s.bookExists(ctx, bookID)
		if existsErr != nil {
			return existsErr
		}
		if !exists {
			return library.ErrBookNotFound
		}

		return library.ErrOutOfStock
	}

	return nil
}

// IncrementAvailable atomically adds quantity to the available counter of
// one book, clamped so it never exceeds the total.
func (s *Store) IncrementAvailable(ctx context.Context, bookID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return library.ErrInvalidQuantity
	}

	stmt := builder().
		Update(tableBooks).
		Set(goqu.Record{colAvailableCopies: goqu.L("LEAST(available_copies + ?, total_copies)", quantity)}).
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

func (s *Store) bookExists(ctx context.Context, bookID uuid.UUID) (bool, error) {
	stmt := builder().
		From(tableBooks).
		Select(goqu.L("1")).
		Where(goqu.C(colBookID).Eq(bookID.String()))

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
