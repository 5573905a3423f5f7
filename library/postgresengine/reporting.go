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

const (
	colFineID        = "fine_id"
	colAmount        = "amount"
	colPaymentStatus = "payment_status"
	colPaymentDate   = "payment_date"
)

// DashboardKPIs aggregates the dashboard figures. A failing store surfaces
// as an error, never as a silent row of zeros. The open-borrowings count
// uses the stored Borrowed status; overdue rows are Borrowed rows and are
// already included.
func (s *Store) DashboardKPIs(ctx context.Context) (library.DashboardKPIs, error) {
	var empty library.DashboardKPIs
	var kpis library.DashboardKPIs

	totalCopies := builder().
		From(tableBooks).
		Select(goqu.COALESCE(goqu.SUM(goqu.C(colTotalCopies)), 0))

	openBorrowings := builder().
		From(tableBorrowings).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colStatus).Eq(string(library.StatusBorrowed)))

	collectedFines := builder().
		From(tableFines).
		Select(goqu.COALESCE(goqu.SUM(goqu.C(colAmount)), 0)).
		Where(goqu.C(colPaymentStatus).Eq(library.FinePaid))

	memberCount := builder().
		From(tableMembers).
		Select(goqu.COUNT(goqu.Star()))

	if err := s.scanScalar(ctx, totalCopies, &kpis.TotalCopies); err != nil {
		return empty, err
	}
	if err := s.scanScalar(ctx, openBorrowings, &kpis.OpenBorrowings); err != nil {
		return empty, err
	}
	if err := s.scanScalar(ctx, collectedFines, &kpis.CollectedFines); err != nil {
		return empty, err
	}
	if err := s.scanScalar(ctx, memberCount, &kpis.MemberCount); err != nil {
		return empty, err
	}

	return kpis, nil
}

// ListBorrowingSummaries returns borrowings joined with member names, newest
// first. A limit of 0 returns all rows. Status carries the stored state; the
// reporting facade derives the Overdue display state from the due date.
func (s *Store) ListBorrowingSummaries(ctx context.Context, limit uint) ([]library.BorrowingSummary, error) {
	stmt := builder().
		From(goqu.T(tableBorrowings).As("b")).
		Join(
			goqu.T(tableMembers).As("m"),
			goqu.On(goqu.I("b.member_id").Eq(goqu.I("m.member_id"))),
		).
		Select(
			goqu.I("b.borrowing_id"),
			goqu.L("CONCAT(m.first_name, ' ', m.last_name)"),
			goqu.I("b.borrow_date"),
			goqu.I("b.due_date"),
			goqu.I("b.status"),
		).
		Order(goqu.I("b.borrow_date").Desc())

	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	summaries := make([]library.BorrowingSummary, 0)

	for rows.Next() {
		var summary library.BorrowingSummary
		var rawID, rawStatus string

		scanErr := rows.Scan(&rawID, &summary.MemberName, &summary.BorrowDate, &summary.DueDate, &rawStatus)
		if scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		id, idErr := uuid.Parse(rawID)
		if idErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, idErr)
		}

		summary.ID = id
		summary.Status = library.BorrowingStatus(rawStatus)
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// ListMemberFines returns the fines attached to a member's borrowings,
// read-only.
func (s *Store) ListMemberFines(ctx context.Context, memberID uuid.UUID) ([]library.Fine, error) {
	stmt := builder().
		From(goqu.T(tableFines).As("f")).
		Join(
			goqu.T(tableBorrowings).As("b"),
			goqu.On(goqu.I("b.borrowing_id").Eq(goqu.I("f.borrowing_id"))),
		).
		Select(
			goqu.I("f.fine_id"), goqu.I("f.borrowing_id"), goqu.I("f.amount"),
			goqu.I("f.payment_status"), goqu.I("f.payment_date"),
		).
		Where(goqu.I("b.member_id").Eq(memberID.String())).
		Order(goqu.I("f.fine_id").Desc())

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	fines := make([]library.Fine, 0)

	for rows.Next() {
		var fine library.Fine
		var rawID, rawBorrowingID string
		var rawPaymentDate sql.NullTime

		scanErr := rows.Scan(&rawID, &rawBorrowingID, &fine.Amount, &fine.PaymentStatus, &rawPaymentDate)
		if scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		if rawPaymentDate.Valid {
			paymentDate := rawPaymentDate.Time
			fine.PaymentDate = &paymentDate
		}

		id, idErr := uuid.Parse(rawID)
		if idErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, idErr)
		}
		borrowingID, borrowingErr := uuid.Parse(rawBorrowingID)
		if borrowingErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, borrowingErr)
		}

		fine.ID = id
		fine.BorrowingID = borrowingID
		fines = append(fines, fine)
	}

	return fines, nil
}

// ListOverdueLoans returns the open borrowing lines past their due date at
// now, joined with the book title and the member name, most overdue first.
// The overdue classification is purely read-time; no Overdue status is ever
// stored.
func (s *Store) ListOverdueLoans(ctx context.Context, now time.Time) ([]library.OverdueLoan, error) {
	stmt := builder().
		From(goqu.T(tableBorrowings).As("b")).
		Join(
			goqu.T(tableMembers).As("m"),
			goqu.On(goqu.I("b.member_id").Eq(goqu.I("m.member_id"))),
		).
		Join(
			goqu.T(tableBorrowingDetails).As("bd"),
			goqu.On(goqu.I("bd.borrowing_id").Eq(goqu.I("b.borrowing_id"))),
		).
		Join(
			goqu.T(tableBooks).As("bk"),
			goqu.On(goqu.I("bk.book_id").Eq(goqu.I("bd.book_id"))),
		).
		Select(
			goqu.I("b.borrowing_id"),
			goqu.I("bk.title"),
			goqu.L("CONCAT(m.first_name, ' ', m.last_name)"),
			goqu.I("b.due_date"),
		).
		Where(
			goqu.I("b.status").Eq(string(library.StatusBorrowed)),
			goqu.I("b.due_date").Lt(now),
		).
		Order(goqu.I("b.due_date").Asc())

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	loans := make([]library.OverdueLoan, 0)

	for rows.Next() {
		var loan library.OverdueLoan
		var rawID string

		scanErr := rows.Scan(&rawID, &loan.BookTitle, &loan.MemberName, &loan.DueDate)
		if scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		id, idErr := uuid.Parse(rawID)
		if idErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, idErr)
		}

		loan.BorrowingID = id
		loans = append(loans, loan)
	}

	return loans, nil
}

// CountBooksByGenre returns the number of cataloged titles per genre.
func (s *Store) CountBooksByGenre(ctx context.Context) ([]library.GenreCount, error) {
	stmt := builder().
		From(tableBooks).
		Select(goqu.C(colGenre), goqu.COUNT(goqu.Star())).
		GroupBy(goqu.C(colGenre)).
		Order(goqu.C(colGenre).Asc())

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	counts := make([]library.GenreCount, 0)

	for rows.Next() {
		var count library.GenreCount

		if scanErr := rows.Scan(&count.Genre, &count.Count); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		counts = append(counts, count)
	}

	return counts, nil
}

// CollectedFinesByMonth returns the paid fine totals grouped by the calendar
// month of the payment date, oldest month first.
func (s *Store) CollectedFinesByMonth(ctx context.Context) ([]library.MonthlyRevenue, error) {
	month := goqu.L("to_char(date_trunc('month', payment_date), 'YYYY-MM')")

	stmt := builder().
		From(tableFines).
		Select(month, goqu.SUM(goqu.C(colAmount))).
		Where(
			goqu.C(colPaymentStatus).Eq(library.FinePaid),
			goqu.C(colPaymentDate).IsNotNull(),
		).
		GroupBy(month).
		Order(month.Asc())

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	revenues := make([]library.MonthlyRevenue, 0)

	for rows.Next() {
		var revenue library.MonthlyRevenue

		if scanErr := rows.Scan(&revenue.Month, &revenue.Amount); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		revenues = append(revenues, revenue)
	}

	return revenues, nil
}

// CountBorrowingStatuses returns the number of borrowings per display
// status. A stored Borrowed row past its due date at now counts as Overdue;
// the CASE derives that at read time, consistent with the list views.
func (s *Store) CountBorrowingStatuses(ctx context.Context, now time.Time) ([]library.StatusCount, error) {
	displayStatus := goqu.L(
		"CASE WHEN status = ? AND due_date < ? THEN ? ELSE status END",
		string(library.StatusBorrowed), now, string(library.StatusOverdue),
	)

	stmt := builder().
		From(tableBorrowings).
		Select(displayStatus, goqu.COUNT(goqu.Star())).
		GroupBy(displayStatus).
		Order(displayStatus.Asc())

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	counts := make([]library.StatusCount, 0)

	for rows.Next() {
		var rawStatus string
		var count int

		if scanErr := rows.Scan(&rawStatus, &count); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		counts = append(counts, library.StatusCount{Status: library.BorrowingStatus(rawStatus), Count: count})
	}

	return counts, nil
}

// scanScalar executes a single-value aggregate query.
func (s *Store) scanScalar(ctx context.Context, stmt *goqu.SelectDataset, dest any) error {
	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return nil
	}

	if scanErr := rows.Scan(dest); scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
		return errors.Join(ErrScanningRowFailed, scanErr)
	}

	return nil
}
