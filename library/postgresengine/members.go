package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

const (
	colFirstName        = "first_name"
	colLastName         = "last_name"
	colEmail            = "email"
	colPhone            = "phone"
	colAddress          = "address"
	colPasswordHash     = "password_hash"
	colMembershipStatus = "membership_status"
	colLibrarianID      = "librarian_id"
)

var memberColumns = []any{
	colMemberID, colFirstName, colLastName, colEmail, colPhone, colAddress, colMembershipStatus, colPasswordHash,
}

// CreateMember registers a new member and returns its identifier. The
// password hash must already be a bcrypt hash; the store never sees
// plaintext credentials.
func (s *Store) CreateMember(ctx context.Context, member library.Member) (uuid.UUID, error) {
	memberID, idErr := uuid.NewV7()
	if idErr != nil {
		return uuid.Nil, idErr
	}

	status := member.MembershipStatus
	if status == "" {
		status = library.MembershipActive
	}

	stmt := builder().
		Insert(tableMembers).
		Rows(goqu.Record{
			colMemberID:         memberID.String(),
			colFirstName:        member.FirstName,
			colLastName:         member.LastName,
			colEmail:            member.Email,
			colPhone:            member.Phone,
			colAddress:          member.Address,
			colMembershipStatus: status,
			colPasswordHash:     member.PasswordHash,
		})

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return uuid.Nil, buildErr
	}

	if _, execErr := s.execExpectingRows(ctx, sqlQuery); execErr != nil {
		return uuid.Nil, execErr
	}

	return memberID, nil
}

// GetMember returns one member by identifier.
func (s *Store) GetMember(ctx context.Context, memberID uuid.UUID) (library.Member, error) {
	return s.getMemberWhere(ctx, goqu.C(colMemberID).Eq(memberID.String()))
}

// GetMemberByEmail returns one member by email, for credential verification.
func (s *Store) GetMemberByEmail(ctx context.Context, email string) (library.Member, error) {
	return s.getMemberWhere(ctx, goqu.C(colEmail).Eq(email))
}

func (s *Store) getMemberWhere(ctx context.Context, condition goqu.Expression) (library.Member, error) {
	var empty library.Member

	stmt := builder().
		From(tableMembers).
		Select(memberColumns...).
		Where(condition)

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
		return empty, library.ErrMemberNotFound
	}

	member, scanErr := scanMember(rows)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
		return empty, errors.Join(ErrScanningRowFailed, scanErr)
	}

	return member, nil
}

// ListMembers returns all members, newest first.
func (s *Store) ListMembers(ctx context.Context) ([]library.Member, error) {
	stmt := builder().
		From(tableMembers).
		Select(memberColumns...).
		Order(goqu.C(colMemberID).Desc())

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	members := make([]library.Member, 0)

	for rows.Next() {
		member, scanErr := scanMember(rows)
		if scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		members = append(members, member)
	}

	return members, nil
}

// UpdateMember updates name and contact fields of a member. Credentials and
// membership status are not touched here.
func (s *Store) UpdateMember(ctx context.Context, member library.Member) error {
	stmt := builder().
		Update(tableMembers).
		Set(goqu.Record{
			colFirstName: member.FirstName,
			colLastName:  member.LastName,
			colEmail:     member.Email,
			colPhone:     member.Phone,
			colAddress:   member.Address,
		}).
		Where(goqu.C(colMemberID).Eq(member.ID.String()))

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.execExpectingRows(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return library.ErrMemberNotFound
	}

	return nil
}

// DeleteMember removes a member. Members with borrow history are protected
// by the foreign key and surface as ErrLinkedRecords.
func (s *Store) DeleteMember(ctx context.Context, memberID uuid.UUID) error {
	stmt := builder().
		Delete(tableMembers).
		Where(goqu.C(colMemberID).Eq(memberID.String()))

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.execExpectingRows(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return library.ErrMemberNotFound
	}

	return nil
}

// GetLibrarianByEmail returns one staff account by email, for credential
// verification.
func (s *Store) GetLibrarianByEmail(ctx context.Context, email string) (library.Librarian, error) {
	var empty library.Librarian

	stmt := builder().
		From(tableLibrarians).
		Select(colLibrarianID, colFirstName, colEmail, colPasswordHash).
		Where(goqu.C(colEmail).Eq(email))

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
		return empty, library.ErrLibrarianNotFound
	}

	var librarian library.Librarian
	var rawID string

	scanErr := rows.Scan(&rawID, &librarian.FirstName, &librarian.Email, &librarian.PasswordHash)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
		return empty, errors.Join(ErrScanningRowFailed, scanErr)
	}

	id, idErr := uuid.Parse(rawID)
	if idErr != nil {
		return empty, errors.Join(ErrScanningRowFailed, idErr)
	}
	librarian.ID = id

	return librarian, nil
}

func scanMember(row rowScanner) (library.Member, error) {
	var empty library.Member
	var member library.Member
	var rawID string

	scanErr := row.Scan(
		&rawID, &member.FirstName, &member.LastName, &member.Email,
		&member.Phone, &member.Address, &member.MembershipStatus, &member.PasswordHash,
	)
	if scanErr != nil {
		return empty, scanErr
	}

	id, idErr := uuid.Parse(rawID)
	if idErr != nil {
		return empty, idErr
	}
	member.ID = id

	return member, nil
}
