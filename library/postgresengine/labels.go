package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
)

const colName = "name"

// labelTable describes one of the name-only directory tables. Authors,
// publishers and genres share the exact same CRUD shape, so one generic
// implementation serves all three.
type labelTable struct {
	table    string
	idColumn string
	notFound error
}

var (
	authorTable    = labelTable{table: tableAuthors, idColumn: "author_id", notFound: library.ErrAuthorNotFound}
	publisherTable = labelTable{table: tablePublishers, idColumn: "publisher_id", notFound: library.ErrPublisherNotFound}
	genreTable     = labelTable{table: tableGenres, idColumn: "genre_id", notFound: library.ErrGenreNotFound}
)

// Label is one (id, name) directory row.
type Label struct {
	ID   uuid.UUID
	Name string
}

func (s *Store) createLabel(ctx context.Context, lt labelTable, name string) (uuid.UUID, error) {
	labelID, idErr := uuid.NewV7()
	if idErr != nil {
		return uuid.Nil, idErr
	}

	stmt := builder().
		Insert(lt.table).
		Rows(goqu.Record{lt.idColumn: labelID.String(), colName: name})

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return uuid.Nil, buildErr
	}

	if _, execErr := s.execExpectingRows(ctx, sqlQuery); execErr != nil {
		return uuid.Nil, execErr
	}

	return labelID, nil
}

func (s *Store) renameLabel(ctx context.Context, lt labelTable, labelID uuid.UUID, name string) error {
	stmt := builder().
		Update(lt.table).
		Set(goqu.Record{colName: name}).
		Where(goqu.C(lt.idColumn).Eq(labelID.String()))

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.execExpectingRows(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return lt.notFound
	}

	return nil
}

func (s *Store) deleteLabel(ctx context.Context, lt labelTable, labelID uuid.UUID) error {
	stmt := builder().
		Delete(lt.table).
		Where(goqu.C(lt.idColumn).Eq(labelID.String()))

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, execErr := s.execExpectingRows(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return lt.notFound
	}

	return nil
}

func (s *Store) listLabels(ctx context.Context, lt labelTable) ([]Label, error) {
	stmt := builder().
		From(lt.table).
		Select(lt.idColumn, colName).
		Order(goqu.C(colName).Asc())

	sqlQuery, buildErr := s.buildSQL(stmt)
	if buildErr != nil {
		return nil, buildErr
	}

	rows, queryErr := s.queryRows(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	labels := make([]Label, 0)

	for rows.Next() {
		var label Label
		var rawID string

		if scanErr := rows.Scan(&rawID, &label.Name); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr, sqlQuery)
			return nil, errors.Join(ErrScanningRowFailed, scanErr)
		}

		id, idErr := uuid.Parse(rawID)
		if idErr != nil {
			return nil, errors.Join(ErrScanningRowFailed, idErr)
		}
		label.ID = id

		labels = append(labels, label)
	}

	return labels, nil
}

// CreateAuthor inserts an author and returns its identifier.
func (s *Store) CreateAuthor(ctx context.Context, name string) (uuid.UUID, error) {
	return s.createLabel(ctx, authorTable, name)
}

// RenameAuthor updates an author name.
func (s *Store) RenameAuthor(ctx context.Context, authorID uuid.UUID, name string) error {
	return s.renameLabel(ctx, authorTable, authorID, name)
}

// DeleteAuthor removes an author; authors referenced by books surface as
// ErrLinkedRecords.
func (s *Store) DeleteAuthor(ctx context.Context, authorID uuid.UUID) error {
	return s.deleteLabel(ctx, authorTable, authorID)
}

// ListAuthors returns all authors ordered by name.
func (s *Store) ListAuthors(ctx context.Context) ([]library.Author, error) {
	labels, err := s.listLabels(ctx, authorTable)
	if err != nil {
		return nil, err
	}

	authors := make([]library.Author, len(labels))
	for i, l := range labels {
		authors[i] = library.Author{ID: l.ID, Name: l.Name}
	}

	return authors, nil
}

// CreatePublisher inserts a publisher and returns its identifier.
func (s *Store) CreatePublisher(ctx context.Context, name string) (uuid.UUID, error) {
	return s.createLabel(ctx, publisherTable, name)
}

// RenamePublisher updates a publisher name.
func (s *Store) RenamePublisher(ctx context.Context, publisherID uuid.UUID, name string) error {
	return s.renameLabel(ctx, publisherTable, publisherID, name)
}

// DeletePublisher removes a publisher; publishers referenced by books
// surface as ErrLinkedRecords.
func (s *Store) DeletePublisher(ctx context.Context, publisherID uuid.UUID) error {
	return s.deleteLabel(ctx, publisherTable, publisherID)
}

// ListPublishers returns all publishers ordered by name.
func (s *Store) ListPublishers(ctx context.Context) ([]library.Publisher, error) {
	labels, err := s.listLabels(ctx, publisherTable)
	if err != nil {
		return nil, err
	}

	publishers := make([]library.Publisher, len(labels))
	for i, l := range labels {
		publishers[i] = library.Publisher{ID: l.ID, Name: l.Name}
	}

	return publishers, nil
}

// CreateGenre inserts a genre and returns its identifier.
func (s *Store) CreateGenre(ctx context.Context, name string) (uuid.UUID, error) {
	return s.createLabel(ctx, genreTable, name)
}

// RenameGenre updates a genre name.
func (s *Store) RenameGenre(ctx context.Context, genreID uuid.UUID, name string) error {
	return s.renameLabel(ctx, genreTable, genreID, name)
}

// DeleteGenre removes a genre.
func (s *Store) DeleteGenre(ctx context.Context, genreID uuid.UUID) error {
	return s.deleteLabel(ctx, genreTable, genreID)
}

// ListGenres returns all genres ordered by name.
func (s *Store) ListGenres(ctx context.Context) ([]library.Genre, error) {
	labels, err := s.listLabels(ctx, genreTable)
	if err != nil {
		return nil, err
	}

	genres := make([]library.Genre, len(labels))
	for i, l := range labels {
		genres[i] = library.Genre{ID: l.ID, Name: l.Name}
	}

	return genres, nil
}
