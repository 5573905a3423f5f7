// Package catalog provides the directory services of the backend: keyed
// CRUD over members, books' descriptive fields, authors, genres and
// publishers. It carries no cross-entity invariants of its own; the one
// exception, reconciling a book's available counter when its total changes,
// is pushed down into the store where it runs as a single atomic statement.
package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/haslett/library-circulation-go/library"
	"github.com/haslett/library-circulation-go/library/auth"
)

// Store is the slice of the relational store the catalog services need.
type Store interface {
	CreateBook(ctx context.Context, book library.Book) (uuid.UUID, error)
	GetBook(ctx context.Context, bookID uuid.UUID) (library.Book, error)
	ListBooks(ctx context.Context) ([]library.BookListing, error)
	UpdateBook(ctx context.Context, book library.Book) error
	DeleteBook(ctx context.Context, bookID uuid.UUID) error

	CreateMember(ctx context.Context, member library.Member) (uuid.UUID, error)
	GetMember(ctx context.Context, memberID uuid.UUID) (library.Member, error)
	ListMembers(ctx context.Context) ([]library.Member, error)
	UpdateMember(ctx context.Context, member library.Member) error
	DeleteMember(ctx context.Context, memberID uuid.UUID) error

	CreateAuthor(ctx context.Context, name string) (uuid.UUID, error)
	RenameAuthor(ctx context.Context, authorID uuid.UUID, name string) error
	DeleteAuthor(ctx context.Context, authorID uuid.UUID) error
	ListAuthors(ctx context.Context) ([]library.Author, error)

	CreatePublisher(ctx context.Context, name string) (uuid.UUID, error)
	RenamePublisher(ctx context.Context, publisherID uuid.UUID, name string) error
	DeletePublisher(ctx context.Context, publisherID uuid.UUID) error
	ListPublishers(ctx context.Context) ([]library.Publisher, error)

	CreateGenre(ctx context.Context, name string) (uuid.UUID, error)
	RenameGenre(ctx context.Context, genreID uuid.UUID, name string) error
	DeleteGenre(ctx context.Context, genreID uuid.UUID) error
	ListGenres(ctx context.Context) ([]library.Genre, error)
}

// Service is the catalog facade consumed by the API gateway.
type Service struct {
	store Store
}

// NewService creates a catalog Service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// RegisterMember hashes the password and creates the member. The plaintext
// never reaches the store.
func (s *Service) RegisterMember(ctx context.Context, member library.Member, password string) (uuid.UUID, error) {
	hash, hashErr := auth.HashPassword(password)
	if hashErr != nil {
		return uuid.Nil, hashErr
	}

	member.PasswordHash = hash

	return s.store.CreateMember(ctx, member)
}

// UpdateMember updates name and contact fields of a member.
func (s *Service) UpdateMember(ctx context.Context, member library.Member) error {
	return s.store.UpdateMember(ctx, member)
}

// DeleteMember removes a member without borrow history.
func (s *Service) DeleteMember(ctx context.Context, memberID uuid.UUID) error {
	return s.store.DeleteMember(ctx, memberID)
}

// GetMember returns one member.
func (s *Service) GetMember(ctx context.Context, memberID uuid.UUID) (library.Member, error) {
	return s.store.GetMember(ctx, memberID)
}

// ListMembers returns all members, newest first.
func (s *Service) ListMembers(ctx context.Context) ([]library.Member, error) {
	return s.store.ListMembers(ctx)
}

// AddBook catalogs a new title; its available counter starts at the total.
func (s *Service) AddBook(ctx context.Context, book library.Book) (uuid.UUID, error) {
	return s.store.CreateBook(ctx, book)
}

// GetBook returns one book.
func (s *Service) GetBook(ctx context.Context, bookID uuid.UUID) (library.Book, error) {
	return s.store.GetBook(ctx, bookID)
}

// ListBooks returns all books with author names resolved.
func (s *Service) ListBooks(ctx context.Context) ([]library.BookListing, error) {
	return s.store.ListBooks(ctx)
}

// UpdateBook updates descriptive fields; a changed total reconciles the
// available counter against open loans in one atomic store statement.
func (s *Service) UpdateBook(ctx context.Context, book library.Book) error {
	return s.store.UpdateBook(ctx, book)
}

// DeleteBook removes a book without borrowing history.
func (s *Service) DeleteBook(ctx context.Context, bookID uuid.UUID) error {
	return s.store.DeleteBook(ctx, bookID)
}

// Authors, publishers and genres are name-only labels; the service is a
// pass-through over the store.

func (s *Service) AddAuthor(ctx context.Context, name string) (uuid.UUID, error) {
	return s.store.CreateAuthor(ctx, name)
}

func (s *Service) RenameAuthor(ctx context.Context, authorID uuid.UUID, name string) error {
	return s.store.RenameAuthor(ctx, authorID, name)
}

func (s *Service) DeleteAuthor(ctx context.Context, authorID uuid.UUID) error {
	return s.store.DeleteAuthor(ctx, authorID)
}

func (s *Service) ListAuthors(ctx context.Context) ([]library.Author, error) {
	return s.store.ListAuthors(ctx)
}

func (s *Service) AddPublisher(ctx context.Context, name string) (uuid.UUID, error) {
	return s.store.CreatePublisher(ctx, name)
}

func (s *Service) RenamePublisher(ctx context.Context, publisherID uuid.UUID, name string) error {
	return s.store.RenamePublisher(ctx, publisherID, name)
}

func (s *Service) DeletePublisher(ctx context.Context, publisherID uuid.UUID) error {
	return s.store.DeletePublisher(ctx, publisherID)
}

func (s *Service) ListPublishers(ctx context.Context) ([]library.Publisher, error) {
	return s.store.ListPublishers(ctx)
}

func (s *Service) AddGenre(ctx context.Context, name string) (uuid.UUID, error) {
	return s.store.CreateGenre(ctx, name)
}

func (s *Service) RenameGenre(ctx context.Context, genreID uuid.UUID, name string) error {
	return s.store.RenameGenre(ctx, genreID, name)
}

func (s *Service) DeleteGenre(ctx context.Context, genreID uuid.UUID) error {
	return s.store.DeleteGenre(ctx, genreID)
}

func (s *Service) ListGenres(ctx context.Context) ([]library.Genre, error) {
	return s.store.ListGenres(ctx)
}
