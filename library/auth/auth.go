// Package auth is the credential-verification collaborator. It compares
// bcrypt hashes and issues signed session tokens; plaintext credentials are
// never stored or compared.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/haslett/library-circulation-go/library"
)

// Session roles.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

const defaultTokenTTL = 12 * time.Hour

// ErrInvalidCredentials is returned for unknown accounts and wrong
// passwords alike, so callers cannot probe which of the two failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialStore is the slice of the relational store the verifier needs.
type CredentialStore interface {
	GetLibrarianByEmail(ctx context.Context, email string) (library.Librarian, error)
	GetMemberByEmail(ctx context.Context, email string) (library.Member, error)
}

// Session is the result of a successful login.
type Session struct {
	Role  string
	Name  string
	Token string
}

// Claims are the JWT claims carried by a session token.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier checks credentials against stored bcrypt hashes. Librarians are
// tried first, then members, matching the login precedence of the admin UI.
type Verifier struct {
	store    CredentialStore
	secret   []byte
	tokenTTL time.Duration
	clock    func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTokenTTL sets the session token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(v *Verifier) {
		v.tokenTTL = ttl
	}
}

// WithClock sets the time source, used by tests for deterministic expiry.
func WithClock(clock func() time.Time) Option {
	return func(v *Verifier) {
		v.clock = clock
	}
}

// NewVerifier creates a Verifier signing session tokens with secret.
func NewVerifier(store CredentialStore, secret []byte, opts ...Option) *Verifier {
	verifier := &Verifier{
		store:    store,
		secret:   secret,
		tokenTTL: defaultTokenTTL,
		clock:    time.Now,
	}

	for _, opt := range opts {
		opt(verifier)
	}

	return verifier
}

// Login verifies the credentials and returns a session with a signed token.
// Store-connectivity failures pass through; everything else collapses into
// ErrInvalidCredentials.
func (v *Verifier) Login(ctx context.Context, email, password string) (Session, error) {
	librarian, librarianErr := v.store.GetLibrarianByEmail(ctx, email)
	if librarianErr == nil {
		if compareErr := CompareHashAndPassword(librarian.PasswordHash, password); compareErr != nil {
			return Session{}, ErrInvalidCredentials
		}

		return v.buildSession(RoleAdmin, librarian.FirstName)
	}
	if errors.Is(librarianErr, library.ErrStoreUnavailable) {
		return Session{}, librarianErr
	}

	member, memberErr := v.store.GetMemberByEmail(ctx, email)
	if memberErr != nil {
		if errors.Is(memberErr, library.ErrStoreUnavailable) {
			return Session{}, memberErr
		}

		return Session{}, ErrInvalidCredentials
	}

	if compareErr := CompareHashAndPassword(member.PasswordHash, password); compareErr != nil {
		return Session{}, ErrInvalidCredentials
	}

	return v.buildSession(RoleCustomer, member.FullName())
}

// ParseToken validates a session token and returns its claims.
func (v *Verifier) ParseToken(token string) (Claims, error) {
	var claims Claims

	parsed, parseErr := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if parseErr != nil || !parsed.Valid {
		return Claims{}, ErrInvalidCredentials
	}

	return claims, nil
}

func (v *Verifier) buildSession(role, name string) (Session, error) {
	now := v.clock()

	claims := Claims{
		Role: role,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.tokenTTL)),
			Subject:   name,
		},
	}

	token, signErr := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if signErr != nil {
		return Session{}, signErr
	}

	return Session{Role: role, Name: name, Token: token}, nil
}

// HashPassword produces a bcrypt hash for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CompareHashAndPassword checks a plaintext password against a stored
// bcrypt hash.
func CompareHashAndPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
