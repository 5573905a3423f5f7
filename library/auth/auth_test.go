package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haslett/library-circulation-go/library"
	"github.com/haslett/library-circulation-go/library/auth"
)

type fakeCredentialStore struct {
	librarians map[string]library.Librarian
	members    map[string]library.Member
	downErr    error
}

func (f *fakeCredentialStore) GetLibrarianByEmail(_ context.Context, email string) (library.Librarian, error) {
	if f.downErr != nil {
		return library.Librarian{}, f.downErr
	}

	librarian, ok := f.librarians[email]
	if !ok {
		return library.Librarian{}, library.ErrLibrarianNotFound
	}

	return librarian, nil
}

func (f *fakeCredentialStore) GetMemberByEmail(_ context.Context, email string) (library.Member, error) {
	if f.downErr != nil {
		return library.Member{}, f.downErr
	}

	member, ok := f.members[email]
	if !ok {
		return library.Member{}, library.ErrMemberNotFound
	}

	return member, nil
}

func storeWithAccounts(t *testing.T) *fakeCredentialStore {
	t.Helper()

	librarianHash, err := auth.HashPassword("admin secret")
	require.NoError(t, err)

	memberHash, err := auth.HashPassword("member secret")
	require.NoError(t, err)

	return &fakeCredentialStore{
		librarians: map[string]library.Librarian{
			"admin@library.test": {FirstName: "Grace", Email: "admin@library.test", PasswordHash: librarianHash},
		},
		members: map[string]library.Member{
			"ada@library.test": {FirstName: "Ada", LastName: "Lovelace", Email: "ada@library.test", PasswordHash: memberHash},
		},
	}
}

func Test_HashPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	assert.NotEqual(t, "s3cret", hash, "the hash must not be the plaintext")
	assert.NoError(t, auth.CompareHashAndPassword(hash, "s3cret"))
	assert.Error(t, auth.CompareHashAndPassword(hash, "wrong"))
}

func Test_Login_ShouldIssueAnAdminSession_ForALibrarian(t *testing.T) {
	verifier := auth.NewVerifier(storeWithAccounts(t), []byte("signing-key"))

	session, err := verifier.Login(context.Background(), "admin@library.test", "admin secret")
	require.NoError(t, err)

	assert.Equal(t, auth.RoleAdmin, session.Role)
	assert.Equal(t, "Grace", session.Name)
	assert.NotEmpty(t, session.Token)
}

func Test_Login_ShouldIssueACustomerSession_ForAMember(t *testing.T) {
	verifier := auth.NewVerifier(storeWithAccounts(t), []byte("signing-key"))

	session, err := verifier.Login(context.Background(), "ada@library.test", "member secret")
	require.NoError(t, err)

	assert.Equal(t, auth.RoleCustomer, session.Role)
	assert.Equal(t, "Ada Lovelace", session.Name)
}

func Test_Login_ShouldFail_WithAWrongPassword(t *testing.T) {
	verifier := auth.NewVerifier(storeWithAccounts(t), []byte("signing-key"))

	_, err := verifier.Login(context.Background(), "ada@library.test", "not the password")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func Test_Login_ShouldFail_ForAnUnknownAccount(t *testing.T) {
	verifier := auth.NewVerifier(storeWithAccounts(t), []byte("signing-key"))

	_, err := verifier.Login(context.Background(), "nobody@library.test", "whatever")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func Test_Login_ShouldPassThroughStoreOutages(t *testing.T) {
	store := storeWithAccounts(t)
	store.downErr = library.ErrStoreUnavailable

	verifier := auth.NewVerifier(store, []byte("signing-key"))

	_, err := verifier.Login(context.Background(), "ada@library.test", "member secret")
	assert.ErrorIs(t, err, library.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}

func Test_ParseToken_ShouldRoundTripTheClaims(t *testing.T) {
	verifier := auth.NewVerifier(storeWithAccounts(t), []byte("signing-key"))

	session, err := verifier.Login(context.Background(), "admin@library.test", "admin secret")
	require.NoError(t, err)

	claims, parseErr := verifier.ParseToken(session.Token)
	require.NoError(t, parseErr)

	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, "Grace", claims.Name)
}

func Test_ParseToken_ShouldRejectTokensSignedWithAnotherSecret(t *testing.T) {
	store := storeWithAccounts(t)
	issuer := auth.NewVerifier(store, []byte("signing-key"))
	other := auth.NewVerifier(store, []byte("another-key"))

	session, err := issuer.Login(context.Background(), "admin@library.test", "admin secret")
	require.NoError(t, err)

	_, parseErr := other.ParseToken(session.Token)
	assert.ErrorIs(t, parseErr, auth.ErrInvalidCredentials)
}

func Test_ParseToken_ShouldRejectExpiredTokens(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)

	verifier := auth.NewVerifier(
		storeWithAccounts(t),
		[]byte("signing-key"),
		auth.WithClock(func() time.Time { return past }),
		auth.WithTokenTTL(time.Hour),
	)

	session, err := verifier.Login(context.Background(), "admin@library.test", "admin secret")
	require.NoError(t, err)

	_, parseErr := verifier.ParseToken(session.Token)
	assert.ErrorIs(t, parseErr, auth.ErrInvalidCredentials)
}
