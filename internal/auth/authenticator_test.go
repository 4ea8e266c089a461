package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskboard/internal/domain"
)

func newTestAuthenticator(users *fakeUsers, keys *fakeKeys) (*Authenticator, *TokenCodec) {
	codec := NewTokenCodec([]byte("test-secret"), 30*time.Minute)
	validator := NewAPIKeyValidator(keys, users, quietLogger())
	return NewAuthenticator(codec, validator, users, quietLogger()), codec
}

func twoUserFixture() (*fakeUsers, *fakeKeys) {
	users := &fakeUsers{byID: map[int64]*domain.User{
		1: {ID: 1, Username: "alice"},
		2: {ID: 2, Username: "bob"},
	}}
	keys := &fakeKeys{byValue: map[string]*domain.APIKey{
		"bobs-key": {ID: 10, UserID: 2, KeyValue: "bobs-key"},
	}}
	return users, keys
}

func TestAuthenticateTokenPriority(t *testing.T) {
	users, keys := twoUserFixture()
	a, codec := newTestAuthenticator(users, keys)

	token, err := codec.Issue(1)
	require.NoError(t, err)

	// Valid token for alice and valid key for bob: the token wins.
	user, err := a.Authenticate(context.Background(), Credentials{Token: token, APIKey: "bobs-key"})
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)
	require.Empty(t, keys.touched)
}

func TestAuthenticateFallbackToAPIKey(t *testing.T) {
	users, keys := twoUserFixture()
	a, codec := newTestAuthenticator(users, keys)

	expired, err := codec.IssueWithTTL(1, -time.Minute)
	require.NoError(t, err)

	user, err := a.Authenticate(context.Background(), Credentials{Token: expired, APIKey: "bobs-key"})
	require.NoError(t, err)
	require.Equal(t, int64(2), user.ID)
}

func TestAuthenticateAPIKeyOnlyCredential(t *testing.T) {
	users, keys := twoUserFixture()
	a, _ := newTestAuthenticator(users, keys)

	user, err := a.Authenticate(context.Background(), Credentials{APIKey: "bobs-key"})
	require.NoError(t, err)
	require.Equal(t, int64(2), user.ID)
}

func TestAuthenticateNoCredential(t *testing.T) {
	users, keys := twoUserFixture()
	a, _ := newTestAuthenticator(users, keys)

	_, err := a.Authenticate(context.Background(), Credentials{})
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestAuthenticateCollapsesFailureReasons(t *testing.T) {
	users, keys := twoUserFixture()
	keys.byValue["revoked-key"] = &domain.APIKey{ID: 11, UserID: 2, KeyValue: "revoked-key", Revoked: true}
	a, _ := newTestAuthenticator(users, keys)

	cases := []Credentials{
		{Token: "garbage"},
		{Token: "garbage", APIKey: "unknown"},
		{APIKey: "unknown"},
		{APIKey: "revoked-key"},
	}
	for _, creds := range cases {
		_, err := a.Authenticate(context.Background(), creds)
		require.ErrorIs(t, err, ErrInvalidCredentials, "creds %+v", creds)
		require.NotErrorIs(t, err, ErrAPIKeyRevoked)
	}
}

func TestAuthenticateUnknownSubject(t *testing.T) {
	users, keys := twoUserFixture()
	a, codec := newTestAuthenticator(users, keys)

	token, err := codec.Issue(999)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), Credentials{Token: token})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateStoreFailureSurfaces(t *testing.T) {
	users, keys := twoUserFixture()
	users.getErr = errStoreDown
	a, codec := newTestAuthenticator(users, keys)

	token, err := codec.Issue(1)
	require.NoError(t, err)

	_, err = a.Authenticate(context.Background(), Credentials{Token: token})
	require.True(t, IsStoreError(err))
	require.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateTokenEntryPoint(t *testing.T) {
	users, keys := twoUserFixture()
	a, codec := newTestAuthenticator(users, keys)

	token, err := codec.Issue(1)
	require.NoError(t, err)

	user, err := a.AuthenticateToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)

	// Fine-grained reasons surface here, and there is no key fallback.
	expired, err := codec.IssueWithTTL(1, -time.Minute)
	require.NoError(t, err)
	_, err = a.AuthenticateToken(context.Background(), expired)
	require.ErrorIs(t, err, ErrTokenExpired)

	_, err = a.AuthenticateToken(context.Background(), "")
	require.ErrorIs(t, err, ErrNoCredential)
}

func TestAuthenticateAPIKeyEntryPoint(t *testing.T) {
	users, keys := twoUserFixture()
	keys.byValue["revoked-key"] = &domain.APIKey{ID: 11, UserID: 2, KeyValue: "revoked-key", Revoked: true}
	a, _ := newTestAuthenticator(users, keys)

	user, err := a.AuthenticateAPIKey(context.Background(), "bobs-key")
	require.NoError(t, err)
	require.Equal(t, int64(2), user.ID)

	_, err = a.AuthenticateAPIKey(context.Background(), "revoked-key")
	require.ErrorIs(t, err, ErrAPIKeyRevoked)

	_, err = a.AuthenticateAPIKey(context.Background(), "")
	require.ErrorIs(t, err, ErrNoCredential)
}
