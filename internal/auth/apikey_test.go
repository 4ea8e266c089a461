package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskboard/internal/domain"
)

func newTestValidator(users *fakeUsers, keys *fakeKeys) *APIKeyValidator {
	return NewAPIKeyValidator(keys, users, quietLogger())
}

func TestAPIKeyValidate(t *testing.T) {
	users := &fakeUsers{byID: map[int64]*domain.User{
		7: {ID: 7, Username: "alice", Email: "alice@example.com"},
	}}
	keys := &fakeKeys{byValue: map[string]*domain.APIKey{
		"abc123": {ID: 1, UserID: 7, KeyValue: "abc123"},
	}}
	v := newTestValidator(users, keys)

	user, err := v.Validate(context.Background(), "abc123")
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)
	require.Len(t, keys.touched, 1)
}

func TestAPIKeyValidateAbsent(t *testing.T) {
	v := newTestValidator(&fakeUsers{}, &fakeKeys{})

	_, err := v.Validate(context.Background(), "")
	require.ErrorIs(t, err, ErrAPIKeyAbsent)
}

func TestAPIKeyValidateUnknown(t *testing.T) {
	v := newTestValidator(&fakeUsers{}, &fakeKeys{byValue: map[string]*domain.APIKey{}})

	_, err := v.Validate(context.Background(), "never-issued")
	require.ErrorIs(t, err, ErrAPIKeyInvalid)
}

func TestAPIKeyValidateRevoked(t *testing.T) {
	users := &fakeUsers{byID: map[int64]*domain.User{7: {ID: 7}}}
	keys := &fakeKeys{byValue: map[string]*domain.APIKey{
		"abc123": {ID: 1, UserID: 7, KeyValue: "abc123", Revoked: true},
	}}
	v := newTestValidator(users, keys)

	// Revocation is terminal: every attempt fails the same way.
	for i := 0; i < 3; i++ {
		_, err := v.Validate(context.Background(), "abc123")
		require.ErrorIs(t, err, ErrAPIKeyRevoked)
	}
	require.Empty(t, keys.touched)
}

func TestAPIKeyValidateOrphaned(t *testing.T) {
	users := &fakeUsers{byID: map[int64]*domain.User{}}
	keys := &fakeKeys{byValue: map[string]*domain.APIKey{
		"abc123": {ID: 1, UserID: 99, KeyValue: "abc123"},
	}}
	v := newTestValidator(users, keys)

	_, err := v.Validate(context.Background(), "abc123")
	require.ErrorIs(t, err, ErrAPIKeyOrphaned)
	require.False(t, IsStoreError(err))
}

func TestAPIKeyValidateStoreFailure(t *testing.T) {
	keys := &fakeKeys{getErr: errStoreDown}
	v := newTestValidator(&fakeUsers{}, keys)

	_, err := v.Validate(context.Background(), "abc123")
	require.True(t, IsStoreError(err))
	require.ErrorIs(t, err, errStoreDown)
}

func TestAPIKeyValidateTouchFailureStillAuthenticates(t *testing.T) {
	users := &fakeUsers{byID: map[int64]*domain.User{7: {ID: 7}}}
	keys := &fakeKeys{
		byValue:  map[string]*domain.APIKey{"abc123": {ID: 1, UserID: 7, KeyValue: "abc123"}},
		touchErr: errStoreDown,
	}
	v := newTestValidator(users, keys)

	user, err := v.Validate(context.Background(), "abc123")
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)
}

func TestAPIKeyValidateTouchUsesCurrentTime(t *testing.T) {
	users := &fakeUsers{byID: map[int64]*domain.User{7: {ID: 7}}}
	keys := &fakeKeys{byValue: map[string]*domain.APIKey{
		"abc123": {ID: 1, UserID: 7, KeyValue: "abc123"},
	}}
	v := newTestValidator(users, keys)

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)
	times := []time.Time{first, second}
	v.now = func() time.Time {
		t := times[0]
		if len(times) > 1 {
			times = times[1:]
		}
		return t
	}

	_, err := v.Validate(context.Background(), "abc123")
	require.NoError(t, err)
	_, err = v.Validate(context.Background(), "abc123")
	require.NoError(t, err)

	require.Len(t, keys.touched, 2)
	require.True(t, !keys.touched[1].Before(keys.touched[0]))
}
