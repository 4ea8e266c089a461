package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

func createTestUser(t *testing.T, users repository.UserRepository, name string) int64 {
	t.Helper()
	id, err := users.Create(context.Background(), &domain.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "h",
	})
	require.NoError(t, err)
	return id
}

func TestAPIKeyRepositoryCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	keys := NewAPIKeyRepository(db)
	ctx := context.Background()

	userID := createTestUser(t, users, "alice")

	key := &domain.APIKey{UserID: userID, KeyValue: "abc123", Description: "ci"}
	id, err := keys.Create(ctx, key)
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := keys.GetByValue(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, userID, got.UserID)
	require.Equal(t, "ci", got.Description)
	require.False(t, got.Revoked)
	require.Nil(t, got.LastUsed)

	_, err = keys.GetByValue(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAPIKeyRepositoryUniqueValue(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	keys := NewAPIKeyRepository(db)
	ctx := context.Background()

	userID := createTestUser(t, users, "alice")

	_, err := keys.Create(ctx, &domain.APIKey{UserID: userID, KeyValue: "abc123"})
	require.NoError(t, err)
	_, err = keys.Create(ctx, &domain.APIKey{UserID: userID, KeyValue: "abc123"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestAPIKeyRepositoryTouchLastUsedMonotonic(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	keys := NewAPIKeyRepository(db)
	ctx := context.Background()

	userID := createTestUser(t, users, "alice")
	key := &domain.APIKey{UserID: userID, KeyValue: "abc123"}
	_, err := keys.Create(ctx, key)
	require.NoError(t, err)

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)

	require.NoError(t, keys.TouchLastUsed(ctx, key.ID, first))
	require.NoError(t, keys.TouchLastUsed(ctx, key.ID, second))

	got, err := keys.GetByValue(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, got.LastUsed)
	require.True(t, got.LastUsed.Equal(second))

	// An out-of-order touch never moves the timestamp backwards.
	require.NoError(t, keys.TouchLastUsed(ctx, key.ID, first))
	got, err = keys.GetByValue(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, got.LastUsed.Equal(second))
}

func TestAPIKeyRepositoryRevoke(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	keys := NewAPIKeyRepository(db)
	ctx := context.Background()

	userID := createTestUser(t, users, "alice")
	key := &domain.APIKey{UserID: userID, KeyValue: "abc123"}
	_, err := keys.Create(ctx, key)
	require.NoError(t, err)

	require.NoError(t, keys.Revoke(ctx, key.ID))

	got, err := keys.GetByValue(ctx, "abc123")
	require.NoError(t, err)
	require.True(t, got.Revoked)

	require.ErrorIs(t, keys.Revoke(ctx, 999), repository.ErrNotFound)
}

func TestAPIKeyRepositoryListAndDeleteByUser(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	keys := NewAPIKeyRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")

	for _, value := range []string{"k1", "k2"} {
		_, err := keys.Create(ctx, &domain.APIKey{UserID: alice, KeyValue: value})
		require.NoError(t, err)
	}
	_, err := keys.Create(ctx, &domain.APIKey{UserID: bob, KeyValue: "k3"})
	require.NoError(t, err)

	listed, err := keys.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, listed, 2)

	require.NoError(t, keys.DeleteByUser(ctx, alice))
	listed, err = keys.ListByUser(ctx, alice)
	require.NoError(t, err)
	require.Empty(t, listed)

	listed, err = keys.ListByUser(ctx, bob)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}
