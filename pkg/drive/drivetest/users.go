package drivetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

func (suite *StoreTestSuite) runUserTests(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateAndLookup", func(t *testing.T) {
		store := suite.newStore(t)
		user := createTestUser(t, store, "alice@example.com")

		byEmail, err := store.UserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byID, err := store.UserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)
	})

	t.Run("EmailLookupIsCaseInsensitive", func(t *testing.T) {
		store := suite.newStore(t)
		user := createTestUser(t, store, "alice@example.com")

		found, err := store.UserByEmail(ctx, "Alice@Example.COM")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
	})

	t.Run("DuplicateEmailConflicts", func(t *testing.T) {
		store := suite.newStore(t)
		createTestUser(t, store, "alice@example.com")

		dup := &drive.User{ID: uuid.New(), Email: "Alice@example.com", StorageLimit: 1}
		_, err := store.CreateUser(ctx, dup)
		assert.True(t, drive.IsCode(err, drive.ErrConflict), "expected conflict, got %v", err)
	})

	t.Run("CreateAssignsIdentity", func(t *testing.T) {
		store := suite.newStore(t)

		created, err := store.CreateUser(ctx, &drive.User{
			Email:        "fresh@example.com",
			Name:         "Fresh User",
			PasswordHash: "x",
			StorageLimit: drive.DefaultStorageLimit,
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID, "store must assign an ID")
		assert.False(t, created.CreatedAt.IsZero(), "store must stamp CreatedAt")

		found, err := store.UserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "fresh@example.com", found.Email)
	})

	t.Run("UnknownUserNotFound", func(t *testing.T) {
		store := suite.newStore(t)

		_, err := store.UserByID(ctx, uuid.New())
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))

		_, err = store.UserByEmail(ctx, "nobody@example.com")
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})

	t.Run("ReserveWithinLimit", func(t *testing.T) {
		store := suite.newStore(t)
		user := createTestUserWithLimit(t, store, "bob@example.com", 1000)

		require.NoError(t, store.ReserveStorage(ctx, user.ID, 600))

		current, err := store.UserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(600), current.StorageUsed)
	})

	t.Run("ReserveBeyondLimitFails", func(t *testing.T) {
		store := suite.newStore(t)
		user := createTestUserWithLimit(t, store, "bob@example.com", 1000)

		require.NoError(t, store.ReserveStorage(ctx, user.ID, 600))

		err := store.ReserveStorage(ctx, user.ID, 500)
		assert.True(t, drive.IsCode(err, drive.ErrQuotaExceeded), "expected quota exceeded, got %v", err)

		// The failed reservation must not change usage.
		current, err := store.UserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(600), current.StorageUsed)
	})

	t.Run("ReserveExactLimitSucceeds", func(t *testing.T) {
		store := suite.newStore(t)
		user := createTestUserWithLimit(t, store, "bob@example.com", 1000)

		require.NoError(t, store.ReserveStorage(ctx, user.ID, 1000))
	})

	t.Run("ReleaseClampsAtZero", func(t *testing.T) {
		store := suite.newStore(t)
		user := createTestUserWithLimit(t, store, "bob@example.com", 1000)

		require.NoError(t, store.ReserveStorage(ctx, user.ID, 100))
		require.NoError(t, store.ReleaseStorage(ctx, user.ID, 500))

		current, err := store.UserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), current.StorageUsed, "usage must never go negative")
	})
}
