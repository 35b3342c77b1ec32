package drivetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

func (suite *StoreTestSuite) runSharingTests(t *testing.T) {
	ctx := context.Background()

	t.Run("SetShareIsIdempotent", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		friend := createTestUser(t, store, "friend@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 1)

		view := drive.ShareEntry{UserID: friend.ID, Permission: drive.PermissionView}
		require.NoError(t, store.SetShare(ctx, file.ID, owner.ID, view))
		require.NoError(t, store.SetShare(ctx, file.ID, owner.ID, view))

		current, err := store.FileForOwner(ctx, file.ID, owner.ID, false)
		require.NoError(t, err)
		require.Len(t, current.SharedWith, 1, "re-sharing must not duplicate entries")
		assert.Equal(t, drive.PermissionView, current.SharedWith[0].Permission)
	})

	t.Run("ResharingReplacesPermission", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		friend := createTestUser(t, store, "friend@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 1)

		require.NoError(t, store.SetShare(ctx, file.ID, owner.ID,
			drive.ShareEntry{UserID: friend.ID, Permission: drive.PermissionView}))
		require.NoError(t, store.SetShare(ctx, file.ID, owner.ID,
			drive.ShareEntry{UserID: friend.ID, Permission: drive.PermissionEdit}))

		current, err := store.FileForOwner(ctx, file.ID, owner.ID, false)
		require.NoError(t, err)
		require.Len(t, current.SharedWith, 1)
		assert.Equal(t, drive.PermissionEdit, current.SharedWith[0].Permission)
	})

	t.Run("SetShareRequiresOwnership", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		stranger := createTestUser(t, store, "stranger@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 1)

		err := store.SetShare(ctx, file.ID, stranger.ID,
			drive.ShareEntry{UserID: stranger.ID, Permission: drive.PermissionView})
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})

	t.Run("RemoveShareRevokesVisibility", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		friend := createTestUser(t, store, "friend@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 1)

		require.NoError(t, store.SetShare(ctx, file.ID, owner.ID,
			drive.ShareEntry{UserID: friend.ID, Permission: drive.PermissionView}))
		require.NoError(t, store.RemoveShare(ctx, file.ID, owner.ID, friend.ID))

		_, err := store.FileByID(ctx, file.ID, friend.ID)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})

	t.Run("RemoveAbsentShareIsNoop", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		friend := createTestUser(t, store, "friend@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 1)

		assert.NoError(t, store.RemoveShare(ctx, file.ID, owner.ID, friend.ID))
	})
}
