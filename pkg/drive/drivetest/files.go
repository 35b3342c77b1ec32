package drivetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

func (suite *StoreTestSuite) runFileTests(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerSeesOwnFile", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		found, err := store.FileByID(ctx, file.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "a.txt", found.Name)
	})

	t.Run("CreateAssignsIdentity", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")

		created, err := store.CreateFile(ctx, &drive.FileItem{
			Name:    "fresh.txt",
			Type:    drive.TypeFile,
			Size:    10,
			OwnerID: owner.ID,
		})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID, "store must assign an ID")
		assert.False(t, created.CreatedAt.IsZero(), "store must stamp CreatedAt")
		assert.False(t, created.ModifiedAt.IsZero(), "store must stamp ModifiedAt")

		found, err := store.FileByID(ctx, created.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "fresh.txt", found.Name)
	})

	t.Run("DuplicateIDConflicts", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		_, err := store.CreateFile(ctx, &drive.FileItem{
			ID:      file.ID,
			Name:    "b.txt",
			Type:    drive.TypeFile,
			OwnerID: owner.ID,
		})
		assert.True(t, drive.IsCode(err, drive.ErrConflict), "expected conflict, got %v", err)
	})

	t.Run("StrangerGetsNotFound", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		stranger := createTestUser(t, store, "stranger@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		_, err := store.FileByID(ctx, file.ID, stranger.ID)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound),
			"invisible items must be indistinguishable from absent ones")
	})

	t.Run("SharedUserSeesFile", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		friend := createTestUser(t, store, "friend@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		entry := drive.ShareEntry{UserID: friend.ID, Permission: drive.PermissionView}
		require.NoError(t, store.SetShare(ctx, file.ID, owner.ID, entry))

		found, err := store.FileByID(ctx, file.ID, friend.ID)
		require.NoError(t, err)
		assert.Equal(t, file.ID, found.ID)
	})

	t.Run("TrashedFileHiddenFromNormalLookup", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		require.NoError(t, store.SoftDelete(ctx, file.ID, owner.ID, time.Now().UTC()))

		_, err := store.FileByID(ctx, file.ID, owner.ID)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))

		// The trash-scoped lookup still sees it.
		trashed, err := store.FileForOwner(ctx, file.ID, owner.ID, true)
		require.NoError(t, err)
		assert.True(t, trashed.IsTrashed)
		require.NotNil(t, trashed.TrashedAt)
	})

	t.Run("UpdateRenamesAndBumpsModified", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		name := "b.txt"
		updated, err := store.UpdateFile(ctx, file.ID, owner.ID, drive.FileUpdate{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "b.txt", updated.Name)
		assert.False(t, updated.ModifiedAt.Before(file.ModifiedAt))
	})

	t.Run("UpdateMovesToRoot", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		folder := createTestFolder(t, store, owner.ID, "docs", nil)
		file := createTestFile(t, store, owner.ID, "a.txt", &folder.ID, 10)

		updated, err := store.UpdateFile(ctx, file.ID, owner.ID, drive.FileUpdate{SetParent: true, ParentID: nil})
		require.NoError(t, err)
		assert.Nil(t, updated.ParentID)
	})

	t.Run("UpdateRequiresOwnership", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		friend := createTestUser(t, store, "friend@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		// Even an "edit" share grants no mutation rights.
		entry := drive.ShareEntry{UserID: friend.ID, Permission: drive.PermissionEdit}
		require.NoError(t, store.SetShare(ctx, file.ID, owner.ID, entry))

		name := "b.txt"
		_, err := store.UpdateFile(ctx, file.ID, friend.ID, drive.FileUpdate{Name: &name})
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})

	t.Run("DoubleTrashFails", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		require.NoError(t, store.SoftDelete(ctx, file.ID, owner.ID, time.Now().UTC()))
		err := store.SoftDelete(ctx, file.ID, owner.ID, time.Now().UTC())
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})

	t.Run("RestoreReactivates", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		require.NoError(t, store.SoftDelete(ctx, file.ID, owner.ID, time.Now().UTC()))
		require.NoError(t, store.RestoreFile(ctx, file.ID, owner.ID))

		found, err := store.FileByID(ctx, file.ID, owner.ID)
		require.NoError(t, err)
		assert.False(t, found.IsTrashed)
		assert.Nil(t, found.TrashedAt)
	})

	t.Run("HardDeleteRemovesRecord", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		removed, err := store.HardDelete(ctx, file.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, file.ID, removed.ID)
		assert.Equal(t, file.Content, removed.Content)

		_, err = store.FileForOwner(ctx, file.ID, owner.ID, true)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})

	t.Run("HardDeleteWorksOnTrashed", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		require.NoError(t, store.SoftDelete(ctx, file.ID, owner.ID, time.Now().UTC()))

		_, err := store.HardDelete(ctx, file.ID, owner.ID)
		require.NoError(t, err)
	})

	t.Run("HardDeleteRequiresOwnership", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		stranger := createTestUser(t, store, "stranger@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		_, err := store.HardDelete(ctx, file.ID, stranger.ID)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})

	t.Run("ReturnedItemsAreCopies", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 10)

		first, err := store.FileByID(ctx, file.ID, owner.ID)
		require.NoError(t, err)
		first.Name = "mutated"
		first.SharedWith = append(first.SharedWith, drive.ShareEntry{UserID: uuid.New()})

		second, err := store.FileByID(ctx, file.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, "a.txt", second.Name)
		assert.Empty(t, second.SharedWith)
	})
}
