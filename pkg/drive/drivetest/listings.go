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

func (suite *StoreTestSuite) runListingTests(t *testing.T) {
	ctx := context.Background()

	t.Run("ChildrenOrderedFoldersFirstThenName", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		createTestFile(t, store, owner.ID, "zebra.txt", nil, 1)
		createTestFile(t, store, owner.ID, "alpha.txt", nil, 1)
		createTestFolder(t, store, owner.ID, "work", nil)
		createTestFolder(t, store, owner.ID, "archive", nil)

		items, err := store.ListChildren(ctx, nil, owner.ID)
		require.NoError(t, err)
		require.Len(t, items, 4)

		names := []string{items[0].Name, items[1].Name, items[2].Name, items[3].Name}
		assert.Equal(t, []string{"archive", "work", "alpha.txt", "zebra.txt"}, names)
	})

	t.Run("ChildrenScopedToParent", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		docs := createTestFolder(t, store, owner.ID, "docs", nil)
		inside := createTestFile(t, store, owner.ID, "inside.txt", &docs.ID, 1)
		createTestFile(t, store, owner.ID, "outside.txt", nil, 1)

		items, err := store.ListChildren(ctx, &docs.ID, owner.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, inside.ID, items[0].ID)
	})

	t.Run("ChildrenExcludeTrashed", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		file := createTestFile(t, store, owner.ID, "a.txt", nil, 1)
		createTestFile(t, store, owner.ID, "b.txt", nil, 1)

		require.NoError(t, store.SoftDelete(ctx, file.ID, owner.ID, time.Now().UTC()))

		items, err := store.ListChildren(ctx, nil, owner.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "b.txt", items[0].Name)
	})

	t.Run("ChildrenFilterByVisibility", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		other := createTestUser(t, store, "other@example.com")
		shared := createTestFile(t, store, owner.ID, "shared.txt", nil, 1)
		createTestFile(t, store, owner.ID, "private.txt", nil, 1)

		entry := drive.ShareEntry{UserID: other.ID, Permission: drive.PermissionView}
		require.NoError(t, store.SetShare(ctx, shared.ID, owner.ID, entry))

		items, err := store.ListChildren(ctx, nil, other.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, shared.ID, items[0].ID)
	})

	t.Run("ChildrenOfOwnerIncludesTrashed", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		docs := createTestFolder(t, store, owner.ID, "docs", nil)
		file := createTestFile(t, store, owner.ID, "a.txt", &docs.ID, 1)

		require.NoError(t, store.SoftDelete(ctx, file.ID, owner.ID, time.Now().UTC()))

		active, err := store.ChildrenOfOwner(ctx, docs.ID, owner.ID, false)
		require.NoError(t, err)
		assert.Empty(t, active)

		all, err := store.ChildrenOfOwner(ctx, docs.ID, owner.ID, true)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, file.ID, all[0].ID)
	})

	t.Run("SearchMatchesSubstringCaseInsensitive", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		createTestFile(t, store, owner.ID, "Quarterly Report.pdf", nil, 1)
		createTestFile(t, store, owner.ID, "notes.txt", nil, 1)

		items, err := store.SearchByName(ctx, "report", owner.ID, 50)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Quarterly Report.pdf", items[0].Name)
	})

	t.Run("SearchHonorsLimit", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		createTestFile(t, store, owner.ID, "a-match", nil, 1)
		createTestFile(t, store, owner.ID, "b-match", nil, 1)
		createTestFile(t, store, owner.ID, "c-match", nil, 1)

		items, err := store.SearchByName(ctx, "match", owner.ID, 2)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("SearchExcludesTrashedAndInvisible", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		stranger := createTestUser(t, store, "stranger@example.com")
		file := createTestFile(t, store, owner.ID, "secret-match", nil, 1)

		items, err := store.SearchByName(ctx, "match", stranger.ID, 50)
		require.NoError(t, err)
		assert.Empty(t, items)

		require.NoError(t, store.SoftDelete(ctx, file.ID, owner.ID, time.Now().UTC()))
		items, err = store.SearchByName(ctx, "match", owner.ID, 50)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("RecentListsFilesOnlyNewestFirst", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		createTestFolder(t, store, owner.ID, "folder", nil)
		old := createTestFile(t, store, owner.ID, "old.txt", nil, 1)
		fresh := createTestFile(t, store, owner.ID, "fresh.txt", nil, 1)

		// Renaming bumps ModifiedAt, which is what "recent" sorts on.
		name := "fresh.txt"
		_, err := store.UpdateFile(ctx, fresh.ID, owner.ID, drive.FileUpdate{Name: &name})
		require.NoError(t, err)

		items, err := store.ListRecent(ctx, owner.ID, 10)
		require.NoError(t, err)
		require.Len(t, items, 2, "folders must not appear in recent files")
		assert.Equal(t, fresh.ID, items[0].ID)
		assert.Equal(t, old.ID, items[1].ID)
	})

	t.Run("StarredListsOnlyStarred", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		starred := createTestFile(t, store, owner.ID, "starred.txt", nil, 1)
		createTestFile(t, store, owner.ID, "plain.txt", nil, 1)

		flag := true
		_, err := store.UpdateFile(ctx, starred.ID, owner.ID, drive.FileUpdate{Starred: &flag})
		require.NoError(t, err)

		items, err := store.ListStarred(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, starred.ID, items[0].ID)
	})

	t.Run("TrashOrderedNewestFirstOwnerScoped", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		other := createTestUser(t, store, "other@example.com")
		first := createTestFile(t, store, owner.ID, "first.txt", nil, 1)
		second := createTestFile(t, store, owner.ID, "second.txt", nil, 1)
		foreign := createTestFile(t, store, other.ID, "foreign.txt", nil, 1)

		base := time.Now().UTC()
		require.NoError(t, store.SoftDelete(ctx, first.ID, owner.ID, base))
		require.NoError(t, store.SoftDelete(ctx, second.ID, owner.ID, base.Add(time.Second)))
		require.NoError(t, store.SoftDelete(ctx, foreign.ID, other.ID, base.Add(2*time.Second)))

		items, err := store.ListTrashed(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, second.ID, items[0].ID)
		assert.Equal(t, first.ID, items[1].ID)
	})

	t.Run("TrashedBeforeCutoffSpansOwners", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		other := createTestUser(t, store, "other@example.com")
		old := createTestFile(t, store, owner.ID, "old.txt", nil, 1)
		foreign := createTestFile(t, store, other.ID, "foreign.txt", nil, 1)
		fresh := createTestFile(t, store, owner.ID, "fresh.txt", nil, 1)

		base := time.Now().UTC()
		require.NoError(t, store.SoftDelete(ctx, old.ID, owner.ID, base.Add(-48*time.Hour)))
		require.NoError(t, store.SoftDelete(ctx, foreign.ID, other.ID, base.Add(-72*time.Hour)))
		require.NoError(t, store.SoftDelete(ctx, fresh.ID, owner.ID, base))

		items, err := store.ListTrashedBefore(ctx, base.Add(-24*time.Hour))
		require.NoError(t, err)
		require.Len(t, items, 2)
		ids := []uuid.UUID{items[0].ID, items[1].ID}
		assert.Contains(t, ids, old.ID)
		assert.Contains(t, ids, foreign.ID)
	})

	t.Run("SharedListingExcludesOwnedItems", func(t *testing.T) {
		store := suite.newStore(t)
		owner := createTestUser(t, store, "owner@example.com")
		friend := createTestUser(t, store, "friend@example.com")
		shared := createTestFile(t, store, owner.ID, "shared.txt", nil, 1)
		createTestFile(t, store, friend.ID, "mine.txt", nil, 1)

		entry := drive.ShareEntry{UserID: friend.ID, Permission: drive.PermissionView}
		require.NoError(t, store.SetShare(ctx, shared.ID, owner.ID, entry))

		items, err := store.ListShared(ctx, friend.ID)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, shared.ID, items[0].ID)
	})
}
