package trash

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdrive/nimbus/pkg/content"
	contentmem "github.com/nimbusdrive/nimbus/pkg/content/memory"
	"github.com/nimbusdrive/nimbus/pkg/drive"
	"github.com/nimbusdrive/nimbus/pkg/drive/memory"
	"github.com/nimbusdrive/nimbus/pkg/metrics"
	"github.com/nimbusdrive/nimbus/pkg/quota"
)

type fixture struct {
	service *Service
	store   drive.Store
	content *contentmem.Store
	quota   *quota.Accountant
}

func newFixture(t *testing.T) *fixture {
	store := memory.NewStore()
	t.Cleanup(func() { store.Close() })

	contentStore := contentmem.NewStore()
	m := metrics.NewDriveMetrics()
	accountant := quota.NewAccountant(store, m)
	return &fixture{
		service: NewService(store, contentStore, accountant, m),
		store:   store,
		content: contentStore,
		quota:   accountant,
	}
}

func (f *fixture) seedUser(t *testing.T, email string) *drive.User {
	t.Helper()
	user, err := f.store.CreateUser(context.Background(), &drive.User{
		Email:        email,
		Name:         "Test User",
		StorageLimit: drive.DefaultStorageLimit,
	})
	require.NoError(t, err)
	return user
}

// seedFile creates a file with backing content and charges the owner's
// quota, the way an upload would.
func (f *fixture) seedFile(t *testing.T, ownerID uuid.UUID, name string, parentID *uuid.UUID) *drive.FileItem {
	t.Helper()
	ctx := context.Background()

	id := content.NewID()
	size, err := f.content.Write(ctx, id, strings.NewReader("payload"))
	require.NoError(t, err)
	require.NoError(t, f.quota.Reserve(ctx, ownerID, size))

	now := time.Now().UTC()
	item, err := f.store.CreateFile(ctx, &drive.FileItem{
		ID:         uuid.New(),
		Name:       name,
		Type:       drive.TypeFile,
		Size:       size,
		ParentID:   parentID,
		OwnerID:    ownerID,
		Content:    id,
		MimeType:   "text/plain",
		CreatedAt:  now,
		ModifiedAt: now,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) seedFolder(t *testing.T, ownerID uuid.UUID, name string, parentID *uuid.UUID) *drive.FileItem {
	t.Helper()
	now := time.Now().UTC()
	item, err := f.store.CreateFile(context.Background(), &drive.FileItem{
		ID:         uuid.New(),
		Name:       name,
		Type:       drive.TypeFolder,
		ParentID:   parentID,
		OwnerID:    ownerID,
		CreatedAt:  now,
		ModifiedAt: now,
	})
	require.NoError(t, err)
	return item
}

func TestTrash(t *testing.T) {
	ctx := context.Background()

	t.Run("CascadesToSubtreeWithOneStamp", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")

		folder := f.seedFolder(t, owner.ID, "Docs", nil)
		sub := f.seedFolder(t, owner.ID, "2024", &folder.ID)
		file := f.seedFile(t, owner.ID, "report.txt", &sub.ID)

		require.NoError(t, f.service.Trash(ctx, owner.ID, folder.ID))

		top, err := f.store.FileForOwner(ctx, folder.ID, owner.ID, true)
		require.NoError(t, err)
		leaf, err := f.store.FileForOwner(ctx, file.ID, owner.ID, true)
		require.NoError(t, err)

		assert.True(t, top.IsTrashed)
		assert.True(t, leaf.IsTrashed)
		require.NotNil(t, top.TrashedAt)
		require.NotNil(t, leaf.TrashedAt)
		assert.True(t, top.TrashedAt.Equal(*leaf.TrashedAt))
	})

	t.Run("KeepsChargingQuota", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")
		file := f.seedFile(t, owner.ID, "report.txt", nil)

		require.NoError(t, f.service.Trash(ctx, owner.ID, file.ID))

		usage, err := f.quota.Usage(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, file.Size, usage.Used)
	})

	t.Run("NonOwnerRejected", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")
		other := f.seedUser(t, "other@example.com")
		file := f.seedFile(t, owner.ID, "report.txt", nil)

		err := f.service.Trash(ctx, other.ID, file.ID)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})

	t.Run("AlreadyTrashedRejected", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")
		file := f.seedFile(t, owner.ID, "report.txt", nil)

		require.NoError(t, f.service.Trash(ctx, owner.ID, file.ID))
		err := f.service.Trash(ctx, owner.ID, file.ID)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("BringsBackCascadeGroup", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")

		folder := f.seedFolder(t, owner.ID, "Docs", nil)
		file := f.seedFile(t, owner.ID, "report.txt", &folder.ID)

		require.NoError(t, f.service.Trash(ctx, owner.ID, folder.ID))
		require.NoError(t, f.service.Restore(ctx, owner.ID, folder.ID))

		restored, err := f.store.FileByID(ctx, file.ID, owner.ID)
		require.NoError(t, err)
		assert.False(t, restored.IsTrashed)
	})

	t.Run("LeavesSeparatelyTrashedDescendants", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")

		folder := f.seedFolder(t, owner.ID, "Docs", nil)
		old := f.seedFile(t, owner.ID, "old.txt", &folder.ID)
		fresh := f.seedFile(t, owner.ID, "fresh.txt", &folder.ID)

		require.NoError(t, f.service.Trash(ctx, owner.ID, old.ID))
		require.NoError(t, f.service.Trash(ctx, owner.ID, folder.ID))
		require.NoError(t, f.service.Restore(ctx, owner.ID, folder.ID))

		stillTrashed, err := f.store.FileForOwner(ctx, old.ID, owner.ID, true)
		require.NoError(t, err)
		assert.True(t, stillTrashed.IsTrashed)

		back, err := f.store.FileForOwner(ctx, fresh.ID, owner.ID, false)
		require.NoError(t, err)
		assert.False(t, back.IsTrashed)
	})

	t.Run("ReattachesToRootWhenParentStillTrashed", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")

		folder := f.seedFolder(t, owner.ID, "Docs", nil)
		file := f.seedFile(t, owner.ID, "report.txt", &folder.ID)

		require.NoError(t, f.service.Trash(ctx, owner.ID, file.ID))
		require.NoError(t, f.service.Trash(ctx, owner.ID, folder.ID))

		require.NoError(t, f.service.Restore(ctx, owner.ID, file.ID))

		restored, err := f.store.FileByID(ctx, file.ID, owner.ID)
		require.NoError(t, err)
		assert.Nil(t, restored.ParentID)
	})

	t.Run("ActiveItemRejected", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")
		file := f.seedFile(t, owner.ID, "report.txt", nil)

		err := f.service.Restore(ctx, owner.ID, file.ID)
		assert.True(t, drive.IsCode(err, drive.ErrInvalidOperation))
	})
}

func TestPurge(t *testing.T) {
	ctx := context.Background()

	t.Run("ReleasesQuotaAndContent", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")
		file := f.seedFile(t, owner.ID, "report.txt", nil)

		require.NoError(t, f.service.Trash(ctx, owner.ID, file.ID))
		require.NoError(t, f.service.Purge(ctx, owner.ID, file.ID))

		usage, err := f.quota.Usage(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), usage.Used)

		_, err = f.content.Open(ctx, file.Content)
		assert.ErrorIs(t, err, content.ErrContentNotFound)

		_, err = f.store.FileForOwner(ctx, file.ID, owner.ID, true)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))
	})

	t.Run("RemovesWholeSubtree", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")

		folder := f.seedFolder(t, owner.ID, "Docs", nil)
		sub := f.seedFolder(t, owner.ID, "2024", &folder.ID)
		file := f.seedFile(t, owner.ID, "report.txt", &sub.ID)

		require.NoError(t, f.service.Trash(ctx, owner.ID, folder.ID))
		require.NoError(t, f.service.Purge(ctx, owner.ID, folder.ID))

		for _, id := range []uuid.UUID{folder.ID, sub.ID, file.ID} {
			_, err := f.store.FileForOwner(ctx, id, owner.ID, true)
			assert.True(t, drive.IsCode(err, drive.ErrNotFound))
		}
	})

	t.Run("ActiveItemPurgedDirectly", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")
		file := f.seedFile(t, owner.ID, "report.txt", nil)

		// No trash step first: a permanent delete skips the trash.
		require.NoError(t, f.service.Purge(ctx, owner.ID, file.ID))

		_, err := f.store.FileForOwner(ctx, file.ID, owner.ID, true)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))

		usage, err := f.quota.Usage(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), usage.Used)

		_, err = f.content.Open(ctx, file.Content)
		assert.ErrorIs(t, err, content.ErrContentNotFound)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("ShowsOnlyCascadeRoots", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")

		folder := f.seedFolder(t, owner.ID, "Docs", nil)
		f.seedFile(t, owner.ID, "report.txt", &folder.ID)
		loose := f.seedFile(t, owner.ID, "loose.txt", nil)

		require.NoError(t, f.service.Trash(ctx, owner.ID, folder.ID))
		require.NoError(t, f.service.Trash(ctx, owner.ID, loose.ID))

		items, err := f.service.List(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		ids := []uuid.UUID{items[0].ID, items[1].ID}
		assert.Contains(t, ids, folder.ID)
		assert.Contains(t, ids, loose.ID)
	})
}

func TestEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("PurgesEverything", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")

		folder := f.seedFolder(t, owner.ID, "Docs", nil)
		f.seedFile(t, owner.ID, "report.txt", &folder.ID)
		loose := f.seedFile(t, owner.ID, "loose.txt", nil)

		require.NoError(t, f.service.Trash(ctx, owner.ID, folder.ID))
		require.NoError(t, f.service.Trash(ctx, owner.ID, loose.ID))
		require.NoError(t, f.service.Empty(ctx, owner.ID))

		items, err := f.store.ListTrashed(ctx, owner.ID)
		require.NoError(t, err)
		assert.Empty(t, items)

		usage, err := f.quota.Usage(ctx, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), usage.Used)
	})
}

func TestSweeper(t *testing.T) {
	ctx := context.Background()

	t.Run("PurgesOnlyExpiredItems", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")

		expired := f.seedFile(t, owner.ID, "expired.txt", nil)
		fresh := f.seedFile(t, owner.ID, "fresh.txt", nil)

		old := time.Now().UTC().Add(-40 * 24 * time.Hour)
		require.NoError(t, f.store.SoftDelete(ctx, expired.ID, owner.ID, old))
		require.NoError(t, f.service.Trash(ctx, owner.ID, fresh.ID))

		sweeper := NewSweeper(f.service, f.store, metrics.NewDriveMetrics(), SweeperConfig{
			Enabled:   true,
			Retention: 30 * 24 * time.Hour,
		})

		purged, err := sweeper.RunNow(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, purged)

		_, err = f.store.FileForOwner(ctx, expired.ID, owner.ID, true)
		assert.True(t, drive.IsCode(err, drive.ErrNotFound))

		still, err := f.store.FileForOwner(ctx, fresh.ID, owner.ID, true)
		require.NoError(t, err)
		assert.True(t, still.IsTrashed)
	})

	t.Run("ExpiredCascadePurgedOnce", func(t *testing.T) {
		f := newFixture(t)
		owner := f.seedUser(t, "owner@example.com")

		folder := f.seedFolder(t, owner.ID, "Docs", nil)
		f.seedFile(t, owner.ID, "report.txt", &folder.ID)

		require.NoError(t, f.service.Trash(ctx, owner.ID, folder.ID))

		sweeper := NewSweeper(f.service, f.store, metrics.NewDriveMetrics(), SweeperConfig{
			Enabled:   true,
			Retention: time.Nanosecond,
		})

		// The whole cascade is expired; only the root counts as purged.
		time.Sleep(10 * time.Millisecond)
		purged, err := sweeper.RunNow(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, purged)

		items, err := f.store.ListTrashed(ctx, owner.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("StartStop", func(t *testing.T) {
		f := newFixture(t)
		sweeper := NewSweeper(f.service, f.store, metrics.NewDriveMetrics(), SweeperConfig{
			Enabled:  true,
			Interval: time.Hour,
		})

		sweeper.Start()
		stopCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		require.NoError(t, sweeper.Stop(stopCtx))
	})
}
