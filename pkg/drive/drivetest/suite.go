// Package drivetest provides a conformance test suite for drive.Store
// implementations.
//
// Every backend must pass the same suite, which pins down the parts of
// the Store contract that are easy to get subtly wrong: visibility
// filtering, trash scoping, listing collation, quota atomicity, and
// share idempotency.
//
// Usage:
//
//	suite := &drivetest.StoreTestSuite{
//		NewStore: func(t *testing.T) drive.Store { ... },
//	}
//	suite.Run(t)
package drivetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

// StoreTestSuite runs the drive.Store conformance tests against the
// implementation produced by NewStore.
type StoreTestSuite struct {
	// NewStore returns a fresh, empty store. Called once per subtest so
	// tests never share state.
	NewStore func(t *testing.T) drive.Store
}

// Run executes the complete suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Users", suite.runUserTests)
	t.Run("Files", suite.runFileTests)
	t.Run("Listings", suite.runListingTests)
	t.Run("Sharing", suite.runSharingTests)
}

// ----------------------------------------------------------------------
// Fixtures
// ----------------------------------------------------------------------

func (suite *StoreTestSuite) newStore(t *testing.T) drive.Store {
	t.Helper()
	store := suite.NewStore(t)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

// NewSeedUser builds a user record with sane defaults for tests that
// need a fixture without going through a store helper.
func NewSeedUser(email string) *drive.User {
	return &drive.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Seed User",
		PasswordHash: "x",
		StorageLimit: drive.DefaultStorageLimit,
		CreatedAt:    time.Now().UTC(),
	}
}

func createTestUser(t *testing.T, store drive.Store, email string) *drive.User {
	t.Helper()
	user := &drive.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "x",
		StorageLimit: drive.DefaultStorageLimit,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := store.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return created
}

func createTestUserWithLimit(t *testing.T, store drive.Store, email string, limit int64) *drive.User {
	t.Helper()
	user := &drive.User{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "x",
		StorageLimit: limit,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := store.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return created
}

func createTestFile(t *testing.T, store drive.Store, ownerID uuid.UUID, name string, parentID *uuid.UUID, size int64) *drive.FileItem {
	t.Helper()
	now := time.Now().UTC()
	item := &drive.FileItem{
		ID:         uuid.New(),
		Name:       name,
		Type:       drive.TypeFile,
		Size:       size,
		ParentID:   parentID,
		OwnerID:    ownerID,
		Content:    drive.ContentID(uuid.NewString()),
		MimeType:   "text/plain",
		CreatedAt:  now,
		ModifiedAt: now,
	}
	created, err := store.CreateFile(context.Background(), item)
	require.NoError(t, err)
	return created
}

func createTestFolder(t *testing.T, store drive.Store, ownerID uuid.UUID, name string, parentID *uuid.UUID) *drive.FileItem {
	t.Helper()
	now := time.Now().UTC()
	item := &drive.FileItem{
		ID:         uuid.New(),
		Name:       name,
		Type:       drive.TypeFolder,
		ParentID:   parentID,
		OwnerID:    ownerID,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	created, err := store.CreateFile(context.Background(), item)
	require.NoError(t, err)
	return created
}
