// Package memory provides an in-memory implementation of drive.Store.
//
// This implementation is suitable for tests, development runs, and
// ephemeral deployments where persistence across restarts is not
// required. All operations are protected by a single read-write mutex;
// coarse-grained locking is simple and correct at this scale.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

// Store implements drive.Store using in-memory maps.
//
// Storage model:
//   - users: user ID -> User record
//   - emails: lowercased email -> user ID (uniqueness index)
//   - files: file ID -> FileItem record
//
// Listings are answered by scanning the files map and filtering with the
// shared visibility predicate, mirroring how the query-driven model
// works against a real database. At in-memory scale a scan is cheaper
// than maintaining per-directory indexes and cannot drift from the
// record of truth.
type Store struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*drive.User
	emails map[string]uuid.UUID
	files  map[uuid.UUID]*drive.FileItem
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:  make(map[uuid.UUID]*drive.User),
		emails: make(map[string]uuid.UUID),
		files:  make(map[uuid.UUID]*drive.FileItem),
	}
}

// Close releases nothing; it exists to satisfy drive.Store.
func (s *Store) Close() error {
	return nil
}

// ----------------------------------------------------------------------
// Users
// ----------------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, user *drive.User) (*drive.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := emailKey(user.Email)
	if _, exists := s.emails[key]; exists {
		return nil, drive.Conflict("email already registered")
	}

	clone := *user
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now().UTC()
	}
	s.users[clone.ID] = &clone
	s.emails[key] = clone.ID

	out := clone
	return &out, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*drive.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.emails[emailKey(email)]
	if !exists {
		return nil, drive.NotFound("user not found")
	}
	return s.userClone(id)
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*drive.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userClone(id)
}

// ReserveStorage performs the quota check and the increment under one
// lock acquisition, so concurrent reservations for the same user cannot
// both pass the check and jointly overshoot the limit.
func (s *Store) ReserveStorage(ctx context.Context, userID uuid.UUID, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return drive.NotFound("user not found")
	}
	if user.StorageUsed+size > user.StorageLimit {
		return drive.QuotaExceeded("storage limit exceeded")
	}
	user.StorageUsed += size
	return nil
}

// ReleaseStorage clamps usage at zero instead of underflowing. An
// underflow would mean accounting has drifted from the file records;
// absorbing it keeps the invariant StorageUsed >= 0 regardless.
func (s *Store) ReleaseStorage(ctx context.Context, userID uuid.UUID, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return drive.NotFound("user not found")
	}
	user.StorageUsed -= size
	if user.StorageUsed < 0 {
		user.StorageUsed = 0
	}
	return nil
}

// userClone returns a copy of the user record. Callers must hold at
// least a read lock.
func (s *Store) userClone(id uuid.UUID) (*drive.User, error) {
	user, exists := s.users[id]
	if !exists {
		return nil, drive.NotFound("user not found")
	}
	clone := *user
	return &clone, nil
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
