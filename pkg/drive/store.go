package drive

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FileUpdate describes a partial mutation of a FileItem. Nil fields are
// left unchanged. ParentID is only consulted when SetParent is true,
// so that "move to root" (nil parent) is distinguishable from "do not
// move".
type FileUpdate struct {
	Name      *string
	SetParent bool
	ParentID  *uuid.UUID
	Starred   *bool
}

// Store is the persistence gateway for users and file items.
//
// Implementations must be safe for concurrent use by multiple
// goroutines and must respect context cancellation on every call.
//
// Visibility contract: read operations that take a viewerID return only
// items for which Visible(item, viewerID) holds, and exclude trashed
// items unless the operation is explicitly trash-scoped. Absent and
// invisible items are both reported as ErrNotFound; the distinction is
// never exposed.
//
// Mutation contract: operations that take an ownerID require exact
// ownership. A share entry, including one with the "edit" permission,
// does not authorize mutation.
//
// All returned items are defensive copies; mutating them does not
// affect persisted state.
type Store interface {
	// ------------------------------------------------------------------
	// Users
	// ------------------------------------------------------------------

	// CreateUser persists a new user and returns the stored record. A
	// zero ID and a zero CreatedAt are assigned by the store. Fails with
	// ErrConflict if the email is already registered.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// UserByEmail returns the user with the given email, or ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*User, error)

	// UserByID returns the user with the given ID, or ErrNotFound.
	UserByID(ctx context.Context, id uuid.UUID) (*User, error)

	// ReserveStorage atomically adds size bytes to the user's usage,
	// failing with ErrQuotaExceeded if the result would exceed the
	// user's limit. The check and the increment are a single atomic
	// step; concurrent reservations cannot jointly overshoot the limit.
	ReserveStorage(ctx context.Context, userID uuid.UUID, size int64) error

	// ReleaseStorage atomically subtracts size bytes from the user's
	// usage. Usage is clamped at zero rather than going negative; a
	// release that would underflow indicates drift between metadata and
	// accounting and is absorbed, not propagated.
	ReleaseStorage(ctx context.Context, userID uuid.UUID, size int64) error

	// ------------------------------------------------------------------
	// File items
	// ------------------------------------------------------------------

	// CreateFile persists a new file or folder record and returns the
	// stored item. A zero ID is assigned by the store; zero CreatedAt
	// and ModifiedAt are stamped with the creation time.
	CreateFile(ctx context.Context, item *FileItem) (*FileItem, error)

	// FileByID returns the item if it is visible to viewerID and not
	// trashed. Trashed, absent, and invisible items all yield
	// ErrNotFound.
	FileByID(ctx context.Context, id, viewerID uuid.UUID) (*FileItem, error)

	// FileForOwner is the trash-scoped lookup used by lifecycle
	// operations: it requires exact ownership and can see trashed items
	// when includeTrashed is set.
	FileForOwner(ctx context.Context, id, ownerID uuid.UUID, includeTrashed bool) (*FileItem, error)

	// ListChildren returns the non-trashed children of parentID (nil
	// for the root level) visible to viewerID, ordered folders first,
	// then by name ascending (byte order).
	ListChildren(ctx context.Context, parentID *uuid.UUID, viewerID uuid.UUID) ([]*FileItem, error)

	// ChildrenOfOwner returns every child of parentID owned by ownerID,
	// regardless of sharing, optionally including trashed items. Used
	// by cascade walks in the trash lifecycle.
	ChildrenOfOwner(ctx context.Context, parentID, ownerID uuid.UUID, includeTrashed bool) ([]*FileItem, error)

	// UpdateFile applies a partial update to a non-trashed item owned
	// by ownerID and returns the updated item. ModifiedAt is bumped on
	// every successful update.
	UpdateFile(ctx context.Context, id, ownerID uuid.UUID, update FileUpdate) (*FileItem, error)

	// SoftDelete transitions an Active item to Trashed, stamping the
	// given trash time. Fails with ErrNotFound if the item is absent,
	// not owned by ownerID, or already trashed.
	SoftDelete(ctx context.Context, id, ownerID uuid.UUID, at time.Time) error

	// RestoreFile transitions a Trashed item back to Active. Fails with
	// ErrNotFound if the item is absent, not owned, or not trashed.
	RestoreFile(ctx context.Context, id, ownerID uuid.UUID) error

	// HardDelete removes the record permanently, whether Active or
	// Trashed, and returns the removed item so the caller can release
	// quota and delete backing content.
	HardDelete(ctx context.Context, id, ownerID uuid.UUID) (*FileItem, error)

	// ------------------------------------------------------------------
	// Flagged listings and search
	// ------------------------------------------------------------------

	// SearchByName returns up to limit non-trashed items visible to
	// viewerID whose name contains the query, case-insensitively.
	SearchByName(ctx context.Context, query string, viewerID uuid.UUID, limit int) ([]*FileItem, error)

	// ListRecent returns up to limit non-trashed regular files visible
	// to viewerID, most recently modified first.
	ListRecent(ctx context.Context, viewerID uuid.UUID, limit int) ([]*FileItem, error)

	// ListStarred returns starred, non-trashed items visible to
	// viewerID, by name ascending.
	ListStarred(ctx context.Context, viewerID uuid.UUID) ([]*FileItem, error)

	// ListTrashed returns the owner's trashed items, most recently
	// trashed first. Trash is strictly owner-scoped; shares grant no
	// access to it.
	ListTrashed(ctx context.Context, ownerID uuid.UUID) ([]*FileItem, error)

	// ListTrashedBefore returns trashed items across all owners whose
	// trash timestamp is at or before cutoff. Used by the retention
	// sweeper; no ordering guarantee.
	ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]*FileItem, error)

	// ListShared returns non-trashed items shared with viewerID (not
	// owned items), by name ascending.
	ListShared(ctx context.Context, viewerID uuid.UUID) ([]*FileItem, error)

	// ------------------------------------------------------------------
	// Sharing
	// ------------------------------------------------------------------

	// SetShare inserts or replaces the share entry for entry.UserID on
	// the file in a single atomic step. Re-sharing with the same target
	// replaces the permission; it never duplicates entries.
	SetShare(ctx context.Context, fileID, ownerID uuid.UUID, entry ShareEntry) error

	// RemoveShare deletes the share entry for userID, if present.
	RemoveShare(ctx context.Context, fileID, ownerID, userID uuid.UUID) error

	// Close releases backend resources.
	Close() error
}
