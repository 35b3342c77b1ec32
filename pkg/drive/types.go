// Package drive defines the core domain model for the Nimbus cloud drive:
// users with storage quotas, the per-owner tree of files and folders,
// share-based visibility, the trash lifecycle states, and the abstract
// Store interface that persistence backends implement.
//
// The package is persistence-agnostic. Concrete backends live in the
// memory and badger subpackages and are validated against a single shared
// conformance suite in drivetest.
package drive

import (
	"time"

	"github.com/google/uuid"
)

// FileType distinguishes folders from regular files.
// The type of an item is immutable after creation.
type FileType string

const (
	TypeFolder FileType = "folder"
	TypeFile   FileType = "file"
)

// Permission is the access level granted by a share entry.
//
// Ownership is never expressed as a share entry; it is implicit in
// FileItem.OwnerID. Stored permissions are informational in the current
// design: all mutation is owner-only and shared listings are always
// presented as read-only.
type Permission string

const (
	PermissionView Permission = "view"
	PermissionEdit Permission = "edit"
)

// Valid reports whether p is a known share permission.
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionEdit
}

// DefaultStorageLimit is the storage quota assigned to new users (15 GiB).
const DefaultStorageLimit = int64(15 * 1024 * 1024 * 1024)

// User is an account that owns a forest of FileItems.
//
// StorageUsed counts the bytes of every owned, non-purged file. Trashed
// files still count against the quota; only a purge releases bytes.
// The invariant StorageUsed >= 0 is enforced by the store.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	StorageUsed  int64     `json:"storage_used"`
	StorageLimit int64     `json:"storage_limit"`
	CreatedAt    time.Time `json:"created_at"`
}

// ShareEntry grants a user visibility of (and a nominal permission on) a
// single FileItem. UserID is unique within a file's share list.
type ShareEntry struct {
	UserID     uuid.UUID  `json:"user_id"`
	Permission Permission `json:"permission"`
}

// ContentID is an opaque locator for file bytes in a content store.
// Folders carry an empty ContentID.
type ContentID string

// FileItem is a node in a user's storage tree.
//
// ParentID is nil for root-level items; when set it must reference a
// folder owned by the same user. The parent chain from any item reaches
// the root without cycles; the hierarchy service additionally guards
// reparenting so no operation can introduce one.
//
// Lifecycle: Active -> Trashed (soft delete, reversible) -> purged
// (record removed, terminal). Trashed is marked by IsTrashed/TrashedAt.
type FileItem struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Type        FileType     `json:"type"`
	Size        int64        `json:"size"`
	ParentID    *uuid.UUID   `json:"parent_id"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	Content     ContentID    `json:"content_id"`
	MimeType    string       `json:"mime_type"`
	Thumbnail   ContentID    `json:"thumbnail_id"`
	CreatedAt   time.Time    `json:"created_at"`
	ModifiedAt  time.Time    `json:"modified_at"`
	SharedWith  []ShareEntry `json:"shared_with"`
	IsStarred   bool         `json:"is_starred"`
	IsTrashed   bool         `json:"is_trashed"`
	TrashedAt   *time.Time   `json:"trashed_at"`
}

// IsFolder reports whether the item is a folder.
func (f *FileItem) IsFolder() bool {
	return f.Type == TypeFolder
}

// SharedPermission returns the permission granted to userID, if any.
func (f *FileItem) SharedPermission(userID uuid.UUID) (Permission, bool) {
	for _, entry := range f.SharedWith {
		if entry.UserID == userID {
			return entry.Permission, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the item. Stores return clones so callers
// can never mutate persisted state through a returned pointer.
func (f *FileItem) Clone() *FileItem {
	clone := *f
	if f.ParentID != nil {
		parent := *f.ParentID
		clone.ParentID = &parent
	}
	if f.TrashedAt != nil {
		trashedAt := *f.TrashedAt
		clone.TrashedAt = &trashedAt
	}
	if f.SharedWith != nil {
		clone.SharedWith = make([]ShareEntry, len(f.SharedWith))
		copy(clone.SharedWith, f.SharedWith)
	}
	return &clone
}

// Breadcrumb is one element of the ancestor path from the root to a
// folder. The root crumb has a nil ID and the RootLabel name.
type Breadcrumb struct {
	ID   *uuid.UUID `json:"id"`
	Name string     `json:"name"`
}

// RootLabel is the display name of the implicit root folder.
const RootLabel = "My Drive"
