// Package hierarchy implements folder-tree operations: folder creation,
// folder listings, breadcrumb trails, and structural updates (rename,
// move, star).
//
// A nil folder ID always denotes the viewer's root ("My Drive"). The
// root is virtual: it has no FileItem and cannot be renamed, moved,
// trashed, or shared.
package hierarchy

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/pkg/drive"
	"github.com/nimbusdrive/nimbus/pkg/metrics"
)

// maxDepth bounds ancestor walks so a corrupted parent chain cannot
// spin forever.
const maxDepth = 64

// Service provides folder-tree operations on top of a metadata store.
type Service struct {
	store   drive.Store
	metrics metrics.DriveMetrics
}

// NewService creates a hierarchy service.
func NewService(store drive.Store, m metrics.DriveMetrics) *Service {
	return &Service{store: store, metrics: m}
}

// CreateFolder creates an empty folder under parentID (nil for the
// root). The parent must be a folder the caller owns and must not be
// in the trash.
func (s *Service) CreateFolder(ctx context.Context, ownerID uuid.UUID, name string, parentID *uuid.UUID) (*drive.FileItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, drive.InvalidOperation("folder name cannot be empty")
	}

	if err := s.validateParent(ctx, ownerID, parentID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	folder := &drive.FileItem{
		ID:         uuid.New(),
		Name:       name,
		Type:       drive.TypeFolder,
		ParentID:   parentID,
		OwnerID:    ownerID,
		CreatedAt:  now,
		ModifiedAt: now,
	}

	start := time.Now()
	created, err := s.store.CreateFile(ctx, folder)
	s.metrics.RecordOperation("create_folder", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Stringer("folder_id", created.ID).
		Stringer("owner_id", ownerID).
		Msg("folder created")
	return created, nil
}

// FolderContents returns the folder's own metadata together with its
// immediate children visible to the viewer, folders before files, names
// ascending. Trashed items are excluded. The folder is nil for the
// virtual root, which has no record of its own.
func (s *Service) FolderContents(ctx context.Context, viewerID uuid.UUID, folderID *uuid.UUID) (*drive.FileItem, []*drive.FileItem, error) {
	var folder *drive.FileItem
	if folderID != nil {
		found, err := s.store.FileByID(ctx, *folderID, viewerID)
		if err != nil {
			return nil, nil, err
		}
		if !found.IsFolder() {
			return nil, nil, drive.InvalidOperation("cannot list contents of a file")
		}
		folder = found
	}

	start := time.Now()
	items, err := s.store.ListChildren(ctx, folderID, viewerID)
	s.metrics.RecordOperation("list_folder", time.Since(start), err)
	if err != nil {
		return nil, nil, err
	}
	return folder, items, nil
}

// Breadcrumbs returns the navigation trail from the root down to
// folderID, starting with the virtual root crumb. A nil folderID
// yields just the root crumb.
//
// If any ancestor on the way up is not visible to the viewer, is
// trashed, or is not a folder, the partial trail is discarded and only
// the root crumb is returned: a trail with holes would leak names the
// viewer cannot reach.
func (s *Service) Breadcrumbs(ctx context.Context, viewerID uuid.UUID, folderID *uuid.UUID) ([]drive.Breadcrumb, error) {
	root := []drive.Breadcrumb{{ID: nil, Name: drive.RootLabel}}
	if folderID == nil {
		return root, nil
	}

	var trail []drive.Breadcrumb
	current := folderID
	for depth := 0; current != nil; depth++ {
		if depth >= maxDepth {
			log.Warn().
				Stringer("folder_id", *folderID).
				Msg("breadcrumb walk exceeded depth limit, returning root")
			return root, nil
		}

		folder, err := s.store.FileByID(ctx, *current, viewerID)
		if err != nil {
			if drive.IsCode(err, drive.ErrNotFound) {
				return root, nil
			}
			return nil, err
		}
		if !folder.IsFolder() {
			return root, nil
		}

		id := folder.ID
		trail = append([]drive.Breadcrumb{{ID: &id, Name: folder.Name}}, trail...)
		current = folder.ParentID
	}

	return append(root, trail...), nil
}

// UpdateRequest describes a structural update. Nil fields are left
// unchanged; SetParent distinguishes "move to root" from "no move".
type UpdateRequest struct {
	Name      *string
	SetParent bool
	ParentID  *uuid.UUID
	Starred   *bool
}

// Update applies a rename, move, or star change to an item the caller
// owns. Moves are validated against the folder tree: the destination
// must be an owned, non-trashed folder, and moving a folder under its
// own descendant is rejected.
func (s *Service) Update(ctx context.Context, ownerID, fileID uuid.UUID, req UpdateRequest) (*drive.FileItem, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, drive.InvalidOperation("name cannot be empty")
		}
		req.Name = &trimmed
	}

	if req.SetParent {
		if err := s.validateMove(ctx, ownerID, fileID, req.ParentID); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	updated, err := s.store.UpdateFile(ctx, fileID, ownerID, drive.FileUpdate{
		Name:      req.Name,
		SetParent: req.SetParent,
		ParentID:  req.ParentID,
		Starred:   req.Starred,
	})
	s.metrics.RecordOperation("update_file", time.Since(start), err)
	return updated, err
}

// validateParent checks that parentID (nil for root) is an owned,
// non-trashed folder.
func (s *Service) validateParent(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.store.FileForOwner(ctx, *parentID, ownerID, false)
	if err != nil {
		return err
	}
	if !parent.IsFolder() {
		return drive.InvalidOperation("parent must be a folder")
	}
	return nil
}

// validateMove rejects destinations that would detach the item from a
// valid tree or introduce a cycle.
func (s *Service) validateMove(ctx context.Context, ownerID, fileID uuid.UUID, newParentID *uuid.UUID) error {
	if newParentID == nil {
		return nil
	}
	if *newParentID == fileID {
		return drive.InvalidOperation("cannot move an item into itself")
	}

	if err := s.validateParent(ctx, ownerID, newParentID); err != nil {
		return err
	}

	// Walk from the destination up to the root; meeting the moved item
	// means the destination is inside its own subtree.
	current := newParentID
	for depth := 0; current != nil; depth++ {
		if depth >= maxDepth {
			return drive.InvalidOperation("folder tree too deep")
		}
		if *current == fileID {
			return drive.InvalidOperation("cannot move a folder into its own subtree")
		}
		ancestor, err := s.store.FileForOwner(ctx, *current, ownerID, true)
		if err != nil {
			return err
		}
		current = ancestor.ParentID
	}
	return nil
}
