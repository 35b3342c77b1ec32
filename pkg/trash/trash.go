// Package trash implements the soft-delete lifecycle: moving items to
// the trash, restoring them, and permanently purging them.
//
// Trashing a folder cascades to its whole subtree with a single shared
// timestamp; restore uses that timestamp to bring back exactly the
// items trashed together, leaving anything trashed separately in the
// trash. Purge permanently deletes the subtree, releases the owner's
// quota, and removes content and thumbnails from the content store.
package trash

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/pkg/content"
	"github.com/nimbusdrive/nimbus/pkg/drive"
	"github.com/nimbusdrive/nimbus/pkg/metrics"
	"github.com/nimbusdrive/nimbus/pkg/quota"
)

// maxDepth bounds subtree walks so a corrupted parent chain cannot spin
// forever.
const maxDepth = 64

// Service provides trash lifecycle operations.
type Service struct {
	store   drive.Store
	content content.Store
	quota   *quota.Accountant
	metrics metrics.DriveMetrics
}

// NewService creates a trash service.
func NewService(store drive.Store, contentStore content.Store, accountant *quota.Accountant, m metrics.DriveMetrics) *Service {
	return &Service{
		store:   store,
		content: contentStore,
		quota:   accountant,
		metrics: m,
	}
}

// Trash soft-deletes an item the caller owns. Folders cascade: every
// descendant is stamped with the same trash time so a later restore can
// identify the group. Trashed items keep charging the owner's quota
// until purged.
func (s *Service) Trash(ctx context.Context, ownerID, fileID uuid.UUID) error {
	item, err := s.store.FileForOwner(ctx, fileID, ownerID, false)
	if err != nil {
		return err
	}

	subtree, err := s.subtree(ctx, ownerID, item, false)
	if err != nil {
		return err
	}

	start := time.Now()
	stamp := start.UTC()
	for _, node := range subtree {
		if err := s.store.SoftDelete(ctx, node.ID, ownerID, stamp); err != nil {
			s.metrics.RecordOperation("trash", time.Since(start), err)
			return err
		}
	}
	s.metrics.RecordOperation("trash", time.Since(start), nil)

	log.Debug().
		Stringer("file_id", fileID).
		Stringer("owner_id", ownerID).
		Int("items", len(subtree)).
		Msg("moved to trash")
	return nil
}

// Restore brings a trashed item back, along with the descendants that
// were trashed in the same cascade. Descendants trashed separately
// (before the cascade) stay in the trash. If the item's original parent
// has since been trashed or purged, the item is reattached to the root.
func (s *Service) Restore(ctx context.Context, ownerID, fileID uuid.UUID) error {
	item, err := s.store.FileForOwner(ctx, fileID, ownerID, true)
	if err != nil {
		return err
	}
	if !item.IsTrashed || item.TrashedAt == nil {
		return drive.InvalidOperation("item is not in the trash")
	}
	stamp := *item.TrashedAt

	subtree, err := s.subtree(ctx, ownerID, item, true)
	if err != nil {
		return err
	}

	start := time.Now()
	for _, node := range subtree {
		if node.ID != item.ID && (node.TrashedAt == nil || !node.TrashedAt.Equal(stamp)) {
			continue
		}
		if !node.IsTrashed {
			continue
		}
		if err := s.store.RestoreFile(ctx, node.ID, ownerID); err != nil {
			s.metrics.RecordOperation("restore", time.Since(start), err)
			return err
		}
	}

	// Reattach to the root if the original parent is gone.
	if item.ParentID != nil {
		if _, err := s.store.FileForOwner(ctx, *item.ParentID, ownerID, false); drive.IsCode(err, drive.ErrNotFound) {
			if _, err := s.store.UpdateFile(ctx, item.ID, ownerID, drive.FileUpdate{SetParent: true}); err != nil {
				s.metrics.RecordOperation("restore", time.Since(start), err)
				return err
			}
		} else if err != nil {
			return err
		}
	}
	s.metrics.RecordOperation("restore", time.Since(start), nil)

	log.Debug().
		Stringer("file_id", fileID).
		Stringer("owner_id", ownerID).
		Msg("restored from trash")
	return nil
}

// Purge permanently deletes an item and its entire subtree, releasing
// quota and deleting stored content. Trash is not a prerequisite: an
// active item can be purged directly, skipping the soft-delete step.
// The subtree is removed leaves-first so a failure partway leaves no
// orphaned children.
func (s *Service) Purge(ctx context.Context, ownerID, fileID uuid.UUID) error {
	item, err := s.store.FileForOwner(ctx, fileID, ownerID, true)
	if err != nil {
		return err
	}

	subtree, err := s.subtree(ctx, ownerID, item, true)
	if err != nil {
		return err
	}

	start := time.Now()
	var purged int
	var released int64
	for i := len(subtree) - 1; i >= 0; i-- {
		node := subtree[i]
		removed, err := s.store.HardDelete(ctx, node.ID, ownerID)
		if err != nil {
			s.metrics.RecordOperation("purge", time.Since(start), err)
			return err
		}
		purged++

		if removed.IsFolder() {
			continue
		}
		released += removed.Size
		if err := s.quota.Release(ctx, ownerID, removed.Size); err != nil {
			return err
		}
		if err := s.deleteContent(ctx, removed); err != nil {
			return err
		}
	}
	s.metrics.RecordOperation("purge", time.Since(start), nil)
	s.metrics.RecordPurge(purged, released)

	log.Info().
		Stringer("file_id", fileID).
		Stringer("owner_id", ownerID).
		Int("items", purged).
		Int64("bytes", released).
		Msg("purged from trash")
	return nil
}

// List returns the owner's trash as the user sees it: only cascade
// roots, newest first. Descendants trashed together with their parent
// are folded into the parent's entry.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]*drive.FileItem, error) {
	items, err := s.store.ListTrashed(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	trashed := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		trashed[item.ID] = true
	}

	roots := items[:0]
	for _, item := range items {
		if item.ParentID != nil && trashed[*item.ParentID] {
			continue
		}
		roots = append(roots, item)
	}
	return roots, nil
}

// Empty purges everything in the owner's trash.
func (s *Service) Empty(ctx context.Context, ownerID uuid.UUID) error {
	roots, err := s.List(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, item := range roots {
		if err := s.Purge(ctx, ownerID, item.ID); err != nil {
			// An ancestor purge may already have removed this item.
			if drive.IsCode(err, drive.ErrNotFound) {
				continue
			}
			return err
		}
	}
	return nil
}

// subtree returns root plus all its descendants in breadth-first order.
func (s *Service) subtree(ctx context.Context, ownerID uuid.UUID, root *drive.FileItem, includeTrashed bool) ([]*drive.FileItem, error) {
	result := []*drive.FileItem{root}
	if !root.IsFolder() {
		return result, nil
	}

	frontier := []*drive.FileItem{root}
	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= maxDepth {
			return nil, drive.InvalidOperation("folder tree too deep")
		}

		var next []*drive.FileItem
		for _, folder := range frontier {
			children, err := s.store.ChildrenOfOwner(ctx, folder.ID, ownerID, includeTrashed)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				result = append(result, child)
				if child.IsFolder() {
					next = append(next, child)
				}
			}
		}
		frontier = next
	}
	return result, nil
}

func (s *Service) deleteContent(ctx context.Context, item *drive.FileItem) error {
	if item.Content != "" {
		if err := s.content.Delete(ctx, item.Content); err != nil {
			return err
		}
	}
	if item.Thumbnail != "" {
		if err := s.content.Delete(ctx, item.Thumbnail); err != nil {
			return err
		}
	}
	return nil
}
