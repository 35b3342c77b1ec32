package memory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

func (s *Store) CreateFile(ctx context.Context, item *drive.FileItem) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := item.Clone()
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.ModifiedAt.IsZero() {
		stored.ModifiedAt = now
	}

	if _, exists := s.files[stored.ID]; exists {
		return nil, drive.Conflict("file id already exists")
	}
	s.files[stored.ID] = stored
	return stored.Clone(), nil
}

func (s *Store) FileByID(ctx context.Context, id, viewerID uuid.UUID) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.files[id]
	if !exists || item.IsTrashed || !drive.Visible(item, viewerID) {
		return nil, drive.NotFound("file not found")
	}
	return item.Clone(), nil
}

func (s *Store) FileForOwner(ctx context.Context, id, ownerID uuid.UUID, includeTrashed bool) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.files[id]
	if !exists || item.OwnerID != ownerID {
		return nil, drive.NotFound("file not found")
	}
	if item.IsTrashed && !includeTrashed {
		return nil, drive.NotFound("file not found")
	}
	return item.Clone(), nil
}

func (s *Store) ListChildren(ctx context.Context, parentID *uuid.UUID, viewerID uuid.UUID) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*drive.FileItem
	for _, item := range s.files {
		if item.IsTrashed || !sameParent(item.ParentID, parentID) || !drive.Visible(item, viewerID) {
			continue
		}
		items = append(items, item.Clone())
	}
	drive.SortListing(items)
	return items, nil
}

func (s *Store) ChildrenOfOwner(ctx context.Context, parentID, ownerID uuid.UUID, includeTrashed bool) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*drive.FileItem
	for _, item := range s.files {
		if item.OwnerID != ownerID {
			continue
		}
		if item.ParentID == nil || *item.ParentID != parentID {
			continue
		}
		if item.IsTrashed && !includeTrashed {
			continue
		}
		items = append(items, item.Clone())
	}
	drive.SortListing(items)
	return items, nil
}

func (s *Store) UpdateFile(ctx context.Context, id, ownerID uuid.UUID, update drive.FileUpdate) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.files[id]
	if !exists || item.OwnerID != ownerID || item.IsTrashed {
		return nil, drive.NotFound("file not found")
	}

	applyUpdate(item, update)
	item.ModifiedAt = time.Now().UTC()
	return item.Clone(), nil
}

func (s *Store) SoftDelete(ctx context.Context, id, ownerID uuid.UUID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.files[id]
	if !exists || item.OwnerID != ownerID || item.IsTrashed {
		return drive.NotFound("file not found")
	}

	trashedAt := at
	item.IsTrashed = true
	item.TrashedAt = &trashedAt
	return nil
}

func (s *Store) RestoreFile(ctx context.Context, id, ownerID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.files[id]
	if !exists || item.OwnerID != ownerID || !item.IsTrashed {
		return drive.NotFound("file not found")
	}

	item.IsTrashed = false
	item.TrashedAt = nil
	return nil
}

func (s *Store) HardDelete(ctx context.Context, id, ownerID uuid.UUID) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.files[id]
	if !exists || item.OwnerID != ownerID {
		return nil, drive.NotFound("file not found")
	}

	delete(s.files, id)
	return item, nil
}

// ----------------------------------------------------------------------
// Flagged listings and search
// ----------------------------------------------------------------------

func (s *Store) SearchByName(ctx context.Context, query string, viewerID uuid.UUID, limit int) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*drive.FileItem
	for _, item := range s.files {
		if item.IsTrashed || !drive.Visible(item, viewerID) {
			continue
		}
		if !strings.Contains(strings.ToLower(item.Name), needle) {
			continue
		}
		items = append(items, item.Clone())
	}
	drive.SortByName(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListRecent(ctx context.Context, viewerID uuid.UUID, limit int) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*drive.FileItem
	for _, item := range s.files {
		if item.IsTrashed || item.Type != drive.TypeFile || !drive.Visible(item, viewerID) {
			continue
		}
		items = append(items, item.Clone())
	}
	drive.SortByModifiedDesc(items)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListStarred(ctx context.Context, viewerID uuid.UUID) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*drive.FileItem
	for _, item := range s.files {
		if item.IsTrashed || !item.IsStarred || !drive.Visible(item, viewerID) {
			continue
		}
		items = append(items, item.Clone())
	}
	drive.SortByName(items)
	return items, nil
}

func (s *Store) ListTrashed(ctx context.Context, ownerID uuid.UUID) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*drive.FileItem
	for _, item := range s.files {
		if !item.IsTrashed || item.OwnerID != ownerID {
			continue
		}
		items = append(items, item.Clone())
	}
	drive.SortByTrashedDesc(items)
	return items, nil
}

func (s *Store) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*drive.FileItem
	for _, item := range s.files {
		if !item.IsTrashed || item.TrashedAt == nil || item.TrashedAt.After(cutoff) {
			continue
		}
		items = append(items, item.Clone())
	}
	return items, nil
}

func (s *Store) ListShared(ctx context.Context, viewerID uuid.UUID) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*drive.FileItem
	for _, item := range s.files {
		if item.IsTrashed {
			continue
		}
		if _, shared := item.SharedPermission(viewerID); !shared {
			continue
		}
		items = append(items, item.Clone())
	}
	drive.SortByName(items)
	return items, nil
}

// ----------------------------------------------------------------------
// Sharing
// ----------------------------------------------------------------------

// SetShare replaces or inserts the entry under a single lock
// acquisition, which makes re-sharing idempotent and safe under
// concurrent shares to the same file.
func (s *Store) SetShare(ctx context.Context, fileID, ownerID uuid.UUID, entry drive.ShareEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.files[fileID]
	if !exists || item.OwnerID != ownerID {
		return drive.NotFound("file not found")
	}

	for i := range item.SharedWith {
		if item.SharedWith[i].UserID == entry.UserID {
			item.SharedWith[i].Permission = entry.Permission
			return nil
		}
	}
	item.SharedWith = append(item.SharedWith, entry)
	return nil
}

func (s *Store) RemoveShare(ctx context.Context, fileID, ownerID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.files[fileID]
	if !exists || item.OwnerID != ownerID {
		return drive.NotFound("file not found")
	}

	for i := range item.SharedWith {
		if item.SharedWith[i].UserID == userID {
			item.SharedWith = append(item.SharedWith[:i], item.SharedWith[i+1:]...)
			return nil
		}
	}
	return nil
}

// ----------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func applyUpdate(item *drive.FileItem, update drive.FileUpdate) {
	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.SetParent {
		if update.ParentID == nil {
			item.ParentID = nil
		} else {
			parent := *update.ParentID
			item.ParentID = &parent
		}
	}
	if update.Starred != nil {
		item.IsStarred = *update.Starred
	}
}

