package badger

import (
	"context"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

func (s *Store) CreateFile(ctx context.Context, item *drive.FileItem) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

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

	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := getFile(txn, keyFile(stored.ID)); err == nil {
			return drive.Conflict("file id already exists")
		} else if !drive.IsCode(err, drive.ErrNotFound) {
			return err
		}

		data, err := encodeFile(stored)
		if err != nil {
			return err
		}
		return txn.Set(keyFile(stored.ID), data)
	})
	if err != nil {
		return nil, wrapInfra(err, "create_file")
	}
	return stored, nil
}

func (s *Store) FileByID(ctx context.Context, id, viewerID uuid.UUID) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item *drive.FileItem
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := getFile(txn, keyFile(id))
		if err != nil {
			return err
		}
		if found.IsTrashed || !drive.Visible(found, viewerID) {
			return drive.NotFound("file not found")
		}
		item = found
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err, "file_by_id")
	}
	return item, nil
}

func (s *Store) FileForOwner(ctx context.Context, id, ownerID uuid.UUID, includeTrashed bool) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var item *drive.FileItem
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := getFile(txn, keyFile(id))
		if err != nil {
			return err
		}
		if found.OwnerID != ownerID {
			return drive.NotFound("file not found")
		}
		if found.IsTrashed && !includeTrashed {
			return drive.NotFound("file not found")
		}
		item = found
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err, "file_for_owner")
	}
	return item, nil
}

func (s *Store) ListChildren(ctx context.Context, parentID *uuid.UUID, viewerID uuid.UUID) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := s.collect(func(item *drive.FileItem) bool {
		return !item.IsTrashed && sameParent(item.ParentID, parentID) && drive.Visible(item, viewerID)
	}, "list_children")
	if err != nil {
		return nil, err
	}
	drive.SortListing(items)
	return items, nil
}

func (s *Store) ChildrenOfOwner(ctx context.Context, parentID, ownerID uuid.UUID, includeTrashed bool) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := s.collect(func(item *drive.FileItem) bool {
		if item.OwnerID != ownerID || item.ParentID == nil || *item.ParentID != parentID {
			return false
		}
		return includeTrashed || !item.IsTrashed
	}, "children_of_owner")
	if err != nil {
		return nil, err
	}
	drive.SortListing(items)
	return items, nil
}

func (s *Store) UpdateFile(ctx context.Context, id, ownerID uuid.UUID, update drive.FileUpdate) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *drive.FileItem
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := getFile(txn, keyFile(id))
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID || item.IsTrashed {
			return drive.NotFound("file not found")
		}

		if update.Name != nil {
			item.Name = *update.Name
		}
		if update.SetParent {
			item.ParentID = update.ParentID
		}
		if update.Starred != nil {
			item.IsStarred = *update.Starred
		}
		item.ModifiedAt = time.Now().UTC()

		data, err := encodeFile(item)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(id), data); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err, "update_file")
	}
	return updated, nil
}

func (s *Store) SoftDelete(ctx context.Context, id, ownerID uuid.UUID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := getFile(txn, keyFile(id))
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID || item.IsTrashed {
			return drive.NotFound("file not found")
		}

		trashedAt := at
		item.IsTrashed = true
		item.TrashedAt = &trashedAt

		data, err := encodeFile(item)
		if err != nil {
			return err
		}
		return txn.Set(keyFile(id), data)
	})
	return wrapInfra(err, "soft_delete")
}

func (s *Store) RestoreFile(ctx context.Context, id, ownerID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := getFile(txn, keyFile(id))
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID || !item.IsTrashed {
			return drive.NotFound("file not found")
		}

		item.IsTrashed = false
		item.TrashedAt = nil

		data, err := encodeFile(item)
		if err != nil {
			return err
		}
		return txn.Set(keyFile(id), data)
	})
	return wrapInfra(err, "restore_file")
}

func (s *Store) HardDelete(ctx context.Context, id, ownerID uuid.UUID) (*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var removed *drive.FileItem
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := getFile(txn, keyFile(id))
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID {
			return drive.NotFound("file not found")
		}

		if err := txn.Delete(keyFile(id)); err != nil {
			return err
		}
		removed = item
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err, "hard_delete")
	}
	return removed, nil
}

// ----------------------------------------------------------------------
// Flagged listings and search
// ----------------------------------------------------------------------

func (s *Store) SearchByName(ctx context.Context, query string, viewerID uuid.UUID, limit int) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	items, err := s.collect(func(item *drive.FileItem) bool {
		return !item.IsTrashed &&
			drive.Visible(item, viewerID) &&
			strings.Contains(strings.ToLower(item.Name), needle)
	}, "search_by_name")
	if err != nil {
		return nil, err
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

	items, err := s.collect(func(item *drive.FileItem) bool {
		return !item.IsTrashed && item.Type == drive.TypeFile && drive.Visible(item, viewerID)
	}, "list_recent")
	if err != nil {
		return nil, err
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

	items, err := s.collect(func(item *drive.FileItem) bool {
		return !item.IsTrashed && item.IsStarred && drive.Visible(item, viewerID)
	}, "list_starred")
	if err != nil {
		return nil, err
	}
	drive.SortByName(items)
	return items, nil
}

func (s *Store) ListTrashed(ctx context.Context, ownerID uuid.UUID) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := s.collect(func(item *drive.FileItem) bool {
		return item.IsTrashed && item.OwnerID == ownerID
	}, "list_trashed")
	if err != nil {
		return nil, err
	}
	drive.SortByTrashedDesc(items)
	return items, nil
}

func (s *Store) ListTrashedBefore(ctx context.Context, cutoff time.Time) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.collect(func(item *drive.FileItem) bool {
		return item.IsTrashed && item.TrashedAt != nil && !item.TrashedAt.After(cutoff)
	}, "list_trashed_before")
}

func (s *Store) ListShared(ctx context.Context, viewerID uuid.UUID) ([]*drive.FileItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items, err := s.collect(func(item *drive.FileItem) bool {
		if item.IsTrashed {
			return false
		}
		_, shared := item.SharedPermission(viewerID)
		return shared
	}, "list_shared")
	if err != nil {
		return nil, err
	}
	drive.SortByName(items)
	return items, nil
}

// ----------------------------------------------------------------------
// Sharing
// ----------------------------------------------------------------------

// SetShare upserts the entry inside one transaction, which makes
// re-sharing idempotent and safe under concurrent shares to the same
// file: the second transaction observes the first one's write.
func (s *Store) SetShare(ctx context.Context, fileID, ownerID uuid.UUID, entry drive.ShareEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := getFile(txn, keyFile(fileID))
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID {
			return drive.NotFound("file not found")
		}

		replaced := false
		for i := range item.SharedWith {
			if item.SharedWith[i].UserID == entry.UserID {
				item.SharedWith[i].Permission = entry.Permission
				replaced = true
				break
			}
		}
		if !replaced {
			item.SharedWith = append(item.SharedWith, entry)
		}

		data, err := encodeFile(item)
		if err != nil {
			return err
		}
		return txn.Set(keyFile(fileID), data)
	})
	return wrapInfra(err, "set_share")
}

func (s *Store) RemoveShare(ctx context.Context, fileID, ownerID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := getFile(txn, keyFile(fileID))
		if err != nil {
			return err
		}
		if item.OwnerID != ownerID {
			return drive.NotFound("file not found")
		}

		for i := range item.SharedWith {
			if item.SharedWith[i].UserID == userID {
				item.SharedWith = append(item.SharedWith[:i], item.SharedWith[i+1:]...)
				break
			}
		}

		data, err := encodeFile(item)
		if err != nil {
			return err
		}
		return txn.Set(keyFile(fileID), data)
	})
	return wrapInfra(err, "remove_share")
}

// collect gathers every file record matching the filter.
func (s *Store) collect(filter func(*drive.FileItem) bool, op string) ([]*drive.FileItem, error) {
	var items []*drive.FileItem
	err := s.db.View(func(txn *badger.Txn) error {
		return scanFiles(txn, func(item *drive.FileItem) bool {
			if filter(item) {
				items = append(items, item)
			}
			return true
		})
	})
	if err != nil {
		return nil, wrapInfra(err, op)
	}
	return items, nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
