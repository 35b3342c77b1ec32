// Package sharing grants and revokes per-user access to files and
// folders.
//
// Shares are flat grants on individual items: sharing a folder makes
// that folder visible to the recipient, not its ancestors. Only the
// owner can manage an item's shares, and the stored permission level is
// advisory for now: all mutations remain owner-only.
package sharing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/pkg/drive"
	"github.com/nimbusdrive/nimbus/pkg/metrics"
)

// Service manages share grants on top of a metadata store.
type Service struct {
	store   drive.Store
	metrics metrics.DriveMetrics
}

// NewService creates a sharing service.
func NewService(store drive.Store, m metrics.DriveMetrics) *Service {
	return &Service{store: store, metrics: m}
}

// Share grants targetEmail access to the file at the given permission
// level, replacing any existing grant for that user in one step. The
// caller must own the file and the file must not be in the trash.
// Sharing with yourself is rejected. Returns the resolved recipient.
func (s *Service) Share(ctx context.Context, ownerID, fileID uuid.UUID, targetEmail string, perm drive.Permission) (*drive.User, error) {
	if !perm.Valid() {
		return nil, drive.InvalidOperation("unknown permission level")
	}

	target, err := s.store.UserByEmail(ctx, targetEmail)
	if err != nil {
		return nil, err
	}
	if target.ID == ownerID {
		return nil, drive.InvalidOperation("cannot share an item with yourself")
	}

	if _, err := s.store.FileForOwner(ctx, fileID, ownerID, false); err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.store.SetShare(ctx, fileID, ownerID, drive.ShareEntry{
		UserID:     target.ID,
		Permission: perm,
	})
	s.metrics.RecordOperation("share", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Stringer("file_id", fileID).
		Stringer("owner_id", ownerID).
		Stringer("target_id", target.ID).
		Str("permission", string(perm)).
		Msg("share granted")
	return target, nil
}

// Unshare revokes targetEmail's access to the file. Revoking a grant
// that does not exist is a no-op.
func (s *Service) Unshare(ctx context.Context, ownerID, fileID uuid.UUID, targetEmail string) error {
	target, err := s.store.UserByEmail(ctx, targetEmail)
	if err != nil {
		return err
	}

	if _, err := s.store.FileForOwner(ctx, fileID, ownerID, false); err != nil {
		return err
	}

	start := time.Now()
	err = s.store.RemoveShare(ctx, fileID, ownerID, target.ID)
	s.metrics.RecordOperation("unshare", time.Since(start), err)
	return err
}

// SharedWithMe lists items other users have shared with the viewer,
// names ascending.
func (s *Service) SharedWithMe(ctx context.Context, viewerID uuid.UUID) ([]*drive.FileItem, error) {
	start := time.Now()
	items, err := s.store.ListShared(ctx, viewerID)
	s.metrics.RecordOperation("list_shared", time.Since(start), err)
	return items, err
}
