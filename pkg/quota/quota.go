// Package quota enforces per-user storage limits.
//
// The reservation itself is atomic inside the metadata store; this
// package layers validation, usage reporting, and observability on top
// so callers never talk to the raw counters directly.
package quota

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/pkg/drive"
	"github.com/nimbusdrive/nimbus/pkg/metrics"
)

// Usage is a point-in-time snapshot of a user's storage accounting.
type Usage struct {
	Used      int64 `json:"storage_used"`
	Limit     int64 `json:"storage_limit"`
	Available int64 `json:"storage_available"`
}

// Accountant mediates storage accounting for uploads and deletions.
type Accountant struct {
	store   drive.Store
	metrics metrics.DriveMetrics
}

// NewAccountant creates an Accountant. Metrics may be a no-op instance.
func NewAccountant(store drive.Store, m metrics.DriveMetrics) *Accountant {
	return &Accountant{store: store, metrics: m}
}

// Reserve charges size bytes against the user's quota. The check and
// the increment happen atomically in the store, so concurrent uploads
// cannot jointly overshoot the limit. Returns ErrQuotaExceeded when the
// reservation would push usage past the limit; usage is unchanged in
// that case.
func (a *Accountant) Reserve(ctx context.Context, userID uuid.UUID, size int64) error {
	if size < 0 {
		return drive.InvalidOperation("reservation size cannot be negative")
	}
	if size == 0 {
		return nil
	}

	start := time.Now()
	err := a.store.ReserveStorage(ctx, userID, size)
	a.metrics.RecordOperation("quota_reserve", time.Since(start), err)

	if drive.IsCode(err, drive.ErrQuotaExceeded) {
		a.metrics.RecordQuotaRejection()
		log.Debug().
			Stringer("user_id", userID).
			Int64("size", size).
			Msg("upload rejected: storage limit exceeded")
	}
	return err
}

// Release returns size bytes to the user's quota, clamping at zero.
// Used when content is purged or an upload fails after reservation.
func (a *Accountant) Release(ctx context.Context, userID uuid.UUID, size int64) error {
	if size < 0 {
		return drive.InvalidOperation("release size cannot be negative")
	}
	if size == 0 {
		return nil
	}

	start := time.Now()
	err := a.store.ReleaseStorage(ctx, userID, size)
	a.metrics.RecordOperation("quota_release", time.Since(start), err)
	return err
}

// Usage reports the user's current storage accounting.
func (a *Accountant) Usage(ctx context.Context, userID uuid.UUID) (Usage, error) {
	user, err := a.store.UserByID(ctx, userID)
	if err != nil {
		return Usage{}, err
	}

	available := user.StorageLimit - user.StorageUsed
	if available < 0 {
		available = 0
	}
	return Usage{
		Used:      user.StorageUsed,
		Limit:     user.StorageLimit,
		Available: available,
	}, nil
}
