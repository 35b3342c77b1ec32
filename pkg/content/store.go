// Package content defines the storage abstraction for raw file bytes.
//
// The drive's metadata layer (pkg/drive) never touches file data; it
// records an opaque ContentID and delegates the bytes to a content
// store. This separation lets metadata and content scale independently
// and keeps backends interchangeable: local filesystem for development,
// S3 for production, memory for tests.
//
// Thumbnails live in the same store as their source files under a
// distinct ID namespace (see NewID and NewThumbnailID).
package content

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

// ErrContentNotFound indicates the requested content does not exist in
// the store.
var ErrContentNotFound = errors.New("content not found")

// Store provides access to raw file bytes addressed by ContentID.
//
// Implementations must be safe for concurrent use. Concurrent writes to
// the same ContentID are last-write-wins; the drive never reuses an ID
// for different bytes, so this cannot corrupt user data.
type Store interface {
	// Write streams the reader's bytes into the store under the given
	// ID, replacing any previous content, and returns the number of
	// bytes written.
	Write(ctx context.Context, id drive.ContentID, r io.Reader) (int64, error)

	// Open returns a reader for the content. The caller must close it.
	// Returns ErrContentNotFound if the ID is absent.
	Open(ctx context.Context, id drive.ContentID) (io.ReadCloser, error)

	// Size returns the content length in bytes without reading the
	// data. Returns ErrContentNotFound if the ID is absent.
	Size(ctx context.Context, id drive.ContentID) (int64, error)

	// Delete removes the content. Deleting absent content is a no-op;
	// purge paths must stay idempotent across retries.
	Delete(ctx context.Context, id drive.ContentID) error
}

// NewID mints a fresh content identifier for an uploaded file.
func NewID() drive.ContentID {
	return drive.ContentID("files/" + uuid.NewString())
}

// NewThumbnailID mints a content identifier in the thumbnail namespace.
func NewThumbnailID() drive.ContentID {
	return drive.ContentID("thumbs/" + uuid.NewString())
}
