// Package fs implements a content store backed by the local filesystem.
//
// Content is laid out under a base directory, one file per ContentID.
// IDs may contain slashes (the drive namespaces files and thumbnails),
// which map directly to subdirectories.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nimbusdrive/nimbus/pkg/content"
	"github.com/nimbusdrive/nimbus/pkg/drive"
)

// Store persists content as regular files under a base directory.
type Store struct {
	basePath string
}

// NewStore creates a filesystem content store rooted at basePath,
// creating the directory if it does not exist.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("creating content directory %s: %w", basePath, err)
	}
	return &Store{basePath: basePath}, nil
}

// path maps a ContentID onto the filesystem, rejecting IDs that would
// escape the base directory.
func (s *Store) path(id drive.ContentID) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(string(id)))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid content id %q", id)
	}
	return filepath.Join(s.basePath, clean), nil
}

func (s *Store) Write(ctx context.Context, id drive.ContentID, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	target, err := s.path(id)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("creating parent directory: %w", err)
	}

	// Write to a temp file in the same directory and rename so readers
	// never observe a half-written object.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("writing content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("publishing content: %w", err)
	}
	return n, nil
}

func (s *Store) Open(ctx context.Context, id drive.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := s.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if os.IsNotExist(err) {
		return nil, content.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("opening content: %w", err)
	}
	return f, nil
}

func (s *Store) Size(ctx context.Context, id drive.ContentID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	target, err := s.path(id)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return 0, content.ErrContentNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("stating content: %w", err)
	}
	return info.Size(), nil
}

func (s *Store) Delete(ctx context.Context, id drive.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting content: %w", err)
	}
	return nil
}
