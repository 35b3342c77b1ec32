// Package memory implements an in-memory content store for tests and
// ephemeral deployments.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/nimbusdrive/nimbus/pkg/content"
	"github.com/nimbusdrive/nimbus/pkg/drive"
)

// Store keeps content in a map guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	data map[drive.ContentID][]byte
}

// NewStore creates an empty in-memory content store.
func NewStore() *Store {
	return &Store{data: make(map[drive.ContentID][]byte)}
}

func (s *Store) Write(ctx context.Context, id drive.ContentID, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.data[id] = buf
	s.mu.Unlock()
	return int64(len(buf)), nil
}

func (s *Store) Open(ctx context.Context, id drive.ContentID) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	buf, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, content.ErrContentNotFound
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (s *Store) Size(ctx context.Context, id drive.ContentID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	buf, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return 0, content.ErrContentNotFound
	}
	return int64(len(buf)), nil
}

func (s *Store) Delete(ctx context.Context, id drive.ContentID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.data, id)
	s.mu.Unlock()
	return nil
}
