// Package badger provides a persistent implementation of drive.Store
// backed by BadgerDB, a fast embedded key-value store.
//
// This implementation is suitable for production deployments where
// metadata must survive restarts. All multi-key mutations run inside
// Badger transactions, so quota reservations and share-list updates are
// atomic without any additional locking.
package badger

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

// Options configures the Badger-backed store.
type Options struct {
	// Path is the directory for the Badger database files.
	Path string

	// InMemory runs Badger without touching disk. Used by tests and by
	// the conformance suite; Path is ignored when set.
	InMemory bool

	// SyncWrites forces an fsync on every commit. Safer, slower.
	SyncWrites bool
}

// Store implements drive.Store on BadgerDB. See keys.go for the key
// schema and serialization.go for the value encoding.
type Store struct {
	db *badger.DB
}

// NewStore opens (or creates) a Badger database at the configured path.
func NewStore(opts Options) (*Store, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).
		WithInMemory(opts.InMemory).
		WithSyncWrites(opts.SyncWrites).
		WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	if !opts.InMemory {
		log.Debug().Str("path", opts.Path).Msg("opened badger drive store")
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// wrapInfra converts backend failures into the domain's Unavailable
// category while passing domain errors through untouched. Callers at
// the boundary treat Unavailable as retryable.
func wrapInfra(err error, op string) error {
	if err == nil {
		return nil
	}
	var driveErr *drive.DriveError
	if errors.As(err, &driveErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Error().Err(err).Str("op", op).Msg("badger store failure")
	return drive.Unavailable(fmt.Sprintf("store operation %s failed", op))
}

// getFile reads and decodes a file record inside a transaction.
// Returns drive.ErrNotFound when the key is absent.
func getFile(txn *badger.Txn, key []byte) (*drive.FileItem, error) {
	entry, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, drive.NotFound("file not found")
	}
	if err != nil {
		return nil, err
	}

	var item *drive.FileItem
	err = entry.Value(func(val []byte) error {
		decoded, decodeErr := decodeFile(val)
		if decodeErr != nil {
			return decodeErr
		}
		item = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// getUser reads and decodes a user record inside a transaction.
func getUser(txn *badger.Txn, key []byte) (*drive.User, error) {
	entry, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, drive.NotFound("user not found")
	}
	if err != nil {
		return nil, err
	}

	var user *drive.User
	err = entry.Value(func(val []byte) error {
		decoded, decodeErr := decodeUser(val)
		if decodeErr != nil {
			return decodeErr
		}
		user = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// scanFiles iterates every file record, invoking visit for each decoded
// item. The visit callback returns false to stop early.
func scanFiles(txn *badger.Txn, visit func(*drive.FileItem) bool) error {
	iterOpts := badger.DefaultIteratorOptions
	iterOpts.Prefix = filePrefix()

	it := txn.NewIterator(iterOpts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		var item *drive.FileItem
		err := it.Item().Value(func(val []byte) error {
			decoded, decodeErr := decodeFile(val)
			if decodeErr != nil {
				return decodeErr
			}
			item = decoded
			return nil
		})
		if err != nil {
			return err
		}
		if !visit(item) {
			return nil
		}
	}
	return nil
}
