package badger

import (
	"context"
	"errors"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/nimbusdrive/nimbus/pkg/drive"
)

func (s *Store) CreateUser(ctx context.Context, user *drive.User) (*drive.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored := *user
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	email := normalizeEmail(stored.Email)

	err := s.db.Update(func(txn *badger.Txn) error {
		// Email uniqueness is enforced by the index key: if it exists,
		// the address is taken.
		_, err := txn.Get(keyEmail(email))
		if err == nil {
			return drive.Conflict("email already registered")
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		data, err := encodeUser(&stored)
		if err != nil {
			return err
		}
		if err := txn.Set(keyUser(stored.ID), data); err != nil {
			return err
		}
		return txn.Set(keyEmail(email), []byte(stored.ID.String()))
	})
	if err != nil {
		return nil, wrapInfra(err, "create_user")
	}
	return &stored, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*drive.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *drive.User
	err := s.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get(keyEmail(normalizeEmail(email)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return drive.NotFound("user not found")
		}
		if err != nil {
			return err
		}

		var id uuid.UUID
		err = entry.Value(func(val []byte) error {
			parsed, parseErr := uuid.Parse(string(val))
			if parseErr != nil {
				return parseErr
			}
			id = parsed
			return nil
		})
		if err != nil {
			return err
		}

		user, err = getUser(txn, keyUser(id))
		return err
	})
	if err != nil {
		return nil, wrapInfra(err, "user_by_email")
	}
	return user, nil
}

func (s *Store) UserByID(ctx context.Context, id uuid.UUID) (*drive.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user *drive.User
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := getUser(txn, keyUser(id))
		if err != nil {
			return err
		}
		user = found
		return nil
	})
	if err != nil {
		return nil, wrapInfra(err, "user_by_id")
	}
	return user, nil
}

// ReserveStorage runs the quota check and the increment in one Badger
// transaction. Conflicting concurrent reservations are serialized by
// the transaction engine, so the limit cannot be jointly overshot.
func (s *Store) ReserveStorage(ctx context.Context, userID uuid.UUID, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		user, err := getUser(txn, keyUser(userID))
		if err != nil {
			return err
		}
		if user.StorageUsed+size > user.StorageLimit {
			return drive.QuotaExceeded("storage limit exceeded")
		}
		user.StorageUsed += size

		data, err := encodeUser(user)
		if err != nil {
			return err
		}
		return txn.Set(keyUser(userID), data)
	})
	return wrapInfra(err, "reserve_storage")
}

// ReleaseStorage clamps usage at zero; see the Store interface contract.
func (s *Store) ReleaseStorage(ctx context.Context, userID uuid.UUID, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		user, err := getUser(txn, keyUser(userID))
		if err != nil {
			return err
		}
		user.StorageUsed -= size
		if user.StorageUsed < 0 {
			user.StorageUsed = 0
		}

		data, err := encodeUser(user)
		if err != nil {
			return err
		}
		return txn.Set(keyUser(userID), data)
	})
	return wrapInfra(err, "release_storage")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
