package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/storage"
)

// UserRepository implements storage.UserRepository for BadgerDB.
type UserRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.UserRepository = (*UserRepository)(nil)

func newUserRepository(backend *Backend) (*UserRepository, error) {
	idSeq, err := backend.GetSequence(userIDSeq)
	if err != nil {
		return nil, err
	}

	return &UserRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(backend *Backend) (storage.UserRepository, error) {
	return newUserRepository(backend)
}

// Close releases the ID sequence.
func (r *UserRepository) Close() error {
	return r.idSeq.Release()
}

// CreateUser stores a new user, indexed by email.
func (r *UserRepository) CreateUser(ctx context.Context, user *core.User) (*core.User, error) {
	if err := core.ValidateUser(user); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		emailKey := makeUserEmailKey(user.Email)
		if _, err := tx.Get(emailKey); err == nil {
			return fmt.Errorf("%w: email %s", storage.ErrDuplicateKey, user.Email)
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		nextID, err := r.idSeq.Next()
		if err != nil {
			return err
		}
		// BadgerDB sequences can return 0 on first call, so we skip it
		if nextID == 0 {
			nextID, err = r.idSeq.Next()
			if err != nil {
				return err
			}
		}
		user.Id = core.ID(nextID)
		if user.CreatedAt.IsZero() {
			user.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
		}

		if err := tx.Set(makeUserKey(user.Id), storage.MarshalUser(user)); err != nil {
			return err
		}
		if err := tx.Set(emailKey, storage.MarshalID(user.Id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id core.ID) (*core.User, error) {
	var result *core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readUser(tx, id)
		return err
	}, false)
	return result, err
}

// GetUserByEmail resolves the email index then loads the user.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	var result *core.User
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var id core.ID
		err := getValue(tx, makeUserEmailKey(email), func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}
		result, err = r.readUser(tx, id)
		return err
	}, false)
	return result, err
}

func (r *UserRepository) readUser(tx *badger.Txn, id core.ID) (*core.User, error) {
	var user *core.User
	err := getValue(tx, makeUserKey(id), func(val []byte) error {
		var err error
		user, err = storage.UnmarshalUser(val)
		return err
	})
	return user, err
}
