package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/storage"
)

// ProfileRepository implements storage.ProfileRepository for BadgerDB.
// Profiles are keyed by their owner's user ID, one per user.
type ProfileRepository struct {
	backend *Backend
}

var _ storage.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(backend *Backend) storage.ProfileRepository {
	return &ProfileRepository{backend: backend}
}

// Close is a no-op; the backend is owned by the caller.
func (r *ProfileRepository) Close() error {
	return nil
}

// GetProfile retrieves the profile for userID.
func (r *ProfileRepository) GetProfile(ctx context.Context, userID core.ID) (*core.Profile, error) {
	var result *core.Profile
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readProfile(tx, userID)
		return err
	}, false)
	return result, err
}

// UpsertProfile writes profile, keeping the original CreatedAt when one exists.
func (r *ProfileRepository) UpsertProfile(ctx context.Context, profile *core.Profile) (*core.Profile, error) {
	if err := core.ValidateProfile(profile); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		existing, err := readProfile(tx, profile.UserId)
		switch {
		case err == nil:
			profile.CreatedAt = existing.CreatedAt
		case errors.Is(err, storage.ErrNotFound):
			profile.CreatedAt = now
		default:
			return err
		}
		profile.UpdatedAt = now

		if err := tx.Set(makeProfileKey(profile.UserId), storage.MarshalProfile(profile)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func readProfile(tx *badger.Txn, userID core.ID) (*core.Profile, error) {
	var profile *core.Profile
	err := getValue(tx, makeProfileKey(userID), func(val []byte) error {
		var err error
		profile, err = storage.UnmarshalProfile(val)
		return err
	})
	return profile, err
}
