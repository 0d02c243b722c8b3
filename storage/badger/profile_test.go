package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/sosai/core"
	"github.com/poiesic/sosai/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_GetMissing(t *testing.T) {
	users, profiles, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		profiles.Close()
		users.Close()
		backend.Close()
	}()

	_, err = profiles.GetProfile(context.Background(), core.ID(1))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestProfileRepository_Upsert(t *testing.T) {
	users, profiles, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		profiles.Close()
		users.Close()
		backend.Close()
	}()

	ctx := context.Background()

	first, err := profiles.UpsertProfile(ctx, &core.Profile{
		UserId:    core.ID(5),
		BloodType: "A+",
		Allergies: "땅콩",
	})
	require.NoError(t, err)
	assert.False(t, first.CreatedAt.IsZero())
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
	createdAt := first.CreatedAt

	time.Sleep(2 * time.Millisecond)

	second, err := profiles.UpsertProfile(ctx, &core.Profile{
		UserId:      core.ID(5),
		BloodType:   "A+",
		Medications: "아스피린",
	})
	require.NoError(t, err)
	assert.True(t, createdAt.Equal(second.CreatedAt), "created_at must survive updates")
	assert.True(t, second.UpdatedAt.After(createdAt))

	got, err := profiles.GetProfile(ctx, core.ID(5))
	require.NoError(t, err)
	assert.Equal(t, "아스피린", got.Medications)
	assert.Empty(t, got.Allergies, "upsert replaces the whole document")
	assert.True(t, createdAt.Equal(got.CreatedAt))
}

func TestProfileRepository_Invalid(t *testing.T) {
	users, profiles, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		profiles.Close()
		users.Close()
		backend.Close()
	}()

	_, err = profiles.UpsertProfile(context.Background(), &core.Profile{})
	assert.ErrorIs(t, err, core.ErrInvalidProfile)
}
