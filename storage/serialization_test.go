package storage

import (
	"testing"
	"time"

	"github.com/poiesic/sosai/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalUser(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		user *core.User
	}{
		{
			name: "ascii user",
			user: &core.User{
				Id:           core.ID(1),
				Email:        "user@example.com",
				Name:         "Kim",
				PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
				CreatedAt:    now,
			},
		},
		{
			name: "hangul name",
			user: &core.User{
				Id:           core.ID(77),
				Email:        "hong@example.kr",
				Name:         "홍길동",
				PasswordHash: "hash",
				CreatedAt:    now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalUser(tt.user)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalUser(data)
			require.NoError(t, err)
			assert.Equal(t, tt.user.Id, decoded.Id)
			assert.Equal(t, tt.user.Email, decoded.Email)
			assert.Equal(t, tt.user.Name, decoded.Name)
			assert.Equal(t, tt.user.PasswordHash, decoded.PasswordHash)
			assert.True(t, tt.user.CreatedAt.Equal(decoded.CreatedAt))
		})
	}
}

func TestUnmarshalUser_Invalid(t *testing.T) {
	_, err := UnmarshalUser([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalProfile(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	profile := &core.Profile{
		UserId:            core.ID(9),
		Name:              "홍길동",
		BirthDate:         "1990-01-01",
		BloodType:         "O+",
		MedicalHistory:    "천식",
		SurgeryHistory:    "",
		Medications:       "흡입기",
		Allergies:         "페니실린",
		EmergencyContacts: "010-0000-0000",
		CreatedAt:         now.Add(-time.Hour),
		UpdatedAt:         now,
	}

	data := MarshalProfile(profile)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalProfile(data)
	require.NoError(t, err)
	assert.Equal(t, profile.UserId, decoded.UserId)
	assert.Equal(t, profile.Name, decoded.Name)
	assert.Equal(t, profile.BirthDate, decoded.BirthDate)
	assert.Equal(t, profile.BloodType, decoded.BloodType)
	assert.Equal(t, profile.MedicalHistory, decoded.MedicalHistory)
	assert.Empty(t, decoded.SurgeryHistory)
	assert.Equal(t, profile.Medications, decoded.Medications)
	assert.Equal(t, profile.Allergies, decoded.Allergies)
	assert.Equal(t, profile.EmergencyContacts, decoded.EmergencyContacts)
	assert.True(t, profile.CreatedAt.Equal(decoded.CreatedAt))
	assert.True(t, profile.UpdatedAt.Equal(decoded.UpdatedAt))
}

func TestUnmarshalProfile_Invalid(t *testing.T) {
	_, err := UnmarshalProfile([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}
