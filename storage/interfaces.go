// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"context"

	"github.com/poiesic/sosai/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository. It does not close
	// the shared backend.
	Close() error
}

type UserRepository interface {
	Repository
	// CreateUser stores a new user and assigns its ID from a sequence.
	// Sets CreatedAt if not already set.
	// Returns ErrDuplicateKey if the email is already registered.
	CreateUser(ctx context.Context, user *core.User) (*core.User, error)

	// GetUser retrieves a user by ID.
	// Returns ErrNotFound if the user doesn't exist.
	GetUser(ctx context.Context, id core.ID) (*core.User, error)

	// GetUserByEmail retrieves a user by email address.
	// Returns ErrNotFound if no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*core.User, error)
}

type ProfileRepository interface {
	Repository
	// GetProfile retrieves the medical profile for a user.
	// Returns ErrNotFound if the user has never saved one.
	GetProfile(ctx context.Context, userID core.ID) (*core.Profile, error)

	// UpsertProfile creates or replaces a user's medical profile.
	// CreatedAt is preserved from any existing profile, UpdatedAt is
	// always set to now.
	UpsertProfile(ctx context.Context, profile *core.Profile) (*core.Profile, error)
}
