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

import "errors"

var (
	// ErrNotFound is returned for an unknown user or a user without a
	// saved medical profile.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when a unique index, such as the user
	// email index, already holds the key.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageClosed is returned by operations on a closed backend.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed wraps decoding failures of stored users and
	// profiles.
	ErrSerializationFailed = errors.New("serialization failed")
)
