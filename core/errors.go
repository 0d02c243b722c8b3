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

package core

import "errors"

var (
	// ErrEmptyQuery indicates the query was empty after normalization.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrCorpusUnavailable indicates no corpus is loaded.
	ErrCorpusUnavailable = errors.New("corpus unavailable")

	// ErrCorpusLoad indicates the corpus files could not be read or parsed.
	ErrCorpusLoad = errors.New("corpus load failed")

	// ErrNoMatch indicates no answer exists for the matched category.
	// It never reaches callers of the retrieval engine; they get
	// NoAnswerFound instead.
	ErrNoMatch = errors.New("no matching answer")

	// ErrDimensionMismatch indicates vectors of different lengths were compared.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidUser indicates a User failed validation.
	ErrInvalidUser = errors.New("invalid user")

	// ErrInvalidEmail indicates a malformed email address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrInvalidPassword indicates a password outside the allowed length.
	ErrInvalidPassword = errors.New("password must be between 6 and 128 characters")

	// ErrInvalidName indicates a user name outside the allowed length.
	ErrInvalidName = errors.New("name must be between 1 and 50 characters")

	// ErrInvalidProfile indicates a Profile failed validation.
	ErrInvalidProfile = errors.New("invalid profile")
)
