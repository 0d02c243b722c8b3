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

// Package storage provides the storage abstraction layer for user accounts
// and medical profiles.
//
// This package defines repository interfaces that decouple storage implementation
// from the HTTP and service layers. The BadgerDB implementation lives in
// storage/badger; storage/qdrant holds the optional remote vector index for
// the question corpus.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces:
//
//	users, err := badger.NewUserRepository(backend)  // returns storage.UserRepository
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Architecture
//
//   - Repository: Lifecycle shared by all repositories
//   - UserRepository: Accounts, unique by email
//   - ProfileRepository: One medical profile per user
//
// Records are encoded with the MUS serializers defined in core.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
