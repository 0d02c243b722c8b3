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

// Package precompute embeds a question table ahead of time.
//
// The server never embeds corpus questions at startup; it loads vectors
// written by this package. Questions are embedded in batches on a worker
// pool, failed batches are retried with exponential backoff, and vectors
// are scaled to unit length before being written back as CSV.
package precompute
