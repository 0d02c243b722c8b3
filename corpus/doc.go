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

// Package corpus loads the question/answer tables the retrieval engine
// searches.
//
// The question table holds one row per known question together with its
// precomputed embedding and category key. The answer table holds the
// guidance texts, many per category key. Both are UTF-8 CSV files with a
// header row; English and Korean column names are accepted:
//
//	question,condition,intent,embedding
//	물집이 생겼어요,화상,물집,"[0.12, -0.03, ...]"
//
//	condition,intent,answer
//	화상,물집,물집은 터뜨리지 말고 냉찜질을 해 주세요.
//
// A loaded Corpus is immutable. Holder publishes the current Corpus to
// concurrent readers and Watcher replaces it when the files change.
package corpus
