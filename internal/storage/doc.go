/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements document persistence and the user-scope index.
// It handles serialize/deserialize for the canonical JSON proof document
// (.proof or .json, interchangeable content) with transactional writes and
// timestamped sibling backups, plus an embedded SQLite index in the user data
// directory used for the recent-projects list, proof-step search, and diagram
// thumbnails. The index is derived data and is rebuildable/disposable by design.
package storage
