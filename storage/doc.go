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

// Package storage defines where tasks come from.
//
// A TaskSource is anything that can hand the search engine a snapshot of
// tasks. TaskRepository adds persistence and the mutations vault
// ingestion needs. StaticSource serves a fixed slice, which is what most
// tests and embedders want.
//
// Constructors in backend packages return the interface:
//
//	repo, err := badger.NewRepository("/path/to/db")  // storage.TaskRepository
//
// Tasks are stored with a compact versioned binary codec built on mus-go
// (MarshalTask, UnmarshalTask). All implementations must be safe for
// concurrent use.
package storage
