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

// Package search answers task queries.
//
// A Searcher parses the query into an intent (deterministic extraction,
// plus the semantic enhancer in Smart and Chat modes), loads the task
// snapshot from a storage.TaskSource, keeps the tasks the intent's filters
// and keywords accept, scores them and ranks them. Task loading overlaps
// with parsing, and large task sets are filtered and scored on a worker
// pool without changing the result order.
//
// Problems with the enhancer never fail a search; they show up in the
// intent's diagnostics. Search only returns an error when the task source
// fails or the context is cancelled.
package search
