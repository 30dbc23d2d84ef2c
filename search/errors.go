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

package search

import "errors"

var (
	// ErrTaskSourceRequired is returned when a task source is not provided.
	ErrTaskSourceRequired = errors.New("task source required")

	// ErrParserRequired is returned when an intent parser is not provided.
	ErrParserRequired = errors.New("intent parser required")

	// ErrInvalidMaxHits is returned for a negative result limit.
	ErrInvalidMaxHits = errors.New("max hits must not be negative")

	// ErrTaskSourceFailed wraps errors returned by the task source.
	ErrTaskSourceFailed = errors.New("task source failed")
)
