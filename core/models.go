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

import (
	"encoding/binary"
	"strconv"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for a task.
// It is derived from the task's location (path and line) or its text.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// IDFromLocation generates the ID of a task found at line of the file at path.
func IDFromLocation(path string, line int) ID {
	return IDFromContent(path + ":" + strconv.Itoa(line))
}

// Priority levels. Lower numbers are more important.
const (
	PriorityNone    = 0
	PriorityHighest = 1
	PriorityLowest  = 4
)

// Task is a single checklist item from the task source.
// Tasks are read-only for the duration of a query.
type Task struct {
	Id       ID
	Text     string
	Priority int       // 1 (highest) to 4 (lowest); PriorityNone when unset
	Due      time.Time // Civil day at UTC midnight; zero when the task has no due date
	Status   string    // Raw status symbol, e.g. " ", "x", "/"
	Tags     []string  // Lowercase, without the leading '#'
	Folder   string    // Slash-separated folder of the source file, "" for the vault root
	Path     string    // Source file path relative to the vault root
	Line     int       // 1-based line number in the source file
}

// HasDue reports whether the task has a due date.
func (t *Task) HasDue() bool {
	return !t.Due.IsZero()
}

// HasPriority reports whether the task has a priority set.
func (t *Task) HasPriority() bool {
	return t.Priority >= PriorityHighest && t.Priority <= PriorityLowest
}

// ScoredTask is a task that survived filtering, with its score breakdown.
type ScoredTask struct {
	Task           *Task
	RelevanceScore float64
	DueDateScore   float64
	PriorityScore  float64
	StatusScore    float64
	FinalScore     float64
}
