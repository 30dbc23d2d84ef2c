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
	"fmt"
	"strings"
)

// ValidateTask checks that a task has the fields every consumer relies on.
func ValidateTask(task *Task) error {
	if task == nil {
		return fmt.Errorf("%w: task is nil", ErrInvalidTask)
	}

	if strings.TrimSpace(task.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTask, ErrEmptyText)
	}

	if task.Status == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTask, ErrEmptyStatus)
	}

	if err := ValidatePriority(task.Priority); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}

	return nil
}

// ValidatePriority accepts PriorityNone and the levels 1 through 4.
func ValidatePriority(priority int) error {
	if priority != PriorityNone && (priority < PriorityHighest || priority > PriorityLowest) {
		return fmt.Errorf("%w: value %d", ErrInvalidPriority, priority)
	}
	return nil
}

// ValidatePriorityLevel accepts only the levels 1 through 4. Queries use it:
// asking for PriorityNone is not a priority filter.
func ValidatePriorityLevel(level int) error {
	if level < PriorityHighest || level > PriorityLowest {
		return fmt.Errorf("%w: level %d", ErrInvalidPriority, level)
	}
	return nil
}
