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

package filter

import (
	"slices"
	"strings"
	"time"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/terms"
	"github.com/poiesic/taskquery/textproc"
)

// Predicate reports whether a task is selected. Predicates are pure and
// may be evaluated from many goroutines at once.
type Predicate func(t *core.Task) bool

// All matches every task.
func All(*core.Task) bool { return true }

// And combines predicates conjunctively. No predicates yields All.
func And(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return All
	case 1:
		return preds[0]
	}
	return func(t *core.Task) bool {
		for _, p := range preds {
			if !p(t) {
				return false
			}
		}
		return true
	}
}

// Build converts an intent into a single predicate: one test per present
// property plus the keyword test. Dates are compared as civil days in
// now's location.
func Build(in *core.QueryIntent, cfg *terms.Config, now time.Time) Predicate {
	return And(Properties(in.Properties, cfg, now), Keywords(in.Keywords))
}

// Properties builds the conjunction of the property tests. Absent
// properties impose no constraint.
func Properties(p core.ParsedProperties, cfg *terms.Config, now time.Time) Predicate {
	if cfg == nil {
		cfg = terms.Default()
	}
	today := core.CivilDay(now)

	var preds []Predicate
	if len(p.Priority) > 0 {
		preds = append(preds, PriorityIn(p.Priority))
	}
	if p.DueDateRange != nil {
		preds = append(preds, DueIn(p.DueDateRange, today))
	} else if p.DueDate != nil {
		preds = append(preds, DueIn(p.DueDate, today))
	}
	if len(p.StatusValues) > 0 {
		preds = append(preds, StatusIn(p.StatusValues, cfg))
	}
	if len(p.ExcludedStatusValues) > 0 {
		preds = append(preds, not(StatusIn(p.ExcludedStatusValues, cfg)))
	}
	if len(p.Tags) > 0 {
		preds = append(preds, HasTags(p.Tags))
	}
	if len(p.ExcludedTags) > 0 {
		preds = append(preds, LacksTags(p.ExcludedTags))
	}
	if p.Folder != "" {
		preds = append(preds, InFolder(p.Folder))
	}
	return And(preds...)
}

func not(p Predicate) Predicate {
	return func(t *core.Task) bool { return !p(t) }
}

// PriorityIn matches tasks whose priority is one of levels.
func PriorityIn(levels []int) Predicate {
	levels = slices.Clone(levels)
	return func(t *core.Task) bool {
		return slices.Contains(levels, t.Priority)
	}
}

// DueIn matches tasks whose due day falls in the days expr selects.
func DueIn(expr core.DateExpression, today time.Time) Predicate {
	w := resolveWindow(expr, core.CivilDay(today))
	return w.contains
}

// StatusIn matches tasks whose status symbol resolves from any of values.
// Values that resolve to nothing are dropped; when none resolve, no task
// matches.
func StatusIn(values []string, cfg *terms.Config) Predicate {
	if cfg == nil {
		cfg = terms.Default()
	}
	symbols := make(map[string]bool)
	for _, v := range values {
		resolved, ok := cfg.ResolveStatus(v)
		if !ok {
			continue
		}
		for _, s := range resolved {
			symbols[s] = true
		}
	}
	return func(t *core.Task) bool {
		return symbols[t.Status]
	}
}

// HasTags matches tasks carrying every tag. A nested tag such as
// "work/meetings" carries its parent "work".
func HasTags(tags []string) Predicate {
	tags = normalizeTags(tags)
	return func(t *core.Task) bool {
		for _, want := range tags {
			if !hasTag(t, want) {
				return false
			}
		}
		return true
	}
}

// LacksTags matches tasks carrying none of the tags.
func LacksTags(tags []string) Predicate {
	tags = normalizeTags(tags)
	return func(t *core.Task) bool {
		for _, unwanted := range tags {
			if hasTag(t, unwanted) {
				return false
			}
		}
		return true
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.Trim(strings.TrimPrefix(tag, "#"), "/"))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func hasTag(t *core.Task, want string) bool {
	for _, tag := range t.Tags {
		tag = strings.ToLower(tag)
		if tag == want || strings.HasPrefix(tag, want+"/") {
			return true
		}
	}
	return false
}

// InFolder matches tasks in folder or any folder below it, ignoring case.
func InFolder(folder string) Predicate {
	folder = strings.ToLower(strings.Trim(folder, "/"))
	return func(t *core.Task) bool {
		f := strings.ToLower(strings.Trim(t.Folder, "/"))
		return f == folder || strings.HasPrefix(f, folder+"/")
	}
}

// Keywords matches tasks whose text contains at least one keyword,
// ignoring case. No keywords matches every task.
func Keywords(keywords []string) Predicate {
	folded := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = textproc.Fold(k); k != "" {
			folded = append(folded, k)
		}
	}
	if len(folded) == 0 {
		return All
	}
	return func(t *core.Task) bool {
		text := textproc.Fold(t.Text)
		for _, k := range folded {
			if strings.Contains(text, k) {
				return true
			}
		}
		return false
	}
}
