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

package rank

import (
	"strings"
	"time"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/terms"
	"github.com/poiesic/taskquery/textproc"
)

const (
	weekDays  = 7
	monthDays = 30
)

// Scorer scores tasks for one query. It folds the keywords once and is
// safe for concurrent use; no score depends on another task.
type Scorer struct {
	keywords []string
	coreKeys []string
	weights  Weights
	cfg      *terms.Config
	today    time.Time
}

// NewScorer prepares scoring for one query.
func NewScorer(keywords, coreKeywords []string, weights Weights, cfg *terms.Config, now time.Time) *Scorer {
	return &Scorer{
		keywords: foldUnique(keywords),
		coreKeys: foldUnique(coreKeywords),
		weights:  weights,
		cfg:      cfg,
		today:    core.CivilDay(now),
	}
}

// Score computes the score breakdown of one task.
func Score(task *core.Task, keywords, coreKeywords []string, weights Weights, cfg *terms.Config, now time.Time) core.ScoredTask {
	return NewScorer(keywords, coreKeywords, weights, cfg, now).Score(task)
}

// Score computes the score breakdown of task.
func (s *Scorer) Score(task *core.Task) core.ScoredTask {
	st := core.ScoredTask{
		Task:           task,
		RelevanceScore: s.relevance(task),
		DueDateScore:   s.due(task),
		PriorityScore:  s.priority(task),
		StatusScore:    s.status(task),
	}
	w := s.weights
	st.FinalScore = st.RelevanceScore*w.Relevance +
		st.DueDateScore*w.DueDate +
		st.PriorityScore*w.Priority +
		st.StatusScore*w.Status
	return st
}

// relevance is the share of keywords found in the text plus the core bonus
// times the share of core keywords found. Each keyword counts once.
func (s *Scorer) relevance(task *core.Task) float64 {
	if len(s.keywords) == 0 && len(s.coreKeys) == 0 {
		return 0
	}
	text := textproc.Fold(task.Text)
	var score float64
	if len(s.keywords) > 0 {
		score = float64(countMatches(text, s.keywords)) / float64(len(s.keywords))
	}
	if len(s.coreKeys) > 0 {
		score += s.weights.CoreBonus * float64(countMatches(text, s.coreKeys)) / float64(len(s.coreKeys))
	}
	return score
}

func (s *Scorer) due(task *core.Task) float64 {
	b := s.weights.Due
	if !task.HasDue() {
		return b.None
	}
	days := core.DaysBetween(s.today, task.Due)
	switch {
	case days < 0:
		return b.Overdue
	case days <= weekDays:
		return b.Week
	case days <= monthDays:
		return b.Month
	}
	return b.Later
}

func (s *Scorer) priority(task *core.Task) float64 {
	l := s.weights.Levels
	switch task.Priority {
	case 1:
		return l.P1
	case 2:
		return l.P2
	case 3:
		return l.P3
	case 4:
		return l.P4
	}
	return l.None
}

func (s *Scorer) status(task *core.Task) float64 {
	if s.cfg == nil {
		return 0
	}
	if c, ok := s.cfg.CategoryForSymbol(task.Status); ok {
		return c.Weight
	}
	return 0
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

func foldUnique(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = textproc.Fold(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
