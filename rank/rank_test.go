package rank

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/terms"
)

var now = time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)

func dueIn(days int) time.Time {
	return core.CivilDay(now).AddDate(0, 0, days)
}

func TestScore_Relevance(t *testing.T) {
	w := DefaultWeights()
	task := &core.Task{Text: "Fix the Login bug in auth service"}

	tests := []struct {
		name     string
		keywords []string
		core     []string
		want     float64
	}{
		{name: "no keywords", want: 0},
		{name: "all match", keywords: []string{"login", "bug"}, want: 1},
		{name: "half match", keywords: []string{"login", "payment"}, want: 0.5},
		{name: "duplicates count once", keywords: []string{"bug", "bug", "BUG", "payment"}, want: 0.5},
		{name: "core bonus", keywords: []string{"login", "auth", "signin", "password"}, core: []string{"login"}, want: 0.5 + 0.2},
		{name: "expansion without core match", keywords: []string{"auth", "signin"}, core: []string{"logon"}, want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(task, tt.keywords, tt.core, w, nil, now)
			assert.InDelta(t, tt.want, got.RelevanceScore, 1e-9)
		})
	}
}

func TestScore_DueBuckets(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name string
		task *core.Task
		want float64
	}{
		{name: "overdue", task: &core.Task{Due: dueIn(-1)}, want: 1.5},
		{name: "today", task: &core.Task{Due: dueIn(0)}, want: 1.0},
		{name: "within a week", task: &core.Task{Due: dueIn(7)}, want: 1.0},
		{name: "within a month", task: &core.Task{Due: dueIn(8)}, want: 0.5},
		{name: "month edge", task: &core.Task{Due: dueIn(30)}, want: 0.5},
		{name: "later", task: &core.Task{Due: dueIn(31)}, want: 0.2},
		{name: "no due date", task: &core.Task{}, want: 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.task, nil, nil, w, nil, now).DueDateScore)
		})
	}
}

func TestScore_DueMonotone(t *testing.T) {
	w := DefaultWeights()
	s := NewScorer(nil, nil, w, nil, now)
	prev := s.Score(&core.Task{Due: dueIn(-400)}).DueDateScore
	for days := -399; days <= 400; days++ {
		cur := s.Score(&core.Task{Due: dueIn(days)}).DueDateScore
		require.LessOrEqual(t, cur, prev, "day %d scored above an earlier due date", days)
		prev = cur
	}
	assert.LessOrEqual(t, s.Score(&core.Task{}).DueDateScore, prev)
}

func TestScore_Priority(t *testing.T) {
	w := DefaultWeights()
	want := map[int]float64{1: 1.0, 2: 0.75, 3: 0.5, 4: 0.2, 0: 0.1}
	for level, score := range want {
		assert.Equal(t, score, Score(&core.Task{Priority: level}, nil, nil, w, nil, now).PriorityScore, "p%d", level)
	}
}

func TestScore_Final(t *testing.T) {
	w := DefaultWeights()
	task := &core.Task{Text: "bug", Priority: 1, Due: dueIn(-2), Status: " "}

	got := Score(task, []string{"bug"}, []string{"bug"}, w, terms.Default(), now)
	assert.InDelta(t, 1.2, got.RelevanceScore, 1e-9)
	assert.InDelta(t, 1.2*20+1.5*4+1.0*1, got.FinalScore, 1e-9)
	assert.Equal(t, 1.0, got.StatusScore)

	w.Status = 2
	got = Score(task, []string{"bug"}, []string{"bug"}, w, terms.Default(), now)
	assert.InDelta(t, 1.2*20+1.5*4+1.0*1+1.0*2, got.FinalScore, 1e-9)

	got = Score(&core.Task{Status: "?"}, nil, nil, w, terms.Default(), now)
	assert.Equal(t, 0.0, got.StatusScore, "unknown symbols have no weight")
}

func TestRank(t *testing.T) {
	a := &core.Task{Text: "a", Due: dueIn(3), Priority: 2}
	b := &core.Task{Text: "b", Due: dueIn(1), Priority: 3}
	c := &core.Task{Text: "c", Priority: 1}
	d := &core.Task{Text: "d", Due: dueIn(1), Priority: 1}
	e := &core.Task{Text: "e", Due: dueIn(1)}
	f := &core.Task{Text: "f", Due: dueIn(1)}
	top := &core.Task{Text: "top"}

	input := []core.ScoredTask{
		{Task: a, FinalScore: 5},
		{Task: b, FinalScore: 5},
		{Task: c, FinalScore: 5},
		{Task: top, FinalScore: 9},
		{Task: e, FinalScore: 5},
		{Task: d, FinalScore: 5},
		{Task: f, FinalScore: 5},
	}
	ranked := Rank(input)

	var order []string
	for _, st := range ranked {
		order = append(order, st.Task.Text)
	}
	// score, then due (undated last), then priority (unset last), then input order
	assert.Equal(t, []string{"top", "d", "b", "e", "f", "a", "c"}, order)
	assert.Equal(t, "a", input[0].Task.Text, "input untouched")
}

func TestRank_Stable(t *testing.T) {
	var input []core.ScoredTask
	for i := 0; i < 50; i++ {
		input = append(input, core.ScoredTask{Task: &core.Task{Text: string(rune('A' + i%26)), Line: i}, FinalScore: 1})
	}
	ranked := Rank(input)
	for i, st := range ranked {
		assert.Equal(t, i, st.Task.Line)
	}
	assert.Empty(t, Rank(nil))
}

func TestWeights_Validate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	w := DefaultWeights()
	w.Relevance = -1
	assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)

	w = DefaultWeights()
	w.Due.None = 5
	assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)

	w = DefaultWeights()
	w.Levels.P4 = 0.9
	assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)
}
