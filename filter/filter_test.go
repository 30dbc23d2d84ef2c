package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/extract"
	"github.com/poiesic/taskquery/terms"
)

// Wednesday
var now = time.Date(2025, time.March, 12, 15, 30, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse(core.IsoDateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func due(s string) *core.Task {
	t := &core.Task{Text: "task due " + s}
	if s != "" {
		t.Due = day(s)
	}
	return t
}

// selected returns the due dates of the tasks the query's properties select.
func selected(t *testing.T, query string, tasks []*core.Task) []string {
	t.Helper()
	cfg := terms.Default("en")
	r := extract.Properties(query, cfg, extract.Options{})
	require.Empty(t, r.Warnings, "query %q", query)
	pred := Properties(r.Properties, cfg, now)

	var out []string
	for _, task := range tasks {
		if pred(task) {
			if task.HasDue() {
				out = append(out, task.Due.Format(core.IsoDateLayout))
			} else {
				out = append(out, "none")
			}
		}
	}
	return out
}

func TestDueDates(t *testing.T) {
	tasks := []*core.Task{
		due(""),
		due("2025-02-28"),
		due("2025-03-02"), // Sunday two weeks back
		due("2025-03-03"), // last Monday
		due("2025-03-10"), // Monday
		due("2025-03-11"),
		due("2025-03-12"), // today
		due("2025-03-13"),
		due("2025-03-14"), // Friday
		due("2025-03-16"), // Sunday
		due("2025-03-17"), // next Monday
		due("2025-03-19"),
		due("2025-03-31"),
		due("2025-04-01"),
		due("2025-04-30"),
		due("2025-05-01"),
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"today", []string{"2025-03-12"}},
		{"tomorrow", []string{"2025-03-13"}},
		{"yesterday", []string{"2025-03-11"}},
		{"overdue", []string{"2025-02-28", "2025-03-02", "2025-03-03", "2025-03-10", "2025-03-11"}},
		{"this week", []string{"2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14", "2025-03-16"}},
		{"next week", []string{"2025-03-17", "2025-03-19"}},
		{"last week", []string{"2025-03-03"}},
		{"this month", []string{"2025-03-02", "2025-03-03", "2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14", "2025-03-16", "2025-03-17", "2025-03-19", "2025-03-31"}},
		{"next month", []string{"2025-04-01", "2025-04-30"}},
		{"no date", []string{"none"}},
		{"friday", []string{"2025-03-14"}},
		{"wednesday", []string{"2025-03-12"}},
		{"2025-03-19", []string{"2025-03-19"}},
		{"7d", []string{"2025-03-12", "2025-03-13", "2025-03-14", "2025-03-16", "2025-03-17", "2025-03-19"}},
		{"-2d", []string{"2025-03-10", "2025-03-11", "2025-03-12"}},
		{"before 2025-03-11", []string{"2025-02-28", "2025-03-02", "2025-03-03", "2025-03-10"}},
		{"until 2025-03-11", []string{"2025-02-28", "2025-03-02", "2025-03-03", "2025-03-10", "2025-03-11"}},
		{"after 2025-04-01", []string{"2025-04-30", "2025-05-01"}},
		{"since 2025-04-01", []string{"2025-04-01", "2025-04-30", "2025-05-01"}},
		{"from 2025-03-13 to 2025-03-17", []string{"2025-03-13", "2025-03-14", "2025-03-16", "2025-03-17"}},
		{"before next week", []string{"2025-02-28", "2025-03-02", "2025-03-03", "2025-03-10", "2025-03-11", "2025-03-12", "2025-03-13", "2025-03-14", "2025-03-16"}},
		{"after this month", []string{"2025-04-01", "2025-04-30", "2025-05-01"}},
		{"after 1mo", []string{"2025-04-30", "2025-05-01"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, selected(t, tt.query, tasks))
		})
	}
}

func TestDueIn_MonotoneWindows(t *testing.T) {
	today := core.CivilDay(now)
	assert.True(t, DueIn(core.NamedDate{Name: core.NamedAnyDate}, today)(due("2030-01-01")))
	assert.False(t, DueIn(core.NamedDate{Name: core.NamedAnyDate}, today)(due("")))
	assert.False(t, DueIn(core.NamedDate{Name: core.NamedToday}, today)(due("")), "undated tasks never match a date")

	compound := core.CompoundDate{Parts: []core.RelativeDate{{Amount: 1, Unit: core.UnitMonth}, {Amount: 2, Unit: core.UnitDay}}}
	pred := DueIn(compound, today)
	assert.True(t, pred(due("2025-04-14")))
	assert.False(t, pred(due("2025-04-15")))
	assert.False(t, pred(due("2025-03-11")))
}

func TestStatus(t *testing.T) {
	cfg := terms.Default("en")
	open := &core.Task{Status: " "}
	wip := &core.Task{Status: "/"}
	done := &core.Task{Status: "x"}
	doneUpper := &core.Task{Status: "X"}
	cancelled := &core.Task{Status: "-"}
	question := &core.Task{Status: "?"}
	all := []*core.Task{open, wip, done, doneUpper, cancelled, question}

	match := func(p Predicate) []*core.Task {
		var out []*core.Task
		for _, task := range all {
			if p(task) {
				out = append(out, task)
			}
		}
		return out
	}

	// symbol, key and alias select the same subset
	bySymbol := match(StatusIn([]string{"x"}, cfg))
	assert.Equal(t, []*core.Task{done}, bySymbol)
	assert.Equal(t, []*core.Task{done, doneUpper}, match(StatusIn([]string{"completed"}, cfg)))
	assert.Equal(t, []*core.Task{done, doneUpper}, match(StatusIn([]string{"done"}, cfg)))
	assert.Equal(t, []*core.Task{done, doneUpper}, match(StatusIn([]string{"finished"}, cfg)))

	// multi-value is a union
	assert.Equal(t, []*core.Task{open, wip}, match(StatusIn([]string{"open", "wip"}, cfg)))
	assert.Equal(t, []*core.Task{open, wip}, match(StatusIn([]string{"open", "bogus", "in-progress"}, cfg)))

	// a symbol outside every category still matches exactly
	assert.Equal(t, []*core.Task{question}, match(StatusIn([]string{"?"}, cfg)))

	// nothing resolves, nothing matches
	assert.Empty(t, match(StatusIn([]string{"bogus"}, cfg)))
}

func TestBuild(t *testing.T) {
	cfg := terms.Default("en")
	tasks := []*core.Task{
		{Text: "Fix login bug", Priority: 1, Due: day("2025-03-10"), Status: " ", Tags: []string{"work/backend"}, Folder: "Projects/App"},
		{Text: "Write report", Priority: 2, Due: day("2025-03-20"), Status: "x", Tags: []string{"work"}, Folder: "Projects"},
		{Text: "Buy milk", Status: " ", Tags: []string{"home", "someday"}},
		{Text: "Bug bash planning", Priority: 3, Status: "/", Tags: []string{"work"}, Folder: "Projects/Apparel"},
	}

	tests := []struct {
		name string
		in   core.QueryIntent
		want []int
	}{
		{name: "empty intent matches all", in: core.QueryIntent{}, want: []int{0, 1, 2, 3}},
		{name: "keywords any", in: core.QueryIntent{Keywords: []string{"bug", "milk"}}, want: []int{0, 2, 3}},
		{name: "keyword substring ignores case", in: core.QueryIntent{Keywords: []string{"REPO"}}, want: []int{1}},
		{name: "priority set", in: core.QueryIntent{Properties: core.ParsedProperties{Priority: []int{1, 3}}}, want: []int{0, 3}},
		{name: "nested tag", in: core.QueryIntent{Properties: core.ParsedProperties{Tags: []string{"work"}}}, want: []int{0, 1, 3}},
		{name: "tags are all required", in: core.QueryIntent{Properties: core.ParsedProperties{Tags: []string{"home", "someday"}}}, want: []int{2}},
		{name: "excluded tag", in: core.QueryIntent{Properties: core.ParsedProperties{ExcludedTags: []string{"someday"}}}, want: []int{0, 1, 3}},
		{name: "folder prefix", in: core.QueryIntent{Properties: core.ParsedProperties{Folder: "projects/app"}}, want: []int{0}},
		{name: "folder root", in: core.QueryIntent{Properties: core.ParsedProperties{Folder: "Projects"}}, want: []int{0, 1, 3}},
		{name: "excluded status", in: core.QueryIntent{Properties: core.ParsedProperties{ExcludedStatusValues: []string{"done"}}}, want: []int{0, 2, 3}},
		{name: "conjunction", in: core.QueryIntent{
			Keywords:   []string{"bug"},
			Properties: core.ParsedProperties{Priority: []int{1}, DueDate: core.NamedDate{Name: core.NamedOverdue}},
		}, want: []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := Build(&tt.in, cfg, now)
			var got []int
			for i, task := range tasks {
				if pred(task) {
					got = append(got, i)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAnd(t *testing.T) {
	task := &core.Task{}
	assert.True(t, And()(task))
	yes := func(*core.Task) bool { return true }
	no := func(*core.Task) bool { return false }
	assert.True(t, And(yes)(task))
	assert.False(t, And(yes, no)(task))
}
