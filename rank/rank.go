package rank

import (
	"cmp"
	"slices"

	"github.com/poiesic/taskquery/core"
)

// Rank returns the tasks ordered by final score, highest first. Ties are
// broken by due date (earliest first, undated last), then by priority (p1
// first, unset last), then by input order. The input is not modified.
func Rank(scored []core.ScoredTask) []core.ScoredTask {
	out := slices.Clone(scored)
	slices.SortStableFunc(out, compare)
	return out
}

func compare(a, b core.ScoredTask) int {
	if c := cmp.Compare(b.FinalScore, a.FinalScore); c != 0 {
		return c
	}
	if c := compareDue(a.Task, b.Task); c != 0 {
		return c
	}
	return cmp.Compare(priorityKey(a.Task), priorityKey(b.Task))
}

func compareDue(a, b *core.Task) int {
	switch {
	case a.HasDue() && b.HasDue():
		return a.Due.Compare(b.Due)
	case a.HasDue():
		return -1
	case b.HasDue():
		return 1
	}
	return 0
}

func priorityKey(t *core.Task) int {
	if t.HasPriority() {
		return t.Priority
	}
	return core.PriorityLowest + 1
}
