package filter

import (
	"time"

	"github.com/poiesic/taskquery/core"
)

// window is an inclusive span of civil days. A zero bound is open.
type window struct {
	from, to time.Time
	// noDue selects tasks without a due date, anyDue any task with one.
	noDue  bool
	anyDue bool
}

func (w window) contains(t *core.Task) bool {
	if w.noDue {
		return !t.HasDue()
	}
	if !t.HasDue() {
		return false
	}
	if w.anyDue {
		return true
	}
	if !w.from.IsZero() && t.Due.Before(w.from) {
		return false
	}
	if !w.to.IsZero() && t.Due.After(w.to) {
		return false
	}
	return true
}

func single(day time.Time) window {
	return window{from: day, to: day}
}

// resolveWindow turns a date expression into the days it selects, relative
// to today.
func resolveWindow(expr core.DateExpression, today time.Time) window {
	switch d := expr.(type) {
	case core.NamedDate:
		return namedWindow(d.Name, today)
	case core.AbsoluteDate:
		return single(core.CivilDay(d.Date))
	case core.RelativeDate:
		return spanTo(offset(today, d.Sign, d), today)
	case core.CompoundDate:
		return spanTo(offset(today, d.Sign, d.Parts...), today)
	case *core.DateRange:
		return rangeWindow(d, today)
	}
	return window{anyDue: true}
}

// spanTo covers the days between today and target, both included.
func spanTo(target, today time.Time) window {
	if target.Before(today) {
		return window{from: target, to: today}
	}
	return window{from: today, to: target}
}

func offset(today time.Time, sign core.Sign, parts ...core.RelativeDate) time.Time {
	var years, months, days int
	for _, p := range parts {
		switch p.Unit {
		case core.UnitDay:
			days += p.Amount
		case core.UnitWeek:
			days += 7 * p.Amount
		case core.UnitMonth:
			months += p.Amount
		case core.UnitYear:
			years += p.Amount
		}
	}
	if sign == core.SignPast {
		years, months, days = -years, -months, -days
	}
	return today.AddDate(years, months, days)
}

// bound resolves one side of a range. Relative bounds name a single day
// rather than the span up to it.
func bound(expr core.DateExpression, today time.Time) window {
	switch d := expr.(type) {
	case core.RelativeDate:
		return single(offset(today, d.Sign, d))
	case core.CompoundDate:
		return single(offset(today, d.Sign, d.Parts...))
	}
	return resolveWindow(expr, today)
}

func rangeWindow(r *core.DateRange, today time.Time) window {
	w := window{anyDue: r.Start == nil && r.End == nil}
	if r.Start != nil {
		b := bound(r.Start, today)
		if r.StartExclusive {
			if !b.to.IsZero() {
				w.from = b.to.AddDate(0, 0, 1)
			}
		} else {
			w.from = b.from
		}
	}
	if r.End != nil {
		b := bound(r.End, today)
		if r.EndExclusive {
			if !b.from.IsZero() {
				w.to = b.from.AddDate(0, 0, -1)
			}
		} else {
			w.to = b.to
		}
	}
	if w.from.IsZero() && w.to.IsZero() {
		w.anyDue = true
	}
	return w
}

func namedWindow(name string, today time.Time) window {
	switch name {
	case core.NamedToday:
		return single(today)
	case core.NamedTomorrow:
		return single(today.AddDate(0, 0, 1))
	case core.NamedYesterday:
		return single(today.AddDate(0, 0, -1))
	case core.NamedOverdue:
		return window{to: today.AddDate(0, 0, -1)}
	case core.NamedThisWeek:
		return week(today, 0)
	case core.NamedNextWeek:
		return week(today, 1)
	case core.NamedLastWeek:
		return week(today, -1)
	case core.NamedThisMonth:
		return month(today, 0)
	case core.NamedNextMonth:
		return month(today, 1)
	case core.NamedNoDate:
		return window{noDue: true}
	case core.NamedAnyDate:
		return window{anyDue: true}
	}
	if wd, ok := core.WeekdayFromName(name); ok {
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		return single(today.AddDate(0, 0, ahead))
	}
	return window{anyDue: true}
}

// week returns the Monday to Sunday week n weeks from the one holding today.
func week(today time.Time, n int) window {
	sinceMonday := (int(today.Weekday()) + 6) % 7
	monday := today.AddDate(0, 0, -sinceMonday+7*n)
	return window{from: monday, to: monday.AddDate(0, 0, 6)}
}

func month(today time.Time, n int) window {
	first := time.Date(today.Year(), today.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return window{from: first, to: first.AddDate(0, 1, -1)}
}
