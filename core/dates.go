package core

import (
	"strconv"
	"strings"
	"time"
)

// IsoDateLayout is the layout used for absolute dates in queries and task metadata.
const IsoDateLayout = "2006-01-02"

// Named date keys understood by the filter builder.
const (
	NamedToday     = "today"
	NamedTomorrow  = "tomorrow"
	NamedYesterday = "yesterday"
	NamedOverdue   = "overdue"
	NamedThisWeek  = "this-week"
	NamedNextWeek  = "next-week"
	NamedLastWeek  = "last-week"
	NamedThisMonth = "this-month"
	NamedNextMonth = "next-month"
	NamedNoDate    = "no-date"
	NamedAnyDate   = "any-date"
)

// Weekday names are also valid named dates; they refer to the next
// occurrence of that weekday, today included.
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeekdayFromName returns the weekday for a named date key such as "monday".
func WeekdayFromName(name string) (time.Weekday, bool) {
	wd, ok := weekdayNames[name]
	return wd, ok
}

// IsKnownNamedDate reports whether name is a named date key.
func IsKnownNamedDate(name string) bool {
	switch name {
	case NamedToday, NamedTomorrow, NamedYesterday, NamedOverdue,
		NamedThisWeek, NamedNextWeek, NamedLastWeek,
		NamedThisMonth, NamedNextMonth, NamedNoDate, NamedAnyDate:
		return true
	}
	_, ok := weekdayNames[name]
	return ok
}

// DateExpression is a due-date constraint parsed from a query.
// The concrete variants are NamedDate, RelativeDate, CompoundDate,
// AbsoluteDate and *DateRange.
type DateExpression interface {
	isDateExpression()
	String() string
}

// NamedDate is a keyword date such as "today" or "overdue".
type NamedDate struct {
	Name string
}

// DateUnit is the unit of a relative date. Only day granularity and coarser exist.
type DateUnit int

const (
	UnitDay DateUnit = iota + 1
	UnitWeek
	UnitMonth
	UnitYear
)

func (u DateUnit) String() string {
	switch u {
	case UnitDay:
		return "d"
	case UnitWeek:
		return "w"
	case UnitMonth:
		return "mo"
	case UnitYear:
		return "y"
	}
	return "?"
}

// Sign is the direction of a relative date.
type Sign int

const (
	SignFuture Sign = iota
	SignPast
)

// RelativeDate is a single-unit offset from today, e.g. "7d" or "2 weeks ago".
type RelativeDate struct {
	Amount int
	Unit   DateUnit
	Sign   Sign
}

// CompoundDate combines several units, largest first, e.g. "1yr 2mo 3d".
type CompoundDate struct {
	Parts []RelativeDate
	Sign  Sign
}

// AbsoluteDate is a calendar day.
type AbsoluteDate struct {
	Date time.Time
}

// DateRange bounds a due date on one or both sides.
// A range with neither bound is never produced by the parser.
type DateRange struct {
	Start          DateExpression
	End            DateExpression
	StartExclusive bool
	EndExclusive   bool
}

func (NamedDate) isDateExpression()    {}
func (RelativeDate) isDateExpression() {}
func (CompoundDate) isDateExpression() {}
func (AbsoluteDate) isDateExpression() {}
func (*DateRange) isDateExpression()   {}

func (n NamedDate) String() string { return n.Name }

func (r RelativeDate) String() string {
	s := strconv.Itoa(r.Amount) + r.Unit.String()
	if r.Sign == SignPast {
		return "-" + s
	}
	return s
}

func (c CompoundDate) String() string {
	parts := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		parts[i] = strconv.Itoa(p.Amount) + p.Unit.String()
	}
	s := strings.Join(parts, " ")
	if c.Sign == SignPast {
		return "-" + s
	}
	return s
}

func (a AbsoluteDate) String() string { return a.Date.Format(IsoDateLayout) }

func (r *DateRange) String() string {
	var b strings.Builder
	b.WriteString("[")
	if r.Start != nil {
		if r.StartExclusive {
			b.WriteString(">")
		}
		b.WriteString(r.Start.String())
	}
	b.WriteString("..")
	if r.End != nil {
		if r.EndExclusive {
			b.WriteString("<")
		}
		b.WriteString(r.End.String())
	}
	b.WriteString("]")
	return b.String()
}

// CivilDay truncates t to its calendar day in t's location and returns that
// day as UTC midnight. All due-date comparisons operate on civil days.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b (negative when b is before a).
// Both arguments are truncated to civil days first.
func DaysBetween(a, b time.Time) int {
	return int(CivilDay(b).Sub(CivilDay(a)).Hours() / 24)
}
