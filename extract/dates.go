package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/terms"
	"github.com/poiesic/taskquery/textproc"
)

const (
	unitPattern       = `(?:years|year|yrs|yr|y|months|month|mos|mo|weeks|week|wks|wk|w|days|day|d)`
	subDayUnitPattern = `(?:seconds|second|secs|sec|s|minutes|minute|mins|min|m|hours|hour|hrs|hr|h)`
	isoPattern        = `\d{4}[-/]\d{1,2}[-/]\d{1,2}`
	partSeparator     = `(?:\s*,\s*|\s+and\s+|\s*)`
	relativePrefix    = `(?:(?P<pre>in|within|next|last|past)\s+)?`
	relativeSuffix    = `(?P<ago>\s+ago)?`
)

var units = map[string]core.DateUnit{
	"d": core.UnitDay, "day": core.UnitDay, "days": core.UnitDay,
	"w": core.UnitWeek, "wk": core.UnitWeek, "wks": core.UnitWeek, "week": core.UnitWeek, "weeks": core.UnitWeek,
	"mo": core.UnitMonth, "mos": core.UnitMonth, "month": core.UnitMonth, "months": core.UnitMonth,
	"y": core.UnitYear, "yr": core.UnitYear, "yrs": core.UnitYear, "year": core.UnitYear, "years": core.UnitYear,
}

var (
	partRe        = regexp.MustCompile(`(?i)(\d+)\s*(` + unitPattern + `)`)
	isoAnchoredRe = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	relAnchoredRe = regexp.MustCompile(`(?i)^` + relativePrefix + `(?P<sign>[+-]?)(?P<parts>\d+\s*` + unitPattern +
		`(?:` + partSeparator + `\d+\s*` + unitPattern + `)*)` + relativeSuffix + `$`)

	compoundRe = bounded(relativePrefix + `(?P<sign>[+-]?)(?P<parts>\d+\s*` + unitPattern +
		`(?:` + partSeparator + `\d+\s*` + unitPattern + `)+)` + relativeSuffix)
	singleRe = bounded(relativePrefix + `(?P<sign>[+-]?)(?P<parts>\d+\s*` + unitPattern + `)` + relativeSuffix)
	subDayRe = bounded(`(?:(?:in|within|next|last|past)\s+)?[+-]?\d+\s*` + subDayUnitPattern + `(?:\s+ago)?` +
		`|(?:at\s+)?\d{1,2}(?::\d{2})?\s*(?:am|pm)` +
		`|(?:at\s+)?\d{1,2}:\d{2}(?::\d{2})?`)
	absoluteRe = bounded(isoPattern)
)

// ParseAbsolute parses YYYY-MM-DD or YYYY/MM/DD into a civil day. It rejects
// dates that do not exist on the calendar.
func ParseAbsolute(s string) (time.Time, error) {
	m := isoAnchoredRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// relativeFromParts builds a relative or compound date. Parts must use
// distinct units in descending order.
func relativeFromParts(pre, sign, parts, ago string) (core.DateExpression, bool) {
	direction := core.SignFuture
	switch strings.ToLower(pre) {
	case "last", "past":
		direction = core.SignPast
	}
	if sign == "-" || strings.TrimSpace(ago) != "" {
		direction = core.SignPast
	}

	var rel []core.RelativeDate
	for _, p := range partRe.FindAllStringSubmatch(parts, -1) {
		amount, err := strconv.Atoi(p[1])
		if err != nil {
			return nil, false
		}
		unit := units[strings.ToLower(p[2])]
		if len(rel) > 0 && unit >= rel[len(rel)-1].Unit {
			return nil, false
		}
		rel = append(rel, core.RelativeDate{Amount: amount, Unit: unit, Sign: direction})
	}
	switch len(rel) {
	case 0:
		return nil, false
	case 1:
		return rel[0], true
	}
	for i := range rel {
		rel[i].Sign = core.SignFuture
	}
	return core.CompoundDate{Parts: rel, Sign: direction}, true
}

// rangePattern is one range construct. Operands are captured in the
// groups "start" and "end".
type rangePattern struct {
	re             *regexp.Regexp
	startExclusive bool
	endExclusive   bool
}

func buildRangePatterns(namedAlt string) []rangePattern {
	operand := `(?:` + isoPattern +
		`|(?:[+-]?\d+\s*` + unitPattern + `(?:` + partSeparator + `\d+\s*` + unitPattern + `)*(?:\s+ago)?)`
	if namedAlt != "" {
		operand += `|` + namedAlt
	}
	operand += `)`
	start := `(?P<start>` + operand + `)`
	end := `(?P<end>` + operand + `)`

	return []rangePattern{
		{re: bounded(`from\s+` + start + `\s+(?:to|until|till|through)\s+` + end)},
		{re: bounded(`between\s+` + start + `\s+and\s+` + end)},
		{re: bounded(`before\s+` + end), endExclusive: true},
		{re: bounded(`(?:until|till|by)\s+` + end)},
		{re: bounded(`after\s+` + start), startExclusive: true},
		{re: bounded(`since\s+` + start)},
		{re: bounded(end + `\s*(?:之前|以前)`), endExclusive: true},
		{re: bounded(start + `\s*(?:之后|以后)`), startExclusive: true},
	}
}

// dateVocabulary holds the configured named-date phrases.
type dateVocabulary struct {
	named   map[string]core.NamedDate
	namedRe *regexp.Regexp
	ranges  []rangePattern
}

func newDateVocabulary(cfg *terms.Config) dateVocabulary {
	v := dateVocabulary{named: make(map[string]core.NamedDate)}
	phrases := make([]string, 0, len(cfg.DatePhrases()))
	for _, p := range cfg.DatePhrases() {
		v.named[p.Phrase] = p.Date
		phrases = append(phrases, p.Phrase)
	}
	alt := phraseAlternation(phrases)
	if alt != "" {
		v.namedRe = bounded(alt)
	}
	v.ranges = buildRangePatterns(alt)
	return v
}

func (v dateVocabulary) lookupNamed(s string) (core.NamedDate, bool) {
	key := strings.Join(strings.Fields(textproc.Fold(s)), " ")
	if nd, ok := v.named[key]; ok {
		return nd, true
	}
	if core.IsKnownNamedDate(key) {
		return core.NamedDate{Name: key}, true
	}
	return core.NamedDate{}, false
}

// parseOperand parses one side of a range.
func (v dateVocabulary) parseOperand(s string) (core.DateExpression, error) {
	s = strings.TrimSpace(s)
	if isoAnchoredRe.MatchString(s) {
		t, err := ParseAbsolute(s)
		if err != nil {
			return nil, err
		}
		return core.AbsoluteDate{Date: t}, nil
	}
	if m := relAnchoredRe.FindStringSubmatch(s); m != nil {
		get := func(name string) string { return m[relAnchoredRe.SubexpIndex(name)] }
		if d, ok := relativeFromParts(get("pre"), get("sign"), get("parts"), get("ago")); ok {
			return d, nil
		}
	}
	if nd, ok := v.lookupNamed(s); ok {
		return nd, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseDate parses a standalone date expression such as "tomorrow",
// "2025-03-01", "2w", "1yr 2mo", "3 days ago" or "before 2025-12-31".
// It reports false when s is not exactly one date expression.
func ParseDate(s string, cfg *terms.Config) (core.DateExpression, bool) {
	return NewExtractor(cfg, Options{SubDay: SubDayDrop}).ParseDate(s)
}
