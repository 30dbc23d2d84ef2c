package intent

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/taskquery/ai"
	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/extract"
	"github.com/poiesic/taskquery/terms"
	"github.com/poiesic/taskquery/textproc"
)

// Deterministic is the model-free understanding of a query: the extracted
// properties and the keywords left after stripping them.
type Deterministic struct {
	Query      string
	Properties core.ParsedProperties
	Keywords   []string
	// Consumed lists the query tokens recognized as properties.
	Consumed []string
	Warnings []string
}

// Analyze runs property and keyword extraction over query.
func Analyze(ex *extract.Extractor, query string) Deterministic {
	r := ex.Extract(query)
	return Deterministic{
		Query:      query,
		Properties: r.Properties,
		Keywords:   extract.Keywords(r.Residual, ex.Config().Languages()),
		Consumed:   r.Consumed,
		Warnings:   r.Warnings,
	}
}

// Merge combines the deterministic result with an enhancer result. A nil
// partial means the enhancer was not used or failed.
//
// Each property takes the enhancer's value when it is present and usable,
// and the deterministic value otherwise. Enhancer keywords replace the
// deterministic keywords only when at least one survives cleaning.
// CoreKeywords is always the deterministic keyword list.
func Merge(det Deterministic, partial *ai.PartialParsedQuery, mode core.Mode, cfg *terms.Config) *core.QueryIntent {
	ex := extract.NewExtractor(cfg, extract.Options{SubDay: extract.SubDayDrop})
	return merge(det, partial, mode, ex.ParseDate, ex.Config().Languages())
}

type dateParser func(string) (core.DateExpression, bool)

func merge(det Deterministic, partial *ai.PartialParsedQuery, mode core.Mode, parseDate dateParser, languages []string) *core.QueryIntent {
	in := &core.QueryIntent{
		Query:        det.Query,
		Properties:   cloneProperties(det.Properties),
		Keywords:     cloneKeywords(det.Keywords),
		CoreKeywords: cloneKeywords(det.Keywords),
		Mode:         mode,
		Diagnostics:  core.Diagnostics{Warnings: slices.Clone(det.Warnings)},
	}
	if partial == nil {
		return in
	}

	m := &merger{intent: in, parseDate: parseDate}
	m.priority(partial.Priority)
	m.dates(partial.DueDate, partial.DueDateRange)

	props := &in.Properties
	if values := cleanValues(partial.Status, ""); len(values) > 0 {
		props.StatusValues = values
	}
	tags := make([]string, len(partial.Tags))
	for i, tag := range partial.Tags {
		tags[i] = strings.ToLower(tag)
	}
	if values := cleanValues(tags, "#"); len(values) > 0 {
		props.Tags = values
	}
	if folder := strings.Trim(strings.TrimSpace(partial.Folder), "/"); folder != "" {
		props.Folder = folder
	}

	if keywords := cleanKeywords(partial.Keywords, det.Consumed, languages); len(keywords) > 0 {
		in.Keywords = keywords
	}

	d := &in.Diagnostics
	d.Enhanced = true
	d.CorrectedTokens = slices.Clone(partial.Diagnostics.CorrectedTokens)
	d.DetectedLanguage = partial.Diagnostics.DetectedLanguage
	if c := partial.Diagnostics.Confidence; c != nil {
		v := *c
		d.Confidence = &v
	}
	return in
}

type merger struct {
	intent    *core.QueryIntent
	parseDate dateParser
}

func (m *merger) warn(format string, args ...any) {
	m.intent.Diagnostics.Warnings = append(m.intent.Diagnostics.Warnings, fmt.Sprintf(format, args...))
}

func (m *merger) priority(levels ai.IntList) {
	if len(levels) == 0 {
		return
	}
	valid := make([]int, 0, len(levels))
	for _, level := range levels {
		if core.ValidatePriorityLevel(level) != nil {
			m.warn("enhancer priority %d ignored: must be 1 to 4", level)
			continue
		}
		valid = append(valid, level)
	}
	if len(valid) == 0 {
		return
	}
	slices.Sort(valid)
	m.intent.Properties.Priority = slices.Compact(valid)
}

// dates applies the enhancer's date, preferring its range. An enhancer date
// that does not parse leaves the deterministic date in place.
func (m *merger) dates(due string, rng *ai.DateRangeText) {
	props := &m.intent.Properties
	if rng != nil && (strings.TrimSpace(rng.Start) != "" || strings.TrimSpace(rng.End) != "") {
		if r, ok := m.rangeFrom(rng); ok {
			props.DueDate = nil
			props.DueDateRange = r
			return
		}
	}
	due = strings.TrimSpace(due)
	if due == "" {
		return
	}
	d, ok := m.parseDate(due)
	if !ok {
		m.warn("enhancer date %q not understood", due)
		return
	}
	if r, isRange := d.(*core.DateRange); isRange {
		props.DueDate = nil
		props.DueDateRange = r
		return
	}
	props.DueDate = d
	props.DueDateRange = nil
}

func (m *merger) rangeFrom(text *ai.DateRangeText) (*core.DateRange, bool) {
	r := &core.DateRange{}
	for _, bound := range []struct {
		text string
		dst  *core.DateExpression
	}{{text.Start, &r.Start}, {text.End, &r.End}} {
		s := strings.TrimSpace(bound.text)
		if s == "" {
			continue
		}
		d, ok := m.parseDate(s)
		if !ok {
			m.warn("enhancer date %q not understood", s)
			return nil, false
		}
		if _, nested := d.(*core.DateRange); nested {
			m.warn("enhancer range bound %q is itself a range", s)
			return nil, false
		}
		*bound.dst = d
	}
	return r, r.Start != nil || r.End != nil
}

// cleanValues trims values, strips prefix and drops empties and duplicates.
func cleanValues(values []string, prefix string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if prefix != "" {
			v = strings.TrimPrefix(v, prefix)
		}
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// cleanKeywords folds enhancer keywords and drops stop words, duplicates and
// words that were recognized as properties.
func cleanKeywords(keywords, consumed []string, languages []string) []string {
	taken := make(map[string]bool)
	for _, token := range consumed {
		folded := textproc.Fold(token)
		taken[folded] = true
		for _, word := range strings.Fields(folded) {
			taken[word] = true
		}
	}

	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = textproc.Fold(strings.Join(strings.Fields(k), " "))
		if k == "" || seen[k] || taken[k] || textproc.IsStopWord(k, languages) {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func cloneKeywords(keywords []string) []string {
	if keywords == nil {
		return []string{}
	}
	return slices.Clone(keywords)
}

func cloneProperties(p core.ParsedProperties) core.ParsedProperties {
	p.Priority = slices.Clone(p.Priority)
	p.StatusValues = slices.Clone(p.StatusValues)
	p.ExcludedStatusValues = slices.Clone(p.ExcludedStatusValues)
	p.Tags = slices.Clone(p.Tags)
	p.ExcludedTags = slices.Clone(p.ExcludedTags)
	return p
}
