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

package extract

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/terms"
	"github.com/poiesic/taskquery/textproc"
)

var (
	folderRe     = delimited(`folder:(?:"(?P<q>[^"]*)"|(?P<v>[^\s"]+))`)
	tagRe        = delimited(`(?P<neg>!?)#(?P<tag>[\p{L}\p{N}_/\-]+)`)
	statusRe     = delimited(`(?P<neg>!?)(?:status|s):(?:"(?P<q>[^"]*)"|(?P<v>[^\s"]*))`)
	priorityRe   = bounded(`p(?P<n>\d+)`)
	connectiveRe = spaced(`&&|&|\|\||\||!`)
)

// Result is the outcome of property extraction.
type Result struct {
	Properties core.ParsedProperties
	// Residual is the query with every recognized property removed.
	Residual string
	// Consumed lists the recognized tokens in recognition order.
	Consumed []string
	// Warnings describe malformed or ignored property tokens.
	Warnings []string
}

// Extractor recognizes task properties in query text. It is built once per
// resolved configuration and is safe for concurrent use.
type Extractor struct {
	cfg        *terms.Config
	opts       Options
	dates      dateVocabulary
	priorities map[string]int
	priorityRe *regexp.Regexp
}

// NewExtractor compiles the patterns for cfg.
func NewExtractor(cfg *terms.Config, opts Options) *Extractor {
	if cfg == nil {
		cfg = terms.Default()
	}
	e := &Extractor{
		cfg:        cfg,
		opts:       opts,
		dates:      newDateVocabulary(cfg),
		priorities: make(map[string]int),
	}
	phrases := make([]string, 0, len(cfg.PriorityPhrases()))
	for _, p := range cfg.PriorityPhrases() {
		e.priorities[p.Phrase] = p.Level
		phrases = append(phrases, p.Phrase)
	}
	if alt := phraseAlternation(phrases); alt != "" {
		e.priorityRe = bounded(alt)
	}
	return e
}

// Config returns the configuration the extractor was built from.
func (e *Extractor) Config() *terms.Config {
	return e.cfg
}

// Properties extracts properties from query using cfg.
func Properties(query string, cfg *terms.Config, opts Options) Result {
	return NewExtractor(cfg, opts).Extract(query)
}

// Extract recognizes properties in query and strips them from the
// residual text. It never fails: malformed tokens produce warnings.
// The query is NFKC-normalized first, as the tokenizer does, so full-width
// forms such as "ｐ１" are recognized.
func (e *Extractor) Extract(query string) Result {
	var r Result
	w := newWork(norm.NFKC.String(query))

	e.extractFolder(w, &r)
	e.extractTags(w, &r)
	e.extractStatus(w, &r)
	e.extractDates(w, &r)
	e.extractPriority(w, &r)
	w.scan(connectiveRe, func(*match) action { return consume })

	r.Residual = w.residualText()
	r.Consumed = w.consumed
	return r
}

// ParseDate parses s as exactly one date expression.
func (e *Extractor) ParseDate(s string) (core.DateExpression, bool) {
	if d, err := e.dates.parseOperand(s); err == nil {
		return d, true
	}
	w := newWork(s)
	var r Result
	e.extractDates(w, &r)
	if w.residualText() != "" || len(r.Warnings) > 0 {
		return nil, false
	}
	if r.Properties.DueDateRange != nil {
		return r.Properties.DueDateRange, true
	}
	if r.Properties.DueDate != nil {
		return r.Properties.DueDate, true
	}
	return nil, false
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (e *Extractor) extractFolder(w *work, r *Result) {
	w.scan(folderRe, func(m *match) action {
		folder := strings.Trim(strings.TrimSpace(firstNonEmpty(m.group("q"), m.group("v"))), "/")
		switch {
		case folder == "":
			r.warn("empty folder in %q ignored", m.token())
		case r.Properties.Folder == "":
			r.Properties.Folder = folder
		case r.Properties.Folder != folder:
			r.warn("additional folder %q ignored, using %q", folder, r.Properties.Folder)
		}
		return consume
	})
}

func (e *Extractor) extractTags(w *work, r *Result) {
	w.scan(tagRe, func(m *match) action {
		tag := strings.ToLower(strings.Trim(m.group("tag"), "/"))
		if tag == "" {
			return consume
		}
		if m.group("neg") != "" {
			r.Properties.ExcludedTags = appendUnique(r.Properties.ExcludedTags, tag)
		} else {
			r.Properties.Tags = appendUnique(r.Properties.Tags, tag)
		}
		return consume
	})
}

func (e *Extractor) extractStatus(w *work, r *Result) {
	w.scan(statusRe, func(m *match) action {
		quoted := m.group("q") != ""
		raw := firstNonEmpty(m.group("q"), m.group("v"))
		empty := true
		for _, value := range strings.Split(raw, ",") {
			if !quoted {
				value = strings.TrimSpace(value)
			}
			if value == "" {
				continue
			}
			empty = false
			if m.group("neg") != "" {
				r.Properties.ExcludedStatusValues = appendUnique(r.Properties.ExcludedStatusValues, value)
			} else {
				r.Properties.StatusValues = appendUnique(r.Properties.StatusValues, value)
			}
		}
		if empty {
			r.warn("empty status in %q ignored", m.token())
		}
		return consume
	})
}

// offerDate records the first recognized date expression. Later ones are
// stripped and reported.
func offerDate(r *Result, d core.DateExpression, token string) {
	p := &r.Properties
	if p.DueDate == nil && p.DueDateRange == nil {
		if rng, ok := d.(*core.DateRange); ok {
			p.DueDateRange = rng
		} else {
			p.DueDate = d
		}
		return
	}
	current := p.DueDate
	if p.DueDateRange != nil {
		current = p.DueDateRange
	}
	r.warn("additional date %q ignored, using %s", token, current)
}

// extractDates runs the date passes from most to least specific: ranges,
// compound durations, single durations, sub-day tokens, named dates and
// absolute dates.
func (e *Extractor) extractDates(w *work, r *Result) {
	for _, rp := range e.dates.ranges {
		w.scan(rp.re, func(m *match) action {
			rng := &core.DateRange{StartExclusive: rp.startExclusive, EndExclusive: rp.endExclusive}
			if s := m.group("start"); s != "" {
				d, err := e.dates.parseOperand(s)
				if err != nil {
					r.warn("range %q ignored: %v", m.token(), err)
					return consume
				}
				rng.Start = d
			}
			if s := m.group("end"); s != "" {
				d, err := e.dates.parseOperand(s)
				if err != nil {
					r.warn("range %q ignored: %v", m.token(), err)
					return consume
				}
				rng.End = d
			}
			if rng.Start == nil && rng.End == nil {
				return skip
			}
			offerDate(r, rng, m.token())
			return consume
		})
	}

	relative := func(m *match) action {
		d, ok := relativeFromParts(m.group("pre"), m.group("sign"), m.group("parts"), m.group("ago"))
		if !ok {
			return skip
		}
		offerDate(r, d, m.token())
		return consume
	}
	w.scan(compoundRe, relative)
	w.scan(singleRe, relative)

	w.scan(subDayRe, func(m *match) action {
		if e.opts.SubDay == SubDayDrop {
			r.warn("time %q is finer than a day and was dropped", m.token())
			return consume
		}
		r.warn("time %q is finer than a day and was kept as a keyword", m.token())
		return protect
	})

	if e.dates.namedRe != nil {
		w.scan(e.dates.namedRe, func(m *match) action {
			nd, ok := e.dates.lookupNamed(m.token())
			if !ok {
				return skip
			}
			offerDate(r, nd, m.token())
			return consume
		})
	}

	w.scan(absoluteRe, func(m *match) action {
		t, err := ParseAbsolute(m.token())
		if err != nil {
			r.warn("date %q ignored: not a calendar date", m.token())
			return consume
		}
		offerDate(r, core.AbsoluteDate{Date: t}, m.token())
		return consume
	})
}

func (e *Extractor) extractPriority(w *work, r *Result) {
	var levels []int
	w.scan(priorityRe, func(m *match) action {
		n, err := strconv.Atoi(m.group("n"))
		if err != nil || core.ValidatePriorityLevel(n) != nil {
			r.warn("priority %q ignored: must be p1 to p4", m.token())
			return consume
		}
		levels = append(levels, n)
		return consume
	})
	if e.priorityRe != nil {
		w.scan(e.priorityRe, func(m *match) action {
			level, ok := e.priorities[strings.Join(strings.Fields(textproc.Fold(m.token())), " ")]
			if !ok {
				return skip
			}
			levels = append(levels, level)
			return consume
		})
	}
	if len(levels) == 0 {
		return
	}
	slices.Sort(levels)
	r.Properties.Priority = slices.Compact(levels)
}

func appendUnique(values []string, v string) []string {
	if slices.Contains(values, v) {
		return values
	}
	return append(values, v)
}
