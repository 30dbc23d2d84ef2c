package extract

import (
	"regexp"
	"strings"
)

// Characters that make up a word for boundary purposes. Scripts written
// without spaces are deliberately absent so that a Latin token next to
// Chinese text still matches, and so that Chinese phrases match in place.
const wordClass = `\p{Latin}\p{Greek}\p{Cyrillic}\p{N}_`

// bounded compiles a case-insensitive pattern that only matches as a whole
// token. The token is captured in the group named "m". A sign directly in
// front of the token is not a boundary, so "-2w" keeps its sign and
// "non-urgent" is not a priority.
func bounded(core string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^` + wordClass + `+\-])(?P<m>` + core + `)(?:$|[^` + wordClass + `])`)
}

// delimited is like bounded but requires whitespace before the token, for
// prefixed tokens that may carry a "!" negation.
func delimited(core string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[\s(\[,;])(?P<m>` + core + `)(?:$|[^` + wordClass + `])`)
}

// spaced compiles a pattern whose token must be delimited by whitespace.
func spaced(core string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|\s)(?P<m>` + core + `)(?:\s|$)`)
}

// phraseAlternation builds a regexp alternation from folded phrases. Words
// inside a phrase match any run of whitespace. Order is preserved, so
// callers pass phrases longest first.
func phraseAlternation(phrases []string) string {
	alts := make([]string, 0, len(phrases))
	for _, phrase := range phrases {
		words := strings.Fields(phrase)
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alts = append(alts, strings.Join(words, `\s+`))
	}
	return strings.Join(alts, "|")
}

type action int

const (
	skip action = iota
	// consume removes the span from both the matching copy and the residual.
	consume
	// protect hides the span from later patterns but leaves it in the residual.
	protect
)

type match struct {
	re   *regexp.Regexp
	text string
	loc  []int
}

func (m *match) group(name string) string {
	i := m.re.SubexpIndex(name)
	if i < 0 || m.loc[2*i] < 0 {
		return ""
	}
	return m.text[m.loc[2*i]:m.loc[2*i+1]]
}

func (m *match) span() (int, int) {
	i := m.re.SubexpIndex("m")
	return m.loc[2*i], m.loc[2*i+1]
}

func (m *match) token() string {
	start, end := m.span()
	return strings.TrimSpace(m.text[start:end])
}

// work is the mutable state of one extraction. Matched spans are blanked
// with spaces so byte offsets stay valid across passes.
type work struct {
	text     []byte
	residual []byte
	consumed []string
}

func newWork(query string) *work {
	return &work{text: []byte(query), residual: []byte(query)}
}

func (w *work) blank(start, end int, keepInResidual bool) {
	for i := start; i < end; i++ {
		w.text[i] = ' '
		if !keepInResidual {
			w.residual[i] = ' '
		}
	}
}

// scan runs re over the working text until a pass produces no used match.
// Repeating is needed because the boundary groups consume the separator
// between adjacent tokens.
func (w *work) scan(re *regexp.Regexp, fn func(m *match) action) {
	for {
		text := string(w.text)
		used := 0
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			m := &match{re: re, text: text, loc: loc}
			act := fn(m)
			if act == skip {
				continue
			}
			start, end := m.span()
			if act == consume {
				w.consumed = append(w.consumed, m.token())
			}
			w.blank(start, end, act == protect)
			used++
		}
		if used == 0 {
			return
		}
	}
}

func (w *work) residualText() string {
	return strings.Join(strings.Fields(string(w.residual)), " ")
}
