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

package textproc

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Strategy selects how a text is split into tokens.
type Strategy int

const (
	// StrategyAuto segments each run by its script: unsegmented scripts are
	// split into character clusters, everything else on word boundaries.
	StrategyAuto Strategy = iota
	// StrategyWhitespace splits on whitespace and punctuation only.
	StrategyWhitespace
	// StrategyCluster always splits unsegmented scripts into character clusters.
	StrategyCluster
)

// clusterWordLength is the typical word length, in characters, for scripts
// written without spaces.
const clusterWordLength = 2

// StrategyFor returns the tokenizing strategy for a BCP 47 language hint.
// An empty hint selects StrategyAuto.
func StrategyFor(hint string) Strategy {
	lang := PrimaryLanguage(hint)
	switch lang {
	case "":
		return StrategyAuto
	case "zh", "ja":
		return StrategyCluster
	}
	return StrategyWhitespace
}

// PrimaryLanguage returns the lowercase primary subtag of a language tag,
// e.g. "zh" for "zh-Hans-CN".
func PrimaryLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

// Tokenize splits text into tokens, preserving case.
// Text is NFKC-normalized first so full-width forms tokenize like their ASCII
// counterparts. Runs of unsegmented scripts (Han, Hiragana, Katakana) are split
// into non-overlapping clusters of clusterWordLength characters unless the
// hint selects StrategyWhitespace. Tokenize never returns nil.
func Tokenize(text, languageHint string) []string {
	tokens := []string{}
	if text == "" {
		return tokens
	}

	strategy := StrategyFor(languageHint)
	text = norm.NFKC.String(text)

	var word strings.Builder
	var run []string

	flushWord := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}
	flushRun := func() {
		for i := 0; i < len(run); i += clusterWordLength {
			end := min(i+clusterWordLength, len(run))
			tokens = append(tokens, strings.Join(run[i:end], ""))
		}
		run = run[:0]
	}

	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		r := g.Runes()[0]

		switch {
		case IsUnsegmented(r) && strategy != StrategyWhitespace:
			flushWord()
			run = append(run, cluster)
		case isWordRune(r):
			flushRun()
			word.WriteString(cluster)
		default:
			flushWord()
			flushRun()
		}
	}
	flushWord()
	flushRun()

	return tokens
}

// IsUnsegmented reports whether r belongs to a script written without spaces.
func IsUnsegmented(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

// ContainsUnsegmented reports whether s has any rune from an unsegmented script.
func ContainsUnsegmented(s string) bool {
	return strings.IndexFunc(s, IsUnsegmented) >= 0
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) || r == '_'
}

// Fold returns the case-folded form of s for case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// NormalizeKey folds case and removes hyphens, underscores and whitespace so
// "in-progress", "In Progress" and "inprogress" compare equal.
func NormalizeKey(s string) string {
	s = Fold(norm.NFKC.String(s))
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
