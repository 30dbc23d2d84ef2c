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

package terms

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/textproc"
)

// DefaultLanguages is used when no language is configured.
var DefaultLanguages = []string{"en"}

// TermSet is a user-supplied list of phrases for one canonical key.
// When Override is set the built-in phrases for that key are discarded.
type TermSet struct {
	Terms    []string `yaml:"terms" json:"terms"`
	Override bool     `yaml:"override" json:"override"`
}

// StatusCategory groups raw status symbols under one semantic key.
type StatusCategory struct {
	Key         string   `yaml:"key" json:"key"`
	DisplayName string   `yaml:"display_name" json:"display_name"`
	Symbols     []string `yaml:"symbols" json:"symbols"`
	Aliases     []string `yaml:"aliases" json:"aliases"`
	Weight      float64  `yaml:"weight" json:"weight"`
	Override    bool     `yaml:"override" json:"override"`
}

// UserConfig is the user-editable part of property recognition.
type UserConfig struct {
	PriorityTerms    map[int]TermSet
	DateTerms        map[string]TermSet
	StatusCategories []StatusCategory
}

// Warning describes a configuration problem that Resolve worked around.
type Warning struct {
	Code    string
	Message string
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}

// Warning codes.
const (
	WarnUnknownLanguage = "unknown_language"
	WarnInvalidPriority = "invalid_priority"
	WarnUnknownDateKey  = "unknown_date_key"
	WarnTermCollision   = "term_collision"
	WarnSymbolCollision = "symbol_collision"
	WarnAliasCollision  = "alias_collision"
	WarnEmptySymbols    = "empty_symbols"
	WarnInvalidCategory = "invalid_category"
)

// PriorityPhrase maps a folded phrase to a priority level.
type PriorityPhrase struct {
	Phrase string
	Level  int
}

// DatePhrase maps a folded phrase to a named date.
type DatePhrase struct {
	Phrase string
	Date   core.NamedDate
}

// Category is a resolved status category.
type Category struct {
	Key         string
	DisplayName string
	Symbols     []string
	Aliases     []string
	Weight      float64
}

// Config is the effective property recognition configuration. It is
// immutable after Resolve and safe for concurrent use.
type Config struct {
	languages       []string
	priorityPhrases []PriorityPhrase
	datePhrases     []DatePhrase
	categories      []Category
	bySymbol        map[string]int
	byKey           map[string]int
	byAlias         map[string]int
}

// Resolve merges user terms over the built-in tables for the given
// languages. User terms are additive unless their TermSet asks to override.
// On any collision the first registration wins: built-ins, then user
// entries in declaration order.
func Resolve(user UserConfig, builtins Builtins, languages []string) (*Config, []Warning) {
	var warnings []Warning
	warn := func(code, format string, args ...any) {
		warnings = append(warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
	}

	langs := normalizeLanguages(languages)
	for _, lang := range langs {
		if _, ok := builtins.Languages[lang]; !ok {
			warn(WarnUnknownLanguage, "no built-in terms for language %q", lang)
		}
	}

	cfg := &Config{
		languages: langs,
		bySymbol:  make(map[string]int),
		byKey:     make(map[string]int),
		byAlias:   make(map[string]int),
	}

	cfg.priorityPhrases = resolvePriority(user.PriorityTerms, builtins, langs, warn)
	cfg.datePhrases = resolveDates(user.DateTerms, builtins, langs, warn)
	resolveStatus(cfg, user.StatusCategories, builtins, langs, warn)

	return cfg, warnings
}

type warnFunc func(code, format string, args ...any)

func normalizeLanguages(languages []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, lang := range languages {
		primary := textproc.PrimaryLanguage(lang)
		if primary == "" || seen[primary] {
			continue
		}
		seen[primary] = true
		out = append(out, primary)
	}
	if len(out) == 0 {
		return slices.Clone(DefaultLanguages)
	}
	return out
}

func normalizePhrase(phrase string) string {
	return strings.Join(strings.Fields(textproc.Fold(phrase)), " ")
}

func resolvePriority(user map[int]TermSet, builtins Builtins, langs []string, warn warnFunc) []PriorityPhrase {
	for level := range user {
		if core.ValidatePriorityLevel(level) != nil {
			warn(WarnInvalidPriority, "priority level %d is outside 1-4, terms ignored", level)
		}
	}

	owner := make(map[string]int)
	var phrases []PriorityPhrase
	register := func(level int, phrase string) {
		p := normalizePhrase(phrase)
		if p == "" {
			return
		}
		if prev, ok := owner[p]; ok {
			if prev != level {
				warn(WarnTermCollision, "priority term %q already maps to p%d, ignoring p%d", p, prev, level)
			}
			return
		}
		owner[p] = level
		phrases = append(phrases, PriorityPhrase{Phrase: p, Level: level})
	}

	for level := core.PriorityHighest; level <= core.PriorityLowest; level++ {
		set, hasUser := user[level]
		if !hasUser || !set.Override {
			for _, lang := range langs {
				for _, phrase := range builtins.Languages[lang].Priority[level] {
					register(level, phrase)
				}
			}
		}
	}
	for level := core.PriorityHighest; level <= core.PriorityLowest; level++ {
		for _, phrase := range user[level].Terms {
			register(level, phrase)
		}
	}

	sort.SliceStable(phrases, func(i, j int) bool {
		return len(phrases[i].Phrase) > len(phrases[j].Phrase)
	})
	return phrases
}

func validDateKey(key string) bool {
	if core.IsKnownNamedDate(key) {
		return true
	}
	_, ok := core.WeekdayFromName(key)
	return ok
}

func resolveDates(user map[string]TermSet, builtins Builtins, langs []string, warn warnFunc) []DatePhrase {
	userKeys := make([]string, 0, len(user))
	for key := range user {
		if !validDateKey(key) {
			warn(WarnUnknownDateKey, "unknown date key %q, terms ignored", key)
			continue
		}
		userKeys = append(userKeys, key)
	}
	sort.Strings(userKeys)

	owner := make(map[string]string)
	var phrases []DatePhrase
	register := func(key, phrase string) {
		p := normalizePhrase(phrase)
		if p == "" {
			return
		}
		if prev, ok := owner[p]; ok {
			if prev != key {
				warn(WarnTermCollision, "date term %q already maps to %s, ignoring %s", p, prev, key)
			}
			return
		}
		owner[p] = key
		phrases = append(phrases, DatePhrase{Phrase: p, Date: core.NamedDate{Name: key}})
	}

	for _, lang := range langs {
		table := builtins.Languages[lang].Dates
		keys := make([]string, 0, len(table))
		for key := range table {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if set, ok := user[key]; ok && set.Override {
				continue
			}
			for _, phrase := range table[key] {
				register(key, phrase)
			}
		}
	}
	for _, key := range userKeys {
		for _, phrase := range user[key].Terms {
			register(key, phrase)
		}
	}

	sort.SliceStable(phrases, func(i, j int) bool {
		return len(phrases[i].Phrase) > len(phrases[j].Phrase)
	})
	return phrases
}

func resolveStatus(cfg *Config, user []StatusCategory, builtins Builtins, langs []string, warn warnFunc) {
	// Build the ordered category list: built-ins first, then new user keys.
	categories := make([]Category, 0, len(builtins.StatusCategories)+len(user))
	index := make(map[string]int)
	for _, b := range builtins.StatusCategories {
		c := Category{
			Key:         b.Key,
			DisplayName: b.DisplayName,
			Symbols:     slices.Clone(b.Symbols),
			Aliases:     slices.Clone(b.Aliases),
			Weight:      b.Weight,
		}
		for _, lang := range langs {
			c.Aliases = append(c.Aliases, builtins.Languages[lang].StatusAliases[b.Key]...)
		}
		index[textproc.NormalizeKey(b.Key)] = len(categories)
		categories = append(categories, c)
	}

	for _, u := range user {
		norm := textproc.NormalizeKey(u.Key)
		if norm == "" {
			warn(WarnInvalidCategory, "status category without a key ignored")
			continue
		}
		i, exists := index[norm]
		if !exists {
			if len(u.Symbols) == 0 {
				warn(WarnEmptySymbols, "status category %q has no symbols", u.Key)
			}
			display := u.DisplayName
			if display == "" {
				display = u.Key
			}
			index[norm] = len(categories)
			categories = append(categories, Category{
				Key:         u.Key,
				DisplayName: display,
				Symbols:     slices.Clone(u.Symbols),
				Aliases:     slices.Clone(u.Aliases),
				Weight:      u.Weight,
			})
			continue
		}

		c := &categories[i]
		if u.Override {
			if len(u.Symbols) == 0 {
				warn(WarnEmptySymbols, "override of status category %q has no symbols, keeping %v", c.Key, c.Symbols)
			} else {
				c.Symbols = slices.Clone(u.Symbols)
			}
			c.Aliases = slices.Clone(u.Aliases)
		} else {
			c.Symbols = append(c.Symbols, u.Symbols...)
			c.Aliases = append(c.Aliases, u.Aliases...)
		}
		if u.DisplayName != "" {
			c.DisplayName = u.DisplayName
		}
		if u.Weight != 0 {
			c.Weight = u.Weight
		}
	}

	// Register keys first so an alias can never shadow a category key.
	for i, c := range categories {
		cfg.byKey[textproc.NormalizeKey(c.Key)] = i
	}
	for i := range categories {
		c := &categories[i]
		c.Symbols = registerSymbols(cfg, i, c, categories, warn)
		c.Aliases = registerAliases(cfg, i, c, categories, warn)
	}
	cfg.categories = categories
}

func registerSymbols(cfg *Config, i int, c *Category, all []Category, warn warnFunc) []string {
	kept := make([]string, 0, len(c.Symbols))
	for _, sym := range c.Symbols {
		if sym == "" {
			continue
		}
		if prev, ok := cfg.bySymbol[sym]; ok {
			if prev != i {
				warn(WarnSymbolCollision, "status symbol %q already belongs to %s, ignoring for %s", sym, all[prev].Key, c.Key)
			}
			continue
		}
		cfg.bySymbol[sym] = i
		kept = append(kept, sym)
	}
	return kept
}

func registerAliases(cfg *Config, i int, c *Category, all []Category, warn warnFunc) []string {
	kept := make([]string, 0, len(c.Aliases))
	for _, alias := range c.Aliases {
		norm := textproc.NormalizeKey(alias)
		if norm == "" {
			continue
		}
		if prev, ok := cfg.byKey[norm]; ok && prev != i {
			warn(WarnAliasCollision, "status alias %q of %s is the key of %s", alias, c.Key, all[prev].Key)
			continue
		}
		if prev, ok := cfg.byAlias[norm]; ok {
			if prev != i {
				warn(WarnAliasCollision, "status alias %q already belongs to %s, ignoring for %s", alias, all[prev].Key, c.Key)
			}
			continue
		}
		cfg.byAlias[norm] = i
		kept = append(kept, alias)
	}
	return kept
}

// Languages returns the effective language set.
func (c *Config) Languages() []string {
	return slices.Clone(c.languages)
}

// PriorityPhrases returns the priority phrases, longest first.
func (c *Config) PriorityPhrases() []PriorityPhrase {
	return c.priorityPhrases
}

// DatePhrases returns the named date phrases, longest first.
func (c *Config) DatePhrases() []DatePhrase {
	return c.datePhrases
}

// Categories returns the resolved status categories in registration order.
func (c *Config) Categories() []Category {
	return slices.Clone(c.categories)
}

// ResolveStatus maps a query value to raw status symbols. Resolution order:
// an exact registered symbol, then a category key, then an alias. A single
// character that is none of these is taken as an unregistered raw symbol.
func (c *Config) ResolveStatus(value string) ([]string, bool) {
	if _, ok := c.bySymbol[value]; ok {
		return []string{value}, true
	}
	norm := textproc.NormalizeKey(value)
	if norm != "" {
		if i, ok := c.byKey[norm]; ok {
			return slices.Clone(c.categories[i].Symbols), true
		}
		if i, ok := c.byAlias[norm]; ok {
			return slices.Clone(c.categories[i].Symbols), true
		}
	}
	if utf8.RuneCountInString(value) == 1 {
		return []string{value}, true
	}
	return nil, false
}

// CategoryForSymbol returns the category owning a raw status symbol.
func (c *Config) CategoryForSymbol(symbol string) (Category, bool) {
	i, ok := c.bySymbol[symbol]
	if !ok {
		return Category{}, false
	}
	return c.categories[i], true
}

// Default resolves the built-in tables for the given languages.
func Default(languages ...string) *Config {
	cfg, _ := Resolve(UserConfig{}, DefaultBuiltins(), languages)
	return cfg
}
