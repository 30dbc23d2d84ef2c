package core

import (
	"fmt"
	"strings"
)

// Mode selects how much linguistic flexibility a query gets.
type Mode int

const (
	// ModeSimple runs only the deterministic extractor.
	ModeSimple Mode = iota
	// ModeSmart adds the semantic enhancer for keyword expansion.
	ModeSmart
	// ModeChat parses like ModeSmart; the ranked result feeds a conversation.
	ModeChat
)

func (m Mode) String() string {
	switch m {
	case ModeSimple:
		return "simple"
	case ModeSmart:
		return "smart"
	case ModeChat:
		return "chat"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// UsesEnhancer reports whether the mode invokes the semantic enhancer.
func (m Mode) UsesEnhancer() bool {
	return m == ModeSmart || m == ModeChat
}

// ParseMode converts a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return ModeSimple, nil
	case "smart":
		return ModeSmart, nil
	case "chat":
		return ModeChat, nil
	}
	return ModeSimple, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// ParsedProperties holds the structured filters recognized in a query.
// Zero values mean "no constraint".
type ParsedProperties struct {
	Priority             []int // Accepted levels, any of which matches
	DueDate              DateExpression
	DueDateRange         *DateRange // Mutually exclusive with DueDate
	StatusValues         []string   // Raw values, resolved against status categories at filter time
	ExcludedStatusValues []string
	Tags                 []string
	ExcludedTags         []string
	Folder               string
}

// IsEmpty reports whether no property was recognized.
func (p *ParsedProperties) IsEmpty() bool {
	return len(p.Priority) == 0 && p.DueDate == nil && p.DueDateRange == nil &&
		len(p.StatusValues) == 0 && len(p.ExcludedStatusValues) == 0 &&
		len(p.Tags) == 0 && len(p.ExcludedTags) == 0 && p.Folder == ""
}

// Diagnostics explains how a query was understood.
type Diagnostics struct {
	CorrectedTokens  []string
	DetectedLanguage string
	Confidence       *float64
	Warnings         []string
	// Enhanced is true when semantic enhancer output was merged into the intent.
	Enhanced bool
	// EnhancerFailure names the failure kind when enhancement was attempted and discarded.
	EnhancerFailure string
}

// QueryIntent is the merged understanding of one query. It is built once
// per query and not modified afterwards.
type QueryIntent struct {
	Query        string
	Properties   ParsedProperties
	Keywords     []string
	CoreKeywords []string
	Mode         Mode
	Diagnostics  Diagnostics
}
