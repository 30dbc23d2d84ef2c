package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEnhancementFailed matches every *Failure with errors.Is.
var ErrEnhancementFailed = errors.New("semantic enhancement failed")

// FailureKind distinguishes why an enhancement result is unusable.
type FailureKind string

const (
	FailureTimeout       FailureKind = "timeout"
	FailureCancelled     FailureKind = "cancelled"
	FailureMalformed     FailureKind = "malformed"
	FailureProvider      FailureKind = "provider"
	FailureLowConfidence FailureKind = "low_confidence"
)

// Failure is the only error type an Enhancer returns.
type Failure struct {
	Kind FailureKind
	Err  error
}

// NewFailure wraps err with a failure kind.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return "enhancement " + string(f.Kind)
	}
	return fmt.Sprintf("enhancement %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is lets errors.Is(err, ErrEnhancementFailed) match any failure.
func (f *Failure) Is(target error) bool {
	return target == ErrEnhancementFailed
}

// Retryable reports whether another attempt could succeed. Timeouts and
// cancellations consume the caller's budget and are never retried.
func (f *Failure) Retryable() bool {
	return f.Kind == FailureProvider || f.Kind == FailureMalformed
}

// AsFailure returns err as a *Failure, treating foreign errors as provider
// failures. It returns nil for a nil error.
func AsFailure(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewFailure(FailureProvider, err)
}

// IntList decodes a JSON number, numeric string, "pN" string or array of
// those. Models are inconsistent about which one they emit.
type IntList []int

func (l *IntList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var raw []json.RawMessage
	if data[0] == '[' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = []json.RawMessage{data}
	}

	out := make([]int, 0, len(raw))
	for _, item := range raw {
		var n int
		if err := json.Unmarshal(item, &n); err == nil {
			out = append(out, n)
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return fmt.Errorf("priority: unsupported value %s", item)
		}
		s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "p")
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("priority: unsupported value %q", s)
		}
		out = append(out, n)
	}
	*l = out
	return nil
}

// DateRangeText is a due-date range as the model writes it. Either side may be empty.
type DateRangeText struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// PartialDiagnostics is the model's account of how it read the query.
type PartialDiagnostics struct {
	CorrectedTokens  []string `json:"correctedTokens,omitempty"`
	DetectedLanguage string   `json:"detectedLanguage,omitempty"`
	Confidence       *float64 `json:"confidence,omitempty"`
}

// PartialParsedQuery mirrors the parsed query properties with every field
// optional, plus the expanded keyword list. Dates stay as text so the
// caller can parse them with its own date grammar.
type PartialParsedQuery struct {
	Keywords     []string           `json:"keywords,omitempty"`
	Priority     IntList            `json:"priority,omitempty"`
	DueDate      string             `json:"dueDate,omitempty"`
	DueDateRange *DateRangeText     `json:"dueDateRange,omitempty"`
	Status       []string           `json:"status,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	Folder       string             `json:"folder,omitempty"`
	Diagnostics  PartialDiagnostics `json:"diagnostics"`
}

// CheckConfidence rejects a result whose reported confidence is below
// threshold. A result without a confidence value passes.
func CheckConfidence(p *PartialParsedQuery, threshold float64) error {
	if p == nil || p.Diagnostics.Confidence == nil || threshold <= 0 {
		return nil
	}
	if c := *p.Diagnostics.Confidence; c < threshold {
		return NewFailure(FailureLowConfidence, fmt.Errorf("confidence %.2f below threshold %.2f", c, threshold))
	}
	return nil
}
