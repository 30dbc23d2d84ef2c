package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    IntList
		wantErr bool
	}{
		{name: "number", input: `2`, want: IntList{2}},
		{name: "array", input: `[1, 2]`, want: IntList{1, 2}},
		{name: "numeric string", input: `"3"`, want: IntList{3}},
		{name: "p-code", input: `"P1"`, want: IntList{1}},
		{name: "mixed array", input: `[1, "p4"]`, want: IntList{1, 4}},
		{name: "null", input: `null`, want: nil},
		{name: "garbage", input: `"high"`, wantErr: true},
		{name: "object", input: `{"level": 1}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got IntList
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartialParsedQuery_Decode(t *testing.T) {
	raw := `{
		"keywords": ["login", "auth", "sign-in"],
		"priority": 1,
		"dueDateRange": {"end": "2025-12-31"},
		"status": ["open"],
		"diagnostics": {"detectedLanguage": "en", "confidence": 0.9, "correctedTokens": ["login"]}
	}`
	var p PartialParsedQuery
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, []string{"login", "auth", "sign-in"}, p.Keywords)
	assert.Equal(t, IntList{1}, p.Priority)
	assert.Empty(t, p.DueDate)
	require.NotNil(t, p.DueDateRange)
	assert.Equal(t, "2025-12-31", p.DueDateRange.End)
	assert.Equal(t, "en", p.Diagnostics.DetectedLanguage)
	require.NotNil(t, p.Diagnostics.Confidence)
	assert.InDelta(t, 0.9, *p.Diagnostics.Confidence, 1e-9)
}

func TestFailure(t *testing.T) {
	cause := errors.New("connection refused")
	f := NewFailure(FailureProvider, cause)

	var err error = fmt.Errorf("enhance: %w", f)
	assert.ErrorIs(t, err, ErrEnhancementFailed)
	assert.ErrorIs(t, err, cause)

	var got *Failure
	require.ErrorAs(t, err, &got)
	assert.Equal(t, FailureProvider, got.Kind)
	assert.True(t, got.Retryable())
	assert.Contains(t, f.Error(), "provider")

	assert.False(t, NewFailure(FailureTimeout, context.DeadlineExceeded).Retryable())
	assert.False(t, NewFailure(FailureCancelled, context.Canceled).Retryable())
	assert.True(t, NewFailure(FailureMalformed, nil).Retryable())
	assert.False(t, NewFailure(FailureLowConfidence, nil).Retryable())
}

func TestAsFailure(t *testing.T) {
	assert.Nil(t, AsFailure(nil))

	f := AsFailure(errors.New("boom"))
	assert.Equal(t, FailureProvider, f.Kind)

	orig := NewFailure(FailureTimeout, context.DeadlineExceeded)
	assert.Same(t, orig, AsFailure(fmt.Errorf("wrapped: %w", orig)))
}

func TestCheckConfidence(t *testing.T) {
	low, high := 0.3, 0.8

	assert.NoError(t, CheckConfidence(nil, 0.5))
	assert.NoError(t, CheckConfidence(&PartialParsedQuery{}, 0.5), "missing confidence passes")
	assert.NoError(t, CheckConfidence(&PartialParsedQuery{Diagnostics: PartialDiagnostics{Confidence: &high}}, 0.5))
	assert.NoError(t, CheckConfidence(&PartialParsedQuery{Diagnostics: PartialDiagnostics{Confidence: &low}}, 0), "zero threshold disables")

	err := CheckConfidence(&PartialParsedQuery{Diagnostics: PartialDiagnostics{Confidence: &low}}, 0.5)
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, FailureLowConfidence, f.Kind)
}
