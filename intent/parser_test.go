package intent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskquery/ai"
	"github.com/poiesic/taskquery/ai/mock"
	"github.com/poiesic/taskquery/core"
)

func newParser(t *testing.T, opts ...Option) *Parser {
	t.Helper()
	p, err := NewParser(newExtractor(), opts...)
	require.NoError(t, err)
	return p
}

func TestNewParser(t *testing.T) {
	_, err := NewParser(nil)
	assert.ErrorIs(t, err, ErrExtractorRequired)

	_, err = NewParser(newExtractor(), WithTimeout(0))
	assert.Error(t, err)

	_, err = NewParser(newExtractor(), WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)

	_, err = NewParser(newExtractor(), WithDisabledModes(core.ModeSimple))
	assert.Error(t, err)
}

func TestParse_SimpleNeverCallsEnhancer(t *testing.T) {
	enhancer := mock.NewMockEnhancer()
	p := newParser(t, WithEnhancer(enhancer))

	in, err := p.Parse(context.Background(), "bug P1 overdue", core.ModeSimple)
	require.NoError(t, err)

	assert.Equal(t, 0, enhancer.CallCount())
	assert.Equal(t, core.ModeSimple, in.Mode)
	assert.Equal(t, []int{1}, in.Properties.Priority)
	assert.Equal(t, []string{"bug"}, in.Keywords)
	assert.False(t, in.Diagnostics.Enhanced)
}

func TestParse_SmartMergesEnhancer(t *testing.T) {
	enhancer := mock.NewMockEnhancer().WithEnhanceFunc(func(ctx context.Context, query string, languages []string) (*ai.PartialParsedQuery, error) {
		assert.Equal(t, []string{"en"}, languages)
		return &ai.PartialParsedQuery{
			Keywords: []string{"bug", "defect", "issue"},
			Priority: ai.IntList{2},
		}, nil
	})
	p := newParser(t, WithEnhancer(enhancer))

	for _, mode := range []core.Mode{core.ModeSmart, core.ModeChat} {
		in, err := p.Parse(context.Background(), "bug p1", mode)
		require.NoError(t, err)
		assert.Equal(t, mode, in.Mode)
		assert.Equal(t, []int{2}, in.Properties.Priority)
		assert.Equal(t, []string{"bug", "defect", "issue"}, in.Keywords)
		assert.Equal(t, []string{"bug"}, in.CoreKeywords)
		assert.True(t, in.Diagnostics.Enhanced)
	}
	assert.Equal(t, 2, enhancer.CallCount())
}

func TestParse_TimeoutFallsBack(t *testing.T) {
	enhancer := mock.NewMockEnhancer().WithDelay(time.Second)
	p := newParser(t, WithEnhancer(enhancer), WithTimeout(20*time.Millisecond), WithRetry(3, time.Millisecond))

	simple, err := p.Parse(context.Background(), "bug p1 overdue", core.ModeSimple)
	require.NoError(t, err)

	start := time.Now()
	in, err := p.Parse(context.Background(), "bug p1 overdue", core.ModeSmart)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	assert.Equal(t, simple.Properties, in.Properties)
	assert.Equal(t, simple.Keywords, in.Keywords)
	assert.False(t, in.Diagnostics.Enhanced)
	assert.Equal(t, string(ai.FailureTimeout), in.Diagnostics.EnhancerFailure)
	assert.Equal(t, 1, enhancer.CallCount(), "timeouts are not retried")
}

func TestParse_LateResultDiscarded(t *testing.T) {
	var finished atomic.Bool
	enhancer := mock.NewMockEnhancer().WithEnhanceFunc(func(ctx context.Context, query string, languages []string) (*ai.PartialParsedQuery, error) {
		// ignores ctx, like a misbehaving provider
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return &ai.PartialParsedQuery{Keywords: []string{"late"}, Priority: ai.IntList{4}}, nil
	})
	p := newParser(t, WithEnhancer(enhancer), WithTimeout(10*time.Millisecond))

	in, err := p.Parse(context.Background(), "report", core.ModeSmart)
	require.NoError(t, err)
	assert.Equal(t, []string{"report"}, in.Keywords)
	assert.Empty(t, in.Properties.Priority)

	time.Sleep(150 * time.Millisecond)
	assert.True(t, finished.Load())
	assert.Equal(t, []string{"report"}, in.Keywords, "late result must not touch the returned intent")
	assert.Empty(t, in.Properties.Priority)
}

func TestParse_RetriesProviderFailures(t *testing.T) {
	var calls atomic.Int32
	enhancer := mock.NewMockEnhancer().WithEnhanceFunc(func(ctx context.Context, query string, languages []string) (*ai.PartialParsedQuery, error) {
		if calls.Add(1) < 3 {
			return nil, ai.NewFailure(ai.FailureProvider, errors.New("503"))
		}
		return &ai.PartialParsedQuery{Keywords: []string{"report", "summary"}}, nil
	})
	p := newParser(t, WithEnhancer(enhancer), WithRetry(3, time.Millisecond))

	in, err := p.Parse(context.Background(), "report", core.ModeSmart)
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, []string{"report", "summary"}, in.Keywords)
}

func TestParse_FailureKinds(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  ai.FailureKind
		wantCalls int
	}{
		{name: "provider retried", err: ai.NewFailure(ai.FailureProvider, errors.New("down")), wantKind: ai.FailureProvider, wantCalls: 2},
		{name: "malformed retried", err: ai.NewFailure(ai.FailureMalformed, errors.New("bad json")), wantKind: ai.FailureMalformed, wantCalls: 2},
		{name: "low confidence not retried", err: ai.NewFailure(ai.FailureLowConfidence, nil), wantKind: ai.FailureLowConfidence, wantCalls: 1},
		{name: "untyped error", err: errors.New("boom"), wantKind: ai.FailureProvider, wantCalls: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enhancer := mock.NewMockEnhancer().WithEnhanceFunc(func(ctx context.Context, query string, languages []string) (*ai.PartialParsedQuery, error) {
				return nil, tt.err
			})
			p := newParser(t, WithEnhancer(enhancer), WithRetry(2, time.Millisecond))

			in, err := p.Parse(context.Background(), "report p2", core.ModeSmart)
			require.NoError(t, err)
			assert.Equal(t, string(tt.wantKind), in.Diagnostics.EnhancerFailure)
			assert.Equal(t, []int{2}, in.Properties.Priority)
			assert.Equal(t, []string{"report"}, in.Keywords)
			assert.Equal(t, tt.wantCalls, enhancer.CallCount())
		})
	}
}

func TestParse_ModeDowngrade(t *testing.T) {
	t.Run("disabled mode", func(t *testing.T) {
		enhancer := mock.NewMockEnhancer()
		p := newParser(t, WithEnhancer(enhancer), WithDisabledModes(core.ModeChat))

		in, err := p.Parse(context.Background(), "report", core.ModeChat)
		require.NoError(t, err)
		assert.Equal(t, core.ModeSimple, in.Mode)
		assert.Equal(t, 0, enhancer.CallCount())
		assert.Len(t, in.Diagnostics.Warnings, 1)

		in, err = p.Parse(context.Background(), "report", core.ModeSmart)
		require.NoError(t, err)
		assert.Equal(t, core.ModeSmart, in.Mode)
	})

	t.Run("no enhancer", func(t *testing.T) {
		p := newParser(t)
		in, err := p.Parse(context.Background(), "report", core.ModeSmart)
		require.NoError(t, err)
		assert.Equal(t, core.ModeSimple, in.Mode)
		assert.Len(t, in.Diagnostics.Warnings, 1)
	})
}

func TestParse_EmptyQuerySkipsEnhancer(t *testing.T) {
	enhancer := mock.NewMockEnhancer()
	p := newParser(t, WithEnhancer(enhancer))

	in, err := p.Parse(context.Background(), "   ", core.ModeSmart)
	require.NoError(t, err)
	assert.Empty(t, in.Keywords)
	assert.True(t, in.Properties.IsEmpty())
	assert.Equal(t, 0, enhancer.CallCount())
}

func TestParse_Cancelled(t *testing.T) {
	enhancer := mock.NewMockEnhancer().WithDelay(time.Second)
	p := newParser(t, WithEnhancer(enhancer))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	in, err := p.Parse(ctx, "report", core.ModeSmart)
	assert.Nil(t, in)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = p.Parse(ctx, "report", core.ModeSimple)
	assert.ErrorIs(t, err, context.Canceled)
}

type recordingObserver struct {
	det      *Deterministic
	partial  *ai.PartialParsedQuery
	failure  *ai.Failure
	enhanced int
}

func (r *recordingObserver) Extracted(det Deterministic) { r.det = &det }

func (r *recordingObserver) Enhanced(partial *ai.PartialParsedQuery, failure *ai.Failure) {
	r.enhanced++
	r.partial = partial
	r.failure = failure
}

func TestParseObserved(t *testing.T) {
	t.Run("simple reports extraction only", func(t *testing.T) {
		obs := &recordingObserver{}
		_, err := newParser(t).ParseObserved(context.Background(), "bug p1", core.ModeSimple, obs)
		require.NoError(t, err)
		require.NotNil(t, obs.det)
		assert.Equal(t, []string{"bug"}, obs.det.Keywords)
		assert.Zero(t, obs.enhanced)
	})

	t.Run("enhancement success", func(t *testing.T) {
		obs := &recordingObserver{}
		p := newParser(t, WithEnhancer(mock.NewMockEnhancer()))
		_, err := p.ParseObserved(context.Background(), "login bug", core.ModeSmart, obs)
		require.NoError(t, err)
		assert.Equal(t, 1, obs.enhanced)
		assert.NotNil(t, obs.partial)
		assert.Nil(t, obs.failure)
	})

	t.Run("enhancement failure", func(t *testing.T) {
		obs := &recordingObserver{}
		enhancer := mock.NewMockEnhancer().WithEnhanceFunc(func(context.Context, string, []string) (*ai.PartialParsedQuery, error) {
			return nil, errors.New("boom")
		})
		p := newParser(t, WithEnhancer(enhancer))
		_, err := p.ParseObserved(context.Background(), "login bug", core.ModeSmart, obs)
		require.NoError(t, err)
		assert.Equal(t, 1, obs.enhanced)
		require.NotNil(t, obs.failure)
		assert.Equal(t, ai.FailureProvider, obs.failure.Kind)
	})
}
