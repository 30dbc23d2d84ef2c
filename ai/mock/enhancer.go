package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/taskquery/ai"
)

// MockEnhancer is a test double for ai.Enhancer.
// It allows custom behavior injection via function fields.
type MockEnhancer struct {
	// EnhanceFunc is called by Enhance if set.
	// If nil, returns the lowercased query words as keywords.
	EnhanceFunc func(ctx context.Context, query string, languages []string) (*ai.PartialParsedQuery, error)

	// Delay makes Enhance wait before answering. A context or timeout
	// expiring first yields a timeout or cancelled failure.
	Delay time.Duration

	mu        sync.Mutex
	callCount int
}

// NewMockEnhancer creates a mock enhancer with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEnhancer() *MockEnhancer {
	return &MockEnhancer{}
}

// WithEnhanceFunc sets the behavior of Enhance and returns the mock.
func (m *MockEnhancer) WithEnhanceFunc(fn func(ctx context.Context, query string, languages []string) (*ai.PartialParsedQuery, error)) *MockEnhancer {
	m.EnhanceFunc = fn
	return m
}

// WithDelay sets the response delay and returns the mock.
func (m *MockEnhancer) WithDelay(d time.Duration) *MockEnhancer {
	m.Delay = d
	return m
}

// Enhance returns a canned partial result.
func (m *MockEnhancer) Enhance(ctx context.Context, query string, languages []string, timeout time.Duration) (*ai.PartialParsedQuery, error) {
	m.mu.Lock()
	m.callCount++
	fn := m.EnhanceFunc
	delay := m.Delay
	m.mu.Unlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ai.NewFailure(ai.FailureTimeout, ctx.Err())
			}
			return nil, ai.NewFailure(ai.FailureCancelled, ctx.Err())
		}
	}

	if fn != nil {
		return fn(ctx, query, languages)
	}

	// Default: every word becomes a keyword
	words := strings.Fields(strings.ToLower(query))
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word != "" {
			keywords = append(keywords, word)
		}
	}
	confidence := 1.0
	return &ai.PartialParsedQuery{
		Keywords:    keywords,
		Diagnostics: ai.PartialDiagnostics{Confidence: &confidence},
	}, nil
}

// CallCount returns the number of times Enhance was called.
func (m *MockEnhancer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and custom behavior.
func (m *MockEnhancer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EnhanceFunc = nil
	m.Delay = 0
}
