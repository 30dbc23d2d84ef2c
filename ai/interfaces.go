package ai

import (
	"context"
	"time"
)

// Enhancer asks an external language model to understand a task query.
// Implementations must be safe for concurrent use and must not retry
// internally; retry policy belongs to the caller.
type Enhancer interface {
	// Enhance returns the properties and expanded keywords the model found in
	// query. Every error it returns is a *Failure. A non-positive timeout
	// means the context alone bounds the call.
	Enhance(ctx context.Context, query string, languages []string, timeout time.Duration) (*PartialParsedQuery, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle management.
type Provider interface {
	// Enhancer returns the semantic enhancement service.
	Enhancer() Enhancer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
