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

package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/taskquery/ai"
	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/extract"
)

const (
	DefaultTimeout     = 5 * time.Second
	DefaultMaxAttempts = 1
	DefaultRetryDelay  = 200 * time.Millisecond
)

// Parser turns a raw query into a QueryIntent. The same pipeline serves
// every mode; the mode only decides whether the enhancer is consulted.
// A Parser is immutable and safe for concurrent use.
type Parser struct {
	extractor   *extract.Extractor
	enhancer    ai.Enhancer
	timeout     time.Duration
	maxAttempts int
	retryDelay  time.Duration
	disabled    map[core.Mode]bool
	logger      *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser) error

// WithEnhancer sets the semantic enhancer used by Smart and Chat modes.
func WithEnhancer(enhancer ai.Enhancer) Option {
	return func(p *Parser) error {
		p.enhancer = enhancer
		return nil
	}
}

// WithTimeout sets the total time budget for enhancement, retries included.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Parser) error {
		if timeout <= 0 {
			return fmt.Errorf("enhancer timeout must be positive, got %s", timeout)
		}
		p.timeout = timeout
		return nil
	}
}

// WithRetry allows up to maxAttempts enhancer calls for provider and
// malformed-response failures, backing off from delay.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(p *Parser) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		p.maxAttempts = maxAttempts
		p.retryDelay = delay
		return nil
	}
}

// WithDisabledModes makes requests for the given modes fall back to Simple.
func WithDisabledModes(modes ...core.Mode) Option {
	return func(p *Parser) error {
		for _, m := range modes {
			if m == core.ModeSimple {
				return errors.New("simple mode cannot be disabled")
			}
			p.disabled[m] = true
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger.With("component", "intent-parser")
		return nil
	}
}

// NewParser creates a parser around a compiled extractor.
func NewParser(extractor *extract.Extractor, opts ...Option) (*Parser, error) {
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	p := &Parser{
		extractor:   extractor,
		timeout:     DefaultTimeout,
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		disabled:    make(map[core.Mode]bool),
		logger:      slog.Default().With("component", "intent-parser"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Extractor returns the deterministic extractor the parser uses.
func (p *Parser) Extractor() *extract.Extractor {
	return p.extractor
}

// Observer receives the intermediate results of a parse. Enhanced is only
// called when the enhancer was consulted; failure is nil on success.
type Observer interface {
	Extracted(det Deterministic)
	Enhanced(partial *ai.PartialParsedQuery, failure *ai.Failure)
}

type noopObserver struct{}

func (noopObserver) Extracted(Deterministic)                      {}
func (noopObserver) Enhanced(*ai.PartialParsedQuery, *ai.Failure) {}

// Parse builds the intent for query. Enhancer problems never fail a parse;
// they are recorded in the diagnostics and the deterministic result is
// used. The only error is cancellation of ctx.
func (p *Parser) Parse(ctx context.Context, query string, mode core.Mode) (*core.QueryIntent, error) {
	return p.ParseObserved(ctx, query, mode, nil)
}

// ParseObserved is Parse with an observer. A nil observer is allowed.
func (p *Parser) ParseObserved(ctx context.Context, query string, mode core.Mode, obs Observer) (*core.QueryIntent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if obs == nil {
		obs = noopObserver{}
	}

	det := Analyze(p.extractor, query)
	mode, note := p.effectiveMode(mode)
	if note != "" {
		det.Warnings = append(det.Warnings, note)
	}
	obs.Extracted(det)
	if !mode.UsesEnhancer() || strings.TrimSpace(query) == "" {
		return p.merge(det, nil, mode), nil
	}

	started := time.Now()
	partial, err := p.enhance(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		failure := ai.AsFailure(err)
		obs.Enhanced(nil, failure)
		p.logger.Info("semantic enhancement discarded", "kind", failure.Kind, "elapsed", time.Since(started), "err", failure.Err)
		in := p.merge(det, nil, mode)
		in.Diagnostics.EnhancerFailure = string(failure.Kind)
		in.Diagnostics.Warnings = append(in.Diagnostics.Warnings,
			fmt.Sprintf("semantic enhancement unavailable (%s), using deterministic results", failure.Kind))
		return in, nil
	}
	obs.Enhanced(partial, nil)
	p.logger.Debug("semantic enhancement merged", "elapsed", time.Since(started))
	return p.merge(det, partial, mode), nil
}

func (p *Parser) merge(det Deterministic, partial *ai.PartialParsedQuery, mode core.Mode) *core.QueryIntent {
	return merge(det, partial, mode, p.extractor.ParseDate, p.extractor.Config().Languages())
}

func (p *Parser) effectiveMode(mode core.Mode) (core.Mode, string) {
	if !mode.UsesEnhancer() {
		return core.ModeSimple, ""
	}
	if p.disabled[mode] {
		return core.ModeSimple, fmt.Sprintf("%s mode is disabled, using simple mode", mode)
	}
	if p.enhancer == nil {
		return core.ModeSimple, fmt.Sprintf("no semantic enhancer configured for %s mode, using simple mode", mode)
	}
	return mode, ""
}

// enhance calls the enhancer within the timeout budget. A result that
// arrives after the budget or after cancellation is dropped.
func (p *Parser) enhance(ctx context.Context, query string) (*ai.PartialParsedQuery, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	deadline, _ := ctx.Deadline()

	type outcome struct {
		partial *ai.PartialParsedQuery
		err     error
	}
	done := make(chan outcome, 1)
	languages := p.extractor.Config().Languages()

	go func() {
		var partial *ai.PartialParsedQuery
		err := RetryWithBackoff(ctx, func() error {
			result, err := p.enhancer.Enhance(ctx, query, languages, time.Until(deadline))
			if err != nil {
				return err
			}
			partial = result
			return nil
		}, p.maxAttempts, p.retryDelay, func(err error) bool {
			return ai.AsFailure(err).Retryable()
		})
		done <- outcome{partial: partial, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return nil, failureFrom(o.err)
		}
		if o.partial == nil {
			return nil, ai.NewFailure(ai.FailureMalformed, errors.New("enhancer returned no result"))
		}
		return o.partial, nil
	case <-ctx.Done():
		return nil, failureFrom(ctx.Err())
	}
}

func failureFrom(err error) *ai.Failure {
	var f *ai.Failure
	switch {
	case errors.As(err, &f):
		return f
	case errors.Is(err, context.DeadlineExceeded):
		return ai.NewFailure(ai.FailureTimeout, err)
	case errors.Is(err, context.Canceled):
		return ai.NewFailure(ai.FailureCancelled, err)
	}
	return ai.NewFailure(ai.FailureProvider, err)
}
