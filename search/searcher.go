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

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/filter"
	"github.com/poiesic/taskquery/intent"
	"github.com/poiesic/taskquery/rank"
	"github.com/poiesic/taskquery/storage"
)

const (
	// DefaultParallelThreshold is the task count at which filtering and
	// scoring are split across the worker pool.
	DefaultParallelThreshold = 2048

	minChunkSize = 512
)

// Result is the outcome of one search.
type Result struct {
	QueryID string
	Intent  *core.QueryIntent
	// Tasks holds the ranked matches, cut to the requested limit.
	Tasks []core.ScoredTask
	// Total is the number of matches before the limit.
	Total   int
	Scanned int
	Elapsed time.Duration
}

// Searcher runs queries against a task source: parse, filter, score, rank.
type Searcher struct {
	source    storage.TaskSource
	parser    *intent.Parser
	weights   rank.Weights
	clock     func() time.Time
	location  *time.Location
	threshold int
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// WithWeights sets the scoring weights. Default is rank.DefaultWeights().
func WithWeights(weights rank.Weights) Option {
	return func(s *Searcher) error {
		if err := weights.Validate(); err != nil {
			return err
		}
		s.weights = weights
		return nil
	}
}

// WithClock sets the source of the current time. Relative dates resolve
// against it. Default is time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Searcher) error {
		if clock == nil {
			return errors.New("clock must not be nil")
		}
		s.clock = clock
		return nil
	}
}

// WithLocation sets the time zone that decides which day "today" is.
// Default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Searcher) error {
		if loc == nil {
			loc = time.Local
		}
		s.location = loc
		return nil
	}
}

// WithParallelism sets the task count at which work is split across
// workers goroutines. A threshold of zero disables parallel evaluation.
func WithParallelism(threshold, workers int) Option {
	return func(s *Searcher) error {
		if threshold < 0 || workers < 0 {
			return fmt.Errorf("invalid parallelism: threshold %d, workers %d", threshold, workers)
		}
		s.threshold = threshold
		if s.pool != nil {
			s.pool.Release()
			s.pool = nil
		}
		if threshold == 0 || workers == 0 {
			return nil
		}
		pool, err := ants.NewPool(workers)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(source storage.TaskSource, parser *intent.Parser, opts ...Option) (*Searcher, error) {
	if source == nil {
		return nil, ErrTaskSourceRequired
	}
	if parser == nil {
		return nil, ErrParserRequired
	}

	s := &Searcher{
		source:   source,
		parser:   parser,
		weights:  rank.DefaultWeights(),
		clock:    time.Now,
		location: time.Local,
		logger:   slog.Default().With("component", "searcher"),
	}
	if err := WithParallelism(DefaultParallelThreshold, runtime.GOMAXPROCS(0))(s); err != nil {
		return nil, err
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.Release()
			return nil, err
		}
	}
	return s, nil
}

// Release releases the worker pool. The searcher should not be used
// after calling Release.
func (s *Searcher) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Parser returns the intent parser the searcher uses.
func (s *Searcher) Parser() *intent.Parser {
	return s.parser
}

// Search ranks the tasks matching query. maxHits limits the result, zero
// means unlimited. Enhancer problems never fail a search; only task source
// failures and cancellation of ctx do.
func (s *Searcher) Search(ctx context.Context, query string, mode core.Mode, maxHits int) (*Result, error) {
	return s.SearchWithMonitor(ctx, query, mode, maxHits, nil)
}

// SearchWithMonitor is Search with callbacks at each stage.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, mode core.Mode, maxHits int, monitor SearchMonitor) (*Result, error) {
	if maxHits < 0 {
		return nil, ErrInvalidMaxHits
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	started := time.Now()
	queryID := uuid.NewString()
	logger := s.logger.With("query_id", queryID)
	monitor.Start(queryID, query, mode)

	// Parsing may wait on the enhancer; load tasks meanwhile.
	var (
		in    *core.QueryIntent
		tasks []*core.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in, err = s.parser.ParseObserved(gctx, query, mode, parseObserver{monitor: monitor})
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = s.source.Tasks(gctx)
		if err != nil && ctx.Err() == nil {
			logger.Error("error loading tasks", "err", err)
			return fmt.Errorf("%w: %w", ErrTaskSourceFailed, err)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	monitor.AfterMerge(in)

	now := s.clock().In(s.location)
	cfg := s.parser.Extractor().Config()
	pred := filter.Build(in, cfg, now)
	scorer := rank.NewScorer(in.Keywords, in.CoreKeywords, s.weights, cfg, now)

	scored, err := s.evaluate(ctx, tasks, pred, scorer)
	if err != nil {
		return nil, err
	}
	monitor.AfterFilter(len(scored), len(tasks))

	ranked := rank.Rank(scored)
	result := &Result{
		QueryID: queryID,
		Intent:  in,
		Tasks:   ranked,
		Total:   len(ranked),
		Scanned: len(tasks),
	}
	if maxHits > 0 && len(ranked) > maxHits {
		result.Tasks = ranked[:maxHits]
	}
	result.Elapsed = time.Since(started)
	monitor.Finish(result)

	logger.Debug("search complete",
		"mode", in.Mode,
		"keywords", len(in.Keywords),
		"scanned", result.Scanned,
		"matched", result.Total,
		"enhanced", in.Diagnostics.Enhanced,
		"elapsed", result.Elapsed)
	return result, nil
}

// evaluate filters and scores tasks. Large inputs are split into chunks
// evaluated on the pool; chunk results are joined in input order.
func (s *Searcher) evaluate(ctx context.Context, tasks []*core.Task, pred filter.Predicate, scorer *rank.Scorer) ([]core.ScoredTask, error) {
	if s.pool == nil || s.threshold == 0 || len(tasks) < s.threshold {
		return evaluateChunk(tasks, pred, scorer), nil
	}

	size := max(minChunkSize, len(tasks)/(4*s.pool.Cap()))
	chunks := make([][]core.ScoredTask, (len(tasks)+size-1)/size)

	var wg sync.WaitGroup
	for i := range chunks {
		lo := i * size
		hi := min(lo+size, len(tasks))
		wg.Add(1)
		job := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			chunks[i] = evaluateChunk(tasks[lo:hi], pred, scorer)
		}
		if err := s.pool.Submit(job); err != nil {
			s.logger.Warn("worker pool unavailable, evaluating inline", "err", err)
			job()
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []core.ScoredTask
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out, nil
}

func evaluateChunk(tasks []*core.Task, pred filter.Predicate, scorer *rank.Scorer) []core.ScoredTask {
	var out []core.ScoredTask
	for _, t := range tasks {
		if t == nil || !pred(t) {
			continue
		}
		out = append(out, scorer.Score(t))
	}
	return out
}
