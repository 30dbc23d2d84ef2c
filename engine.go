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

package taskquery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/taskquery/ai"
	"github.com/poiesic/taskquery/ai/openai"
	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/extract"
	"github.com/poiesic/taskquery/ingestion"
	"github.com/poiesic/taskquery/intent"
	"github.com/poiesic/taskquery/search"
	"github.com/poiesic/taskquery/settings"
	"github.com/poiesic/taskquery/storage"
	"github.com/poiesic/taskquery/storage/badger"
)

var (
	// ErrSettingsRequired is returned by Open and Reload for nil settings.
	ErrSettingsRequired = errors.New("settings required")
	// ErrVaultNotConfigured is returned by Ingest and WatchVault when the
	// settings name no vault.
	ErrVaultNotConfigured = errors.New("vault path not configured")
	// ErrEngineClosed is returned after Close.
	ErrEngineClosed = errors.New("engine closed")
)

// Engine wires the task store, the enhancer and the query pipeline
// together from one settings value. Searches run concurrently with
// Reload: each search uses the snapshot that was current when it started.
type Engine struct {
	repository storage.TaskRepository
	ownsRepo   bool
	ingester   *ingestion.Ingester
	current    atomic.Pointer[snapshot]
	logger     *slog.Logger
	clock      func() time.Time

	// fixedProvider replaces the provider built from settings.
	fixedProvider ai.Provider

	mu     sync.Mutex // serializes Reload and Close
	closed atomic.Bool
}

// snapshot is everything derived from one settings value.
type snapshot struct {
	settings *settings.Settings
	provider ai.Provider
	searcher *search.Searcher
	warnings []string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRepository uses repo instead of opening the store named in the
// settings. The engine does not close it.
func WithRepository(repo storage.TaskRepository) EngineOption {
	return func(e *Engine) {
		e.repository = repo
	}
}

// WithProvider uses provider for enhancement regardless of the enhancer
// section of the settings. The engine does not close it.
func WithProvider(provider ai.Provider) EngineOption {
	return func(e *Engine) {
		e.fixedProvider = provider
	}
}

// WithClock sets the source of the current time for relative dates.
func WithClock(clock func() time.Time) EngineOption {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// Open builds an engine from cfg.
func Open(cfg *settings.Settings, opts ...EngineOption) (*Engine, error) {
	if cfg == nil {
		return nil, ErrSettingsRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", settings.ErrInvalidSettings, err)
	}

	e := &Engine{
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.repository == nil {
		repo, err := openRepository(cfg.Storage, e.logger)
		if err != nil {
			return nil, err
		}
		e.repository = repo
		e.ownsRepo = true
	}

	ingester, err := ingestion.NewIngester(e.repository,
		ingestion.WithExtensions(cfg.Vault.Extensions...),
		ingestion.WithLogger(e.logger),
	)
	if err != nil {
		e.closeRepository()
		return nil, err
	}
	e.ingester = ingester

	snap, err := e.build(cfg)
	if err != nil {
		e.ingester.Release()
		e.closeRepository()
		return nil, err
	}
	e.current.Store(snap)
	return e, nil
}

func openRepository(cfg settings.StorageConfig, logger *slog.Logger) (storage.TaskRepository, error) {
	if cfg.InMemory {
		return badger.NewMemoryRepository()
	}
	return badger.NewRepository(cfg.Path, logger)
}

// build derives a snapshot from cfg. Property terms are resolved here,
// once per settings value, never per query.
func (e *Engine) build(cfg *settings.Settings) (*snapshot, error) {
	termsCfg, termWarnings := cfg.ResolveTerms()
	warnings := make([]string, 0, len(termWarnings))
	for _, w := range termWarnings {
		e.logger.Warn("settings: property terms", "code", w.Code, "msg", w.Message)
		warnings = append(warnings, w.String())
	}

	provider := e.fixedProvider
	owned := false
	if provider == nil {
		if aiCfg := cfg.AIConfig(); aiCfg != nil {
			p, err := openai.NewProvider(aiCfg)
			if err != nil {
				return nil, fmt.Errorf("enhancer: %w", err)
			}
			provider = p
			owned = true
		}
	}

	parserOpts := []intent.Option{
		intent.WithTimeout(cfg.Enhancer.Timeout),
		intent.WithRetry(cfg.Enhancer.MaxAttempts, cfg.Enhancer.RetryDelay),
		intent.WithDisabledModes(cfg.DisabledModes()...),
		intent.WithLogger(e.logger),
	}
	if provider != nil {
		parserOpts = append(parserOpts, intent.WithEnhancer(provider.Enhancer()))
	}
	parser, err := intent.NewParser(extract.NewExtractor(termsCfg, cfg.ExtractOptions()), parserOpts...)
	if err != nil {
		closeOwned(provider, owned, e.logger)
		return nil, err
	}

	searcher, err := search.NewSearcher(e.repository, parser,
		search.WithWeights(cfg.Scoring),
		search.WithLocation(cfg.Location()),
		search.WithClock(e.clock),
		search.WithLogger(e.logger),
	)
	if err != nil {
		closeOwned(provider, owned, e.logger)
		return nil, err
	}

	if !owned {
		provider = nil
	}
	return &snapshot{settings: cfg, provider: provider, searcher: searcher, warnings: warnings}, nil
}

func closeOwned(provider ai.Provider, owned bool, logger *slog.Logger) {
	if !owned || provider == nil {
		return
	}
	if err := provider.Close(); err != nil {
		logger.Error("error closing AI provider", "err", err)
	}
}

// Settings returns the settings currently in effect.
func (e *Engine) Settings() *settings.Settings {
	return e.current.Load().settings
}

// Warnings returns the problems found while resolving the current
// settings' property terms.
func (e *Engine) Warnings() []string {
	return e.current.Load().warnings
}

// Repository returns the task store.
func (e *Engine) Repository() storage.TaskRepository {
	return e.repository
}

// Search runs query in mode and returns at most maxHits ranked tasks
// (zero means all).
func (e *Engine) Search(ctx context.Context, query string, mode core.Mode, maxHits int) (*search.Result, error) {
	return e.SearchWithMonitor(ctx, query, mode, maxHits, nil)
}

// SearchWithMonitor is Search with stage callbacks.
func (e *Engine) SearchWithMonitor(ctx context.Context, query string, mode core.Mode, maxHits int, monitor search.SearchMonitor) (*search.Result, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	return e.current.Load().searcher.SearchWithMonitor(ctx, query, mode, maxHits, monitor)
}

// Reload swaps in new settings. Searches already running finish on the
// old settings. Storage settings only take effect on the next Open.
func (e *Engine) Reload(cfg *settings.Settings) error {
	if cfg == nil {
		return ErrSettingsRequired
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", settings.ErrInvalidSettings, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() {
		return ErrEngineClosed
	}

	old := e.current.Load()
	if old.settings.Storage != cfg.Storage {
		e.logger.Warn("storage settings changed; restart to apply")
	}
	snap, err := e.build(cfg)
	if err != nil {
		return err
	}
	e.current.Store(snap)
	e.release(old)
	e.logger.Info("settings applied", "languages", cfg.Languages, "default_mode", cfg.Modes.Default)
	return nil
}

// release frees what a replaced snapshot owns. A search still running on
// it falls back to evaluating inline once the pool is gone.
func (e *Engine) release(snap *snapshot) {
	snap.searcher.Release()
	closeOwned(snap.provider, true, e.logger)
}

// Ingest re-reads the configured vault and replaces the stored tasks.
func (e *Engine) Ingest(ctx context.Context) (int, error) {
	if e.closed.Load() {
		return 0, ErrEngineClosed
	}
	root := e.Settings().Vault.Path
	if root == "" {
		return 0, ErrVaultNotConfigured
	}
	return e.ingester.IngestVault(ctx, root)
}

// WatchVault applies vault file changes to the store until ctx is done.
func (e *Engine) WatchVault(ctx context.Context) error {
	root := e.Settings().Vault.Path
	if root == "" {
		return ErrVaultNotConfigured
	}
	return e.ingester.WatchVault(ctx, root)
}

// Close releases the engine. The repository is closed only when the
// engine opened it.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Swap(true) {
		return nil
	}

	e.release(e.current.Load())
	e.ingester.Release()
	return e.closeRepository()
}

func (e *Engine) closeRepository() error {
	if !e.ownsRepo {
		return nil
	}
	if err := e.repository.Close(); err != nil {
		e.logger.Error("error closing task repository", "err", err)
		return err
	}
	return nil
}
