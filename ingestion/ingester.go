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

package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/storage"
)

// Ingester loads the checklist tasks of a Markdown vault into a repository.
// Files are parsed concurrently on a worker pool.
type Ingester struct {
	repository storage.TaskRepository
	pool       *ants.Pool
	extensions []string
	logger     *slog.Logger
}

// Option configures an Ingester.
type Option func(*Ingester) error

// WithPoolSize sets the worker pool size for concurrent parsing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(in *Ingester) error {
		if size < 1 {
			size = 1
		}
		if in.pool != nil {
			in.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		in.pool = pool
		return nil
	}
}

// WithExtensions sets the file extensions that are parsed.
// Default is ".md".
func WithExtensions(exts ...string) Option {
	return func(in *Ingester) error {
		if len(exts) == 0 {
			return ErrNoExtensions
		}
		in.extensions = nil
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			in.extensions = append(in.extensions, strings.ToLower(ext))
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(in *Ingester) error {
		if logger == nil {
			logger = slog.Default()
		}
		in.logger = logger.With("component", "ingester")
		return nil
	}
}

// NewIngester creates a new vault ingester.
func NewIngester(repository storage.TaskRepository, opts ...Option) (*Ingester, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	in := &Ingester{
		repository: repository,
		extensions: []string{".md"},
		logger:     slog.Default().With("component", "ingester"),
	}
	if err := WithPoolSize(runtime.NumCPU() / 2)(in); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err := opt(in); err != nil {
			in.Release()
			return nil, err
		}
	}
	return in, nil
}

// Release releases the worker pool.
// The ingester should not be used after calling Release.
func (in *Ingester) Release() {
	if in.pool != nil {
		in.pool.Release()
	}
}

// IngestVault parses every matching file under root and replaces the
// stored task set with the result. Hidden directories are skipped.
// Unreadable files are logged and skipped. It returns the number of
// tasks stored.
func (in *Ingester) IngestVault(ctx context.Context, root string) (int, error) {
	started := time.Now()
	files, err := in.collect(root)
	if err != nil {
		return 0, err
	}

	perFile := make([][]*core.Task, len(files))
	var wg sync.WaitGroup
	for i, rel := range files {
		wg.Add(1)
		job := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			tasks, err := parsePath(root, rel)
			if err != nil {
				in.logger.Warn("skipping unreadable file", "path", rel, "err", err)
				return
			}
			perFile[i] = tasks
		}
		if err := in.pool.Submit(job); err != nil {
			in.logger.Warn("worker pool unavailable, parsing inline", "err", err)
			job()
		}
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var all []*core.Task
	for _, tasks := range perFile {
		all = append(all, tasks...)
	}
	if err := in.repository.ReplaceTasks(ctx, all); err != nil {
		return 0, err
	}
	in.logger.Info("vault ingested", "root", root, "files", len(files), "tasks", len(all), "elapsed", time.Since(started))
	return len(all), nil
}

// IngestFile re-parses one file and replaces its stored tasks. A file that
// no longer exists has its tasks removed. rel is relative to root.
func (in *Ingester) IngestFile(ctx context.Context, root, rel string) (int, error) {
	rel = filepath.ToSlash(filepath.Clean(rel))
	if strings.HasPrefix(rel, "../") || filepath.IsAbs(rel) {
		return 0, fmt.Errorf("%w: %s", ErrOutsideVault, rel)
	}
	tasks, err := parsePath(root, rel)
	if err != nil && !os.IsNotExist(err) {
		return 0, err
	}
	if err := in.repository.ReplaceFile(ctx, rel, tasks); err != nil {
		return 0, err
	}
	in.logger.Debug("file ingested", "path", rel, "tasks", len(tasks))
	return len(tasks), nil
}

// collect returns the slash-separated paths of matching files under root
// in lexical order.
func (in *Ingester) collect(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			in.logger.Warn("skipping unreadable path", "path", p, "err", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !in.matches(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

func (in *Ingester) matches(name string) bool {
	return slices.Contains(in.extensions, strings.ToLower(filepath.Ext(name)))
}

func parsePath(root, rel string) ([]*core.Task, error) {
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseFile(rel, f)
}
