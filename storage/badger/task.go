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

package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/storage"
)

// ctxCheckInterval is how many keys an iteration visits between context checks.
const ctxCheckInterval = 256

// TaskRepository implements storage.TaskRepository on BadgerDB.
type TaskRepository struct {
	backend *Backend
	owned   bool
	logger  *slog.Logger

	// mu serializes writers; readers rely on badger snapshots.
	mu sync.Mutex
}

var _ storage.TaskRepository = (*TaskRepository)(nil)

// NewTaskRepository creates a TaskRepository on a shared backend.
// Closing the repository leaves the backend open.
func NewTaskRepository(backend *Backend) *TaskRepository {
	return &TaskRepository{
		backend: backend,
		logger:  backend.logger.With("component", "task-repository"),
	}
}

// NewRepository opens a BadgerDB database at path and returns a repository
// that owns it.
func NewRepository(path string, logger *slog.Logger) (storage.TaskRepository, error) {
	backend, err := OpenBackend(path, false, logger)
	if err != nil {
		return nil, err
	}
	repo := NewTaskRepository(backend)
	repo.owned = true
	return repo, nil
}

// Close closes the backend if the repository owns it.
func (r *TaskRepository) Close() error {
	if r.owned && !r.backend.IsClosed() {
		return r.backend.Close()
	}
	return nil
}

func (r *TaskRepository) checkOpen() error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// Tasks returns every stored task ordered by path, then line.
func (r *TaskRepository) Tasks(ctx context.Context) ([]*core.Task, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	var tasks []*core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		if err != nil {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGenerationPrefix(taskPrefix, gen)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		n := 0
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if n++; n%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			task, err := readItem(iter.Item())
			if err != nil {
				return err
			}
			tasks = append(tasks, task)
		}
		return ctx.Err()
	}, false)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(tasks, func(a, b *core.Task) int {
		if c := cmp.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return cmp.Compare(a.Line, b.Line)
	})
	return tasks, nil
}

// PutTasks inserts or overwrites tasks by ID.
func (r *TaskRepository) PutTasks(ctx context.Context, tasks ...*core.Task) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		if err != nil {
			return err
		}
		for _, task := range tasks {
			old, err := readTask(tx, makeTaskKey(gen, task.Id))
			if err != nil {
				return err
			}
			if old != nil {
				if err := tx.Delete(makeTaskPathKey(gen, old)); err != nil {
					return err
				}
			}
			if err := setTask(tx, gen, task); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ReplaceTasks writes tasks as a new generation and then switches readers
// to it in one transaction. The previous generation is dropped afterwards.
func (r *TaskRepository) ReplaceTasks(ctx context.Context, tasks []*core.Task) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var current uint64
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		current, err = readGeneration(tx)
		return err
	}, false)
	if err != nil {
		return err
	}
	next := current + 1
	stale := [][]byte{makeGenerationPrefix(taskPrefix, current), makeGenerationPrefix(taskPathPrefix, current)}

	err = r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for i, task := range tasks {
			if i%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			if err := wb.Set(makeTaskKey(next, task.Id), storage.MarshalTask(task)); err != nil {
				return err
			}
			if err := wb.Set(makeTaskPathKey(next, task), storage.MarshalID(task.Id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		err = r.backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set([]byte(generationKey), encodeGeneration(next)); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
	}
	if err != nil {
		// Nothing reads the unfinished generation; drop what was written.
		stale = [][]byte{makeGenerationPrefix(taskPrefix, next), makeGenerationPrefix(taskPathPrefix, next)}
		if dropErr := r.backend.DeletePrefix(stale...); dropErr != nil {
			r.logger.Warn("failed to drop unfinished generation", "generation", next, "err", dropErr)
		}
		return fmt.Errorf("%w: replace tasks: %w", storage.ErrTransactionFailed, err)
	}

	if err := r.backend.DeletePrefix(stale...); err != nil {
		r.logger.Warn("failed to drop previous generation", "generation", current, "err", err)
	}
	r.logger.Debug("replaced tasks", "count", len(tasks), "generation", next)
	return nil
}

// ReplaceFile replaces the tasks of one source file.
func (r *TaskRepository) ReplaceFile(ctx context.Context, path string, tasks []*core.Task) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		if err != nil {
			return err
		}
		ids, keys, err := r.pathIndex(tx, gen, path)
		if err != nil {
			return err
		}
		for i, key := range keys {
			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(makeTaskKey(gen, ids[i])); err != nil {
				return err
			}
		}
		for _, task := range tasks {
			if task.Path != path {
				return fmt.Errorf("task %d belongs to %q, not %q", task.Id, task.Path, path)
			}
			if err := setTask(tx, gen, task); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteTasks removes tasks by ID.
func (r *TaskRepository) DeleteTasks(ctx context.Context, ids ...core.ID) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			key := makeTaskKey(gen, id)
			task, err := readTask(tx, key)
			if err != nil {
				return err
			}
			if task == nil {
				return fmt.Errorf("%w: %d", storage.ErrNotFound, id)
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			if err := tx.Delete(makeTaskPathKey(gen, task)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetTask retrieves a single task by ID.
func (r *TaskRepository) GetTask(ctx context.Context, id core.ID) (*core.Task, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	var task *core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		if err != nil {
			return err
		}
		task, err = readTask(tx, makeTaskKey(gen, id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, storage.ErrNotFound
	}
	return task, nil
}

// GetTasksByPath returns the tasks of one source file ordered by line.
func (r *TaskRepository) GetTasksByPath(ctx context.Context, path string) ([]*core.Task, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	var tasks []*core.Task
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		if err != nil {
			return err
		}
		ids, _, err := r.pathIndex(tx, gen, path)
		if err != nil {
			return err
		}
		for _, id := range ids {
			task, err := readTask(tx, makeTaskKey(gen, id))
			if err != nil {
				return err
			}
			if task == nil {
				r.logger.Warn("path index points at missing task", "path", path, "id", id)
				continue
			}
			tasks = append(tasks, task)
		}
		return nil
	}, false)
	return tasks, err
}

// Count returns the number of stored tasks.
func (r *TaskRepository) Count(ctx context.Context) (int, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		gen, err := readGeneration(tx)
		if err != nil {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeGenerationPrefix(taskPrefix, gen)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// pathIndex returns the task IDs and index keys of one file in line order.
func (r *TaskRepository) pathIndex(tx *badger.Txn, gen uint64, path string) ([]core.ID, [][]byte, error) {
	var ids []core.ID
	var keys [][]byte

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeTaskPathPrefix(gen, path)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		var id core.ID
		err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		keys = append(keys, item.KeyCopy(nil))
	}
	return ids, keys, nil
}

func setTask(tx *badger.Txn, gen uint64, task *core.Task) error {
	if err := tx.Set(makeTaskKey(gen, task.Id), storage.MarshalTask(task)); err != nil {
		return err
	}
	return tx.Set(makeTaskPathKey(gen, task), storage.MarshalID(task.Id))
}

// readTask returns nil, nil when the key is absent.
func readTask(tx *badger.Txn, key []byte) (*core.Task, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return readItem(item)
}

func readItem(item *badger.Item) (*core.Task, error) {
	var task *core.Task
	err := item.Value(func(val []byte) error {
		var err error
		task, err = storage.UnmarshalTask(val)
		return err
	})
	return task, err
}

func readGeneration(tx *badger.Txn) (uint64, error) {
	item, err := tx.Get([]byte(generationKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var gen uint64
	err = item.Value(func(val []byte) error {
		gen = decodeGeneration(val)
		return nil
	})
	return gen, err
}
