package badger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/taskquery/core"
	"github.com/poiesic/taskquery/storage"
)

func newTestRepo(t *testing.T) storage.TaskRepository {
	t.Helper()
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func task(path string, line int, text string) *core.Task {
	return &core.Task{
		Id:     core.IDFromLocation(path, line),
		Text:   text,
		Status: " ",
		Path:   path,
		Line:   line,
	}
}

func texts(tasks []*core.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Text)
	}
	return out
}

func TestTaskRepository_PutAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := task("work/a.md", 3, "fix login bug")
	a.Priority = 1
	a.Due = time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)
	a.Tags = []string{"work"}
	a.Folder = "work"
	require.NoError(t, repo.PutTasks(ctx, a))

	got, err := repo.GetTask(ctx, a.Id)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = repo.GetTask(ctx, core.ID(12345))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	a.Text = "fix login bug properly"
	require.NoError(t, repo.PutTasks(ctx, a))
	got, err = repo.GetTask(ctx, a.Id)
	require.NoError(t, err)
	assert.Equal(t, "fix login bug properly", got.Text)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTaskRepository_TasksOrderedByLocation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutTasks(ctx,
		task("b.md", 1, "b1"),
		task("a.md", 10, "a10"),
		task("a.md", 2, "a2"),
	))

	tasks, err := repo.Tasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a10", "b1"}, texts(tasks))
}

func TestTaskRepository_ReplaceTasks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutTasks(ctx, task("old.md", 1, "old")))
	require.NoError(t, repo.ReplaceTasks(ctx, []*core.Task{
		task("new.md", 1, "new one"),
		task("new.md", 2, "new two"),
	}))

	tasks, err := repo.Tasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new one", "new two"}, texts(tasks))

	_, err = repo.GetTask(ctx, core.IDFromLocation("old.md", 1))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	byPath, err := repo.GetTasksByPath(ctx, "old.md")
	require.NoError(t, err)
	assert.Empty(t, byPath)

	require.NoError(t, repo.ReplaceTasks(ctx, nil))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTaskRepository_ReplaceTasks_Cancelled(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.PutTasks(ctx, task("keep.md", 1, "keep")))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := repo.ReplaceTasks(cancelled, []*core.Task{task("x.md", 1, "x")})
	assert.ErrorIs(t, err, storage.ErrTransactionFailed)
	assert.ErrorIs(t, err, context.Canceled)

	tasks, err := repo.Tasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, texts(tasks), "a failed replace leaves the live set alone")
}

func TestTaskRepository_ReplaceTasks_Large(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	var tasks []*core.Task
	for i := 1; i <= 5000; i++ {
		tasks = append(tasks, task(fmt.Sprintf("notes/%03d.md", i%100), i, fmt.Sprintf("task %d", i)))
	}
	require.NoError(t, repo.ReplaceTasks(ctx, tasks))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5000, n)
}

func TestTaskRepository_ReplaceFile(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceTasks(ctx, []*core.Task{
		task("a.md", 1, "a1"),
		task("a.md", 2, "a2"),
		task("b.md", 1, "b1"),
	}))

	require.NoError(t, repo.ReplaceFile(ctx, "a.md", []*core.Task{
		task("a.md", 5, "a5"),
	}))

	tasks, err := repo.Tasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a5", "b1"}, texts(tasks))

	byPath, err := repo.GetTasksByPath(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"a5"}, texts(byPath))

	require.NoError(t, repo.ReplaceFile(ctx, "a.md", nil))
	byPath, err = repo.GetTasksByPath(ctx, "a.md")
	require.NoError(t, err)
	assert.Empty(t, byPath)

	err = repo.ReplaceFile(ctx, "b.md", []*core.Task{task("c.md", 1, "wrong file")})
	assert.Error(t, err)
	byPath, err = repo.GetTasksByPath(ctx, "b.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, texts(byPath), "rejected replacement is rolled back")
}

func TestTaskRepository_GetTasksByPath_PrefixIsolation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutTasks(ctx,
		task("a.md", 1, "a"),
		task("a.md.bak", 1, "backup"),
	))
	byPath, err := repo.GetTasksByPath(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, texts(byPath))
}

func TestTaskRepository_DeleteTasks(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := task("a.md", 1, "a")
	b := task("a.md", 2, "b")
	require.NoError(t, repo.PutTasks(ctx, a, b))

	require.NoError(t, repo.DeleteTasks(ctx, a.Id))
	byPath, err := repo.GetTasksByPath(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, texts(byPath))

	err = repo.DeleteTasks(ctx, b.Id, a.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = repo.GetTask(ctx, b.Id)
	assert.NoError(t, err, "failed delete is all or nothing")
}

func TestTaskRepository_Closed(t *testing.T) {
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close(), "close is idempotent")

	_, err = repo.Tasks(context.Background())
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, repo.PutTasks(context.Background(), task("a.md", 1, "a")), storage.ErrStorageClosed)
}

func TestTaskRepository_SharedBackend(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewTaskRepository(backend)
	require.NoError(t, repo.Close())
	assert.False(t, backend.IsClosed(), "shared backend stays open")
}

func TestTaskRepository_ConcurrentReadsDuringReplace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	set := func(prefix string) []*core.Task {
		var out []*core.Task
		for i := 1; i <= 50; i++ {
			out = append(out, task(prefix+".md", i, prefix))
		}
		return out
	}
	require.NoError(t, repo.ReplaceTasks(ctx, set("one")))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			prefix := "one"
			if i%2 == 0 {
				prefix = "two"
			}
			assert.NoError(t, repo.ReplaceTasks(ctx, set(prefix)))
		}
	}()

	for i := 0; i < 50; i++ {
		tasks, err := repo.Tasks(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 50)
		for _, tk := range tasks {
			assert.Equal(t, tasks[0].Text, tk.Text, "a read never mixes generations")
		}
	}
	wg.Wait()
}
