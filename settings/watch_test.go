package settings

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_RequiresCallback(t *testing.T) {
	err := Watch(context.Background(), "settings.yaml", nil, nil)
	assert.ErrorIs(t, err, ErrWatchCallbackRequired)
}

func TestWatch_ReloadsValidEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 8080\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	reloaded := make(chan *Settings, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, nil, func(s *Settings) { reloaded <- s })
	}()

	// The watcher starts asynchronously; keep editing until an edit lands.
	waitFor := func(content string, port int) {
		t.Helper()
		deadline := time.After(5 * time.Second)
		tick := time.NewTicker(2 * DefaultDebounce)
		defer tick.Stop()
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		for {
			select {
			case s := <-reloaded:
				if s.HTTP.Port == port {
					return
				}
			case <-tick.C:
				require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			case <-deadline:
				t.Fatalf("no reload with port %d", port)
			}
		}
	}

	waitFor("http:\n  port: 9090\n", 9090)

	// Broken edits never reach the callback.
	require.NoError(t, os.WriteFile(path, []byte("http:\n  port: 700000\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1"), 0o644))
	quiet := time.After(3 * DefaultDebounce)
drain:
	for {
		select {
		case s := <-reloaded:
			assert.Equal(t, 9090, s.HTTP.Port, "only the last good settings may be delivered")
		case <-quiet:
			break drain
		}
	}

	waitFor("http:\n  port: 9191\n", 9191)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
