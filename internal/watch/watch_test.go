package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orthopole/matex/internal/config"
)

func TestSourceDirs(t *testing.T) {
	cfg := &config.Config{
		Sources: []string{"src/a.mtx", "src/b.mtx", "extra/c.mtx"},
	}
	w := New("/project", cfg, 0, nil)

	dirs := w.sourceDirs()
	assert.Equal(t, []string{
		filepath.Join("/project", "src"),
		filepath.Join("/project", "extra"),
	}, dirs)
}

func TestShouldIgnore(t *testing.T) {
	ignored := []string{
		"/p/src/.main.mtx.swp",
		"/p/src/main.mtx~",
		"/p/src/.hidden",
		"/p/src/#buffer#",
		"/p/src/file.swx",
	}
	for _, path := range ignored {
		assert.True(t, shouldIgnore(path), path)
	}

	kept := []string{"/p/src/main.mtx", "/p/src/macros.mtx"}
	for _, path := range kept {
		assert.False(t, shouldIgnore(path), path)
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	rebuildReq, trigger := newDebouncer()

	for range 5 {
		trigger()
	}

	select {
	case <-rebuildReq:
	case <-time.After(2 * time.Second):
		t.Fatal("debouncer never fired")
	}

	// The burst collapses into a single request.
	select {
	case <-rebuildReq:
		t.Fatal("debouncer fired more than once for a single burst")
	case <-time.After(2 * debounceDelay):
	}
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	source := filepath.Join(root, "src", "main.mtx")
	require.NoError(t, os.WriteFile(source, []byte("VERSION 1\n"), 0o644))

	cfg := &config.Config{Sources: []string{"src/main.mtx"}}

	var rebuilds atomic.Int32
	rebuilt := make(chan struct{}, 8)
	rebuild := func(ctx context.Context) error {
		rebuilds.Add(1)
		rebuilt <- struct{}{}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- New(root, cfg, 0, rebuild).Run(ctx)
	}()

	// Give the watcher time to register before touching the file.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(source, []byte("VERSION 1\nRAW x\n"), 0o644))

	select {
	case <-rebuilt:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never rebuilt after change")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
	assert.GreaterOrEqual(t, rebuilds.Load(), int32(1))
}
