package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0600))

	removed := make(chan string, 1)
	w, err := New(path, func(p string) { removed <- p })
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.Remove(path))

	select {
	case got := <-removed:
		assert.Equal(t, filepath.Clean(path), got)
	case <-time.After(3 * time.Second):
		t.Fatal("removal was not reported")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.jsonl")
	other := filepath.Join(dir, "journal.jsonl.bak")
	require.NoError(t, os.WriteFile(path, nil, 0600))
	require.NoError(t, os.WriteFile(other, nil, 0600))

	removed := make(chan string, 1)
	w, err := New(path, func(p string) { removed <- p })
	require.NoError(t, err)
	w.debounce = 10 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.Remove(other))

	select {
	case <-removed:
		t.Fatal("unrelated removal was reported")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_MissingDirectoryStarts(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "absent", "journal.jsonl"), nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
