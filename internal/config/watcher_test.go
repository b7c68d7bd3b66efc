package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xpopd.toml")
	require.NoError(t, os.WriteFile(path, []byte("[display]\n"), 0644))

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	changed := make(chan struct{}, 4)
	w.SetChangeCallback(func() { changed <- struct{}{} })
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(path, []byte("[display]\nwidth = 400\n"), 0644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xpopd.toml")

	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)

	changed := make(chan struct{}, 4)
	w.SetChangeCallback(func() { changed <- struct{}{} })
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), []byte("x = 1"), 0644))

	select {
	case <-changed:
		t.Fatal("unexpected change for unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "xpopd.toml"), nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
