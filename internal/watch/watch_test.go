package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestAddRemove(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.lua")
	b := filepath.Join(dir, "b.lua")
	writeFile(t, a, "return {}")
	writeFile(t, b, "return {}")

	require.NoError(t, w.Add(a))
	require.NoError(t, w.Add(b))
	assert.ErrorIs(t, w.Add(a), ErrAlreadyWatching)
	assert.Equal(t, []string{a, b}, w.Files())
	assert.Len(t, w.dirs, 1)
	assert.Equal(t, 2, w.dirs[dir])

	require.NoError(t, w.Remove(a))
	assert.ErrorIs(t, w.Remove(a), ErrNotWatching)
	require.NoError(t, w.Remove(b))
	assert.Empty(t, w.dirs)
	assert.Empty(t, w.Files())
}

func TestAddErrors(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Close()

	assert.ErrorIs(t, w.Add("/nonexistent/path/input.lua"), ErrPathNotExist)
	assert.ErrorIs(t, w.Add(t.TempDir()), ErrIsDirectory)
}

func TestClosed(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	assert.ErrorIs(t, w.Add("x"), ErrWatcherClosed)
	assert.ErrorIs(t, w.Remove("x"), ErrWatcherClosed)

	_, ok := <-w.Events()
	assert.False(t, ok)
	_, ok = <-w.Errors()
	assert.False(t, ok)
}

func TestDebouncedWrite(t *testing.T) {
	w, err := New(WithDebounce(50 * time.Millisecond))
	require.NoError(t, err)
	defer w.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "data.lua")
	other := filepath.Join(dir, "other.lua")
	writeFile(t, path, "return {1}")
	writeFile(t, other, "return {}")
	require.NoError(t, w.Add(path))

	for i := range 5 {
		writeFile(t, path, "return {"+string(rune('1'+i))+"}")
	}
	writeFile(t, other, "return {2}")

	select {
	case ev := <-w.Events():
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, ev.Path)
		assert.True(t, ev.Op.Has(OpWrite))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected second event %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestConvertOp(t *testing.T) {
	assert.Equal(t, Op(0), convertOp(fsnotify.Chmod))
	assert.Equal(t, OpCreate|OpWrite, convertOp(fsnotify.Create|fsnotify.Write))
	assert.True(t, convertOp(fsnotify.Remove).Has(OpRemove))
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "UNKNOWN", (OpCreate | OpWrite).String())
}
