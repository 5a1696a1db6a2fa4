package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReportsWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))

	w, err := New(path)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan string, 1)
	go func() {
		got, err := w.Wait(ctx)
		if err == nil {
			done <- got
		}
		close(done)
	}()

	// A sibling file must not wake the watcher.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.jsonl"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte("{\"a\":1}\n"), 0o600))

	select {
	case got := <-done:
		assert.Equal(t, w.Path(), got)
	case <-ctx.Done():
		t.Fatal("no change reported")
	}
}

func TestWaitHonoursContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	w, err := New(path)
	require.NoError(t, err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = w.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "data.jsonl"))
	assert.Error(t, err)
}

func TestWaitAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.jsonl")
	w, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Wait(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
