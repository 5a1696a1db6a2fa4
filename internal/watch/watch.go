// Package watch reports changes to a single file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long Wait keeps absorbing events after the first
// change, so one save that produces several events reloads once.
const DefaultSettle = 100 * time.Millisecond

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("watcher closed")

// Watcher signals writes to one file. Editors that replace files by rename
// are handled by watching the parent directory.
type Watcher struct {
	path    string
	settle  time.Duration
	watcher *fsnotify.Watcher
}

// New starts watching path.
func New(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{path: abs, settle: DefaultSettle, watcher: fw}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Wait blocks until the file is written, created or renamed into place and
// returns its path.
func (w *Watcher) Wait(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return "", ErrClosed
			}
			return "", err
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return "", ErrClosed
			}
			if w.relevant(ev) {
				w.drain(ctx)
				return w.path, nil
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) drain(ctx context.Context) {
	timer := time.NewTimer(w.settle)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case _, ok := <-w.watcher.Events:
			if !ok {
				return
			}
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
