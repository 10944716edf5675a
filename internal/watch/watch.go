// Package watch reports changes to one document on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"mtlxgraph/internal/logger"
)

// Watcher calls OnChange whenever its file is written or recreated. The parent
// directory is watched so editors that save through a rename are still seen.
type Watcher struct {
	path     string
	onChange func(path string)
	log      *logger.Logger
	watcher  *fsnotify.Watcher
}

func New(path string, log *logger.Logger, onChange func(path string)) (*Watcher, error) {
	if log == nil {
		log = logger.Nop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, onChange: onChange, log: log, watcher: fw}, nil
}

// Run dispatches events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !Relevant(ev, w.path) {
				continue
			}
			w.log.Debug("document changed", "path", w.path, "op", ev.Op.String())
			w.onChange(w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Relevant reports whether ev is a write or create of target.
func Relevant(ev fsnotify.Event, target string) bool {
	if filepath.Clean(ev.Name) != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
