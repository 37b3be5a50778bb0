// control/watcher.go
// Author: momentics <momentics@gmail.com>
//
// Hot reload: a TOML file watched with fsnotify feeds a ConfigStore.

package control

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reloads a config file into a store whenever it is written.
type Watcher struct {
	path    string
	section string
	store   *ConfigStore
	fw      *fsnotify.Watcher
	log     zerolog.Logger

	reloads  atomic.Int64
	failures atomic.Int64
}

// WatcherOption customizes a Watcher.
type WatcherOption func(*Watcher)

// WithSection loads only the named table of the file, flattened into the
// store. A file without the table is rejected.
func WithSection(name string) WatcherOption {
	return func(w *Watcher) { w.section = name }
}

// NewWatcher watches path's directory, so editors that replace the file
// rather than write it in place are still seen.
func NewWatcher(path string, store *ConfigStore, l zerolog.Logger, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("control: watch %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("control: watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("control: watch %s: %w", path, err)
	}
	w := &Watcher{path: abs, store: store, fw: fw, log: l}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Reload reads the file into the store now.
func (w *Watcher) Reload() error {
	cfg, err := LoadFile(w.path)
	if err == nil && w.section != "" {
		table, ok := cfg[w.section].(map[string]any)
		if !ok {
			err = fmt.Errorf("control: %s: no [%s] table", w.path, w.section)
		}
		cfg = table
	}
	if err == nil {
		err = w.store.SetConfig(cfg)
	}
	if err != nil {
		w.failures.Add(1)
		return err
	}
	w.reloads.Add(1)
	return nil
}

// Run dispatches file events until ctx is done, then closes the watcher.
// Bad edits are logged and skipped; the last good config stays in effect.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if err := w.Reload(); err != nil {
					w.log.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
					continue
				}
				w.log.Info().Str("path", w.path).Msg("config reloaded")
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

// Reloads counts successful reloads.
func (w *Watcher) Reloads() int64 { return w.reloads.Load() }

// Failures counts rejected reloads.
func (w *Watcher) Failures() int64 { return w.failures.Load() }
