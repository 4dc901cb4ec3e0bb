// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package monitor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/prophetdb/paper-downloader/internal/logging"
)

// Watcher feeds filesystem create events into the monitor. fsnotify does
// not watch recursively, so every directory under the root is registered,
// and directories created later are added as their events arrive.
type Watcher struct {
	monitor *Monitor
	watcher *fsnotify.Watcher
	log     logging.Logger
}

// NewWatcher registers the monitor's root directory and all its
// subdirectories.
func NewWatcher(m *Monitor, log logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{monitor: m, watcher: fsw, log: log}
	if err := w.addRecursive(m.cfg.RootDir); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if filepath.Base(path) == ".minio.sys" {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Run dispatches events until ctx is cancelled. Dispatch is serialized:
// one event is fully handled before the next is read, so a harvest
// triggered by one upload finishes before the next upload is considered.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.log.Info("watching", logging.String("root", w.monitor.cfg.RootDir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.addRecursive(event.Name); err != nil {
					w.log.Warn("new directory not watched", logging.Err(err))
				}
			}
			w.monitor.HandleCreate(ctx, event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", logging.Err(err))
		}
	}
}
