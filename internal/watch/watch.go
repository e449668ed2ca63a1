// Package watch provides an optional rebuild-on-change mode for dtoc: a
// single fsnotify watcher over the input FDT and the source tree, debounced
// so a burst of saves triggers one rebuild rather than many.
package watch

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher drives rebuild on any write to the watched FDT file or any .c/.h
// file under the watched source roots.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	mu       sync.Mutex
	timer    *time.Timer
}

// New starts watching fdtPath and every directory reachable from each root
// in srcRoots, invoking rebuild (debounced by delay) whenever a relevant
// file changes. The caller must call Close to release the watcher.
func New(fdtPath string, srcRoots []string, delay time.Duration, rebuild func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(fdtPath)); err != nil {
		fsw.Close()
		return nil, err
	}
	for _, root := range srcRoots {
		if err := addTree(fsw, root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{fsw: fsw, debounce: delay}
	go w.loop(fdtPath, rebuild)
	return w, nil
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if shouldSkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return fsw.Add(path)
		}
		return nil
	})
}

func shouldSkipDir(name string) bool {
	return name == ".git" || len(name) >= 5 && name[:5] == "build"
}

func (w *Watcher) loop(fdtPath string, rebuild func()) {
	for {
		select {
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("watch error", "error", err)
		case e, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(e, fdtPath) {
				continue
			}
			w.schedule(rebuild)
		}
	}
}

func (w *Watcher) relevant(e fsnotify.Event, fdtPath string) bool {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return false
	}
	if e.Name == fdtPath {
		return true
	}
	ext := filepath.Ext(e.Name)
	return ext == ".c" || ext == ".h"
}

func (w *Watcher) schedule(rebuild func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		slog.Info("rebuilding after change")
		rebuild()
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
