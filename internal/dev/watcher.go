package dev

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/wasmdev/internal/config"
	"git.home.luguber.info/inful/wasmdev/internal/logfields"
)

// watcher observes the module source tree. Toolchain output directories are
// ignored so a rebuild cannot trigger itself.
type watcher struct {
	fs      *fsnotify.Watcher
	root    string
	ignored []string
	deb     *debouncer
}

func newWatcher(layout config.Layout, delay time.Duration) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &watcher{
		fs:   fw,
		root: layout.ModuleDir,
		ignored: []string{
			layout.ModuleOutDir,
			filepath.Join(layout.ModuleDir, "target"),
		},
		deb: newDebouncer(delay),
	}
	if err := w.addDirsRecursive(w.root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *watcher) isIgnored(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return true
	}
	for _, dir := range w.ignored {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *watcher) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.isIgnored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// run dispatches debounced change notifications to rebuild, one at a time,
// until ctx is canceled.
func (w *watcher) run(ctx context.Context, rebuild func(context.Context)) {
	defer func() {
		w.deb.stop()
		_ = w.fs.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.deb.req:
			rebuild(ctx)
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if w.isIgnored(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), "op", ev.Op.String())
	w.deb.trigger()
}
