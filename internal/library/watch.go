package library

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Event describes a change to a markdown file or directory below the base.
type Event struct {
	Op   string `json:"op"`
	Path string `json:"path"`
}

// Watcher fans out filesystem changes under one base directory to any number
// of subscribers. Subscriber channels are closed by Close.
type Watcher struct {
	fsw  *fsnotify.Watcher
	base string
	lib  *Library

	mu     sync.Mutex
	subs   map[chan Event]struct{}
	closed bool
	done   chan struct{}
}

// Watch starts watching the current base directory and all visible
// subdirectories.
func (l *Library) Watch() (*Watcher, error) {
	base, err := l.requireBase()
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		fsw:  fsw,
		base: base,
		lib:  l,
		subs: make(map[chan Event]struct{}),
		done: make(chan struct{}),
	}
	if err := w.addTree(base); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	go w.run()
	return w, nil
}

// Base returns the directory being watched.
func (w *Watcher) Base() string {
	return w.base
}

// Subscribe registers a new listener. The returned function unsubscribes.
func (w *Watcher) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	w.mu.Lock()
	if w.closed {
		close(ch)
		w.mu.Unlock()
		return ch, func() {}
	}
	w.subs[ch] = struct{}{}
	w.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			w.mu.Lock()
			defer w.mu.Unlock()
			if _, ok := w.subs[ch]; ok {
				delete(w.subs, ch)
				close(ch)
			}
		})
	}
}

// Close stops watching and closes all subscriber channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for ch := range w.subs {
		close(ch)
		delete(w.subs, ch)
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root {
			rel, relErr := filepath.Rel(w.base, path)
			if relErr != nil {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") || w.lib.ignored(filepath.ToSlash(rel)) {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", "base", w.base, "err", err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	rel, err := filepath.Rel(w.base, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(filepath.Base(ev.Name), ".") || w.lib.ignored(rel) {
		return
	}

	isDir := false
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			isDir = true
			if err := w.addTree(ev.Name); err != nil {
				slog.Warn("watch new directory", "path", rel, "err", err)
			}
		}
	}
	if !isDir && !isMarkdownFile(ev.Name) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}

	w.broadcast(Event{Op: opName(ev.Op), Path: rel})
}

func (w *Watcher) broadcast(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subs {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Write):
		return "write"
	}
	return "chmod"
}
