package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes made to the upload tree outside the API, such as
// files copied in by an operator. Bursts of events are debounced into one
// callback.
type Watcher struct {
	fs       *fsnotify.Watcher
	root     string
	debounce time.Duration
	onChange func()
	log      *slog.Logger

	mu       sync.Mutex
	expected map[string]time.Time // path -> end of its ignore window
}

func NewWatcher(root string, debounce time.Duration, onChange func(), log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	w := &Watcher{
		fs:       fw,
		root:     root,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		expected: make(map[string]time.Time),
	}
	if err := w.addTree(root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and every non-hidden directory below it. fsnotify is
// not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && isHidden(d.Name()) {
			return fs.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Expect marks a change to path as already handled, for changes made through
// the library API that reload the index themselves. Events for path are
// ignored for a few debounce periods.
func (w *Watcher) Expect(path string) {
	now := time.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, until := range w.expected {
		if now.After(until) {
			delete(w.expected, p)
		}
	}
	w.expected[filepath.Clean(path)] = now.Add(3*w.debounce + time.Second)
}

func (w *Watcher) isExpected(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	until, ok := w.expected[filepath.Clean(path)]
	return ok && time.Now().Before(until)
}

// Run delivers debounced change notifications until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() && !isHidden(info.Name()) {
					if err := w.addTree(ev.Name); err != nil {
						w.log.Warn("watch new directory failed", "dir", ev.Name, "error", err)
					}
				}
			}
			if !relevant(ev) {
				continue
			}
			if w.isExpected(ev.Name) {
				w.log.Debug("ignoring expected change", "path", ev.Name, "op", ev.Op.String())
				continue
			}
			w.log.Debug("upload tree changed", "path", ev.Name, "op", ev.Op.String())
			pending = true
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		case <-timer.C:
			if pending {
				pending = false
				w.onChange()
			}
		}
	}
}

// relevant reports whether ev can change the set of indexed documents.
// Hidden entries, including in-progress uploads, and chmod-only events are ignored.
func relevant(ev fsnotify.Event) bool {
	if isHidden(filepath.Base(ev.Name)) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
