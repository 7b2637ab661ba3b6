// Package watcher turns a directory that a detector is writing frames into
// into a lazy stream of file paths.
package watcher

import (
	"context"
	"iter"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options tunes a Watcher
type Options struct {
	// Debounce is how long a file must go without writes before it is
	// considered complete
	Debounce time.Duration
	// Idle ends the stream when no file has appeared for this long.
	// Zero waits until the context is done.
	Idle time.Duration
	// Extensions restricts the stream to these extensions, without the dot.
	// Empty accepts every file.
	Extensions []string
	// Existing also yields files already in the directory, in name order,
	// before any new ones
	Existing bool
}

// Watcher watches a directory for new files
type Watcher struct {
	dir  string
	opts Options
	err  error
}

// New creates a new directory watcher
func New(dir string, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:  dir,
		opts: opts,
	}
}

// Err returns the error that ended the last Paths stream early, if any.
// A stream ended by its context or its idle timeout has no error.
func (w *Watcher) Err() error {
	return w.err
}

// Paths returns a single-pass stream of files appearing in the directory.
//
// A file is yielded once, after it has been quiet for the debounce
// interval, so frames still being written are not handed out. Files whose
// name starts with a dot are ignored. The stream ends when ctx is done,
// when nothing has happened for the idle interval, or when the consumer
// stops.
func (w *Watcher) Paths(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		w.err = nil

		fw, err := fsnotify.NewWatcher()
		if err != nil {
			w.err = err
			return
		}
		defer fw.Close()

		if err := fw.Add(w.dir); err != nil {
			w.err = err
			return
		}

		seen := make(map[string]bool)
		if w.opts.Existing {
			existing, err := w.existing()
			if err != nil {
				w.err = err
				return
			}
			for _, path := range existing {
				seen[path] = true
				if !yield(path) {
					return
				}
			}
		}

		tick := w.opts.Debounce / 4
		if tick < 10*time.Millisecond {
			tick = 10 * time.Millisecond
		}
		ticker := time.NewTicker(tick)
		defer ticker.Stop()

		// path -> time of the last write seen
		pending := make(map[string]time.Time)
		lastActivity := time.Now()

		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if !w.match(event.Name) || seen[event.Name] {
					continue
				}
				switch {
				case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
					pending[event.Name] = time.Now()
					lastActivity = time.Now()
				case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					delete(pending, event.Name)
				}

			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				log.Printf("Watcher error: %v", err)

			case now := <-ticker.C:
				for _, path := range settled(pending, now, w.opts.Debounce) {
					delete(pending, path)
					seen[path] = true
					if !yield(path) {
						return
					}
					lastActivity = time.Now()
				}
				if w.opts.Idle > 0 && len(pending) == 0 && time.Since(lastActivity) >= w.opts.Idle {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}
}

// settled returns the pending paths that have been quiet for at least
// debounce, oldest first
func settled(pending map[string]time.Time, now time.Time, debounce time.Duration) []string {
	var ready []string
	for path, last := range pending {
		if now.Sub(last) >= debounce {
			ready = append(ready, path)
		}
	}
	slices.SortFunc(ready, func(a, b string) int {
		if c := pending[a].Compare(pending[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return ready
}

// existing lists the matching regular files already in the directory
func (w *Watcher) existing() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.Type().IsRegular() && w.match(path) {
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func (w *Watcher) match(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if len(w.opts.Extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	for _, want := range w.opts.Extensions {
		if strings.EqualFold(ext, strings.TrimPrefix(want, ".")) {
			return true
		}
	}
	return false
}
