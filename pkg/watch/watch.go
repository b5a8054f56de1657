// Package watch reruns a conversion whenever one of its input files changes.
//
// The parent directories are watched rather than the files themselves so
// that editors replacing a file through a rename are still noticed.
// Bursts of events are collapsed into one run after a quiet period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a fixed set of files.
type Watcher struct {
	files    map[string]struct{}
	debounce time.Duration
	log      *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period between the last event and a run.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// New returns a Watcher for files. The files need not exist yet.
func New(files []string, opts ...Option) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("watch: no files to watch")
	}
	w := &Watcher{
		files:    make(map[string]struct{}, len(files)),
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch: %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
	}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Files returns the watched paths, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) dirs() []string {
	seen := make(map[string]struct{})
	var out []string
	for f := range w.files {
		d := filepath.Dir(f)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// relevant reports whether ev touches a watched file.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	_, ok := w.files[filepath.Clean(ev.Name)]
	return ok
}

// Run calls fn once, then again after every debounced change, until ctx
// ends. Errors from fn are logged and do not stop the loop. Run returns nil
// when ctx ends and an error only when watching itself fails.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	for _, d := range w.dirs() {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch: %s: %w", d, err)
		}
	}

	run := func() {
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.log.Error("run failed", zap.Error(err))
		}
	}
	run()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending []string
	)
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			pending = append(pending, ev.Name)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			w.log.Info("inputs changed", zap.Strings("files", dedupe(pending)))
			pending = pending[:0]
			run()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
