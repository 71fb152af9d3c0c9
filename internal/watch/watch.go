// Package watch maps source changes to task runs.
//
// A Watcher observes every source folder recursively. Each change is matched
// against the configured rules; a rule's tasks are enqueued once its quiet
// window passes without further matching changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

// Enqueuer accepts task names.
type Enqueuer interface {
	Enqueue(names ...string)
}

// Rule is a compiled watch rule.
type Rule struct {
	Name     string
	Tasks    []string
	patterns []structure.Pattern
	globs    []string
}

// Match reports whether file belongs to the rule.
func (r Rule) Match(root, file string) bool {
	for _, p := range r.patterns {
		if p.Match(file) {
			return true
		}
	}
	if len(r.globs) == 0 {
		return false
	}
	rel, ok := structure.Rel(root, file)
	if !ok {
		return false
	}
	for _, g := range r.globs {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
	}
	return false
}

// Compile resolves rule sources against reg and checks task names with planner.
func Compile(cfg config.WatchConfig, reg *structure.Registry, planner Planner) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfg.Rules))
	for _, wr := range cfg.Rules {
		r := Rule{Name: wr.Name, Tasks: append([]string(nil), wr.Tasks...)}
		for _, src := range wr.Sources {
			p, ok := reg.LookupWatched(src)
			if !ok {
				return nil, errors.ValidationError(fmt.Sprintf("watch rule %q: unknown source %q", wr.Name, src)).Build()
			}
			r.patterns = append(r.patterns, p)
		}
		for _, g := range wr.Globs {
			if !doublestar.ValidatePattern(g) {
				return nil, errors.ValidationError(fmt.Sprintf("watch rule %q: invalid glob %q", wr.Name, g)).Build()
			}
			r.globs = append(r.globs, g)
		}
		if len(r.Tasks) == 0 {
			return nil, errors.ValidationError(fmt.Sprintf("watch rule %q has no tasks", wr.Name)).Build()
		}
		if _, err := planner.Plan(r.Tasks...); err != nil {
			return nil, errors.ValidationError(fmt.Sprintf("watch rule %q", wr.Name)).WithCause(err).Build()
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Watcher debounces file events per rule and feeds an Enqueuer.
type Watcher struct {
	rules    []Rule
	root     string
	dirs     []string
	build    string
	debounce time.Duration
	out      Enqueuer
	logger   *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a watcher over the source folders of reg.
func New(rules []Rule, reg *structure.Registry, debounce time.Duration, out Enqueuer, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		rules:    rules,
		root:     reg.ProjectRoot(),
		dirs:     reg.SourceRoots(),
		build:    reg.BuildDir(),
		debounce: debounce,
		out:      out,
		logger:   logger,
		timers:   make(map[string]*time.Timer),
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.RuntimeError("create file watcher").WithCause(err).Build()
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range w.dirs {
		if _, err := os.Stat(dir); err != nil {
			w.logger.Debug("Skipping missing source folder", logfields.Path(dir))
			continue
		}
		w.addRecursive(fsw, dir)
	}
	w.logger.Info("Watching for changes", logfields.Count(len(w.rules)), slog.Any("dirs", w.dirs))
	defer w.stopTimers()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handle(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ignored(ev.Name) || structure.Contains(w.build, ev.Name) {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addRecursive(fsw, ev.Name)
			return
		}
	}
	w.Notify(ev.Name)
}

// Notify feeds one changed file through the rules.
func (w *Watcher) Notify(file string) {
	for _, r := range w.rules {
		if r.Match(w.root, file) {
			w.logger.Debug("Change matched watch rule", logfields.File(file), logfields.Rule(r.Name))
			w.arm(r)
		}
	}
}

func (w *Watcher) arm(r Rule) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[r.Name]; ok {
		t.Stop()
	}
	w.timers[r.Name] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, r.Name)
		w.mu.Unlock()
		w.out.Enqueue(r.Tasks...)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for name, t := range w.timers {
		t.Stop()
		delete(w.timers, name)
	}
}

func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if structure.Contains(w.build, path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// ignored reports editor temp files, hidden files and OS droppings.
func ignored(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
