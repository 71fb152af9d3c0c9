package watch

import (
	"context"
	stdErrors "errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
	"git.home.luguber.info/inful/pagesmith/internal/tasks"
)

type recordingQueue struct {
	mu    sync.Mutex
	calls [][]string
}

func (q *recordingQueue) Enqueue(names ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, names)
}

func (q *recordingQueue) snapshot() [][]string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([][]string(nil), q.calls...)
}

func project(t *testing.T) (*config.Config, *structure.Registry) {
	t.Helper()
	cfg := config.Default()
	cfg.Structure.Root = t.TempDir()
	return cfg, structure.New(cfg.Structure)
}

func registry(t *testing.T) *tasks.Registry {
	t.Helper()
	r, err := tasks.NewDefaultRegistry()
	require.NoError(t, err)
	return r
}

func TestCompileDefaultRules(t *testing.T) {
	cfg, reg := project(t)
	rules, err := Compile(cfg.Watch, reg, registry(t))
	require.NoError(t, err)
	require.Len(t, rules, len(cfg.Watch.Rules))

	root := cfg.Structure.Root
	byName := make(map[string]Rule)
	for _, r := range rules {
		byName[r.Name] = r
	}
	assert.True(t, byName["scss"].Match(root, filepath.Join(root, "assets", "css", "scss", "app.scss")))
	assert.True(t, byName["scss"].Match(root, filepath.Join(root, "assets", "css", "scss", "_vars.scss")))
	assert.True(t, byName["layouts"].Match(root, filepath.Join(root, "_pages", "_layout.html")))
	assert.False(t, byName["pages"].Match(root, filepath.Join(root, "_pages", "_layout.html")))
	assert.True(t, byName["pages"].Match(root, filepath.Join(root, "_pages", "about.html")))
	assert.False(t, byName["js"].Match(root, filepath.Join(root, "_pages", "about.html")))
}

func TestCompileRejectsBadRules(t *testing.T) {
	_, reg := project(t)
	planner := registry(t)
	cases := map[string]config.WatchRule{
		"unknown source": {Name: "x", Sources: []string{"nope"}, Tasks: []string{"pages"}},
		"unknown task":   {Name: "x", Sources: []string{"pages"}, Tasks: []string{"nope"}},
		"no tasks":       {Name: "x", Sources: []string{"pages"}},
		"bad glob":       {Name: "x", Globs: []string{"[abc"}, Tasks: []string{"pages"}},
	}
	for name, rule := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Compile(config.WatchConfig{Rules: []config.WatchRule{rule}}, reg, planner)
			assert.Error(t, err)
		})
	}
}

func TestGlobRule(t *testing.T) {
	cfg, reg := project(t)
	rules, err := Compile(config.WatchConfig{Rules: []config.WatchRule{
		{Name: "data", Globs: []string{"data/**/*.yaml"}, Tasks: []string{"pages"}},
	}}, reg, registry(t))
	require.NoError(t, err)
	root := cfg.Structure.Root
	assert.True(t, rules[0].Match(root, filepath.Join(root, "data", "nav", "main.yaml")))
	assert.False(t, rules[0].Match(root, filepath.Join(root, "data", "main.json")))
}

func TestNotifyDebouncesPerRule(t *testing.T) {
	cfg, reg := project(t)
	rules, err := Compile(cfg.Watch, reg, registry(t))
	require.NoError(t, err)
	q := &recordingQueue{}
	w := New(rules, reg, 50*time.Millisecond, q, nil)

	root := cfg.Structure.Root
	for range 5 {
		w.Notify(filepath.Join(root, "assets", "js", "app.js"))
	}
	w.Notify(filepath.Join(root, "_pages", "_layout.html"))

	require.Eventually(t, func() bool { return len(q.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.ElementsMatch(t, [][]string{{"js"}, {"pages", "index"}}, q.snapshot())
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, q.snapshot(), 2)
}

func TestEditingSassPartialRebuildsStyles(t *testing.T) {
	cfg, reg := project(t)
	rules, err := Compile(cfg.Watch, reg, registry(t))
	require.NoError(t, err)
	q := &recordingQueue{}
	w := New(rules, reg, 20*time.Millisecond, q, nil)

	w.Notify(filepath.Join(cfg.Structure.Root, "assets", "css", "scss", "_vars.scss"))

	require.Eventually(t, func() bool { return len(q.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, q.snapshot()[0], "scss")
}

func TestIgnored(t *testing.T) {
	for _, p := range []string{".DS_Store", "a.swp", "b~", "#c#", "dir/.hidden"} {
		assert.True(t, ignored(p), p)
	}
	assert.False(t, ignored("app.scss"))
}

func TestWatcherPicksUpNewFiles(t *testing.T) {
	cfg, reg := project(t)
	jsDir := filepath.Join(cfg.Structure.Root, "assets", "js")
	require.NoError(t, os.MkdirAll(jsDir, 0o750))
	rules, err := Compile(cfg.Watch, reg, registry(t))
	require.NoError(t, err)
	q := &recordingQueue{}
	w := New(rules, reg, 20*time.Millisecond, q, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(jsDir, "app.js"), []byte("var a = 1;\n"), 0o600)
		return len(q.snapshot()) > 0
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, []string{"js"}, q.snapshot()[0])

	cancel()
	require.NoError(t, <-done)
}

type fakeExecutor struct {
	mu      sync.Mutex
	batches [][]string
	running int
	overlap bool
	sum     tasks.Summary
	err     error
}

func (f *fakeExecutor) Run(_ context.Context, plan *tasks.Plan) (tasks.Summary, error) {
	f.mu.Lock()
	f.running++
	if f.running > 1 {
		f.overlap = true
	}
	f.batches = append(f.batches, plan.Names())
	f.mu.Unlock()

	time.Sleep(20 * time.Millisecond)

	f.mu.Lock()
	f.running--
	f.mu.Unlock()
	return f.sum, f.err
}

func (f *fakeExecutor) snapshot() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.batches...)
}

type kinds struct {
	mu  sync.Mutex
	got []string
}

func (k *kinds) Broadcast(kind string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.got = append(k.got, kind)
}

func (k *kinds) snapshot() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]string(nil), k.got...)
}

func TestQueueSerializesAndDeduplicates(t *testing.T) {
	ex := &fakeExecutor{sum: tasks.Summary{Produced: map[tasks.Resource]bool{tasks.ResCSS: true}}}
	notes := &kinds{}
	q := NewQueue(registry(t), ex, QueueOptions{Notifier: notes})

	q.Enqueue("scss", "scss", "pages")
	assert.Equal(t, []string{"scss", "pages"}, q.Pending())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = q.Run(ctx) }()

	require.Eventually(t, func() bool { return len(ex.snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)
	q.Enqueue("js")
	q.Enqueue("js")
	require.Eventually(t, func() bool { return len(ex.snapshot()) == 2 }, 2*time.Second, 5*time.Millisecond)

	batches := ex.snapshot()
	assert.Equal(t, []string{"pages", "scss"}, batches[0])
	assert.Equal(t, []string{"js"}, batches[1])
	assert.False(t, ex.overlap)
	require.Eventually(t, func() bool { return len(notes.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{KindCSS, KindCSS}, notes.snapshot())
}

func TestQueueReloadKindAndHooks(t *testing.T) {
	ex := &fakeExecutor{
		sum: tasks.Summary{Produced: map[tasks.Resource]bool{tasks.ResHTML: true, tasks.ResCSS: true}},
		err: stdErrors.New("partial"),
	}
	notes := &kinds{}
	var mu sync.Mutex
	var before, after int
	q := NewQueue(registry(t), ex, QueueOptions{
		Notifier:    notes,
		BeforeBatch: func() { mu.Lock(); before++; mu.Unlock() },
		AfterBatch:  func(_ tasks.Summary, err error) { mu.Lock(); after++; mu.Unlock(); assert.Error(t, err) },
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = q.Run(ctx) }()

	q.Enqueue("pages")
	require.Eventually(t, func() bool { return len(notes.snapshot()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, KindReload, notes.snapshot()[0])
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, before)
	assert.Equal(t, 1, after)
}
