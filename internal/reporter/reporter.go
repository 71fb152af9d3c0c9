// Package reporter is the shared per-file error handler used by every task.
package reporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5B8DEF"))
	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#7BD88F"))
)

// Options configures a Reporter.
type Options struct {
	Out      io.Writer
	Beep     bool
	Color    bool
	Recorder metrics.Recorder
	Logger   *slog.Logger
}

// Reporter records per-file failures, prints them and keeps counts per task.
// It is safe for concurrent use by tasks running in parallel.
type Reporter struct {
	mu       sync.Mutex
	out      io.Writer
	beep     bool
	color    bool
	recorder metrics.Recorder
	logger   *slog.Logger
	counts   map[string]int
}

// New creates a reporter. Zero options write plain text to stderr.
func New(opts Options) *Reporter {
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Reporter{
		out:      opts.Out,
		beep:     opts.Beep,
		color:    opts.Color,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		counts:   make(map[string]int),
	}
}

// Report records a failure of task on path. Nil errors are ignored.
func (r *Reporter) Report(task, path string, err error) {
	if err == nil {
		return
	}
	r.logger.Error("Task failed on file", logfields.Task(task), logfields.File(path), logfields.Error(err),
		"category", string(errors.GetCategory(err)))
	r.recorder.IncFileError(task)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[task]++
	fmt.Fprintln(r.out, r.banner(task, path, err))
	if r.beep {
		fmt.Fprint(r.out, "\a")
	}
}

// Warn prints a non-fatal notice for task.
func (r *Reporter) Warn(task, msg string) {
	r.logger.Warn(msg, logfields.Task(task))
}

// Count returns the number of failures recorded for task.
func (r *Reporter) Count(task string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[task]
}

// Total returns the number of failures recorded for all tasks.
func (r *Reporter) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.counts {
		n += c
	}
	return n
}

// Reset clears the counters (between watch batches).
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = make(map[string]int)
}

// Summary prints one line per failing task, or a success line.
func (r *Reporter) Summary() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.counts) == 0 {
		fmt.Fprintln(r.out, r.style(okStyle, "✓ build finished without errors"))
		return
	}
	tasks := make([]string, 0, len(r.counts))
	for t := range r.counts {
		tasks = append(tasks, t)
	}
	sort.Strings(tasks)
	for _, t := range tasks {
		fmt.Fprintln(r.out, r.style(titleStyle, fmt.Sprintf("✗ %s: %d file(s) failed", t, r.counts[t])))
	}
}

func (r *Reporter) banner(task, path string, err error) string {
	if !r.color {
		return fmt.Sprintf("[%s] %s\n  %v", task, path, err)
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("✗ "+task),
		pathStyle.Render(path),
		bodyStyle.Render(err.Error()),
	)
	return boxStyle.Render(content)
}

func (r *Reporter) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}
