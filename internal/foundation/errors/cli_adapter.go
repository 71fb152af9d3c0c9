package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Exit codes returned by the CLI.
const (
	ExitOK       = 0
	ExitGeneral  = 1
	ExitUsage    = 2
	ExitConfig   = 7
	ExitExternal = 8
	ExitLint     = 9
	ExitInternal = 10
	ExitBuild    = 11
	ExitRuntime  = 12
)

// maxListedFiles bounds the per-file lines printed for one task outside verbose mode.
const maxListedFiles = 5

// CLIErrorAdapter turns run errors into terminal output and exit codes.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger}
}

// ExitCodeFor maps err to a process exit code. The first classified error in
// the chain decides; task failures count by their category.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	if tf, ok := AsTaskFailure(err); ok {
		return exitCode(tf.Category)
	}
	if classified, ok := AsClassified(err); ok {
		return exitCode(classified.Category())
	}
	return ExitGeneral
}

func exitCode(category ErrorCategory) int {
	switch category {
	case CategoryValidation, CategoryNotFound:
		return ExitUsage
	case CategoryConfig:
		return ExitConfig
	case CategoryNetwork, CategoryGit, CategoryDeploy:
		return ExitExternal
	case CategoryLint:
		return ExitLint
	case CategoryRender, CategoryStyle, CategoryScript, CategoryImage, CategoryFileSystem:
		return ExitBuild
	case CategoryRuntime:
		return ExitRuntime
	case CategoryInternal:
		return ExitInternal
	default:
		return ExitGeneral
	}
}

// FormatError renders err for the terminal. Joined errors are printed one
// per line; task failures list the offending files.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	var lines []string
	for _, e := range flatten(err) {
		lines = append(lines, a.formatOne(e))
	}
	return strings.Join(lines, "\n")
}

// flatten splits a top-level errors.Join into its members.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if _, isTask := err.(*TaskFailure); !isTask {
			return joined.Unwrap()
		}
	}
	return []error{err}
}

func (a *CLIErrorAdapter) formatOne(err error) string {
	if tf, ok := AsTaskFailure(err); ok {
		return a.formatTaskFailure(tf)
	}
	if classified, ok := AsClassified(err); ok {
		return a.formatClassified(classified)
	}
	return fmt.Sprintf("Error: %v", err)
}

func (a *CLIErrorAdapter) formatTaskFailure(tf *TaskFailure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: task %s failed on %d file(s)", tf.Task, len(tf.Files))
	for i, f := range tf.Files {
		if !a.verbose && i == maxListedFiles {
			fmt.Fprintf(&b, "\n  ... %d more (use -v to list all)", len(tf.Files)-maxListedFiles)
			break
		}
		fmt.Fprintf(&b, "\n  %s: %v", f.Path, f.Err)
	}
	return b.String()
}

func (a *CLIErrorAdapter) formatClassified(err *ClassifiedError) string {
	if a.verbose {
		return err.Error()
	}
	if err.Category() == CategoryInternal {
		return "Internal error occurred (use -v for details)"
	}
	if err.Cause() != nil {
		return fmt.Sprintf("Error: %s: %v", err.Message(), err.Cause())
	}
	return "Error: " + err.Message()
}

// Report logs err, writes the formatted message to w and returns the exit code.
func (a *CLIErrorAdapter) Report(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(w, a.FormatError(err))
	return a.ExitCodeFor(err)
}

// HandleError reports err on stderr and exits the process.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	os.Exit(a.Report(os.Stderr, err))
}

// shouldLog skips task failures and non-fatal classified errors outside
// verbose mode; the reporter has already shown those.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if _, ok := AsTaskFailure(err); ok {
		return false
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	var classified *ClassifiedError
	if !errors.As(err, &classified) {
		a.logger.Error("Unclassified error", "error", err)
		return
	}
	attrs := []slog.Attr{slog.String("category", string(classified.Category()))}
	if classified.CanRetry() {
		attrs = append(attrs, slog.Bool("retryable", true))
	}
	a.logger.LogAttrs(context.Background(), levelFor(classified.Severity()), classified.Message(), attrs...)
}

func levelFor(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
