// Package lint checks JavaScript sources against a small set of style rules.
package lint

import (
	"fmt"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// Severity indicates the importance level of a linting issue.
type Severity int

const (
	// SeverityOff disables a rule.
	SeverityOff Severity = iota
	// SeverityWarning reports issues that do not fail the run.
	SeverityWarning
	// SeverityError reports issues that fail the run.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "off"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Issue represents a single linting problem found in a file.
type Issue struct {
	FilePath string   `json:"file"`
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
}

// Result contains all issues found during linting.
type Result struct {
	Issues     []Issue
	FilesTotal int
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int { return r.count(SeverityError) }

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int { return r.count(SeverityWarning) }

func (r *Result) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// Err returns a lint error when at least one error-level issue exists.
func (r *Result) Err() error {
	n := r.ErrorCount()
	if n == 0 {
		return nil
	}
	return errors.LintError(fmt.Sprintf("%d lint error(s) in %d file(s)", n, len(r.files()))).
		WithContext("errors", n).
		WithContext("warnings", r.WarningCount()).
		Build()
}

// files returns the paths that carry issues, in first-seen order.
func (r *Result) files() []string {
	seen := make(map[string]bool)
	var out []string
	for _, issue := range r.Issues {
		if !seen[issue.FilePath] {
			seen[issue.FilePath] = true
			out = append(out, issue.FilePath)
		}
	}
	return out
}

// Rule inspects the token stream of one file.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check returns the positions and messages of violations.
	Check(toks []token) []finding
}

type finding struct {
	line, col int
	message   string
}
