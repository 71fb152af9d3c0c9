package lint

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Formatter formats linting results for output.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

var (
	underline = lipgloss.NewStyle().Underline(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C26B"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77"))
)

// StylishFormatter groups issues per file in the familiar eslint layout.
type StylishFormatter struct {
	color bool
}

// NewStylishFormatter creates a stylish formatter.
func NewStylishFormatter(useColor bool) *StylishFormatter {
	return &StylishFormatter{color: useColor}
}

func (f *StylishFormatter) paint(s lipgloss.Style, text string) string {
	if !f.color {
		return text
	}
	return s.Render(text)
}

// Format writes one block per file followed by a problem summary.
func (f *StylishFormatter) Format(w io.Writer, result *Result) error {
	if len(result.Issues) == 0 {
		_, err := fmt.Fprintln(w, f.paint(okStyle, fmt.Sprintf("✔ %d file(s) checked, no problems", result.FilesTotal)))
		return err
	}

	byFile := make(map[string][]Issue)
	for _, issue := range result.Issues {
		byFile[issue.FilePath] = append(byFile[issue.FilePath], issue)
	}
	for _, path := range result.files() {
		if _, err := fmt.Fprintf(w, "\n%s\n", f.paint(underline, path)); err != nil {
			return err
		}
		for _, issue := range byFile[path] {
			sevStyle := warnStyle
			if issue.Severity == SeverityError {
				sevStyle = errStyle
			}
			pos := fmt.Sprintf("%d:%d", issue.Line, issue.Column)
			if _, err := fmt.Fprintf(w, "  %s  %s  %s  %s\n",
				f.paint(dimStyle, fmt.Sprintf("%-7s", pos)),
				f.paint(sevStyle, fmt.Sprintf("%-7s", issue.Severity)),
				issue.Message,
				f.paint(dimStyle, issue.Rule)); err != nil {
				return err
			}
		}
	}

	errs, warns := result.ErrorCount(), result.WarningCount()
	summary := fmt.Sprintf("\n✖ %d problem%s (%d error%s, %d warning%s)",
		errs+warns, pluralize(errs+warns), errs, pluralize(errs), warns, pluralize(warns))
	style := warnStyle
	if errs > 0 {
		style = errStyle
	}
	_, err := fmt.Fprintln(w, f.paint(style, summary))
	return err
}

// JSONFormatter formats results as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	FilesTotal   int     `json:"files_total"`
	ErrorCount   int     `json:"error_count"`
	WarningCount int     `json:"warning_count"`
	Issues       []Issue `json:"issues"`
}

// Format outputs results as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, result *Result) error {
	out := JSONOutput{
		FilesTotal:   result.FilesTotal,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		Issues:       result.Issues,
	}
	if out.Issues == nil {
		out.Issues = []Issue{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
