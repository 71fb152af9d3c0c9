package lint

import (
	"context"
	"fmt"
	"os"
	"sort"

	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

type activeRule struct {
	rule     Rule
	severity Severity
}

// Linter applies the enabled rules to JavaScript files.
type Linter struct {
	rules []activeRule
}

// New builds a linter from rule severities (0 off, 1 warn, 2 error).
func New(severities map[string]int) (*Linter, error) {
	names := make([]string, 0, len(severities))
	for name := range severities {
		names = append(names, name)
	}
	sort.Strings(names)

	l := &Linter{}
	for _, name := range names {
		rule, ok := builtinRules[name]
		if !ok {
			return nil, errors.ValidationError(fmt.Sprintf("unknown lint rule %q", name)).
				WithContext("available", RuleNames()).
				Build()
		}
		sev := Severity(severities[name])
		if sev < SeverityOff || sev > SeverityError {
			return nil, errors.ValidationError(fmt.Sprintf("lint rule %q: severity must be 0, 1 or 2", name)).Build()
		}
		if sev == SeverityOff {
			continue
		}
		l.rules = append(l.rules, activeRule{rule: rule, severity: sev})
	}
	return l, nil
}

// Source lints one file's contents. Lexer failures become a single error issue.
func (l *Linter) Source(path string, src []byte) []Issue {
	toks, err := tokenize(src)
	if err != nil {
		return []Issue{{
			FilePath: path,
			Severity: SeverityError,
			Rule:     "parse",
			Message:  "Parsing error: " + err.Error(),
			Line:     lastLine(toks),
		}}
	}

	var issues []Issue
	for _, ar := range l.rules {
		for _, f := range ar.rule.Check(toks) {
			issues = append(issues, Issue{
				FilePath: path,
				Severity: ar.severity,
				Rule:     ar.rule.Name(),
				Message:  f.message,
				Line:     f.line,
				Column:   f.col,
			})
		}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Line != issues[j].Line {
			return issues[i].Line < issues[j].Line
		}
		return issues[i].Column < issues[j].Column
	})
	return issues
}

// Lint checks every asset. All files are checked before the result is returned.
func (l *Linter) Lint(ctx context.Context, assets []fileset.Asset) (*Result, error) {
	res := &Result{}
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		src, err := os.ReadFile(a.Path)
		if err != nil {
			return res, errors.FileSystemError("read script").WithCause(err).WithContext("path", a.Path).Build()
		}
		res.FilesTotal++
		res.Issues = append(res.Issues, l.Source(a.Path, src)...)
	}
	return res, nil
}

func lastLine(toks []token) int {
	if len(toks) == 0 {
		return 1
	}
	return toks[len(toks)-1].line
}
