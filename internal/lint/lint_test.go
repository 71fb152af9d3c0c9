package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

func rulesOf(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Rule
	}
	return out
}

func TestCamelcase(t *testing.T) {
	l, err := New(map[string]int{"camelcase": 2})
	require.NoError(t, err)

	src := []byte("var my_var = 1;\nvar MAX_SIZE = 2;\nvar _private = 3;\nvar okName = obj.some_prop;\n")
	issues := l.Source("a.js", src)
	require.Len(t, issues, 1)
	assert.Equal(t, "camelcase", issues[0].Rule)
	assert.Equal(t, 1, issues[0].Line)
	assert.Equal(t, 5, issues[0].Column)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "my_var")
}

func TestCommaDangle(t *testing.T) {
	l, err := New(map[string]int{"comma-dangle": 1})
	require.NoError(t, err)

	src := []byte("var a = {\n  x: 1,\n};\nvar b = [1, 2,];\nvar c = [1, 2];\n")
	issues := l.Source("b.js", src)
	require.Len(t, issues, 2)
	assert.Equal(t, 2, issues[0].Line)
	assert.Equal(t, 4, issues[1].Line)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
}

func TestQuotes(t *testing.T) {
	l, err := New(map[string]int{"quotes": 2})
	require.NoError(t, err)

	src := []byte("var a = 'single';\nvar b = \"double\";\nvar c = 'has \"quote\"';\n")
	issues := l.Source("c.js", src)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Line)
}

func TestOffRulesAreSkipped(t *testing.T) {
	l, err := New(map[string]int{"quotes": 0, "camelcase": 1})
	require.NoError(t, err)
	assert.Empty(t, l.Source("d.js", []byte("var a = 'x';")))
}

func TestRegexpIsNotDivision(t *testing.T) {
	l, err := New(map[string]int{"comma-dangle": 2, "camelcase": 2})
	require.NoError(t, err)

	src := []byte("var re = /a,]/g;\nvar half = total / 2;\n")
	assert.Empty(t, l.Source("e.js", src))
}

func TestUnknownRule(t *testing.T) {
	_, err := New(map[string]int{"no-undef": 2})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))

	_, err = New(map[string]int{"quotes": 3})
	require.Error(t, err)
}

func TestLintChecksAllFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) fileset.Asset {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return fileset.Asset{Path: p, Rel: name}
	}
	assets := []fileset.Asset{
		write("a.js", "var bad_name = [1,];\n"),
		write("b.js", "var fine = 1;\n"),
		write("c.js", "var other_bad = 2;\n"),
	}

	l, err := New(map[string]int{"camelcase": 1, "comma-dangle": 2, "quotes": 0})
	require.NoError(t, err)
	res, err := l.Lint(context.Background(), assets)
	require.NoError(t, err)

	assert.Equal(t, 3, res.FilesTotal)
	assert.Equal(t, []string{"camelcase", "comma-dangle", "camelcase"}, rulesOf(res.Issues))
	assert.Equal(t, 1, res.ErrorCount())
	assert.Equal(t, 2, res.WarningCount())

	lintErr := res.Err()
	require.Error(t, lintErr)
	assert.Equal(t, 9, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(lintErr))

	var buf bytes.Buffer
	require.NoError(t, NewStylishFormatter(false).Format(&buf, res))
	out := buf.String()
	assert.Contains(t, out, assets[0].Path)
	assert.Contains(t, out, "comma-dangle")
	assert.Contains(t, out, "✖ 3 problems (1 error, 2 warnings)")
	assert.NotContains(t, out, assets[1].Path)
}

func TestWarningsOnlyPass(t *testing.T) {
	res := &Result{FilesTotal: 1, Issues: []Issue{{FilePath: "a.js", Severity: SeverityWarning, Rule: "camelcase"}}}
	assert.NoError(t, res.Err())
}

func TestJSONFormatter(t *testing.T) {
	res := &Result{FilesTotal: 2}
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, res))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 2, out.FilesTotal)
	assert.NotNil(t, out.Issues)
}
