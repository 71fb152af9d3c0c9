package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		raw     string
		body    string
		had     bool
		wantErr error
	}{
		{"plain template", "<p>hi</p>\n", "", "<p>hi</p>\n", false, nil},
		{"yaml block", "---\ntitle: Home\n---\n<h1>x</h1>\n", "title: Home\n", "<h1>x</h1>\n", true, nil},
		{"crlf", "---\r\ntitle: Home\r\n---\r\nbody\r\n", "title: Home\r\n", "body\r\n", true, nil},
		{"empty block", "---\n---\nbody\n", "", "body\n", true, nil},
		{"bom and closing at eof", "\xef\xbb\xbf---\ntitle: Home\n---", "title: Home\n", "", true, nil},
		{"horizontal rule later in body", "# Post\n\n---\n", "", "# Post\n\n---\n", false, nil},
		{"unterminated", "---\ntitle: Home\n<p>x</p>\n", "", "", false, ErrUnterminated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, body, had, err := Split([]byte(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.had, had)
			assert.Equal(t, tt.raw, string(raw))
			assert.Equal(t, tt.body, string(body))
		})
	}
}

func TestParseExposesDataAndBody(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: Home\ntags: [a, b]\n---\n{% block content %}hi{% endblock %}\n"))
	require.NoError(t, err)
	assert.True(t, doc.Had)
	assert.Equal(t, "Home", doc.Data["title"])
	assert.Equal(t, []any{"a", "b"}, doc.Data["tags"])
	assert.Equal(t, "{% block content %}hi{% endblock %}\n", string(doc.Body))

	plain, err := Parse([]byte("<p>no front matter</p>"))
	require.NoError(t, err)
	assert.False(t, plain.Had)
	assert.Empty(t, plain.Data)
	assert.Equal(t, "<p>no front matter</p>", string(plain.Body))
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: [unclosed\n---\nbody\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "front matter")
}
