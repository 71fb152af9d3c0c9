// Package frontmatter separates YAML front matter from template and post bodies.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// ErrUnterminated is returned when a document opens a front matter block but never closes it.
var ErrUnterminated = errors.New("front matter is not terminated by ---")

// Document is a source file split into its front-matter data and body.
type Document struct {
	Data map[string]any
	Body []byte
	// Had reports whether the source carried a front matter block.
	Had bool
}

// Parse splits content and decodes the front matter. Documents without
// front matter yield empty Data and the full content as Body.
func Parse(content []byte) (Document, error) {
	raw, body, had, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	data := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return Document{}, fmt.Errorf("front matter: %w", err)
		}
		if data == nil {
			data = map[string]any{}
		}
	}
	return Document{Data: data, Body: body, Had: had}, nil
}

// Split returns the raw YAML between the delimiters and the remaining body.
// A leading UTF-8 BOM is dropped; LF and CRLF line endings are accepted.
func Split(content []byte) (raw, body []byte, had bool, err error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	nl := "\n"
	if bytes.HasPrefix(content, []byte(delimiter+"\r\n")) {
		nl = "\r\n"
	}
	open := []byte(delimiter + nl)
	if !bytes.HasPrefix(content, open) {
		return nil, content, false, nil
	}
	rest := content[len(open):]
	if bytes.HasPrefix(rest, open) {
		return nil, rest[len(open):], true, nil
	}

	closing := []byte(nl + delimiter + nl)
	if idx := bytes.Index(rest, closing); idx >= 0 {
		return rest[:idx+len(nl)], rest[idx+len(closing):], true, nil
	}
	if bytes.HasSuffix(rest, []byte(nl+delimiter)) {
		return rest[:len(rest)-len(delimiter)], nil, true, nil
	}
	return nil, nil, false, ErrUnterminated
}
