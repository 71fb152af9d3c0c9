package scripts

import (
	"encoding/json"
	"strings"
)

// concatMap records, line by line, which source file each line of a
// concatenated script came from. esbuild reads it as an input map so the
// minified bundle maps back to the individual files.
type concatMap struct {
	sources  []string
	contents []string
	mappings strings.Builder
	lines    int

	prevSource int
	prevLine   int
}

// add records a file whose text occupies the next lines of the output.
func (m *concatMap) add(name string, text []byte) {
	idx := len(m.sources)
	m.sources = append(m.sources, name)
	m.contents = append(m.contents, string(text))

	n := strings.Count(string(text), "\n")
	if len(text) > 0 && text[len(text)-1] != '\n' {
		n++
	}
	for line := 0; line < n; line++ {
		m.newline()
		// generated column 0, source index, source line, source column 0
		m.mappings.WriteString(vlq(0))
		m.mappings.WriteString(vlq(idx - m.prevSource))
		m.mappings.WriteString(vlq(line - m.prevLine))
		m.mappings.WriteString(vlq(0))
		m.prevSource, m.prevLine = idx, line
	}
}

// skip records an output line that belongs to no file.
func (m *concatMap) skip() { m.newline() }

func (m *concatMap) newline() {
	if m.lines > 0 {
		m.mappings.WriteByte(';')
	}
	m.lines++
}

func (m *concatMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Version        int      `json:"version"`
		Sources        []string `json:"sources"`
		SourcesContent []string `json:"sourcesContent"`
		Names          []string `json:"names"`
		Mappings       string   `json:"mappings"`
	}{3, m.sources, m.contents, []string{}, m.mappings.String()})
}

const vlqChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// vlq encodes v as a base64 variable-length quantity.
func vlq(v int) string {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	var b strings.Builder
	for {
		digit := u & 31
		u >>= 5
		if u > 0 {
			digit |= 32
		}
		b.WriteByte(vlqChars[digit])
		if u == 0 {
			return b.String()
		}
	}
}
