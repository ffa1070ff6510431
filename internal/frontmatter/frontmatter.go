// Package frontmatter splits and decodes the "+++" delimited TOML block that
// may prefix a content file.
package frontmatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Delimiter opens and closes a frontmatter block.
const Delimiter = "+++"

// Matter is the metadata a content file may declare.
type Matter struct {
	Title   string    `toml:"title"`
	Date    time.Time `toml:"date"`
	Tags    []string  `toml:"tags"`
	Summary string    `toml:"summary"`
	Slug    string    `toml:"slug"`
	Draft   bool      `toml:"draft"`
}

// Split separates a leading frontmatter block from the document body.
// The document must start with a "+++" line and contain a later "+++" line;
// otherwise ok is false and body is the unchanged document.
func Split(doc string) (block, body string, ok bool) {
	first, rest, found := cutLine(doc)
	if !found || strings.TrimRight(first, "\r") != Delimiter {
		return "", doc, false
	}

	var lines []string
	for {
		line, next, more := cutLine(rest)
		if strings.TrimRight(line, "\r") == Delimiter {
			return strings.Join(lines, "\n"), next, true
		}
		if !more {
			return "", doc, false
		}
		lines = append(lines, line)
		rest = next
	}
}

// cutLine returns the first line of s and the remainder after its newline.
// found reports whether a newline terminated the line.
func cutLine(s string) (line, rest string, found bool) {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i], s[i+1:], true
	}
	return s, "", false
}

// Parse decodes a frontmatter block as TOML.
func Parse(block string) (Matter, error) {
	var m Matter
	if strings.TrimSpace(block) == "" {
		return m, nil
	}
	if err := toml.Unmarshal([]byte(block), &m); err != nil {
		return Matter{}, fmt.Errorf("decoding frontmatter: %w", err)
	}
	return m, nil
}

// Extract splits doc and decodes its frontmatter. Documents without a block
// yield a zero Matter and the unchanged body.
func Extract(doc string) (Matter, string, error) {
	block, body, ok := Split(doc)
	if !ok {
		return Matter{}, doc, nil
	}
	m, err := Parse(block)
	if err != nil {
		return Matter{}, body, err
	}
	return m, body, nil
}
