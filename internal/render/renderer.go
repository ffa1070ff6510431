// Package render converts markdown documents into sanitized HTML fragments.
//
// The pipeline is: placeholder expansion, frontmatter stripping, goldmark
// conversion with chroma highlighting, DOM post-processing (copy buttons and
// heading anchors) and finally a bluemonday allow-list pass. The sanitizer
// runs last so nothing injected by the earlier steps escapes it.
package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/markdownium/internal/frontmatter"
)

const (
	// GapToken is replaced by GapReplacement before parsing; authors use it
	// to force horizontal space where markdown would collapse it.
	GapToken       = "%GAP%"
	GapReplacement = "&nbsp;&nbsp;&nbsp;"

	// DefaultHighlightStyle is the chroma style used for generated CSS.
	DefaultHighlightStyle = "github"
)

// Renderer converts markdown to sanitized HTML. It is safe for concurrent use.
type Renderer struct {
	md      goldmark.Markdown
	policy  *bluemonday.Policy
	style   string
	baseURL string
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHighlightStyle selects the chroma style reported by HighlightCSS.
func WithHighlightStyle(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.style = name
		}
	}
}

// WithBaseURL makes relative image sources relative to the content base
// URL, so images stored next to the markdown files resolve.
func WithBaseURL(base string) Option {
	return func(r *Renderer) { r.baseURL = base }
}

// WithPolicy replaces the default sanitization policy.
func WithPolicy(p *bluemonday.Policy) Option {
	return func(r *Renderer) {
		if p != nil {
			r.policy = p
		}
	}
}

// New creates a Renderer with GitHub-flavoured markdown, hard line breaks and
// class-based syntax highlighting.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		policy: NewPolicy(),
		style:  DefaultHighlightStyle,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(r.style),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			// Raw HTML reaches the sanitizer, which decides what survives.
			html.WithUnsafe(),
		),
	)
	return r
}

// Render converts markdown into a sanitized HTML fragment.
func (r *Renderer) Render(markdown string) (string, error) {
	markdown = strings.ReplaceAll(markdown, GapToken, GapReplacement)
	if _, body, ok := frontmatter.Split(markdown); ok {
		markdown = body
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	processed, err := postProcess(buf.String(), r.baseURL)
	if err != nil {
		return "", fmt.Errorf("post-processing html: %w", err)
	}

	return r.policy.Sanitize(processed), nil
}

// Sanitize applies the renderer's policy to markup that does not come from
// Render, such as the configured license badge.
func (r *Renderer) Sanitize(markup string) string {
	return r.policy.Sanitize(markup)
}

// HighlightCSS writes the stylesheet matching the classes emitted for
// highlighted code blocks.
func (r *Renderer) HighlightCSS(w io.Writer) error {
	style := styles.Get(r.style)
	if style == nil {
		style = styles.Fallback
	}
	return chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(w, style)
}
