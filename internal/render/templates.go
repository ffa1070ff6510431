package render

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ziadkadry99/markdownium/internal/frontmatter"
)

// Post is a full article: its body is rendered through the normal pipeline.
type Post struct {
	Title   string
	Date    time.Time
	Content string // markdown
	Tags    []string
}

// Excerpt is a teaser linking to a post.
type Excerpt struct {
	Title   string
	Date    time.Time
	Summary string // markdown
	Slug    string
}

const postTemplate = `<article class="post">
<header>
<h1 class="post-title">{{.Title}}</h1>
{{- if not .Date.IsZero}}
<time class="post-date" datetime="{{isoDate .Date}}" title="{{relative .Date}}">{{longDate .Date}}</time>
{{- end}}
</header>
<div class="post-content">{{.Body}}</div>
{{- if .Tags}}
<footer class="post-tags">{{range .Tags}}<a class="tag" href="#/tags/{{.}}">#{{.}}</a> {{end}}</footer>
{{- end}}
</article>`

const excerptTemplate = `<article class="excerpt">
<h2 class="excerpt-title"><a href="#/{{.Slug}}">{{.Title}}</a></h2>
{{- if not .Date.IsZero}}
<time class="excerpt-date" datetime="{{isoDate .Date}}" title="{{relative .Date}}">{{longDate .Date}}</time>
{{- end}}
<div class="excerpt-summary">{{.Body}}</div>
<a class="read-more" href="#/{{.Slug}}">Read more</a>
</article>`

var templateFuncs = template.FuncMap{
	"isoDate":  func(t time.Time) string { return t.Format("2006-01-02") },
	"longDate": func(t time.Time) string { return t.Format("January 2, 2006") },
	"relative": humanize.Time,
}

var (
	postTmpl    = template.Must(template.New("post").Funcs(templateFuncs).Parse(postTemplate))
	excerptTmpl = template.Must(template.New("excerpt").Funcs(templateFuncs).Parse(excerptTemplate))
)

// RenderPost renders a post as article markup with tag links.
func (r *Renderer) RenderPost(p Post) (string, error) {
	body, err := r.Render(p.Content)
	if err != nil {
		return "", err
	}
	data := struct {
		Post
		Body template.HTML
	}{Post: p, Body: template.HTML(body)}

	var buf bytes.Buffer
	if err := postTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing post template: %w", err)
	}
	return buf.String(), nil
}

// RenderExcerpt renders a summary card with a "Read more" link to the post.
func (r *Renderer) RenderExcerpt(e Excerpt) (string, error) {
	body, err := r.Render(e.Summary)
	if err != nil {
		return "", err
	}
	data := struct {
		Excerpt
		Body template.HTML
	}{Excerpt: e, Body: template.HTML(body)}

	var buf bytes.Buffer
	if err := excerptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing excerpt template: %w", err)
	}
	return buf.String(), nil
}

// PostFromDocument builds a Post from a document carrying TOML frontmatter.
func PostFromDocument(doc string) (Post, error) {
	m, body, err := frontmatter.Extract(doc)
	if err != nil {
		return Post{}, err
	}
	return Post{
		Title:   m.Title,
		Date:    m.Date,
		Content: body,
		Tags:    m.Tags,
	}, nil
}

// ExcerptFromDocument builds an Excerpt from a document's frontmatter. The
// slug falls back to fallbackSlug, usually the page name.
func ExcerptFromDocument(doc, fallbackSlug string) (Excerpt, error) {
	m, _, err := frontmatter.Extract(doc)
	if err != nil {
		return Excerpt{}, err
	}
	slug := m.Slug
	if slug == "" {
		slug = fallbackSlug
	}
	return Excerpt{
		Title:   m.Title,
		Date:    m.Date,
		Summary: m.Summary,
		Slug:    slug,
	}, nil
}
