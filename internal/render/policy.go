package render

import "github.com/microcosm-cc/bluemonday"

// NewPolicy returns the allow-list applied to every rendered fragment: user
// generated prose and code markup, embedded media frames, the copy button,
// and the attributes those features need. Inline event handlers and scripts
// are never allowed.
func NewPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("iframe", "video", "audio", "source", "button")
	p.AllowAttrs("src").OnElements("iframe", "video", "audio", "source")
	p.AllowAttrs("allow", "allowfullscreen", "frameborder", "scrolling", "width", "height", "title", "loading").
		OnElements("iframe")
	p.AllowAttrs("controls", "autoplay", "loop", "muted", "playsinline", "poster", "preload", "width", "height").
		OnElements("video", "audio")
	p.AllowAttrs("type").OnElements("source", "button")
	p.AllowAttrs("tabindex").OnElements("pre")

	// id is already allowed by UGCPolicy's standard attributes.
	p.AllowAttrs("class", "style").Globally()
	p.AllowDataAttributes()

	return p
}
