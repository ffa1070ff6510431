package dom

import (
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestSkeletonRegions(t *testing.T) {
	d := New()
	for _, id := range []string{ContentID, SidebarID, TopLinksID, SiteNameID, SiteLogoID, MainMenuID, SocialsID, LicenseID} {
		assert.Equal(t, 1, d.Count(IDSelector(id)), "missing region %s", id)
	}
}

func TestSetInnerHTML(t *testing.T) {
	d := New()
	require.NoError(t, d.SetInnerHTML(ContentID, `<h1 id="hello">Hello</h1>`))

	got, err := d.InnerHTML(ContentID)
	require.NoError(t, err)
	assert.Equal(t, `<h1 id="hello">Hello</h1>`, got)

	err = d.SetInnerHTML("nope", "x")
	assert.ErrorIs(t, err, ErrNoElement)
}

func TestSetTextEscapes(t *testing.T) {
	d := New()
	require.NoError(t, d.SetText(SiteNameID, "<b>Site</b>"))
	got, err := d.InnerHTML(SiteNameID)
	require.NoError(t, err)
	assert.Equal(t, "&lt;b&gt;Site&lt;/b&gt;", got)
}

func TestHeadAndBodyMutation(t *testing.T) {
	d := New()
	d.AppendHead(`<link rel="stylesheet" href="a.css">`)
	d.AppendHead(`<link rel="stylesheet" href="b.css">`)
	d.AppendBody(`<script type="module" src="x.js"></script>`)

	assert.Equal(t, 2, d.Count(`head link[rel="stylesheet"]`))
	assert.Equal(t, 1, d.Count(`body script[src="x.js"]`))

	assert.Equal(t, 1, d.Remove(`link[href="a.css"]`))
	assert.Equal(t, 0, d.Remove(`link[href="a.css"]`))
	assert.Equal(t, 1, d.Count(`link[href="b.css"]`))

	d.SetBodyClass("layout-wide")
	d.SetAttr("body", "data-theme", "dark")
	class, _ := d.Attr("body", "class")
	assert.Equal(t, "layout-wide", class)
	theme, _ := d.Attr("body", "data-theme")
	assert.Equal(t, "dark", theme)
}

func TestTitleAndHTML(t *testing.T) {
	d := New()
	d.SetTitle("My Site")
	assert.Equal(t, "My Site", d.Title())

	out, err := d.HTML()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))

	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "My Site", parsed.Find("title").Text())
}

func TestListenersScopedToRegion(t *testing.T) {
	d := New()
	require.NoError(t, d.SetInnerHTML(ContentID, `<button id="b">x</button>`))
	require.NoError(t, d.SetInnerHTML(SidebarID, `<a id="s">y</a>`))

	var fired []string
	d.Listen(ContentID, IDSelector("b"), "click", func() { fired = append(fired, "b") })
	d.Listen(SidebarID, IDSelector("s"), "click", func() { fired = append(fired, "s") })

	assert.True(t, d.Dispatch("click", IDSelector("b")))
	assert.False(t, d.Dispatch("keydown", IDSelector("b")))
	assert.Equal(t, []string{"b"}, fired)

	require.NoError(t, d.SetInnerHTML(ContentID, "new"))
	assert.False(t, d.Dispatch("click", IDSelector("b")))
	assert.Len(t, d.Listeners(), 1)
	assert.True(t, d.Dispatch("click", IDSelector("s")))
	assert.Equal(t, []string{"b", "s"}, fired)
}

func TestHandlerMayUseDocument(t *testing.T) {
	d := New()
	d.Listen(ContentID, "#x", "click", func() {
		_ = d.SetInnerHTML(ContentID, "clicked")
	})
	require.True(t, d.Dispatch("click", "#x"))
	got, _ := d.InnerHTML(ContentID)
	assert.Equal(t, "clicked", got)
}

func TestScroll(t *testing.T) {
	d := New()
	assert.Equal(t, "", d.ScrollPosition())

	d.ScrollToTop()
	assert.Equal(t, "top", d.ScrollPosition())

	require.NoError(t, d.SetInnerHTML(ContentID, `<h2 id="setup">Setup</h2>`))
	assert.False(t, d.ScrollIntoView("missing"))
	assert.Equal(t, "top", d.ScrollPosition())

	assert.True(t, d.ScrollIntoView("setup"))
	assert.Equal(t, "#setup", d.ScrollPosition())
	target, _ := d.Attr("body", ScrollTargetAttr)
	assert.Equal(t, "setup", target)
}

func TestIDSelector(t *testing.T) {
	d := New()
	require.NoError(t, d.SetInnerHTML(ContentID, `<p id="a.b:c">x</p><p id='q"x'>y</p>`))
	assert.Equal(t, 1, d.Count(IDSelector("a.b:c")))
	assert.Equal(t, 1, d.Count(IDSelector(`q"x`)))
}

func TestConcurrentWrites(t *testing.T) {
	d := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.SetInnerHTML(ContentID, "<p>x</p>")
			d.AppendHead(`<meta name="x">`)
			_, _ = d.HTML()
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, d.Count(`meta[name="x"]`))
}

func TestHistory(t *testing.T) {
	h := NewHistory("")
	assert.Equal(t, "", h.Current())
	_, ok := h.Back()
	assert.False(t, ok)

	h.Push("#/home")
	h.Push("#/about")
	h.Push("#/docs")
	assert.Equal(t, "#/docs", h.Current())

	prev, ok := h.Back()
	require.True(t, ok)
	assert.Equal(t, "#/about", prev)

	h.Push("#/about")
	assert.Equal(t, []string{"#/home", "#/about", "#/docs"}, h.Entries(), "re-pushing the current entry keeps forward history")

	h.Push("#/blog")
	assert.Equal(t, []string{"#/home", "#/about", "#/blog"}, h.Entries())
	_, ok = h.Forward()
	assert.False(t, ok)

	_, _ = h.Back()
	next, ok := h.Forward()
	require.True(t, ok)
	assert.Equal(t, "#/blog", next)
}

func TestMemoryClipboard(t *testing.T) {
	var c MemoryClipboard
	require.NoError(t, c.WriteText("copied"))
	assert.Equal(t, "copied", c.Text())
}

func TestAppendElement(t *testing.T) {
	d := New()
	css := "a > b { color: red; }"
	require.NoError(t, d.AppendElement("head", "style", css, html.Attribute{Key: "data-scss-source", Val: `x"y.scss`}))

	sel := AttrSelector("style", "data-scss-source", `x"y.scss`)
	assert.Equal(t, 1, d.Count(sel))

	out, err := d.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, css)

	err = d.AppendElement("#nowhere", "p", "x")
	assert.ErrorIs(t, err, ErrNoElement)
}
