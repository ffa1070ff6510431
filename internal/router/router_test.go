package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/markdownium/internal/content"
	"github.com/ziadkadry99/markdownium/internal/dom"
	"github.com/ziadkadry99/markdownium/internal/render"
)

type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, page string) (string, error) {
	if md, ok := m[page]; ok {
		return md, nil
	}
	return "", &content.NotFoundError{Page: page, URL: content.URL("/content", page), Status: http.StatusNotFound}
}

// gatedFetcher blocks each page until its gate is released.
type gatedFetcher struct {
	pages mapFetcher
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func (g *gatedFetcher) gate(page string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gates == nil {
		g.gates = map[string]chan struct{}{}
	}
	if _, ok := g.gates[page]; !ok {
		g.gates[page] = make(chan struct{})
	}
	return g.gates[page]
}

func (g *gatedFetcher) Fetch(ctx context.Context, page string) (string, error) {
	<-g.gate(page)
	return g.pages.Fetch(ctx, page)
}

// countingFetcher counts the fetches of each page.
type countingFetcher struct {
	pages mapFetcher
	mu    sync.Mutex
	calls map[string]int
}

func (c *countingFetcher) Fetch(ctx context.Context, page string) (string, error) {
	c.mu.Lock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[page]++
	c.mu.Unlock()
	return c.pages.Fetch(ctx, page)
}

func (c *countingFetcher) count(page string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[page]
}

type panickingRenderer struct{}

func (panickingRenderer) Render(string) (string, error) { panic("highlighter exploded") }

type failingRenderer struct{}

func (failingRenderer) Render(string) (string, error) { return "", errors.New("bad markdown") }

func newTestRouter(f content.Fetcher, rr Renderer) (*Router, *dom.Document, *dom.History, *dom.MemoryClipboard) {
	doc := dom.New()
	hist := dom.NewHistory("")
	clip := &dom.MemoryClipboard{}
	if rr == nil {
		rr = render.New()
	}
	r := New(f, rr, doc, hist, WithClipboard(clip))
	r.afterFunc = func(_ time.Duration, fn func()) { fn() }
	return r, doc, hist, clip
}

func contentDoc(t *testing.T, doc *dom.Document) *goquery.Document {
	t.Helper()
	inner, err := doc.InnerHTML(dom.ContentID)
	require.NoError(t, err)
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(inner))
	require.NoError(t, err)
	return parsed
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		path string
		want Route
	}{
		{"#/p", Route{Page: "p"}},
		{"/#/p", Route{Page: "p"}},
		{"p", Route{Page: "p"}},
		{"/p", Route{Page: "p"}},
		{"#/p#a", Route{Page: "p", Hash: "a"}},
		{"/#/p#a", Route{Page: "p", Hash: "a"}},
		{"#/p#a#b", Route{Page: "p", Hash: "a#b"}},
		{"#/p#", Route{Page: "p"}},
		{"#/guides/setup#install", Route{Page: "guides/setup", Hash: "install"}},
		{"", Route{Page: "home"}},
		{"/", Route{Page: "home"}},
		{"#/", Route{Page: "home"}},
		{"#", Route{Page: "home"}},
		{"/#/", Route{Page: "home"}},
		{"#/#top", Route{Page: "home", Hash: "top"}},
	}
	for _, tt := range tests {
		got := ParsePath(tt.path)
		assert.Equal(t, tt.want, got, "ParsePath(%q)", tt.path)
		assert.NotEmpty(t, got.Page)
	}
}

func TestRouteCanonical(t *testing.T) {
	assert.Equal(t, "#/about", Route{Page: "about"}.Canonical())
	assert.Equal(t, "#/about#team", Route{Page: "about", Hash: "team"}.Canonical())
}

func TestNavigateRendersPage(t *testing.T) {
	r, doc, hist, _ := newTestRouter(mapFetcher{"about": "# Hello"}, nil)

	route := r.Navigate(context.Background(), "#/about")
	assert.Equal(t, Route{Page: "about"}, route)

	h1 := contentDoc(t, doc).Find("h1")
	require.Equal(t, 1, h1.Length())
	id, _ := h1.Attr("id")
	assert.Equal(t, "hello", id)
	assert.Equal(t, "Hello", h1.Text())

	assert.Equal(t, []string{"#/about"}, hist.Entries())
	assert.Equal(t, "top", doc.ScrollPosition())
}

func TestNavigateOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/content/about.md" {
			fmt.Fprint(w, "# Hello")
			return
		}
		http.NotFound(w, req)
	}))
	defer srv.Close()

	f := content.NewHTTPFetcher(srv.URL+"/content", srv.Client())
	r, doc, hist, _ := newTestRouter(f, nil)

	r.Navigate(context.Background(), "#/about")
	id, _ := contentDoc(t, doc).Find("h1").Attr("id")
	assert.Equal(t, "hello", id)
	assert.Equal(t, "#/about", hist.Current())

	r.Navigate(context.Background(), "#/missing")
	text := contentDoc(t, doc).Find("div.error").Text()
	assert.Contains(t, text, "404")
	assert.Contains(t, text, "missing")
	assert.Equal(t, []string{"#/about"}, hist.Entries(), "failed navigation must not push history")
}

func TestNavigateNotFound(t *testing.T) {
	r, doc, hist, _ := newTestRouter(mapFetcher{}, nil)

	route := r.Navigate(context.Background(), "#/missing")
	assert.Equal(t, "missing", route.Page)

	errDiv := contentDoc(t, doc).Find("div.error")
	require.Equal(t, 1, errDiv.Length())
	assert.Contains(t, errDiv.Text(), "404")
	assert.Contains(t, errDiv.Text(), "missing")
	assert.Empty(t, hist.Entries())
}

func TestNotFoundEscapesPage(t *testing.T) {
	assert.Equal(t, `<div class="error">error 404: &lt;img&gt;</div>`, NotFoundHTML("<img>"))
}

func TestNavigateRenderFailureLooksLikeNotFound(t *testing.T) {
	for name, rr := range map[string]Renderer{"error": failingRenderer{}, "panic": panickingRenderer{}} {
		t.Run(name, func(t *testing.T) {
			r, doc, _, _ := newTestRouter(mapFetcher{"p": "x"}, rr)
			r.Navigate(context.Background(), "#/p")
			text := contentDoc(t, doc).Find("div.error").Text()
			assert.Equal(t, "error 404: p", text)
		})
	}
}

func TestNavigateDefaultsToHome(t *testing.T) {
	r, doc, hist, _ := newTestRouter(mapFetcher{"home": "welcome"}, nil)
	for _, p := range []string{"", "/", "#/"} {
		r.Navigate(context.Background(), p)
		assert.Contains(t, contentDoc(t, doc).Text(), "welcome")
	}
	assert.Equal(t, []string{"#/home"}, hist.Entries())
}

func TestNavigateScrollsToAnchor(t *testing.T) {
	r, doc, hist, _ := newTestRouter(mapFetcher{"guide": "# Guide\n\n## Install steps\n"}, nil)

	var delays []time.Duration
	r.afterFunc = func(d time.Duration, fn func()) {
		delays = append(delays, d)
		fn()
	}

	r.Navigate(context.Background(), "/#/guide#install-steps")
	assert.Equal(t, "#/guide#install-steps", hist.Current())
	assert.Equal(t, []time.Duration{DefaultAnchorDelay}, delays)
	assert.Equal(t, "#install-steps", doc.ScrollPosition())
}

func TestNavigateAnchorWithRealTimer(t *testing.T) {
	doc := dom.New()
	r := New(mapFetcher{"guide": "## Setup\n"}, render.New(), doc, dom.NewHistory(""), WithAnchorDelay(time.Millisecond))

	r.Navigate(context.Background(), "#/guide#setup")
	require.Eventually(t, func() bool {
		return doc.ScrollPosition() == "#setup"
	}, time.Second, 5*time.Millisecond)
}

func TestNavigateMissingAnchorLeavesScroll(t *testing.T) {
	r, doc, _, _ := newTestRouter(mapFetcher{"guide": "text"}, nil)
	r.Navigate(context.Background(), "#/guide#nowhere")
	assert.Equal(t, "", doc.ScrollPosition())
}

func TestCopyButtonListener(t *testing.T) {
	code := "fmt.Println(\"hi\")\n"
	r, doc, _, clip := newTestRouter(mapFetcher{"code": "```go\n" + code + "```\n"}, nil)
	r.Navigate(context.Background(), "#/code")

	id, ok := doc.Attr(dom.IDSelector(dom.ContentID)+" button."+render.CopyButtonClass, "id")
	require.True(t, ok)
	require.True(t, doc.Dispatch("click", dom.IDSelector(id)))
	assert.Equal(t, code, clip.Text())
}

func TestHeadingClickNavigatesToAnchor(t *testing.T) {
	r, doc, hist, _ := newTestRouter(mapFetcher{"docs": "# Docs\n\n## Usage notes\n"}, nil)
	r.Navigate(context.Background(), "#/docs")

	require.True(t, doc.Dispatch("click", dom.IDSelector("usage-notes")))
	assert.Equal(t, []string{"#/docs", "#/docs#usage-notes"}, hist.Entries())
	assert.Equal(t, "#usage-notes", doc.ScrollPosition())
}

func TestDuplicateHeadingsNavigateOnce(t *testing.T) {
	f := &countingFetcher{pages: mapFetcher{"guide": "# Guide\n\n## Setup\n\ntext\n\n## Setup\n"}}
	r, doc, hist, _ := newTestRouter(f, nil)
	r.Navigate(context.Background(), "#/guide")
	require.Equal(t, 1, f.count("guide"))

	var setup int
	for _, l := range doc.Listeners() {
		if l.Selector == dom.IDSelector("setup") {
			setup++
		}
	}
	assert.Equal(t, 1, setup)

	require.True(t, doc.Dispatch("click", dom.IDSelector("setup")))
	assert.Equal(t, 2, f.count("guide"))
	assert.Equal(t, []string{"#/guide", "#/guide#setup"}, hist.Entries())
}

func TestListenersReplacedOnNavigation(t *testing.T) {
	r, doc, _, _ := newTestRouter(mapFetcher{"a": "# A\n", "b": "# B\n"}, nil)
	r.Navigate(context.Background(), "#/a")
	require.Len(t, doc.Listeners(), 1)

	r.Navigate(context.Background(), "#/b")
	listeners := doc.Listeners()
	require.Len(t, listeners, 1)
	assert.Equal(t, dom.IDSelector("b"), listeners[0].Selector)
}

func TestStaleNavigationDiscarded(t *testing.T) {
	f := &gatedFetcher{pages: mapFetcher{"slow": "# Slow", "fast": "# Fast"}}
	r, doc, hist, _ := newTestRouter(f, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Navigate(context.Background(), "#/slow")
	}()

	// Wait until the first navigation has shown its placeholder.
	require.Eventually(t, func() bool {
		inner, _ := doc.InnerHTML(dom.ContentID)
		return strings.Contains(inner, "Loading")
	}, time.Second, time.Millisecond)

	close(f.gate("fast"))
	r.Navigate(context.Background(), "#/fast")

	close(f.gate("slow"))
	<-done

	assert.Equal(t, "Fast", contentDoc(t, doc).Find("h1").Text())
	assert.Equal(t, []string{"#/fast"}, hist.Entries())
}

func TestFetchContent(t *testing.T) {
	r, _, _, _ := newTestRouter(mapFetcher{"sidebar": "- [Home](#/home)"}, nil)
	md, err := r.FetchContent(context.Background(), "sidebar")
	require.NoError(t, err)
	assert.Equal(t, "- [Home](#/home)", md)

	_, err = r.FetchContent(context.Background(), "top")
	assert.ErrorIs(t, err, content.ErrNotFound)
}
