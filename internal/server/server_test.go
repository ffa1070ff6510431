package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"config.json":        `{"baseUrl": "content", "siteName": "Test Site", "theme": {"name": "t", "css": ["theme.css"]}}`,
		"theme.css":          "body{}",
		"content/home.md":    "# Welcome\n",
		"content/about.md":   "+++\ntitle = \"About\"\n+++\n# Hello\n\n```go\nfmt.Println(1)\n```\n",
		"content/sidebar.md": "- [About](/#/about)\n",
	}
	for name, data := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	}
	return root
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := New(Config{Root: t.TempDir()}, nil)

	w := get(t, srv, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := New(Config{Root: t.TempDir(), AllowAll: true}, nil)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestServeHomePage(t *testing.T) {
	srv := New(Config{Root: writeSite(t)}, nil)

	w := get(t, srv, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Test Site", doc.Find("title").Text())
	assert.Equal(t, "Welcome", doc.Find("#content h1#welcome").Text())
	assert.Equal(t, 1, doc.Find(`#sidebar a[href="/#/about"]`).Length())
	assert.Equal(t, 1, doc.Find(`link[href="/theme.css"]`).Length())
	assert.Equal(t, 1, doc.Find(`link[href="/assets/highlight.css"]`).Length())
	assert.Equal(t, 1, doc.Find(`script[src="/assets/markdownium.js"]`).Length())
	page, _ := doc.Find("body").Attr("data-page")
	assert.Equal(t, "home", page)
}

func TestServeNamedPage(t *testing.T) {
	srv := New(Config{Root: writeSite(t), LiveReload: true}, nil)

	w := get(t, srv, "/page/about")
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Hello", doc.Find("#content h1").Text())
	assert.NotContains(t, doc.Find("#content").Text(), "title =")
	assert.Equal(t, 1, doc.Find("#content div.code-block button.copy-button").Length())

	reload, _ := doc.Find(`script[src="/assets/markdownium.js"]`).Attr("data-live-reload")
	assert.Equal(t, "true", reload)
}

func TestServeMissingPage(t *testing.T) {
	srv := New(Config{Root: writeSite(t)}, nil)

	w := get(t, srv, "/page/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "error 404: missing")
}

func TestServeWithoutConfig(t *testing.T) {
	srv := New(Config{Root: t.TempDir()}, nil)

	w := get(t, srv, "/")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to initialize markdownium")
}

func TestIsRelative(t *testing.T) {
	for ref, want := range map[string]bool{
		"theme.css":              true,
		"themes/dark/style.css":  true,
		"/theme.css":             false,
		"#top":                   false,
		"":                       false,
		"https://cdn.example/x":  false,
		"data:image/svg+xml,abc": false,
	} {
		assert.Equal(t, want, isRelative(ref), ref)
	}
}

func TestServeContentImages(t *testing.T) {
	root := writeSite(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "content", "gallery.md"), []byte("![a](pic.png)\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "content", "pic.png"), []byte("png"), 0o644))
	srv := New(Config{Root: root}, nil)

	w := get(t, srv, "/page/gallery")
	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	src, _ := doc.Find("#content img").Attr("src")
	assert.Equal(t, "/content/pic.png", src)
	assert.Equal(t, http.StatusOK, get(t, srv, src).Code)

	w = get(t, srv, "/api/render/gallery")
	require.Equal(t, http.StatusOK, w.Code)
	var body renderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.HTML, `src="/content/pic.png"`)
}

func TestRenderAPI(t *testing.T) {
	srv := New(Config{Root: writeSite(t)}, nil)

	w := get(t, srv, "/api/render/about")
	require.Equal(t, http.StatusOK, w.Code)
	var body renderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "about", body.Page)
	assert.Contains(t, body.HTML, `id="hello"`)
	assert.Empty(t, body.Error)

	w = get(t, srv, "/api/render/missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, `<div class="error">error 404: missing</div>`, body.HTML)
	assert.NotEmpty(t, body.Error)
}

func TestAssets(t *testing.T) {
	srv := New(Config{Root: writeSite(t)}, nil)

	w := get(t, srv, "/assets/highlight.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".chroma")

	w = get(t, srv, "/assets/markdownium.js")
	require.Equal(t, http.StatusOK, w.Code)
	script := w.Body.String()
	assert.Contains(t, script, `"/api/render/" + route.page.split("/").map(encodeURIComponent).join("/")`)
	assert.Contains(t, script, `div.textContent = "error 404: " + route.page`)
	assert.NotContains(t, script, `'<div class="error">error 404: ' + route.page`)

	w = get(t, srv, "/content/home.md")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# Welcome\n", w.Body.String())
}

func TestLiveReload(t *testing.T) {
	root := writeSite(t)
	srv := New(Config{Root: root, LiveReload: true, ReloadDebounce: 20 * time.Millisecond}, nil)
	require.NoError(t, srv.WatchRoot())
	defer srv.watcher.Close()

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/livereload"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return srv.hub.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "content", "home.md"), []byte("# Changed\n"), 0o644))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "reload", string(msg))
}

func TestWatcherCloseTwice(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), 10*time.Millisecond, nil, func(string) {})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NotPanics(t, func() { _ = w.Close() })
}

func TestWatcherDebounces(t *testing.T) {
	root := t.TempDir()
	changes := make(chan string, 10)
	w, err := NewWatcher(root, 50*time.Millisecond, nil, func(path string) { changes <- path })
	require.NoError(t, err)
	defer w.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte(strings.Repeat("x", i+1)), 0o644))
	}

	select {
	case path := <-changes:
		assert.Equal(t, "a.md", filepath.Base(path))
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-changes:
		t.Error("burst of writes reported more than once")
	case <-time.After(200 * time.Millisecond):
	}
}
