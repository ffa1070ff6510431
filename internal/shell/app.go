// Package shell wires configuration, theme, renderer and router into a
// running site and reacts to navigation events.
package shell

import (
	"context"
	"fmt"
	"html"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/markdownium/internal/config"
	"github.com/ziadkadry99/markdownium/internal/content"
	"github.com/ziadkadry99/markdownium/internal/dom"
	"github.com/ziadkadry99/markdownium/internal/logging"
	"github.com/ziadkadry99/markdownium/internal/render"
	"github.com/ziadkadry99/markdownium/internal/router"
	"github.com/ziadkadry99/markdownium/internal/theme"
)

// FetcherFactory builds the content fetcher once the configured base URL
// is known.
type FetcherFactory func(baseURL string) content.Fetcher

// HTTPContent returns a FetcherFactory reading pages over HTTP. A relative
// base URL is resolved against origin.
func HTTPContent(origin string, client *http.Client) FetcherFactory {
	return func(baseURL string) content.Fetcher {
		return content.NewHTTPFetcher(resolve(origin, baseURL), client)
	}
}

// DirContent returns a FetcherFactory reading pages from fsys.
func DirContent(fsys fs.FS) FetcherFactory {
	return func(baseURL string) content.Fetcher {
		return content.NewDirFetcher(fsys, baseURL)
	}
}

func resolve(origin, ref string) string {
	base, err := url.Parse(strings.TrimRight(origin, "/") + "/")
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// Context carries everything an App depends on.
type Context struct {
	Config      config.Source
	NewFetcher  FetcherFactory
	Assets      theme.AssetSource
	Compiler    theme.StylesheetCompiler
	Document    *dom.Document
	History     *dom.History
	Clipboard   dom.Clipboard
	Logger      *zap.Logger
	Render      []render.Option
	AnchorDelay time.Duration
}

// App is an initialised site.
type App struct {
	c      Context
	logger *zap.Logger

	mu       sync.RWMutex
	site     *config.Site
	renderer *render.Renderer
	router   *router.Router
	themes   *theme.Manager
}

// New creates an App. Nothing is loaded until Init.
func New(c Context) *App {
	if c.Document == nil {
		c.Document = dom.New()
	}
	if c.History == nil {
		c.History = dom.NewHistory("")
	}
	if c.Clipboard == nil {
		c.Clipboard = &dom.MemoryClipboard{}
	}
	return &App{c: c, logger: logging.OrNop(c.Logger)}
}

// Init loads the configuration and theme, fills the page chrome and
// navigates to startHash, or to the home page when startHash is empty or
// "#/". Only a configuration failure is fatal; it is also shown in the
// content region.
func (a *App) Init(ctx context.Context, startHash string) error {
	site, err := a.c.Config.Load(ctx)
	if err != nil {
		a.ShowError("Failed to initialize markdownium: " + err.Error())
		return fmt.Errorf("loading config: %w", err)
	}
	if err := site.Validate(); err != nil {
		a.logger.Warn("config has invalid values", zap.Error(err))
	}

	renderer := render.New(append([]render.Option{render.WithBaseURL(site.BaseURL)}, a.c.Render...)...)
	opts := []router.Option{router.WithLogger(a.logger), router.WithClipboard(a.c.Clipboard)}
	if a.c.AnchorDelay > 0 {
		opts = append(opts, router.WithAnchorDelay(a.c.AnchorDelay))
	}
	r := router.New(a.c.NewFetcher(site.BaseURL), renderer, a.c.Document, a.c.History, opts...)
	themes := theme.NewManager(a.c.Document, a.c.Assets,
		theme.WithCompiler(a.c.Compiler),
		theme.WithLogger(a.logger),
	)

	a.mu.Lock()
	a.site, a.renderer, a.router, a.themes = site, renderer, r, themes
	a.mu.Unlock()

	if err := themes.LoadTheme(ctx, site.Theme); err != nil {
		a.logger.Warn("theme loaded with errors", zap.Error(err))
	}

	a.initUI(ctx, site)

	if startHash != "" && startHash != "#/" {
		r.Navigate(ctx, startHash)
	} else {
		r.Navigate(ctx, "#/"+router.DefaultPage)
	}
	return nil
}

// ShowError replaces the content region with an error message.
func (a *App) ShowError(msg string) {
	markup := `<div class="error">` + html.EscapeString(msg) + `</div>`
	if err := a.c.Document.SetInnerHTML(dom.ContentID, markup); err != nil {
		a.logger.Error("showing error", zap.String("message", msg), zap.Error(err))
	}
}

// Document returns the page the App renders into.
func (a *App) Document() *dom.Document { return a.c.Document }

// History returns the session history.
func (a *App) History() *dom.History { return a.c.History }

// Site returns the loaded configuration, or nil before Init.
func (a *App) Site() *config.Site {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.site
}

// Router returns the router, or nil before Init.
func (a *App) Router() *router.Router {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.router
}

// Theme returns the theme manager, or nil before Init.
func (a *App) Theme() *theme.Manager {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.themes
}

// Renderer returns the markdown renderer, or nil before Init.
func (a *App) Renderer() *render.Renderer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.renderer
}
