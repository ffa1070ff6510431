package router

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/markdownium/internal/content"
	"github.com/ziadkadry99/markdownium/internal/dom"
	"github.com/ziadkadry99/markdownium/internal/logging"
	"github.com/ziadkadry99/markdownium/internal/render"
)

// DefaultAnchorDelay is how long a navigation waits for layout to settle
// before scrolling to its anchor.
const DefaultAnchorDelay = 300 * time.Millisecond

const loadingHTML = `<div class="loading">Loading...</div>`

// Renderer turns markdown into sanitized HTML.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Page is the part of the document a Router writes to.
type Page interface {
	SetInnerHTML(id, markup string) error
	ScrollIntoView(id string) bool
	ScrollToTop()
	Each(selector string, fn func(int, *goquery.Selection))
	Listen(scope, selector, event string, h dom.Handler)
}

// History records the canonical URL of each completed navigation.
type History interface {
	Push(url string)
}

// Router resolves paths to pages and swaps their rendered markup into the
// content region. Navigations may overlap: only the most recently started
// one is allowed to write its result.
type Router struct {
	fetcher   content.Fetcher
	renderer  Renderer
	page      Page
	history   History
	clipboard dom.Clipboard
	logger    *zap.Logger

	anchorDelay time.Duration
	afterFunc   func(time.Duration, func())

	mu  sync.Mutex
	seq uint64
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) { r.logger = logging.OrNop(logger) }
}

// WithAnchorDelay overrides DefaultAnchorDelay.
func WithAnchorDelay(d time.Duration) Option {
	return func(r *Router) { r.anchorDelay = d }
}

// WithClipboard sets the clipboard copy buttons write to.
func WithClipboard(c dom.Clipboard) Option {
	return func(r *Router) { r.clipboard = c }
}

// New creates a Router.
func New(fetcher content.Fetcher, renderer Renderer, page Page, history History, opts ...Option) *Router {
	r := &Router{
		fetcher:     fetcher,
		renderer:    renderer,
		page:        page,
		history:     history,
		logger:      zap.NewNop(),
		anchorDelay: DefaultAnchorDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchContent returns the raw markdown of a page.
func (r *Router) FetchContent(ctx context.Context, page string) (string, error) {
	return r.fetcher.Fetch(ctx, page)
}

// Navigate loads the page named by path into the content region. Failures
// are rendered as a not-found message; Navigate itself never fails. It
// returns the parsed route.
func (r *Router) Navigate(ctx context.Context, path string) Route {
	route := ParsePath(path)
	log := r.logger.With(
		zap.String("navigation_id", uuid.NewString()),
		zap.String("page", route.Page),
		zap.String("anchor", route.Hash),
	)

	r.mu.Lock()
	r.seq++
	token := r.seq
	if err := r.page.SetInnerHTML(dom.ContentID, loadingHTML); err != nil {
		log.Warn("showing loading placeholder", zap.Error(err))
	}
	r.mu.Unlock()

	markup, loadErr := r.load(ctx, route.Page)
	if r.commit(ctx, log, token, route, markup, loadErr) && route.Hash != "" {
		r.afterFunc(r.anchorDelay, func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if token != r.seq {
				return
			}
			if !r.page.ScrollIntoView(route.Hash) {
				log.Debug("anchor not found")
			}
		})
	}
	return route
}

// commit writes the outcome of a navigation unless a newer one started. It
// reports whether rendered content was inserted.
func (r *Router) commit(ctx context.Context, log *zap.Logger, token uint64, route Route, markup string, loadErr error) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != r.seq {
		log.Debug("discarding superseded navigation")
		return false
	}

	if loadErr != nil {
		log.Info("navigation failed", zap.Error(loadErr))
		if err := r.page.SetInnerHTML(dom.ContentID, NotFoundHTML(route.Page)); err != nil {
			log.Warn("showing not found message", zap.Error(err))
		}
		return false
	}

	if err := r.page.SetInnerHTML(dom.ContentID, markup); err != nil {
		log.Warn("replacing content", zap.Error(err))
		return false
	}
	r.bind(context.WithoutCancel(ctx), route)
	r.history.Push(route.Canonical())
	if route.Hash == "" {
		r.page.ScrollToTop()
	}

	log.Debug("navigation complete")
	return true
}

// load fetches and renders a page. A panic inside the renderer is reported
// as an error of this navigation.
func (r *Router) load(ctx context.Context, page string) (markup string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rendering %s: %v", page, p)
		}
	}()

	md, err := r.fetcher.Fetch(ctx, page)
	if err != nil {
		return "", err
	}
	markup, err = r.renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", page, err)
	}
	return markup, nil
}

// bind registers click listeners for the copy buttons and heading anchors
// that were just inserted into the content region.
func (r *Router) bind(ctx context.Context, route Route) {
	type binding struct {
		selector string
		handler  dom.Handler
	}
	var bindings []binding
	scope := dom.IDSelector(dom.ContentID)

	r.page.Each(scope+" button."+render.CopyButtonClass, func(i int, s *goquery.Selection) {
		var code string
		payload, _ := s.Attr(render.CopyPayloadAttr)
		if err := json.Unmarshal([]byte(payload), &code); err != nil {
			return
		}
		id, _ := s.Attr("id")
		if id == "" {
			id = fmt.Sprintf("copy-%d", i+1)
			s.SetAttr("id", id)
		}
		bindings = append(bindings, binding{
			selector: dom.IDSelector(id),
			handler:  func() { r.copy(code) },
		})
	})

	// Headings sharing a slug share one listener, which matches them all.
	slugs := make(map[string]bool)
	r.page.Each(scope+" ["+render.AnchorAttr+"]", func(_ int, s *goquery.Selection) {
		slug, _ := s.Attr(render.AnchorAttr)
		if slug == "" || slugs[slug] {
			return
		}
		slugs[slug] = true
		target := Route{Page: route.Page, Hash: slug}.Canonical()
		bindings = append(bindings, binding{
			selector: dom.IDSelector(slug),
			handler:  func() { r.Navigate(ctx, target) },
		})
	})

	for _, b := range bindings {
		r.page.Listen(dom.ContentID, b.selector, "click", b.handler)
	}
}

func (r *Router) copy(text string) {
	if r.clipboard == nil {
		r.logger.Debug("no clipboard configured")
		return
	}
	if err := r.clipboard.WriteText(text); err != nil {
		r.logger.Warn("copying to clipboard", zap.Error(err))
	}
}

// NotFoundHTML is the message shown when a page cannot be loaded.
func NotFoundHTML(page string) string {
	return `<div class="error">error 404: ` + html.EscapeString(page) + `</div>`
}
