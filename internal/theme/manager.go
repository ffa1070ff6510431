// Package theme loads and unloads the stylesheets and scripts of a theme
// and applies its presentation settings to the document.
package theme

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/markdownium/internal/config"
	"github.com/ziadkadry99/markdownium/internal/dom"
	"github.com/ziadkadry99/markdownium/internal/logging"
)

// ScssSourceAttr marks <style> elements compiled from an SCSS asset.
const ScssSourceAttr = "data-scss-source"

// Page is the part of the document a Manager mutates.
type Page interface {
	AppendElement(parent, tag, text string, attrs ...html.Attribute) error
	Remove(selector string) int
	SetAttr(selector, name, value string) int
	SetBodyClass(class string)
}

// Manager tracks the assets of the active theme. Each stylesheet and script
// is added at most once; unloading removes every tracked element.
type Manager struct {
	page     Page
	source   AssetSource
	compiler StylesheetCompiler
	logger   *zap.Logger

	mu          sync.Mutex
	current     string
	stylesheets *assetSet
	scripts     *assetSet
}

// Option configures a Manager.
type Option func(*Manager)

// WithCompiler sets the compiler used for SCSS assets.
func WithCompiler(c StylesheetCompiler) Option {
	return func(m *Manager) { m.compiler = c }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) { m.logger = logging.OrNop(logger) }
}

// NewManager creates a Manager with no theme loaded.
func NewManager(page Page, source AssetSource, opts ...Option) *Manager {
	m := &Manager{
		page:        page,
		source:      source,
		logger:      zap.NewNop(),
		stylesheets: newAssetSet(),
		scripts:     newAssetSet(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CurrentTheme returns the name of the loaded theme, or "" before the first
// LoadTheme.
func (m *Manager) CurrentTheme() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Stylesheets returns the tracked CSS and SCSS paths in load order.
func (m *Manager) Stylesheets() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stylesheets.list()
}

// Scripts returns the tracked script paths in load order.
func (m *Manager) Scripts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scripts.list()
}

// LoadTheme unloads the current theme and loads t. A nil t selects the
// default theme, which has no assets. Asset failures do not stop loading:
// the failed asset is removed and the joined failures are returned.
func (m *Manager) LoadTheme(ctx context.Context, t *config.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unload()

	if t == nil {
		m.logger.Info("no theme config provided, using default")
		m.current = config.DefaultThemeName
		return nil
	}
	m.current = t.Name
	if m.current == "" {
		m.current = config.DefaultThemeName
	}
	log := m.logger.With(zap.String("theme", m.current))

	var errs []error
	load := func(kind string, paths []string, fn func(context.Context, string) error) {
		if len(paths) == 0 {
			log.Debug("no assets to load", zap.String("kind", kind))
			return
		}
		for _, p := range paths {
			if err := fn(ctx, p); err != nil {
				log.Warn("failed to load asset", zap.String("kind", kind), zap.String("path", p), zap.Error(err))
				errs = append(errs, fmt.Errorf("%s %s: %w", kind, p, err))
			}
		}
	}
	load("css", t.CSS, m.loadCSS)
	load("scss", t.SCSS, m.loadSCSS)
	load("js", t.JS, m.loadJS)

	m.apply(t)
	log.Info("theme loaded",
		zap.Int("stylesheets", m.stylesheets.len()),
		zap.Int("scripts", m.scripts.len()),
		zap.Int("failures", len(errs)),
	)
	return errors.Join(errs...)
}

// UnloadTheme removes every tracked asset from the document.
func (m *Manager) UnloadTheme() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unload()
}

func (m *Manager) unload() {
	for _, href := range m.stylesheets.list() {
		m.page.Remove(dom.AttrSelector("link", "href", href))
		m.page.Remove(dom.AttrSelector("style", ScssSourceAttr, href))
	}
	for _, src := range m.scripts.list() {
		m.page.Remove(dom.AttrSelector("script", "src", src))
	}
	m.stylesheets.clear()
	m.scripts.clear()
}

func (m *Manager) loadCSS(ctx context.Context, href string) error {
	if m.stylesheets.has(href) {
		m.logger.Debug("stylesheet already loaded", zap.String("path", href))
		return nil
	}
	if err := m.page.AppendElement("head", "link", "",
		html.Attribute{Key: "rel", Val: "stylesheet"},
		html.Attribute{Key: "href", Val: href},
	); err != nil {
		return err
	}
	if _, err := m.source.Fetch(ctx, href); err != nil {
		m.page.Remove(dom.AttrSelector("link", "href", href))
		return err
	}
	m.stylesheets.add(href)
	return nil
}

func (m *Manager) loadSCSS(ctx context.Context, href string) error {
	if m.stylesheets.has(href) {
		return nil
	}
	if m.compiler == nil {
		return ErrNoCompiler
	}
	src, err := m.source.Fetch(ctx, href)
	if err != nil {
		return err
	}
	css, err := m.compiler.Compile(ctx, string(src))
	if err != nil {
		return fmt.Errorf("compiling: %w", err)
	}
	if err := m.page.AppendElement("head", "style", css,
		html.Attribute{Key: ScssSourceAttr, Val: href},
	); err != nil {
		return err
	}
	m.stylesheets.add(href)
	return nil
}

func (m *Manager) loadJS(ctx context.Context, src string) error {
	if m.scripts.has(src) {
		return nil
	}
	if err := m.page.AppendElement("body", "script", "",
		html.Attribute{Key: "type", Val: "module"},
		html.Attribute{Key: "src", Val: src},
	); err != nil {
		return err
	}
	if _, err := m.source.Fetch(ctx, src); err != nil {
		m.page.Remove(dom.AttrSelector("script", "src", src))
		return err
	}
	m.scripts.add(src)
	return nil
}

func (m *Manager) apply(t *config.Theme) {
	if t.ColorScheme != "" {
		m.page.SetAttr("body", "data-theme", t.ColorScheme)
	}
	if t.Layout != "" {
		m.page.SetBodyClass("layout-" + t.Layout)
	}
	if t.FaviconEmoji != "" {
		m.page.Remove(`link[rel="icon"]`)
		if err := m.page.AppendElement("head", "link", "",
			html.Attribute{Key: "rel", Val: "icon"},
			html.Attribute{Key: "href", Val: FaviconHref(t.FaviconEmoji)},
		); err != nil {
			m.logger.Warn("setting favicon", zap.Error(err))
		}
	}
}

// FaviconHref returns a data URL for an SVG favicon showing emoji.
func FaviconHref(emoji string) string {
	return "data:image/svg+xml,<svg xmlns='http://www.w3.org/2000/svg' viewBox='0 0 100 100'>" +
		"<text y='.9em' font-size='90'>" + html.EscapeString(emoji) + "</text></svg>"
}

// assetSet is an insertion-ordered set of asset paths.
type assetSet struct {
	order []string
	index map[string]struct{}
}

func newAssetSet() *assetSet {
	return &assetSet{index: make(map[string]struct{})}
}

func (s *assetSet) has(p string) bool {
	_, ok := s.index[p]
	return ok
}

func (s *assetSet) add(p string) {
	if s.has(p) {
		return
	}
	s.index[p] = struct{}{}
	s.order = append(s.order, p)
}

func (s *assetSet) list() []string {
	return append([]string(nil), s.order...)
}

func (s *assetSet) len() int { return len(s.order) }

func (s *assetSet) clear() {
	s.order = nil
	s.index = make(map[string]struct{})
}
