package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/markdownium/internal/config"
	"github.com/ziadkadry99/markdownium/internal/content"
	"github.com/ziadkadry99/markdownium/internal/dom"
	"github.com/ziadkadry99/markdownium/internal/render"
	"github.com/ziadkadry99/markdownium/internal/router"
)

// renderResponse is the JSON body of /api/render/{page}.
type renderResponse struct {
	Page  string `json:"page"`
	HTML  string `json:"html"`
	Error string `json:"error,omitempty"`
}

// handlePage renders a full document for "/" or "/page/{page}".
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	page := chi.URLParam(r, "*")
	start := ""
	if page != "" {
		start = "#/" + page
	}

	app := s.newApp()
	status := http.StatusOK
	if err := app.Init(r.Context(), start); err != nil {
		s.logger.Error("initializing page", zap.String("page", page), zap.Error(err))
		status = http.StatusInternalServerError
	} else if app.Document().Count(dom.IDSelector(dom.ContentID)+" > div.error") > 0 {
		status = http.StatusNotFound
	}

	doc := app.Document()
	route := router.ParsePath(start)
	doc.SetAttr("body", "data-page", route.Page)
	s.decorate(doc)

	out, err := doc.HTML()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(out))
}

// decorate roots local asset URLs at the site root, so they resolve below
// /page/, and adds the highlight stylesheet and the bootstrap script.
func (s *Server) decorate(doc *dom.Document) {
	for _, attr := range []string{"href", "src"} {
		doc.Each("link["+attr+"], script["+attr+"], img["+attr+"]", func(_ int, sel *goquery.Selection) {
			if v, _ := sel.Attr(attr); isRelative(v) {
				sel.SetAttr(attr, "/"+v)
			}
		})
	}
	if err := doc.AppendElement("head", "link", "",
		html.Attribute{Key: "rel", Val: "stylesheet"},
		html.Attribute{Key: "href", Val: "/assets/highlight.css"},
	); err != nil {
		s.logger.Warn("adding highlight stylesheet", zap.Error(err))
	}
	attrs := []html.Attribute{{Key: "src", Val: "/assets/markdownium.js"}, {Key: "defer", Val: ""}}
	if s.cfg.LiveReload {
		attrs = append(attrs, html.Attribute{Key: "data-live-reload", Val: "true"})
	}
	if err := doc.AppendElement("body", "script", "", attrs...); err != nil {
		s.logger.Warn("adding bootstrap script", zap.Error(err))
	}
}

// handleRender returns the rendered content of one page as JSON.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	page := router.ParsePath(chi.URLParam(r, "*")).Page

	site, err := config.Load(filepath.Join(s.cfg.Root, s.cfg.ConfigFile))
	if err != nil {
		s.logger.Error("loading config", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, renderResponse{Page: page, Error: err.Error()})
		return
	}

	md, err := content.NewDirFetcher(s.root, site.BaseURL).Fetch(r.Context(), page)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, content.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, renderResponse{Page: page, HTML: router.NotFoundHTML(page), Error: err.Error()})
		return
	}

	renderer := render.New(append(renderOptions(s.cfg.HighlightStyle), render.WithBaseURL(rootedBase(site.BaseURL)))...)
	markup, err := renderer.Render(md)
	if err != nil {
		writeJSON(w, http.StatusNotFound, renderResponse{Page: page, HTML: router.NotFoundHTML(page), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{Page: page, HTML: markup})
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	if err := s.renderer.HighlightCSS(w); err != nil {
		s.logger.Warn("writing highlight css", zap.Error(err))
	}
}

func (s *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Write([]byte(bootstrapJS))
}

// rootedBase turns a relative content base URL into a root path, so
// fragments inserted under /page/ still find their images.
func rootedBase(base string) string {
	if isRelative(base) {
		return "/" + base
	}
	return base
}

// isRelative reports whether ref is a path relative to the current page.
func isRelative(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") {
		return false
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
