// Package server serves a markdownium site over HTTP: static files,
// server-rendered pages, a JSON render API and live reload.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ziadkadry99/markdownium/internal/config"
	"github.com/ziadkadry99/markdownium/internal/logging"
	"github.com/ziadkadry99/markdownium/internal/render"
	"github.com/ziadkadry99/markdownium/internal/shell"
	"github.com/ziadkadry99/markdownium/internal/theme"
)

// Config holds server configuration.
type Config struct {
	Port           int
	Root           string // site root: config file, content and theme assets
	ConfigFile     string // relative to Root; defaults to config.json
	LiveReload     bool
	ReloadDebounce time.Duration // defaults to 200ms
	AllowAll       bool          // allow all CORS origins (dev mode)
	HighlightStyle string
	Compiler       theme.StylesheetCompiler
}

// Server serves one site.
type Server struct {
	cfg        Config
	logger     *zap.Logger
	root       fs.FS
	renderer   *render.Renderer
	hub        *hub
	watcher    *Watcher
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server for cfg.Root.
func New(cfg Config, logger *zap.Logger) *Server {
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = config.DefaultFile
	}
	if cfg.ReloadDebounce == 0 {
		cfg.ReloadDebounce = 200 * time.Millisecond
	}
	s := &Server{
		cfg:      cfg,
		logger:   logging.OrNop(logger),
		root:     os.DirFS(cfg.Root),
		renderer: render.New(renderOptions(cfg.HighlightStyle)...),
		hub:      newHub(),
	}
	s.router = s.buildRouter()
	return s
}

func renderOptions(style string) []render.Option {
	if style == "" {
		return nil
	}
	return []render.Option{render.WithHighlightStyle(style)}
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Long-lived; registered outside the timeout group.
	r.Get("/livereload", s.handleLiveReload)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Get("/", s.handlePage)
		r.Get("/page/*", s.handlePage)
		r.Get("/api/render/*", s.handleRender)
		r.Get("/assets/highlight.css", s.handleHighlightCSS)
		r.Get("/assets/markdownium.js", s.handleBootstrap)

		r.Handle("/*", http.FileServer(http.FS(s.root)))
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// newApp builds an application shell reading the site from disk.
func (s *Server) newApp() *shell.App {
	return shell.New(shell.Context{
		Config:     config.FileSource{Path: filepath.Join(s.cfg.Root, s.cfg.ConfigFile)},
		NewFetcher: shell.DirContent(s.root),
		Assets:     theme.FSSource{FS: s.root},
		Compiler:   s.cfg.Compiler,
		Logger:     s.logger,
		Render:     renderOptions(s.cfg.HighlightStyle),
	})
}

// WatchRoot starts watching the site root; every change is pushed to the
// live reload clients.
func (s *Server) WatchRoot() error {
	w, err := NewWatcher(s.cfg.Root, s.cfg.ReloadDebounce, s.logger, func(path string) {
		s.hub.broadcast(reloadMessage, s.logger.With(zap.String("changed", path)))
	})
	if err != nil {
		return fmt.Errorf("starting live reload: %w", err)
	}
	s.watcher = w
	return nil
}

// Start begins listening on the configured port and, with live reload
// enabled, watching the site root.
func (s *Server) Start() error {
	if s.cfg.LiveReload {
		if err := s.WatchRoot(); err != nil {
			return err
		}
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("markdownium server listening",
		zap.String("addr", addr),
		zap.String("root", s.cfg.Root),
		zap.Bool("live_reload", s.cfg.LiveReload),
	)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.logger.Warn("closing watcher", zap.Error(err))
		}
	}
	s.hub.closeAll()
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// requestLogger logs each request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Debug("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
