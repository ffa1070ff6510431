// Package export renders every content page of a site into standalone HTML
// files.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ziadkadry99/markdownium/internal/config"
	"github.com/ziadkadry99/markdownium/internal/content"
	"github.com/ziadkadry99/markdownium/internal/dom"
	"github.com/ziadkadry99/markdownium/internal/frontmatter"
	"github.com/ziadkadry99/markdownium/internal/logging"
	"github.com/ziadkadry99/markdownium/internal/progress"
	"github.com/ziadkadry99/markdownium/internal/render"
	"github.com/ziadkadry99/markdownium/internal/router"
	"github.com/ziadkadry99/markdownium/internal/shell"
	"github.com/ziadkadry99/markdownium/internal/theme"
)

// ArchivePage lists the excerpts of every post.
const ArchivePage = "archive"

// highlightCSS is the output path of the code highlighting stylesheet.
const highlightCSS = "assets/highlight.css"

// auxiliary pages are rendered into every page, not on their own.
var auxiliary = map[string]bool{shell.SidebarPage: true, shell.TopLinksPage: true}

// Options configures Build.
type Options struct {
	Root           string
	Out            string
	ConfigFile     string // relative to Root; defaults to config.json
	IncludeDrafts  bool
	HighlightStyle string
	Compiler       theme.StylesheetCompiler
	Reporter       progress.Reporter
	Logger         *zap.Logger
}

// Result describes a finished build.
type Result struct {
	Pages   []string // written pages, without extension
	Skipped []string // drafts
	Files   int
	Bytes   int64
	Elapsed time.Duration
}

// Summary is a one-line human readable description of r.
func (r *Result) Summary() string {
	return fmt.Sprintf("built %s pages, %s files (%s) in %s",
		humanize.Comma(int64(len(r.Pages))),
		humanize.Comma(int64(r.Files)),
		humanize.Bytes(uint64(r.Bytes)),
		r.Elapsed.Round(time.Millisecond),
	)
}

type builder struct {
	opts   Options
	fsys   fs.FS
	site   *config.Site
	logger *zap.Logger
	result *Result
	search []SearchEntry
	images map[string]bool
}

// Build renders the site at opts.Root into opts.Out.
func Build(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	if opts.ConfigFile == "" {
		opts.ConfigFile = config.DefaultFile
	}
	if opts.Reporter == nil {
		opts.Reporter = progress.Nop{}
	}

	site, err := config.Load(filepath.Join(opts.Root, opts.ConfigFile))
	if err != nil {
		return nil, err
	}
	b := &builder{
		opts:   opts,
		fsys:   os.DirFS(opts.Root),
		site:   site,
		logger: logging.OrNop(opts.Logger),
		result: &Result{},
		images: make(map[string]bool),
	}

	pages, err := Discover(b.fsys, site.BaseURL)
	if err != nil {
		return nil, err
	}
	b.logger.Info("building site", zap.Int("pages", len(pages)), zap.String("out", opts.Out))

	if err := os.MkdirAll(opts.Out, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	fetcher := content.NewDirFetcher(b.fsys, site.BaseURL)
	var excerpts []render.Excerpt

	opts.Reporter.Start(len(pages))
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.Reporter.Update(i+1, page)

		md, err := fetcher.Fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		m, _, err := frontmatter.Extract(md)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", page, err)
		}
		if m.Draft && !opts.IncludeDrafts {
			b.logger.Debug("skipping draft", zap.String("page", page))
			b.result.Skipped = append(b.result.Skipped, page)
			continue
		}

		if err := b.page(ctx, page, md, m); err != nil {
			return nil, fmt.Errorf("building %s: %w", page, err)
		}
		if m.Title != "" {
			e, err := render.ExcerptFromDocument(md, page)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", page, err)
			}
			excerpts = append(excerpts, e)
		}
	}
	opts.Reporter.Finish()

	if len(excerpts) > 0 && !contains(pages, ArchivePage) {
		if err := b.archive(ctx, excerpts); err != nil {
			return nil, fmt.Errorf("building archive: %w", err)
		}
	}
	if err := b.writeSearchIndex(); err != nil {
		return nil, fmt.Errorf("writing search index: %w", err)
	}
	if err := b.assets(); err != nil {
		return nil, err
	}

	b.result.Elapsed = time.Since(start)
	b.logger.Info("site built",
		zap.Int("pages", len(b.result.Pages)),
		zap.Int("drafts_skipped", len(b.result.Skipped)),
		zap.String("size", humanize.Bytes(uint64(b.result.Bytes))),
	)
	return b.result, nil
}

// Discover lists the pages below baseURL in fsys, sorted. Auxiliary pages
// (sidebar, top links) are not included.
func Discover(fsys fs.FS, baseURL string) ([]string, error) {
	if strings.Contains(baseURL, "://") {
		return nil, fmt.Errorf("baseUrl %q is not a local path", baseURL)
	}
	dir := strings.Trim(path.Clean("/"+baseURL), "/")
	pattern := "**/*.md"
	if dir != "" {
		pattern = dir + "/" + pattern
	}

	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("listing content: %w", err)
	}
	var pages []string
	for _, m := range matches {
		page := strings.TrimSuffix(strings.TrimPrefix(m, dir+"/"), ".md")
		if dir == "" {
			page = strings.TrimSuffix(m, ".md")
		}
		if auxiliary[page] {
			continue
		}
		pages = append(pages, page)
	}
	sort.Strings(pages)
	return pages, nil
}

func (b *builder) newApp() *shell.App {
	var ropts []render.Option
	if b.opts.HighlightStyle != "" {
		ropts = append(ropts, render.WithHighlightStyle(b.opts.HighlightStyle))
	}
	return shell.New(shell.Context{
		Config:     staticSource{b.site},
		NewFetcher: shell.DirContent(b.fsys),
		Assets:     theme.FSSource{FS: b.fsys},
		Compiler:   b.opts.Compiler,
		Logger:     b.logger,
		Render:     ropts,
	})
}

// page renders one page. Pages with a frontmatter title use the post
// template.
func (b *builder) page(ctx context.Context, page, md string, m frontmatter.Matter) error {
	app := b.newApp()
	if err := app.Init(ctx, "#/"+page); err != nil {
		return err
	}
	doc := app.Document()

	if m.Title != "" {
		post, err := render.PostFromDocument(md)
		if err != nil {
			return err
		}
		markup, err := app.Renderer().RenderPost(post)
		if err != nil {
			return err
		}
		if err := doc.SetInnerHTML(dom.ContentID, markup); err != nil {
			return err
		}
		doc.SetTitle(m.Title + " | " + b.site.SiteName)
	}

	b.search = append(b.search, searchEntry(page, doc, m))
	if err := b.write(doc, page); err != nil {
		return err
	}
	b.result.Pages = append(b.result.Pages, page)

	if page == router.DefaultPage {
		return b.write(doc, "index")
	}
	return nil
}

func (b *builder) archive(ctx context.Context, excerpts []render.Excerpt) error {
	sort.SliceStable(excerpts, func(i, j int) bool {
		return excerpts[i].Date.After(excerpts[j].Date)
	})

	app := b.newApp()
	if err := app.Init(ctx, "#/"+router.DefaultPage); err != nil {
		return err
	}
	var buf strings.Builder
	buf.WriteString(`<h1 id="archive">Archive</h1>`)
	for _, e := range excerpts {
		markup, err := app.Renderer().RenderExcerpt(e)
		if err != nil {
			return err
		}
		buf.WriteString(markup)
	}
	doc := app.Document()
	if err := doc.SetInnerHTML(dom.ContentID, buf.String()); err != nil {
		return err
	}
	doc.SetTitle("Archive | " + b.site.SiteName)
	if err := b.write(doc, ArchivePage); err != nil {
		return err
	}
	b.result.Pages = append(b.result.Pages, ArchivePage)
	return nil
}

// write makes the document standalone and saves it as <page>.html.
func (b *builder) write(doc *dom.Document, page string) error {
	if doc.Count(`link[href="`+highlightCSS+`"]`) == 0 {
		if err := doc.AppendElement("head", "link", "",
			html.Attribute{Key: "rel", Val: "stylesheet"},
			html.Attribute{Key: "href", Val: highlightCSS},
		); err != nil {
			return err
		}
	}
	doc.Each("img[src]", func(_ int, s *goquery.Selection) {
		if src, _ := s.Attr("src"); isLocal(src) {
			b.images[src] = true
		}
	})
	prefix := strings.Repeat("../", strings.Count(page, "/"))
	rewriteLinks(doc, prefix)

	out, err := doc.HTML()
	if err != nil {
		return err
	}
	return b.save(page+".html", []byte(out))
}

func (b *builder) save(name string, data []byte) error {
	dest := filepath.Join(b.opts.Out, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}
	if err := atomic.WriteFile(dest, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	b.result.Files++
	b.result.Bytes += int64(len(data))
	return nil
}

// assets writes the highlight stylesheet and copies the theme's CSS and
// script files, the logo and every local image the pages reference.
func (b *builder) assets() error {
	var css bytes.Buffer
	r := render.New()
	if b.opts.HighlightStyle != "" {
		r = render.New(render.WithHighlightStyle(b.opts.HighlightStyle))
	}
	if err := r.HighlightCSS(&css); err != nil {
		return fmt.Errorf("writing highlight css: %w", err)
	}
	if err := b.save(highlightCSS, css.Bytes()); err != nil {
		return err
	}

	var files []string
	if t := b.site.Theme; t != nil {
		files = append(files, t.CSS...)
		files = append(files, t.JS...)
	}
	if b.site.Logo != "" {
		files = append(files, b.site.Logo)
	}
	images := make([]string, 0, len(b.images))
	for src := range b.images {
		images = append(images, src)
	}
	sort.Strings(images)
	files = append(files, images...)

	seen := make(map[string]bool)
	for _, f := range files {
		if !isLocal(f) {
			continue
		}
		name := strings.TrimPrefix(path.Clean("/"+f), "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		data, err := fs.ReadFile(b.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("asset not found", zap.String("path", f))
			continue
		}
		if err != nil {
			return fmt.Errorf("reading asset %s: %w", f, err)
		}
		if err := b.save(name, data); err != nil {
			return err
		}
	}
	return nil
}

// rewriteLinks turns hash routes into links to exported files and makes
// local asset URLs relative to a page nested under prefix.
func rewriteLinks(doc *dom.Document, prefix string) {
	doc.Each("a[href]", func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(href, "/#/") && !strings.HasPrefix(href, "#/") {
			return
		}
		route := router.ParsePath(href)
		target := prefix + route.Page + ".html"
		if route.Hash != "" {
			target += "#" + route.Hash
		}
		s.SetAttr("href", target)
	})
	for _, attr := range []string{"href", "src"} {
		doc.Each("link["+attr+"], script["+attr+"], img["+attr+"]", func(_ int, s *goquery.Selection) {
			v, _ := s.Attr(attr)
			if !isLocal(v) {
				return
			}
			s.SetAttr(attr, prefix+strings.TrimPrefix(v, "/"))
		})
	}
}

func isLocal(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "//") {
		return false
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// staticSource serves an already loaded configuration.
type staticSource struct{ site *config.Site }

func (s staticSource) Load(context.Context) (*config.Site, error) { return s.site, nil }
