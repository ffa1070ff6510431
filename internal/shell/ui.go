package shell

import (
	"context"
	"errors"
	"html"
	"strings"

	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/ziadkadry99/markdownium/internal/config"
	"github.com/ziadkadry99/markdownium/internal/content"
	"github.com/ziadkadry99/markdownium/internal/dom"
)

// Auxiliary pages rendered around the content.
const (
	SidebarPage  = "sidebar"
	TopLinksPage = "top"
)

func (a *App) initUI(ctx context.Context, site *config.Site) {
	doc := a.c.Document

	if err := doc.SetText(dom.SiteNameID, site.SiteName); err != nil {
		a.logger.Debug("no site name region", zap.Error(err))
	}
	doc.SetTitle(site.SiteName)
	if site.Logo != "" {
		doc.SetAttr(dom.IDSelector(dom.SiteLogoID), "src", site.Logo)
	}
	if site.LicenseBadge != "" {
		a.setRegion(dom.LicenseID, a.Renderer().Sanitize(site.LicenseBadge))
	}
	a.setRegion(dom.MainMenuID, menuHTML(site.MainMenu))
	a.setRegion(dom.SocialsID, socialsHTML(site.Socials))

	for name, value := range map[string]string{"description": site.Description, "author": site.Author} {
		if value == "" {
			continue
		}
		doc.Remove(dom.AttrSelector("meta", "name", name))
		if err := doc.AppendElement("head", "meta", "",
			xhtml.Attribute{Key: "name", Val: name},
			xhtml.Attribute{Key: "content", Val: value},
		); err != nil {
			a.logger.Warn("adding meta tag", zap.String("name", name), zap.Error(err))
		}
	}

	a.loadAuxiliary(ctx, SidebarPage, dom.SidebarID, false)
	a.loadAuxiliary(ctx, TopLinksPage, dom.TopLinksID, true)
}

// loadAuxiliary renders page into the region id. A missing optional page is
// ignored.
func (a *App) loadAuxiliary(ctx context.Context, page, id string, optional bool) {
	log := a.logger.With(zap.String("page", page))

	md, err := a.Router().FetchContent(ctx, page)
	if err != nil {
		if optional && errors.Is(err, content.ErrNotFound) {
			log.Debug("optional page not found")
			return
		}
		log.Warn("loading page", zap.Error(err))
		return
	}
	markup, err := a.Renderer().Render(md)
	if err != nil {
		log.Warn("rendering page", zap.Error(err))
		return
	}
	a.setRegion(id, markup)
}

func (a *App) setRegion(id, markup string) {
	if err := a.c.Document.SetInnerHTML(id, markup); err != nil {
		a.logger.Debug("region not available", zap.String("region", id), zap.Error(err))
	}
}

func menuHTML(items []config.MenuItem) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(`<a class="menu-item" href="`)
		b.WriteString(html.EscapeString(item.URL))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(item.Title))
		b.WriteString(`</a>`)
	}
	return b.String()
}

func socialsHTML(socials []config.Social) string {
	var b strings.Builder
	for _, s := range socials {
		label := s.Name
		if label == "" {
			label = s.URL
		}
		b.WriteString(`<a class="social social-`)
		b.WriteString(html.EscapeString(strings.ToLower(s.Name)))
		b.WriteString(`" href="`)
		b.WriteString(html.EscapeString(s.URL))
		b.WriteString(`" rel="me noopener" target="_blank">`)
		if s.Icon != "" {
			b.WriteString(`<img src="`)
			b.WriteString(html.EscapeString(s.Icon))
			b.WriteString(`" alt="`)
			b.WriteString(html.EscapeString(label))
			b.WriteString(`">`)
		} else {
			b.WriteString(html.EscapeString(label))
		}
		b.WriteString(`</a>`)
	}
	return b.String()
}
