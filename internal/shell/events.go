package shell

import (
	"context"
	"net/url"
	"strings"
)

// HandleHashChange navigates to hash.
func (a *App) HandleHashChange(ctx context.Context, hash string) {
	if r := a.Router(); r != nil {
		r.Navigate(ctx, hash)
	}
}

// HandlePopState navigates to the current history entry, or to "/" when
// the history is empty.
func (a *App) HandlePopState(ctx context.Context) {
	r := a.Router()
	if r == nil {
		return
	}
	target := a.c.History.Current()
	if target == "" {
		target = "/"
	}
	r.Navigate(ctx, target)
}

// Back moves back in history and navigates there.
func (a *App) Back(ctx context.Context) bool {
	if _, ok := a.c.History.Back(); !ok {
		return false
	}
	a.HandlePopState(ctx)
	return true
}

// HandleLinkClick intercepts a click on a link with the given href attribute
// on a page served from origin. It navigates and returns true for "/#/..."
// and "#/..." hrefs and for links that resolve to the same origin; any other
// link is left to the browser.
func (a *App) HandleLinkClick(ctx context.Context, href, origin string) bool {
	r := a.Router()
	if r == nil || href == "" {
		return false
	}
	if strings.HasPrefix(href, "/#/") || strings.HasPrefix(href, "#/") {
		r.Navigate(ctx, href)
		return true
	}

	base, err := url.Parse(strings.TrimRight(origin, "/") + "/")
	if err != nil || base.Host == "" {
		return false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return false
	}
	target := base.ResolveReference(ref)
	if target.Scheme != base.Scheme || target.Host != base.Host {
		return false
	}
	if strings.HasPrefix(target.Fragment, "/") {
		r.Navigate(ctx, "#"+target.Fragment)
		return true
	}
	r.Navigate(ctx, target.Path)
	return true
}
