// Package router resolves navigation targets to pages and swaps their
// rendered markup into the document.
package router

import "strings"

// DefaultPage is the page used when a path names none.
const DefaultPage = "home"

// Route is a page plus an optional in-page anchor.
type Route struct {
	Page string
	Hash string // anchor without '#'; empty when absent
}

// Canonical returns the history form of the route: #/page[#anchor].
func (r Route) Canonical() string {
	if r.Hash == "" {
		return "#/" + r.Page
	}
	return "#/" + r.Page + "#" + r.Hash
}

// ParsePath turns a navigation target into a Route. Accepted forms are
// "#/page[#anchor]", "/#/page[#anchor]" and a plain path such as "/page".
// The first '#' after the page starts the anchor; any later '#' belongs to
// the anchor.
func ParsePath(path string) Route {
	switch {
	case strings.HasPrefix(path, "#/"):
		return splitHashPath(path[len("#/"):])
	case strings.HasPrefix(path, "/#/"):
		return splitHashPath(path[len("/#/"):])
	case path == "" || path == "/" || path == "#":
		return Route{Page: DefaultPage}
	default:
		return splitHashPath(strings.TrimPrefix(path, "/"))
	}
}

func splitHashPath(p string) Route {
	page, hash, _ := strings.Cut(p, "#")
	return Route{Page: orDefault(page), Hash: hash}
}

func orDefault(page string) string {
	if page == "" {
		return DefaultPage
	}
	return page
}
