// Package dom is the headless page markdownium renders into. A Document wraps
// an HTML tree with the regions the shell writes to, and carries the state a
// browser would keep alongside it: registered event listeners and the scroll
// target.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Region ids of the page skeleton.
const (
	ContentID  = "content"
	SidebarID  = "sidebar"
	TopLinksID = "top-links"
	SiteNameID = "site-name"
	SiteLogoID = "site-logo"
	MainMenuID = "main-menu"
	SocialsID  = "socials"
	LicenseID  = "license-badge"

	// ScrollTargetAttr is set on <body> to the element scrolled into view,
	// or "top".
	ScrollTargetAttr = "data-scroll-target"
)

// ErrNoElement is returned when a required element is missing.
var ErrNoElement = errors.New("element not found")

const skeleton = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title></title>
</head>
<body>
<header class="site-header">
<a href="#/home" class="brand"><img id="site-logo" alt=""><span id="site-name"></span></a>
<nav id="main-menu"></nav>
<div id="top-links"></div>
</header>
<div class="layout">
<aside id="sidebar"></aside>
<main id="content"></main>
</div>
<footer class="site-footer">
<div id="socials"></div>
<div id="license-badge"></div>
</footer>
</body>
</html>`

// Handler reacts to a dispatched event.
type Handler func()

// Listener binds a handler to an event on the elements matched by Selector.
// Scope is the id of the region that owns the elements; replacing that
// region's markup drops the listener.
type Listener struct {
	Scope    string
	Selector string
	Event    string
	Handler  Handler
}

// Document is a mutable HTML page. All methods are safe for concurrent use.
type Document struct {
	mu        sync.Mutex
	doc       *goquery.Document
	listeners []Listener
	scroll    string
}

// New returns a Document holding the default page skeleton.
func New() *Document {
	d, err := Parse(strings.NewReader(skeleton))
	if err != nil {
		panic(fmt.Sprintf("dom: parsing skeleton: %v", err))
	}
	return d
}

// Parse builds a Document from an HTML page.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing document: %w", err)
	}
	return &Document{doc: doc}, nil
}

func (d *Document) byID(id string) (*goquery.Selection, error) {
	sel := d.doc.Find(IDSelector(id))
	if sel.Length() == 0 {
		return nil, fmt.Errorf("#%s: %w", id, ErrNoElement)
	}
	return sel.First(), nil
}

// SetInnerHTML replaces the markup of the element with the given id and
// drops the listeners scoped to it.
func (d *Document) SetInnerHTML(id, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.byID(id)
	if err != nil {
		return err
	}
	sel.SetHtml(markup)
	d.dropListeners(id)
	return nil
}

// InnerHTML returns the markup of the element with the given id.
func (d *Document) InnerHTML(id string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.byID(id)
	if err != nil {
		return "", err
	}
	return sel.Html()
}

// SetText replaces the content of the element with the given id by text.
func (d *Document) SetText(id, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel, err := d.byID(id)
	if err != nil {
		return err
	}
	sel.SetText(text)
	return nil
}

// SetTitle sets the document title.
func (d *Document) SetTitle(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find("head title").SetText(title)
}

// Title returns the document title.
func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find("head title").Text()
}

// AppendHead appends markup to <head>.
func (d *Document) AppendHead(markup string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find("head").AppendHtml(markup)
}

// AppendBody appends markup to <body>.
func (d *Document) AppendBody(markup string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find("body").AppendHtml(markup)
}

// AppendElement appends a new tag element to the first element matching
// parent. text becomes the element's only child; for <style> and <script>
// it is kept verbatim.
func (d *Document) AppendElement(parent, tag, text string, attrs ...html.Attribute) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := d.doc.Find(parent).First()
	if sel.Length() == 0 {
		return fmt.Errorf("%s: %w", parent, ErrNoElement)
	}
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	sel.AppendNodes(n)
	return nil
}

// Remove deletes every element matching selector and reports how many were
// removed.
func (d *Document) Remove(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel := d.doc.Find(selector)
	n := sel.Length()
	sel.Remove()
	return n
}

// Count reports how many elements match selector.
func (d *Document) Count(selector string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).Length()
}

// Attr returns an attribute of the first element matching selector.
func (d *Document) Attr(selector, name string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(selector).First().Attr(name)
}

// SetAttr sets an attribute on every element matching selector.
func (d *Document) SetAttr(selector, name, value string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	sel := d.doc.Find(selector)
	sel.SetAttr(name, value)
	return sel.Length()
}

// SetBodyClass replaces the class attribute of <body>.
func (d *Document) SetBodyClass(class string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find("body").SetAttr("class", class)
}

// Each calls fn for each element matching selector while the document is
// locked. fn must not call other Document methods.
func (d *Document) Each(selector string, fn func(i int, s *goquery.Selection)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find(selector).Each(fn)
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var buf bytes.Buffer
	for _, n := range d.doc.Nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("rendering document: %w", err)
		}
	}
	return buf.String(), nil
}
