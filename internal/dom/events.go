package dom

import "strings"

// Listen registers a handler for event on elements matching selector.
func (d *Document) Listen(scope, selector, event string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, Listener{
		Scope:    scope,
		Selector: selector,
		Event:    event,
		Handler:  h,
	})
}

// Dispatch fires event on selector. Handlers run outside the document lock,
// in registration order. It reports whether any handler ran.
func (d *Document) Dispatch(event, selector string) bool {
	d.mu.Lock()
	var handlers []Handler
	for _, l := range d.listeners {
		if l.Event == event && l.Selector == selector {
			handlers = append(handlers, l.Handler)
		}
	}
	d.mu.Unlock()

	for _, h := range handlers {
		h()
	}
	return len(handlers) > 0
}

// Listeners returns a copy of the registered listeners.
func (d *Document) Listeners() []Listener {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Listener, len(d.listeners))
	copy(out, d.listeners)
	return out
}

func (d *Document) dropListeners(scope string) {
	kept := d.listeners[:0]
	for _, l := range d.listeners {
		if l.Scope != scope {
			kept = append(kept, l)
		}
	}
	for i := len(kept); i < len(d.listeners); i++ {
		d.listeners[i] = Listener{}
	}
	d.listeners = kept
}

// ScrollIntoView records the element with the given id as scrolled into
// view. It reports false when no such element exists.
func (d *Document) ScrollIntoView(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc.Find(IDSelector(id)).Length() == 0 {
		return false
	}
	d.scroll = "#" + id
	d.doc.Find("body").SetAttr(ScrollTargetAttr, id)
	return true
}

// ScrollToTop records a scroll to the top of the window.
func (d *Document) ScrollToTop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scroll = "top"
	d.doc.Find("body").SetAttr(ScrollTargetAttr, "top")
}

// ScrollPosition returns "top", "#<id>" or "" when nothing scrolled yet.
func (d *Document) ScrollPosition() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scroll
}

// IDSelector returns a selector matching the element with the given id,
// whatever characters the id contains.
func IDSelector(id string) string {
	return AttrSelector("", "id", id)
}

// AttrSelector returns a selector matching tag elements whose attribute
// name equals value exactly. An empty tag matches any element.
func AttrSelector(tag, name, value string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return tag + `[` + name + `="` + r.Replace(value) + `"]`
}
