package dom

import "sync"

// History is a session history stack of hash URLs.
type History struct {
	mu      sync.Mutex
	entries []string
	index   int
}

// NewHistory returns a history positioned on initial, or empty when initial
// is "".
func NewHistory(initial string) *History {
	h := &History{index: -1}
	if initial != "" {
		h.entries = []string{initial}
		h.index = 0
	}
	return h
}

// Push adds url after the current entry, discarding forward entries. Pushing
// the current entry again is a no-op, so revisiting an entry through Back or
// Forward keeps the rest of the stack.
func (h *History) Push(url string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= 0 && h.entries[h.index] == url {
		return
	}
	h.entries = append(h.entries[:h.index+1], url)
	h.index = len(h.entries) - 1
}

// Current returns the active entry, or "" for an empty history.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		return ""
	}
	return h.entries[h.index]
}

// Back moves to the previous entry and returns it.
func (h *History) Back() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index <= 0 {
		return "", false
	}
	h.index--
	return h.entries[h.index], true
}

// Forward moves to the next entry and returns it.
func (h *History) Forward() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index >= len(h.entries)-1 {
		return "", false
	}
	h.index++
	return h.entries[h.index], true
}

// Entries returns a copy of the stack.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clipboard receives text copied by the page.
type Clipboard interface {
	WriteText(text string) error
}

// MemoryClipboard keeps the last copied text.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
}

// WriteText implements Clipboard.
func (c *MemoryClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text = text
	return nil
}

// Text returns the last copied text.
func (c *MemoryClipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}
