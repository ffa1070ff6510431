package export

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ziadkadry99/markdownium/internal/dom"
	"github.com/ziadkadry99/markdownium/internal/frontmatter"
)

// SearchIndex is the file the client side search reads.
const SearchIndex = "search-index.json"

const maxSearchContent = 2000

// SearchEntry represents a single searchable page.
type SearchEntry struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Content string `json:"content"`
}

// searchEntry indexes the content region of a rendered page. Frontmatter
// title and summary win over the first heading and paragraph.
func searchEntry(page string, doc *dom.Document, m frontmatter.Matter) SearchEntry {
	e := SearchEntry{Path: page + ".html", Title: m.Title, Summary: m.Summary}
	doc.Each(dom.IDSelector(dom.ContentID), func(_ int, s *goquery.Selection) {
		if e.Title == "" {
			e.Title = strings.TrimSpace(s.Find("h1").First().Text())
		}
		if e.Summary == "" {
			e.Summary = strings.TrimSpace(s.Find("p").First().Text())
		}
		c := s.Clone()
		c.Find("button").Remove()
		e.Content = truncate(strings.Join(strings.Fields(c.Text()), " "), maxSearchContent)
	})
	if e.Title == "" {
		e.Title = page
	}
	return e
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func (b *builder) writeSearchIndex() error {
	if b.search == nil {
		b.search = []SearchEntry{}
	}
	data, err := json.MarshalIndent(b.search, "", "  ")
	if err != nil {
		return err
	}
	return b.save(SearchIndex, data)
}
