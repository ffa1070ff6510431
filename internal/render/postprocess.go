package render

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// CopyButtonClass marks the control inserted before highlighted code.
	CopyButtonClass = "copy-button"
	// CopyPayloadAttr holds the JSON-encoded code text of a copy button.
	CopyPayloadAttr = "data-code"
	// AnchorAttr carries the slug of a heading for click-to-link behaviour.
	AnchorAttr = "data-anchor"

	codeBlockWrapper = `<div class="code-block"></div>`
	copyButtonHTML   = `<button type="button" class="` + CopyButtonClass + `">Copy</button>`
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	nonWordPattern = regexp.MustCompile(`[^\w\s-]`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

// Slug computes the anchor id of a heading from its inner HTML: tags are
// stripped, the text lowercased, characters other than word characters,
// whitespace and hyphens dropped, and whitespace runs turned into a hyphen.
func Slug(heading string) string {
	s := strings.ToLower(heading)
	s = tagPattern.ReplaceAllString(s, "")
	s = nonWordPattern.ReplaceAllString(s, "")
	return spacePattern.ReplaceAllString(s, "-")
}

// postProcess adds copy controls to highlighted code and anchor ids to
// headings in a rendered fragment. Relative image sources are prefixed with
// imageBase when it is set.
func postProcess(fragment, imageBase string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	doc.Find("pre.chroma").Each(func(_ int, pre *goquery.Selection) {
		payload, err := json.Marshal(pre.Text())
		if err != nil {
			return
		}
		pre.WrapHtml(codeBlockWrapper)
		pre.BeforeHtml(copyButtonHTML)
		pre.Prev().SetAttr(CopyPayloadAttr, string(payload))
	})

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, h *goquery.Selection) {
		inner, err := h.Html()
		if err != nil {
			return
		}
		slug := Slug(inner)
		if slug == "" {
			return
		}
		h.SetAttr("id", slug)
		h.SetAttr(AnchorAttr, slug)
	})

	if imageBase != "" {
		base := strings.TrimRight(imageBase, "/") + "/"
		doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
			if src, _ := img.Attr("src"); isRelativeRef(src) {
				img.SetAttr("src", base+src)
			}
		})
	}

	return doc.Find("body").Html()
}

// isRelativeRef reports whether ref is a path relative to the document,
// as opposed to a root path, a fragment or a URL with a scheme or host.
func isRelativeRef(ref string) bool {
	if ref == "" || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") {
		return false
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme == "" && u.Host == ""
}
