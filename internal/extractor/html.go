package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractTitle follows the <title> -> og:title -> <h1> -> twitter:title
// fallback chain, grounded on the teacher's content_processor.go.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, exists := doc.Find(`meta[property='og:title']`).Attr("content"); exists {
		if og = strings.TrimSpace(og); og != "" {
			return og
		}
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if tw, exists := doc.Find(`meta[name='twitter:title']`).Attr("content"); exists {
		if tw = strings.TrimSpace(tw); tw != "" {
			return tw
		}
	}
	return "Untitled"
}

// extractMetadata collects every <meta> tag keyed by name or property with a
// non-empty content attribute (step 3 of the format pipeline).
func extractMetadata(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, exists := s.Attr("content")
		if !exists || strings.TrimSpace(content) == "" {
			return
		}
		if name, ok := s.Attr("name"); ok && name != "" {
			meta[name] = content
			return
		}
		if prop, ok := s.Attr("property"); ok && prop != "" {
			meta[prop] = content
		}
	})
	if lang, exists := doc.Find("html").Attr("lang"); exists && lang != "" {
		meta["language"] = lang
	}
	if canonical, exists := doc.Find(`link[rel='canonical']`).Attr("href"); exists && canonical != "" {
		meta["canonical_url"] = canonical
	}
	return meta
}

// buildHTML applies include/exclude tag filtering and rewrites relative
// href/src attributes against base, returning the resulting HTML fragment.
func buildHTML(doc *goquery.Document, base *url.URL, includeTags, excludeTags []string) (string, error) {
	working := cloneDocument(doc)
	if working == nil {
		return "", nil
	}

	for _, tag := range excludeTags {
		working.Find(tag).Remove()
	}

	root := working.Selection
	if len(includeTags) > 0 {
		sel := working.Find(includeTags[0])
		for _, tag := range includeTags[1:] {
			sel = sel.AddSelection(working.Find(tag))
		}
		root = sel
	}

	rewriteAttr(root, "href", base)
	rewriteAttr(root, "src", base)

	if len(includeTags) > 0 {
		var parts []string
		root.Each(func(_ int, s *goquery.Selection) {
			if outer, err := goquery.OuterHtml(s); err == nil {
				parts = append(parts, outer)
			}
		})
		return strings.TrimSpace(strings.Join(parts, "\n")), nil
	}

	body := working.Find("body")
	if body.Length() == 0 {
		html, err := working.Html()
		return strings.TrimSpace(html), err
	}
	html, err := body.Html()
	return strings.TrimSpace(html), err
}

func rewriteAttr(sel *goquery.Selection, attr string, base *url.URL) {
	if base == nil {
		return
	}
	sel.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
		raw, exists := s.Attr(attr)
		if !exists || raw == "" {
			return
		}
		if strings.HasPrefix(raw, "javascript:") || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "#") {
			return
		}
		resolved, err := base.Parse(raw)
		if err != nil {
			return
		}
		s.SetAttr(attr, resolved.String())
	})
}

// cloneDocument re-parses the document's own HTML so filtering one format
// (e.g. excludeTags for "html") never mutates the shared DOM other formats
// read from concurrently.
func cloneDocument(doc *goquery.Document) *goquery.Document {
	html, err := doc.Html()
	if err != nil {
		return nil
	}
	clone, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return clone
}

// extractText strips tags entirely, returning the document's visible text.
func extractText(doc *goquery.Document) string {
	working := cloneDocument(doc)
	if working == nil {
		return ""
	}
	working.Find("script, style").Remove()
	text := working.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = working.Text()
	}
	return collapseWhitespace(text)
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.TrimSpace(strings.Join(fields, " "))
}
