package frontier

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractLinks parses anchor hrefs out of html, resolved against pageURL.
// Generalizes the teacher's LinkExtractor.ExtractLinks (link_extractor.go):
// same goquery walk, trimmed to what Discover needs: links are resolved and
// deduplicated within the page only, and no href scheme is skipped here —
// normalization, scoping, path filtering, and cross-page dedup live in
// frontier.go and filters.go instead of being folded into the extractor.
func extractLinks(html, pageURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		resolved, err := base.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		raw := resolved.String()
		if !seen[raw] {
			seen[raw] = true
			links = append(links, raw)
		}
	})
	return links, nil
}
