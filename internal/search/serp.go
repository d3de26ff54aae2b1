package search

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// organicResult is one result row parsed off a search-engine results page,
// before it is promoted to an interfaces.SearchResultItem.
type organicResult struct {
	URL   string
	Title string
}

// parseSERP extracts the organic result list from a fetched results page.
// Selectors are engine-specific and best-effort: a selector miss yields an
// empty, not a fatal, result set, since SERP markup drifts constantly and a
// partial page shouldn't fail the whole search.
func parseSERP(engine, html string) ([]organicResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	switch engine {
	case "bing":
		return parseBing(doc), nil
	default:
		return parseGoogle(doc), nil
	}
}

func parseGoogle(doc *goquery.Document) []organicResult {
	var results []organicResult
	doc.Find("div.g, div[data-sokoban-container]").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a[href]").First()
		href, ok := link.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return
		}
		title := strings.TrimSpace(s.Find("h3").First().Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		results = append(results, organicResult{URL: href, Title: title})
	})
	return results
}

func parseBing(doc *goquery.Document) []organicResult {
	var results []organicResult
	doc.Find("li.b_algo").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("h2 a[href]").First()
		href, ok := link.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return
		}
		title := strings.TrimSpace(link.Text())
		results = append(results, organicResult{URL: href, Title: title})
	})
	return results
}
