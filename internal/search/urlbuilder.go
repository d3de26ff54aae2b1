package search

import (
	"fmt"
	"net/url"
)

// pageURL builds the engine-specific search-results-page URL for page p
// (1-indexed), spec §4.9: "build a page-specific request URL (engine-specific)".
// The teacher has no search-engine harvester of its own, so these builders
// are grounded directly on each engine's public query-string contract rather
// than adapted teacher code.
func pageURL(engine, query string, p int, lang, country string) (string, error) {
	switch engine {
	case "", "google":
		return googleURL(query, p, lang, country), nil
	case "bing":
		return bingURL(query, p, lang, country), nil
	default:
		return "", fmt.Errorf("search: unknown engine %q", engine)
	}
}

func googleURL(query string, p int, lang, country string) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("start", fmt.Sprintf("%d", (p-1)*10))
	v.Set("num", "10")
	if lang != "" {
		v.Set("hl", lang)
	}
	if country != "" {
		v.Set("gl", country)
	}
	return "https://www.google.com/search?" + v.Encode()
}

func bingURL(query string, p int, lang, country string) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("first", fmt.Sprintf("%d", (p-1)*10+1))
	if country != "" {
		v.Set("cc", country)
	}
	if lang != "" {
		v.Set("setlang", lang)
	}
	return "https://www.bing.com/search?" + v.Encode()
}
