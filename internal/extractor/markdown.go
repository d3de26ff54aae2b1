package extractor

import (
	"net/url"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// convertMarkdown renders cleaned HTML to markdown via the same converter
// the teacher's html_scraper.go wires up for its live scrapes.
func convertMarkdown(cleanedHTML string, base *url.URL) (string, error) {
	baseURL := ""
	if base != nil {
		baseURL = base.String()
	}
	converter := md.NewConverter(baseURL, true, nil)
	return converter.ConvertString(cleanedHTML)
}
