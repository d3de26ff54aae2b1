package extractor

import (
	"net/url"
	"strings"
	"testing"
)

func TestConvertMarkdownRendersHeadingsAndLinks(t *testing.T) {
	base, _ := url.Parse("https://example.com/")
	html := `<h1>Title</h1><p>Hello <a href="https://example.com/a">link</a></p>`

	markdown, err := convertMarkdown(html, base)
	if err != nil {
		t.Fatalf("convertMarkdown: %v", err)
	}
	if !strings.Contains(markdown, "# Title") {
		t.Errorf("missing heading: %s", markdown)
	}
	if !strings.Contains(markdown, "[link](https://example.com/a)") {
		t.Errorf("missing link: %s", markdown)
	}
}
