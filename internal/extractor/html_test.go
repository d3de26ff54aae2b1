package extractor

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestExtractTitleFallsBackThroughChain(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
	}{
		{"title tag", `<html><head><title> Hello </title></head></html>`, "Hello"},
		{"og title", `<html><head><meta property="og:title" content="OG Hello"></head></html>`, "OG Hello"},
		{"h1 fallback", `<html><body><h1>H1 Hello</h1></body></html>`, "H1 Hello"},
		{"twitter title", `<html><head><meta name="twitter:title" content="Tw Hello"></head></html>`, "Tw Hello"},
		{"untitled", `<html><body><p>no title here</p></body></html>`, "Untitled"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := extractTitle(mustDoc(t, c.html))
			if got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
		})
	}
}

func TestExtractMetadataCollectsNameAndProperty(t *testing.T) {
	doc := mustDoc(t, `<html lang="en"><head>
		<meta name="description" content="a page">
		<meta property="og:type" content="article">
		<link rel="canonical" href="https://example.com/canonical">
	</head></html>`)

	meta := extractMetadata(doc)
	if meta["description"] != "a page" {
		t.Errorf("description = %q", meta["description"])
	}
	if meta["og:type"] != "article" {
		t.Errorf("og:type = %q", meta["og:type"])
	}
	if meta["language"] != "en" {
		t.Errorf("language = %q", meta["language"])
	}
	if meta["canonical_url"] != "https://example.com/canonical" {
		t.Errorf("canonical_url = %q", meta["canonical_url"])
	}
}

func TestBuildHTMLRewritesRelativeLinks(t *testing.T) {
	doc := mustDoc(t, `<html><body><a href="/a">a</a><img src="/img.png"></body></html>`)
	base, _ := url.Parse("https://example.com/page")

	html, err := buildHTML(doc, base, nil, nil)
	if err != nil {
		t.Fatalf("buildHTML: %v", err)
	}
	if !strings.Contains(html, `href="https://example.com/a"`) {
		t.Errorf("href not rewritten: %s", html)
	}
	if !strings.Contains(html, `src="https://example.com/img.png"`) {
		t.Errorf("src not rewritten: %s", html)
	}
}

func TestBuildHTMLAppliesIncludeAndExcludeTags(t *testing.T) {
	doc := mustDoc(t, `<html><body><nav>nav</nav><article>keep me</article><footer>foot</footer></body></html>`)

	// exclude-only: drop nav/footer, keep the rest of body.
	html, err := buildHTML(doc, nil, nil, []string{"nav", "footer"})
	if err != nil {
		t.Fatalf("buildHTML: %v", err)
	}
	if strings.Contains(html, "nav") || strings.Contains(html, "foot") {
		t.Errorf("excluded tags present: %s", html)
	}
	if !strings.Contains(html, "keep me") {
		t.Errorf("article content missing: %s", html)
	}

	// include-only: just the article.
	html, err = buildHTML(doc, nil, []string{"article"}, nil)
	if err != nil {
		t.Fatalf("buildHTML: %v", err)
	}
	if strings.Contains(html, "nav") {
		t.Errorf("expected only included tag, got: %s", html)
	}
}

func TestExtractTextStripsTagsAndScripts(t *testing.T) {
	doc := mustDoc(t, `<html><body><script>var x=1;</script><p>Hello   world</p></body></html>`)
	text := extractText(doc)
	if text != "Hello world" {
		t.Fatalf("got %q", text)
	}
}
