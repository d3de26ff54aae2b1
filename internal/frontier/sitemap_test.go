package frontier

import (
	"encoding/xml"
	"testing"
)

func TestSitemapURLSetParsing(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
		<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<url><loc>https://example.com/a</loc></url>
			<url><loc>https://example.com/b</loc></url>
		</urlset>`)

	var set sitemapURLSet
	if err := xml.Unmarshal(data, &set); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	locs := locsOf(set.URLs)
	if len(locs) != 2 || locs[0] != "https://example.com/a" || locs[1] != "https://example.com/b" {
		t.Fatalf("got %v", locs)
	}
}

func TestSitemapIndexParsing(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
		<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<sitemap><loc>https://example.com/sitemap-1.xml</loc></sitemap>
			<sitemap><loc>https://example.com/sitemap-2.xml</loc></sitemap>
		</sitemapindex>`)

	var idx sitemapIndex
	if err := xml.Unmarshal(data, &idx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(idx.Sitemaps) != 2 {
		t.Fatalf("got %d sitemaps", len(idx.Sitemaps))
	}
}

func TestLocsOfSkipsBlank(t *testing.T) {
	entries := []sitemapEntry{{Loc: "https://example.com/a"}, {Loc: "  "}, {Loc: ""}}
	locs := locsOf(entries)
	if len(locs) != 1 {
		t.Fatalf("expected blank entries stripped, got %v", locs)
	}
}
