package frontier

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// sitemapURLSet mirrors the subset of the sitemap.org schema this crawler
// cares about: a flat list of <url><loc> entries. Sitemap index files (a list
// of <sitemap><loc> pointing at further sitemaps) are followed one level deep.
type sitemapURLSet struct {
	XMLName xml.Name       `xml:"urlset"`
	URLs    []sitemapEntry `xml:"url"`
}

type sitemapEntry struct {
	Loc string `xml:"loc"`
}

type sitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

var sitemapHTTPClient = &http.Client{Timeout: 15 * time.Second}

// fetchSitemapURLs fetches {seed}/sitemap.xml and returns every <loc> it
// names, following a one-level sitemap index if that's what's served instead
// of a flat urlset. Supplements spec.md's "ignore_sitemap" toggle with the
// actual sitemap-aware seeding a complete crawler needs behind it.
func fetchSitemapURLs(ctx context.Context, seed *url.URL) ([]string, error) {
	sitemapURL := *seed
	sitemapURL.Path = "/sitemap.xml"
	sitemapURL.RawQuery = ""
	sitemapURL.Fragment = ""

	body, err := fetchBody(ctx, sitemapURL.String())
	if err != nil {
		return nil, err
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err == nil && len(set.URLs) > 0 {
		return locsOf(set.URLs), nil
	}

	var idx sitemapIndex
	if err := xml.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("frontier: parse sitemap: %w", err)
	}

	var urls []string
	for _, sm := range idx.Sitemaps {
		if sm.Loc == "" {
			continue
		}
		childBody, err := fetchBody(ctx, sm.Loc)
		if err != nil {
			continue
		}
		var childSet sitemapURLSet
		if err := xml.Unmarshal(childBody, &childSet); err == nil {
			urls = append(urls, locsOf(childSet.URLs)...)
		}
	}
	return urls, nil
}

func locsOf(entries []sitemapEntry) []string {
	urls := make([]string, 0, len(entries))
	for _, e := range entries {
		if loc := strings.TrimSpace(e.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls
}

func fetchBody(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := sitemapHTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("frontier: sitemap fetch %s: status %d", rawURL, resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}
