package httpapi

import (
	"github.com/go-playground/validator/v10"

	"github.com/anycrawl/anycrawl-core/internal/models"
)

// validate is shared across every DTO in this package, the same
// single-instance-reuse pattern go-playground/validator recommends (the
// struct-tag cache it builds internally is expensive to rebuild per call).
var validate = validator.New()

// scrapeRequest is the wire shape of POST /v1/scrape (spec §6): url/engine
// plus every models.ScrapeOptions field, flattened via embedding.
type scrapeRequest struct {
	URL    string `json:"url" validate:"required,url"`
	Engine string `json:"engine,omitempty"`
	models.ScrapeOptions
}

// crawlRequest is the wire shape of POST /v1/crawl: url/engine, every
// models.CrawlOptions field, and an optional scrape_options block applied to
// every page the crawl fetches.
type crawlRequest struct {
	URL                   string               `json:"url" validate:"required,url"`
	Engine                string               `json:"engine,omitempty"`
	MaxDepth              int                  `json:"max_depth"`
	MaxDiscoveryDepth     int                  `json:"max_discovery_depth"`
	Limit                 int                  `json:"limit"`
	Strategy              string               `json:"strategy"`
	IncludePaths          []string             `json:"include_paths,omitempty"`
	ExcludePaths          []string             `json:"exclude_paths,omitempty"`
	IgnoreSitemap         bool                 `json:"ignore_sitemap"`
	IgnoreQueryParameters bool                 `json:"ignore_query_parameters"`
	DelayMS               int                  `json:"delay_ms"`
	AllowExternalLinks    bool                 `json:"allow_external_links"`
	AllowSubdomains       bool                 `json:"allow_subdomains"`
	ScrapeOptions         models.ScrapeOptions `json:"scrape_options,omitempty"`
}

func (r crawlRequest) crawlOptions() models.CrawlOptions {
	return models.CrawlOptions{
		MaxDepth:              r.MaxDepth,
		MaxDiscoveryDepth:     r.MaxDiscoveryDepth,
		Limit:                 r.Limit,
		Strategy:              r.Strategy,
		IncludePaths:          r.IncludePaths,
		ExcludePaths:          r.ExcludePaths,
		IgnoreSitemap:         r.IgnoreSitemap,
		IgnoreQueryParameters: r.IgnoreQueryParameters,
		DelayMS:               r.DelayMS,
		AllowExternalLinks:    r.AllowExternalLinks,
		AllowSubdomains:       r.AllowSubdomains,
	}
}

// searchRequest is the wire shape of POST /v1/search (spec §6).
type searchRequest struct {
	Query         string                `json:"query" validate:"required"`
	Engine        string                `json:"engine,omitempty"`
	Limit         int                   `json:"limit,omitempty"`
	Offset        int                   `json:"offset,omitempty"`
	Pages         int                   `json:"pages,omitempty"`
	Lang          string                `json:"lang,omitempty"`
	Country       string                `json:"country,omitempty"`
	SafeSearch    bool                  `json:"safe_search,omitempty"`
	ScrapeOptions *models.ScrapeOptions `json:"scrape_options,omitempty"`
}
