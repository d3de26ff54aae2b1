package interfaces

import (
	"context"

	"github.com/anycrawl/anycrawl-core/internal/models"
)

// SearchRequest mirrors the POST /v1/search payload (spec §6).
type SearchRequest struct {
	Query      string
	Engine     string
	Limit      int
	Offset     int
	Pages      int
	Lang       string
	Country    string
	SafeSearch bool

	// ScrapeOptions, when set, requests that every organic result URL also be
	// fetched and run through C7/C8, filling SearchResultItem.Data (spec §6:
	// "scrape_options?").
	ScrapeOptions *models.ScrapeOptions
}

// SearchResultItem is one organic result entry.
type SearchResultItem struct {
	URL   string
	Title string
	Data  interface{} // populated when scrape_options requested page extraction
}

// SearchOrchestrator fans a query out across N result pages via C2/C3 and
// aggregates (C9, spec §4.9).
type SearchOrchestrator interface {
	Search(ctx context.Context, req SearchRequest) ([]SearchResultItem, error)
}
