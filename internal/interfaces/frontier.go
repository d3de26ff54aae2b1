package interfaces

import (
	"context"

	"github.com/anycrawl/anycrawl-core/internal/models"
)

// DiscoveredURL is a single link Frontier.Discover considers for admission.
type DiscoveredURL struct {
	URL       string
	ParentURL string
	Depth     int
}

// Frontier owns discovery, scope filtering, dedup, and depth/limit
// enforcement for one crawl job (C5, spec §4.5).
type Frontier interface {
	// Seed registers the job's seed URL at depth 0, enqueues it onto the
	// (crawl, engine) queue, and increments C6.enqueued. When opts.IgnoreSitemap
	// is false, it also fetches and seeds sitemap.xml entries at depth 0.
	Seed(ctx context.Context, jobID, seedURL string, engine EngineName, opts models.CrawlOptions) error

	// Discover parses the page's links, normalizes, scopes, filters, dedups,
	// and enqueues admitted URLs; returns how many were newly admitted.
	// Frontier itself increments C6.enqueued for each admission. Returns
	// admitted==0, err==nil once the job's limit has been reached — this is
	// the final admission gate, not an error.
	Discover(ctx context.Context, jobID string, html string, page DiscoveredURL, engine EngineName, opts models.CrawlOptions) (admitted int, err error)

	// Complete must be called exactly once per fetched page (success or
	// failure); it increments C6.done and reports whether this call just
	// finalized the job, so the caller (internal/app) knows when to write
	// the job row's terminal status.
	Complete(ctx context.Context, jobID string, succeeded bool) (finalized bool, state *models.CrawlState, err error)
}
