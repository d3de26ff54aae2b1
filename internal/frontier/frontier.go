// Package frontier implements the Crawl Frontier (C5): discovery, scope
// filtering, dedup, and depth/limit enforcement for crawl jobs, generalizing
// the teacher's URLQueue/LinkExtractor/LinkFilter (internal/services/crawler)
// to the spec's four scope strategies and sitemap-aware seeding.
package frontier

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/common"
	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// jobState is the per-job dedup set and counters the teacher kept inside
// URLQueue's `seen` map, generalized to also track the scope root and
// admission limit for one crawl job.
type jobState struct {
	mu       sync.Mutex
	scope    scopeRoot
	paths    *pathFilter
	seen     map[string]bool
	enqueued int
	engine   interfaces.EngineName
}

// Frontier implements interfaces.Frontier against an injected queue manager
// and C6 progress engine; one Frontier instance is shared across jobs, with
// per-job state kept in the jobs map.
type Frontier struct {
	mu     sync.Mutex
	jobs   map[string]*jobState
	queues interfaces.QueueManager
	prog   interfaces.ProgressEngine
	logger arbor.ILogger
}

func New(queues interfaces.QueueManager, prog interfaces.ProgressEngine, logger arbor.ILogger) *Frontier {
	return &Frontier{
		jobs:   make(map[string]*jobState),
		queues: queues,
		prog:   prog,
		logger: logger,
	}
}

func (f *Frontier) stateFor(jobID string) (*jobState, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	js, ok := f.jobs[jobID]
	return js, ok
}

// Seed registers the seed URL at depth 0, enqueues it, and — unless
// opts.IgnoreSitemap is set — fetches sitemap.xml and seeds every entry it
// names at depth 0 too (spec.md's ignore_sitemap flag, given the sitemap
// fetch a complete crawler needs behind it).
func (f *Frontier) Seed(ctx context.Context, jobID, seedURL string, engine interfaces.EngineName, opts models.CrawlOptions) error {
	parsed, err := url.Parse(seedURL)
	if err != nil {
		return fmt.Errorf("frontier: parse seed url: %w", err)
	}

	js := &jobState{
		scope:  newScopeRoot(parsed),
		paths:  newPathFilter(opts.IncludePaths, opts.ExcludePaths),
		seen:   make(map[string]bool),
		engine: engine,
	}
	f.mu.Lock()
	f.jobs[jobID] = js
	f.mu.Unlock()

	if err := f.admit(ctx, jobID, js, parsed.String(), "", 0, opts); err != nil {
		return err
	}

	if !opts.IgnoreSitemap {
		urls, err := fetchSitemapURLs(ctx, parsed)
		if err != nil {
			f.logger.Debug().Err(err).Str("job_id", jobID).Msg("sitemap fetch skipped")
		}
		for _, u := range urls {
			if err := f.admit(ctx, jobID, js, u, seedURL, 0, opts); err != nil {
				return err
			}
		}
	}
	return nil
}

// Discover parses html for links and admits every in-scope, filtered, unseen
// one, subject to opts.Limit (the final admission gate) and
// opts.MaxDiscoveryDepth (how far the walk continues even past MaxDepth).
func (f *Frontier) Discover(ctx context.Context, jobID string, html string, page interfaces.DiscoveredURL, engine interfaces.EngineName, opts models.CrawlOptions) (int, error) {
	js, ok := f.stateFor(jobID)
	if !ok {
		return 0, fmt.Errorf("frontier: unknown job %q", jobID)
	}

	js.mu.Lock()
	atLimit := opts.Limit > 0 && js.enqueued >= opts.Limit
	js.mu.Unlock()
	if atLimit {
		return 0, nil
	}

	childDepth := page.Depth + 1
	if opts.MaxDiscoveryDepth > 0 && childDepth > opts.MaxDiscoveryDepth {
		return 0, nil
	}

	links, err := extractLinks(html, page.URL)
	if err != nil {
		return 0, fmt.Errorf("frontier: extract links: %w", err)
	}

	admitted := 0
	for _, raw := range links {
		normalized := normalizeURL(raw, mustParse(page.URL), opts.IgnoreQueryParameters)
		if normalized == "" {
			continue
		}
		ok, err := f.admitOne(ctx, jobID, js, normalized, page.URL, childDepth, engine, opts)
		if err != nil {
			return admitted, err
		}
		if ok {
			admitted++
		}
		if opts.Limit > 0 {
			js.mu.Lock()
			reachedLimit := js.enqueued >= opts.Limit
			js.mu.Unlock()
			if reachedLimit {
				break
			}
		}
	}
	return admitted, nil
}

// admit is Seed's entry point: it always counts toward enqueued (the seed
// and its sitemap entries are exempt from scope/path filtering, same as the
// teacher's crawler always visits its configured start URLs regardless of
// include/exclude rules).
func (f *Frontier) admit(ctx context.Context, jobID string, js *jobState, rawURL, parentURL string, depth int, opts models.CrawlOptions) error {
	js.mu.Lock()
	if js.seen[rawURL] {
		js.mu.Unlock()
		return nil
	}
	js.seen[rawURL] = true
	js.mu.Unlock()

	return f.enqueue(ctx, jobID, js, js.engine, rawURL, parentURL, depth, opts)
}

// admitOne applies the full scope/path/depth/dedup/limit gate from spec §4.5
// to one discovered link, returning whether it was admitted.
func (f *Frontier) admitOne(ctx context.Context, jobID string, js *jobState, rawURL, parentURL string, depth int, engine interfaces.EngineName, opts models.CrawlOptions) (bool, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, nil
	}

	strategy := Strategy(opts.Strategy)
	if !js.scope.inScope(parsed, strategy, opts.AllowSubdomains, opts.AllowExternalLinks) {
		return false, nil
	}
	if !js.paths.allows(parsed) {
		return false, nil
	}
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		// Beyond the admission depth but within MaxDiscoveryDepth: mark seen
		// so it isn't rediscovered, but don't enqueue or count it.
		js.mu.Lock()
		js.seen[rawURL] = true
		js.mu.Unlock()
		return false, nil
	}

	js.mu.Lock()
	if js.seen[rawURL] {
		js.mu.Unlock()
		return false, nil
	}
	if opts.Limit > 0 && js.enqueued >= opts.Limit {
		js.mu.Unlock()
		return false, nil
	}
	js.seen[rawURL] = true
	js.mu.Unlock()

	if err := f.enqueue(ctx, jobID, js, engine, rawURL, parentURL, depth, opts); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Frontier) enqueue(ctx context.Context, jobID string, js *jobState, engine interfaces.EngineName, rawURL, parentURL string, depth int, opts models.CrawlOptions) error {
	q, err := f.queues.Queue(ctx, models.KindCrawl, engine)
	if err != nil {
		return fmt.Errorf("frontier: resolve queue: %w", err)
	}

	crawlOpts := opts
	userData := models.UserData{
		JobID:        jobID,
		QueueName:    interfaces.QueueName(models.KindCrawl, engine),
		Kind:         string(models.KindCrawl),
		Depth:        depth,
		ParentURL:    parentURL,
		CrawlOptions: &crawlOpts,
	}
	if opts.ScrapeOptions != nil {
		userData.Options = *opts.ScrapeOptions
	}
	req := &models.EngineRequest{
		URL:       rawURL,
		UniqueKey: common.NewUniqueKey(),
		UserData:  userData,
	}
	if err := q.Enqueue(ctx, req); err != nil {
		return fmt.Errorf("frontier: enqueue: %w", err)
	}

	js.mu.Lock()
	js.enqueued++
	js.mu.Unlock()
	if err := f.prog.IncrEnqueued(ctx, jobID, 1); err != nil {
		f.logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to increment enqueued counter")
	}
	return nil
}

// Complete increments C6.done exactly once per fetched page and surfaces the
// finalization predicate's result so the caller can write the terminal job
// row at most once (spec §4.6: "when finalized flips ... caller must write
// the terminal Job row").
func (f *Frontier) Complete(ctx context.Context, jobID string, succeeded bool) (bool, *models.CrawlState, error) {
	return f.prog.IncrDone(ctx, jobID, succeeded, 0)
}

func mustParse(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}

var _ interfaces.Frontier = (*Frontier)(nil)
