package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anycrawl/anycrawl-core/internal/broker"
	"github.com/anycrawl/anycrawl-core/internal/common"
	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// ScrapeResult is what App.Scrape hands back to internal/httpapi: the job_id
// every request gets (for audit/credits, spec §6), plus the assembled record.
type ScrapeResult struct {
	JobID  string
	Record *interfaces.ExtractionRecord
}

// Scrape runs one URL through C3->C2->C7 and blocks until it settles,
// fulfilling the synchronous POST /v1/scrape contract (spec §6).
func (a *App) Scrape(ctx context.Context, rawURL string, opts models.ScrapeOptions, engine interfaces.EngineName, apiKeyID, origin string) (*ScrapeResult, error) {
	payload, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("app: marshal scrape options: %w", err)
	}

	job, err := a.broker.Submit(ctx, models.KindScrape, string(engine), rawURL, payload, apiKeyID, origin)
	if err != nil {
		return nil, fmt.Errorf("app: submit scrape job: %w", err)
	}

	q, err := a.queues.Queue(ctx, models.KindScrape, engine)
	if err != nil {
		return nil, fmt.Errorf("app: resolve scrape queue: %w", err)
	}

	uniqueKey := common.NewUniqueKey()
	ch := a.waiter.register(uniqueKey)

	req := &models.EngineRequest{
		URL:       rawURL,
		UniqueKey: uniqueKey,
		UserData: models.UserData{
			JobID:     job.JobID,
			QueueName: interfaces.QueueName(models.KindScrape, engine),
			Kind:      string(models.KindScrape),
			Options:   opts,
		},
	}
	if err := q.Enqueue(ctx, req); err != nil {
		a.waiter.drop(uniqueKey)
		return nil, fmt.Errorf("app: enqueue scrape request: %w", err)
	}

	select {
	case out := <-ch:
		if out.err != nil {
			return &ScrapeResult{JobID: job.JobID, Record: out.record}, out.err
		}
		return &ScrapeResult{JobID: job.JobID, Record: out.record}, nil
	case <-ctx.Done():
		a.waiter.drop(uniqueKey)
		return &ScrapeResult{JobID: job.JobID}, ctx.Err()
	}
}

// Crawl submits a crawl job and seeds the frontier with it, returning
// immediately (spec §6: POST /v1/crawl responds with {job_id, status:
// "created"} before any page has actually been fetched).
func (a *App) Crawl(ctx context.Context, seedURL string, crawlOpts models.CrawlOptions, scrapeOpts models.ScrapeOptions, engine interfaces.EngineName, apiKeyID, origin string) (*models.Job, error) {
	payload, err := json.Marshal(struct {
		Crawl  models.CrawlOptions  `json:"crawl_options"`
		Scrape models.ScrapeOptions `json:"scrape_options"`
	}{crawlOpts, scrapeOpts})
	if err != nil {
		return nil, fmt.Errorf("app: marshal crawl options: %w", err)
	}

	job, err := a.broker.Submit(ctx, models.KindCrawl, string(engine), seedURL, payload, apiKeyID, origin)
	if err != nil {
		return nil, fmt.Errorf("app: submit crawl job: %w", err)
	}

	crawlOpts.ScrapeOptions = &scrapeOpts
	if err := a.frontier.Seed(ctx, job.JobID, seedURL, engine, crawlOpts); err != nil {
		return job, fmt.Errorf("app: seed frontier: %w", err)
	}
	return job, nil
}

// CrawlStatus returns a crawl/search job's row plus its live C6 counters
// (spec §6: GET /v1/crawl/{jobId}/status).
func (a *App) CrawlStatus(ctx context.Context, jobID string) (*models.Job, *models.CrawlState, error) {
	return a.broker.Status(ctx, jobID)
}

// CrawlResults pages a job's accumulated results (spec §6: GET
// /v1/crawl/{jobId}?skip=N).
func (a *App) CrawlResults(ctx context.Context, jobID string, skip, limit int) ([]*models.JobResult, int, *int, error) {
	return a.broker.Results(ctx, jobID, skip, limit)
}

// CancelCrawl cancels an in-flight job (spec §6: DELETE /v1/crawl/{jobId}).
// Returns broker.ErrAlreadyTerminal if the job has already settled.
func (a *App) CancelCrawl(ctx context.Context, jobID string) error {
	return a.broker.Cancel(ctx, jobID)
}

// ErrJobNotFound re-exports the broker's not-found sentinel so
// internal/httpapi can map it to 404 without importing internal/broker
// directly for error comparison.
var ErrJobNotFound = broker.ErrNotFound

// ErrJobAlreadyTerminal re-exports the broker's terminal-conflict sentinel
// (spec §6: DELETE on a finished job returns 409).
var ErrJobAlreadyTerminal = broker.ErrAlreadyTerminal

// Search implements the synchronous /v1/search contract by delegating
// straight to the Search Orchestrator (C9).
func (a *App) Search(ctx context.Context, req interfaces.SearchRequest) ([]interfaces.SearchResultItem, error) {
	return a.search.Search(ctx, req)
}
