// Package search implements the Search Orchestrator (C9): fan a query out
// across N search-engine result pages via C3, optionally re-fetch every
// organic result URL for C7/C8 extraction, and resolve once every enqueued
// page has settled. The teacher has no search-engine harvester of its own,
// so the fan-out/accumulate shape here is grounded on the general
// queue/worker pattern of queue.WorkerPool plus the shared-accumulator-map
// pattern the teacher uses to aggregate child-job statistics in its job
// state package.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/common"
	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// serpStage and pageStage are the two UserData.SearchStage values this
// package enqueues: a SERP fetch that gets parsed for organic listings, and
// an optional per-result-URL fetch for extraction.
const (
	serpStage = "serp"
	pageStage = "page"
)

// pendingSearch is the shared in-memory accumulator for one Search call
// (spec §4.9): a map keyed by unique_key tracks which in-flight request owns
// which slot, a pending counter resolves the call when it reaches zero.
type pendingSearch struct {
	mu      sync.Mutex
	pending int
	items   []*interfaces.SearchResultItem
	byKey   map[string]*interfaces.SearchResultItem
	once    sync.Once
	done    chan struct{}
}

func newPendingSearch() *pendingSearch {
	return &pendingSearch{byKey: make(map[string]*interfaces.SearchResultItem), done: make(chan struct{})}
}

// add increments pending by n, used both for the initial per-page fan-out and
// for the per-result second wave when scrape_options is set.
func (p *pendingSearch) add(n int) {
	p.mu.Lock()
	p.pending += n
	p.mu.Unlock()
}

func (p *pendingSearch) appendItem(uniqueKey string, item interfaces.SearchResultItem) *interfaces.SearchResultItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	stored := item
	p.items = append(p.items, &stored)
	if uniqueKey != "" {
		p.byKey[uniqueKey] = &stored
	}
	return &stored
}

func (p *pendingSearch) lookup(uniqueKey string) *interfaces.SearchResultItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byKey[uniqueKey]
}

// settle decrements pending by one and closes done once it reaches zero.
func (p *pendingSearch) settle() {
	p.mu.Lock()
	p.pending--
	resolved := p.pending <= 0
	p.mu.Unlock()
	if resolved {
		p.once.Do(func() { close(p.done) })
	}
}

func (p *pendingSearch) snapshot() []interfaces.SearchResultItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]interfaces.SearchResultItem, len(p.items))
	for i, it := range p.items {
		out[i] = *it
	}
	return out
}

// Orchestrator implements interfaces.SearchOrchestrator.
type Orchestrator struct {
	queues    interfaces.QueueManager
	extractor interfaces.Extractor // optional; nil disables scrape_options re-extraction
	engine    interfaces.EngineName
	logger    arbor.ILogger

	mu       sync.Mutex
	searches map[string]*pendingSearch           // unique_key -> owning search, for Process lookups
	contexts map[string]interfaces.SearchRequest // serp-stage unique_key -> the request that spawned it
}

// New wires an Orchestrator against the queue manager every page request is
// enqueued through, the engine (C2 variant) search pages are fetched with,
// and an optional C7 Extractor for scrape_options re-extraction.
func New(queues interfaces.QueueManager, extractor interfaces.Extractor, engine interfaces.EngineName, logger arbor.ILogger) *Orchestrator {
	return &Orchestrator{
		queues:    queues,
		extractor: extractor,
		engine:    engine,
		logger:    logger,
		searches:  make(map[string]*pendingSearch),
	}
}

func effectivePages(req interfaces.SearchRequest) int {
	if req.Limit > 0 {
		return int(math.Ceil(float64(req.Limit) / 10.0))
	}
	if req.Pages > 0 {
		return req.Pages
	}
	return 1
}

// Search implements interfaces.SearchOrchestrator.Search: enqueue one SERP
// request per page, block until every page (and, if requested, every
// organic result page) has settled, then slice to the requested limit.
func (o *Orchestrator) Search(ctx context.Context, req interfaces.SearchRequest) ([]interfaces.SearchResultItem, error) {
	pages := effectivePages(req)
	jobID := common.NewJobID()

	q, err := o.queues.Queue(ctx, models.KindSearch, o.engine)
	if err != nil {
		return nil, fmt.Errorf("search: resolve queue: %w", err)
	}

	ps := newPendingSearch()
	ps.add(pages)

	for p := 1; p <= pages; p++ {
		addr, err := pageURL(req.Engine, req.Query, p, req.Lang, req.Country)
		if err != nil {
			return nil, err
		}
		uniqueKey := common.NewUniqueKey()
		o.register(uniqueKey, ps)

		er := &models.EngineRequest{
			URL:       addr,
			UniqueKey: uniqueKey,
			UserData: models.UserData{
				JobID:       jobID,
				QueueName:   interfaces.QueueName(models.KindSearch, o.engine),
				Kind:        string(models.KindSearch),
				SearchStage: serpStage,
			},
		}
		o.storeSearchContext(uniqueKey, req)
		if err := q.Enqueue(ctx, er); err != nil {
			o.unregister(uniqueKey)
			o.takeSearchContext(uniqueKey)
			ps.settle()
			continue
		}
	}

	select {
	case <-ps.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	items := ps.snapshot()
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[:req.Limit]
	}
	return items, nil
}

func (o *Orchestrator) register(uniqueKey string, ps *pendingSearch) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.searches[uniqueKey] = ps
}

func (o *Orchestrator) unregister(uniqueKey string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.searches, uniqueKey)
}

func (o *Orchestrator) owner(uniqueKey string) *pendingSearch {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.searches[uniqueKey]
}

// storeSearchContext remembers the SearchRequest a SERP-stage unique_key was
// spawned from, so Process can later decide whether to fan out a second wave
// of per-result page fetches (scrape_options) once that page settles.
func (o *Orchestrator) storeSearchContext(uniqueKey string, req interfaces.SearchRequest) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.contexts == nil {
		o.contexts = make(map[string]interfaces.SearchRequest)
	}
	o.contexts[uniqueKey] = req
}

func (o *Orchestrator) takeSearchContext(uniqueKey string) (interfaces.SearchRequest, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	req, ok := o.contexts[uniqueKey]
	delete(o.contexts, uniqueKey)
	return req, ok
}

// Process implements queue.RequestProcessor: it is the handler the worker
// pool invokes once a search-queue request settles, for both SERP and
// per-result-page fetches. ec may be nil when engErr is set.
func (o *Orchestrator) Process(ctx context.Context, req *models.EngineRequest, ec *interfaces.EngineContext, engErr error) error {
	ps := o.owner(req.UniqueKey)
	if ps == nil {
		o.logger.Warn().Str("unique_key", req.UniqueKey).Msg("search: settled request has no owning search, dropping")
		return nil
	}
	defer o.unregister(req.UniqueKey)

	switch req.UserData.SearchStage {
	case pageStage:
		return o.processPage(ctx, req, ec, engErr, ps)
	default:
		return o.processSERP(ctx, req, ec, engErr, ps)
	}
}

func (o *Orchestrator) processSERP(ctx context.Context, req *models.EngineRequest, ec *interfaces.EngineContext, engErr error, ps *pendingSearch) error {
	defer ps.settle()

	if engErr != nil {
		o.logger.Warn().Err(engErr).Str("url", req.URL).Msg("search: serp fetch failed, page counts as empty")
		return nil
	}

	searchReq, _ := o.takeSearchContext(req.UniqueKey)
	html, err := pageContent(ctx, ec)
	if err != nil {
		o.logger.Warn().Err(err).Str("url", req.URL).Msg("search: could not read serp content")
		return nil
	}

	results, err := parseSERP(searchReq.Engine, html)
	if err != nil {
		o.logger.Warn().Err(err).Str("url", req.URL).Msg("search: serp parse failed")
		return nil
	}

	for _, r := range results {
		item := interfaces.SearchResultItem{URL: r.URL, Title: r.Title}
		if searchReq.ScrapeOptions == nil || o.extractor == nil {
			ps.appendItem("", item)
			continue
		}

		uniqueKey := common.NewUniqueKey()
		ps.appendItem(uniqueKey, item)
		o.register(uniqueKey, ps)
		ps.add(1)

		q, err := o.queues.Queue(ctx, models.KindSearch, o.engine)
		if err != nil {
			o.logger.Warn().Err(err).Msg("search: resolve queue for page fetch failed")
			o.unregister(uniqueKey)
			ps.settle()
			continue
		}
		pageReq := &models.EngineRequest{
			URL:       r.URL,
			UniqueKey: uniqueKey,
			UserData: models.UserData{
				JobID:       req.UserData.JobID,
				QueueName:   interfaces.QueueName(models.KindSearch, o.engine),
				Kind:        string(models.KindSearch),
				SearchStage: pageStage,
				Options:     *searchReq.ScrapeOptions,
			},
		}
		if err := q.Enqueue(ctx, pageReq); err != nil {
			o.logger.Warn().Err(err).Str("url", r.URL).Msg("search: enqueue page fetch failed")
			o.unregister(uniqueKey)
			ps.settle()
		}
	}
	return nil
}

func (o *Orchestrator) processPage(ctx context.Context, req *models.EngineRequest, ec *interfaces.EngineContext, engErr error, ps *pendingSearch) error {
	defer ps.settle()

	item := ps.lookup(req.UniqueKey)
	if item == nil {
		return nil
	}
	if engErr != nil {
		o.logger.Warn().Err(engErr).Str("url", req.URL).Msg("search: result page fetch failed, leaving data empty")
		return nil
	}

	opts := toExtractOptions(req.UserData.Options)
	record, err := o.extractor.Extract(ctx, ec, opts)
	if err != nil {
		o.logger.Warn().Err(err).Str("url", req.URL).Msg("search: result page extraction failed")
		return nil
	}
	item.Data = record
	return nil
}

func pageContent(ctx context.Context, ec *interfaces.EngineContext) (string, error) {
	if ec == nil {
		return "", fmt.Errorf("search: no engine context")
	}
	if ec.Browser != nil && ec.Browser.PageContent != nil {
		return ec.Browser.PageContent(ctx)
	}
	if ec.Static != nil {
		return string(ec.Static.Body), nil
	}
	return "", fmt.Errorf("search: engine context has neither static body nor browser page content")
}

func toExtractOptions(opts models.ScrapeOptions) interfaces.ExtractOptions {
	formats := make([]interfaces.Format, 0, len(opts.Formats))
	for _, f := range opts.Formats {
		formats = append(formats, interfaces.Format(f))
	}
	if len(formats) == 0 {
		formats = []interfaces.Format{interfaces.FormatMarkdown}
	}

	out := interfaces.ExtractOptions{
		Formats:     formats,
		IncludeTags: opts.IncludeTags,
		ExcludeTags: opts.ExcludeTags,
	}
	if opts.JSONOptions != nil {
		schemaJSON, err := json.Marshal(opts.JSONOptions.Schema)
		if err == nil {
			out.JSON = &interfaces.JSONExtractRequest{
				SchemaJSON: string(schemaJSON),
				Prompt:     opts.JSONOptions.Prompt,
				Model:      opts.JSONOptions.Model,
				CostLimit:  opts.JSONOptions.CostLimit,
			}
		}
	}
	return out
}

var _ interfaces.SearchOrchestrator = (*Orchestrator)(nil)
