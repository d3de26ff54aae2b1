// Package app wires C1-C9 into one running process: it is the composition
// root the teacher's cmd/server/main.go plays for its own App, generalized
// to construct every component this spec's pipeline needs and to implement
// the single queue.RequestProcessor the worker pool dispatches every
// settled request through.
package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/broker"
	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
	"github.com/anycrawl/anycrawl-core/internal/search"
)

// processor implements queue.RequestProcessor (structurally — it is never
// imported as that type, only satisfies its shape) for the scrape and crawl
// kinds; search-kind requests are routed straight through to the injected
// search.Orchestrator, which already implements the same shape.
type processor struct {
	broker    *broker.Broker
	frontier  interfaces.Frontier
	extractor interfaces.Extractor
	search    *search.Orchestrator
	waiter    *scrapeWaiter
	logger    arbor.ILogger
}

func newProcessor(brk *broker.Broker, fr interfaces.Frontier, ext interfaces.Extractor, so *search.Orchestrator, waiter *scrapeWaiter, logger arbor.ILogger) *processor {
	return &processor{broker: brk, frontier: fr, extractor: ext, search: so, waiter: waiter, logger: logger}
}

// Process dispatches a settled EngineRequest by UserData.Kind. engErr is set
// once C3 gives up on a request, either because every retryable attempt was
// exhausted or the error wasn't retryable to begin with (spec §4.2/§7); ec
// may still be non-nil alongside it for a best-effort HTTP_ERROR body.
func (p *processor) Process(ctx context.Context, req *models.EngineRequest, ec *interfaces.EngineContext, engErr error) error {
	switch models.Kind(req.UserData.Kind) {
	case models.KindSearch:
		return p.search.Process(ctx, req, ec, engErr)
	case models.KindScrape:
		return p.processScrape(ctx, req, ec, engErr)
	case models.KindCrawl:
		return p.processCrawl(ctx, req, ec, engErr)
	default:
		p.logger.Warn().Str("kind", req.UserData.Kind).Msg("processor: unknown request kind, dropping")
		return nil
	}
}

// processScrape fulfils one synchronous /v1/scrape call: extract (or
// surface the engine error), deliver to the waiting HTTP handler, and close
// out the job row the same call created for audit/credit purposes. When the
// engine returned an HTTP_ERROR alongside a best-effort ec (spec §4.7: "the
// adapter still attempts extraction once"), extraction still runs so the
// failure payload carries the body the origin returned (spec §8 scenario 2).
func (p *processor) processScrape(ctx context.Context, req *models.EngineRequest, ec *interfaces.EngineContext, engErr error) error {
	if engErr != nil && ec == nil {
		p.waiter.deliver(req.UniqueKey, scrapeOutcome{err: engErr})
		p.finishScrapeJob(ctx, req.UserData.JobID, false, engErr.Error())
		return nil
	}

	opts := extractOptionsFrom(req.UserData.Options)
	record, err := p.extractor.Extract(ctx, ec, opts)
	if err != nil {
		if engErr != nil {
			err = engErr
		}
		p.waiter.deliver(req.UniqueKey, scrapeOutcome{err: err})
		p.finishScrapeJob(ctx, req.UserData.JobID, false, err.Error())
		return nil
	}

	if engErr != nil {
		p.waiter.deliver(req.UniqueKey, scrapeOutcome{record: record, err: engErr})
		p.finishScrapeJob(ctx, req.UserData.JobID, false, engErr.Error())
		return nil
	}

	p.waiter.deliver(req.UniqueKey, scrapeOutcome{record: record})
	p.finishScrapeJob(ctx, req.UserData.JobID, true, "")
	return nil
}

func (p *processor) finishScrapeJob(ctx context.Context, jobID string, success bool, errMsg string) {
	status := models.StatusCompleted
	if !success {
		status = models.StatusFailed
	}
	if err := p.broker.MarkJobTerminal(ctx, jobID, status, success, errMsg); err != nil {
		p.logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to finalize scrape job row")
	}
}

// processCrawl handles one fetched crawl page: persist a JobResult row,
// run C5 discovery over the page content for outbound links, and mark C6's
// done counter — writing the terminal job row the instant IncrDone's
// finalization predicate flips.
func (p *processor) processCrawl(ctx context.Context, req *models.EngineRequest, ec *interfaces.EngineContext, engErr error) error {
	var record *interfaces.ExtractionRecord
	var extractErr error

	if ec != nil {
		opts := extractOptionsFrom(req.UserData.Options)
		record, extractErr = p.extractor.Extract(ctx, ec, opts)
	}
	succeeded := engErr == nil && extractErr == nil

	if err := p.persistCrawlResult(ctx, req, record, succeeded, engErr, extractErr); err != nil {
		p.logger.Warn().Err(err).Str("job_id", req.UserData.JobID).Str("url", req.URL).Msg("failed to persist crawl result")
	}
	if err := p.broker.IncrementCounters(ctx, req.UserData.JobID, succeeded); err != nil {
		p.logger.Warn().Err(err).Str("job_id", req.UserData.JobID).Msg("failed to update job counters")
	}

	if succeeded && req.UserData.CrawlOptions != nil {
		if html, err := pageContent(ctx, ec); err == nil {
			page := interfaces.DiscoveredURL{URL: req.URL, ParentURL: req.UserData.ParentURL, Depth: req.UserData.Depth}
			engine := interfaces.EngineName(engineOf(req))
			if _, err := p.frontier.Discover(ctx, req.UserData.JobID, html, page, engine, *req.UserData.CrawlOptions); err != nil {
				p.logger.Warn().Err(err).Str("job_id", req.UserData.JobID).Msg("link discovery failed")
			}
		}
	}

	finalized, state, err := p.frontier.Complete(ctx, req.UserData.JobID, succeeded)
	if err != nil {
		p.logger.Warn().Err(err).Str("job_id", req.UserData.JobID).Msg("failed to record completion")
		return nil
	}
	if finalized {
		isSuccess := state == nil || state.Failed == 0
		if err := p.broker.MarkJobTerminal(ctx, req.UserData.JobID, models.StatusCompleted, isSuccess, ""); err != nil {
			p.logger.Warn().Err(err).Str("job_id", req.UserData.JobID).Msg("failed to finalize crawl job row")
		}
	}
	return nil
}

// persistCrawlResult writes one page's JobResult row. record may be set even
// when succeeded is false (spec §4.7/§8 scenario 2: a best-effort extraction
// off a non-2xx response still attaches its body to the failure payload).
func (p *processor) persistCrawlResult(ctx context.Context, req *models.EngineRequest, record *interfaces.ExtractionRecord, succeeded bool, engErr, extractErr error) error {
	status := models.ResultSuccess
	errMsg := ""
	if !succeeded {
		status = models.ResultFailed
		if engErr != nil {
			errMsg = engErr.Error()
		} else if extractErr != nil {
			errMsg = extractErr.Error()
		}
	}

	var data json.RawMessage
	if record != nil {
		raw, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("app: marshal extraction record: %w", err)
		}
		data = raw
	}

	result := &models.JobResult{
		URL:    req.URL,
		Data:   data,
		Status: status,
		Error:  errMsg,
	}
	return p.broker.RecordResult(ctx, req.UserData.JobID, result)
}

func extractOptionsFrom(opts models.ScrapeOptions) interfaces.ExtractOptions {
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

func pageContent(ctx context.Context, ec *interfaces.EngineContext) (string, error) {
	if ec == nil {
		return "", fmt.Errorf("app: no engine context")
	}
	if ec.Browser != nil && ec.Browser.PageContent != nil {
		return ec.Browser.PageContent(ctx)
	}
	if ec.Static != nil {
		return string(ec.Static.Body), nil
	}
	return "", fmt.Errorf("app: engine context has neither static body nor browser page content")
}

// engineOf recovers the engine a request ran against from its queue name
// ("crawl-browserA" -> "browserA"), since UserData does not carry the engine
// directly (it is implied by which queue the request was dequeued from).
func engineOf(req *models.EngineRequest) string {
	prefix := req.UserData.Kind + "-"
	if len(req.UserData.QueueName) > len(prefix) && req.UserData.QueueName[:len(prefix)] == prefix {
		return req.UserData.QueueName[len(prefix):]
	}
	return string(interfaces.EngineStatic)
}
