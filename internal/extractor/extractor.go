// Package extractor implements the Data Extractor (C7): given a sealed
// EngineContext and a requested-formats set, it produces one ExtractionRecord
// by building format outputs concurrently over a single shared DOM parse,
// grounded on the teacher's content_processor.go (ProcessHTML's
// extract-title/convert/extract-links/extract-metadata shape) but delegating
// markdown conversion to the real html-to-markdown library the teacher's own
// html_scraper.go wires up for live scrapes, rather than its hand-rolled
// processElement walk.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

func parseSchema(raw string) (*models.ExtractSchema, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("extractor: empty json schema")
	}
	var schema models.ExtractSchema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return nil, fmt.Errorf("extractor: parse schema: %w", err)
	}
	return &schema, nil
}

// Extractor implements interfaces.Extractor.
type Extractor struct {
	agent  interfaces.LLMAgent // optional; when nil, the json format fails with an error
	logger arbor.ILogger
}

func New(agent interfaces.LLMAgent, logger arbor.ILogger) *Extractor {
	return &Extractor{agent: agent, logger: logger}
}

// Extract runs the pipeline described in spec §4.7: obtain a DOM view,
// extract title/metadata, then build every requested format concurrently.
func (e *Extractor) Extract(ctx context.Context, ec *interfaces.EngineContext, opts interfaces.ExtractOptions) (*interfaces.ExtractionRecord, error) {
	rawHTML, err := domContent(ctx, ec)
	if err != nil {
		return nil, &interfaces.ExtractionError{Step: "dom", Message: "failed to obtain DOM view", Cause: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		// Fall back to a minimal empty DOM rather than failing the whole
		// record (spec §4.7 step 1's "fall back to a minimal empty DOM").
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
	}

	base := baseURL(ec)
	title := extractTitle(doc)
	metadata := extractMetadata(doc)

	record := &interfaces.ExtractionRecord{
		Title:     title,
		Metadata:  metadata,
		Formats:   make(map[interfaces.Format]interface{}),
		Timestamp: time.Now().UTC().Unix(),
	}

	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)

	var markdownOnce sync.Once
	var markdownCache string
	var markdownErr error
	cleanedHTML := func() (string, error) {
		markdownOnce.Do(func() {
			markdownCache, markdownErr = buildHTML(doc, base, nil, []string{"script", "style", "nav", "footer", "aside"})
		})
		return markdownCache, markdownErr
	}

	for _, format := range opts.Formats {
		format := format
		switch format {
		case interfaces.FormatRawHTML:
			mu.Lock()
			record.RawHTML = rawHTML
			record.Formats[format] = rawHTML
			mu.Unlock()

		case interfaces.FormatHTML:
			group.Go(func() error {
				html, err := buildHTML(doc, base, opts.IncludeTags, opts.ExcludeTags)
				if err != nil {
					return &interfaces.ExtractionError{Step: "html", Message: "failed to build html format", Cause: err}
				}
				mu.Lock()
				record.Formats[format] = html
				mu.Unlock()
				return nil
			})

		case interfaces.FormatMarkdown:
			group.Go(func() error {
				cleaned, err := cleanedHTML()
				if err != nil {
					return &interfaces.ExtractionError{Step: "markdown", Message: "failed to clean html for conversion", Cause: err}
				}
				markdown, err := convertMarkdown(cleaned, base)
				if err != nil {
					return &interfaces.ExtractionError{Step: "markdown", Message: "conversion failed", Cause: err}
				}
				mu.Lock()
				record.Formats[format] = markdown
				mu.Unlock()
				return nil
			})

		case interfaces.FormatText:
			group.Go(func() error {
				text := extractText(doc)
				mu.Lock()
				record.Formats[format] = text
				mu.Unlock()
				return nil
			})

		case interfaces.FormatScreenshot, interfaces.FormatScreenshotFull:
			fullPage := format == interfaces.FormatScreenshotFull
			group.Go(func() error {
				shot, err := captureScreenshot(gctx, ec, fullPage)
				if err != nil {
					e.logger.Warn().Err(err).Msg("screenshot capture failed, omitting from record")
					return nil
				}
				mu.Lock()
				record.Formats[format] = shot
				mu.Unlock()
				return nil
			})

		case interfaces.FormatJSON:
			if opts.JSON == nil {
				continue
			}
			group.Go(func() error {
				cleaned, err := cleanedHTML()
				if err != nil {
					return &interfaces.ExtractionError{Step: "json", Message: "failed to prepare content for extraction", Cause: err}
				}
				markdown, err := convertMarkdown(cleaned, base)
				if err != nil {
					return &interfaces.ExtractionError{Step: "json", Message: "failed to render markdown for extraction", Cause: err}
				}
				result, err := e.extractJSON(gctx, markdown, opts.JSON)
				if err != nil {
					return &interfaces.ExtractionError{Step: "json", Message: "llm extraction failed", Cause: err}
				}
				mu.Lock()
				record.Formats[format] = result
				mu.Unlock()
				return nil
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return record, nil
}

func (e *Extractor) extractJSON(ctx context.Context, markdown string, req *interfaces.JSONExtractRequest) (interface{}, error) {
	if e.agent == nil {
		return nil, fmt.Errorf("no LLM agent configured for json format")
	}
	schema, err := parseSchema(req.SchemaJSON)
	if err != nil {
		return nil, err
	}
	result, err := e.agent.Extract(ctx, markdown, schema, req.Prompt, req.Model, req.CostLimit)
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// domContent obtains the HTML view per spec §4.7 step 1: prefer a
// browser's late-bound PageContent(), else the static body.
func domContent(ctx context.Context, ec *interfaces.EngineContext) (string, error) {
	if ec.Browser != nil && ec.Browser.PageContent != nil {
		return ec.Browser.PageContent(ctx)
	}
	if ec.Static != nil {
		return string(ec.Static.Body), nil
	}
	return "", nil
}

func baseURL(ec *interfaces.EngineContext) *url.URL {
	raw := ec.Response.FinalURL
	if raw == "" && ec.Request != nil {
		raw = ec.Request.URL
	}
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}

var _ interfaces.Extractor = (*Extractor)(nil)
