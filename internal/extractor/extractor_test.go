package extractor

import (
	"context"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

const samplePage = `<html><head><title>Sample</title>
	<meta name="description" content="a sample page">
</head><body>
	<nav>nav</nav>
	<article><h1>Heading</h1><p>Body text with a <a href="/rel">link</a>.</p></article>
	<footer>foot</footer>
</body></html>`

type fakeLLMAgent struct {
	lastContent string
	data        interface{}
}

func (a *fakeLLMAgent) Extract(ctx context.Context, content string, schema *models.ExtractSchema, prompt, model string, costLimit float64) (*interfaces.ExtractResult, error) {
	a.lastContent = content
	return &interfaces.ExtractResult{Data: a.data, Tokens: interfaces.TokenUsage{Input: 10, Output: 5, Total: 15}}, nil
}

func staticContext(url, html string) *interfaces.EngineContext {
	return &interfaces.EngineContext{
		Request:  &models.EngineRequest{URL: url},
		Response: interfaces.FetchResponse{StatusCode: 200, FinalURL: url},
		Static:   &interfaces.StaticContext{Body: []byte(html)},
	}
}

func TestExtractRawHTMLAndMarkdownAndText(t *testing.T) {
	ec := staticContext("https://example.com/page", samplePage)
	ex := New(nil, arbor.NewLogger())

	record, err := ex.Extract(context.Background(), ec, interfaces.ExtractOptions{
		Formats: []interfaces.Format{interfaces.FormatRawHTML, interfaces.FormatMarkdown, interfaces.FormatText, interfaces.FormatHTML},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.Title != "Sample" {
		t.Errorf("title = %q", record.Title)
	}
	if record.Metadata["description"] != "a sample page" {
		t.Errorf("metadata missing description: %v", record.Metadata)
	}
	if record.RawHTML == "" {
		t.Errorf("rawHtml empty")
	}

	md, ok := record.Formats[interfaces.FormatMarkdown].(string)
	if !ok || md == "" {
		t.Fatalf("markdown format missing: %v", record.Formats)
	}

	text, ok := record.Formats[interfaces.FormatText].(string)
	if !ok || text == "" {
		t.Fatalf("text format missing")
	}

	html, ok := record.Formats[interfaces.FormatHTML].(string)
	if !ok {
		t.Fatalf("html format missing")
	}
	if !containsAny(html, "nav") {
		t.Errorf("expected html format to keep nav/footer when no exclude_tags given: %s", html)
	}
}

func TestExtractHTMLFormatAppliesExcludeTags(t *testing.T) {
	ec := staticContext("https://example.com/page", samplePage)
	ex := New(nil, arbor.NewLogger())

	record, err := ex.Extract(context.Background(), ec, interfaces.ExtractOptions{
		Formats:     []interfaces.Format{interfaces.FormatHTML},
		ExcludeTags: []string{"nav", "footer"},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	html := record.Formats[interfaces.FormatHTML].(string)
	if containsAny(html, "nav", "foot") {
		t.Errorf("expected nav/footer stripped: %s", html)
	}
}

func TestExtractJSONDelegatesToAgentWithMarkdown(t *testing.T) {
	ec := staticContext("https://example.com/page", samplePage)
	agent := &fakeLLMAgent{data: map[string]interface{}{"heading": "Heading"}}
	ex := New(agent, arbor.NewLogger())

	record, err := ex.Extract(context.Background(), ec, interfaces.ExtractOptions{
		Formats: []interfaces.Format{interfaces.FormatJSON},
		JSON:    &interfaces.JSONExtractRequest{SchemaJSON: `{"type":"object","properties":{"heading":{"type":"string"}}}`},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	data, ok := record.Formats[interfaces.FormatJSON]
	if !ok {
		t.Fatalf("json format missing")
	}
	m, ok := data.(map[string]interface{})
	if !ok || m["heading"] != "Heading" {
		t.Fatalf("unexpected json data: %v", data)
	}
	if agent.lastContent == "" {
		t.Errorf("expected markdown content forwarded to agent")
	}
}

func TestExtractJSONSkippedWhenOptionsAbsent(t *testing.T) {
	ec := staticContext("https://example.com/page", samplePage)
	ex := New(nil, arbor.NewLogger())

	record, err := ex.Extract(context.Background(), ec, interfaces.ExtractOptions{
		Formats: []interfaces.Format{interfaces.FormatJSON},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, ok := record.Formats[interfaces.FormatJSON]; ok {
		t.Errorf("expected json format omitted without json_options")
	}
}

func TestExtractScreenshotUsesBrowserClosure(t *testing.T) {
	called := false
	ec := &interfaces.EngineContext{
		Request:  &models.EngineRequest{URL: "https://example.com/"},
		Response: interfaces.FetchResponse{FinalURL: "https://example.com/"},
		Browser: &interfaces.BrowserContext{
			PageContent: func(ctx context.Context) (string, error) { return samplePage, nil },
			Screenshot: func(ctx context.Context, fullPage bool) ([]byte, error) {
				called = true
				if !fullPage {
					t.Errorf("expected fullPage=true")
				}
				return []byte("jpeg-bytes"), nil
			},
		},
	}
	ex := New(nil, arbor.NewLogger())

	record, err := ex.Extract(context.Background(), ec, interfaces.ExtractOptions{
		Formats: []interfaces.Format{interfaces.FormatScreenshotFull},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !called {
		t.Fatalf("expected screenshot closure invoked")
	}
	shot, ok := record.Formats[interfaces.FormatScreenshotFull].([]byte)
	if !ok || string(shot) != "jpeg-bytes" {
		t.Fatalf("unexpected screenshot payload: %v", record.Formats[interfaces.FormatScreenshotFull])
	}
}

func TestExtractScreenshotFailureOmittedNotFatal(t *testing.T) {
	ec := &interfaces.EngineContext{
		Request: &models.EngineRequest{URL: "https://example.com/"},
		Static:  &interfaces.StaticContext{Body: []byte(samplePage)},
	}
	ex := New(nil, arbor.NewLogger())

	record, err := ex.Extract(context.Background(), ec, interfaces.ExtractOptions{
		Formats: []interfaces.Format{interfaces.FormatScreenshot, interfaces.FormatText},
	})
	if err != nil {
		t.Fatalf("Extract should not fail the whole record on screenshot failure: %v", err)
	}
	if _, ok := record.Formats[interfaces.FormatScreenshot]; ok {
		t.Errorf("expected screenshot omitted for a static (non-browser) context")
	}
	if _, ok := record.Formats[interfaces.FormatText]; !ok {
		t.Errorf("expected other formats to still be produced")
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
