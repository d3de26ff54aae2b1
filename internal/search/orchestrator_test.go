package search

import (
	"context"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// fakeQueue/fakeQueueManager collapse the async enqueue/dequeue/Process cycle
// into one synchronous call: Enqueue immediately "runs" the request against a
// fixture and feeds the settled result straight back into the orchestrator's
// Process, exactly what one worker iteration of queue.WorkerPool would do.
type fakeQueue struct {
	mgr *fakeQueueManager
}

func (q *fakeQueue) Enqueue(ctx context.Context, req *models.EngineRequest) error {
	html, ok := q.mgr.fixtures[req.URL]
	if !ok {
		html = q.mgr.serpHTML // SERP-stage URLs vary by page/engine; fall back to the shared fixture
	}
	ec := &interfaces.EngineContext{
		Request: req,
		Static:  &interfaces.StaticContext{Body: []byte(html)},
	}
	return q.mgr.orch.Process(ctx, req, ec, nil)
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*interfaces.Delivery, error) { return nil, nil }
func (q *fakeQueue) Close() error                                             { return nil }

type fakeQueueManager struct {
	orch     *Orchestrator
	serpHTML string
	fixtures map[string]string // per-URL override, used for stage-2 page fetches
}

func (m *fakeQueueManager) Queue(ctx context.Context, kind models.Kind, engine interfaces.EngineName) (interfaces.Queue, error) {
	return &fakeQueue{mgr: m}, nil
}
func (m *fakeQueueManager) Close() error { return nil }

type fakeExtractor struct {
	record *interfaces.ExtractionRecord
}

func (f *fakeExtractor) Extract(ctx context.Context, ec *interfaces.EngineContext, opts interfaces.ExtractOptions) (*interfaces.ExtractionRecord, error) {
	return f.record, nil
}

func TestEffectivePagesDerivesFromLimit(t *testing.T) {
	cases := []struct {
		req  interfaces.SearchRequest
		want int
	}{
		{interfaces.SearchRequest{Limit: 25}, 3},  // ceil(25/10)
		{interfaces.SearchRequest{Limit: 10}, 1},
		{interfaces.SearchRequest{Pages: 4}, 4},
		{interfaces.SearchRequest{}, 1},
	}
	for _, c := range cases {
		if got := effectivePages(c.req); got != c.want {
			t.Errorf("effectivePages(%+v) = %d, want %d", c.req, got, c.want)
		}
	}
}

func TestSearchFansOutPagesAndAccumulatesResults(t *testing.T) {
	mgr := &fakeQueueManager{serpHTML: googleFixture, fixtures: map[string]string{}}
	orch := New(mgr, nil, interfaces.EngineStatic, arbor.NewLogger())
	mgr.orch = orch

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	items, err := orch.Search(ctx, interfaces.SearchRequest{Query: "golang", Pages: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 4 { // 2 pages x 2 organic results per googleFixture
		t.Fatalf("expected 4 items, got %d: %+v", len(items), items)
	}
	for _, it := range items {
		if it.Data != nil {
			t.Errorf("expected nil Data without scrape_options, got %v", it.Data)
		}
	}
}

const fiveResultFixture = `
<html><body>
<div class="g"><h3>R1</h3><a href="https://example.com/1">l</a></div>
<div class="g"><h3>R2</h3><a href="https://example.com/2">l</a></div>
<div class="g"><h3>R3</h3><a href="https://example.com/3">l</a></div>
<div class="g"><h3>R4</h3><a href="https://example.com/4">l</a></div>
<div class="g"><h3>R5</h3><a href="https://example.com/5">l</a></div>
</body></html>
`

func TestSearchTruncatesToLimit(t *testing.T) {
	mgr := &fakeQueueManager{serpHTML: fiveResultFixture, fixtures: map[string]string{}}
	orch := New(mgr, nil, interfaces.EngineStatic, arbor.NewLogger())
	mgr.orch = orch

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Limit=3 -> effectivePages = ceil(3/10) = 1 page -> 5 raw results, truncate to 3.
	items, err := orch.Search(ctx, interfaces.SearchRequest{Query: "golang", Limit: 3})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected truncation to limit=3, got %d", len(items))
	}
}

func TestSearchWithScrapeOptionsExtractsEachResultPage(t *testing.T) {
	record := &interfaces.ExtractionRecord{Title: "extracted"}
	mgr := &fakeQueueManager{serpHTML: googleFixture, fixtures: map[string]string{
		"https://example.com/a": "<html><body>a</body></html>",
		"https://example.com/b": "<html><body>b</body></html>",
	}}
	orch := New(mgr, &fakeExtractor{record: record}, interfaces.EngineStatic, arbor.NewLogger())
	mgr.orch = orch

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	items, err := orch.Search(ctx, interfaces.SearchRequest{
		Query: "golang", Pages: 1,
		ScrapeOptions: &models.ScrapeOptions{Formats: []string{"markdown"}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	for _, it := range items {
		got, ok := it.Data.(*interfaces.ExtractionRecord)
		if !ok || got.Title != "extracted" {
			t.Errorf("expected extracted record attached, got %v", it.Data)
		}
	}
}

func TestSearchEmptySERPCountsPageAsEmptyNotFatal(t *testing.T) {
	mgr := &fakeQueueManager{serpHTML: "<html><body>no results</body></html>", fixtures: map[string]string{}}
	orch := New(mgr, nil, interfaces.EngineStatic, arbor.NewLogger())
	mgr.orch = orch

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	items, err := orch.Search(ctx, interfaces.SearchRequest{Query: "nothing", Pages: 1})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected 0 items for empty serp, got %d", len(items))
	}
}
