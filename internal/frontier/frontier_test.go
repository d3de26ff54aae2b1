package frontier

import (
	"context"
	"sync"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// fakeQueue records every enqueued request for assertions.
type fakeQueue struct {
	mu   sync.Mutex
	reqs []*models.EngineRequest
}

func (q *fakeQueue) Enqueue(ctx context.Context, req *models.EngineRequest) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.reqs = append(q.reqs, req)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*interfaces.Delivery, error) { return nil, nil }
func (q *fakeQueue) Close() error                                             { return nil }

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.reqs)
}

type fakeQueueManager struct {
	mu     sync.Mutex
	queues map[string]*fakeQueue
}

func newFakeQueueManager() *fakeQueueManager {
	return &fakeQueueManager{queues: make(map[string]*fakeQueue)}
}

func (m *fakeQueueManager) Queue(ctx context.Context, kind models.Kind, engine interfaces.EngineName) (interfaces.Queue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := interfaces.QueueName(kind, engine)
	q, ok := m.queues[name]
	if !ok {
		q = &fakeQueue{}
		m.queues[name] = q
	}
	return q, nil
}

func (m *fakeQueueManager) Close() error { return nil }

func (m *fakeQueueManager) queueFor(kind models.Kind, engine interfaces.EngineName) *fakeQueue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queues[interfaces.QueueName(kind, engine)]
}

// fakeProgress is a no-op interfaces.ProgressEngine sufficient for Frontier's
// IncrEnqueued/IncrDone calls.
type fakeProgress struct {
	mu       sync.Mutex
	enqueued map[string]int64
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{enqueued: make(map[string]int64)}
}

func (p *fakeProgress) Start(ctx context.Context, jobID string) error { return nil }

func (p *fakeProgress) IncrEnqueued(ctx context.Context, jobID string, delta int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enqueued[jobID] += delta
	return nil
}

func (p *fakeProgress) IncrDone(ctx context.Context, jobID string, succeeded bool, target int64) (bool, *models.CrawlState, error) {
	return false, nil, nil
}

func (p *fakeProgress) Get(ctx context.Context, jobID string) (*models.CrawlState, error) {
	return nil, nil
}

func newTestFrontier() (*Frontier, *fakeQueueManager) {
	qm := newFakeQueueManager()
	f := New(qm, newFakeProgress(), arbor.NewLogger())
	return f, qm
}

func TestSeedEnqueuesSeedURL(t *testing.T) {
	f, qm := newTestFrontier()
	ctx := context.Background()
	opts := models.CrawlOptions{MaxDepth: 5, Strategy: "same-domain", IgnoreSitemap: true}

	if err := f.Seed(ctx, "job-1", "https://example.com/", interfaces.EngineStatic, opts); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	q := qm.queueFor(models.KindCrawl, interfaces.EngineStatic)
	if q.count() != 1 {
		t.Fatalf("expected 1 enqueued request, got %d", q.count())
	}
	if q.reqs[0].URL != "https://example.com/" {
		t.Errorf("got url %q", q.reqs[0].URL)
	}
	if q.reqs[0].UserData.Depth != 0 {
		t.Errorf("expected seed depth 0, got %d", q.reqs[0].UserData.Depth)
	}
}

func TestDiscoverAdmitsInScopeLinksOnly(t *testing.T) {
	f, qm := newTestFrontier()
	ctx := context.Background()
	opts := models.CrawlOptions{MaxDepth: 5, MaxDiscoveryDepth: 10, Strategy: "same-domain", IgnoreSitemap: true}

	if err := f.Seed(ctx, "job-2", "https://example.com/", interfaces.EngineStatic, opts); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	html := `
		<a href="https://example.com/page-1">in scope</a>
		<a href="https://other.test/page">out of scope</a>
	`
	page := interfaces.DiscoveredURL{URL: "https://example.com/", Depth: 0}
	admitted, err := f.Discover(ctx, "job-2", html, page, interfaces.EngineStatic, opts)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if admitted != 1 {
		t.Fatalf("expected 1 admitted link, got %d", admitted)
	}

	q := qm.queueFor(models.KindCrawl, interfaces.EngineStatic)
	if q.count() != 2 { // seed + 1 admitted link
		t.Fatalf("expected 2 total enqueues, got %d", q.count())
	}
}

func TestDiscoverDedupsAcrossCalls(t *testing.T) {
	f, qm := newTestFrontier()
	ctx := context.Background()
	opts := models.CrawlOptions{MaxDepth: 5, MaxDiscoveryDepth: 10, Strategy: "same-domain", IgnoreSitemap: true}
	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	require(f.Seed(ctx, "job-3", "https://example.com/", interfaces.EngineStatic, opts) == nil, "seed failed")

	html := `<a href="https://example.com/dup">dup</a>`
	page := interfaces.DiscoveredURL{URL: "https://example.com/", Depth: 0}

	admitted1, err := f.Discover(ctx, "job-3", html, page, interfaces.EngineStatic, opts)
	require(err == nil, "first discover failed")
	admitted2, err := f.Discover(ctx, "job-3", html, page, interfaces.EngineStatic, opts)
	require(err == nil, "second discover failed")

	if admitted1 != 1 || admitted2 != 0 {
		t.Fatalf("expected (1, 0) admissions, got (%d, %d)", admitted1, admitted2)
	}
	q := qm.queueFor(models.KindCrawl, interfaces.EngineStatic)
	if q.count() != 2 { // seed + the one genuinely-new link
		t.Fatalf("expected 2 enqueues, got %d", q.count())
	}
}

func TestDiscoverStopsAtLimit(t *testing.T) {
	f, qm := newTestFrontier()
	ctx := context.Background()
	opts := models.CrawlOptions{MaxDepth: 5, MaxDiscoveryDepth: 10, Strategy: "same-domain", Limit: 1, IgnoreSitemap: true}

	if err := f.Seed(ctx, "job-4", "https://example.com/", interfaces.EngineStatic, opts); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	html := `<a href="https://example.com/one">one</a><a href="https://example.com/two">two</a>`
	page := interfaces.DiscoveredURL{URL: "https://example.com/", Depth: 0}
	admitted, err := f.Discover(ctx, "job-4", html, page, interfaces.EngineStatic, opts)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if admitted != 0 {
		t.Fatalf("expected 0 admissions once limit (1) reached by the seed, got %d", admitted)
	}
	q := qm.queueFor(models.KindCrawl, interfaces.EngineStatic)
	if q.count() != 1 {
		t.Fatalf("expected only the seed enqueued, got %d", q.count())
	}
}

func TestDiscoverRespectsMaxDepth(t *testing.T) {
	f, qm := newTestFrontier()
	ctx := context.Background()
	opts := models.CrawlOptions{MaxDepth: 1, MaxDiscoveryDepth: 10, Strategy: "same-domain", IgnoreSitemap: true}

	if err := f.Seed(ctx, "job-5", "https://example.com/", interfaces.EngineStatic, opts); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	html := `<a href="https://example.com/child">child</a>`
	page := interfaces.DiscoveredURL{URL: "https://example.com/child", Depth: 1}
	admitted, err := f.Discover(ctx, "job-5", html, page, interfaces.EngineStatic, opts)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if admitted != 0 {
		t.Fatalf("expected depth-2 link beyond max_depth=1 to be rejected, got %d admitted", admitted)
	}
}
