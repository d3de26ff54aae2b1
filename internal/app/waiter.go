package app

import (
	"sync"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

// scrapeOutcome is what a settled scrape-kind request resolves to: either an
// extraction record or the engine/extraction error that stopped it.
type scrapeOutcome struct {
	record *interfaces.ExtractionRecord
	err    error
}

// scrapeWaiter lets the synchronous /v1/scrape handler block on a request
// that is, underneath, driven through the same C3 queue/worker path as
// crawl and search — the same collapse-async-to-sync shape search.Orchestrator
// uses for its own SERP fan-out, narrowed here to exactly one slot per call.
type scrapeWaiter struct {
	mu sync.Mutex
	ch map[string]chan scrapeOutcome
}

func newScrapeWaiter() *scrapeWaiter {
	return &scrapeWaiter{ch: make(map[string]chan scrapeOutcome)}
}

// register allocates the one-shot channel a scrape request will be delivered
// on, keyed by the EngineRequest's unique_key.
func (w *scrapeWaiter) register(uniqueKey string) chan scrapeOutcome {
	c := make(chan scrapeOutcome, 1)
	w.mu.Lock()
	w.ch[uniqueKey] = c
	w.mu.Unlock()
	return c
}

// deliver hands the outcome to the waiting caller, if anyone is still
// waiting (the caller's context may already have timed out and moved on).
func (w *scrapeWaiter) deliver(uniqueKey string, out scrapeOutcome) {
	w.mu.Lock()
	c, ok := w.ch[uniqueKey]
	delete(w.ch, uniqueKey)
	w.mu.Unlock()
	if ok {
		c <- out
	}
}

// drop discards a registration without delivering, used when the caller's
// context is done before the queue ever settles the request.
func (w *scrapeWaiter) drop(uniqueKey string) {
	w.mu.Lock()
	delete(w.ch, uniqueKey)
	w.mu.Unlock()
}
