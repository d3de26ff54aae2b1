package llmagent

import (
	"sync"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

// callCost computes the USD cost of one call from its token usage (spec
// §4.8's cost tracking). cost = in*price_in + out*price_out.
func callCost(cfg ModelConfig, tokens interfaces.TokenUsage) float64 {
	return float64(tokens.Input)*cfg.PriceInPerToken + float64(tokens.Output)*cfg.PriceOutPerToken
}

// costTracker accumulates spend across calls within a single Extract
// invocation (chunked calls all count toward the same limit), raising
// CostLimitExceededError before any call that would push cumulative cost
// over a configured limit.
type costTracker struct {
	mu    sync.Mutex
	limit float64
	spent float64
}

func newCostTracker(limit float64) *costTracker {
	return &costTracker{limit: limit}
}

// reserve checks whether projected additional cost fits under the limit and,
// if so, books it immediately (so concurrent chunks within one Extract call
// can't all pass the check against a stale spent value).
func (c *costTracker) reserve(projected float64) error {
	if c.limit <= 0 {
		c.mu.Lock()
		c.spent += projected
		c.mu.Unlock()
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.spent+projected > c.limit {
		return &interfaces.CostLimitExceededError{Limit: c.limit, Projected: c.spent + projected}
	}
	c.spent += projected
	return nil
}

// reconcile replaces a previously-reserved projection with the call's actual
// cost once token usage is known, keeping the running total accurate for
// subsequent chunks' reserve() checks.
func (c *costTracker) reconcile(projected, actual float64) {
	c.mu.Lock()
	c.spent += actual - projected
	c.mu.Unlock()
}

func (c *costTracker) total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spent
}
