package interfaces

import (
	"context"

	"github.com/anycrawl/anycrawl-core/internal/models"
)

// TokenUsage mirrors the {input, output, total} triple from spec §4.8.
type TokenUsage struct {
	Input  int
	Output int
	Total  int
}

// ExtractResult is C8's output contract: {data, tokens, chunks, cost}.
type ExtractResult struct {
	Data   interface{}
	Tokens TokenUsage
	Chunks int
	Cost   float64
}

// CostLimitExceededError is raised before dispatching any call that would
// push cumulative cost over a configured limit (spec §4.8/§7).
type CostLimitExceededError struct {
	Limit     float64
	Projected float64
}

func (e *CostLimitExceededError) Error() string {
	return "COST_LIMIT_EXCEEDED"
}

// LLMAgent performs schema-constrained structured extraction over page
// content (C8, spec §4.8).
type LLMAgent interface {
	Extract(ctx context.Context, content string, schema *models.ExtractSchema, prompt, model string, costLimit float64) (*ExtractResult, error)
}
