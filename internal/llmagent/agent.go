// Package llmagent implements the LLM Extraction Agent (C8): schema-
// constrained structured extraction over page content, routed to Claude or
// Gemini by model id, grounded on the teacher's dual-provider
// ProviderFactory (llm/provider.go) but narrowed to the single
// prompt-in/JSON-out shape this spec needs rather than open-ended chat.
package llmagent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
	"github.com/anycrawl/anycrawl-core/internal/models"
)

// modelCaller is the narrow seam agent.go calls through; *clients is the
// real implementation, substituted with a fake in tests to avoid live
// network calls to Claude/Gemini.
type modelCaller interface {
	callModel(ctx context.Context, provider ProviderType, model, systemPrompt, userPrompt string, maxOutputTokens int) (string, interfaces.TokenUsage, error)
}

// Agent implements interfaces.LLMAgent.
type Agent struct {
	clients  modelCaller
	registry *Registry
	tok      *tokenizer
	logger   arbor.ILogger

	mu        sync.Mutex
	instances map[string]*modelInstance // cached per model_id, spec §4.8 "States"
}

// modelInstance is the cached-per-model state the spec alludes to: nothing
// stateful is actually needed per call, so this just pins the resolved
// ModelConfig so repeated calls for the same model skip registry lookup.
type modelInstance struct {
	model string
	cfg   ModelConfig
}

func New(anthropicAPIKey, geminiAPIKey string, overrides map[string]ModelConfig, logger arbor.ILogger) *Agent {
	return newWithCaller(newClients(anthropicAPIKey, geminiAPIKey), overrides, logger)
}

func newWithCaller(caller modelCaller, overrides map[string]ModelConfig, logger arbor.ILogger) *Agent {
	return &Agent{
		clients:   caller,
		registry:  NewRegistry(overrides),
		tok:       newTokenizer(),
		logger:    logger,
		instances: make(map[string]*modelInstance),
	}
}

func (a *Agent) instanceFor(model string) *modelInstance {
	a.mu.Lock()
	defer a.mu.Unlock()
	if inst, ok := a.instances[model]; ok {
		return inst
	}
	resolved, cfg := a.registry.Resolve(model)
	inst := &modelInstance{model: resolved, cfg: cfg}
	a.instances[model] = inst
	return inst
}

// Extract implements interfaces.LLMAgent.Extract: normalize the schema,
// decide single-call vs chunked-merge by token budget, dispatch to the
// resolved provider, track cost, and unwrap array-wrapped results.
func (a *Agent) Extract(ctx context.Context, content string, schema *models.ExtractSchema, prompt, model string, costLimit float64) (*interfaces.ExtractResult, error) {
	inst := a.instanceFor(model)
	provider := DetectProvider(inst.model, inst.cfg)
	modelName := NormalizeModel(inst.model)

	normalized, wrapped := normalizeSchema(schema)
	systemPrompt := buildSystemPrompt(normalized, prompt)

	budget := effectiveInputBudget(inst.cfg, a.tok.count(modelName, systemPrompt))
	overlap := overlapBudget(inst.cfg)
	tracker := newCostTracker(costLimit)

	chunks := chunkByLines(content, budget, overlap, func(s string) int { return a.tok.count(modelName, s) })

	var results []interface{}
	var totalTokens interfaces.TokenUsage

	for i, chunk := range chunks {
		data, usage, err := a.callChunk(ctx, provider, modelName, systemPrompt, chunk, inst.cfg, tracker)
		if err != nil {
			return nil, fmt.Errorf("llmagent: chunk %d/%d: %w", i+1, len(chunks), err)
		}
		results = append(results, data)
		totalTokens.Input += usage.Input
		totalTokens.Output += usage.Output
		totalTokens.Total += usage.Total
	}

	merged := results[0]
	for _, r := range results[1:] {
		merged = mergeExtractions(merged, r)
	}
	if wrapped {
		merged = unwrapArrayResult(merged)
	}

	return &interfaces.ExtractResult{
		Data:   merged,
		Tokens: totalTokens,
		Chunks: len(chunks),
		Cost:   tracker.total(),
	}, nil
}

func (a *Agent) callChunk(ctx context.Context, provider ProviderType, model, systemPrompt, chunk string, cfg ModelConfig, tracker *costTracker) (interface{}, interfaces.TokenUsage, error) {
	inputTokens := a.tok.count(model, systemPrompt) + a.tok.count(model, chunk)
	projected := float64(inputTokens)*cfg.PriceInPerToken + float64(cfg.MaxOutputTokens)*cfg.PriceOutPerToken
	if err := tracker.reserve(projected); err != nil {
		return nil, interfaces.TokenUsage{}, err
	}

	text, usage, err := a.clients.callModel(ctx, provider, model, systemPrompt, chunk, cfg.MaxOutputTokens)
	if err != nil {
		tracker.reconcile(projected, 0)
		return nil, interfaces.TokenUsage{}, err
	}

	actual := callCost(cfg, usage)
	tracker.reconcile(projected, actual)

	var data interface{}
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, interfaces.TokenUsage{}, fmt.Errorf("parse model output as json: %w", err)
	}
	return data, usage, nil
}

func buildSystemPrompt(schema *models.ExtractSchema, userPrompt string) string {
	fields := buildFieldPrompt(schema)
	prompt := "Extract structured data as JSON matching this schema. Respond with JSON only, no commentary.\n\nFields:\n" + fields
	if userPrompt != "" {
		prompt += "\n\nInstructions: " + userPrompt
	}
	return prompt
}

// effectiveInputBudget implements spec §4.8's sizing rule:
// floor(0.8 * max_input_tokens) - tokens(system_prompt).
func effectiveInputBudget(cfg ModelConfig, systemPromptTokens int) int {
	budget := int(math.Floor(0.8*float64(cfg.MaxInputTokens))) - systemPromptTokens
	if budget < 0 {
		return 0
	}
	return budget
}

// overlapBudget implements spec §4.8: min(200, 0.1 * max_input_tokens).
func overlapBudget(cfg ModelConfig) int {
	tenPercent := int(math.Floor(0.1 * float64(cfg.MaxInputTokens)))
	if tenPercent < 200 {
		return tenPercent
	}
	return 200
}

var _ interfaces.LLMAgent = (*Agent)(nil)
