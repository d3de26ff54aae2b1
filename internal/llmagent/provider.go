package llmagent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"google.golang.org/genai"

	"github.com/anycrawl/anycrawl-core/internal/interfaces"
)

// clients lazily builds and caches one SDK client per provider, mirroring
// the teacher's ProviderFactory.GetClaudeClient/GetGeminiClient pattern
// (construct once, reuse across calls and models).
type clients struct {
	mu           sync.Mutex
	anthropicKey string
	geminiKey    string
	claude       *anthropic.Client
	gemini       *genai.Client
}

func newClients(anthropicKey, geminiKey string) *clients {
	return &clients{anthropicKey: anthropicKey, geminiKey: geminiKey}
}

func (c *clients) claudeClient() (*anthropic.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claude != nil {
		return c.claude, nil
	}
	if c.anthropicKey == "" {
		return nil, fmt.Errorf("llmagent: no Anthropic API key configured")
	}
	client := anthropic.NewClient(option.WithAPIKey(c.anthropicKey))
	c.claude = &client
	return c.claude, nil
}

func (c *clients) geminiClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gemini != nil {
		return c.gemini, nil
	}
	if c.geminiKey == "" {
		return nil, fmt.Errorf("llmagent: no Gemini API key configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.geminiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("llmagent: create gemini client: %w", err)
	}
	c.gemini = client
	return c.gemini, nil
}

// callModel dispatches a single schema-constrained prompt to the resolved
// provider and returns the raw JSON text plus token usage. This collapses
// the teacher's generateWithClaude/generateWithGemini shape (model
// resolution, system instruction, structured-output schema) into a single
// JSON-in/JSON-out call, since C8 never needs open-ended chat.
func (c *clients) callModel(ctx context.Context, provider ProviderType, model, systemPrompt, userPrompt string, maxOutputTokens int) (string, interfaces.TokenUsage, error) {
	switch provider {
	case ProviderClaude:
		return c.callClaude(ctx, model, systemPrompt, userPrompt, maxOutputTokens)
	default:
		return c.callGemini(ctx, model, systemPrompt, userPrompt)
	}
}

func (c *clients) callClaude(ctx context.Context, model, systemPrompt, userPrompt string, maxOutputTokens int) (string, interfaces.TokenUsage, error) {
	client, err := c.claudeClient()
	if err != nil {
		return "", interfaces.TokenUsage{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxOutputTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", interfaces.TokenUsage{}, fmt.Errorf("llmagent: claude call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", interfaces.TokenUsage{}, fmt.Errorf("llmagent: empty response from claude")
	}

	usage := interfaces.TokenUsage{
		Input:  int(resp.Usage.InputTokens),
		Output: int(resp.Usage.OutputTokens),
		Total:  int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
	return text.String(), usage, nil
}

func (c *clients) callGemini(ctx context.Context, model, systemPrompt, userPrompt string) (string, interfaces.TokenUsage, error) {
	client, err := c.geminiClient(ctx)
	if err != nil {
		return "", interfaces.TokenUsage{}, err
	}

	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	contents := []*genai.Content{genai.NewContentFromText(userPrompt, genai.RoleUser)}
	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", interfaces.TokenUsage{}, fmt.Errorf("llmagent: gemini call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", interfaces.TokenUsage{}, fmt.Errorf("llmagent: empty response from gemini")
	}
	text := resp.Text()
	if text == "" {
		return "", interfaces.TokenUsage{}, fmt.Errorf("llmagent: empty text in gemini response")
	}

	usage := interfaces.TokenUsage{}
	if resp.UsageMetadata != nil {
		usage.Input = int(resp.UsageMetadata.PromptTokenCount)
		usage.Output = int(resp.UsageMetadata.CandidatesTokenCount)
		usage.Total = int(resp.UsageMetadata.TotalTokenCount)
	}
	return text, usage, nil
}
