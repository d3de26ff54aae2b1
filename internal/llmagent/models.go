package llmagent

import "strings"

// ModelConfig carries the per-model sizing and pricing spec §4.8 requires:
// "per-model config provides max_input_tokens and max_output_tokens" plus the
// price-per-token pair cost tracking needs. Grounded on the teacher's
// provider.go ProviderType split (Claude vs Gemini) but widened into a table
// keyed by exact model id, since pricing varies per model within a provider.
type ModelConfig struct {
	Provider        ProviderType
	MaxInputTokens  int
	MaxOutputTokens int
	PriceInPerToken float64
	PriceOutPerToken float64
}

type ProviderType string

const (
	ProviderClaude ProviderType = "claude"
	ProviderGemini ProviderType = "gemini"
)

// defaultModels is the built-in pricing/sizing table. Prices are USD per
// token (not per 1K/1M) so cost.go's arithmetic stays a flat multiply.
var defaultModels = map[string]ModelConfig{
	"claude-sonnet-4-20250514": {
		Provider: ProviderClaude, MaxInputTokens: 200_000, MaxOutputTokens: 8_192,
		PriceInPerToken: 3.0 / 1_000_000, PriceOutPerToken: 15.0 / 1_000_000,
	},
	"claude-haiku-4-20250514": {
		Provider: ProviderClaude, MaxInputTokens: 200_000, MaxOutputTokens: 8_192,
		PriceInPerToken: 0.8 / 1_000_000, PriceOutPerToken: 4.0 / 1_000_000,
	},
	"gemini-2.0-flash": {
		Provider: ProviderGemini, MaxInputTokens: 1_000_000, MaxOutputTokens: 8_192,
		PriceInPerToken: 0.1 / 1_000_000, PriceOutPerToken: 0.4 / 1_000_000,
	},
	"gemini-2.5-pro": {
		Provider: ProviderGemini, MaxInputTokens: 2_000_000, MaxOutputTokens: 8_192,
		PriceInPerToken: 1.25 / 1_000_000, PriceOutPerToken: 5.0 / 1_000_000,
	},
}

// fallbackModel is used whenever a requested model id isn't in the table,
// so extraction degrades to conservative sizing rather than failing outright.
var fallbackModel = ModelConfig{
	Provider: ProviderGemini, MaxInputTokens: 128_000, MaxOutputTokens: 4_096,
	PriceInPerToken: 0.5 / 1_000_000, PriceOutPerToken: 1.5 / 1_000_000,
}

// Registry resolves model configs, optionally overlaid with operator-supplied
// entries (e.g. from AI.ConfigPath) on top of the built-in table.
type Registry struct {
	models map[string]ModelConfig
}

func NewRegistry(overrides map[string]ModelConfig) *Registry {
	merged := make(map[string]ModelConfig, len(defaultModels)+len(overrides))
	for k, v := range defaultModels {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return &Registry{models: merged}
}

func (r *Registry) Resolve(model string) (string, ModelConfig) {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if cfg, ok := r.models[model]; ok {
		return model, cfg
	}
	return model, fallbackModel
}

// DetectProvider mirrors the teacher's ProviderFactory.DetectProvider model
// string sniffing (prefix and name-pattern based).
func DetectProvider(model string, cfg ModelConfig) ProviderType {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "claude/"), strings.HasPrefix(m, "anthropic/"), strings.HasPrefix(m, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(m, "gemini/"), strings.HasPrefix(m, "google/"), strings.HasPrefix(m, "gemini-"):
		return ProviderGemini
	default:
		return cfg.Provider
	}
}

// NormalizeModel strips a provider prefix, matching the teacher's
// ProviderFactory.NormalizeModel.
func NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}
