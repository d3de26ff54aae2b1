package llmagent

import (
	"math"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenizer counts tokens for a given model, per spec §4.8: "use a tokenizer
// keyed by model name; fall back to cl100k_base; if both unavailable,
// estimate ceil(len(chars)/4)". tiktoken-go has no pricing/registry
// knowledge of Claude/Gemini model ids, so EncodingForModel will generally
// miss and fall through to the cl100k_base encoding — which is still the
// right approximation the spec asks for absent a model-specific BPE table.
type tokenizer struct {
	mu    sync.Mutex
	cache map[string]*tiktoken.Tiktoken
}

func newTokenizer() *tokenizer {
	return &tokenizer{cache: make(map[string]*tiktoken.Tiktoken)}
}

func (t *tokenizer) count(model, text string) int {
	enc := t.encodingFor(model)
	if enc == nil {
		return int(math.Ceil(float64(len(text)) / 4))
	}
	return len(enc.Encode(text, nil, nil))
}

func (t *tokenizer) encodingFor(model string) *tiktoken.Tiktoken {
	t.mu.Lock()
	defer t.mu.Unlock()

	if enc, ok := t.cache[model]; ok {
		return enc
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil {
		t.cache[model] = nil
		return nil
	}
	t.cache[model] = enc
	return enc
}
