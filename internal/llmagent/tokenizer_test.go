package llmagent

import "testing"

func TestTokenizerCountsPositiveForNonEmptyText(t *testing.T) {
	tok := newTokenizer()
	n := tok.count("gemini-2.0-flash", "hello world, this is a short sentence.")
	if n <= 0 {
		t.Fatalf("expected positive token count, got %d", n)
	}
}

func TestTokenizerCachesEncodingPerModel(t *testing.T) {
	tok := newTokenizer()
	tok.count("claude-sonnet-4-20250514", "warm the cache")
	if _, ok := tok.cache["claude-sonnet-4-20250514"]; !ok {
		t.Fatalf("expected encoding cached for model")
	}
}

func TestTokenizerLongerTextCountsMoreTokens(t *testing.T) {
	tok := newTokenizer()
	short := tok.count("gemini-2.0-flash", "hello")
	long := tok.count("gemini-2.0-flash", "hello hello hello hello hello hello hello hello")
	if long <= short {
		t.Fatalf("expected longer text to have more tokens: short=%d long=%d", short, long)
	}
}
