package llmagent

import (
	"strings"
	"testing"
)

// wordCount is a deterministic stand-in for a real tokenizer in these tests.
func wordCount(s string) int {
	return len(strings.Fields(s))
}

func TestChunkByLinesReturnsSingleChunkWhenUnderBudget(t *testing.T) {
	text := "line one\nline two\nline three"
	chunks := chunkByLines(text, 100, 10, wordCount)
	if len(chunks) != 1 || chunks[0] != text {
		t.Fatalf("expected single unchanged chunk, got %v", chunks)
	}
}

func TestChunkByLinesSplitsAndOverlaps(t *testing.T) {
	lines := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		lines = append(lines, "word")
	}
	text := strings.Join(lines, "\n")

	chunks := chunkByLines(text, 5, 2, wordCount)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if wordCount(c) > 5+2 { // chunk body + possible overlap carried forward
			t.Errorf("chunk %d exceeds budget: %q", i, c)
		}
	}
}

func TestChunkByLinesEmptyOverlapWhenZero(t *testing.T) {
	lines := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		lines = append(lines, "word")
	}
	text := strings.Join(lines, "\n")

	chunks := chunkByLines(text, 3, 0, wordCount)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
}
