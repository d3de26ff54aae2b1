package llmagent

import "strings"

// chunkByLines splits text on line boundaries into chunks no larger than
// maxTokens (per the supplied counter), with a trailing window of roughly
// overlapTokens re-included at the head of the next chunk (spec §4.8:
// "chunk by line boundaries with overlap").
func chunkByLines(text string, maxTokens, overlapTokens int, count func(string) int) []string {
	if maxTokens <= 0 || count(text) <= maxTokens {
		return []string{text}
	}

	lines := strings.Split(text, "\n")

	var chunks []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
		}
	}

	for _, line := range lines {
		lineTokens := count(line)
		if currentTokens+lineTokens > maxTokens && len(current) > 0 {
			flush()
			current = overlapTail(current, overlapTokens, count)
			currentTokens = count(strings.Join(current, "\n"))
		}
		current = append(current, line)
		currentTokens += lineTokens
	}
	flush()

	return chunks
}

// overlapTail returns the trailing lines of prev whose cumulative token
// count stays within overlapTokens.
func overlapTail(prev []string, overlapTokens int, count func(string) int) []string {
	if overlapTokens <= 0 {
		return nil
	}
	total := 0
	start := len(prev)
	for i := len(prev) - 1; i >= 0; i-- {
		t := count(prev[i])
		if total+t > overlapTokens {
			break
		}
		total += t
		start = i
	}
	tail := make([]string, len(prev)-start)
	copy(tail, prev[start:])
	return tail
}
