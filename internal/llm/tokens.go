package llm

import "unicode/utf8"

// EstimateTokens gives a rough token count for logging prompt sizes. Hangul
// syllables tokenize far denser than English words, so the estimate counts
// runes rather than bytes.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + 1) / 2
}

// MessageTokens sums EstimateTokens over every message.
func MessageTokens(messages []Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(m.Content)
	}
	return total
}
