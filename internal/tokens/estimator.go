// Package tokens estimates language-model token counts for chunk budgeting.
// Counts are approximations: the boundary chunker only needs a consistent
// measure, not an exact vocabulary match.
package tokens

import "unicode"

// tokensPerWord is the empirical average of subword tokens per code word.
const tokensPerWord = 1.3

// charsPerToken floors the estimate for inputs with few word characters
// (minified code, long string literals, punctuation-heavy lines).
const charsPerToken = 4

// Estimate returns the approximate model-token count of text. Uses the
// larger of a word-based and a character-based estimate so that both
// prose-like comments and punctuation-heavy code are budgeted fairly.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	byWords := int(float64(countWords(text)) * tokensPerWord)
	byChars := (len(text) + charsPerToken - 1) / charsPerToken
	if byWords > byChars {
		return byWords
	}
	return byChars
}

// EstimateLines returns per-line token estimates, splitting on '\n'.
func EstimateLines(lines []string) []int {
	counts := make([]int, len(lines))
	for i, line := range lines {
		counts[i] = Estimate(line)
	}
	return counts
}

// countWords counts maximal runs of letters, digits, and underscores.
func countWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if !inWord {
				count++
				inWord = true
			}
		} else {
			inWord = false
		}
	}
	return count
}
