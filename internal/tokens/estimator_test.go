package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0, Estimate(""))
	})

	t.Run("word-heavy text uses the word estimate", func(t *testing.T) {
		// 10 words, almost no punctuation: word estimate (13) beats
		// the char estimate.
		text := "the quick brown fox jumps over the lazy dog again"
		assert.Equal(t, 13, Estimate(text))
	})

	t.Run("punctuation-heavy text falls back to chars", func(t *testing.T) {
		text := strings.Repeat("{}();,", 20) // 120 chars, zero words
		assert.Equal(t, 30, Estimate(text))
	})

	t.Run("identifiers with underscores count as one word", func(t *testing.T) {
		assert.Equal(t, Estimate("snake_case_name"), Estimate("abcdefghijklmno"))
	})

	t.Run("monotone in repetition", func(t *testing.T) {
		small := Estimate("func main() {}")
		large := Estimate(strings.Repeat("func main() {}\n", 50))
		assert.Greater(t, large, small)
	})
}

func TestEstimateLines(t *testing.T) {
	counts := EstimateLines([]string{"", "x := compute(a, b)", ""})
	assert.Len(t, counts, 3)
	assert.Equal(t, 0, counts[0])
	assert.Greater(t, counts[1], 0)
	assert.Equal(t, 0, counts[2])
}
