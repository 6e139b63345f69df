package classifier

import (
	"context"
	"strings"
)

var defaultPositiveWords = []string{
	"good", "great", "excellent", "amazing", "love", "happy", "awesome",
	"fantastic", "wonderful", "best", "perfect", "nice", "fast", "helpful",
}

var defaultNegativeWords = []string{
	"bad", "terrible", "awful", "hate", "broken", "worst", "slow",
	"poor", "horrible", "useless", "bug", "disappointing", "wrong",
}

// Lexicon classifies by counting occurrences of known polarity words.
// Matching is substring containment on the lowercased text, not tokenization,
// so "disappointingly" still counts for "disappointing". Positive wins ties.
type Lexicon struct {
	positive []string
	negative []string
}

func NewLexicon() *Lexicon {
	return &Lexicon{
		positive: defaultPositiveWords,
		negative: defaultNegativeWords,
	}
}

// NewLexiconWithWords builds a classifier over custom word sets.
func NewLexiconWithWords(positive, negative []string) *Lexicon {
	return &Lexicon{positive: positive, negative: negative}
}

func (l *Lexicon) Classify(_ context.Context, text string) Label {
	if isBlank(text) {
		return LabelNeutral
	}

	lowered := strings.ToLower(text)

	posCount := countOccurrences(lowered, l.positive)
	negCount := countOccurrences(lowered, l.negative)

	if posCount >= negCount {
		return LabelPositive
	}
	return LabelNegative
}

func countOccurrences(text string, words []string) int {
	count := 0
	for _, w := range words {
		count += strings.Count(text, w)
	}
	return count
}
