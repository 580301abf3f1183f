package memory

import (
	"regexp"
	"strings"
)

var (
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// normalizeText lowercases, strips punctuation, and collapses whitespace so
// comparisons are insensitive to formatting noise.
func normalizeText(text string) string {
	normalized := strings.ToLower(text)
	normalized = nonWordRe.ReplaceAllString(normalized, " ")
	normalized = whitespaceRe.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// lexicalSimilarity computes Jaccard similarity over the word sets of two
// texts. Words of up to two characters are dropped as stopword noise.
//
// This is a deliberately offline measure: semantic similarity via
// embeddings or an LLM belongs to backends this agent does not ship, and
// word-overlap is the fallback those paths degrade to anyway.
func lexicalSimilarity(text1, text2 string) float64 {
	words1 := wordSet(text1)
	words2 := wordSet(text2)

	if len(words1) == 0 || len(words2) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range words1 {
		if _, ok := words2[w]; ok {
			intersection++
		}
	}
	union := len(words1) + len(words2) - intersection

	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(normalizeText(text)) {
		if len([]rune(w)) > 2 {
			set[w] = struct{}{}
		}
	}
	return set
}
