// Package reconcile implements the anti-duplication and order-matching state
// machine. Each enriched transaction is classified into exactly one outcome,
// evaluated in strict priority order: exact duplicate, order reconciliation,
// potential duplicate, new transaction.
package reconcile

import (
	"regexp"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

var nonWordRe = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

// normalizeText lowercases, strips punctuation and collapses whitespace so
// matching is insensitive to formatting noise.
func normalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonWordRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// TextSimilarity scores how alike two descriptions are, from 0 to 1. Exact
// matches after normalization score 1.0 and substring containment 0.8;
// otherwise the score is the Jaccard ratio over word tokens. Single-word
// descriptions have no token set to compare, so those fall back to edit
// distance.
func TextSimilarity(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 0.8
	}

	tokensA := strings.Fields(na)
	tokensB := strings.Fields(nb)
	if len(tokensA) == 1 && len(tokensB) == 1 {
		return levenshtein.RatioForStrings([]rune(na), []rune(nb), levenshtein.DefaultOptions)
	}

	return jaccard(tokensA, tokensB)
}

// jaccard is intersection over union of the two token sets.
func jaccard(a, b []string) float64 {
	setA := make(map[string]bool, len(a))
	for _, t := range a {
		setA[t] = true
	}
	setB := make(map[string]bool, len(b))
	for _, t := range b {
		setB[t] = true
	}

	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
