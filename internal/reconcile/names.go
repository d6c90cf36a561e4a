package reconcile

import "strings"

// Connector words and extremely common Brazilian surnames, stripped before
// name comparison so "Maria Silva" still matches "Maria Silva Santos".
// Matching on a single shared first name can auto-confirm the wrong order
// for very common names; the thresholds in ToleranceConfig exist to keep
// that auditable, not to eliminate it.
var nameStopwords = map[string]bool{
	"de": true, "da": true, "do": true, "dos": true, "das": true, "e": true,
	"silva": true, "santos": true, "oliveira": true,
}

// MatchClientNames reports whether a PIX counterparty name plausibly refers
// to the same person as an order's customer name. After stripping stopwords,
// one shared word is enough.
func MatchClientNames(pixName, customerName string) bool {
	pixWords := significantWords(pixName)
	customerWords := significantWords(customerName)
	if len(pixWords) == 0 || len(customerWords) == 0 {
		return false
	}

	for w := range pixWords {
		if customerWords[w] {
			return true
		}
	}
	return false
}

func significantWords(name string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if !nameStopwords[w] {
			words[w] = true
		}
	}
	return words
}
