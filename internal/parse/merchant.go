package parse

import (
	"regexp"
	"strings"
	"unicode"
)

// Merchant-name extraction patterns, most specific first.
var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:em|para|de|pix\s+(?:de|para))\s+([A-ZÀ-ÿ][A-ZÀ-ÿ\s]{2,30}?)(?:\s+\d|\s*$|\s+-)`),
	regexp.MustCompile(`([A-ZÀ-ÿ][A-ZÀ-ÿ\s]{3,25}?)(?:\s+\d|\s*$|\s+-)`),
	regexp.MustCompile(`(\w+(?:\s+\w+){1,3})(?:\s+\d|\s*$)`),
}

var (
	multiSpaceRe   = regexp.MustCompile(`\s+`)
	edgeDashRe     = regexp.MustCompile(`^[-\s]+|[-\s]+$`)
	merchantJunkRe = regexp.MustCompile(`[^\wÀ-ÿ\s\-&.]`)
)

// CleanDescription derives a description from a statement line by stripping
// the matched date and amount substrings and applying merchant-name
// extraction. Returns the truncated cleaned line when no merchant pattern
// matches.
func CleanDescription(line string) string {
	clean := StripDates(line)
	clean = StripAmounts(clean)

	clean = multiSpaceRe.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)
	clean = edgeDashRe.ReplaceAllString(clean, "")

	for _, pattern := range merchantPatterns {
		match := pattern.FindStringSubmatch(clean)
		if match == nil {
			continue
		}
		merchant := strings.TrimSpace(match[1])
		if len(merchant) > 3 {
			return NormalizeMerchant(merchant)
		}
	}

	if clean == "" {
		return "Transação extraída de documento"
	}
	if runes := []rune(clean); len(runes) > 100 {
		return string(runes[:100])
	}
	return clean
}

// NormalizeMerchant title-cases a merchant name and drops stray punctuation.
func NormalizeMerchant(merchant string) string {
	words := strings.Fields(merchant)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	normalized := strings.Join(words, " ")
	return merchantJunkRe.ReplaceAllString(normalized, "")
}
