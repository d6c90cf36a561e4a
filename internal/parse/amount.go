package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// AmountMatch is the best monetary value found in a fragment. Value is always
// non-negative; Negative records that the surrounding text indicated a debit.
type AmountMatch struct {
	Raw        string
	Value      float64
	Confidence float64
	Negative   bool
}

// Monetary patterns in priority order: currency-prefixed, thousands-separated,
// comma decimal, dot decimal, bare integer. All candidates from all patterns
// compete on confidence; formatting richness wins ties.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`R\$\s*(\d{1,3}(?:\.\d{3})*(?:,\d{2})?)`),
	regexp.MustCompile(`(\d{1,3}(?:\.\d{3})*(?:,\d{2}))`),
	regexp.MustCompile(`(\d+,\d{2})`),
	regexp.MustCompile(`(\d+\.\d{2})`),
	regexp.MustCompile(`(\d+)`),
}

// Keywords checked in a small window around the matched value to infer sign.
var negativeAmountHints = []string{"-", "débito", "saque", "pagamento", "taxa", "desconto"}

// A second stripper for monetary substrings inside a line, used when deriving
// descriptions.
var (
	currencyAmountRe = regexp.MustCompile(`R\$\s*\d+(?:\.\d{3})*(?:,\d{2})?`)
	bareAmountRe     = regexp.MustCompile(`\d+(?:\.\d{3})*(?:,\d{2})?`)
)

// NormalizeAmount converts a Brazilian- or US-formatted monetary string to a
// float64. "1.234,56", "1234,56" and "1234.56" all normalize to 1234.56.
func NormalizeAmount(raw string) (float64, bool) {
	clean := strings.NewReplacer("R$", "", " ", "", " ", "").Replace(raw)

	switch {
	case strings.Contains(clean, ",") && strings.Contains(clean, "."):
		// 1.234,56 -> thousands dot, decimal comma
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case strings.Count(clean, ",") == 1:
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// FindAmount scans a text line for monetary values and returns the
// highest-confidence match, or false when nothing parses.
func FindAmount(line string) (AmountMatch, bool) {
	var best AmountMatch
	found := false

	for _, pattern := range amountPatterns {
		for _, loc := range pattern.FindAllStringSubmatchIndex(line, -1) {
			raw := line[loc[2]:loc[3]]
			value, ok := NormalizeAmount(raw)
			if !ok {
				continue
			}

			m := AmountMatch{
				Raw:        raw,
				Value:      value,
				Confidence: scoreAmountFormat(line, loc[0], raw),
				Negative:   hasNegativeHint(line, loc[0]),
			}

			if !found || m.Confidence > best.Confidence {
				best = m
				found = true
			}
		}
	}

	return best, found
}

// scoreAmountFormat grants a confidence bonus for formatting richness: a
// currency prefix and a comma decimal both make a match more trustworthy
// than a bare run of digits.
func scoreAmountFormat(line string, start int, raw string) float64 {
	confidence := 0.5

	prefix := line[maxInt(0, start-3):start]
	if strings.Contains(prefix, "R$") || strings.HasPrefix(raw, "R$") {
		confidence += 0.3
	}
	if strings.Count(raw, ",") == 1 {
		confidence += 0.2
	}

	return confidence
}

// hasNegativeHint scans ±30 characters around the match position for
// debit-indicator keywords.
func hasNegativeHint(line string, pos int) bool {
	window := strings.ToLower(line[maxInt(0, pos-30):minInt(len(line), pos+30)])
	for _, hint := range negativeAmountHints {
		if strings.Contains(window, hint) {
			return true
		}
	}
	return false
}

// StripAmounts removes monetary substrings from a line.
func StripAmounts(line string) string {
	line = currencyAmountRe.ReplaceAllString(line, "")
	return bareAmountRe.ReplaceAllString(line, "")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
