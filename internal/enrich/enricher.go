// Package enrich turns raw extraction candidates into enriched transactions:
// normalized timestamps, content hashes, categories, PIX metadata, tags and
// an initial confidence score.
package enrich

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/rafaelqm/concilia/internal/categorize"
	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/parse"
)

// DefaultTimezoneOffsetHours matches the Brasília offset the engine ships
// with. Normalization subtracts this from parsed local timestamps.
const DefaultTimezoneOffsetHours = -3.0

// Counterparty-name extraction patterns per transfer direction, most
// specific first. The first match with a plausible (>2 character) name wins.
var (
	pixReceivedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)pix\s+recebido\s+(?:de\s+)?([A-ZÀ-ÿ][A-ZÀ-ÿ\s]+?)(?:\s|$)`),
		regexp.MustCompile(`(?i)recebimento\s+pix\s+(?:de\s+)?([A-ZÀ-ÿ][A-ZÀ-ÿ\s]+?)(?:\s|$)`),
		regexp.MustCompile(`(?i)transferencia\s+recebida\s+(?:de\s+)?([A-ZÀ-ÿ][A-ZÀ-ÿ\s]+?)(?:\s|$)`),
	}

	pixSentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)pix\s+(?:para\s+|enviado\s+para\s+)?([A-ZÀ-ÿ][A-ZÀ-ÿ\s]+?)(?:\s|$)`),
		regexp.MustCompile(`(?i)pagamento\s+pix\s+(?:para\s+)?([A-ZÀ-ÿ][A-ZÀ-ÿ\s]+?)(?:\s|$)`),
		regexp.MustCompile(`(?i)transferencia\s+(?:para\s+)?([A-ZÀ-ÿ][A-ZÀ-ÿ\s]+?)(?:\s|$)`),
	}

	nameJunkRe = regexp.MustCompile(`[^\wÀ-ÿ\s]`)
)

// Enricher builds enriched transactions from raw candidates. It owns the
// categorization engine and the timezone correction; it holds no per-run
// state.
type Enricher struct {
	categorizer   *categorize.Engine
	tzOffsetHours float64
}

// New creates an enricher with the given categorizer and timezone offset in
// hours.
func New(categorizer *categorize.Engine, tzOffsetHours float64) *Enricher {
	return &Enricher{
		categorizer:   categorizer,
		tzOffsetHours: tzOffsetHours,
	}
}

// Enrich produces the enriched transaction for one raw candidate. The
// candidate is not modified; each pipeline stage builds the next value.
func (e *Enricher) Enrich(c model.RawCandidate) model.Transaction {
	txn := model.Transaction{
		ID:             uuid.NewString(),
		Date:           c.Date,
		Amount:         c.Amount,
		Type:           c.Type,
		Description:    c.Description,
		Context:        c.Context,
		Source:         c.Source,
		DocumentType:   c.DocumentType,
		TransferMethod: c.TransferMethod,
		LineIndex:      c.LineIndex,
		HasTime:        c.HasTime,
		IsTransfer:     c.IsTransfer,
		Confidence:     c.Confidence,
	}

	txn.NormalizedDatetime = e.normalizeTimestamp(c)

	if txn.IsPIX() {
		direction, clientName := extractPIXInfo(c.Description)
		txn.PIXDirection = direction
		txn.PIXClientName = clientName
	}

	txn.ContentHash = model.GenerateContentHash(c.Amount, c.Description, c.Date, c.Type)
	// Spreadsheets can carry an explicit category column; an author-provided
	// label beats keyword inference.
	if c.CategoryHint != "" {
		txn.Category = c.CategoryHint
	} else {
		txn.Category = e.categorizer.Categorize(c.Description, c.Amount, c.Type)
	}

	if txn.Confidence <= 0 {
		txn.Confidence = estimateConfidence(&txn)
	}

	txn.Tags = buildTags(&txn)

	return txn
}

// normalizeTimestamp applies the timezone correction to the candidate's
// timestamp, preferring the raw date+time string when the source carried one.
func (e *Enricher) normalizeTimestamp(c model.RawCandidate) time.Time {
	base := c.Date
	if c.RawTimestamp != "" {
		if m, ok := parse.ParseDate(c.RawTimestamp); ok {
			if m.HasTime {
				base = m.Datetime
			} else {
				base = m.Date
			}
		}
	}

	if base.IsZero() {
		return base
	}

	offset := time.Duration(e.tzOffsetHours * float64(time.Hour))
	return base.Add(-offset)
}

// extractPIXInfo determines the transfer direction from the description
// wording and extracts the counterparty name via the direction's pattern
// list.
func extractPIXInfo(description string) (model.PIXDirection, string) {
	lower := strings.ToLower(description)

	direction := model.PIXSent
	patterns := pixSentPatterns
	if strings.Contains(lower, "recebido") || strings.Contains(lower, "recebimento") {
		direction = model.PIXReceived
		patterns = pixReceivedPatterns
	}

	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(description)
		if match == nil {
			continue
		}

		name := nameJunkRe.ReplaceAllString(strings.TrimSpace(match[1]), "")
		if len([]rune(name)) > 2 {
			return direction, titleCase(name)
		}
	}

	return direction, ""
}

// estimateConfidence scores data quality when the extractor did not supply a
// score of its own: positive amount, usable description, calendar date and a
// time-of-day each add weight.
func estimateConfidence(txn *model.Transaction) float64 {
	confidence := 0.5

	if txn.Amount > 0 {
		confidence += 0.2
	}
	if len(txn.Description) > 5 {
		confidence += 0.2
	}
	if !txn.Date.IsZero() {
		confidence += 0.1
	}
	if !txn.NormalizedDatetime.IsZero() && txn.HasTime {
		confidence += 0.1
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// buildTags derives content tags used by downstream reporting and review
// queues.
func buildTags(txn *model.Transaction) []string {
	var tags []string

	switch {
	case txn.Amount > 1000:
		tags = append(tags, "alto_valor")
	case txn.Amount < 50:
		tags = append(tags, "baixo_valor")
	}

	if txn.IsTransfer {
		tags = append(tags, "transferencia")
	}

	if !txn.Date.IsZero() {
		if wd := txn.Date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			tags = append(tags, "fim_de_semana")
		}
	}

	lower := strings.ToLower(txn.Description)
	if strings.Contains(lower, "pix") {
		tags = append(tags, "pix")
	}
	if strings.Contains(lower, "parcelado") || strings.Contains(lower, "parcela") {
		tags = append(tags, "parcelamento")
	}

	return tags
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
