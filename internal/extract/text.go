package extract

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/parse"
)

// Lines shorter than this can't hold a date plus an amount.
const minLineLength = 8

// Candidates below this extraction confidence are dropped during
// post-processing.
const minLineConfidence = 0.3

// candidatesFromText runs the field parsers line by line over extracted
// document text. Shared by the PDF and OCR paths.
func candidatesFromText(text string, docCtx model.Context, source model.SourceFormat) *Result {
	docType := DetectDocumentType(text)

	result := &Result{DocumentType: docType}

	for lineIdx, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < minLineLength {
			continue
		}

		if docType == model.DocBankStatement && !isStatementLine(line) {
			continue
		}

		candidate, ok := parseLine(line, docCtx, docType, source, lineIdx)
		if !ok {
			result.SkippedLines++
			continue
		}

		result.Candidates = append(result.Candidates, candidate)
	}

	result.Candidates = postProcessCandidates(result.Candidates, docType)
	return result
}

// parseLine extracts one candidate from a statement line. A line without a
// recognizable date and amount is not a transaction.
func parseLine(line string, docCtx model.Context, docType model.DocumentType, source model.SourceFormat, lineIdx int) (model.RawCandidate, bool) {
	dateMatch, ok := parse.FindDate(line)
	if !ok {
		return model.RawCandidate{}, false
	}

	amountMatch, ok := parse.FindAmount(line)
	if !ok {
		return model.RawCandidate{}, false
	}

	description := parse.CleanDescription(line)

	candidate := model.RawCandidate{
		Date:         dateMatch.Date,
		Amount:       amountMatch.Value,
		Type:         parse.DetectType(line, docType),
		Description:  description,
		Context:      docCtx,
		Source:       source,
		DocumentType: docType,
		RawLine:      line,
		LineIndex:    lineIdx,
		HasTime:      dateMatch.HasTime,
		Confidence:   lineConfidence(dateMatch, amountMatch, description),
	}

	if dateMatch.HasTime {
		candidate.RawTimestamp = dateMatch.Raw
	}

	if docType == model.DocTransferReceipt {
		candidate.IsTransfer = true
		candidate.TransferMethod = DetectTransferMethod(line)
	}

	return candidate, true
}

// lineConfidence scores how trustworthy an extracted line is: date quality,
// amount formatting richness and description quality each contribute.
func lineConfidence(date parse.DateMatch, amount parse.AmountMatch, description string) float64 {
	score := 0.3
	if date.HasTime {
		score += 0.1
	}

	score += amount.Confidence

	if len(description) > 5 {
		score += 0.2
		if strings.ContainsFunc(description, unicode.IsLetter) {
			score += 0.1
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// postProcessCandidates drops low-confidence lines and patches up generic
// descriptions on transfer receipts.
func postProcessCandidates(candidates []model.RawCandidate, docType model.DocumentType) []model.RawCandidate {
	processed := candidates[:0]

	for _, c := range candidates {
		if c.Confidence < minLineConfidence {
			continue
		}

		if len(c.Description) < 10 {
			c.Description = describeGeneric(c, docType)
		}

		processed = append(processed, c)
	}

	return processed
}

// describeGeneric builds a usable description for lines whose text boiled
// down to almost nothing after stripping dates and amounts.
func describeGeneric(c model.RawCandidate, docType model.DocumentType) string {
	if docType == model.DocTransferReceipt {
		method := strings.ToUpper(string(c.TransferMethod))
		if method == "" {
			method = "TRANSFERÊNCIA"
		}
		if c.Type == model.TypeIncome {
			return fmt.Sprintf("Recebimento via %s", method)
		}
		return fmt.Sprintf("Pagamento via %s", method)
	}

	return fmt.Sprintf("Transação %s - %s", c.Type, docType)
}
