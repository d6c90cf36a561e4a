package extract

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/parse"
)

// OFX fields are structured, so candidates from this path carry the highest
// extraction confidence.
const ofxCandidateConfidence = 0.9

// OFXExtractor reads OFX/QFX exports. Banks are sloppy SGML writers, so the
// content is preprocessed before handing it to the parser.
type OFXExtractor struct{}

// NewOFXExtractor creates an OFX/QFX extractor.
func NewOFXExtractor() *OFXExtractor {
	return &OFXExtractor{}
}

var (
	severityRe = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// SGML-style OFX files sometimes drop the closing bracket on tags that
	// stand alone on a line.
	openTagRe = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes the formatting problems commonly seen in bank exports:
// leading blank lines, mixed-case severity values and unterminated tags.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRe.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagRe.ReplaceAllString(content, "$1>")
}

// Extract parses bank and credit card statement blocks into candidates.
func (e *OFXExtractor) Extract(ctx context.Context, data []byte, docCtx model.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := preprocessOFX(string(bytes.TrimSpace(data)))
	if content == "" {
		return nil, common.ErrEmptyDocument
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parsing ofx: %w", err)
	}

	result := &Result{DocumentType: model.DocBankStatement}

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if ok && stmt.BankTranList != nil {
			appendOFXCandidates(result, stmt.BankTranList.Transactions, docCtx, model.DocBankStatement)
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if ok && stmt.BankTranList != nil {
			appendOFXCandidates(result, stmt.BankTranList.Transactions, docCtx, model.DocCreditCardStatement)
		}
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("ofx file carries no transactions: %w", common.ErrNoTransactions)
	}

	return result, nil
}

func appendOFXCandidates(result *Result, txns []ofxgo.Transaction, docCtx model.Context, docType model.DocumentType) {
	if docType == model.DocCreditCardStatement {
		result.DocumentType = model.DocCreditCardStatement
	}

	for _, ofxTx := range txns {
		candidate, ok := candidateFromOFX(ofxTx, docCtx, docType, len(result.Candidates))
		if !ok {
			result.SkippedLines++
			continue
		}
		result.Candidates = append(result.Candidates, candidate)
	}
}

// candidateFromOFX converts one OFX record. Amounts are signed in OFX
// (negative means debit); the sign becomes the transaction type and the
// stored amount is always positive.
func candidateFromOFX(ofxTx ofxgo.Transaction, docCtx model.Context, docType model.DocumentType, idx int) (model.RawCandidate, bool) {
	amount, _ := ofxTx.TrnAmt.Float64()
	if amount == 0 {
		return model.RawCandidate{}, false
	}

	txType := model.TypeIncome
	if amount < 0 {
		amount = -amount
		txType = model.TypeExpense
	}
	if docType == model.DocCreditCardStatement {
		txType = model.TypeExpense
	}

	description := ofxDescription(ofxTx)

	candidate := model.RawCandidate{
		Date:         ofxTx.DtPosted.Time,
		Amount:       amount,
		Type:         txType,
		Description:  description,
		Context:      docCtx,
		Source:       model.SourceOFX,
		DocumentType: docType,
		RawLine:      fmt.Sprintf("%s %v %s", ofxTx.DtPosted.Time.Format("02/01/2006"), ofxTx.TrnType, description),
		LineIndex:    idx,
		HasTime:      false,
		Confidence:   ofxCandidateConfidence,
	}

	lower := strings.ToLower(description)
	if strings.Contains(lower, "pix") || strings.Contains(lower, "transfer") {
		candidate.IsTransfer = true
		candidate.TransferMethod = DetectTransferMethod(lower)
	}

	return candidate, true
}

// ofxDescription prefers the payee name, then NAME, then MEMO when NAME is
// too generic to categorize.
func ofxDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return parse.NormalizeMerchant(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	memo := strings.TrimSpace(string(tx.Memo))
	if memo != "" && len(name) < 6 {
		name = memo
	}
	if name == "" {
		return "Transação importada de OFX"
	}
	return parse.NormalizeMerchant(name)
}
