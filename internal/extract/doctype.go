package extract

import (
	"strings"

	"github.com/rafaelqm/concilia/internal/model"
)

// DetectDocumentType classifies a document by keyword sniffing over its
// extracted text so format-specific parsing rules can be applied.
func DetectDocumentType(text string) model.DocumentType {
	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, "extrato", "saldo", "movimentação"):
		return model.DocBankStatement
	case containsAny(lower, "fatura", "cartão", "crédito"):
		return model.DocCreditCardStatement
	case containsAny(lower, "pix", "transferência", "comprovante"):
		return model.DocTransferReceipt
	case containsAny(lower, "nota fiscal", "cupom", "recibo"):
		return model.DocReceipt
	default:
		return model.DocGenericFinancial
	}
}

// DetectTransferMethod identifies the rail named in a transfer receipt line.
func DetectTransferMethod(line string) model.TransferMethod {
	lower := strings.ToLower(line)

	switch {
	case strings.Contains(lower, "pix"):
		return model.TransferPIX
	case strings.Contains(lower, "ted"):
		return model.TransferTED
	case strings.Contains(lower, "doc"):
		return model.TransferDOC
	case strings.Contains(lower, "transferência"):
		return model.TransferBank
	default:
		return model.TransferUnknown
	}
}

// Headers, footers and separators that appear in bank statements but are not
// transaction lines.
var statementNoise = []string{
	"saldo anterior", "saldo atual", "total", "subtotal",
	"agência", "conta", "período", "página",
	"===", "---", "banco", "extrato",
}

// isStatementLine reports whether a bank-statement line can carry a
// transaction.
func isStatementLine(line string) bool {
	lower := strings.ToLower(line)
	for _, noise := range statementNoise {
		if strings.Contains(lower, noise) {
			return false
		}
	}
	return true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
