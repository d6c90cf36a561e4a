package parse

import (
	"strings"

	"github.com/rafaelqm/concilia/internal/model"
)

// Keyword tables voted over when the document type gives no firm rule.
var (
	negativeIndicators = []string{
		"débito", "saque", "pagamento", "transferência enviada", "compra",
		"taxa", "tarifa", "anuidade", "juros", "multa", "desconto",
		"pix enviado", "ted enviada", "doc enviado", "cartão", "fatura",
	}

	positiveIndicators = []string{
		"crédito", "depósito", "transferência recebida", "pix recebido",
		"ted recebida", "doc recebido", "salário", "rendimento",
		"estorno", "reembolso", "venda", "recebimento",
	}
)

// DetectType determines the transaction direction for a text line.
// Document-type-specific rules take precedence: credit-card statement lines
// are always expenses and transfer receipts follow the received/sent wording.
// Otherwise a weighted vote between the keyword tables decides; ties default
// to expense.
func DetectType(line string, docType model.DocumentType) model.TransactionType {
	lower := strings.ToLower(line)

	switch docType {
	case model.DocCreditCardStatement:
		return model.TypeExpense
	case model.DocTransferReceipt:
		if strings.Contains(lower, "recebido") || strings.Contains(lower, "recebimento") {
			return model.TypeIncome
		}
		return model.TypeExpense
	}

	negativeScore := 0
	for _, indicator := range negativeIndicators {
		if strings.Contains(lower, indicator) {
			negativeScore++
		}
	}

	positiveScore := 0
	for _, indicator := range positiveIndicators {
		if strings.Contains(lower, indicator) {
			positiveScore++
		}
	}

	switch {
	case positiveScore > negativeScore:
		return model.TypeIncome
	case negativeScore > positiveScore:
		return model.TypeExpense
	}

	// Tie-break on a few strong income markers before defaulting to expense.
	for _, marker := range []string{"pix recebido", "depósito", "crédito"} {
		if strings.Contains(lower, marker) {
			return model.TypeIncome
		}
	}
	return model.TypeExpense
}
