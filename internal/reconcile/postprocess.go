package reconcile

import (
	"strings"

	"github.com/rafaelqm/concilia/internal/model"
)

var recurringKeywords = []string{"mensalidade", "assinatura", "plano", "parcela", "prestação"}

// Categories whose presence raises a transaction's importance.
var importantCategories = map[string]bool{
	"Saúde e Bem-estar": true,
	"Casa e Moradia":    true,
	"Vendas E-commerce": true,
}

// PostProcess applies the final refinement pass to a classified transaction:
// category refinement for high-value and recurring operations, the final
// quality score and the importance score.
func PostProcess(txn *model.Transaction) {
	refineCategory(txn)
	txn.QualityScore = finalQualityScore(txn)
	txn.ImportanceScore = importanceScore(txn)
}

// refineCategory revisits transactions the rule table could not place. High
// values get context-specific buckets, and recurring subscription wording
// overrides the generic label.
func refineCategory(txn *model.Transaction) {
	description := strings.ToLower(txn.Description)

	if txn.Category == model.CategoryOther && txn.Amount > 3000 {
		switch {
		case txn.Type == model.TypeIncome:
			txn.Category = "Renda Principal"
		case containsAnyWord(description, "aluguel", "financiamento", "empréstimo"):
			txn.Category = "Casa e Moradia"
		case containsAnyWord(description, "carro", "veículo", "auto"):
			txn.Category = "Transporte e Combustível"
		default:
			txn.Category = "Grandes Gastos"
		}
	}

	if isRecurring(description) && containsAnyWord(description, "mensalidade", "assinatura", "plano") {
		txn.Category = "Serviços Recorrentes"
	}
}

func isRecurring(description string) bool {
	return containsAnyWord(description, recurringKeywords...)
}

// finalQualityScore adjusts the extraction confidence by how the
// reconciliation went and how specific the category is.
func finalQualityScore(txn *model.Transaction) float64 {
	score := txn.Confidence
	if score <= 0 {
		score = 0.5
	}

	if txn.Outcome != nil {
		switch txn.Outcome.Status {
		case model.StatusReconciledWithOrder:
			score += 0.2
		case model.StatusNewTransaction:
			score += 0.1
		case model.StatusPotentialMatch:
			score -= 0.1
		}
	}

	if txn.Category != model.CategoryOther {
		score += 0.15
	}

	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}

// importanceScore ranks how much a transaction deserves the user's
// attention: value band, category weight and a successful reconciliation.
func importanceScore(txn *model.Transaction) float64 {
	score := 0.5

	switch {
	case txn.Amount > 5000:
		score += 0.4
	case txn.Amount > 1000:
		score += 0.3
	case txn.Amount > 500:
		score += 0.2
	case txn.Amount > 100:
		score += 0.1
	}

	if importantCategories[txn.Category] {
		score += 0.2
	}

	if txn.Outcome != nil && txn.Outcome.Status == model.StatusReconciledWithOrder {
		score += 0.3
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func containsAnyWord(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
