// Package report computes summaries and recommendations over a classified
// transaction batch. Everything here is a pure function over its input; it is
// safe to call repeatedly and has no side effects.
package report

import (
	"fmt"
	"sort"

	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/reconcile"
)

// CategoryBreakdown aggregates one category's transactions.
type CategoryBreakdown struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Total    float64 `json:"total"`
	Average  float64 `json:"average"`
}

// FinancialSummary totals the batch by direction.
type FinancialSummary struct {
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
	NetAmount    float64 `json:"net_amount"`
	IncomeCount  int     `json:"income_count"`
	ExpenseCount int     `json:"expense_count"`
}

// QualityMetrics summarizes how trustworthy the batch is.
type QualityMetrics struct {
	AverageConfidence float64 `json:"average_confidence"`
	HighQualityCount  int     `json:"high_quality_count"`
	LowQualityCount   int     `json:"low_quality_count"`
	FlaggedForReview  int     `json:"flagged_for_review"`
}

// ReconciliationEfficiency expresses the batch outcome mix as percentages.
type ReconciliationEfficiency struct {
	SuccessRate             float64 `json:"success_rate"`
	DuplicatePreventionRate float64 `json:"duplicate_prevention_rate"`
	OrderReconciliationRate float64 `json:"order_reconciliation_rate"`
}

// Summary is the full processing report returned to the caller alongside the
// classified transactions.
type Summary struct {
	ByStatus      map[string]int           `json:"by_status"`
	ByAmountRange map[string]int           `json:"by_amount_range"`
	Financial     FinancialSummary         `json:"financial"`
	Categories    []CategoryBreakdown      `json:"categories"`
	Quality       QualityMetrics           `json:"quality"`
	Efficiency    ReconciliationEfficiency `json:"efficiency"`
	Stats         reconcile.Stats          `json:"statistics"`
	SkippedLines  int                      `json:"skipped_lines"`
	Degradations  []string                 `json:"degradations,omitempty"`
}

// Recommendation is one rule-based suggestion surfaced to the user.
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
	Action   string `json:"action"`
	Details  string `json:"details"`
}

// Histogram band edges, inclusive upper bounds.
var amountRanges = []struct {
	label string
	upper float64
}{
	{"0-50", 50},
	{"51-200", 200},
	{"201-500", 500},
	{"501-1000", 1000},
	{"1001-5000", 5000},
}

const lastRangeLabel = "5000+"

// BuildSummary aggregates a classified batch into the processing report.
func BuildSummary(txns []model.Transaction, stats reconcile.Stats, skippedLines int) Summary {
	s := Summary{
		ByStatus:      countByStatus(txns),
		ByAmountRange: countByAmountRange(txns),
		Financial:     financialSummary(txns),
		Categories:    categoryBreakdown(txns),
		Quality:       qualityMetrics(txns),
		Efficiency:    efficiency(stats),
		Stats:         stats,
		SkippedLines:  skippedLines,
	}

	for _, txn := range txns {
		if txn.Outcome != nil {
			s.Degradations = append(s.Degradations, txn.Outcome.Degradations...)
		}
	}

	return s
}

func countByStatus(txns []model.Transaction) map[string]int {
	counts := make(map[string]int)
	for _, txn := range txns {
		status := "unknown"
		if txn.Outcome != nil {
			status = string(txn.Outcome.Status)
		}
		counts[status]++
	}
	return counts
}

func countByAmountRange(txns []model.Transaction) map[string]int {
	counts := make(map[string]int, len(amountRanges)+1)
	for _, r := range amountRanges {
		counts[r.label] = 0
	}
	counts[lastRangeLabel] = 0

	for _, txn := range txns {
		counts[rangeLabel(txn.Amount)]++
	}
	return counts
}

func rangeLabel(amount float64) string {
	for _, r := range amountRanges {
		if amount <= r.upper {
			return r.label
		}
	}
	return lastRangeLabel
}

func financialSummary(txns []model.Transaction) FinancialSummary {
	var s FinancialSummary
	for _, txn := range txns {
		if txn.Type == model.TypeIncome {
			s.TotalIncome += txn.Amount
			s.IncomeCount++
		} else {
			s.TotalExpense += txn.Amount
			s.ExpenseCount++
		}
	}
	s.NetAmount = s.TotalIncome - s.TotalExpense
	return s
}

// categoryBreakdown returns per-category counts, totals and averages, largest
// total first.
func categoryBreakdown(txns []model.Transaction) []CategoryBreakdown {
	byCategory := make(map[string]*CategoryBreakdown)
	order := make([]string, 0)

	for _, txn := range txns {
		category := txn.Category
		if category == "" {
			category = model.CategoryOther
		}
		b, ok := byCategory[category]
		if !ok {
			b = &CategoryBreakdown{Category: category}
			byCategory[category] = b
			order = append(order, category)
		}
		b.Count++
		b.Total += txn.Amount
	}

	breakdown := make([]CategoryBreakdown, 0, len(order))
	for _, category := range order {
		b := byCategory[category]
		if b.Count > 0 {
			b.Average = b.Total / float64(b.Count)
		}
		breakdown = append(breakdown, *b)
	}

	sort.Slice(breakdown, func(i, j int) bool {
		return breakdown[i].Total > breakdown[j].Total
	})

	return breakdown
}

func qualityMetrics(txns []model.Transaction) QualityMetrics {
	var m QualityMetrics
	if len(txns) == 0 {
		return m
	}

	total := 0.0
	for _, txn := range txns {
		total += txn.QualityScore
		if txn.QualityScore > 0.8 {
			m.HighQualityCount++
		}
		if txn.QualityScore < 0.5 {
			m.LowQualityCount++
		}
		if txn.Outcome != nil && txn.Outcome.Status == model.StatusPotentialMatch {
			m.FlaggedForReview++
		}
	}
	m.AverageConfidence = total / float64(len(txns))
	return m
}

func efficiency(stats reconcile.Stats) ReconciliationEfficiency {
	total := stats.TotalProcessed
	if total == 0 {
		total = 1
	}
	return ReconciliationEfficiency{
		SuccessRate:             float64(stats.NewTransactions+stats.ReconciledOrders) / float64(total) * 100,
		DuplicatePreventionRate: float64(stats.IgnoredDuplicates) / float64(total) * 100,
		OrderReconciliationRate: float64(stats.ReconciledOrders) / float64(total) * 100,
	}
}

// Recommendations derives the rule-based suggestion list from a batch.
func Recommendations(txns []model.Transaction, stats reconcile.Stats) []Recommendation {
	var recs []Recommendation

	if stats.IgnoredDuplicates > 0 {
		recs = append(recs, Recommendation{
			Type:     "duplicate_prevention",
			Priority: "medium",
			Message:  fmt.Sprintf("%d transações duplicadas foram automaticamente ignoradas.", stats.IgnoredDuplicates),
			Action:   "review_duplicate_policy",
			Details:  "Sistema de anti-duplicidade funcionando corretamente.",
		})
	}

	if stats.ReconciledOrders > 0 {
		recs = append(recs, Recommendation{
			Type:     "order_reconciliation",
			Priority: "high",
			Message:  fmt.Sprintf("%d transações foram automaticamente reconciliadas com pedidos.", stats.ReconciledOrders),
			Action:   "confirm_auto_reconciliation",
			Details:  "Pedidos foram automaticamente confirmados. Verifique se está correto.",
		})
	}

	if stats.PotentialMatches > 0 {
		recs = append(recs, Recommendation{
			Type:     "potential_duplicates",
			Priority: "high",
			Message:  fmt.Sprintf("%d transações precisam de revisão manual.", stats.PotentialMatches),
			Action:   "review_flagged_transactions",
			Details:  "Potenciais duplicatas foram sinalizadas em vez de descartadas.",
		})
	}

	uncategorized := 0
	lowQuality := 0
	for _, txn := range txns {
		if txn.Category == model.CategoryOther {
			uncategorized++
		}
		if txn.QualityScore < 0.6 {
			lowQuality++
		}
	}

	if uncategorized > 0 {
		recs = append(recs, Recommendation{
			Type:     "categorization_improvement",
			Priority: "low",
			Message:  fmt.Sprintf("%d transações ficaram na categoria %q.", uncategorized, model.CategoryOther),
			Action:   "improve_categorization_rules",
			Details:  "Considere adicionar novas regras de categorização.",
		})
	}

	if len(txns) > 0 && lowQuality > len(txns)/5 {
		recs = append(recs, Recommendation{
			Type:     "data_quality",
			Priority: "medium",
			Message:  fmt.Sprintf("%d transações têm baixa qualidade de dados.", lowQuality),
			Action:   "review_extraction_quality",
			Details:  "Verifique a qualidade do documento original ou ajuste parâmetros de extração.",
		})
	}

	return recs
}
