package report

import (
	"github.com/rafaelqm/concilia/internal/model"
)

// PeriodStats summarizes a user's persisted transactions over a lookback
// window, used by the stats command.
type PeriodStats struct {
	ByStatus   map[string]int   `json:"by_reconciliation_status"`
	ByCategory map[string]int   `json:"by_category"`
	Financial  FinancialSummary `json:"financial"`
	Quality    QualityMetrics   `json:"quality_metrics"`
	Period     string           `json:"period"`
	Total      int              `json:"total_transactions"`
}

// BuildPeriodStats aggregates already-fetched transactions; the caller
// decides the window and passes its label.
func BuildPeriodStats(txns []model.Transaction, period string) PeriodStats {
	stats := PeriodStats{
		Period:     period,
		Total:      len(txns),
		ByStatus:   countByStatus(txns),
		ByCategory: make(map[string]int),
		Financial:  financialSummary(txns),
		Quality:    qualityMetrics(txns),
	}

	for _, txn := range txns {
		category := txn.Category
		if category == "" {
			category = model.CategoryOther
		}
		stats.ByCategory[category]++
	}

	return stats
}
