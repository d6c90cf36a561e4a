package model

import "time"

// ToleranceConfig holds the matching windows used by the reconciler. Loaded
// once at engine construction and never mutated during a run.
type ToleranceConfig struct {
	// TimeWindow is the timestamp slack for exact-duplicate matching.
	TimeWindow time.Duration
	// AmountTolerance is the relative amount slack for order reconciliation.
	AmountTolerance float64
	// DescriptionSimilarity is the threshold for exact-duplicate description
	// comparison.
	DescriptionSimilarity float64
	// NameSimilarity is the threshold for counterparty name comparison.
	NameSimilarity float64
	// RelaxedAmountTolerance widens the amount window for the
	// potential-duplicate search.
	RelaxedAmountTolerance float64
	// RelaxedDateWindow widens the date window for the potential-duplicate
	// search.
	RelaxedDateWindow time.Duration
	// PotentialSimilarity is the lower threshold that flags a candidate for
	// review instead of discarding it.
	PotentialSimilarity float64
}

// DefaultTolerances returns the tolerance windows the engine ships with:
// ±10 minutes, 1% amount, 0.75 description similarity, 0.60 name similarity,
// and a relaxed ±5% / ±3 days / 0.60 search for potential duplicates.
func DefaultTolerances() ToleranceConfig {
	return ToleranceConfig{
		TimeWindow:             10 * time.Minute,
		AmountTolerance:        0.01,
		DescriptionSimilarity:  0.75,
		NameSimilarity:         0.60,
		RelaxedAmountTolerance: 0.05,
		RelaxedDateWindow:      72 * time.Hour,
		PotentialSimilarity:    0.60,
	}
}
