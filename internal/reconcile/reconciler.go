package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/service"
)

// Stats counts the outcomes of one reconciliation batch.
type Stats struct {
	TotalProcessed    int
	NewTransactions   int
	IgnoredDuplicates int
	ReconciledOrders  int
	PotentialMatches  int
	Errors            int
}

// stepMatch is the typed result of one reconciler level. A level either
// produced a terminal outcome, degraded (lookup failed, treated as no match)
// or found nothing.
type stepMatch struct {
	outcome  *model.ReconciliationOutcome
	degraded string
}

// Reconciler classifies enriched transactions against the user's persisted
// history and pending orders. Levels run in strict priority order per
// candidate; the first match is terminal.
type Reconciler struct {
	transactions service.TransactionStore
	orders       service.OrderStore
	cache        *common.TTLCache
	tolerances   model.ToleranceConfig
}

// New creates a reconciler over the given stores with the default tolerance
// windows.
func New(transactions service.TransactionStore, orders service.OrderStore) *Reconciler {
	return NewWithTolerances(transactions, orders, model.DefaultTolerances())
}

// NewWithTolerances creates a reconciler with explicit tolerance windows.
func NewWithTolerances(transactions service.TransactionStore, orders service.OrderStore, tolerances model.ToleranceConfig) *Reconciler {
	return &Reconciler{
		transactions: transactions,
		orders:       orders,
		tolerances:   tolerances,
		cache:        common.NewTTLCache(5 * time.Minute),
	}
}

// ProcessBatch classifies every transaction in the batch and runs the final
// quality pass. A per-candidate failure becomes a processing_error outcome,
// never a lost transaction.
func (r *Reconciler) ProcessBatch(ctx context.Context, txns []model.Transaction, userID string) ([]model.Transaction, Stats) {
	var stats Stats
	processed := make([]model.Transaction, 0, len(txns))

	for _, txn := range txns {
		outcome := r.reconcileOne(ctx, &txn, userID)
		txn.Outcome = outcome

		switch outcome.Status {
		case model.StatusNewTransaction:
			stats.NewTransactions++
		case model.StatusIgnoredDuplicate:
			stats.IgnoredDuplicates++
		case model.StatusReconciledWithOrder:
			stats.ReconciledOrders++
		case model.StatusPotentialMatch:
			stats.PotentialMatches++
		default:
			stats.Errors++
		}
		stats.TotalProcessed++

		PostProcess(&txn)
		processed = append(processed, txn)
	}

	return processed, stats
}

// reconcileOne runs the four levels. Errors in levels 1-3 degrade to "no
// match" so a flaky lookup never blocks a candidate from landing as a new
// transaction; every degradation is recorded on the outcome.
func (r *Reconciler) reconcileOne(ctx context.Context, txn *model.Transaction, userID string) *model.ReconciliationOutcome {
	var degradations []string

	step := r.checkExactDuplicate(ctx, txn, userID)
	if step.degraded != "" {
		degradations = append(degradations, step.degraded)
	}
	if step.outcome != nil {
		step.outcome.Degradations = degradations
		return step.outcome
	}

	if txn.Type == model.TypeIncome && txn.IsPIX() {
		step = r.checkOrderReconciliation(ctx, txn, userID)
		if step.degraded != "" {
			degradations = append(degradations, step.degraded)
		}
		if step.outcome != nil {
			step.outcome.Degradations = degradations
			return step.outcome
		}
	}

	step = r.checkPotentialDuplicate(ctx, txn, userID)
	if step.degraded != "" {
		degradations = append(degradations, step.degraded)
	}
	if step.outcome != nil {
		step.outcome.Degradations = degradations
		return step.outcome
	}

	return &model.ReconciliationOutcome{
		Status:       model.StatusNewTransaction,
		Action:       model.ActionReadyToSave,
		Reason:       "Nova operação financeira identificada",
		Degradations: degradations,
	}
}

// checkExactDuplicate is level 1. The content hash is the fast path; the
// fallback is same amount plus a narrow date window plus description
// similarity above the strict threshold.
func (r *Reconciler) checkExactDuplicate(ctx context.Context, txn *model.Transaction, userID string) stepMatch {
	hashMatches, err := r.transactions.FindByContentHash(ctx, userID, txn.ContentHash)
	if err != nil {
		slog.Warn("exact duplicate check degraded", "step", "hash", "error", err)
		return stepMatch{degraded: fmt.Sprintf("hash lookup failed: %v", err)}
	}
	if len(hashMatches) > 0 {
		return stepMatch{outcome: &model.ReconciliationOutcome{
			Status:      model.StatusIgnoredDuplicate,
			Action:      model.ActionIgnored,
			Reason:      "Duplicata exata encontrada (hash match)",
			DuplicateID: hashMatches[0].ID,
		}}
	}

	query := service.SimilarQuery{
		UserID:    userID,
		AmountMin: txn.Amount,
		AmountMax: txn.Amount,
	}
	if txn.HasTime && !txn.NormalizedDatetime.IsZero() {
		query.DateFrom = txn.NormalizedDatetime.Add(-r.tolerances.TimeWindow)
		query.DateTo = txn.NormalizedDatetime.Add(r.tolerances.TimeWindow)
	} else {
		query.DateFrom = txn.Date
		query.DateTo = txn.Date.Add(24 * time.Hour)
	}

	candidates, err := r.transactions.FindSimilar(ctx, query)
	if err != nil {
		slog.Warn("exact duplicate check degraded", "step", "similar", "error", err)
		return stepMatch{degraded: fmt.Sprintf("similarity lookup failed: %v", err)}
	}

	for _, existing := range candidates {
		if TextSimilarity(txn.Description, existing.Description) >= r.tolerances.DescriptionSimilarity {
			return stepMatch{outcome: &model.ReconciliationOutcome{
				Status:      model.StatusIgnoredDuplicate,
				Action:      model.ActionIgnored,
				Reason:      "Duplicata encontrada - valor, data e descrição similares",
				DuplicateID: existing.ID,
			}}
		}
	}

	return stepMatch{}
}

// checkOrderReconciliation is level 2, reached only for income PIX
// candidates. A matched order is confirmed as a side effect; when that
// persistence fails the match still stands, flagged as not auto-confirmed.
func (r *Reconciler) checkOrderReconciliation(ctx context.Context, txn *model.Transaction, userID string) stepMatch {
	if txn.PIXClientName == "" {
		return stepMatch{}
	}

	slack := txn.Amount * r.tolerances.AmountTolerance
	pending, err := r.pendingOrders(ctx, userID, txn.Amount-slack, txn.Amount+slack)
	if err != nil {
		slog.Warn("order reconciliation degraded", "error", err)
		return stepMatch{degraded: fmt.Sprintf("pending order lookup failed: %v", err)}
	}

	for _, order := range pending {
		if !MatchClientNames(txn.PIXClientName, order.CustomerName) {
			continue
		}

		confirmErr := common.WithRetry(ctx, func() error {
			return r.orders.ConfirmOrder(ctx, order.ID, "pix", time.Now())
		}, common.RetryOptions{MaxAttempts: 3})

		r.cache.Evict(ordersCacheKey(userID, txn.Amount-slack, txn.Amount+slack))

		outcome := &model.ReconciliationOutcome{
			Status:         model.StatusReconciledWithOrder,
			Action:         model.ActionReconciled,
			MatchedOrderID: order.ID,
			CustomerName:   order.CustomerName,
			AutoConfirmed:  confirmErr == nil,
		}
		if confirmErr == nil {
			outcome.Reason = fmt.Sprintf("Reconciliado com Pedido #%s - Cliente: %s", shortID(order.ID), order.CustomerName)
			slog.Info("order auto-confirmed via pix",
				"order_id", order.ID,
				"customer", order.CustomerName,
				"amount", txn.Amount)
		} else {
			outcome.Reason = fmt.Sprintf("Match encontrado com Pedido #%s (erro na confirmação)", shortID(order.ID))
			slog.Error("order confirmation failed", "order_id", order.ID, "error", confirmErr)
		}

		return stepMatch{outcome: outcome}
	}

	return stepMatch{}
}

// checkPotentialDuplicate is level 3: a wider search (±5% amount, ±3 days,
// same type) with a lower similarity bar. Hits are flagged for review, not
// discarded.
func (r *Reconciler) checkPotentialDuplicate(ctx context.Context, txn *model.Transaction, userID string) stepMatch {
	slack := txn.Amount * r.tolerances.RelaxedAmountTolerance
	query := service.SimilarQuery{
		UserID:    userID,
		Type:      txn.Type,
		AmountMin: txn.Amount - slack,
		AmountMax: txn.Amount + slack,
		DateFrom:  txn.Date.Add(-r.tolerances.RelaxedDateWindow),
		DateTo:    txn.Date.Add(r.tolerances.RelaxedDateWindow),
	}

	candidates, err := r.transactions.FindSimilar(ctx, query)
	if err != nil {
		slog.Warn("potential duplicate check degraded", "error", err)
		return stepMatch{degraded: fmt.Sprintf("relaxed lookup failed: %v", err)}
	}

	for _, existing := range candidates {
		score := TextSimilarity(txn.Description, existing.Description)
		if score >= r.tolerances.PotentialSimilarity {
			return stepMatch{outcome: &model.ReconciliationOutcome{
				Status:          model.StatusPotentialMatch,
				Action:          model.ActionFlaggedForReview,
				Reason:          fmt.Sprintf("Potencial duplicata - similaridade de %.0f%%", score*100),
				SimilarID:       existing.ID,
				SimilarityScore: score,
			}}
		}
	}

	return stepMatch{}
}

// pendingOrders memoizes order lookups for the duration of a batch. The
// cache is convenience only; confirming an order evicts its entry.
func (r *Reconciler) pendingOrders(ctx context.Context, userID string, amountMin, amountMax float64) ([]model.PendingOrder, error) {
	key := ordersCacheKey(userID, amountMin, amountMax)
	if cached, ok := r.cache.Get(key); ok {
		if orders, ok := cached.([]model.PendingOrder); ok {
			return orders, nil
		}
	}

	orders, err := r.orders.FindPending(ctx, userID, amountMin, amountMax)
	if err != nil {
		return nil, err
	}

	r.cache.Set(key, orders)
	return orders, nil
}

func ordersCacheKey(userID string, amountMin, amountMax float64) string {
	return fmt.Sprintf("orders:%s:%.2f:%.2f", userID, amountMin, amountMax)
}

func shortID(id string) string {
	if len(id) <= 6 {
		return id
	}
	return id[len(id)-6:]
}
