// Package engine wires the extraction, enrichment, reconciliation and
// reporting stages into the single document-processing entry point consumed
// by the CLI and by embedding callers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rafaelqm/concilia/internal/categorize"
	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/enrich"
	"github.com/rafaelqm/concilia/internal/extract"
	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/reconcile"
	"github.com/rafaelqm/concilia/internal/report"
	"github.com/rafaelqm/concilia/internal/service"
)

// Result is what Process hands back to the caller: every classified
// transaction with its outcome attached, plus the aggregate report. The
// caller persists what is new or reconciled and surfaces the rest for
// review.
type Result struct {
	Transactions    []model.Transaction     `json:"transactions"`
	Summary         report.Summary          `json:"summary"`
	Recommendations []report.Recommendation `json:"recommendations"`
	DocumentType    model.DocumentType      `json:"document_type"`
	Success         bool                    `json:"success"`
}

// Config holds engine construction options.
type Config struct {
	Tolerances model.ToleranceConfig
	DryRun     bool
}

// DefaultConfig returns the engine defaults: standard tolerance windows,
// persistence enabled.
func DefaultConfig() Config {
	return Config{Tolerances: model.DefaultTolerances()}
}

// Engine runs one document through the full pipeline. It is synchronous:
// one invocation owns no shared mutable state beyond the reconciler's
// short-lived lookup cache.
type Engine struct {
	registry     *extract.Registry
	enricher     *enrich.Enricher
	reconciler   *reconcile.Reconciler
	transactions service.TransactionStore
	categories   service.CategoryStore
	dryRun       bool
}

// New creates an engine over the given stores with default configuration.
func New(transactions service.TransactionStore, orders service.OrderStore, categories service.CategoryStore) (*Engine, error) {
	return NewWithConfig(transactions, orders, categories, DefaultConfig())
}

// NewWithConfig creates an engine with explicit configuration.
func NewWithConfig(transactions service.TransactionStore, orders service.OrderStore, categories service.CategoryStore, cfg Config) (*Engine, error) {
	table, err := categorize.LoadDefaultTable()
	if err != nil {
		return nil, fmt.Errorf("loading category rules: %w", err)
	}
	enricher := enrich.New(categorize.NewEngine(table), enrich.DefaultTimezoneOffsetHours)

	return &Engine{
		registry:     extract.NewRegistry(),
		enricher:     enricher,
		reconciler:   reconcile.NewWithTolerances(transactions, orders, cfg.Tolerances),
		transactions: transactions,
		categories:   categories,
		dryRun:       cfg.DryRun,
	}, nil
}

// Process runs one document end to end: extract, enrich, reconcile, report,
// persist. Extraction failures and persistence failures fail the call;
// everything else degrades into the summary.
func (e *Engine) Process(ctx context.Context, fileBytes []byte, fileExtension string, docCtx model.Context, userID string) (*Result, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", common.ErrInvalidConfig)
	}

	started := time.Now()
	slog.Info("processing document",
		"extension", fileExtension,
		"context", docCtx,
		"user_id", userID,
		"size_bytes", len(fileBytes))

	extracted, err := e.registry.Extract(ctx, fileBytes, fileExtension, docCtx)
	if err != nil {
		return nil, extractionError(err)
	}
	if len(extracted.Candidates) == 0 {
		return nil, fmt.Errorf("documento não contém transações reconhecíveis: %w", common.ErrNoTransactions)
	}

	enriched := make([]model.Transaction, 0, len(extracted.Candidates))
	for _, candidate := range extracted.Candidates {
		txn := e.enricher.Enrich(candidate)
		txn.UserID = userID
		enriched = append(enriched, txn)
	}

	classified, stats := e.reconciler.ProcessBatch(ctx, enriched, userID)

	if !e.dryRun {
		if err := e.persist(ctx, userID, docCtx, classified); err != nil {
			return nil, fmt.Errorf("persisting transactions: %w", err)
		}
	}

	summary := report.BuildSummary(classified, stats, extracted.SkippedLines)
	slog.Info("document processed",
		"transactions", len(classified),
		"new", stats.NewTransactions,
		"duplicates", stats.IgnoredDuplicates,
		"reconciled", stats.ReconciledOrders,
		"flagged", stats.PotentialMatches,
		"skipped_lines", extracted.SkippedLines,
		"duration", time.Since(started))

	return &Result{
		Success:         true,
		Transactions:    classified,
		Summary:         summary,
		Recommendations: report.Recommendations(classified, stats),
		DocumentType:    extracted.DocumentType,
	}, nil
}

// persist saves transactions whose outcome marks them ready, creating any
// category the first time its name appears.
func (e *Engine) persist(ctx context.Context, userID string, docCtx model.Context, txns []model.Transaction) error {
	var toSave []model.Transaction
	seen := make(map[string]bool)

	for _, txn := range txns {
		if txn.Outcome == nil {
			continue
		}
		switch txn.Outcome.Action {
		case model.ActionReadyToSave, model.ActionReconciled:
		default:
			continue
		}

		if !seen[txn.Category] {
			seen[txn.Category] = true
			if _, err := e.categories.FindOrCreateCategory(ctx, txn.Category, docCtx); err != nil {
				return fmt.Errorf("ensuring category %q: %w", txn.Category, err)
			}
		}

		toSave = append(toSave, txn)
	}

	if len(toSave) == 0 {
		return nil
	}
	return e.transactions.SaveTransactions(ctx, userID, toSave)
}

// Statistics summarizes the user's persisted transactions over the lookback
// window.
func (e *Engine) Statistics(ctx context.Context, userID string, window time.Duration) (report.PeriodStats, error) {
	if window <= 0 {
		window = 30 * 24 * time.Hour
	}

	since := time.Now().Add(-window)
	txns, err := e.transactions.GetSince(ctx, userID, since)
	if err != nil {
		return report.PeriodStats{}, fmt.Errorf("loading transactions: %w", err)
	}

	label := fmt.Sprintf("%d_days", int(window.Hours()/24))
	return report.BuildPeriodStats(txns, label), nil
}

// extractionError maps extractor failures onto user-facing messages.
func extractionError(err error) error {
	switch {
	case errors.Is(err, common.ErrUnsupportedFormat):
		return fmt.Errorf("tipo de arquivo não suportado: %w", err)
	case errors.Is(err, common.ErrEmptyDocument):
		return fmt.Errorf("documento vazio ou sem conteúdo legível: %w", err)
	case errors.Is(err, common.ErrNoTransactions):
		return fmt.Errorf("nenhuma transação encontrada no documento: %w", err)
	default:
		return fmt.Errorf("falha na extração: %w", err)
	}
}
