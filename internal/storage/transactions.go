package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rafaelqm/concilia/internal/model"
	"github.com/rafaelqm/concilia/internal/service"
)

const transactionColumns = `id, user_id, content_hash, date, normalized_datetime,
	description, category, type, context, source, document_type,
	pix_direction, pix_client_name, transfer_method, tags, status,
	amount, confidence, quality_score, importance_score`

// SaveTransactions persists classified transactions. Re-inserting an
// existing ID is a no-op, so replays are harmless.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, userID string, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(userID, "userID"); err != nil {
		return err
	}
	if err := validateTransactions(transactions); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, txn := range transactions {
		tags, marshalErr := json.Marshal(txn.Tags)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal tags for %s: %w", txn.ID, marshalErr)
		}

		status := ""
		if txn.Outcome != nil {
			status = string(txn.Outcome.Status)
		}

		var normalized any
		if !txn.NormalizedDatetime.IsZero() {
			normalized = txn.NormalizedDatetime
		}

		if _, execErr := stmt.ExecContext(ctx,
			txn.ID, userID, txn.ContentHash, txn.Date, normalized,
			txn.Description, txn.Category, string(txn.Type), string(txn.Context),
			string(txn.Source), string(txn.DocumentType),
			string(txn.PIXDirection), txn.PIXClientName, string(txn.TransferMethod),
			string(tags), status,
			txn.Amount, txn.Confidence, txn.QualityScore, txn.ImportanceScore,
		); execErr != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, execErr)
		}
	}

	return tx.Commit()
}

// FindByContentHash returns a user's transactions carrying the exact content
// hash.
func (s *SQLiteStorage) FindByContentHash(ctx context.Context, userID, contentHash string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}
	if err := validateString(contentHash, "contentHash"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND content_hash = ?
	`, userID, contentHash)
	if err != nil {
		return nil, fmt.Errorf("failed to query by content hash: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// FindSimilar returns transactions inside the query's amount band and date
// window, optionally restricted to one direction.
func (s *SQLiteStorage) FindSimilar(ctx context.Context, q service.SimilarQuery) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(q.UserID, "userID"); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = ? AND amount >= ? AND amount <= ?
		  AND date >= ? AND date <= ?
	`
	args := []any{q.UserID, q.AmountMin, q.AmountMax, q.DateFrom, q.DateTo}

	if q.Type != "" {
		query += " AND type = ?"
		args = append(args, string(q.Type))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

// GetSince returns a user's transactions on or after the given time, newest
// first.
func (s *SQLiteStorage) GetSince(ctx context.Context, userID string, since time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = ? AND date >= ?
		ORDER BY date DESC
	`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions since %s: %w", since.Format("2006-01-02"), err)
	}
	defer func() { _ = rows.Close() }()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]model.Transaction, error) {
	var transactions []model.Transaction

	for rows.Next() {
		var txn model.Transaction
		var normalized sql.NullTime
		var category, context, source, docType sql.NullString
		var pixDir, pixName, method, tags, status sql.NullString

		if err := rows.Scan(
			&txn.ID, &txn.UserID, &txn.ContentHash, &txn.Date, &normalized,
			&txn.Description, &category, &txn.Type, &context, &source, &docType,
			&pixDir, &pixName, &method, &tags, &status,
			&txn.Amount, &txn.Confidence, &txn.QualityScore, &txn.ImportanceScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if normalized.Valid {
			txn.NormalizedDatetime = normalized.Time
			txn.HasTime = true
		}
		txn.Category = category.String
		txn.Context = model.Context(context.String)
		txn.Source = model.SourceFormat(source.String)
		txn.DocumentType = model.DocumentType(docType.String)
		txn.PIXDirection = model.PIXDirection(pixDir.String)
		txn.PIXClientName = pixName.String
		txn.TransferMethod = model.TransferMethod(method.String)

		if tags.Valid && tags.String != "" {
			if err := json.Unmarshal([]byte(tags.String), &txn.Tags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tags for %s: %w", txn.ID, err)
			}
		}
		if status.Valid && status.String != "" {
			txn.Outcome = &model.ReconciliationOutcome{Status: model.ReconciliationStatus(status.String)}
		}

		transactions = append(transactions, txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return transactions, nil
}
