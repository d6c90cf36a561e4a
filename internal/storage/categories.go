package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rafaelqm/concilia/internal/categorize"
	"github.com/rafaelqm/concilia/internal/model"
)

// GetCategories returns all active categories ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, context, color, icon, emoji, is_active, created_at
		FROM categories
		WHERE is_active = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		var context sql.NullString

		if err := rows.Scan(&cat.ID, &cat.Name, &context, &cat.Color,
			&cat.Icon, &cat.Emoji, &cat.IsActive, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		cat.Context = model.Context(context.String)
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

// FindOrCreateCategory returns the category with the given name, creating it
// on first use. New categories pick up their visual metadata from the rule
// table when the name is known there.
func (s *SQLiteStorage) FindOrCreateCategory(ctx context.Context, name string, docCtx model.Context) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	existing, err := s.getCategoryByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	visuals := categorize.DefaultVisuals(name)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, context, color, icon, emoji, is_active)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(name) DO UPDATE SET is_active = 1
	`, name, string(docCtx), visuals.Color, visuals.Icon, visuals.Emoji)
	if err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read category id: %w", err)
	}

	return &model.Category{
		ID:       int(id),
		Name:     name,
		Context:  docCtx,
		Color:    visuals.Color,
		Icon:     visuals.Icon,
		Emoji:    visuals.Emoji,
		IsActive: true,
	}, nil
}

func (s *SQLiteStorage) getCategoryByName(ctx context.Context, name string) (*model.Category, error) {
	var cat model.Category
	var context sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, context, color, icon, emoji, is_active, created_at
		FROM categories WHERE name = ?
	`, name).Scan(&cat.ID, &cat.Name, &context, &cat.Color,
		&cat.Icon, &cat.Emoji, &cat.IsActive, &cat.CreatedAt)
	if err != nil {
		return nil, err
	}

	cat.Context = model.Context(context.String)
	return &cat, nil
}
