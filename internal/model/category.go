package model

import "time"

// Category represents a persisted category record. Visual metadata (color,
// icon, emoji) travels with the category so callers can render it without a
// second lookup.
type Category struct {
	CreatedAt time.Time
	Name      string
	Color     string
	Icon      string
	Emoji     string
	Context   Context
	ID        int
	IsActive  bool
}

// CategoryOther is the catch-all label used when no rule matches.
const CategoryOther = "Outros"
