package categorize

import (
	"strings"

	"github.com/rafaelqm/concilia/internal/model"
)

// Visual is the render metadata attached to a category label.
type Visual struct {
	Color string
	Icon  string
	Emoji string
}

// Visual metadata for labels produced by the fallback layers; rule-table
// categories carry their own.
var fallbackVisuals = map[string]Visual{
	"Vendas E-commerce":    {Color: "#7C3AED", Icon: "shopping-bag", Emoji: "🛍️"},
	"Renda e Salário":      {Color: "#10B981", Icon: "banknote", Emoji: "💵"},
	"Renda Principal":      {Color: "#10B981", Icon: "banknote", Emoji: "💵"},
	"Renda Extra":          {Color: "#34D399", Icon: "coins", Emoji: "🪙"},
	"Grandes Gastos":       {Color: "#B91C1C", Icon: "trending-down", Emoji: "📉"},
	"Gastos Médios":        {Color: "#F59E0B", Icon: "wallet", Emoji: "👛"},
	"Gastos Pequenos":      {Color: "#FBBF24", Icon: "coins", Emoji: "🪙"},
	"Serviços Recorrentes": {Color: "#0EA5E9", Icon: "calendar", Emoji: "📅"},
	model.CategoryOther:    {Color: "#9CA3AF", Icon: "folder", Emoji: "📁"},
}

// Engine assigns category labels to descriptions. Categorization is layered:
// the ordered rule table first, then type-specific contextual fallbacks, then
// amount/type bucketing, then the catch-all. The function is pure and
// idempotent for a given table version.
type Engine struct {
	table Table
}

// NewEngine creates a categorization engine over a compiled rule table.
func NewEngine(table Table) *Engine {
	return &Engine{table: table}
}

// Table returns the engine's rule table.
func (e *Engine) Table() Table {
	return e.table
}

// Categorize assigns a category label to a description given the
// transaction's amount and direction.
func (e *Engine) Categorize(description string, amount float64, txType model.TransactionType) string {
	lower := strings.ToLower(description)

	if strings.TrimSpace(lower) == "" {
		return bucketByAmount(amount, txType)
	}

	for i := range e.table.Rules {
		if e.table.Rules[i].Matches(lower) {
			return e.table.Rules[i].Name
		}
	}

	if txType == model.TypeIncome {
		switch {
		case containsAny(lower, "pix recebido", "recebimento", "venda", "cliente"):
			return "Vendas E-commerce"
		case containsAny(lower, "salário", "ordenado", "pagamento"):
			return "Renda e Salário"
		default:
			return "PIX e Transferências"
		}
	}

	return bucketByAmount(amount, txType)
}

// bucketByAmount is the last layer before the catch-all: label by value band
// when nothing about the text was recognizable.
func bucketByAmount(amount float64, txType model.TransactionType) string {
	if txType == model.TypeIncome {
		switch {
		case amount > 5000:
			return "Renda Principal"
		case amount > 1000:
			return "Renda Extra"
		default:
			return "PIX e Transferências"
		}
	}

	switch {
	case amount > 2000:
		return "Grandes Gastos"
	case amount > 500:
		return "Gastos Médios"
	case amount > 100:
		return "Gastos Pequenos"
	default:
		return model.CategoryOther
	}
}

// Visuals returns the color, icon and emoji for a category label, falling
// back to the catch-all visuals for unknown labels.
func (e *Engine) Visuals(category string) Visual {
	for i := range e.table.Rules {
		if e.table.Rules[i].Name == category {
			r := &e.table.Rules[i]
			return Visual{Color: r.Color, Icon: r.Icon, Emoji: r.Emoji}
		}
	}

	if v, ok := fallbackVisuals[category]; ok {
		return v
	}

	return fallbackVisuals[model.CategoryOther]
}

// DefaultVisuals resolves visuals for a label against the embedded rule
// table, for callers that don't hold an engine.
func DefaultVisuals(category string) Visual {
	table, err := LoadDefaultTable()
	if err != nil {
		return fallbackVisuals[model.CategoryOther]
	}
	return NewEngine(table).Visuals(category)
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
