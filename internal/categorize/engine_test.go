package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rafaelqm/concilia/internal/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	table, err := LoadDefaultTable()
	require.NoError(t, err)
	return NewEngine(table)
}

func TestLoadDefaultTable(t *testing.T) {
	table, err := LoadDefaultTable()
	require.NoError(t, err)
	assert.Equal(t, "2.0", table.Version)
	assert.NotEmpty(t, table.Rules)
}

func TestCategorize(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name        string
		description string
		amount      float64
		txType      model.TransactionType
		want        string
	}{
		{
			name:        "supermarket keyword",
			description: "COMPRA CARTAO MERCADO EXTRA",
			amount:      150,
			txType:      model.TypeExpense,
			want:        "Alimentação e Bebidas",
		},
		{
			name:        "gas station pattern",
			description: "Posto Shell",
			amount:      200,
			txType:      model.TypeExpense,
			want:        "Transporte e Combustível",
		},
		{
			name:        "pharmacy",
			description: "FARMÁCIA POPULAR",
			amount:      45,
			txType:      model.TypeExpense,
			want:        "Saúde e Bem-estar",
		},
		{
			name:        "pix keyword",
			description: "PIX recebido de Maria Silva",
			amount:      100,
			txType:      model.TypeIncome,
			want:        "PIX e Transferências",
		},
		{
			name:        "income sale fallback",
			description: "venda para cliente",
			amount:      300,
			txType:      model.TypeIncome,
			want:        "Vendas E-commerce",
		},
		{
			name:        "unmatched large expense buckets by amount",
			description: "xyz qwv",
			amount:      2500,
			txType:      model.TypeExpense,
			want:        "Grandes Gastos",
		},
		{
			name:        "unmatched medium expense",
			description: "xyz qwv",
			amount:      600,
			txType:      model.TypeExpense,
			want:        "Gastos Médios",
		},
		{
			name:        "unmatched small expense falls through to catch-all",
			description: "xyz qwv",
			amount:      40,
			txType:      model.TypeExpense,
			want:        model.CategoryOther,
		},
		{
			name:        "empty description buckets by amount",
			description: "   ",
			amount:      6000,
			txType:      model.TypeIncome,
			want:        "Renda Principal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Categorize(tt.description, tt.amount, tt.txType)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	engine := newTestEngine(t)

	// "mercado" (food) appears before "pix" (transfers) in the table, so a
	// description hitting both takes the earlier category.
	got := engine.Categorize("pix mercado central", 80, model.TypeExpense)
	assert.Equal(t, "Alimentação e Bebidas", got)
}

func TestCategorizeIdempotent(t *testing.T) {
	engine := newTestEngine(t)

	first := engine.Categorize("Posto Shell", 200, model.TypeExpense)
	second := engine.Categorize("Posto Shell", 200, model.TypeExpense)
	assert.Equal(t, first, second)
}

func TestVisuals(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("rule table category", func(t *testing.T) {
		v := engine.Visuals("Alimentação e Bebidas")
		assert.Equal(t, "#22C55E", v.Color)
		assert.Equal(t, "utensils", v.Icon)
	})

	t.Run("fallback category", func(t *testing.T) {
		v := engine.Visuals("Grandes Gastos")
		assert.NotEmpty(t, v.Color)
		assert.NotEmpty(t, v.Icon)
	})

	t.Run("unknown label gets catch-all visuals", func(t *testing.T) {
		v := engine.Visuals("Categoria Inexistente")
		assert.Equal(t, engine.Visuals(model.CategoryOther), v)
	})
}
