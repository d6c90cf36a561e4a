package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDescription(t *testing.T) {
	t.Run("strips date and amount", func(t *testing.T) {
		got := CleanDescription("01/08/2025 COMPRA CARTAO MERCADO EXTRA -150,00")
		assert.NotContains(t, got, "01/08/2025")
		assert.NotContains(t, got, "150")
		assert.NotEmpty(t, got)
	})

	t.Run("extracts merchant after preposition", func(t *testing.T) {
		got := CleanDescription("PIX de MARIA SILVA 150,00")
		assert.Contains(t, got, "Maria Silva")
	})

	t.Run("fully stripped line gets fallback text", func(t *testing.T) {
		got := CleanDescription("01/08/2025 150,00")
		assert.Equal(t, "Transação extraída de documento", got)
	})
}

func TestNormalizeMerchant(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"MERCADO EXTRA", "Mercado Extra"},
		{"posto shell", "Posto Shell"},
		{"FARMÁCIA POPULAR", "Farmácia Popular"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeMerchant(tt.input))
		})
	}
}
