package inventory_test

import (
	"testing"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestDerive(t *testing.T) {
	cases := []struct {
		name      string
		current   string
		threshold string
		want      entity.StockStatus
	}{
		{"sobre el umbral", "6", "5", entity.StatusInStock},
		{"exactamente en el umbral", "5", "5", entity.StatusLowStock},
		{"bajo el umbral", "3", "5", entity.StatusLowStock},
		{"cero", "0", "5", entity.StatusOutOfStock},
		{"umbral cero con stock", "1", "0", entity.StatusInStock},
		{"umbral cero sin stock", "0", "0", entity.StatusOutOfStock},
		{"fraccional bajo el umbral", "4.5", "5", entity.StatusLowStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, inventory.Derive(d(tc.current), d(tc.threshold)))
		})
	}
}

func TestNeedsReorder(t *testing.T) {
	// Umbral de reorden deshabilitado (<= 0) nunca sugiere reposición.
	assert.False(t, inventory.NeedsReorder(d("0"), d("0")))
	assert.False(t, inventory.NeedsReorder(d("100"), d("0")))

	assert.True(t, inventory.NeedsReorder(d("10"), d("10")), "en el umbral exacto debe sugerir")
	assert.True(t, inventory.NeedsReorder(d("3"), d("10")))
	assert.False(t, inventory.NeedsReorder(d("11"), d("10")))
}
