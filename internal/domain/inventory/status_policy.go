package inventory

import (
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Derive calcula el estado de stock a partir de los contadores. Función pura:
// el estado persistido siempre debe coincidir con este cálculo, salvo el override
// administrativo discontinued que nunca sale de aquí.
func Derive(current, lowStockThreshold decimal.Decimal) entity.StockStatus {
	switch {
	case current.LessThanOrEqual(decimal.Zero):
		return entity.StatusOutOfStock
	case current.LessThanOrEqual(lowStockThreshold):
		return entity.StatusLowStock
	default:
		return entity.StatusInStock
	}
}

// NeedsReorder señal consultiva de reposición, desacoplada del estado visible:
// el punto de reorden suele estar por encima del umbral de stock bajo y dispara
// compras, no cambios de visualización.
func NeedsReorder(current, reorderThreshold decimal.Decimal) bool {
	if reorderThreshold.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return current.LessThanOrEqual(reorderThreshold)
}
