package entity

import (
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/shopspring/decimal"
)

// Estado de stock de un registro. Derivado de los contadores salvo discontinued,
// que solo lo establece una acción administrativa externa.
type StockStatus string

const (
	StatusInStock      StockStatus = "in_stock"
	StatusLowStock     StockStatus = "low_stock"
	StatusOutOfStock   StockStatus = "out_of_stock"
	StatusDiscontinued StockStatus = "discontinued"
)

// InventoryRecord contadores autoritativos de un ítem vendible (un aviso/SKU del catálogo externo).
// Solo guarda el estado actual; el historial vive en inventory_movements, nunca embebido aquí.
// La unidad es opaca para el motor (unidades, kg, litros).
type InventoryRecord struct {
	ItemID            string
	Unit              string
	InitialQuantity   decimal.Decimal
	CurrentQuantity   decimal.Decimal
	ReservedQuantity  decimal.Decimal
	SoldQuantity      decimal.Decimal
	DamagedQuantity   decimal.Decimal
	LostQuantity      decimal.Decimal
	LowStockThreshold decimal.Decimal
	ReorderThreshold  decimal.Decimal
	ReorderQuantity   decimal.Decimal
	Status            StockStatus
	Version           int64
	UpdatedAt         time.Time
	UpdatedBy         string
	CreatedAt         time.Time
}

// Available devuelve la cantidad vendible sin reserva previa (current - reserved).
func (r *InventoryRecord) Available() decimal.Decimal {
	return r.CurrentQuantity.Sub(r.ReservedQuantity)
}

// ApplySale descuenta una venta. Con fromReservation la venta consume una reserva previa
// (requiere quantity <= reserved); sin ella solo puede tomar stock no reservado.
func (r *InventoryRecord) ApplySale(quantity decimal.Decimal, fromReservation bool) error {
	if fromReservation {
		if quantity.GreaterThan(r.ReservedQuantity) {
			return domain.ErrInsufficientStock
		}
		r.ReservedQuantity = r.ReservedQuantity.Sub(quantity)
	} else {
		if quantity.GreaterThan(r.Available()) {
			return domain.ErrInsufficientStock
		}
	}
	r.CurrentQuantity = r.CurrentQuantity.Sub(quantity)
	r.SoldQuantity = r.SoldQuantity.Add(quantity)
	return nil
}

// ApplyRestock suma unidades repuestas.
func (r *InventoryRecord) ApplyRestock(quantity decimal.Decimal) error {
	r.CurrentQuantity = r.CurrentQuantity.Add(quantity)
	return nil
}

// ApplyReturn reingresa unidades devueltas por un comprador.
func (r *InventoryRecord) ApplyReturn(quantity decimal.Decimal) error {
	r.CurrentQuantity = r.CurrentQuantity.Add(quantity)
	return nil
}

// ApplyDamage da de baja unidades dañadas. Debe dejar current >= reserved
// para no romper la invariante reserved <= current.
func (r *InventoryRecord) ApplyDamage(quantity decimal.Decimal) error {
	if quantity.GreaterThan(r.CurrentQuantity) || quantity.GreaterThan(r.Available()) {
		return domain.ErrInsufficientStock
	}
	r.CurrentQuantity = r.CurrentQuantity.Sub(quantity)
	r.DamagedQuantity = r.DamagedQuantity.Add(quantity)
	return nil
}

// ApplyLoss da de baja unidades perdidas (misma regla que damage).
func (r *InventoryRecord) ApplyLoss(quantity decimal.Decimal) error {
	if quantity.GreaterThan(r.CurrentQuantity) || quantity.GreaterThan(r.Available()) {
		return domain.ErrInsufficientStock
	}
	r.CurrentQuantity = r.CurrentQuantity.Sub(quantity)
	r.LostQuantity = r.LostQuantity.Add(quantity)
	return nil
}

// ApplyReservation retiene stock para un checkout. No cambia current.
func (r *InventoryRecord) ApplyReservation(quantity decimal.Decimal) error {
	if r.ReservedQuantity.Add(quantity).GreaterThan(r.CurrentQuantity) {
		return domain.ErrInsufficientStock
	}
	r.ReservedQuantity = r.ReservedQuantity.Add(quantity)
	return nil
}

// ApplyReservationRelease libera una reserva (carrito abandonado, orden cancelada).
func (r *InventoryRecord) ApplyReservationRelease(quantity decimal.Decimal) error {
	if quantity.GreaterThan(r.ReservedQuantity) {
		return domain.ErrInvalidInput
	}
	r.ReservedQuantity = r.ReservedQuantity.Sub(quantity)
	return nil
}

// ApplyAdjustment fija current en un valor absoluto suministrado por un administrador.
// No toca sold/damaged/lost; el delta queda registrado en el movimiento.
// Rechaza valores que dejarían current < reserved.
func (r *InventoryRecord) ApplyAdjustment(newQuantity decimal.Decimal) error {
	if newQuantity.IsNegative() || newQuantity.LessThan(r.ReservedQuantity) {
		return domain.ErrInvalidInput
	}
	r.CurrentQuantity = newQuantity
	return nil
}
