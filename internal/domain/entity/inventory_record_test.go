package entity_test

import (
	"testing"

	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newRecord(current string) *entity.InventoryRecord {
	return &entity.InventoryRecord{
		ItemID:            "item-1",
		Unit:              "unidad",
		InitialQuantity:   d(current),
		CurrentQuantity:   d(current),
		ReservedQuantity:  decimal.Zero,
		SoldQuantity:      decimal.Zero,
		DamagedQuantity:   decimal.Zero,
		LostQuantity:      decimal.Zero,
		LowStockThreshold: d("5"),
		Status:            entity.StatusInStock,
		Version:           1,
	}
}

func TestApplySale_Directa(t *testing.T) {
	rec := newRecord("10")
	require.NoError(t, rec.ApplySale(d("3"), false))
	assert.True(t, rec.CurrentQuantity.Equal(d("7")))
	assert.True(t, rec.SoldQuantity.Equal(d("3")))
	assert.True(t, rec.ReservedQuantity.IsZero())
}

func TestApplySale_DirectaNoTocaReserva(t *testing.T) {
	// Venta directa solo puede tomar stock no reservado.
	rec := newRecord("10")
	require.NoError(t, rec.ApplyReservation(d("8")))

	err := rec.ApplySale(d("3"), false)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "disponible es 2, no alcanza para 3")
	assert.True(t, rec.CurrentQuantity.Equal(d("10")), "un rechazo no debe mutar nada")

	require.NoError(t, rec.ApplySale(d("2"), false))
	assert.True(t, rec.CurrentQuantity.Equal(d("8")))
	assert.True(t, rec.ReservedQuantity.Equal(d("8")))
}

func TestApplySale_DesdeReserva(t *testing.T) {
	rec := newRecord("10")
	require.NoError(t, rec.ApplyReservation(d("3")))
	require.NoError(t, rec.ApplySale(d("3"), true))

	assert.True(t, rec.CurrentQuantity.Equal(d("7")))
	assert.True(t, rec.ReservedQuantity.IsZero(), "la venta consume la reserva")
	assert.True(t, rec.SoldQuantity.Equal(d("3")))
}

func TestApplySale_DesdeReservaSinReserva(t *testing.T) {
	rec := newRecord("10")
	err := rec.ApplySale(d("1"), true)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApplyReservation_ExcedeStock(t *testing.T) {
	rec := newRecord("10")
	require.NoError(t, rec.ApplyReservation(d("6")))
	err := rec.ApplyReservation(d("5"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "reservado no puede exceder current")
}

func TestApplyReservationRelease_ExcedeReserva(t *testing.T) {
	rec := newRecord("10")
	require.NoError(t, rec.ApplyReservation(d("2")))
	err := rec.ApplyReservationRelease(d("3"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApplyDamage_RespetaReserva(t *testing.T) {
	// damage no puede dejar current < reserved.
	rec := newRecord("10")
	require.NoError(t, rec.ApplyReservation(d("8")))

	err := rec.ApplyDamage(d("3"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	require.NoError(t, rec.ApplyDamage(d("2")))
	assert.True(t, rec.CurrentQuantity.Equal(d("8")))
	assert.True(t, rec.DamagedQuantity.Equal(d("2")))
}

func TestApplyLoss(t *testing.T) {
	rec := newRecord("10")
	require.NoError(t, rec.ApplyLoss(d("4")))
	assert.True(t, rec.CurrentQuantity.Equal(d("6")))
	assert.True(t, rec.LostQuantity.Equal(d("4")))

	err := rec.ApplyLoss(d("7"))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestApplyReturn(t *testing.T) {
	rec := newRecord("10")
	require.NoError(t, rec.ApplySale(d("4"), false))
	require.NoError(t, rec.ApplyReturn(d("2")))
	assert.True(t, rec.CurrentQuantity.Equal(d("8")))
	// sold no se descuenta en la devolución: el ledger guarda ambos movimientos.
	assert.True(t, rec.SoldQuantity.Equal(d("4")))
}

func TestApplyAdjustment(t *testing.T) {
	rec := newRecord("5")
	require.NoError(t, rec.ApplyAdjustment(d("8")))
	assert.True(t, rec.CurrentQuantity.Equal(d("8")))
	assert.True(t, rec.SoldQuantity.IsZero(), "el ajuste no toca los acumulados")

	err := rec.ApplyAdjustment(d("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestApplyAdjustment_NoPuedeBajarDeReserva(t *testing.T) {
	rec := newRecord("10")
	require.NoError(t, rec.ApplyReservation(d("4")))
	err := rec.ApplyAdjustment(d("3"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Escenario compuesto: reservar, vender desde la reserva, dar de baja daño y
// verificar que el estado derivado cae a low_stock.
func TestFlujoReservaVentaDanio(t *testing.T) {
	rec := newRecord("10")
	rec.LowStockThreshold = d("5")

	require.NoError(t, rec.ApplyReservation(d("3")))
	require.NoError(t, rec.ApplySale(d("3"), true))
	require.NoError(t, rec.ApplyDamage(d("2")))

	assert.True(t, rec.CurrentQuantity.Equal(d("5")))
	assert.True(t, rec.ReservedQuantity.IsZero())
	assert.True(t, rec.SoldQuantity.Equal(d("3")))
	assert.True(t, rec.DamagedQuantity.Equal(d("2")))

	status := inventory.Derive(rec.CurrentQuantity, rec.LowStockThreshold)
	assert.Equal(t, entity.StatusLowStock, status)
}
