package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del ledger. Quantity siempre es magnitud positiva;
// el signo del efecto lo determina el tipo.
type MovementKind string

const (
	KindSale               MovementKind = "sale"
	KindRestock            MovementKind = "restock"
	KindDamage             MovementKind = "damage"
	KindLoss               MovementKind = "loss"
	KindReservation        MovementKind = "reservation"
	KindReservationRelease MovementKind = "reservation_release"
	KindReturn             MovementKind = "return"
	KindAdjustment         MovementKind = "adjustment"
)

// KnownKind indica si el tipo de movimiento es uno de los soportados.
func KnownKind(k MovementKind) bool {
	switch k {
	case KindSale, KindRestock, KindDamage, KindLoss,
		KindReservation, KindReservationRelease, KindReturn, KindAdjustment:
		return true
	}
	return false
}

// Movement un cambio de cantidad aplicado, inmutable una vez escrito.
// MovementID lo aporta el caller y es único global: es la clave de idempotencia.
// Además del delta (previous/new de current), el movimiento persiste el estado
// resultante completo para que un replay idempotente devuelva exactamente el
// snapshot original sin releer contadores que pudieron avanzar.
type Movement struct {
	ID               string
	MovementID       string
	ItemID           string
	Kind             MovementKind
	Quantity         decimal.Decimal // magnitud positiva (en adjustment, |delta|)
	FromReservation  bool            // solo sale: la venta consumió una reserva previa
	PreviousQuantity decimal.Decimal // current antes de aplicar
	NewQuantity      decimal.Decimal // current después de aplicar
	ReservedAfter    decimal.Decimal
	SoldAfter        decimal.Decimal
	DamagedAfter     decimal.Decimal
	LostAfter        decimal.Decimal
	StatusAfter      StockStatus
	Reason           string
	Actor            string
	OccurredAt       time.Time
	VersionBefore    int64
	VersionAfter     int64
}
