package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateItemRequest body para POST /api/items.
type CreateItemRequest struct {
	ItemID            string           `json:"item_id"`
	Unit              string           `json:"unit,omitempty"` // "unidad", "kg", "litro"...
	InitialQuantity   decimal.Decimal  `json:"initial_quantity"`
	LowStockThreshold decimal.Decimal  `json:"low_stock_threshold"`
	ReorderThreshold  decimal.Decimal  `json:"reorder_threshold"`
	ReorderQuantity   decimal.Decimal  `json:"reorder_quantity"`
}

// ApplyMovementRequest body para POST /api/items/:id/movements.
// NewQuantity solo aplica a adjustment (valor absoluto); FromReservation solo a sale.
type ApplyMovementRequest struct {
	MovementID      string           `json:"movement_id"`
	Kind            string           `json:"kind"`
	Quantity        decimal.Decimal  `json:"quantity"`
	NewQuantity     *decimal.Decimal `json:"new_quantity,omitempty"`
	FromReservation bool             `json:"from_reservation,omitempty"`
	Reason          string           `json:"reason,omitempty"`
}

// RecordSnapshotDTO vista del registro tras una operación o consulta.
// StatusChanged permite a un notificador externo reaccionar a cruces de umbral;
// Replayed marca respuestas de replay idempotente.
type RecordSnapshotDTO struct {
	ItemID            string          `json:"item_id"`
	Unit              string          `json:"unit"`
	InitialQuantity   decimal.Decimal `json:"initial_quantity"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	SoldQuantity      decimal.Decimal `json:"sold_quantity"`
	DamagedQuantity   decimal.Decimal `json:"damaged_quantity"`
	LostQuantity      decimal.Decimal `json:"lost_quantity"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	ReorderThreshold  decimal.Decimal `json:"reorder_threshold"`
	ReorderQuantity   decimal.Decimal `json:"reorder_quantity"`
	Status            string          `json:"status"`
	NeedsReorder      bool            `json:"needs_reorder"`
	Version           int64           `json:"version"`
	UpdatedAt         time.Time       `json:"updated_at"`
	UpdatedBy         string          `json:"updated_by,omitempty"`
	StatusChanged     bool            `json:"status_changed,omitempty"`
	Replayed          bool            `json:"replayed,omitempty"`
}

// MovementDTO un movimiento del ledger en respuestas de auditoría.
type MovementDTO struct {
	MovementID       string          `json:"movement_id"`
	ItemID           string          `json:"item_id"`
	Kind             string          `json:"kind"`
	Quantity         decimal.Decimal `json:"quantity"`
	PreviousQuantity decimal.Decimal `json:"previous_quantity"`
	NewQuantity      decimal.Decimal `json:"new_quantity"`
	Reason           string          `json:"reason,omitempty"`
	Actor            string          `json:"actor,omitempty"`
	OccurredAt       time.Time       `json:"occurred_at"`
	VersionBefore    int64           `json:"record_version_before"`
	VersionAfter     int64           `json:"record_version_after"`
}

// ReconciliationReportDTO resultado de reproducir el ledger desde initial_quantity
// y compararlo contra los contadores persistidos.
type ReconciliationReportDTO struct {
	ItemID            string          `json:"item_id"`
	Consistent        bool            `json:"consistent"`
	MovementsReplayed int             `json:"movements_replayed"`
	ComputedCurrent   decimal.Decimal `json:"computed_current"`
	StoredCurrent     decimal.Decimal `json:"stored_current"`
	ComputedSold      decimal.Decimal `json:"computed_sold"`
	StoredSold        decimal.Decimal `json:"stored_sold"`
	ComputedDamaged   decimal.Decimal `json:"computed_damaged"`
	StoredDamaged     decimal.Decimal `json:"stored_damaged"`
	ComputedLost      decimal.Decimal `json:"computed_lost"`
	StoredLost        decimal.Decimal `json:"stored_lost"`
	ComputedReserved  decimal.Decimal `json:"computed_reserved"`
	StoredReserved    decimal.Decimal `json:"stored_reserved"`
	CheckedAt         time.Time       `json:"checked_at"`
}

// ReorderSuggestionDTO un ítem en o por debajo de su punto de reorden,
// con la cantidad sugerida de pedido y un ranking de urgencia (1 = más urgente).
type ReorderSuggestionDTO struct {
	ItemID            string          `json:"item_id"`
	Unit              string          `json:"unit"`
	CurrentQuantity   decimal.Decimal `json:"current_quantity"`
	ReorderThreshold  decimal.Decimal `json:"reorder_threshold"`
	SuggestedOrderQty decimal.Decimal `json:"suggested_order_qty"`
	Status            string          `json:"status"`
	Priority          int             `json:"priority"`
}
