package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// InventoryRecordRepository acceso al registro autoritativo de contadores por ítem.
type InventoryRecordRepository interface {
	// Create persiste un registro nuevo. Retorna domain.ErrDuplicate si el ítem ya existe.
	Create(ctx context.Context, rec *entity.InventoryRecord) error
	// Get obtiene el registro de un ítem. Retorna (nil, nil) si no existe.
	Get(ctx context.Context, itemID string) (*entity.InventoryRecord, error)
	// GetForUpdate obtiene el registro bloqueando la fila (SELECT FOR UPDATE).
	// Solo tiene sentido dentro de una transacción. Retorna (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, itemID string) (*entity.InventoryRecord, error)
	// UpdateVersioned escribe contadores, estado y metadatos condicionado a que la
	// versión persistida siga siendo expectedVersion. Retorna domain.ErrConflict si cambió.
	UpdateVersioned(ctx context.Context, rec *entity.InventoryRecord, expectedVersion int64) error
	// ListBelowReorder lista registros activos con current <= reorder_threshold.
	ListBelowReorder(ctx context.Context, limit int) ([]*entity.InventoryRecord, error)
}
