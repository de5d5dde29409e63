package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// MovementRepository ledger append-only de movimientos por ítem, ordenado por version_after.
// Ningún movimiento se muta ni se elimina.
type MovementRepository interface {
	// Append agrega un movimiento. Retorna domain.ErrDuplicate si movement_id ya existe
	// (la constraint UNIQUE es la autoridad final de idempotencia).
	Append(ctx context.Context, mov *entity.Movement) error
	// GetByMovementID busca por clave de idempotencia. Retorna (nil, nil) si no existe.
	GetByMovementID(ctx context.Context, movementID string) (*entity.Movement, error)
	// ListByItem lista movimientos de un ítem con version_after > sinceVersion,
	// en orden ascendente de version_after.
	ListByItem(ctx context.Context, itemID string, sinceVersion int64, limit, offset int) ([]*entity.Movement, error)
}
