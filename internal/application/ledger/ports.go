package ledger

import (
	"context"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios
// atados a esa tx. Garantiza que registro y movimiento se escriben atómicamente:
// o ambos quedan persistidos o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		records repository.InventoryRecordRepository,
		movements repository.MovementRepository,
	) error) error
}

// SnapshotCache caché opcional de snapshots para la ruta de lectura.
// Un miss retorna (nil, nil). Las implementaciones deben ser seguras para
// lectores concurrentes; los errores de caché nunca deben tumbar una petición.
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, itemID string) (*dto.RecordSnapshotDTO, error)
	SetSnapshot(ctx context.Context, snap *dto.RecordSnapshotDTO) error
	DeleteSnapshot(ctx context.Context, itemID string) error
}
