package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

// ItemUseCase ciclo de vida del registro: alta cuando el catálogo externo hace
// vendible un ítem, y el override administrativo discontinued. El registro nunca
// se elimina; descontinuar congela ventas y reservas pero permite ajustes.
type ItemUseCase struct {
	txRunner   TxRunner
	recordRepo repository.InventoryRecordRepository
	locker     *ItemLocker
	cache      SnapshotCache // puede ser nil
	opts       Options
}

// NewItemUseCase construye el caso de uso. cache puede ser nil.
func NewItemUseCase(
	txRunner TxRunner,
	recordRepo repository.InventoryRecordRepository,
	locker *ItemLocker,
	cache SnapshotCache,
	opts Options,
) *ItemUseCase {
	return &ItemUseCase{
		txRunner:   txRunner,
		recordRepo: recordRepo,
		locker:     locker,
		cache:      cache,
		opts:       opts.withDefaults(),
	}
}

// CreateRecord da de alta el registro de contadores de un ítem con su cantidad
// inicial y umbrales. El item_id lo aporta el catálogo externo.
func (uc *ItemUseCase) CreateRecord(ctx context.Context, in dto.CreateItemRequest, actor string) (*dto.RecordSnapshotDTO, error) {
	if in.ItemID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.InitialQuantity.IsNegative() || in.LowStockThreshold.IsNegative() ||
		in.ReorderThreshold.IsNegative() || in.ReorderQuantity.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	unit := in.Unit
	if unit == "" {
		unit = "unidad"
	}

	now := time.Now()
	rec := &entity.InventoryRecord{
		ItemID:            in.ItemID,
		Unit:              unit,
		InitialQuantity:   in.InitialQuantity,
		CurrentQuantity:   in.InitialQuantity,
		LowStockThreshold: in.LowStockThreshold,
		ReorderThreshold:  in.ReorderThreshold,
		ReorderQuantity:   in.ReorderQuantity,
		Status:            inventory.Derive(in.InitialQuantity, in.LowStockThreshold),
		Version:           1,
		UpdatedAt:         now,
		UpdatedBy:         actor,
		CreatedAt:         now,
	}
	if err := uc.recordRepo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return SnapshotFromRecord(rec), nil
}

// Discontinue marca el ítem como descontinuado. Idempotente: repetirlo no cambia nada.
// Sube la versión para que el orden total del registro siga siendo auditable,
// pero no agrega movimiento al ledger (no cambia contadores).
func (uc *ItemUseCase) Discontinue(ctx context.Context, itemID, actor string) (*dto.RecordSnapshotDTO, error) {
	return uc.setStatus(ctx, itemID, actor, func(rec *entity.InventoryRecord) bool {
		if rec.Status == entity.StatusDiscontinued {
			return false
		}
		rec.Status = entity.StatusDiscontinued
		return true
	})
}

// Reactivate quita el override discontinued recalculando el estado derivado.
func (uc *ItemUseCase) Reactivate(ctx context.Context, itemID, actor string) (*dto.RecordSnapshotDTO, error) {
	return uc.setStatus(ctx, itemID, actor, func(rec *entity.InventoryRecord) bool {
		if rec.Status != entity.StatusDiscontinued {
			return false
		}
		rec.Status = inventory.Derive(rec.CurrentQuantity, rec.LowStockThreshold)
		return true
	})
}

func (uc *ItemUseCase) setStatus(ctx context.Context, itemID, actor string, mutate func(*entity.InventoryRecord) bool) (*dto.RecordSnapshotDTO, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}

	lockCtx, cancel := context.WithTimeout(ctx, uc.opts.LockTimeout)
	defer cancel()
	release, err := uc.locker.Acquire(lockCtx, itemID)
	if err != nil {
		return nil, err
	}
	defer release()

	var snap *dto.RecordSnapshotDTO
	err = uc.txRunner.Run(ctx, func(
		records repository.InventoryRecordRepository,
		_ repository.MovementRepository,
	) error {
		rec, err := records.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		if !mutate(rec) {
			snap = SnapshotFromRecord(rec)
			return nil
		}
		versionBefore := rec.Version
		rec.Version = versionBefore + 1
		rec.UpdatedAt = time.Now()
		rec.UpdatedBy = actor
		if err := records.UpdateVersioned(ctx, rec, versionBefore); err != nil {
			return err
		}
		snap = SnapshotFromRecord(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.DeleteSnapshot(ctx, itemID)
	}
	return snap, nil
}
