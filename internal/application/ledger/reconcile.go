package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// reconcileBatchSize movimientos por página durante el replay.
const reconcileBatchSize = 500

// ReconcileUseCase reproduce el ledger completo de un ítem desde initial_quantity
// y compara el resultado contra los contadores persistidos. Si difieren, algo
// escribió contadores sin pasar por el motor (o el ledger se corrompió).
type ReconcileUseCase struct {
	recordRepo   repository.InventoryRecordRepository
	movementRepo repository.MovementRepository
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(
	recordRepo repository.InventoryRecordRepository,
	movementRepo repository.MovementRepository,
) *ReconcileUseCase {
	return &ReconcileUseCase{recordRepo: recordRepo, movementRepo: movementRepo}
}

// Reconcile genera el reporte de conciliación de un ítem.
func (uc *ReconcileUseCase) Reconcile(ctx context.Context, itemID string) (*dto.ReconciliationReportDTO, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := uc.recordRepo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}

	current := rec.InitialQuantity
	reserved := decimal.Zero
	sold := decimal.Zero
	damaged := decimal.Zero
	lost := decimal.Zero
	replayed := 0

	sinceVersion := int64(0)
	for {
		movs, err := uc.movementRepo.ListByItem(ctx, itemID, sinceVersion, reconcileBatchSize, 0)
		if err != nil {
			return nil, err
		}
		if len(movs) == 0 {
			break
		}
		for _, m := range movs {
			switch m.Kind {
			case entity.KindSale:
				current = current.Sub(m.Quantity)
				sold = sold.Add(m.Quantity)
				if m.FromReservation {
					reserved = reserved.Sub(m.Quantity)
				}
			case entity.KindRestock, entity.KindReturn:
				current = current.Add(m.Quantity)
			case entity.KindDamage:
				current = current.Sub(m.Quantity)
				damaged = damaged.Add(m.Quantity)
			case entity.KindLoss:
				current = current.Sub(m.Quantity)
				lost = lost.Add(m.Quantity)
			case entity.KindReservation:
				reserved = reserved.Add(m.Quantity)
			case entity.KindReservationRelease:
				reserved = reserved.Sub(m.Quantity)
			case entity.KindAdjustment:
				current = m.NewQuantity
			}
			replayed++
			sinceVersion = m.VersionAfter
		}
		if len(movs) < reconcileBatchSize {
			break
		}
	}

	consistent := current.Equal(rec.CurrentQuantity) &&
		reserved.Equal(rec.ReservedQuantity) &&
		sold.Equal(rec.SoldQuantity) &&
		damaged.Equal(rec.DamagedQuantity) &&
		lost.Equal(rec.LostQuantity)

	return &dto.ReconciliationReportDTO{
		ItemID:            itemID,
		Consistent:        consistent,
		MovementsReplayed: replayed,
		ComputedCurrent:   current,
		StoredCurrent:     rec.CurrentQuantity,
		ComputedSold:      sold,
		StoredSold:        rec.SoldQuantity,
		ComputedDamaged:   damaged,
		StoredDamaged:     rec.DamagedQuantity,
		ComputedLost:      lost,
		StoredLost:        rec.LostQuantity,
		ComputedReserved:  reserved,
		StoredReserved:    rec.ReservedQuantity,
		CheckedAt:         time.Now(),
	}, nil
}
