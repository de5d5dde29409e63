package ledger

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// QueryUseCase rutas de lectura: snapshot, ledger paginado y sugerencias de
// reposición. No pasa por la sección exclusiva; puede servirse de una réplica
// o de la caché de snapshots.
type QueryUseCase struct {
	recordRepo   repository.InventoryRecordRepository
	movementRepo repository.MovementRepository
	cache        SnapshotCache // puede ser nil
}

// NewQueryUseCase construye el caso de uso. cache puede ser nil.
func NewQueryUseCase(
	recordRepo repository.InventoryRecordRepository,
	movementRepo repository.MovementRepository,
	cache SnapshotCache,
) *QueryUseCase {
	return &QueryUseCase{recordRepo: recordRepo, movementRepo: movementRepo, cache: cache}
}

// GetSnapshot devuelve el snapshot actual de un ítem, sirviendo de caché si hay hit.
func (uc *QueryUseCase) GetSnapshot(ctx context.Context, itemID string) (*dto.RecordSnapshotDTO, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	if uc.cache != nil {
		if snap, err := uc.cache.GetSnapshot(ctx, itemID); err == nil && snap != nil {
			return snap, nil
		}
	}
	rec, err := uc.recordRepo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	snap := SnapshotFromRecord(rec)
	if uc.cache != nil {
		_ = uc.cache.SetSnapshot(ctx, snap)
	}
	return snap, nil
}

// ListMovements lista el ledger de un ítem en orden de versión ascendente,
// opcionalmente desde una versión dada (auditoría incremental).
func (uc *QueryUseCase) ListMovements(ctx context.Context, itemID string, sinceVersion int64, page dto.PageRequest) ([]dto.MovementDTO, error) {
	if itemID == "" {
		return nil, domain.ErrInvalidInput
	}
	page.DefaultPage()

	rec, err := uc.recordRepo.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}

	movs, err := uc.movementRepo.ListByItem(ctx, itemID, sinceVersion, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementDTO, 0, len(movs))
	for _, m := range movs {
		out = append(out, dto.MovementDTO{
			MovementID:       m.MovementID,
			ItemID:           m.ItemID,
			Kind:             string(m.Kind),
			Quantity:         m.Quantity,
			PreviousQuantity: m.PreviousQuantity,
			NewQuantity:      m.NewQuantity,
			Reason:           m.Reason,
			Actor:            m.Actor,
			OccurredAt:       m.OccurredAt,
			VersionBefore:    m.VersionBefore,
			VersionAfter:     m.VersionAfter,
		})
	}
	return out, nil
}

// ListReorderSuggestions devuelve los ítems en o por debajo de su punto de
// reorden con la cantidad sugerida de pedido, ordenados por déficit relativo
// (los más caídos primero) y con prioridad 1 = más urgente.
func (uc *QueryUseCase) ListReorderSuggestions(ctx context.Context, limit int) ([]dto.ReorderSuggestionDTO, error) {
	if limit <= 0 {
		limit = 100
	}
	recs, err := uc.recordRepo.ListBelowReorder(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []dto.ReorderSuggestionDTO{}, nil
	}

	suggestions := make([]dto.ReorderSuggestionDTO, 0, len(recs))
	for _, rec := range recs {
		suggested := rec.ReorderQuantity
		if suggested.LessThanOrEqual(decimal.Zero) {
			// Sin cantidad de reorden configurada: apuntar a 1.5x el punto de reorden
			ideal := rec.ReorderThreshold.Mul(decimal.NewFromFloat(1.5))
			suggested = ideal.Sub(rec.CurrentQuantity)
			if suggested.LessThanOrEqual(decimal.Zero) {
				suggested = decimal.Zero
			}
		}
		suggestions = append(suggestions, dto.ReorderSuggestionDTO{
			ItemID:            rec.ItemID,
			Unit:              rec.Unit,
			CurrentQuantity:   rec.CurrentQuantity,
			ReorderThreshold:  rec.ReorderThreshold,
			SuggestedOrderQty: suggested,
			Status:            string(rec.Status),
		})
	}

	// Mayor déficit absoluto primero; desempate por item_id para orden estable.
	sort.SliceStable(suggestions, func(i, j int) bool {
		defA := suggestions[i].ReorderThreshold.Sub(suggestions[i].CurrentQuantity)
		defB := suggestions[j].ReorderThreshold.Sub(suggestions[j].CurrentQuantity)
		if !defA.Equal(defB) {
			return defA.GreaterThan(defB)
		}
		return suggestions[i].ItemID < suggestions[j].ItemID
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
