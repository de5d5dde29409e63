package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// Options parámetros del motor de aplicación de movimientos.
type Options struct {
	MaxRetries   int           // intentos totales ante domain.ErrConflict
	RetryBackoff time.Duration // espera base entre intentos (lineal por intento)
	LockTimeout  time.Duration // espera máxima por la sección exclusiva del ítem
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 25 * time.Millisecond
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = 5 * time.Second
	}
	return o
}

// ApplyMovementInput entrada para aplicar un movimiento.
// Quantity es magnitud positiva; para adjustment se ignora y NewQuantity
// trae el valor absoluto a fijar. FromReservation solo aplica a sale.
type ApplyMovementInput struct {
	ItemID          string
	MovementID      string // clave de idempotencia, la aporta el caller
	Kind            entity.MovementKind
	Quantity        decimal.Decimal
	NewQuantity     *decimal.Decimal
	FromReservation bool
	Reason          string
	Actor           string
}

// ApplyMovementUseCase motor central del ledger: valida el movimiento, serializa
// el acceso al registro del ítem, aplica los contadores, recalcula el estado y
// agrega el evento al ledger en la misma transacción. Nunca deja aplicación parcial.
type ApplyMovementUseCase struct {
	txRunner     TxRunner
	recordRepo   repository.InventoryRecordRepository
	movementRepo repository.MovementRepository
	locker       *ItemLocker
	cache        SnapshotCache // puede ser nil
	opts         Options
}

// NewApplyMovementUseCase construye el caso de uso. cache puede ser nil.
func NewApplyMovementUseCase(
	txRunner TxRunner,
	recordRepo repository.InventoryRecordRepository,
	movementRepo repository.MovementRepository,
	locker *ItemLocker,
	cache SnapshotCache,
	opts Options,
) *ApplyMovementUseCase {
	return &ApplyMovementUseCase{
		txRunner:     txRunner,
		recordRepo:   recordRepo,
		movementRepo: movementRepo,
		locker:       locker,
		cache:        cache,
		opts:         opts.withDefaults(),
	}
}

// Apply aplica un movimiento y devuelve el snapshot resultante.
// Un movement_id ya aplicado se responde con su snapshot original (replay
// idempotente) sin reaplicar nada. Ante conflicto de versión reintenta hasta
// agotar el presupuesto y recién entonces retorna domain.ErrConflict.
func (uc *ApplyMovementUseCase) Apply(ctx context.Context, in ApplyMovementInput) (*dto.RecordSnapshotDTO, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	// Pre-chequeo de idempotencia fuera de la sección exclusiva: los retries de
	// clientes (timeout HTTP, reintento de cola) no deben pelear por el lock.
	prev, err := uc.movementRepo.GetByMovementID(ctx, in.MovementID)
	if err != nil {
		return nil, err
	}
	if prev != nil {
		return uc.replaySnapshot(ctx, prev)
	}

	lockCtx, cancel := context.WithTimeout(ctx, uc.opts.LockTimeout)
	defer cancel()
	release, err := uc.locker.Acquire(lockCtx, in.ItemID)
	if err != nil {
		// Nada se mutó: el timeout de lock nunca deja estado parcial.
		return nil, err
	}
	defer release()

	var snap *dto.RecordSnapshotDTO
	for attempt := 1; ; attempt++ {
		snap, err = uc.applyOnce(ctx, in)
		if err == nil || !errors.Is(err, domain.ErrConflict) || attempt >= uc.opts.MaxRetries {
			break
		}
		select {
		case <-time.After(uc.opts.RetryBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			return nil, domain.ErrConflict
		}
	}
	if errors.Is(err, domain.ErrDuplicate) {
		// Carrera de idempotencia: otro proceso insertó el mismo movement_id
		// entre el pre-chequeo y nuestro commit. La constraint UNIQUE manda.
		prev, lerr := uc.movementRepo.GetByMovementID(ctx, in.MovementID)
		if lerr == nil && prev != nil {
			return uc.replaySnapshot(ctx, prev)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		_ = uc.cache.DeleteSnapshot(ctx, in.ItemID)
	}
	return snap, nil
}

// applyOnce un intento completo dentro de una transacción: registro y evento
// se escriben juntos o no se escribe nada.
func (uc *ApplyMovementUseCase) applyOnce(ctx context.Context, in ApplyMovementInput) (*dto.RecordSnapshotDTO, error) {
	var snap *dto.RecordSnapshotDTO
	err := uc.txRunner.Run(ctx, func(
		records repository.InventoryRecordRepository,
		movements repository.MovementRepository,
	) error {
		rec, err := records.GetForUpdate(ctx, in.ItemID)
		if err != nil {
			return err
		}
		if rec == nil {
			return domain.ErrNotFound
		}
		if rec.Status == entity.StatusDiscontinued && in.Kind != entity.KindAdjustment {
			return domain.ErrDiscontinued
		}

		versionBefore := rec.Version
		statusBefore := rec.Status
		prevCurrent := rec.CurrentQuantity
		magnitude := in.Quantity

		switch in.Kind {
		case entity.KindSale:
			err = rec.ApplySale(in.Quantity, in.FromReservation)
		case entity.KindRestock:
			err = rec.ApplyRestock(in.Quantity)
		case entity.KindReturn:
			err = rec.ApplyReturn(in.Quantity)
		case entity.KindDamage:
			err = rec.ApplyDamage(in.Quantity)
		case entity.KindLoss:
			err = rec.ApplyLoss(in.Quantity)
		case entity.KindReservation:
			err = rec.ApplyReservation(in.Quantity)
		case entity.KindReservationRelease:
			err = rec.ApplyReservationRelease(in.Quantity)
		case entity.KindAdjustment:
			err = rec.ApplyAdjustment(*in.NewQuantity)
			magnitude = rec.CurrentQuantity.Sub(prevCurrent).Abs()
		default:
			err = domain.ErrInvalidInput
		}
		if err != nil {
			return err
		}

		now := time.Now()
		rec.Version = versionBefore + 1
		if rec.Status != entity.StatusDiscontinued {
			rec.Status = inventory.Derive(rec.CurrentQuantity, rec.LowStockThreshold)
		}
		rec.UpdatedAt = now
		rec.UpdatedBy = in.Actor

		if err := records.UpdateVersioned(ctx, rec, versionBefore); err != nil {
			return err
		}

		mov := &entity.Movement{
			ID:               uuid.New().String(),
			MovementID:       in.MovementID,
			ItemID:           in.ItemID,
			Kind:             in.Kind,
			Quantity:         magnitude,
			FromReservation:  in.Kind == entity.KindSale && in.FromReservation,
			PreviousQuantity: prevCurrent,
			NewQuantity:      rec.CurrentQuantity,
			ReservedAfter:    rec.ReservedQuantity,
			SoldAfter:        rec.SoldQuantity,
			DamagedAfter:     rec.DamagedQuantity,
			LostAfter:        rec.LostQuantity,
			StatusAfter:      rec.Status,
			Reason:           in.Reason,
			Actor:            in.Actor,
			OccurredAt:       now,
			VersionBefore:    versionBefore,
			VersionAfter:     rec.Version,
		}
		if err := movements.Append(ctx, mov); err != nil {
			return err
		}

		s := SnapshotFromRecord(rec)
		s.StatusChanged = rec.Status != statusBefore
		snap = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// replaySnapshot reconstruye el snapshot que produjo originalmente el movimiento,
// a partir del estado resultante persistido en el evento. El registro vivo solo
// aporta los campos inmutables (unidad, umbrales, cantidad inicial).
func (uc *ApplyMovementUseCase) replaySnapshot(ctx context.Context, mov *entity.Movement) (*dto.RecordSnapshotDTO, error) {
	rec, err := uc.recordRepo.Get(ctx, mov.ItemID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return &dto.RecordSnapshotDTO{
		ItemID:            mov.ItemID,
		Unit:              rec.Unit,
		InitialQuantity:   rec.InitialQuantity,
		CurrentQuantity:   mov.NewQuantity,
		ReservedQuantity:  mov.ReservedAfter,
		AvailableQuantity: mov.NewQuantity.Sub(mov.ReservedAfter),
		SoldQuantity:      mov.SoldAfter,
		DamagedQuantity:   mov.DamagedAfter,
		LostQuantity:      mov.LostAfter,
		LowStockThreshold: rec.LowStockThreshold,
		ReorderThreshold:  rec.ReorderThreshold,
		ReorderQuantity:   rec.ReorderQuantity,
		Status:            string(mov.StatusAfter),
		NeedsReorder:      inventory.NeedsReorder(mov.NewQuantity, rec.ReorderThreshold),
		Version:           mov.VersionAfter,
		UpdatedAt:         mov.OccurredAt,
		UpdatedBy:         mov.Actor,
		Replayed:          true,
	}, nil
}

func validateInput(in ApplyMovementInput) error {
	if in.ItemID == "" || in.MovementID == "" {
		return domain.ErrInvalidInput
	}
	if !entity.KnownKind(in.Kind) {
		return domain.ErrInvalidInput
	}
	if in.FromReservation && in.Kind != entity.KindSale {
		return domain.ErrInvalidInput
	}
	if in.Kind == entity.KindAdjustment {
		if in.NewQuantity == nil || in.NewQuantity.IsNegative() {
			return domain.ErrInvalidInput
		}
		return nil
	}
	if !in.Quantity.IsPositive() {
		return domain.ErrInvalidInput
	}
	return nil
}

// SnapshotFromRecord proyecta el registro a su DTO de snapshot.
func SnapshotFromRecord(rec *entity.InventoryRecord) *dto.RecordSnapshotDTO {
	return &dto.RecordSnapshotDTO{
		ItemID:            rec.ItemID,
		Unit:              rec.Unit,
		InitialQuantity:   rec.InitialQuantity,
		CurrentQuantity:   rec.CurrentQuantity,
		ReservedQuantity:  rec.ReservedQuantity,
		AvailableQuantity: rec.Available(),
		SoldQuantity:      rec.SoldQuantity,
		DamagedQuantity:   rec.DamagedQuantity,
		LostQuantity:      rec.LostQuantity,
		LowStockThreshold: rec.LowStockThreshold,
		ReorderThreshold:  rec.ReorderThreshold,
		ReorderQuantity:   rec.ReorderQuantity,
		Status:            string(rec.Status),
		NeedsReorder:      inventory.NeedsReorder(rec.CurrentQuantity, rec.ReorderThreshold),
		Version:           rec.Version,
		UpdatedAt:         rec.UpdatedAt,
		UpdatedBy:         rec.UpdatedBy,
	}
}
