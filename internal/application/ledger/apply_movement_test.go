package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
	"github.com/jhoicas/stock-ledger-api/internal/infrastructure/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fixture: store en memoria con un ítem ya dado de alta.
func newFixture(t *testing.T, initial string) (*memory.Store, *ledger.ApplyMovementUseCase) {
	t.Helper()
	store := memory.NewStore()
	itemUC := ledger.NewItemUseCase(store, store, ledger.NewItemLocker(), nil, ledger.Options{})
	_, err := itemUC.CreateRecord(context.Background(), dto.CreateItemRequest{
		ItemID:            "item-1",
		InitialQuantity:   d(initial),
		LowStockThreshold: d("5"),
	}, "tester")
	require.NoError(t, err)

	applyUC := ledger.NewApplyMovementUseCase(store, store, store, ledger.NewItemLocker(), nil, ledger.Options{})
	return store, applyUC
}

func saleInput(movementID, qty string) ledger.ApplyMovementInput {
	return ledger.ApplyMovementInput{
		ItemID:     "item-1",
		MovementID: movementID,
		Kind:       entity.KindSale,
		Quantity:   d(qty),
		Actor:      "tester",
	}
}

func TestApply_VentaActualizaContadoresYLedger(t *testing.T) {
	store, uc := newFixture(t, "10")

	snap, err := uc.Apply(context.Background(), saleInput("mov-1", "3"))
	require.NoError(t, err)

	assert.True(t, snap.CurrentQuantity.Equal(d("7")))
	assert.True(t, snap.SoldQuantity.Equal(d("3")))
	assert.Equal(t, "in_stock", snap.Status)
	assert.Equal(t, int64(2), snap.Version, "el alta deja versión 1; la venta sube a 2")
	assert.False(t, snap.Replayed)

	movs, err := store.ListByItem(context.Background(), "item-1", 0, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, "mov-1", movs[0].MovementID)
	assert.True(t, movs[0].PreviousQuantity.Equal(d("10")))
	assert.True(t, movs[0].NewQuantity.Equal(d("7")))
	assert.Equal(t, int64(1), movs[0].VersionBefore)
	assert.Equal(t, int64(2), movs[0].VersionAfter)
}

func TestApply_CruceDeUmbralMarcaStatusChanged(t *testing.T) {
	_, uc := newFixture(t, "10")

	snap, err := uc.Apply(context.Background(), saleInput("mov-1", "6"))
	require.NoError(t, err)
	assert.Equal(t, "low_stock", snap.Status, "current 4 <= umbral 5")
	assert.True(t, snap.StatusChanged)

	snap, err = uc.Apply(context.Background(), saleInput("mov-2", "1"))
	require.NoError(t, err)
	assert.Equal(t, "low_stock", snap.Status)
	assert.False(t, snap.StatusChanged, "sin cruce de umbral no se marca")
}

func TestApply_ReplayIdempotente(t *testing.T) {
	store, uc := newFixture(t, "10")

	first, err := uc.Apply(context.Background(), saleInput("mov-1", "3"))
	require.NoError(t, err)

	// Avanzar el estado con otro movimiento para verificar que el replay
	// devuelve el snapshot original, no el actual.
	_, err = uc.Apply(context.Background(), saleInput("mov-2", "2"))
	require.NoError(t, err)

	replay, err := uc.Apply(context.Background(), saleInput("mov-1", "3"))
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.True(t, replay.CurrentQuantity.Equal(first.CurrentQuantity))
	assert.Equal(t, first.Version, replay.Version)

	// Nada se reaplicó: siguen existiendo exactamente dos movimientos.
	movs, err := store.ListByItem(context.Background(), "item-1", 0, 10, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 2)

	rec, err := store.Get(context.Background(), "item-1")
	require.NoError(t, err)
	assert.True(t, rec.CurrentQuantity.Equal(d("5")))
}

func TestApply_VentasConcurrentesNoSobrevenden(t *testing.T) {
	store, uc := newFixture(t, "6")

	const intentos = 10
	var wg sync.WaitGroup
	errs := make([]error, intentos)
	wg.Add(intentos)
	for i := 0; i < intentos; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.Apply(context.Background(), ledger.ApplyMovementInput{
				ItemID:     "item-1",
				MovementID: "mov-" + string(rune('a'+i)),
				Kind:       entity.KindSale,
				Quantity:   d("1"),
				Actor:      "tester",
			})
		}(i)
	}
	wg.Wait()

	exitos, insuficientes := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			exitos++
		case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
			insuficientes++
		}
	}
	assert.Equal(t, 6, exitos, "solo hay stock para 6 ventas")
	assert.Equal(t, 4, insuficientes)

	rec, err := store.Get(context.Background(), "item-1")
	require.NoError(t, err)
	assert.True(t, rec.CurrentQuantity.IsZero(), "nunca se vende por debajo de cero")
	assert.True(t, rec.SoldQuantity.Equal(d("6")))
	assert.Equal(t, int64(7), rec.Version, "alta + 6 ventas")
}

// conflictThenDelegate simula un conflicto de versión en los primeros intentos
// y después delega al runner real.
type conflictThenDelegate struct {
	inner    ledger.TxRunner
	failures int
	mu       sync.Mutex
}

func (r *conflictThenDelegate) Run(ctx context.Context, fn func(
	records repository.InventoryRecordRepository,
	movements repository.MovementRepository,
) error) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return domain.ErrConflict
	}
	r.mu.Unlock()
	return r.inner.Run(ctx, fn)
}

func TestApply_ReintentaAnteConflicto(t *testing.T) {
	store := memory.NewStore()
	itemUC := ledger.NewItemUseCase(store, store, ledger.NewItemLocker(), nil, ledger.Options{})
	_, err := itemUC.CreateRecord(context.Background(), dto.CreateItemRequest{
		ItemID:          "item-1",
		InitialQuantity: d("10"),
	}, "tester")
	require.NoError(t, err)

	runner := &conflictThenDelegate{inner: store, failures: 2}
	uc := ledger.NewApplyMovementUseCase(runner, store, store, ledger.NewItemLocker(), nil, ledger.Options{
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})

	snap, err := uc.Apply(context.Background(), saleInput("mov-1", "3"))
	require.NoError(t, err, "el tercer intento debe pasar")
	assert.True(t, snap.CurrentQuantity.Equal(d("7")))
}

func TestApply_AgotaReintentosYRetornaConflicto(t *testing.T) {
	store := memory.NewStore()
	itemUC := ledger.NewItemUseCase(store, store, ledger.NewItemLocker(), nil, ledger.Options{})
	_, err := itemUC.CreateRecord(context.Background(), dto.CreateItemRequest{
		ItemID:          "item-1",
		InitialQuantity: d("10"),
	}, "tester")
	require.NoError(t, err)

	runner := &conflictThenDelegate{inner: store, failures: 1000}
	uc := ledger.NewApplyMovementUseCase(runner, store, store, ledger.NewItemLocker(), nil, ledger.Options{
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})

	_, err = uc.Apply(context.Background(), saleInput("mov-1", "3"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	rec, gerr := store.Get(context.Background(), "item-1")
	require.NoError(t, gerr)
	assert.True(t, rec.CurrentQuantity.Equal(d("10")), "agotar reintentos no deja estado parcial")
}

func TestApply_TimeoutDeLockNoMuta(t *testing.T) {
	store := memory.NewStore()
	itemUC := ledger.NewItemUseCase(store, store, ledger.NewItemLocker(), nil, ledger.Options{})
	_, err := itemUC.CreateRecord(context.Background(), dto.CreateItemRequest{
		ItemID:          "item-1",
		InitialQuantity: d("10"),
	}, "tester")
	require.NoError(t, err)

	locker := ledger.NewItemLocker()
	release, err := locker.Acquire(context.Background(), "item-1")
	require.NoError(t, err)
	defer release()

	uc := ledger.NewApplyMovementUseCase(store, store, store, locker, nil, ledger.Options{
		LockTimeout: 20 * time.Millisecond,
	})
	_, err = uc.Apply(context.Background(), saleInput("mov-1", "3"))
	assert.ErrorIs(t, err, domain.ErrLockTimeout)

	rec, gerr := store.Get(context.Background(), "item-1")
	require.NoError(t, gerr)
	assert.True(t, rec.CurrentQuantity.Equal(d("10")))
	movs, _ := store.ListByItem(context.Background(), "item-1", 0, 10, 0)
	assert.Empty(t, movs, "el timeout de lock no debe dejar movimientos")
}

func TestApply_DescontinuadoBloqueaVentaPermiteAjuste(t *testing.T) {
	store, uc := newFixture(t, "10")

	itemUC := ledger.NewItemUseCase(store, store, ledger.NewItemLocker(), nil, ledger.Options{})
	_, err := itemUC.Discontinue(context.Background(), "item-1", "admin")
	require.NoError(t, err)

	_, err = uc.Apply(context.Background(), saleInput("mov-1", "1"))
	assert.ErrorIs(t, err, domain.ErrDiscontinued)

	nueva := d("4")
	snap, err := uc.Apply(context.Background(), ledger.ApplyMovementInput{
		ItemID:      "item-1",
		MovementID:  "mov-adj",
		Kind:        entity.KindAdjustment,
		NewQuantity: &nueva,
		Actor:       "admin",
	})
	require.NoError(t, err, "adjustment es el único movimiento permitido en discontinued")
	assert.True(t, snap.CurrentQuantity.Equal(d("4")))
	assert.Equal(t, "discontinued", snap.Status, "el override se conserva tras el ajuste")

	movs, err := store.ListByItem(context.Background(), "item-1", 0, 10, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Quantity.Equal(d("6")), "el movimiento guarda la magnitud del delta")
}

func TestApply_ValidacionesDeEntrada(t *testing.T) {
	_, uc := newFixture(t, "10")
	ctx := context.Background()

	_, err := uc.Apply(ctx, ledger.ApplyMovementInput{ItemID: "item-1", MovementID: "m", Kind: "invento", Quantity: d("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "kind desconocido")

	_, err = uc.Apply(ctx, ledger.ApplyMovementInput{ItemID: "item-1", MovementID: "m", Kind: entity.KindSale, Quantity: d("0")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad no positiva")

	_, err = uc.Apply(ctx, ledger.ApplyMovementInput{ItemID: "item-1", Kind: entity.KindSale, Quantity: d("1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin movement_id")

	_, err = uc.Apply(ctx, ledger.ApplyMovementInput{ItemID: "item-1", MovementID: "m", Kind: entity.KindRestock, Quantity: d("1"), FromReservation: true})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "from_reservation solo aplica a sale")

	_, err = uc.Apply(ctx, ledger.ApplyMovementInput{ItemID: "item-1", MovementID: "m", Kind: entity.KindAdjustment})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "adjustment requiere new_quantity")

	_, err = uc.Apply(ctx, saleInput("mov-x", "1"))
	assert.NoError(t, err)

	_, err = uc.Apply(ctx, ledger.ApplyMovementInput{ItemID: "no-existe", MovementID: "m2", Kind: entity.KindSale, Quantity: d("1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
