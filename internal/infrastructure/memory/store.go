package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var (
	_ repository.InventoryRecordRepository = (*Store)(nil)
	_ repository.MovementRepository       = (*Store)(nil)
	_ ledger.TxRunner                     = (*Store)(nil)
)

// Store implementación en memoria de los repositorios y del TxRunner.
// Sirve para pruebas y para correr la API sin PostgreSQL. Run simula la
// transacción acumulando escrituras y aplicándolas solo si fn no falla.
type Store struct {
	mu           sync.Mutex
	records      map[string]*entity.InventoryRecord
	movements    []*entity.Movement
	byMovementID map[string]*entity.Movement
}

// NewStore construye el store vacío.
func NewStore() *Store {
	return &Store{
		records:      make(map[string]*entity.InventoryRecord),
		byMovementID: make(map[string]*entity.Movement),
	}
}

// --- repository.InventoryRecordRepository ---

func (s *Store) Create(_ context.Context, rec *entity.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ItemID]; ok {
		return domain.ErrDuplicate
	}
	s.records[rec.ItemID] = cloneRecord(rec)
	return nil
}

func (s *Store) Get(_ context.Context, itemID string) (*entity.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[itemID]
	if !ok {
		return nil, nil
	}
	return cloneRecord(rec), nil
}

// GetForUpdate en memoria equivale a Get: la exclusión la da el mutex de Run.
func (s *Store) GetForUpdate(ctx context.Context, itemID string) (*entity.InventoryRecord, error) {
	return s.Get(ctx, itemID)
}

func (s *Store) UpdateVersioned(_ context.Context, rec *entity.InventoryRecord, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateVersionedLocked(rec, expectedVersion)
}

func (s *Store) updateVersionedLocked(rec *entity.InventoryRecord, expectedVersion int64) error {
	existing, ok := s.records[rec.ItemID]
	if !ok || existing.Version != expectedVersion {
		return domain.ErrConflict
	}
	s.records[rec.ItemID] = cloneRecord(rec)
	return nil
}

func (s *Store) ListBelowReorder(_ context.Context, limit int) ([]*entity.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*entity.InventoryRecord
	for _, rec := range s.records {
		if rec.Status == entity.StatusDiscontinued {
			continue
		}
		if !rec.ReorderThreshold.IsPositive() {
			continue
		}
		if rec.CurrentQuantity.GreaterThan(rec.ReorderThreshold) {
			continue
		}
		list = append(list, cloneRecord(rec))
	}
	sort.Slice(list, func(i, j int) bool {
		defA := list[i].ReorderThreshold.Sub(list[i].CurrentQuantity)
		defB := list[j].ReorderThreshold.Sub(list[j].CurrentQuantity)
		if !defA.Equal(defB) {
			return defA.GreaterThan(defB)
		}
		return list[i].ItemID < list[j].ItemID
	})
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// --- repository.MovementRepository ---

func (s *Store) Append(_ context.Context, mov *entity.Movement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(mov)
}

func (s *Store) appendLocked(mov *entity.Movement) error {
	if _, ok := s.byMovementID[mov.MovementID]; ok {
		return domain.ErrDuplicate
	}
	cp := cloneMovement(mov)
	if cp.ID == "" {
		cp.ID = uuid.New().String()
	}
	s.movements = append(s.movements, cp)
	s.byMovementID[cp.MovementID] = cp
	return nil
}

func (s *Store) GetByMovementID(_ context.Context, movementID string) (*entity.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	mov, ok := s.byMovementID[movementID]
	if !ok {
		return nil, nil
	}
	return cloneMovement(mov), nil
}

func (s *Store) ListByItem(_ context.Context, itemID string, sinceVersion int64, limit, offset int) ([]*entity.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []*entity.Movement
	for _, mov := range s.movements {
		if mov.ItemID == itemID && mov.VersionAfter > sinceVersion {
			matched = append(matched, mov)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].VersionAfter < matched[j].VersionAfter
	})
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]*entity.Movement, 0, len(matched))
	for _, mov := range matched {
		out = append(out, cloneMovement(mov))
	}
	return out, nil
}

// --- ledger.TxRunner ---

// Run ejecuta fn con repos que acumulan escrituras; solo si fn retorna nil
// se aplican sobre el store. Un error descarta todo lo acumulado.
func (s *Store) Run(ctx context.Context, fn func(
	records repository.InventoryRecordRepository,
	movements repository.MovementRepository,
) error) error {
	tx := &stagedTx{base: s}
	if err := fn(tx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Validar de nuevo bajo lock antes de aplicar (commit atómico).
	for _, up := range tx.recordWrites {
		existing, ok := s.records[up.rec.ItemID]
		if !ok || existing.Version != up.expectedVersion {
			return domain.ErrConflict
		}
	}
	for _, mov := range tx.movementWrites {
		if _, ok := s.byMovementID[mov.MovementID]; ok {
			return domain.ErrDuplicate
		}
	}
	for _, up := range tx.recordWrites {
		s.records[up.rec.ItemID] = cloneRecord(up.rec)
	}
	for _, mov := range tx.movementWrites {
		if err := s.appendLocked(mov); err != nil {
			return err
		}
	}
	return nil
}

type recordWrite struct {
	rec             *entity.InventoryRecord
	expectedVersion int64
}

// stagedTx vista transaccional: lee el estado confirmado más sus propias
// escrituras pendientes; nada toca el store hasta el commit en Run.
type stagedTx struct {
	base           *Store
	recordWrites   []recordWrite
	movementWrites []*entity.Movement
}

func (t *stagedTx) Create(ctx context.Context, rec *entity.InventoryRecord) error {
	return t.base.Create(ctx, rec)
}

func (t *stagedTx) Get(ctx context.Context, itemID string) (*entity.InventoryRecord, error) {
	for i := len(t.recordWrites) - 1; i >= 0; i-- {
		if t.recordWrites[i].rec.ItemID == itemID {
			return cloneRecord(t.recordWrites[i].rec), nil
		}
	}
	return t.base.Get(ctx, itemID)
}

func (t *stagedTx) GetForUpdate(ctx context.Context, itemID string) (*entity.InventoryRecord, error) {
	return t.Get(ctx, itemID)
}

func (t *stagedTx) UpdateVersioned(_ context.Context, rec *entity.InventoryRecord, expectedVersion int64) error {
	t.base.mu.Lock()
	existing, ok := t.base.records[rec.ItemID]
	t.base.mu.Unlock()
	if !ok {
		return domain.ErrConflict
	}
	// La versión esperada puede venir del estado confirmado o de una escritura previa de esta misma tx.
	if existing.Version != expectedVersion {
		matched := false
		for _, up := range t.recordWrites {
			if up.rec.ItemID == rec.ItemID && up.rec.Version == expectedVersion {
				matched = true
				break
			}
		}
		if !matched {
			return domain.ErrConflict
		}
	}
	t.recordWrites = append(t.recordWrites, recordWrite{rec: cloneRecord(rec), expectedVersion: expectedVersion})
	return nil
}

func (t *stagedTx) ListBelowReorder(ctx context.Context, limit int) ([]*entity.InventoryRecord, error) {
	return t.base.ListBelowReorder(ctx, limit)
}

func (t *stagedTx) Append(_ context.Context, mov *entity.Movement) error {
	t.base.mu.Lock()
	_, dup := t.base.byMovementID[mov.MovementID]
	t.base.mu.Unlock()
	if dup {
		return domain.ErrDuplicate
	}
	for _, staged := range t.movementWrites {
		if staged.MovementID == mov.MovementID {
			return domain.ErrDuplicate
		}
	}
	t.movementWrites = append(t.movementWrites, cloneMovement(mov))
	return nil
}

func (t *stagedTx) GetByMovementID(ctx context.Context, movementID string) (*entity.Movement, error) {
	for _, staged := range t.movementWrites {
		if staged.MovementID == movementID {
			return cloneMovement(staged), nil
		}
	}
	return t.base.GetByMovementID(ctx, movementID)
}

func (t *stagedTx) ListByItem(ctx context.Context, itemID string, sinceVersion int64, limit, offset int) ([]*entity.Movement, error) {
	return t.base.ListByItem(ctx, itemID, sinceVersion, limit, offset)
}

func cloneRecord(rec *entity.InventoryRecord) *entity.InventoryRecord {
	cp := *rec
	return &cp
}

func cloneMovement(mov *entity.Movement) *entity.Movement {
	cp := *mov
	return &cp
}
