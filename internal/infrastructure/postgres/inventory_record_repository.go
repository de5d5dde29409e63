package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

const recordColumns = `item_id, unit, initial_quantity, current_quantity, reserved_quantity,
	sold_quantity, damaged_quantity, lost_quantity, low_stock_threshold, reorder_threshold,
	reorder_quantity, status, version, updated_at, updated_by, created_at`

// InventoryRecordRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

// Create persiste un registro nuevo. domain.ErrDuplicate si el ítem ya existe.
func (r *InventoryRecordRepo) Create(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		rec.ItemID, rec.Unit, rec.InitialQuantity, rec.CurrentQuantity, rec.ReservedQuantity,
		rec.SoldQuantity, rec.DamagedQuantity, rec.LostQuantity, rec.LowStockThreshold,
		rec.ReorderThreshold, rec.ReorderQuantity, string(rec.Status), rec.Version,
		rec.UpdatedAt, nullIfEmpty(rec.UpdatedBy), rec.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create inventory record: %w", err)
	}
	return nil
}

// Get obtiene el registro de un ítem. (nil, nil) si no existe.
func (r *InventoryRecordRepo) Get(ctx context.Context, itemID string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records WHERE item_id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, itemID))
}

// GetForUpdate obtiene el registro bloqueando la fila (SELECT FOR UPDATE).
func (r *InventoryRecordRepo) GetForUpdate(ctx context.Context, itemID string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records WHERE item_id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRow(ctx, query, itemID))
}

// UpdateVersioned escribe contadores y metadatos condicionado a la versión previa.
// domain.ErrConflict si otra transacción avanzó la versión entre lectura y escritura.
func (r *InventoryRecordRepo) UpdateVersioned(ctx context.Context, rec *entity.InventoryRecord, expectedVersion int64) error {
	query := `
		UPDATE inventory_records
		SET current_quantity = $1, reserved_quantity = $2, sold_quantity = $3,
			damaged_quantity = $4, lost_quantity = $5, status = $6, version = $7,
			updated_at = $8, updated_by = $9
		WHERE item_id = $10 AND version = $11`
	tag, err := r.q.Exec(ctx, query,
		rec.CurrentQuantity, rec.ReservedQuantity, rec.SoldQuantity,
		rec.DamagedQuantity, rec.LostQuantity, string(rec.Status), rec.Version,
		rec.UpdatedAt, nullIfEmpty(rec.UpdatedBy), rec.ItemID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("update inventory record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// ListBelowReorder lista registros activos en o bajo el punto de reorden,
// los de mayor déficit primero.
func (r *InventoryRecordRepo) ListBelowReorder(ctx context.Context, limit int) ([]*entity.InventoryRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM inventory_records
		WHERE status <> 'discontinued'
		  AND reorder_threshold > 0
		  AND current_quantity <= reorder_threshold
		ORDER BY (reorder_threshold - current_quantity) DESC, item_id
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list below reorder: %w", err)
	}
	defer rows.Close()

	var list []*entity.InventoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *InventoryRecordRepo) scanOne(row pgx.Row) (*entity.InventoryRecord, error) {
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	var status string
	var updatedBy *string
	if err := row.Scan(
		&rec.ItemID, &rec.Unit, &rec.InitialQuantity, &rec.CurrentQuantity, &rec.ReservedQuantity,
		&rec.SoldQuantity, &rec.DamagedQuantity, &rec.LostQuantity, &rec.LowStockThreshold,
		&rec.ReorderThreshold, &rec.ReorderQuantity, &status, &rec.Version,
		&rec.UpdatedAt, &updatedBy, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}
	rec.Status = entity.StockStatus(status)
	if updatedBy != nil {
		rec.UpdatedBy = *updatedBy
	}
	return &rec, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
