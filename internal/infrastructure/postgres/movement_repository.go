package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
	"github.com/jhoicas/stock-ledger-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, movement_id, item_id, kind, quantity, from_reservation,
	previous_quantity, new_quantity, reserved_after, sold_after, damaged_after, lost_after,
	status_after, reason, actor, occurred_at, version_before, version_after`

// MovementRepo ledger append-only sobre PostgreSQL (usable con pool o tx).
// Las filas nunca se actualizan ni se borran.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append agrega un movimiento. domain.ErrDuplicate si movement_id ya existe.
func (r *MovementRepo) Append(ctx context.Context, mov *entity.Movement) error {
	if mov.ID == "" {
		mov.ID = uuid.New().String()
	}
	query := `
		INSERT INTO inventory_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		mov.ID, mov.MovementID, mov.ItemID, string(mov.Kind), mov.Quantity, mov.FromReservation,
		mov.PreviousQuantity, mov.NewQuantity, mov.ReservedAfter, mov.SoldAfter,
		mov.DamagedAfter, mov.LostAfter, string(mov.StatusAfter),
		nullIfEmpty(mov.Reason), nullIfEmpty(mov.Actor), mov.OccurredAt,
		mov.VersionBefore, mov.VersionAfter,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// GetByMovementID busca por clave de idempotencia. (nil, nil) si no existe.
func (r *MovementRepo) GetByMovementID(ctx context.Context, movementID string) (*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE movement_id = $1`
	mov, err := scanMovement(r.q.QueryRow(ctx, query, movementID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return mov, nil
}

// ListByItem lista movimientos de un ítem con version_after > sinceVersion,
// en orden ascendente de versión.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID string, sinceVersion int64, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE item_id = $1 AND version_after > $2
		ORDER BY version_after ASC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, itemID, sinceVersion, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	var list []*entity.Movement
	for rows.Next() {
		mov, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, mov)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var kind, statusAfter string
	var reason, actor *string
	if err := row.Scan(
		&m.ID, &m.MovementID, &m.ItemID, &kind, &m.Quantity, &m.FromReservation,
		&m.PreviousQuantity, &m.NewQuantity, &m.ReservedAfter, &m.SoldAfter,
		&m.DamagedAfter, &m.LostAfter, &statusAfter, &reason, &actor,
		&m.OccurredAt, &m.VersionBefore, &m.VersionAfter,
	); err != nil {
		return nil, err
	}
	m.Kind = entity.MovementKind(kind)
	m.StatusAfter = entity.StockStatus(statusAfter)
	if reason != nil {
		m.Reason = *reason
	}
	if actor != nil {
		m.Actor = *actor
	}
	return &m, nil
}
