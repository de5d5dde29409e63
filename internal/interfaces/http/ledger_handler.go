package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
	"github.com/jhoicas/stock-ledger-api/internal/domain/entity"
)

// LedgerHandler maneja las peticiones HTTP de movimientos y auditoría (protegido).
type LedgerHandler struct {
	applyUC     *ledger.ApplyMovementUseCase
	queryUC     *ledger.QueryUseCase
	reconcileUC *ledger.ReconcileUseCase
}

// NewLedgerHandler construye el handler.
func NewLedgerHandler(
	applyUC *ledger.ApplyMovementUseCase,
	queryUC *ledger.QueryUseCase,
	reconcileUC *ledger.ReconcileUseCase,
) *LedgerHandler {
	return &LedgerHandler{applyUC: applyUC, queryUC: queryUC, reconcileUC: reconcileUC}
}

// ApplyMovement godoc
// @Summary      Aplicar un movimiento de inventario
// @Description  Aplica sale, restock, damage, loss, reservation, reservation_release,
//
//	return o adjustment sobre los contadores del ítem y agrega el evento
//	al ledger. movement_id es la clave de idempotencia: repetirlo devuelve
//	el snapshot original con replayed=true en vez de reaplicar.
//
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "Item ID"
// @Param        body  body  dto.ApplyMovementRequest true  "movement_id, kind, quantity (o new_quantity para adjustment)"
// @Success      200   {object}  dto.RecordSnapshotDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/movements [post]
func (h *LedgerHandler) ApplyMovement(c *fiber.Ctx) error {
	var in dto.ApplyMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	snap, err := h.applyUC.Apply(c.Context(), ledger.ApplyMovementInput{
		ItemID:          c.Params("id"),
		MovementID:      in.MovementID,
		Kind:            entity.MovementKind(in.Kind),
		Quantity:        in.Quantity,
		NewQuantity:     in.NewQuantity,
		FromReservation: in.FromReservation,
		Reason:          in.Reason,
		Actor:           GetActor(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snap)
}

// ListMovements godoc
// @Summary      Ledger de movimientos de un ítem
// @Description  Orden ascendente por versión del registro. since_version permite
//
//	auditoría incremental (solo movimientos posteriores a esa versión).
//
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id             path   string  true   "Item ID"
// @Param        since_version  query  int     false  "Solo movimientos con versión posterior"
// @Param        limit          query  int     false  "Tamaño de página (default 20, max 100)"
// @Param        offset         query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/movements [get]
func (h *LedgerHandler) ListMovements(c *fiber.Ctx) error {
	sinceVersion, _ := strconv.ParseInt(c.Query("since_version", "0"), 10, 64)
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	movs, err := h.queryUC.ListMovements(c.Context(), c.Params("id"), sinceVersion, page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":     len(movs),
		"movements": movs,
	})
}

// Reconcile godoc
// @Summary      Conciliación del ledger contra los contadores
// @Description  Reproduce todos los movimientos desde initial_quantity y compara
//
//	el resultado con los contadores persistidos del registro.
//
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  dto.ReconciliationReportDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/reconciliation [get]
func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.reconcileUC.Reconcile(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
