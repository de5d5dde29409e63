package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
)

// ItemHandler maneja las peticiones HTTP del ciclo de vida del registro (protegido).
type ItemHandler struct {
	itemUC  *ledger.ItemUseCase
	queryUC *ledger.QueryUseCase
}

// NewItemHandler construye el handler.
func NewItemHandler(itemUC *ledger.ItemUseCase, queryUC *ledger.QueryUseCase) *ItemHandler {
	return &ItemHandler{itemUC: itemUC, queryUC: queryUC}
}

// Create godoc
// @Summary      Dar de alta el registro de inventario de un ítem
// @Tags         items
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateItemRequest  true  "item_id, initial_quantity, umbrales"
// @Success      201   {object}  dto.RecordSnapshotDTO
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	snap, err := h.itemUC.CreateRecord(c.Context(), in, GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(snap)
}

// GetSnapshot godoc
// @Summary      Snapshot actual del registro de un ítem
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  dto.RecordSnapshotDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetSnapshot(c *fiber.Ctx) error {
	snap, err := h.queryUC.GetSnapshot(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snap)
}

// Discontinue godoc
// @Summary      Descontinuar un ítem (solo admin)
// @Description  Congela ventas, reservas y demás movimientos; solo se admiten
//
//	ajustes mientras dure el override. Idempotente.
//
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  dto.RecordSnapshotDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/discontinue [post]
func (h *ItemHandler) Discontinue(c *fiber.Ctx) error {
	snap, err := h.itemUC.Discontinue(c.Context(), c.Params("id"), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snap)
}

// Reactivate godoc
// @Summary      Reactivar un ítem descontinuado (solo admin)
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  dto.RecordSnapshotDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id}/reactivate [post]
func (h *ItemHandler) Reactivate(c *fiber.Ctx) error {
	snap, err := h.itemUC.Reactivate(c.Context(), c.Params("id"), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(snap)
}

// ReorderSuggestions godoc
// @Summary      Ítems en o bajo su punto de reorden
// @Description  Devuelve los ítems que necesitan reposición con la cantidad
//
//	sugerida de pedido, los de mayor déficit primero.
//
// @Tags         items
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo de sugerencias (default 100)"
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/items/reorder-suggestions [get]
func (h *ItemHandler) ReorderSuggestions(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	list, err := h.queryUC.ListReorderSuggestions(c.Context(), limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":       len(list),
		"suggestions": list,
	})
}
