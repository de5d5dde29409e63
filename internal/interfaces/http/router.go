package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-ledger-api/internal/application/ledger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ItemUC      *ledger.ItemUseCase
	ApplyUC     *ledger.ApplyMovementUseCase
	QueryUC     *ledger.QueryUseCase
	ReconcileUC *ledger.ReconcileUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Todas las rutas requieren Bearer Token
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	itemHandler := NewItemHandler(deps.ItemUC, deps.QueryUC)
	ledgerHandler := NewLedgerHandler(deps.ApplyUC, deps.QueryUC, deps.ReconcileUC)

	items := protected.Group("/items")
	items.Post("/", itemHandler.Create)
	// Ruta fija antes de la paramétrica para que "reorder-suggestions" no matchee :id
	items.Get("/reorder-suggestions", itemHandler.ReorderSuggestions)
	items.Get("/:id", itemHandler.GetSnapshot)
	items.Post("/:id/movements", ledgerHandler.ApplyMovement)
	items.Get("/:id/movements", ledgerHandler.ListMovements)
	items.Get("/:id/reconciliation", ledgerHandler.Reconcile)

	// Overrides administrativos (solo admin)
	items.Post("/:id/discontinue", RequireRole("admin"), itemHandler.Discontinue)
	items.Post("/:id/reactivate", RequireRole("admin"), itemHandler.Reactivate)
}
