package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-allocation/internal/application/stock"
	"github.com/jhoicas/stock-allocation/internal/application/traceability"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	OrderUC        *stock.OrderUseCase
	StockUC        *stock.StockUseCase
	Allocation     *stock.AllocationService
	TraceabilityUC *traceability.UseCase
	JWTSecret      string
}

// Router registra las rutas de la API. Todo /api requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	sellers := RequireRole(RoleAdmin, RoleSeller)
	production := RequireRole(RoleAdmin, RoleProduction)

	// Orders
	orders := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC)
	orders.Get("/", orderHandler.List)
	orders.Post("/", sellers, orderHandler.Create)
	orders.Get("/:id", orderHandler.GetByID)
	orders.Put("/:id", sellers, orderHandler.Update)
	orders.Delete("/:id", sellers, orderHandler.Delete)
	orders.Put("/:id/deliver", sellers, orderHandler.Deliver)
	orders.Post("/:id/remito", sellers, orderHandler.MarkRemitted)
	orders.Post("/:id/reconcile", sellers, orderHandler.Reconcile)

	// Stocks
	stocks := api.Group("/stocks")
	stockHandler := NewStockHandler(deps.StockUC, deps.Allocation)
	stocks.Get("/", stockHandler.List)
	stocks.Post("/", production, stockHandler.Create)
	stocks.Get("/:id", stockHandler.GetByID)
	stocks.Delete("/:id", production, stockHandler.Delete)
	stocks.Post("/:id/production", production, stockHandler.RecordProduction)
	stocks.Post("/:id/adjustment", production, stockHandler.Adjust)
	stocks.Put("/:id/total", production, stockHandler.SetTotal)
	stocks.Put("/:id/active", production, stockHandler.SetActive)
	stocks.Post("/:id/reevaluate", production, stockHandler.Reevaluate)

	// Traceability (sólo lectura)
	trace := api.Group("/traceability")
	traceHandler := NewTraceabilityHandler(deps.TraceabilityUC)
	trace.Get("/stock/:id", traceHandler.ByStock)
	trace.Get("/stock/:id/verify", traceHandler.VerifyChain)
	trace.Get("/model/:id", traceHandler.ByModel)
	trace.Get("/order/:id", traceHandler.ByOrder)
	trace.Get("/order/:id/full", traceHandler.OrderTrace)
	trace.Get("/client/:name", traceHandler.ByClient)
	trace.Get("/dates", traceHandler.ByDateRange)
	trace.Get("/type/:type", traceHandler.ByType)
	trace.Get("/search", traceHandler.Search)
	trace.Get("/stats", traceHandler.Stats)
}
