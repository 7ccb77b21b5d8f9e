package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-allocation/internal/application/dto"
	"github.com/jhoicas/stock-allocation/internal/application/stock"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
)

// StockHandler ledger de stock: consulta, producción y edición manual (protegido).
type StockHandler struct {
	stocks *stock.StockUseCase
	alloc  *stock.AllocationService
}

// NewStockHandler construye el handler.
func NewStockHandler(stocks *stock.StockUseCase, alloc *stock.AllocationService) *StockHandler {
	return &StockHandler{stocks: stocks, alloc: alloc}
}

func (h *StockHandler) respond(c *fiber.Ctx, st *entity.StockItem, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(st))
}

// Create godoc
// @Summary      Crear stock para un modelo
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockRequest  true  "Modelo y unidad"
// @Success      201   {object}  dto.StockResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stocks [post]
func (h *StockHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ModelID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "model_id es requerido"})
	}
	st, err := h.stocks.CreateForModel(c.UserContext(), in.ModelID, in.Unit)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockResponse(st))
}

// List godoc
// @Summary      Listar stocks
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        active  query  bool  false  "Sólo activos"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/stocks [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	list, err := h.stocks.List(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return writeError(c, err)
	}
	out := dto.StockListResponse{Items: make([]dto.StockResponse, 0, len(list)), Total: len(list)}
	for _, st := range list {
		out.Items = append(out.Items, toStockResponse(st))
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar stock
// @Description  Sólo un stock sin asignaciones. Con pedidos asignados responde 409.
// @Tags         stocks
// @Security     Bearer
// @Param        id   path  string  true  "ID del stock"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if err := h.stocks.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetByID godoc
// @Summary      Obtener stock con su cola de asignaciones
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del stock"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	st, err := h.stocks.Get(c.UserContext(), c.Params("id"))
	return h.respond(c, st, err)
}

// RecordProduction godoc
// @Summary      Ingreso de producción
// @Description  Suma al stock y promueve pendientes en orden de llegada.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del stock"
// @Param        body  body  dto.ProductionRequest  true  "Cantidad producida"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/production [post]
func (h *StockHandler) RecordProduction(c *fiber.Ctx) error {
	var in dto.ProductionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	st, err := h.alloc.RecordProduction(c.UserContext(), c.Params("id"), in.Quantity, meta(c, in.Reason))
	return h.respond(c, st, err)
}

// Adjust godoc
// @Summary      Ajuste manual de stock
// @Description  Delta con signo. No puede dejar el stock por debajo de lo reservado.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del stock"
// @Param        body  body  dto.AdjustmentRequest  true  "Delta y motivo"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/adjustment [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	st, err := h.alloc.Adjust(c.UserContext(), c.Params("id"), in.Delta, meta(c, in.Reason))
	return h.respond(c, st, err)
}

// SetTotal godoc
// @Summary      Fijar el stock total
// @Description  Un aumento se registra como producción y una baja como ajuste.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del stock"
// @Param        body  body  dto.SetTotalRequest  true  "Nuevo total"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/total [put]
func (h *StockHandler) SetTotal(c *fiber.Ctx) error {
	var in dto.SetTotalRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	st, err := h.alloc.SetTotal(c.UserContext(), c.Params("id"), in.Total, meta(c, in.Reason))
	return h.respond(c, st, err)
}

// SetActive godoc
// @Summary      Activar o desactivar stock
// @Description  Al activar se reevalúan los pendientes.
// @Tags         stocks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID del stock"
// @Param        body  body  dto.SetActiveRequest  true  "Estado"
// @Success      200   {object}  dto.StockResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/active [put]
func (h *StockHandler) SetActive(c *fiber.Ctx) error {
	var in dto.SetActiveRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	st, err := h.alloc.SetActive(c.UserContext(), c.Params("id"), in.Active, meta(c, ""))
	return h.respond(c, st, err)
}

// Reevaluate godoc
// @Summary      Reevaluar pendientes
// @Tags         stocks
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del stock"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stocks/{id}/reevaluate [post]
func (h *StockHandler) Reevaluate(c *fiber.Ctx) error {
	st, err := h.alloc.Reevaluate(c.UserContext(), c.Params("id"), meta(c, ""))
	return h.respond(c, st, err)
}
