package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-allocation/internal/application/dto"
	"github.com/jhoicas/stock-allocation/internal/application/stock"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

// OrderHandler ciclo de vida de pedidos y presupuestos (protegido).
type OrderHandler struct {
	uc *stock.OrderUseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *stock.OrderUseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func meta(c *fiber.Ctx, reason string) stock.Meta {
	return stock.Meta{Actor: GetActor(c), Reason: reason}
}

// Create godoc
// @Summary      Crear pedido o presupuesto
// @Description  Un pedido asigna stock a cada línea; un presupuesto no compromete stock.
//
//	Las líneas con stock o modelo inexistente se omiten y se informan en skipped.
//
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.OrderRequest  true  "Datos del pedido"
// @Success      201   {object}  dto.OrderResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.OrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Create(c.UserContext(), toOrderInput(in), meta(c, ""))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResult(res))
}

// List godoc
// @Summary      Listar pedidos
// @Description  Del más reciente al más antiguo. Sin limit se devuelven 50.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        type    query  string  false  "pedido o presupuesto"
// @Param        status  query  string  false  "Estado del pedido"
// @Param        limit   query  int     false  "Máximo de resultados"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.OrderListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	p := page(c)
	list, err := h.uc.List(c.UserContext(), repository.OrderFilter{
		Type:   entity.OrderType(c.Query("type")),
		Status: entity.OrderStatus(c.Query("status")),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	out := dto.OrderListResponse{
		Items: make([]dto.OrderResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset},
	}
	for _, o := range list {
		out.Items = append(out.Items, toOrderResponse(o))
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	o, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// Update godoc
// @Summary      Editar pedido
// @Description  Sólo se tocan los stocks cuya demanda cambió. Convertir a presupuesto libera todo.
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string            true  "ID del pedido"
// @Param        body  body  dto.OrderRequest  true  "Datos del pedido"
// @Success      200   {object}  dto.OrderResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var in dto.OrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.Update(c.UserContext(), c.Params("id"), toOrderInput(in), meta(c, ""))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResult(res))
}

// Delete godoc
// @Summary      Eliminar pedido
// @Description  Libera todas sus asignaciones; las pendientes de otros pedidos pueden promoverse.
// @Tags         orders
// @Security     Bearer
// @Param        id   path  string  true  "ID del pedido"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id"), meta(c, "")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Deliver godoc
// @Summary      Entregar pedido
// @Description  Todo o nada: requiere estado retira, enviar o instalacion y todas las líneas reservadas.
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/deliver [put]
func (h *OrderHandler) Deliver(c *fiber.Ctx) error {
	o, err := h.uc.Deliver(c.UserContext(), c.Params("id"), meta(c, ""))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// MarkRemitted godoc
// @Summary      Registrar remito
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID del pedido"
// @Param        body  body  dto.RemitoRequest  true  "URL del remito"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/remito [post]
func (h *OrderHandler) MarkRemitted(c *fiber.Ctx) error {
	var in dto.RemitoRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	o, err := h.uc.MarkRemitted(c.UserContext(), c.Params("id"), in.URL)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResponse(o))
}

// Reconcile godoc
// @Summary      Reconciliar asignaciones del pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResultResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/reconcile [post]
func (h *OrderHandler) Reconcile(c *fiber.Ctx) error {
	res, err := h.uc.Reconcile(c.UserContext(), c.Params("id"), meta(c, ""))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderResult(res))
}
