package http

import (
	"fmt"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-allocation/internal/application/dto"
	"github.com/jhoicas/stock-allocation/internal/application/traceability"
	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
)

// TraceabilityHandler consultas de sólo lectura sobre el log de movimientos (protegido).
type TraceabilityHandler struct {
	uc *traceability.UseCase
}

// NewTraceabilityHandler construye el handler.
func NewTraceabilityHandler(uc *traceability.UseCase) *TraceabilityHandler {
	return &TraceabilityHandler{uc: uc}
}

func page(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", 0), Offset: c.QueryInt("offset", 0)}
	p.DefaultPage()
	return p
}

func (h *TraceabilityHandler) list(c *fiber.Ctx, p dto.PageRequest, movs []*entity.StockMovement, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: toMovements(movs),
		Page:  dto.PageResponse{Limit: p.Limit, Offset: p.Offset},
	})
}

const dateLayout = "2006-01-02"

// parseDate acepta RFC3339 o AAAA-MM-DD. Con endOfDay, una fecha sin hora cubre el día completo.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha %q", domain.ErrInvalidInput, s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// ByStock godoc
// @Summary      Movimientos de un stock
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del stock"
// @Param        limit   query  int     false  "Máximo (por defecto 50)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/traceability/stock/{id} [get]
func (h *TraceabilityHandler) ByStock(c *fiber.Ctx) error {
	p := page(c)
	movs, err := h.uc.ByStock(c.UserContext(), c.Params("id"), p.Limit, p.Offset)
	return h.list(c, p, movs, err)
}

// ByModel godoc
// @Summary      Movimientos de un modelo
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del modelo"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/traceability/model/{id} [get]
func (h *TraceabilityHandler) ByModel(c *fiber.Ctx) error {
	p := page(c)
	movs, err := h.uc.ByModel(c.UserContext(), c.Params("id"), p.Limit, p.Offset)
	return h.list(c, p, movs, err)
}

// ByOrder godoc
// @Summary      Historia de un pedido (cronológica, completa)
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/traceability/order/{id} [get]
func (h *TraceabilityHandler) ByOrder(c *fiber.Ctx) error {
	movs, err := h.uc.ByOrder(c.UserContext(), c.Params("id"))
	return h.list(c, dto.PageRequest{}, movs, err)
}

// OrderTrace godoc
// @Summary      Traza de un pedido con resumen por tipo
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderTraceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/traceability/order/{id}/full [get]
func (h *TraceabilityHandler) OrderTrace(c *fiber.Ctx) error {
	tr, err := h.uc.OrderTrace(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderTrace(tr))
}

// ByClient godoc
// @Summary      Movimientos por cliente
// @Description  Coincidencia parcial sin distinguir tildes ni mayúsculas.
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        name  path  string  true  "Nombre del cliente"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/traceability/client/{name} [get]
func (h *TraceabilityHandler) ByClient(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return writeError(c, fmt.Errorf("%w: nombre de cliente", domain.ErrInvalidInput))
	}
	p := page(c)
	movs, err := h.uc.ByClient(c.UserContext(), name, p.Limit, p.Offset)
	return h.list(c, p, movs, err)
}

// ByDateRange godoc
// @Summary      Movimientos entre fechas
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  true  "Desde (RFC3339 o AAAA-MM-DD)"
// @Param        to    query  string  true  "Hasta (RFC3339 o AAAA-MM-DD, inclusive)"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/traceability/dates [get]
func (h *TraceabilityHandler) ByDateRange(c *fiber.Ctx) error {
	from, err := parseDate(c.Query("from"), false)
	if err != nil {
		return writeError(c, err)
	}
	to, err := parseDate(c.Query("to"), true)
	if err != nil {
		return writeError(c, err)
	}
	if from == nil || to == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from y to son requeridos"})
	}
	p := page(c)
	movs, err := h.uc.ByDateRange(c.UserContext(), *from, *to, p.Limit, p.Offset)
	return h.list(c, p, movs, err)
}

// ByType godoc
// @Summary      Movimientos por tipo
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "produccion | reserva | liberacion | entrega | ajuste"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/traceability/type/{type} [get]
func (h *TraceabilityHandler) ByType(c *fiber.Ctx) error {
	p := page(c)
	movs, err := h.uc.ByType(c.UserContext(), c.Params("type"), p.Limit, p.Offset)
	return h.list(c, p, movs, err)
}

// Search godoc
// @Summary      Búsqueda libre
// @Description  Todos los términos deben aparecer en producto, modelo, cliente o remito.
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        q  query  string  true  "Términos"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/traceability/search [get]
func (h *TraceabilityHandler) Search(c *fiber.Ctx) error {
	p := page(c)
	movs, err := h.uc.Search(c.UserContext(), c.Query("q"), p.Limit, p.Offset)
	return h.list(c, p, movs, err)
}

// Stats godoc
// @Summary      Estadísticas por tipo de movimiento
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Desde"
// @Param        to    query  string  false  "Hasta"
// @Success      200  {array}   dto.MovementStatsResponse
// @Router       /api/traceability/stats [get]
func (h *TraceabilityHandler) Stats(c *fiber.Ctx) error {
	from, err := parseDate(c.Query("from"), false)
	if err != nil {
		return writeError(c, err)
	}
	to, err := parseDate(c.Query("to"), true)
	if err != nil {
		return writeError(c, err)
	}
	stats, err := h.uc.Stats(c.UserContext(), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStats(stats))
}

// VerifyChain godoc
// @Summary      Verificar la cadena de auditoría de un stock
// @Tags         traceability
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del stock"
// @Success      200  {object}  dto.ChainReportResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/traceability/stock/{id}/verify [get]
func (h *TraceabilityHandler) VerifyChain(c *fiber.Ctx) error {
	rep, err := h.uc.VerifyChain(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toChainReport(rep))
}
