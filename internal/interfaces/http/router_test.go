package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-allocation/internal/application/dto"
	"github.com/jhoicas/stock-allocation/internal/application/stock"
	"github.com/jhoicas/stock-allocation/internal/application/traceability"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/stock-allocation/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

type api struct {
	app   *fiber.App
	store *memory.Store
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()
	alloc := stock.NewAllocationService(store, stock.NewMovementRecorder(store.Models(), store.Prices(), "Sistema", log), stock.NewOrderProjector(), log)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		OrderUC:        stock.NewOrderUseCase(alloc, store, store.Stocks(), store.Orders(), store.Models(), 2, log),
		StockUC:        stock.NewStockUseCase(store, store.Stocks(), store.Models()),
		Allocation:     alloc,
		TraceabilityUC: traceability.NewUseCase(store.Movements(), store.Stocks()),
		JWTSecret:      testJWTSecret,
	})
	store.PutModel(&entity.ProductModel{ID: "m1", Product: "Porcelanato", Model: "Calacatta", UnitsPerCommercialUnit: decimal.NewFromInt(1)})
	return &api{app: app, store: store}
}

// call hace la petición con el rol dado y decodifica la respuesta en out (si no es nil).
func (a *api) call(t *testing.T, role, method, path string, body, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *api) createStock(t *testing.T) dto.StockResponse {
	t.Helper()
	var st dto.StockResponse
	code := a.call(t, "produccion", http.MethodPost, "/api/stocks", dto.CreateStockRequest{ModelID: "m1", Unit: "placas"}, &st)
	require.Equal(t, http.StatusCreated, code)
	require.False(t, st.Active, "un stock nuevo nace inactivo")
	code = a.call(t, "produccion", http.MethodPut, "/api/stocks/"+st.ID+"/active", dto.SetActiveRequest{Active: true}, &st)
	require.Equal(t, http.StatusOK, code)
	return st
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func orderBody(stockID string, q int64, status string) dto.OrderRequest {
	return dto.OrderRequest{
		Type:   "pedido",
		Remito: "R-7",
		Client: dto.ClientDTO{Name: "José Pérez"},
		Status: status,
		Lines:  []dto.OrderLineRequest{{StockID: stockID, Quantity: qty(q), Unit: "placas"}},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_FlujoPedidoProduccionEntrega(t *testing.T) {
	a := newAPI(t)
	st := a.createStock(t)
	assert.True(t, st.Active)

	code := a.call(t, "produccion", http.MethodPost, "/api/stocks/"+st.ID+"/production", dto.ProductionRequest{Quantity: qty(10)}, &st)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, st.Total.Equal(qty(10)))

	var res dto.OrderResultResponse
	code = a.call(t, "vendedor", http.MethodPost, "/api/orders", orderBody(st.ID, 15, "retira"), &res)
	require.Equal(t, http.StatusCreated, code)
	orderID := res.Order.ID
	assert.Equal(t, "pendiente", res.Order.Lines[0].StockState)
	assert.Empty(t, res.Skipped)

	// Entregar con la línea pendiente: no está reservada.
	var e dto.ErrorResponse
	code = a.call(t, "vendedor", http.MethodPut, "/api/orders/"+orderID+"/deliver", nil, &e)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "NOT_RESERVED", e.Code)

	code = a.call(t, "produccion", http.MethodPost, "/api/stocks/"+st.ID+"/production", dto.ProductionRequest{Quantity: qty(5)}, &st)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, st.Reserved.Equal(qty(15)))
	require.Len(t, st.Queue, 1)
	assert.Equal(t, "reservado", st.Queue[0].State)

	var o dto.OrderResponse
	code = a.call(t, "vendedor", http.MethodGet, "/api/orders/"+orderID, nil, &o)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "disponible", o.Lines[0].StockState)

	code = a.call(t, "vendedor", http.MethodPut, "/api/orders/"+orderID+"/deliver", nil, &o)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "entregado", o.Status)
	assert.Equal(t, "entregado", o.Lines[0].StockState)

	var tr dto.OrderTraceResponse
	code = a.call(t, "vendedor", http.MethodGet, "/api/traceability/order/"+orderID+"/full", nil, &tr)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, tr.Movements, 3)
	assert.Equal(t, testName, tr.Movements[0].Actor)
	assert.Equal(t, "entrega", tr.Movements[2].Type)

	var rep dto.ChainReportResponse
	code = a.call(t, "admin", http.MethodGet, "/api/traceability/stock/"+st.ID+"/verify", nil, &rep)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, rep.Valid)
	assert.Equal(t, 5, rep.Checked)
}

func TestAPI_BusquedaPorClienteConTildes(t *testing.T) {
	a := newAPI(t)
	st := a.createStock(t)
	a.call(t, "produccion", http.MethodPost, "/api/stocks/"+st.ID+"/production", dto.ProductionRequest{Quantity: qty(10)}, nil)
	a.call(t, "vendedor", http.MethodPost, "/api/orders", orderBody(st.ID, 2, ""), nil)

	var list dto.MovementListResponse
	code := a.call(t, "admin", http.MethodGet, "/api/traceability/client/JOS%C3%89", nil, &list)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "José Pérez", list.Items[0].ClientName)

	code = a.call(t, "admin", http.MethodGet, "/api/traceability/search?q=calacatta+r-7", nil, &list)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list.Items, 1)

	var stats []dto.MovementStatsResponse
	code = a.call(t, "admin", http.MethodGet, "/api/traceability/stats", nil, &stats)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, stats, 2)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores y permisos
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_AjusteBajoReservadoEsConflicto(t *testing.T) {
	a := newAPI(t)
	st := a.createStock(t)
	a.call(t, "produccion", http.MethodPost, "/api/stocks/"+st.ID+"/production", dto.ProductionRequest{Quantity: qty(10)}, nil)
	a.call(t, "vendedor", http.MethodPost, "/api/orders", orderBody(st.ID, 8, ""), nil)

	var e dto.ErrorResponse
	code := a.call(t, "produccion", http.MethodPost, "/api/stocks/"+st.ID+"/adjustment", dto.AdjustmentRequest{Delta: qty(-5), Reason: "rotura"}, &e)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVARIANT_VIOLATION", e.Code)
}

func TestAPI_Errores(t *testing.T) {
	a := newAPI(t)
	st := a.createStock(t)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusNotFound, a.call(t, "admin", http.MethodGet, "/api/stocks/no-existe", nil, &e))
	assert.Equal(t, "NOT_FOUND", e.Code)

	assert.Equal(t, http.StatusConflict, a.call(t, "admin", http.MethodPost, "/api/stocks", dto.CreateStockRequest{ModelID: "m1"}, &e))
	assert.Equal(t, "DUPLICATE", e.Code)

	assert.Equal(t, http.StatusBadRequest, a.call(t, "produccion", http.MethodPost, "/api/stocks/"+st.ID+"/production", dto.ProductionRequest{Quantity: qty(0)}, &e))
	assert.Equal(t, "VALIDATION", e.Code)

	assert.Equal(t, http.StatusBadRequest, a.call(t, "vendedor", http.MethodPost, "/api/orders", dto.OrderRequest{Type: "pedido"}, &e))
	assert.Equal(t, "VALIDATION", e.Code)

	assert.Equal(t, http.StatusBadRequest, a.call(t, "admin", http.MethodGet, "/api/traceability/type/robo", nil, &e))
	assert.Equal(t, http.StatusBadRequest, a.call(t, "admin", http.MethodGet, "/api/traceability/dates?from=ayer&to=hoy", nil, &e))
}

func TestAPI_VendedorNoRegistraProduccion(t *testing.T) {
	a := newAPI(t)
	st := a.createStock(t)

	var e dto.ErrorResponse
	code := a.call(t, "vendedor", http.MethodPost, "/api/stocks/"+st.ID+"/production", dto.ProductionRequest{Quantity: qty(1)}, &e)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", e.Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Listado de pedidos y baja de stock
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_ListadoDePedidos(t *testing.T) {
	a := newAPI(t)
	st := a.createStock(t)
	a.call(t, "produccion", http.MethodPost, "/api/stocks/"+st.ID+"/production", dto.ProductionRequest{Quantity: qty(10)}, nil)
	a.call(t, "vendedor", http.MethodPost, "/api/orders", orderBody(st.ID, 2, ""), nil)
	a.call(t, "vendedor", http.MethodPost, "/api/orders", orderBody(st.ID, 3, "retira"), nil)

	var list dto.OrderListResponse
	code := a.call(t, "vendedor", http.MethodGet, "/api/orders", nil, &list)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list.Items, 2)

	code = a.call(t, "vendedor", http.MethodGet, "/api/orders?status=retira", nil, &list)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "retira", list.Items[0].Status)

	code = a.call(t, "vendedor", http.MethodGet, "/api/orders?limit=1&offset=1", nil, &list)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Page.Offset)

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, a.call(t, "vendedor", http.MethodGet, "/api/orders?type=factura", nil, &e))
	assert.Equal(t, "VALIDATION", e.Code)
}

func TestAPI_PedidoEntregadoSoloPorDeliver(t *testing.T) {
	a := newAPI(t)
	st := a.createStock(t)
	a.call(t, "produccion", http.MethodPost, "/api/stocks/"+st.ID+"/production", dto.ProductionRequest{Quantity: qty(10)}, nil)

	var e dto.ErrorResponse
	code := a.call(t, "vendedor", http.MethodPost, "/api/orders", orderBody(st.ID, 2, "entregado"), &e)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", e.Code)
}

func TestAPI_BajaDeStock(t *testing.T) {
	a := newAPI(t)
	st := a.createStock(t)
	a.call(t, "produccion", http.MethodPost, "/api/stocks/"+st.ID+"/production", dto.ProductionRequest{Quantity: qty(10)}, nil)
	var res dto.OrderResultResponse
	require.Equal(t, http.StatusCreated, a.call(t, "vendedor", http.MethodPost, "/api/orders", orderBody(st.ID, 2, ""), &res))

	var e dto.ErrorResponse
	assert.Equal(t, http.StatusForbidden, a.call(t, "vendedor", http.MethodDelete, "/api/stocks/"+st.ID, nil, &e))
	assert.Equal(t, http.StatusConflict, a.call(t, "produccion", http.MethodDelete, "/api/stocks/"+st.ID, nil, &e))
	assert.Equal(t, "CONFLICT", e.Code)

	require.Equal(t, http.StatusNoContent, a.call(t, "vendedor", http.MethodDelete, "/api/orders/"+res.Order.ID, nil, nil))
	assert.Equal(t, http.StatusNoContent, a.call(t, "produccion", http.MethodDelete, "/api/stocks/"+st.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(t, "admin", http.MethodGet, "/api/stocks/"+st.ID, nil, &e))
}
