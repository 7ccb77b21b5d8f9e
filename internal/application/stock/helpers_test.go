package stock_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-allocation/internal/application/stock"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Entorno de test: store en memoria + casos de uso cableados como en main.
// ──────────────────────────────────────────────────────────────────────────────

type env struct {
	store  *memory.Store
	alloc  *stock.AllocationService
	orders *stock.OrderUseCase
	stocks *stock.StockUseCase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	log := zerolog.Nop()
	recorder := stock.NewMovementRecorder(store.Models(), store.Prices(), "Sistema", log)
	alloc := stock.NewAllocationService(store, recorder, stock.NewOrderProjector(), log)
	return &env{
		store:  store,
		alloc:  alloc,
		orders: stock.NewOrderUseCase(alloc, store, store.Stocks(), store.Orders(), store.Models(), 4, log),
		stocks: stock.NewStockUseCase(store, store.Stocks(), store.Models()),
	}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// newStock registra un modelo con el factor dado y crea su stock con el total indicado.
func (e *env) newStock(t *testing.T, id string, factor, total int64) *entity.StockItem {
	t.Helper()
	ctx := context.Background()
	e.store.PutModel(&entity.ProductModel{
		ID:                     "model-" + id,
		Product:                "Porcelanato",
		Model:                  "Modelo " + id,
		UnitsPerCommercialUnit: dec(factor),
	})
	st, err := e.stocks.CreateForModel(ctx, "model-"+id, "placas")
	require.NoError(t, err)
	if total > 0 {
		st, err = e.alloc.RecordProduction(ctx, st.ID, dec(total), stock.Meta{})
		require.NoError(t, err)
	}
	return st
}

func (e *env) get(t *testing.T, id string) *entity.StockItem {
	t.Helper()
	st, err := e.stocks.Get(context.Background(), id)
	require.NoError(t, err)
	return st
}

func orderInput(typ entity.OrderType, lines ...entity.OrderLine) stock.OrderInput {
	return stock.OrderInput{
		Type:     typ,
		VendorID: "vendedor-1",
		Client:   entity.Client{Name: "José Pérez"},
		Remito:   "R-0001",
		Lines:    lines,
	}
}

func line(stockID string, qty int64) entity.OrderLine {
	return entity.OrderLine{StockID: stockID, Quantity: dec(qty), Unit: "m2"}
}
