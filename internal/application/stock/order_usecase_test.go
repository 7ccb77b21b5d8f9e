package stock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-allocation/internal/application/stock"
	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

func TestOrderUseCase_CreateAsignaYOmiteLineasInvalidas(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 2, 100)
	b := e.newStock(t, "b", 1, 0)

	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder,
		line(a.ID, 10),
		line(b.ID, 5),
		line("stock-fantasma", 3),
	), stock.Meta{})
	require.NoError(t, err)

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, 2, res.Skipped[0].Index)
	assert.Equal(t, entity.LineAvailable, res.Order.Lines[0].StockState)
	assert.Equal(t, entity.LinePending, res.Order.Lines[1].StockState)
	assert.Equal(t, entity.LinePending, res.Order.Lines[2].StockState)

	assert.True(t, e.get(t, a.ID).Reserved.Equal(dec(20)))
	assert.True(t, e.get(t, b.ID).Pending.Equal(dec(5)))
}

func TestOrderUseCase_CreateAgregaLineasDelMismoStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)

	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder, line(a.ID, 10), line(a.ID, 5)), stock.Meta{})
	require.NoError(t, err)

	got := e.get(t, a.ID)
	require.Equal(t, 1, got.Queue.Len())
	assert.True(t, got.Queue.Get(res.Order.ID).Quantity.Equal(dec(15)))
}

func TestOrderUseCase_PresupuestoNoAsigna(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)

	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeQuote, line(a.ID, 10)), stock.Meta{})
	require.NoError(t, err)

	assert.Equal(t, 0, e.get(t, a.ID).Queue.Len())
	assert.Equal(t, entity.LinePending, res.Order.Lines[0].StockState)
}

func TestOrderUseCase_CreateValidaEntrada(t *testing.T) {
	e := newEnv(t)
	_, err := e.orders.Create(context.Background(), orderInput("factura", line("x", 1)), stock.Meta{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.orders.Create(context.Background(), orderInput(entity.OrderTypeOrder, line("x", 0)), stock.Meta{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOrderUseCase_EntregadoSoloPorDeliver(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)

	in := orderInput(entity.OrderTypeOrder, line(a.ID, 10))
	in.Status = entity.OrderDelivered
	_, err := e.orders.Create(ctx, in, stock.Meta{})
	assert.ErrorIs(t, err, domain.ErrConflict)
	list, err := e.orders.List(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "no se guarda el pedido")
	assert.Equal(t, 0, e.get(t, a.ID).Queue.Len())

	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder, line(a.ID, 10)), stock.Meta{})
	require.NoError(t, err)
	before := e.get(t, a.ID)
	movs, _ := e.store.Movements().Find(ctx, repository.MovementFilter{StockID: a.ID})

	in = orderInput(entity.OrderTypeOrder, line(a.ID, 10))
	in.Status = entity.OrderDelivered
	_, err = e.orders.Update(ctx, res.Order.ID, in, stock.Meta{})
	assert.ErrorIs(t, err, domain.ErrConflict)

	after := e.get(t, a.ID)
	assert.True(t, before.Snapshot().Equal(after.Snapshot()), "el ledger no cambia")
	assert.True(t, after.Total.Equal(dec(100)))
	movs2, _ := e.store.Movements().Find(ctx, repository.MovementFilter{StockID: a.ID})
	assert.Len(t, movs2, len(movs))
	o, err := e.orders.Get(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderPending, o.Status)
	assert.Equal(t, entity.LineAvailable, o.Lines[0].StockState)
}

func TestOrderUseCase_CreateConFalloDeAsignacionDevuelvePedidoParcial(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)

	e.store.FailMovementsWith(errors.New("disco lleno"))
	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder, line(a.ID, 10)), stock.Meta{})
	e.store.FailMovementsWith(nil)

	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, -1, res.Skipped[0].Index)
	assert.Equal(t, a.ID, res.Skipped[0].StockID)
	assert.Contains(t, res.Skipped[0].Reason, "disco lleno")
	assert.Equal(t, entity.LinePending, res.Order.Lines[0].StockState)

	o, err := e.store.Orders().GetByID(ctx, res.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, o, "el pedido queda guardado")
	got := e.get(t, a.ID)
	assert.True(t, got.Reserved.IsZero())
	assert.Equal(t, 0, got.Queue.Len())

	// Reconcile completa la asignación que quedó afuera.
	res, err = e.orders.Reconcile(ctx, res.Order.ID, stock.Meta{})
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	assert.True(t, e.get(t, a.ID).Reserved.Equal(dec(10)))
}

func TestOrderUseCase_List(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	create := func(typ entity.OrderType, day int) string {
		in := orderInput(typ, line(a.ID, 1))
		d := base.AddDate(0, 0, day)
		in.OrderDate = &d
		res, err := e.orders.Create(ctx, in, stock.Meta{})
		require.NoError(t, err)
		return res.Order.ID
	}
	viejo := create(entity.OrderTypeOrder, 0)
	medio := create(entity.OrderTypeQuote, 1)
	nuevo := create(entity.OrderTypeOrder, 2)

	list, err := e.orders.List(ctx, repository.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{nuevo, medio, viejo}, []string{list[0].ID, list[1].ID, list[2].ID})
	require.Len(t, list[0].Lines, 1)
	assert.Equal(t, entity.LineAvailable, list[0].Lines[0].StockState)

	list, err = e.orders.List(ctx, repository.OrderFilter{Type: entity.OrderTypeQuote})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, medio, list[0].ID)

	list, err = e.orders.List(ctx, repository.OrderFilter{Type: entity.OrderTypeOrder, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, viejo, list[0].ID)

	list, err = e.orders.List(ctx, repository.OrderFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = e.orders.List(ctx, repository.OrderFilter{Status: "perdido"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOrderUseCase_UpdateAplicaSoloElDiff(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)
	b := e.newStock(t, "b", 1, 100)
	c := e.newStock(t, "c", 1, 100)

	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder, line(a.ID, 10), line(b.ID, 10)), stock.Meta{})
	require.NoError(t, err)
	id := res.Order.ID
	movsA, _ := e.store.Movements().Find(ctx, repository.MovementFilter{StockID: a.ID})

	// a sin cambios, b cambia, c se agrega
	res, err = e.orders.Update(ctx, id, orderInput(entity.OrderTypeOrder, line(a.ID, 10), line(b.ID, 4), line(c.ID, 7)), stock.Meta{})
	require.NoError(t, err)

	movsA2, _ := e.store.Movements().Find(ctx, repository.MovementFilter{StockID: a.ID})
	assert.Len(t, movsA2, len(movsA), "el stock sin cambios no se toca")
	assert.True(t, e.get(t, b.ID).Reserved.Equal(dec(4)))
	assert.True(t, e.get(t, c.ID).Reserved.Equal(dec(7)))
	for _, l := range res.Order.Lines {
		assert.Equal(t, entity.LineAvailable, l.StockState, "línea %s", l.StockID)
	}

	// se quita b
	_, err = e.orders.Update(ctx, id, orderInput(entity.OrderTypeOrder, line(a.ID, 10), line(c.ID, 7)), stock.Meta{})
	require.NoError(t, err)
	assert.Equal(t, 0, e.get(t, b.ID).Queue.Len())
	assert.True(t, e.get(t, b.ID).Reserved.IsZero())
}

func TestOrderUseCase_ConversionPresupuestoPedido(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)

	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeQuote, line(a.ID, 10)), stock.Meta{})
	require.NoError(t, err)
	id := res.Order.ID

	res, err = e.orders.Update(ctx, id, orderInput(entity.OrderTypeOrder, line(a.ID, 10)), stock.Meta{})
	require.NoError(t, err)
	assert.Equal(t, entity.LineAvailable, res.Order.Lines[0].StockState)
	assert.True(t, e.get(t, a.ID).Reserved.Equal(dec(10)))

	_, err = e.orders.Update(ctx, id, orderInput(entity.OrderTypeQuote, line(a.ID, 10)), stock.Meta{})
	require.NoError(t, err)
	assert.True(t, e.get(t, a.ID).Reserved.IsZero())
	assert.Equal(t, 0, e.get(t, a.ID).Queue.Len())
}

func TestOrderUseCase_DeleteLiberaYPromueve(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 10)

	first, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder, line(a.ID, 10)), stock.Meta{})
	require.NoError(t, err)
	second, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder, line(a.ID, 6)), stock.Meta{})
	require.NoError(t, err)
	require.Equal(t, entity.LinePending, second.Order.Lines[0].StockState)

	require.NoError(t, e.orders.Delete(ctx, first.Order.ID, stock.Meta{}))

	o, err := e.store.Orders().GetByID(ctx, first.Order.ID)
	require.NoError(t, err)
	assert.Nil(t, o)
	o, err = e.store.Orders().GetByID(ctx, second.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.LineAvailable, o.Lines[0].StockState)
	assert.True(t, e.get(t, a.ID).Reserved.Equal(dec(6)))

	assert.ErrorIs(t, e.orders.Delete(ctx, "no-existe", stock.Meta{}), domain.ErrNotFound)
}

func TestOrderUseCase_DeleteSinAsignacionesNoFalla(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)

	quote, err := e.orders.Create(ctx, orderInput(entity.OrderTypeQuote, line(a.ID, 10)), stock.Meta{})
	require.NoError(t, err)
	require.NoError(t, e.orders.Delete(ctx, quote.Order.ID, stock.Meta{}), "un presupuesto no tiene nada que liberar")

	movs, err := e.store.Movements().Find(ctx, repository.MovementFilter{StockID: a.ID, Type: entity.MovementRelease})
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestOrderUseCase_DeliverSoloDesdeEstadosPermitidos(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)

	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder, line(a.ID, 30)), stock.Meta{})
	require.NoError(t, err)
	id := res.Order.ID

	_, err = e.orders.Deliver(ctx, id, stock.Meta{})
	assert.ErrorIs(t, err, domain.ErrConflict, "pendiente no es entregable")

	in := orderInput(entity.OrderTypeOrder, line(a.ID, 30))
	in.Status = entity.OrderPickup
	_, err = e.orders.Update(ctx, id, in, stock.Meta{})
	require.NoError(t, err)

	o, err := e.orders.Deliver(ctx, id, stock.Meta{})
	require.NoError(t, err)
	assert.Equal(t, entity.OrderDelivered, o.Status)
	assert.Equal(t, entity.LineDelivered, o.Lines[0].StockState)

	got := e.get(t, a.ID)
	assert.True(t, got.Total.Equal(dec(70)))
	assert.True(t, got.Reserved.IsZero())

	movs, err := e.store.Movements().Find(ctx, repository.MovementFilter{OrderID: id, Type: entity.MovementDelivery})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Quantity.Equal(dec(-30)))
}

func TestOrderUseCase_DeliverLineaPendienteRechazadaSinEfectos(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)
	b := e.newStock(t, "b", 1, 5)

	in := orderInput(entity.OrderTypeOrder, line(a.ID, 10), line(b.ID, 8))
	in.Status = entity.OrderShip
	res, err := e.orders.Create(ctx, in, stock.Meta{})
	require.NoError(t, err)

	_, err = e.orders.Deliver(ctx, res.Order.ID, stock.Meta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotReserved)

	assert.True(t, e.get(t, a.ID).Total.Equal(dec(100)), "la entrega es todo o nada")
	o, _ := e.store.Orders().GetByID(ctx, res.Order.ID)
	assert.Equal(t, entity.OrderShip, o.Status)
}

func TestOrderUseCase_MarkRemitted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)
	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder, line(a.ID, 1)), stock.Meta{})
	require.NoError(t, err)

	o, err := e.orders.MarkRemitted(ctx, res.Order.ID, "https://files/remito-1.pdf")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderRemitted, o.Status)
	require.Len(t, o.Remitos, 1)
	assert.Equal(t, "https://files/remito-1.pdf", o.Remitos[0].URL)

	_, err = e.orders.MarkRemitted(ctx, res.Order.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOrderUseCase_ReconcileAsignaLineasOmitidas(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)

	// la línea apunta por modelo a un stock que todavía no existe
	e.store.PutModel(&entity.ProductModel{ID: "model-nuevo", Product: "Mármol", Model: "Nuevo", UnitsPerCommercialUnit: dec(1)})
	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder,
		line(a.ID, 5),
		entity.OrderLine{ModelID: "model-nuevo", Quantity: dec(4)},
	), stock.Meta{})
	require.NoError(t, err)
	require.Len(t, res.Skipped, 1)

	nuevo, err := e.stocks.CreateForModel(ctx, "model-nuevo", "placas")
	require.NoError(t, err)
	_, err = e.alloc.RecordProduction(ctx, nuevo.ID, dec(10), stock.Meta{})
	require.NoError(t, err)

	res, err = e.orders.Reconcile(ctx, res.Order.ID, stock.Meta{})
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, nuevo.ID, res.Order.Lines[1].StockID)
	assert.Equal(t, entity.LineAvailable, res.Order.Lines[1].StockState)
	assert.True(t, e.get(t, nuevo.ID).Reserved.Equal(dec(4)))
	assert.True(t, e.get(t, a.ID).Reserved.Equal(dec(5)), "lo ya asignado no cambia")
}

func TestStockUseCase_CreateForModel(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 0)
	assert.False(t, a.Active)
	assert.True(t, a.Total.IsZero())

	_, err := e.stocks.CreateForModel(ctx, "model-a", "placas")
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = e.stocks.CreateForModel(ctx, "model-x", "placas")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := e.stocks.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStockUseCase_DeleteSoloSinAsignaciones(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.newStock(t, "a", 1, 100)
	libre := e.newStock(t, "libre", 1, 0)

	res, err := e.orders.Create(ctx, orderInput(entity.OrderTypeOrder, line(a.ID, 10)), stock.Meta{})
	require.NoError(t, err)

	err = e.stocks.Delete(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 1, e.get(t, a.ID).Queue.Len(), "el stock sigue con su asignación")

	require.NoError(t, e.orders.Delete(ctx, res.Order.ID, stock.Meta{}))
	require.NoError(t, e.stocks.Delete(ctx, a.ID))
	_, err = e.stocks.Get(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, e.stocks.Delete(ctx, libre.ID))
	assert.ErrorIs(t, e.stocks.Delete(ctx, libre.ID), domain.ErrNotFound)

	// El modelo queda libre para un stock nuevo.
	_, err = e.stocks.CreateForModel(ctx, "model-libre", "placas")
	assert.NoError(t, err)
}
