package stock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/allocation"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

// OrderInput datos de alta o edición de un pedido.
type OrderInput struct {
	Remito            string
	Type              entity.OrderType
	VendorID          string
	Client            entity.Client
	Comment           string
	Lines             []entity.OrderLine
	Status            entity.OrderStatus // vacío = pendiente en alta, sin cambio en edición
	PaymentMethod     string
	Origin            string
	OrderDate         *time.Time
	EstimatedDelivery *time.Time
	Total             decimal.Decimal
}

// SkippedLine línea que no pudo asignarse (stock o modelo inexistente).
type SkippedLine struct {
	Index   int
	StockID string
	ModelID string
	Reason  string
}

// OrderResult pedido tal como quedó persistido más las líneas omitidas.
type OrderResult struct {
	Order   *entity.Order
	Skipped []SkippedLine
}

// OrderUseCase ciclo de vida de pedidos sobre el motor de asignación.
type OrderUseCase struct {
	alloc       *AllocationService
	stocks      repository.StockRepository
	orders      repository.OrderRepository
	models      repository.ModelCatalog
	txRunner    TxRunner
	parallelism int
	log         zerolog.Logger
}

// NewOrderUseCase construye el caso de uso. parallelism acota los stocks procesados en paralelo por pedido.
func NewOrderUseCase(
	alloc *AllocationService,
	txRunner TxRunner,
	stocks repository.StockRepository,
	orders repository.OrderRepository,
	models repository.ModelCatalog,
	parallelism int,
	log zerolog.Logger,
) *OrderUseCase {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &OrderUseCase{
		alloc:       alloc,
		txRunner:    txRunner,
		stocks:      stocks,
		orders:      orders,
		models:      models,
		parallelism: parallelism,
		log:         log,
	}
}

func validateInput(in OrderInput) error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: tipo de pedido %q", domain.ErrInvalidInput, in.Type)
	}
	if in.Status != "" && !in.Status.Valid() {
		return fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, in.Status)
	}
	// Entregar descuenta stock: sólo Deliver puede dejar un pedido en entregado.
	if in.Status == entity.OrderDelivered {
		return fmt.Errorf("%w: la entrega se registra con Deliver", domain.ErrConflict)
	}
	if len(in.Lines) == 0 {
		return fmt.Errorf("%w: el pedido no tiene líneas", domain.ErrInvalidInput)
	}
	for i, l := range in.Lines {
		if !l.Quantity.IsPositive() {
			return fmt.Errorf("%w: línea %d con cantidad %s", domain.ErrInvalidInput, i, l.Quantity)
		}
		if l.StockID == "" && l.ModelID == "" {
			return fmt.Errorf("%w: línea %d sin stock ni modelo", domain.ErrInvalidInput, i)
		}
	}
	return nil
}

// resolveLines completa StockID/ModelID de cada línea y calcula la demanda agregada por stock.
// Las líneas con stock o modelo inexistente se omiten y se reportan.
func (uc *OrderUseCase) resolveLines(ctx context.Context, lines []entity.OrderLine) (map[string]decimal.Decimal, []SkippedLine, error) {
	demands := make(map[string]decimal.Decimal)
	var skipped []SkippedLine
	for i := range lines {
		l := &lines[i]
		var (
			st  *entity.StockItem
			err error
		)
		if l.StockID != "" {
			st, err = uc.stocks.Get(ctx, l.StockID)
		} else {
			st, err = uc.stocks.GetByModel(ctx, l.ModelID)
		}
		if err != nil {
			return nil, nil, err
		}
		if st == nil {
			skipped = append(skipped, SkippedLine{Index: i, StockID: l.StockID, ModelID: l.ModelID, Reason: "stock inexistente"})
			continue
		}
		l.StockID = st.ID
		if l.ModelID == "" {
			l.ModelID = st.ModelID
		}
		model, err := uc.models.GetByID(ctx, l.ModelID)
		if err != nil {
			return nil, nil, err
		}
		if model == nil {
			skipped = append(skipped, SkippedLine{Index: i, StockID: l.StockID, ModelID: l.ModelID, Reason: "modelo inexistente"})
			continue
		}
		qty, err := allocation.ToStockUnits(l.Quantity, model.UnitsPerCommercialUnit)
		if err != nil {
			skipped = append(skipped, SkippedLine{Index: i, StockID: l.StockID, ModelID: l.ModelID, Reason: err.Error()})
			continue
		}
		demands[st.ID] = demands[st.ID].Add(qty)
	}
	for _, s := range skipped {
		uc.log.Warn().Int("line", s.Index).Str("stock_id", s.StockID).Str("model_id", s.ModelID).Str("reason", s.Reason).Msg("línea omitida en la asignación")
	}
	return demands, skipped, nil
}

// currentAllocations lee lo efectivamente asignado al pedido en cada stock indicado.
func (uc *OrderUseCase) currentAllocations(ctx context.Context, orderID string, stockIDs map[string]struct{}) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for id := range stockIDs {
		st, err := uc.stocks.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if st == nil {
			continue
		}
		if a := st.Queue.Get(orderID); a != nil {
			out[id] = a.Quantity
		}
	}
	return out, nil
}

func lineStocks(lines ...[]entity.OrderLine) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, ls := range lines {
		for _, l := range ls {
			if l.StockID != "" {
				ids[l.StockID] = struct{}{}
			}
		}
	}
	return ids
}

// applyDiff aplica el diff de demanda en paralelo (un stock por goroutine, acotado por parallelism).
// Un stock que desapareció se reporta como línea omitida. Un stock que falló por otro motivo también
// queda en las omitidas y el error se devuelve.
func (uc *OrderUseCase) applyDiff(ctx context.Context, orderID string, diff allocation.DemandDiff, meta Meta) ([]SkippedLine, error) {
	var (
		mu      sync.Mutex
		skipped []SkippedLine
	)
	skip := func(stockID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		skipped = append(skipped, SkippedLine{Index: -1, StockID: stockID, Reason: err.Error()})
		uc.log.Warn().Str("order_id", orderID).Str("stock_id", stockID).Err(err).Msg("stock omitido en la asignación")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.parallelism)
	settle := func(stockID string, err error) error {
		if err == nil {
			return nil
		}
		skip(stockID, err)
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	for _, id := range diff.Removed {
		g.Go(func() error {
			err := uc.alloc.Release(gctx, id, orderID, meta)
			if isMissingAllocation(err) {
				// Nada que liberar en ese stock.
				return nil
			}
			return settle(id, err)
		})
	}
	for _, dm := range diff.Changed {
		g.Go(func() error {
			_, err := uc.alloc.ChangeQuantity(gctx, dm.StockID, orderID, dm.Quantity, meta)
			if isMissingAllocation(err) {
				_, err = uc.alloc.Allocate(gctx, dm.StockID, orderID, dm.Quantity, meta)
			}
			return settle(dm.StockID, err)
		})
	}
	for _, dm := range diff.Added {
		g.Go(func() error {
			_, err := uc.alloc.Allocate(gctx, dm.StockID, orderID, dm.Quantity, meta)
			return settle(dm.StockID, err)
		})
	}
	if err := g.Wait(); err != nil {
		return skipped, err
	}
	return skipped, nil
}

// isMissingAllocation distingue "no hay asignación" de "no hay stock" en un ChangeQuantity fallido.
func isMissingAllocation(err error) bool {
	return errors.Is(err, domain.ErrAllocationNotFound)
}

// partial devuelve el pedido ya persistido cuando la asignación quedó a medias. Los stocks que
// fallaron van en Skipped y Reconcile los completa después.
func (uc *OrderUseCase) partial(ctx context.Context, id string, skipped []SkippedLine, err error) (*OrderResult, error) {
	uc.log.Error().Err(err).Str("order_id", id).Int("skipped", len(skipped)).Msg("asignación incompleta; el pedido quedó guardado")
	return uc.reload(context.WithoutCancel(ctx), id, skipped)
}

func (uc *OrderUseCase) reload(ctx context.Context, id string, skipped []SkippedLine) (*OrderResult, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return &OrderResult{Order: o, Skipped: skipped}, nil
}

// Get devuelve el pedido con el estado de stock proyectado en cada línea.
func (uc *OrderUseCase) Get(ctx context.Context, id string) (*entity.Order, error) {
	res, err := uc.reload(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return res.Order, nil
}

// Create persiste el pedido con todas sus líneas en pendiente y, si es un pedido (no presupuesto),
// asigna la demanda de cada stock. Las líneas omitidas no abortan el alta.
func (uc *OrderUseCase) Create(ctx context.Context, in OrderInput, meta Meta) (*OrderResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	o := &entity.Order{
		ID:                uuid.New().String(),
		Remito:            in.Remito,
		Type:              in.Type,
		VendorID:          in.VendorID,
		Client:            in.Client,
		Comment:           in.Comment,
		Lines:             append([]entity.OrderLine(nil), in.Lines...),
		Status:            entity.OrderPending,
		PaymentMethod:     in.PaymentMethod,
		Origin:            in.Origin,
		OrderDate:         now,
		EstimatedDelivery: in.EstimatedDelivery,
		Total:             in.Total,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.Status != "" {
		o.Status = in.Status
	}
	if in.OrderDate != nil {
		o.OrderDate = *in.OrderDate
	}
	for i := range o.Lines {
		o.Lines[i].StockState = entity.LinePending
	}

	demands, skipped, err := uc.resolveLines(ctx, o.Lines)
	if err != nil {
		return nil, err
	}
	if err := uc.orders.Create(ctx, o); err != nil {
		return nil, err
	}
	if o.Type == entity.OrderTypeOrder {
		more, err := uc.applyDiff(ctx, o.ID, allocation.DiffDemands(nil, demands), meta)
		skipped = append(skipped, more...)
		if err != nil {
			return uc.partial(ctx, o.ID, skipped, err)
		}
	}
	uc.log.Info().Str("order_id", o.ID).Str("type", string(o.Type)).Int("lines", len(o.Lines)).Int("skipped", len(skipped)).Msg("pedido creado")
	return uc.reload(ctx, o.ID, skipped)
}

// Update reemplaza los datos del pedido y aplica sólo el diff de demanda por stock:
// agregados -> Allocate, quitados -> Release, cambiados -> ChangeQuantity; lo demás no se toca.
// Pasar a presupuesto libera todo; pasar a pedido asigna todo.
func (uc *OrderUseCase) Update(ctx context.Context, id string, in OrderInput, meta Meta) (*OrderResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if o.Status == entity.OrderDelivered {
		return nil, fmt.Errorf("%w: el pedido ya fue entregado", domain.ErrConflict)
	}

	lines := append([]entity.OrderLine(nil), in.Lines...)
	desired, skipped, err := uc.resolveLines(ctx, lines)
	if err != nil {
		return nil, err
	}
	if in.Type != entity.OrderTypeOrder {
		desired = map[string]decimal.Decimal{}
	}
	current, err := uc.currentAllocations(ctx, id, lineStocks(o.Lines, lines))
	if err != nil {
		return nil, err
	}
	diff := allocation.DiffDemands(current, desired)

	// Las líneas sin cambio de demanda conservan su estado proyectado.
	prev := make(map[string]entity.LineStockState)
	for _, l := range o.Lines {
		prev[l.StockID] = l.StockState
	}
	unchanged := make(map[string]bool, len(diff.Unchanged))
	for _, sid := range diff.Unchanged {
		unchanged[sid] = true
	}
	for i := range lines {
		lines[i].StockState = entity.LinePending
		if st, ok := prev[lines[i].StockID]; ok && unchanged[lines[i].StockID] {
			lines[i].StockState = st
		}
	}

	o.Remito = in.Remito
	o.Type = in.Type
	o.VendorID = in.VendorID
	o.Client = in.Client
	o.Comment = in.Comment
	o.Lines = lines
	o.PaymentMethod = in.PaymentMethod
	o.Origin = in.Origin
	o.EstimatedDelivery = in.EstimatedDelivery
	o.Total = in.Total
	if in.Status != "" {
		o.Status = in.Status
	}
	if in.OrderDate != nil {
		o.OrderDate = *in.OrderDate
	}
	o.UpdatedAt = time.Now().UTC()
	if err := uc.orders.Update(ctx, o); err != nil {
		return nil, err
	}

	more, err := uc.applyDiff(ctx, id, diff, meta)
	skipped = append(skipped, more...)
	if err != nil {
		return uc.partial(ctx, id, skipped, err)
	}
	uc.log.Info().Str("order_id", id).
		Int("added", len(diff.Added)).Int("removed", len(diff.Removed)).Int("changed", len(diff.Changed)).
		Msg("pedido actualizado")
	return uc.reload(ctx, id, skipped)
}

// List lista los pedidos del más reciente al más antiguo. Limit se acota a [1, 500] con 50 por defecto.
func (uc *OrderUseCase) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, fmt.Errorf("%w: tipo de pedido %q", domain.ErrInvalidInput, f.Type)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return uc.orders.List(ctx, f)
}

// Delete libera todas las asignaciones del pedido y lo elimina.
func (uc *OrderUseCase) Delete(ctx context.Context, id string, meta Meta) error {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if o == nil {
		return domain.ErrNotFound
	}
	removed := make([]string, 0)
	for sid := range lineStocks(o.Lines) {
		removed = append(removed, sid)
	}
	if _, err := uc.applyDiff(ctx, id, allocation.DemandDiff{Removed: removed}, meta); err != nil {
		return err
	}
	if err := uc.orders.Delete(ctx, id); err != nil {
		return err
	}
	uc.log.Info().Str("order_id", id).Msg("pedido eliminado")
	return nil
}

// Deliver entrega el pedido completo: sólo desde retira, enviar o instalación y con todas las
// asignaciones reservadas. Stock, movimientos, líneas y estado del pedido cambian en una transacción.
func (uc *OrderUseCase) Deliver(ctx context.Context, id string, meta Meta) (*entity.Order, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if o.Type != entity.OrderTypeOrder {
		return nil, fmt.Errorf("%w: un presupuesto no se entrega", domain.ErrConflict)
	}
	if !o.Status.Deliverable() {
		return nil, fmt.Errorf("%w: no se puede entregar desde el estado %q", domain.ErrConflict, o.Status)
	}
	ids := make([]string, 0)
	for sid := range lineStocks(o.Lines) {
		ids = append(ids, sid)
	}
	err = uc.alloc.DeliverAll(ctx, id, ids, meta, func(orderRepo repository.OrderRepository) error {
		return orderRepo.SetStatus(ctx, id, entity.OrderDelivered)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", id).Int("stocks", len(ids)).Msg("pedido entregado")
	res, err := uc.reload(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return res.Order, nil
}

// MarkRemitted agrega la referencia del remito y pasa el pedido a remitado.
func (uc *OrderUseCase) MarkRemitted(ctx context.Context, id, url string) (*entity.Order, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: url de remito vacía", domain.ErrInvalidInput)
	}
	err := uc.txRunner.Run(ctx, func(
		_ repository.StockRepository,
		_ repository.StockMovementRepository,
		orderRepo repository.OrderRepository,
	) error {
		o, err := orderRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return domain.ErrNotFound
		}
		if o.Status == entity.OrderDelivered {
			return fmt.Errorf("%w: el pedido ya fue entregado", domain.ErrConflict)
		}
		if err := orderRepo.AddRemito(ctx, id, entity.RemitoDoc{URL: url, CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		return orderRepo.SetStatus(ctx, id, entity.OrderRemitted)
	})
	if err != nil {
		return nil, err
	}
	res, err := uc.reload(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return res.Order, nil
}

// Reconcile vuelve a calcular la demanda del pedido y corrige el ledger: asigna las líneas que
// quedaron sin asignación, ajusta cantidades divergentes y libera lo que sobra.
func (uc *OrderUseCase) Reconcile(ctx context.Context, id string, meta Meta) (*OrderResult, error) {
	o, err := uc.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	if o.Status == entity.OrderDelivered {
		return uc.reload(ctx, id, nil)
	}
	lines := append([]entity.OrderLine(nil), o.Lines...)
	desired, skipped, err := uc.resolveLines(ctx, lines)
	if err != nil {
		return nil, err
	}
	if o.Type != entity.OrderTypeOrder {
		desired = map[string]decimal.Decimal{}
	}
	current, err := uc.currentAllocations(ctx, id, lineStocks(o.Lines, lines))
	if err != nil {
		return nil, err
	}
	// Líneas cargadas por modelo cuyo stock ya existe: se persiste el stock resuelto
	// para que la proyección las encuentre.
	resolved := false
	for i := range lines {
		if lines[i].StockID != o.Lines[i].StockID {
			resolved = true
		}
	}
	if resolved {
		o.Lines = lines
		o.UpdatedAt = time.Now().UTC()
		if err := uc.orders.Update(ctx, o); err != nil {
			return nil, err
		}
	}
	diff := allocation.DiffDemands(current, desired)
	if diff.Empty() {
		return uc.reload(ctx, id, skipped)
	}
	more, err := uc.applyDiff(ctx, id, diff, meta)
	skipped = append(skipped, more...)
	if err != nil {
		return uc.partial(ctx, id, skipped, err)
	}
	uc.log.Info().Str("order_id", id).
		Int("added", len(diff.Added)).Int("removed", len(diff.Removed)).Int("changed", len(diff.Changed)).
		Msg("pedido reconciliado")
	return uc.reload(ctx, id, skipped)
}
