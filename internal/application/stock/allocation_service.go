package stock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/allocation"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

// AllocationService fachada transaccional del motor de asignación. Cada operación:
// bloquea el stock (GetForUpdate), aplica el motor, persiste el ledger, registra los movimientos
// y proyecta el estado sobre los pedidos, todo en una transacción. Si algo falla, Rollback.
type AllocationService struct {
	txRunner  TxRunner
	recorder  *MovementRecorder
	projector *OrderProjector
	log       zerolog.Logger
}

// NewAllocationService construye el servicio.
func NewAllocationService(txRunner TxRunner, recorder *MovementRecorder, projector *OrderProjector, log zerolog.Logger) *AllocationService {
	return &AllocationService{txRunner: txRunner, recorder: recorder, projector: projector, log: log}
}

// engineOp operación del motor sobre un stock ya bloqueado.
type engineOp func(st *entity.StockItem) ([]entity.StockChange, error)

type txRepos struct {
	stocks    repository.StockRepository
	movements repository.StockMovementRepository
	orders    repository.OrderRepository
}

// applyLocked bloquea el stock, ejecuta op y persiste ledger, movimientos y proyección con los repos de la tx.
func (s *AllocationService) applyLocked(ctx context.Context, r txRepos, stockID string, meta *Meta, op engineOp) (*entity.StockItem, []entity.StockChange, error) {
	st, err := r.stocks.GetForUpdate(ctx, stockID)
	if err != nil {
		return nil, nil, err
	}
	if st == nil {
		return nil, nil, domain.ErrNotFound
	}
	changes, err := op(st)
	if err != nil {
		return nil, nil, err
	}
	st.UpdatedAt = time.Now().UTC()
	if err := r.stocks.Update(ctx, st); err != nil {
		return nil, nil, err
	}
	if len(changes) == 0 {
		return st, nil, nil
	}
	if _, err := s.recorder.Record(ctx, r.movements, r.orders, st, changes, *meta); err != nil {
		return nil, nil, err
	}
	if err := s.projector.Project(ctx, r.orders, st.ID, changes); err != nil {
		return nil, nil, err
	}
	return st, changes, nil
}

// mutate ejecuta una operación sobre un único stock en su propia transacción.
func (s *AllocationService) mutate(ctx context.Context, opName, stockID, orderID string, qty decimal.Decimal, meta *Meta, op engineOp) (*entity.StockItem, error) {
	var (
		result  *entity.StockItem
		changes []entity.StockChange
	)
	err := s.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		orderRepo repository.OrderRepository,
	) error {
		var err error
		result, changes, err = s.applyLocked(ctx, txRepos{stocks: stockRepo, movements: movRepo, orders: orderRepo}, stockID, meta, op)
		return err
	})
	if err != nil {
		return nil, s.fail(opName, stockID, orderID, qty, err)
	}
	s.logPromotions(stockID, changes)
	return result, nil
}

func (s *AllocationService) fail(opName, stockID, orderID string, qty decimal.Decimal, err error) error {
	s.log.Error().Err(err).
		Str("op", opName).
		Str("stock_id", stockID).
		Str("order_id", orderID).
		Str("quantity", qty.String()).
		Msg("operación de stock fallida")
	return &domain.AllocationError{Op: opName, StockID: stockID, OrderID: orderID, Quantity: qty, Err: err}
}

func (s *AllocationService) logPromotions(stockID string, changes []entity.StockChange) {
	for _, ch := range changes {
		if ev, ok := ch.Event.(entity.ReservationEvent); ok && ev.Cause == entity.CausePromotion {
			s.log.Info().
				Str("stock_id", stockID).
				Str("order_id", ev.OrderID).
				Str("quantity", ev.Quantity.String()).
				Msg("pendiente promovida a reservada")
		}
	}
}

// Allocate registra la demanda de un pedido sobre un stock y devuelve el estado resultante.
func (s *AllocationService) Allocate(ctx context.Context, stockID, orderID string, qty decimal.Decimal, meta Meta) (entity.AllocationState, error) {
	var state entity.AllocationState
	_, err := s.mutate(ctx, "allocate", stockID, orderID, qty, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
		var (
			changes []entity.StockChange
			err     error
		)
		state, changes, err = allocation.Allocate(st, orderID, qty)
		return changes, err
	})
	return state, err
}

// ChangeQuantity edita la cantidad de una asignación existente conservando su lugar en la cola.
func (s *AllocationService) ChangeQuantity(ctx context.Context, stockID, orderID string, qty decimal.Decimal, meta Meta) (entity.AllocationState, error) {
	var state entity.AllocationState
	_, err := s.mutate(ctx, "change_quantity", stockID, orderID, qty, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
		var (
			changes []entity.StockChange
			err     error
		)
		state, changes, err = allocation.ChangeQuantity(st, orderID, qty)
		return changes, err
	})
	return state, err
}

// Release libera la asignación del pedido sobre el stock. Sin asignación devuelve ErrAllocationNotFound.
func (s *AllocationService) Release(ctx context.Context, stockID, orderID string, meta Meta) error {
	_, err := s.mutate(ctx, "release", stockID, orderID, decimal.Zero, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
		if st.Queue.Get(orderID) == nil {
			return nil, fmt.Errorf("%w: pedido %s", domain.ErrAllocationNotFound, orderID)
		}
		return allocation.Release(st, orderID)
	})
	return err
}

// Deliver descuenta la entrega de una asignación reservada.
func (s *AllocationService) Deliver(ctx context.Context, stockID, orderID string, qty decimal.Decimal, meta Meta) error {
	_, err := s.mutate(ctx, "deliver", stockID, orderID, qty, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
		return allocation.Deliver(st, orderID, qty)
	})
	return err
}

// DeliverAll entrega, en una sola transacción, la asignación completa del pedido en cada stock.
// Los stocks se bloquean en orden de ID. Si alguna asignación no está reservada no se entrega nada.
func (s *AllocationService) DeliverAll(ctx context.Context, orderID string, stockIDs []string, meta Meta, after func(orderRepo repository.OrderRepository) error) error {
	ids := append([]string(nil), stockIDs...)
	sort.Strings(ids)
	var failedStock string
	err := s.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		orderRepo repository.OrderRepository,
	) error {
		r := txRepos{stocks: stockRepo, movements: movRepo, orders: orderRepo}
		for _, id := range ids {
			_, _, err := s.applyLocked(ctx, r, id, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
				a := st.Queue.Get(orderID)
				if a == nil {
					return nil, domain.ErrNotReserved
				}
				return allocation.Deliver(st, orderID, a.Quantity)
			})
			if err != nil {
				failedStock = id
				return err
			}
		}
		if after != nil {
			return after(orderRepo)
		}
		return nil
	})
	if err != nil {
		return s.fail("deliver_order", failedStock, orderID, decimal.Zero, err)
	}
	return nil
}

// RecordProduction ingresa producción al stock y promueve pendientes.
func (s *AllocationService) RecordProduction(ctx context.Context, stockID string, qty decimal.Decimal, meta Meta) (*entity.StockItem, error) {
	return s.mutate(ctx, "record_production", stockID, "", qty, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
		return allocation.RecordProduction(st, qty)
	})
}

// Adjust corrige el total del stock (ajuste manual, positivo o negativo).
func (s *AllocationService) Adjust(ctx context.Context, stockID string, delta decimal.Decimal, meta Meta) (*entity.StockItem, error) {
	return s.mutate(ctx, "adjust", stockID, "", delta, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
		return allocation.Adjust(st, delta, meta.Reason)
	})
}

// SetTotal edición absoluta del total: un aumento se registra como producción y una baja como ajuste.
func (s *AllocationService) SetTotal(ctx context.Context, stockID string, total decimal.Decimal, meta Meta) (*entity.StockItem, error) {
	if total.IsNegative() {
		return nil, s.fail("set_total", stockID, "", total, domain.ErrInvalidInput)
	}
	return s.mutate(ctx, "set_total", stockID, "", total, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
		diff := total.Sub(st.Total)
		switch {
		case diff.IsPositive():
			if meta.Reason == "" {
				meta.Reason = "Incremento de stock manual"
			}
			return allocation.RecordProduction(st, diff)
		case diff.IsNegative():
			reason := meta.Reason
			if reason == "" {
				reason = "Decremento de stock manual"
			}
			return allocation.Adjust(st, diff, reason)
		}
		return nil, nil
	})
}

// SetActive activa o desactiva el stock. Activar dispara la reevaluación de pendientes.
func (s *AllocationService) SetActive(ctx context.Context, stockID string, active bool, meta Meta) (*entity.StockItem, error) {
	return s.mutate(ctx, "set_active", stockID, "", decimal.Zero, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
		st.Active = active
		if !active {
			return nil, nil
		}
		return allocation.ReevaluatePending(st)
	})
}

// Reevaluate fuerza la reevaluación de pendientes de un stock.
func (s *AllocationService) Reevaluate(ctx context.Context, stockID string, meta Meta) (*entity.StockItem, error) {
	return s.mutate(ctx, "reevaluate", stockID, "", decimal.Zero, &meta, func(st *entity.StockItem) ([]entity.StockChange, error) {
		return allocation.ReevaluatePending(st)
	})
}

// IsNotFound indica si el error (posiblemente envuelto) es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
