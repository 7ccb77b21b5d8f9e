package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedidos en memoria. Los cambios se aplican sobre el pedido vigente al confirmar,
// así dos transacciones que proyectan líneas distintas del mismo pedido no se pisan.
type OrderRepo struct {
	s *Store
	t *tx
}

func (r *OrderRepo) push(id string, fn func(cur *entity.Order) (*entity.Order, error)) error {
	op := orderOp{id: id, fn: fn}
	if r.t != nil {
		r.t.orderOps = append(r.t.orderOps, op)
		return nil
	}
	return r.s.autocommit(func(t *tx) error {
		t.orderOps = append(t.orderOps, op)
		return nil
	})
}

func (r *OrderRepo) Create(_ context.Context, o *entity.Order) error {
	cp := o.Clone()
	return r.push(o.ID, func(cur *entity.Order) (*entity.Order, error) {
		if cur != nil {
			return nil, fmt.Errorf("create order: %w", domain.ErrDuplicate)
		}
		return cp.Clone(), nil
	})
}

func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	if r.t != nil {
		return r.t.orderView(id)
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if o, ok := r.s.orders[id]; ok {
		return o.Clone(), nil
	}
	return nil, nil
}

// List lee los pedidos confirmados, del más reciente al más antiguo.
func (r *OrderRepo) List(_ context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	r.s.mu.RLock()
	out := make([]*entity.Order, 0, len(r.s.orders))
	for _, o := range r.s.orders {
		if f.Type != "" && o.Type != f.Type {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o.Clone())
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderDate.Equal(out[j].OrderDate) {
			return out[i].OrderDate.After(out[j].OrderDate)
		}
		return out[i].ID < out[j].ID
	})
	if f.Offset >= len(out) {
		return []*entity.Order{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *OrderRepo) Update(_ context.Context, o *entity.Order) error {
	cp := o.Clone()
	return r.push(o.ID, func(cur *entity.Order) (*entity.Order, error) {
		if cur == nil {
			return nil, fmt.Errorf("update order: %w", domain.ErrNotFound)
		}
		return cp.Clone(), nil
	})
}

func (r *OrderRepo) Delete(_ context.Context, id string) error {
	return r.push(id, func(cur *entity.Order) (*entity.Order, error) {
		if cur == nil {
			return nil, fmt.Errorf("delete order: %w", domain.ErrNotFound)
		}
		return nil, nil
	})
}

func (r *OrderRepo) SetLineStockState(_ context.Context, orderID, stockID string, state entity.LineStockState) error {
	return r.push(orderID, func(cur *entity.Order) (*entity.Order, error) {
		if cur == nil {
			return nil, nil
		}
		next := cur.Clone()
		for i := range next.Lines {
			if next.Lines[i].StockID == stockID {
				next.Lines[i].StockState = state
			}
		}
		return next, nil
	})
}

func (r *OrderRepo) SetStatus(_ context.Context, id string, status entity.OrderStatus) error {
	return r.push(id, func(cur *entity.Order) (*entity.Order, error) {
		if cur == nil {
			return nil, fmt.Errorf("set order status: %w", domain.ErrNotFound)
		}
		next := cur.Clone()
		next.Status = status
		return next, nil
	})
}

func (r *OrderRepo) AddRemito(_ context.Context, id string, doc entity.RemitoDoc) error {
	return r.push(id, func(cur *entity.Order) (*entity.Order, error) {
		if cur == nil {
			return nil, fmt.Errorf("add remito: %w", domain.ErrNotFound)
		}
		next := cur.Clone()
		next.Remitos = append(next.Remitos, doc)
		return next, nil
	})
}
