package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
)

// orderOp cambio en espera sobre un pedido: recibe el estado vigente (nil si no existe)
// y devuelve el nuevo (nil = eliminado).
type orderOp struct {
	id string
	fn func(cur *entity.Order) (*entity.Order, error)
}

func (op orderOp) apply(orders map[string]*entity.Order) error {
	next, err := op.fn(orders[op.id])
	if err != nil {
		return err
	}
	if next == nil {
		delete(orders, op.id)
		return nil
	}
	orders[op.id] = next
	return nil
}

// tx escrituras en espera de una transacción y candados tomados.
type tx struct {
	s         *Store
	held      map[string]chan struct{}
	stocks    map[string]*entity.StockItem
	created   map[string]bool
	deleted   map[string]bool
	movements []*entity.StockMovement
	orderOps  []orderOp
}

func newTx(s *Store) *tx {
	return &tx{
		s:       s,
		held:    make(map[string]chan struct{}),
		stocks:  make(map[string]*entity.StockItem),
		created: make(map[string]bool),
		deleted: make(map[string]bool),
	}
}

// lock toma el candado del stock (reentrante dentro de la misma tx); respeta la cancelación del contexto.
func (t *tx) lock(ctx context.Context, id string) error {
	if _, ok := t.held[id]; ok {
		return nil
	}
	l := t.s.lockFor(id)
	select {
	case l <- struct{}{}:
		t.held[id] = l
		return nil
	case <-ctx.Done():
		return fmt.Errorf("lock stock %s: %w", id, ctx.Err())
	}
}

func (t *tx) release() {
	for id, l := range t.held {
		<-l
		delete(t.held, id)
	}
}

// commit aplica todas las escrituras bajo el lock del store. Valida antes de mutar nada.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range t.created {
		if _, ok := s.stocks[id]; ok {
			return fmt.Errorf("create stock %s: %w", id, domain.ErrDuplicate)
		}
	}
	for id := range t.deleted {
		if st, ok := s.stocks[id]; ok && st.Queue.Len() > 0 {
			return fmt.Errorf("delete stock %s: %w", id, domain.ErrConflict)
		}
	}
	orders := make(map[string]*entity.Order, len(s.orders))
	for id, o := range s.orders {
		orders[id] = o
	}
	for _, op := range t.orderOps {
		if err := op.apply(orders); err != nil {
			return err
		}
	}

	for id, st := range t.stocks {
		s.stocks[id] = st.Clone()
	}
	for id := range t.deleted {
		delete(s.stocks, id)
	}
	s.movements = append(s.movements, t.movements...)
	s.orders = orders
	return nil
}

// stockView último estado visible del stock para esta tx (escritura en espera o confirmado).
func (t *tx) stockView(id string) *entity.StockItem {
	if t.deleted[id] {
		return nil
	}
	if st, ok := t.stocks[id]; ok {
		return st.Clone()
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	if st, ok := t.s.stocks[id]; ok {
		return st.Clone()
	}
	return nil
}

// orderView pedido con las operaciones en espera aplicadas sobre una copia.
func (t *tx) orderView(id string) (*entity.Order, error) {
	t.s.mu.RLock()
	view := make(map[string]*entity.Order, 1)
	if o, ok := t.s.orders[id]; ok {
		view[id] = o
	}
	t.s.mu.RUnlock()
	for _, op := range t.orderOps {
		if op.id != id {
			continue
		}
		if err := op.apply(view); err != nil {
			return nil, err
		}
	}
	o, ok := view[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

// autocommit ejecuta fn en una tx propia y confirma.
func (s *Store) autocommit(fn func(t *tx) error) error {
	t := newTx(s)
	defer t.release()
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}
