package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación en memoria de StockRepository (dentro o fuera de transacción).
type StockRepo struct {
	s *Store
	t *tx
}

func (r *StockRepo) with(fn func(t *tx) error) error {
	if r.t != nil {
		return fn(r.t)
	}
	return r.s.autocommit(fn)
}

// Get devuelve una copia del stock, o nil si no existe.
func (r *StockRepo) Get(_ context.Context, id string) (*entity.StockItem, error) {
	if r.t != nil {
		return r.t.stockView(id), nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if st, ok := r.s.stocks[id]; ok {
		return st.Clone(), nil
	}
	return nil, nil
}

// GetForUpdate toma el candado del stock hasta el fin de la transacción.
func (r *StockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	if r.t == nil {
		return nil, fmt.Errorf("get stock for update: fuera de transacción")
	}
	if err := r.t.lock(ctx, id); err != nil {
		return nil, err
	}
	return r.t.stockView(id), nil
}

func (r *StockRepo) GetByModel(ctx context.Context, modelID string) (*entity.StockItem, error) {
	r.s.mu.RLock()
	var id string
	for _, st := range r.s.stocks {
		if st.ModelID == modelID {
			id = st.ID
			break
		}
	}
	r.s.mu.RUnlock()
	if id == "" && r.t != nil {
		for _, st := range r.t.stocks {
			if st.ModelID == modelID {
				id = st.ID
			}
		}
	}
	if id == "" {
		return nil, nil
	}
	return r.Get(ctx, id)
}

func (r *StockRepo) Create(_ context.Context, st *entity.StockItem) error {
	return r.with(func(t *tx) error {
		if _, ok := t.stocks[st.ID]; ok {
			return fmt.Errorf("create stock: %w", domain.ErrDuplicate)
		}
		t.stocks[st.ID] = st.Clone()
		t.created[st.ID] = true
		return nil
	})
}

func (r *StockRepo) Update(_ context.Context, st *entity.StockItem) error {
	return r.with(func(t *tx) error {
		if t.stockView(st.ID) == nil {
			return fmt.Errorf("update stock: %w", domain.ErrNotFound)
		}
		t.stocks[st.ID] = st.Clone()
		return nil
	})
}

// Delete borra el stock si su cola está vacía.
func (r *StockRepo) Delete(_ context.Context, id string) error {
	return r.with(func(t *tx) error {
		st := t.stockView(id)
		if st == nil {
			return fmt.Errorf("delete stock: %w", domain.ErrNotFound)
		}
		if st.Queue.Len() > 0 {
			return fmt.Errorf("delete stock: %w: tiene %d asignaciones", domain.ErrConflict, st.Queue.Len())
		}
		delete(t.stocks, id)
		delete(t.created, id)
		t.deleted[id] = true
		return nil
	})
}

// List stocks ordenados por producto y modelo.
func (r *StockRepo) List(_ context.Context, activeOnly bool) ([]*entity.StockItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.StockItem, 0, len(r.s.stocks))
	for _, st := range r.s.stocks {
		if activeOnly && !st.Active {
			continue
		}
		out = append(out, st.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Product != out[j].Product {
			return out[i].Product < out[j].Product
		}
		return out[i].Model < out[j].Model
	})
	return out, nil
}
