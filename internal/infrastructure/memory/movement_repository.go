package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
	"github.com/jhoicas/stock-allocation/pkg/textnorm"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo log de movimientos en memoria; el orden de inserción es el orden cronológico.
type MovementRepo struct {
	s *Store
	t *tx
}

func (r *MovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	r.s.mu.RLock()
	failErr := r.s.failMovements
	r.s.mu.RUnlock()
	if failErr != nil {
		return failErr
	}
	cp := *m
	if r.t != nil {
		r.t.movements = append(r.t.movements, &cp)
		return nil
	}
	return r.s.autocommit(func(t *tx) error {
		t.movements = append(t.movements, &cp)
		return nil
	})
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func matches(m *entity.StockMovement, f repository.MovementFilter) bool {
	switch {
	case f.StockID != "" && m.StockID != f.StockID:
		return false
	case f.ModelID != "" && m.ModelID != f.ModelID:
		return false
	case f.OrderID != "" && m.OrderID != f.OrderID:
		return false
	case f.Type != "" && m.Type != f.Type:
		return false
	case !inRange(m.CreatedAt, f.From, f.To):
		return false
	}
	if f.ClientName != "" && !strings.Contains(textnorm.Fold(m.ClientName), textnorm.Fold(f.ClientName)) {
		return false
	}
	if len(f.Terms) > 0 {
		text := textnorm.SearchText(m.Product, m.Model, m.ClientName, m.Remito)
		if !textnorm.MatchAll(text, f.Terms) {
			return false
		}
	}
	return true
}

// Find filtra el log. Sin Ascending devuelve los más recientes primero.
func (r *MovementRepo) Find(_ context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	all := r.s.movements
	r.s.mu.RUnlock()

	var out []*entity.StockMovement
	for _, m := range all {
		if matches(m, f) {
			cp := *m
			out = append(out, &cp)
		}
	}
	if !f.Ascending {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Stats agrupa por tipo; orden por cantidad de movimientos desc y luego por tipo.
func (r *MovementRepo) Stats(_ context.Context, from, to *time.Time) ([]repository.MovementTypeStats, error) {
	r.s.mu.RLock()
	all := r.s.movements
	r.s.mu.RUnlock()

	idx := make(map[entity.MovementType]int)
	var out []repository.MovementTypeStats
	for _, m := range all {
		if !inRange(m.CreatedAt, from, to) {
			continue
		}
		i, ok := idx[m.Type]
		if !ok {
			i = len(out)
			idx[m.Type] = i
			out = append(out, repository.MovementTypeStats{Type: m.Type, TotalQuantity: decimal.Zero, TotalValue: decimal.Zero})
		}
		out[i].Count++
		out[i].TotalQuantity = out[i].TotalQuantity.Add(m.Quantity)
		if m.TotalValue != nil {
			out[i].TotalValue = out[i].TotalValue.Add(*m.TotalValue)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}
