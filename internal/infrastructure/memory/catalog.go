package memory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

var (
	_ repository.ModelCatalog = (*ModelCatalog)(nil)
	_ repository.PriceCatalog = (*PriceCatalog)(nil)
)

// ModelCatalog catálogo de modelos en memoria.
type ModelCatalog struct{ s *Store }

func (c *ModelCatalog) GetByID(_ context.Context, id string) (*entity.ProductModel, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	m, ok := c.s.models[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

// PriceCatalog precios en memoria.
type PriceCatalog struct{ s *Store }

func (c *PriceCatalog) UnitPrice(_ context.Context, id string) (*decimal.Decimal, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	p, ok := c.s.prices[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
