package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

var (
	_ repository.ModelCatalog = (*ModelRepo)(nil)
	_ repository.PriceCatalog = (*PriceRepo)(nil)
)

// ModelRepo lectura del catálogo de modelos. El alta y edición de modelos es de otro sistema.
type ModelRepo struct {
	q Querier
}

func NewModelRepository(q Querier) *ModelRepo {
	return &ModelRepo{q: q}
}

// GetByID devuelve nil, nil si el modelo no existe.
func (r *ModelRepo) GetByID(ctx context.Context, id string) (*entity.ProductModel, error) {
	query := `
		SELECT id, product, model, width, height, type, units_per_commercial_unit, retired_at, created_at
		FROM product_models WHERE id = $1`
	var m entity.ProductModel
	err := r.q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Product, &m.Model, &m.Width, &m.Height, &m.Type, &m.UnitsPerCommercialUnit, &m.RetiredAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product model: %w", err)
	}
	return &m, nil
}

// PriceRepo precios unitarios por unidad comercial.
type PriceRepo struct {
	q Querier
}

func NewPriceRepository(q Querier) *PriceRepo {
	return &PriceRepo{q: q}
}

// UnitPrice devuelve nil, nil si el precio no existe.
func (r *PriceRepo) UnitPrice(ctx context.Context, priceID string) (*decimal.Decimal, error) {
	var p decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT unit_price FROM prices WHERE id = $1`, priceID).Scan(&p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get unit price: %w", err)
	}
	return &p, nil
}
