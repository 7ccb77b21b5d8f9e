package repository

import (
	"context"

	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// StockRepository puerto del ledger de stock (contadores + cola de asignaciones).
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// Get devuelve nil, nil si el stock no existe.
	Get(ctx context.Context, id string) (*entity.StockItem, error)
	// GetForUpdate bloquea el stock hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error)
	GetByModel(ctx context.Context, modelID string) (*entity.StockItem, error)
	Create(ctx context.Context, s *entity.StockItem) error
	// Update persiste contadores, estado activo y la cola en su orden.
	Update(ctx context.Context, s *entity.StockItem) error
	List(ctx context.Context, activeOnly bool) ([]*entity.StockItem, error)
	// Delete borra el stock. Falla con ErrConflict si todavía tiene asignaciones.
	Delete(ctx context.Context, id string) error
}

// ModelCatalog puerto de lectura del catálogo de modelos (factor de conversión).
type ModelCatalog interface {
	GetByID(ctx context.Context, id string) (*entity.ProductModel, error)
}

// PriceCatalog puerto de lectura de precios unitarios por unidad comercial.
// Devuelve nil, nil si el precio no existe.
type PriceCatalog interface {
	UnitPrice(ctx context.Context, priceID string) (*decimal.Decimal, error)
}
