package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// MovementFilter criterios de búsqueda sobre el log de movimientos. Los campos vacíos no filtran.
// Terms se comparan contra el texto normalizado (producto, modelo, cliente, remito); todos deben aparecer.
type MovementFilter struct {
	StockID    string
	ModelID    string
	OrderID    string
	ClientName string
	Type       entity.MovementType
	From       *time.Time
	To         *time.Time
	Terms      []string
	Ascending  bool // por defecto, más recientes primero
	Limit      int  // 0 = sin límite
	Offset     int
}

// MovementTypeStats agregado por tipo de movimiento.
type MovementTypeStats struct {
	Type          entity.MovementType
	Count         int
	TotalQuantity decimal.Decimal
	TotalValue    decimal.Decimal
}

// StockMovementRepository puerto del log de trazabilidad (sólo inserción y lectura).
type StockMovementRepository interface {
	Create(ctx context.Context, m *entity.StockMovement) error
	Find(ctx context.Context, f MovementFilter) ([]*entity.StockMovement, error)
	// Stats agrupa por tipo, ordenado por cantidad de movimientos descendente.
	Stats(ctx context.Context, from, to *time.Time) ([]MovementTypeStats, error)
}
