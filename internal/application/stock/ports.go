package stock

import (
	"context"

	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Ledger, log de movimientos y proyección sobre pedidos confirman juntos o no confirman.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		orderRepo repository.OrderRepository,
	) error) error
}

// Meta datos de auditoría de una operación.
type Meta struct {
	Actor  string // responsable; vacío = responsable por defecto
	Reason string // motivo del movimiento que dispara la operación
}
