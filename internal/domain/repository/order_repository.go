package repository

import (
	"context"

	"github.com/jhoicas/stock-allocation/internal/domain/entity"
)

// OrderFilter filtros del listado de pedidos. Los campos vacíos no filtran.
type OrderFilter struct {
	Type   entity.OrderType
	Status entity.OrderStatus
	Limit  int
	Offset int
}

// OrderRepository puerto de pedidos.
type OrderRepository interface {
	Create(ctx context.Context, o *entity.Order) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	// List devuelve los pedidos con sus líneas, del más reciente al más antiguo.
	List(ctx context.Context, f OrderFilter) ([]*entity.Order, error)
	Update(ctx context.Context, o *entity.Order) error
	Delete(ctx context.Context, id string) error
	// SetLineStockState proyecta el estado de stock sobre las líneas del pedido que apuntan al stock.
	// Si el pedido no existe no hace nada: una asignación huérfana no debe bloquear la cascada.
	SetLineStockState(ctx context.Context, orderID, stockID string, state entity.LineStockState) error
	SetStatus(ctx context.Context, id string, status entity.OrderStatus) error
	AddRemito(ctx context.Context, id string, doc entity.RemitoDoc) error
}
