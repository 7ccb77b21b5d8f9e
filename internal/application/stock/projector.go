package stock

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

// OrderProjector mantiene el estado de stock de las líneas de pedido alineado con las asignaciones:
// reservado -> disponible, pendiente -> pendiente, entrega -> entregado. Una liberación no proyecta nada.
type OrderProjector struct{}

// NewOrderProjector construye el proyector.
func NewOrderProjector() *OrderProjector {
	return &OrderProjector{}
}

// LineState estado de línea para un estado de asignación.
func LineState(s entity.AllocationState) entity.LineStockState {
	if s == entity.AllocationReserved {
		return entity.LineAvailable
	}
	return entity.LinePending
}

// Project escribe, por pedido afectado, el último estado resultante de los cambios.
func (p *OrderProjector) Project(ctx context.Context, orderRepo repository.OrderRepository, stockID string, changes []entity.StockChange) error {
	var order []string
	final := make(map[string]entity.LineStockState)
	for _, ch := range changes {
		var (
			orderID string
			state   entity.LineStockState
		)
		switch e := ch.Event.(type) {
		case entity.ReservationEvent:
			orderID, state = e.OrderID, LineState(e.State)
		case entity.DeliveryEvent:
			orderID, state = e.OrderID, entity.LineDelivered
		default:
			continue
		}
		if _, seen := final[orderID]; !seen {
			order = append(order, orderID)
		}
		final[orderID] = state
	}
	for _, id := range order {
		if err := orderRepo.SetLineStockState(ctx, id, stockID, final[id]); err != nil {
			return fmt.Errorf("project line state: %w", err)
		}
	}
	return nil
}
