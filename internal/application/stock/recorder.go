package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/stock-allocation/internal/domain/allocation"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

// MovementRecorder convierte cada StockChange en un movimiento inmutable del log de trazabilidad,
// con los datos del pedido desnormalizados y valorizado cuando la línea tiene precio.
type MovementRecorder struct {
	models       repository.ModelCatalog
	prices       repository.PriceCatalog
	defaultActor string
	now          func() time.Time
	log          zerolog.Logger
}

// NewMovementRecorder construye el recorder.
func NewMovementRecorder(models repository.ModelCatalog, prices repository.PriceCatalog, defaultActor string, log zerolog.Logger) *MovementRecorder {
	if defaultActor == "" {
		defaultActor = "Sistema"
	}
	return &MovementRecorder{
		models:       models,
		prices:       prices,
		defaultActor: defaultActor,
		now:          func() time.Time { return time.Now().UTC() },
		log:          log,
	}
}

// Record escribe un movimiento por cambio, en la misma transacción del ledger.
// meta.Reason aplica al primer cambio (el que disparó la operación); los demás usan el motivo por defecto.
func (r *MovementRecorder) Record(
	ctx context.Context,
	movRepo repository.StockMovementRepository,
	orderRepo repository.OrderRepository,
	st *entity.StockItem,
	changes []entity.StockChange,
	meta Meta,
) ([]*entity.StockMovement, error) {
	actor := meta.Actor
	if actor == "" {
		actor = r.defaultActor
	}
	orders := make(map[string]*entity.Order)
	var model *entity.ProductModel
	modelLoaded := false

	now := r.now()
	out := make([]*entity.StockMovement, 0, len(changes))
	for i, ch := range changes {
		m := &entity.StockMovement{
			ID:        uuid.New().String(),
			StockID:   st.ID,
			ModelID:   st.ModelID,
			Product:   st.Product,
			Model:     st.Model,
			Type:      ch.Event.Type(),
			Quantity:  ch.Event.Delta(),
			Before:    ch.Before,
			After:     ch.After,
			Actor:     actor,
			Reason:    defaultReason(ch.Event),
			CreatedAt: now,
		}
		if i == 0 && meta.Reason != "" {
			m.Reason = meta.Reason
		}

		if orderID := ch.Event.OrderRef(); orderID != "" {
			m.OrderID = orderID
			o, ok := orders[orderID]
			if !ok {
				var err error
				o, err = orderRepo.GetByID(ctx, orderID)
				if err != nil {
					return nil, fmt.Errorf("record movement: load order: %w", err)
				}
				orders[orderID] = o
			}
			if o != nil {
				m.Remito = o.Remito
				m.ClientName = o.Client.Name
				m.VendorID = o.VendorID
				m.OrderStatus = o.Status
				if line := o.LineForStock(st.ID); line != nil && line.PriceID != "" && r.prices != nil {
					if !modelLoaded {
						mdl, err := r.models.GetByID(ctx, st.ModelID)
						if err != nil {
							return nil, fmt.Errorf("record movement: load model: %w", err)
						}
						model, modelLoaded = mdl, true
					}
					price, err := r.prices.UnitPrice(ctx, line.PriceID)
					if err != nil {
						return nil, fmt.Errorf("record movement: load price: %w", err)
					}
					if price != nil && model != nil {
						value := allocation.MovementValue(m.Quantity, model.UnitsPerCommercialUnit, *price)
						p := *price
						m.UnitPrice = &p
						m.TotalValue = &value
					}
				}
			}
		}

		if err := movRepo.Create(ctx, m); err != nil {
			return nil, fmt.Errorf("record movement: %w", err)
		}
		out = append(out, m)
	}
	r.log.Debug().Str("stock_id", st.ID).Int("movements", len(out)).Msg("movimientos registrados")
	return out, nil
}

func defaultReason(ev entity.MovementEvent) string {
	switch e := ev.(type) {
	case entity.ProductionEvent:
		return "Ingreso de producción"
	case entity.ReservationEvent:
		switch e.Cause {
		case entity.CausePromotion:
			return "Reserva por ingreso de stock"
		case entity.CauseQuantity:
			return "Cambio de cantidad en pedido"
		default:
			if e.State == entity.AllocationPending {
				return "Pedido en espera de stock"
			}
			return "Reserva por pedido"
		}
	case entity.ReleaseEvent:
		return "Liberación de asignación"
	case entity.DeliveryEvent:
		return "Entrega de pedido"
	case entity.AdjustmentEvent:
		if e.Reason != "" {
			return e.Reason
		}
		return "Ajuste manual"
	}
	return ""
}
