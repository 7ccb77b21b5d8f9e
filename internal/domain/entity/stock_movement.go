package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType tipo de movimiento del log de trazabilidad.
type MovementType string

const (
	MovementProduction  MovementType = "produccion"
	MovementReservation MovementType = "reserva"
	MovementRelease     MovementType = "liberacion"
	MovementDelivery    MovementType = "entrega"
	MovementAdjustment  MovementType = "ajuste"
)

// Valid indica si el tipo es uno de los conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementProduction, MovementReservation, MovementRelease, MovementDelivery, MovementAdjustment:
		return true
	}
	return false
}

// MovementEvent evento producido por el motor de asignación. Conjunto cerrado:
// ProductionEvent, ReservationEvent, ReleaseEvent, DeliveryEvent, AdjustmentEvent.
type MovementEvent interface {
	Type() MovementType
	// Delta cantidad con signo tal como se registra en el movimiento.
	Delta() decimal.Decimal
	// OrderRef pedido afectado; vacío para producción y ajustes.
	OrderRef() string
	movementEvent()
}

// ProductionEvent ingreso de producción.
type ProductionEvent struct {
	Quantity decimal.Decimal
}

func (ProductionEvent) Type() MovementType       { return MovementProduction }
func (e ProductionEvent) Delta() decimal.Decimal { return e.Quantity }
func (ProductionEvent) OrderRef() string         { return "" }
func (ProductionEvent) movementEvent()           {}

// ReservationCause por qué se emitió una reserva.
type ReservationCause string

const (
	CauseNew       ReservationCause = "nueva"
	CauseQuantity  ReservationCause = "cambio_cantidad"
	CausePromotion ReservationCause = "promocion"
)

// ReservationEvent alta, cambio de cantidad o promoción de una asignación.
// Quantity puede ser negativa cuando un cambio de cantidad reduce el compromiso.
type ReservationEvent struct {
	OrderID  string
	Quantity decimal.Decimal
	State    AllocationState
	Cause    ReservationCause
}

func (ReservationEvent) Type() MovementType       { return MovementReservation }
func (e ReservationEvent) Delta() decimal.Decimal { return e.Quantity }
func (e ReservationEvent) OrderRef() string       { return e.OrderID }
func (ReservationEvent) movementEvent()           {}

// ReleaseEvent baja de una asignación (cancelación, edición o borrado de pedido).
type ReleaseEvent struct {
	OrderID  string
	Quantity decimal.Decimal
	State    AllocationState
}

func (ReleaseEvent) Type() MovementType       { return MovementRelease }
func (e ReleaseEvent) Delta() decimal.Decimal { return e.Quantity.Neg() }
func (e ReleaseEvent) OrderRef() string       { return e.OrderID }
func (ReleaseEvent) movementEvent()           {}

// DeliveryEvent salida física de una asignación reservada.
type DeliveryEvent struct {
	OrderID  string
	Quantity decimal.Decimal
}

func (DeliveryEvent) Type() MovementType       { return MovementDelivery }
func (e DeliveryEvent) Delta() decimal.Decimal { return e.Quantity.Neg() }
func (e DeliveryEvent) OrderRef() string       { return e.OrderID }
func (DeliveryEvent) movementEvent()           {}

// AdjustmentEvent corrección manual de la existencia (positiva o negativa).
type AdjustmentEvent struct {
	Amount decimal.Decimal
	Reason string
}

func (AdjustmentEvent) Type() MovementType       { return MovementAdjustment }
func (e AdjustmentEvent) Delta() decimal.Decimal { return e.Amount }
func (AdjustmentEvent) OrderRef() string         { return "" }
func (AdjustmentEvent) movementEvent()           {}

// StockChange un evento con los contadores antes y después de aplicarlo.
type StockChange struct {
	Event  MovementEvent
	Before Snapshot
	After  Snapshot
}

// StockMovement registro inmutable del log de trazabilidad.
type StockMovement struct {
	ID          string
	StockID     string
	ModelID     string
	OrderID     string
	Product     string
	Model       string
	Type        MovementType
	Quantity    decimal.Decimal // con signo
	Before      Snapshot
	After       Snapshot
	Remito      string
	ClientName  string
	VendorID    string
	OrderStatus OrderStatus
	UnitPrice   *decimal.Decimal
	TotalValue  *decimal.Decimal
	Actor       string
	Reason      string
	CreatedAt   time.Time
}
