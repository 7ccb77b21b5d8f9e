package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType un pedido compromete stock; un presupuesto no.
type OrderType string

const (
	OrderTypeOrder OrderType = "pedido"
	OrderTypeQuote OrderType = "presupuesto"
)

// Valid indica si el tipo es conocido.
func (t OrderType) Valid() bool {
	return t == OrderTypeOrder || t == OrderTypeQuote
}

// OrderStatus estado comercial del pedido.
type OrderStatus string

const (
	OrderPending      OrderStatus = "pendiente"
	OrderRemitted     OrderStatus = "remitado"
	OrderPickup       OrderStatus = "retira"
	OrderShip         OrderStatus = "enviar"
	OrderInstallation OrderStatus = "instalacion"
	OrderDelivered    OrderStatus = "entregado"
)

// Valid indica si el estado es conocido.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderRemitted, OrderPickup, OrderShip, OrderInstallation, OrderDelivered:
		return true
	}
	return false
}

// Deliverable estados desde los que se puede entregar.
func (s OrderStatus) Deliverable() bool {
	return s == OrderPickup || s == OrderShip || s == OrderInstallation
}

// LineStockState estado de stock de una línea, proyectado desde la asignación.
type LineStockState string

const (
	LinePending   LineStockState = "pendiente"
	LineAvailable LineStockState = "disponible"
	LineDelivered LineStockState = "entregado"
)

// Client datos del cliente embebidos en el pedido.
type Client struct {
	Name    string
	Address string
	Contact string
}

// RemitoDoc referencia a un remito emitido.
type RemitoDoc struct {
	URL       string
	CreatedAt time.Time
}

// OrderLine línea del pedido, en unidad comercial.
type OrderLine struct {
	StockID         string
	ModelID         string
	Quantity        decimal.Decimal
	Unit            string
	MaterialVariant string
	Comment         string
	StockState      LineStockState
	PriceID         string
}

// Order pedido o presupuesto.
type Order struct {
	ID                string
	Remito            string
	Type              OrderType
	VendorID          string
	Client            Client
	Comment           string
	Lines             []OrderLine
	Status            OrderStatus
	PaymentMethod     string
	Origin            string
	OrderDate         time.Time
	EstimatedDelivery *time.Time
	Total             decimal.Decimal
	Remitos           []RemitoDoc
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LineForStock primera línea que apunta al stock indicado, o nil.
func (o *Order) LineForStock(stockID string) *OrderLine {
	for i := range o.Lines {
		if o.Lines[i].StockID == stockID {
			return &o.Lines[i]
		}
	}
	return nil
}

// Clone copia profunda (líneas y remitos).
func (o *Order) Clone() *Order {
	c := *o
	c.Lines = append([]OrderLine(nil), o.Lines...)
	c.Remitos = append([]RemitoDoc(nil), o.Remitos...)
	if o.EstimatedDelivery != nil {
		t := *o.EstimatedDelivery
		c.EstimatedDelivery = &t
	}
	return &c
}
