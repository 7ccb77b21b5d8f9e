package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockItem ledger de un modelo de producto: existencia física, reservado, pendiente y cola de asignaciones.
type StockItem struct {
	ID        string
	ModelID   string
	Product   string
	Model     string
	Unit      string
	Total     decimal.Decimal
	Reserved  decimal.Decimal
	Pending   decimal.Decimal
	Active    bool
	Queue     *AllocationQueue
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available existencia libre para nuevas reservas.
func (s *StockItem) Available() decimal.Decimal {
	return s.Total.Sub(s.Reserved)
}

// Snapshot foto de los contadores en un instante.
func (s *StockItem) Snapshot() Snapshot {
	return Snapshot{Stock: s.Total, Reserved: s.Reserved, Pending: s.Pending}
}

// Clone copia profunda, incluida la cola.
func (s *StockItem) Clone() *StockItem {
	c := *s
	c.Queue = s.Queue.Clone()
	return &c
}

// Snapshot contadores de un stock antes o después de un movimiento.
type Snapshot struct {
	Stock    decimal.Decimal `json:"stock"`
	Reserved decimal.Decimal `json:"reservado"`
	Pending  decimal.Decimal `json:"pendiente"`
}

// Equal compara los tres contadores.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Stock.Equal(o.Stock) && s.Reserved.Equal(o.Reserved) && s.Pending.Equal(o.Pending)
}
