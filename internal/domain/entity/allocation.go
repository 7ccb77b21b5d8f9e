package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// AllocationState estado de una asignación dentro de la cola de un stock.
type AllocationState string

const (
	AllocationReserved AllocationState = "reservado"
	AllocationPending  AllocationState = "pendiente"
)

// Allocation compromiso de un pedido sobre un stock, en unidades de stock.
type Allocation struct {
	OrderID   string
	Quantity  decimal.Decimal
	State     AllocationState
	CreatedAt time.Time
}

// AllocationQueue cola FIFO de asignaciones de un stock. Una sola entrada por pedido.
// El orden de inserción define la prioridad al promover pendientes.
type AllocationQueue struct {
	items []*Allocation
	index map[string]int
}

// NewAllocationQueue construye una cola con las asignaciones en el orden recibido.
func NewAllocationQueue(items ...*Allocation) *AllocationQueue {
	q := &AllocationQueue{index: make(map[string]int, len(items))}
	for _, a := range items {
		_ = q.Push(a)
	}
	return q
}

func (q *AllocationQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Get devuelve la asignación del pedido o nil.
func (q *AllocationQueue) Get(orderID string) *Allocation {
	if q == nil {
		return nil
	}
	i, ok := q.index[orderID]
	if !ok {
		return nil
	}
	return q.items[i]
}

// Push agrega al final de la cola.
func (q *AllocationQueue) Push(a *Allocation) error {
	if q.index == nil {
		q.index = make(map[string]int)
	}
	if _, ok := q.index[a.OrderID]; ok {
		return fmt.Errorf("asignación duplicada para pedido %s", a.OrderID)
	}
	q.index[a.OrderID] = len(q.items)
	q.items = append(q.items, a)
	return nil
}

// Remove quita la asignación del pedido y cierra el hueco. Devuelve la asignación removida.
func (q *AllocationQueue) Remove(orderID string) *Allocation {
	i, ok := q.index[orderID]
	if !ok {
		return nil
	}
	a := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	delete(q.index, orderID)
	for j := i; j < len(q.items); j++ {
		q.index[q.items[j].OrderID] = j
	}
	return a
}

// Items copia superficial en orden de cola.
func (q *AllocationQueue) Items() []*Allocation {
	if q == nil {
		return nil
	}
	out := make([]*Allocation, len(q.items))
	copy(out, q.items)
	return out
}

// Each recorre en orden; se detiene si fn devuelve false.
func (q *AllocationQueue) Each(fn func(a *Allocation) bool) {
	if q == nil {
		return
	}
	for _, a := range q.items {
		if !fn(a) {
			return
		}
	}
}

// Sum suma las cantidades en el estado indicado.
func (q *AllocationQueue) Sum(state AllocationState) decimal.Decimal {
	total := decimal.Zero
	q.Each(func(a *Allocation) bool {
		if a.State == state {
			total = total.Add(a.Quantity)
		}
		return true
	})
	return total
}

// Clone copia profunda.
func (q *AllocationQueue) Clone() *AllocationQueue {
	c := &AllocationQueue{index: make(map[string]int, q.Len())}
	q.Each(func(a *Allocation) bool {
		cp := *a
		_ = c.Push(&cp)
		return true
	})
	return c
}
