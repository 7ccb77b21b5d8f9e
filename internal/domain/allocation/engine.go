package allocation

import (
	"fmt"
	"time"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Motor de asignación (servicio de dominio puro). Cada operación trabaja sobre una copia
// del stock y sólo la vuelca sobre s si termina sin error y con las invariantes intactas.

// journal acumula los cambios emitidos durante una operación.
type journal struct {
	s       *entity.StockItem
	changes []entity.StockChange
}

// apply ejecuta mut y registra el evento con los contadores antes/después.
func (j *journal) apply(ev entity.MovementEvent, mut func()) {
	before := j.s.Snapshot()
	mut()
	j.changes = append(j.changes, entity.StockChange{Event: ev, Before: before, After: j.s.Snapshot()})
}

func run(s *entity.StockItem, fn func(j *journal) error) ([]entity.StockChange, error) {
	if s == nil {
		return nil, domain.ErrNotFound
	}
	work := s.Clone()
	j := &journal{s: work}
	if err := fn(j); err != nil {
		return nil, err
	}
	if err := CheckInvariants(work); err != nil {
		return nil, err
	}
	*s = *work
	return j.changes, nil
}

func requirePositive(q decimal.Decimal) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser positiva (%s)", domain.ErrInvalidInput, q)
	}
	return nil
}

// Allocate registra la demanda de un pedido. Si hay disponible (total - reservado) queda reservada;
// si no, pendiente al final de la cola. Si el pedido ya tenía asignación se sobrescribe en su lugar.
func Allocate(s *entity.StockItem, orderID string, qty decimal.Decimal) (entity.AllocationState, []entity.StockChange, error) {
	if orderID == "" {
		return "", nil, fmt.Errorf("%w: pedido vacío", domain.ErrInvalidInput)
	}
	if err := requirePositive(qty); err != nil {
		return "", nil, err
	}
	var state entity.AllocationState
	changes, err := run(s, func(j *journal) error {
		if existing := j.s.Queue.Get(orderID); existing != nil {
			state = overwrite(j, existing, qty)
			return nil
		}
		state = entity.AllocationPending
		if j.s.Active && j.s.Available().GreaterThanOrEqual(qty) {
			state = entity.AllocationReserved
		}
		a := &entity.Allocation{OrderID: orderID, Quantity: qty, State: state, CreatedAt: time.Now().UTC()}
		j.apply(entity.ReservationEvent{OrderID: orderID, Quantity: qty, State: state, Cause: entity.CauseNew}, func() {
			_ = j.s.Queue.Push(a)
			addToCounter(j.s, state, qty)
		})
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return state, changes, nil
}

// overwrite reemplaza cantidad y estado de una asignación existente sin moverla de la cola.
func overwrite(j *journal, a *entity.Allocation, qty decimal.Decimal) entity.AllocationState {
	oldQty, oldState := a.Quantity, a.State
	available := j.s.Available()
	if oldState == entity.AllocationReserved {
		available = available.Add(oldQty)
	}
	state := entity.AllocationPending
	if j.s.Active && available.GreaterThanOrEqual(qty) {
		state = entity.AllocationReserved
	}
	if oldQty.Equal(qty) && oldState == state {
		return state
	}
	j.apply(entity.ReservationEvent{OrderID: a.OrderID, Quantity: qty.Sub(oldQty), State: state, Cause: entity.CauseQuantity}, func() {
		addToCounter(j.s, oldState, oldQty.Neg())
		a.Quantity, a.State = qty, state
		addToCounter(j.s, state, qty)
	})
	if oldState == entity.AllocationReserved {
		cascade(j)
	}
	return a.State
}

// ChangeQuantity edita la cantidad de una asignación existente. La asignación conserva su
// posición, pasa a pendiente y la reevaluación decide si vuelve a reservarse.
func ChangeQuantity(s *entity.StockItem, orderID string, qty decimal.Decimal) (entity.AllocationState, []entity.StockChange, error) {
	if err := requirePositive(qty); err != nil {
		return "", nil, err
	}
	var state entity.AllocationState
	changes, err := run(s, func(j *journal) error {
		a := j.s.Queue.Get(orderID)
		if a == nil {
			return fmt.Errorf("%w: pedido %s", domain.ErrAllocationNotFound, orderID)
		}
		if a.Quantity.Equal(qty) {
			state = a.State
			return nil
		}
		oldQty, oldState := a.Quantity, a.State
		j.apply(entity.ReservationEvent{OrderID: orderID, Quantity: qty.Sub(oldQty), State: entity.AllocationPending, Cause: entity.CauseQuantity}, func() {
			addToCounter(j.s, oldState, oldQty.Neg())
			a.Quantity, a.State = qty, entity.AllocationPending
			addToCounter(j.s, entity.AllocationPending, qty)
		})
		cascade(j)
		state = a.State
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return state, changes, nil
}

// Release quita la asignación del pedido. Si estaba reservada libera existencia y dispara la cascada.
// Sin asignación no hay cambios.
func Release(s *entity.StockItem, orderID string) ([]entity.StockChange, error) {
	return run(s, func(j *journal) error {
		a := j.s.Queue.Get(orderID)
		if a == nil {
			return nil
		}
		j.apply(entity.ReleaseEvent{OrderID: orderID, Quantity: a.Quantity, State: a.State}, func() {
			j.s.Queue.Remove(orderID)
			addToCounter(j.s, a.State, a.Quantity.Neg())
		})
		if a.State == entity.AllocationReserved {
			cascade(j)
		}
		return nil
	})
}

// Deliver descuenta la salida física de una asignación reservada y la elimina de la cola.
// No dispara cascada: total y disponible bajan lo mismo.
func Deliver(s *entity.StockItem, orderID string, qty decimal.Decimal) ([]entity.StockChange, error) {
	return run(s, func(j *journal) error {
		a := j.s.Queue.Get(orderID)
		if a == nil {
			return fmt.Errorf("%w: pedido %s", domain.ErrAllocationNotFound, orderID)
		}
		if a.State != entity.AllocationReserved {
			return domain.ErrNotReserved
		}
		if !a.Quantity.Equal(qty) {
			return fmt.Errorf("%w: se esperaba entregar %s y se recibió %s", domain.ErrInvalidInput, a.Quantity, qty)
		}
		j.apply(entity.DeliveryEvent{OrderID: orderID, Quantity: qty}, func() {
			j.s.Queue.Remove(orderID)
			j.s.Total = j.s.Total.Sub(qty)
			j.s.Reserved = j.s.Reserved.Sub(qty)
		})
		return nil
	})
}

// RecordProduction suma producción al total, activa el stock y promueve pendientes.
func RecordProduction(s *entity.StockItem, qty decimal.Decimal) ([]entity.StockChange, error) {
	if err := requirePositive(qty); err != nil {
		return nil, err
	}
	return run(s, func(j *journal) error {
		j.apply(entity.ProductionEvent{Quantity: qty}, func() {
			j.s.Total = j.s.Total.Add(qty)
			j.s.Active = true
		})
		cascade(j)
		return nil
	})
}

// Adjust corrige el total en delta. No puede dejar el total negativo ni por debajo de lo reservado.
// Un ajuste positivo activa el stock y promueve pendientes.
func Adjust(s *entity.StockItem, delta decimal.Decimal, reason string) ([]entity.StockChange, error) {
	if delta.IsZero() {
		return nil, fmt.Errorf("%w: ajuste en cero", domain.ErrInvalidInput)
	}
	return run(s, func(j *journal) error {
		newTotal := j.s.Total.Add(delta)
		if newTotal.IsNegative() || newTotal.LessThan(j.s.Reserved) {
			return fmt.Errorf("%w: el ajuste deja total=%s con reservado=%s", domain.ErrInvariantViolation, newTotal, j.s.Reserved)
		}
		j.apply(entity.AdjustmentEvent{Amount: delta, Reason: reason}, func() {
			j.s.Total = newTotal
			if delta.IsPositive() {
				j.s.Active = true
			}
		})
		if delta.IsPositive() {
			cascade(j)
		}
		return nil
	})
}

// ReevaluatePending recorre la cola en orden y promueve pendientes mientras alcance el disponible.
// Se detiene en la primera pendiente que no entra: una demanda posterior nunca se adelanta.
func ReevaluatePending(s *entity.StockItem) ([]entity.StockChange, error) {
	return run(s, func(j *journal) error {
		cascade(j)
		return nil
	})
}

func cascade(j *journal) {
	if !j.s.Active {
		return
	}
	available := j.s.Available()
	j.s.Queue.Each(func(a *entity.Allocation) bool {
		if a.State != entity.AllocationPending {
			return true
		}
		if available.LessThan(a.Quantity) {
			return false
		}
		q := a.Quantity
		j.apply(entity.ReservationEvent{OrderID: a.OrderID, Quantity: q, State: entity.AllocationReserved, Cause: entity.CausePromotion}, func() {
			a.State = entity.AllocationReserved
			j.s.Pending = j.s.Pending.Sub(q)
			j.s.Reserved = j.s.Reserved.Add(q)
		})
		available = available.Sub(q)
		return true
	})
}

func addToCounter(s *entity.StockItem, state entity.AllocationState, q decimal.Decimal) {
	if state == entity.AllocationReserved {
		s.Reserved = s.Reserved.Add(q)
		return
	}
	s.Pending = s.Pending.Add(q)
}

// CheckInvariants valida: contadores iguales a la suma de la cola por estado, reservado <= total,
// contadores no negativos y cantidades de asignación positivas.
func CheckInvariants(s *entity.StockItem) error {
	if s.Total.IsNegative() || s.Reserved.IsNegative() || s.Pending.IsNegative() {
		return fmt.Errorf("%w: contadores negativos en stock %s", domain.ErrInvariantViolation, s.ID)
	}
	if s.Reserved.GreaterThan(s.Total) {
		return fmt.Errorf("%w: reservado %s supera total %s", domain.ErrInvariantViolation, s.Reserved, s.Total)
	}
	if r := s.Queue.Sum(entity.AllocationReserved); !r.Equal(s.Reserved) {
		return fmt.Errorf("%w: reservado %s != suma de reservas %s", domain.ErrInvariantViolation, s.Reserved, r)
	}
	if p := s.Queue.Sum(entity.AllocationPending); !p.Equal(s.Pending) {
		return fmt.Errorf("%w: pendiente %s != suma de pendientes %s", domain.ErrInvariantViolation, s.Pending, p)
	}
	var bad error
	s.Queue.Each(func(a *entity.Allocation) bool {
		if !a.Quantity.IsPositive() {
			bad = fmt.Errorf("%w: asignación de %s con cantidad %s", domain.ErrInvariantViolation, a.OrderID, a.Quantity)
			return false
		}
		return true
	})
	return bad
}
