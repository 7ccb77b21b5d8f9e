package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrInvariantViolation = errors.New("violación de invariante de stock")
	ErrNotReserved        = fmt.Errorf("%w: la asignación no está reservada", ErrInvariantViolation)
	ErrAllocationNotFound = fmt.Errorf("%w: asignación inexistente", ErrNotFound)
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// AllocationError describe la operación del motor que falló sobre un stock.
// Soporta errors.Is / errors.As sobre el error envuelto.
type AllocationError struct {
	Op       string
	StockID  string
	OrderID  string
	Quantity decimal.Decimal
	Err      error
}

func (e *AllocationError) Error() string {
	msg := fmt.Sprintf("%s stock=%s", e.Op, e.StockID)
	if e.OrderID != "" {
		msg += " pedido=" + e.OrderID
	}
	if !e.Quantity.IsZero() {
		msg += " cantidad=" + e.Quantity.String()
	}
	return msg + ": " + e.Err.Error()
}

func (e *AllocationError) Unwrap() error { return e.Err }
