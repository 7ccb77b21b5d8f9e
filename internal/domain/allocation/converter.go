package allocation

import (
	"fmt"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/shopspring/decimal"
)

// ToStockUnits convierte una cantidad comercial (m², metros) a unidades de stock.
// NuevaCantidad = Cantidad * Factor, sin redondeo.
func ToStockUnits(quantity, factor decimal.Decimal) (decimal.Decimal, error) {
	if !factor.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: factor de conversión %s", domain.ErrInvalidInput, factor)
	}
	if quantity.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: cantidad negativa %s", domain.ErrInvalidInput, quantity)
	}
	return quantity.Mul(factor), nil
}

// MovementValue valoriza un movimiento: |cantidad en stock| / factor * precio unitario comercial.
// Devuelve cero si el factor no es positivo.
func MovementValue(stockQuantity, factor, unitPrice decimal.Decimal) decimal.Decimal {
	if !factor.IsPositive() {
		return decimal.Zero
	}
	return stockQuantity.Abs().Div(factor).Mul(unitPrice)
}
