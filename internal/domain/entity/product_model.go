package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductModel registro del catálogo de modelos. UnitsPerCommercialUnit convierte
// la unidad comercial del pedido (m², metros) a unidades de stock (placas).
type ProductModel struct {
	ID                     string
	Product                string
	Model                  string
	Width                  decimal.Decimal
	Height                 decimal.Decimal
	Type                   string
	UnitsPerCommercialUnit decimal.Decimal
	RetiredAt              *time.Time
	CreatedAt              time.Time
}
