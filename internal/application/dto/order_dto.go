package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClientDTO datos del cliente del pedido.
type ClientDTO struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// OrderLineRequest línea en unidad comercial. Se indica stock_id o model_id.
type OrderLineRequest struct {
	StockID         string          `json:"stock_id,omitempty"`
	ModelID         string          `json:"model_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit,omitempty"`
	MaterialVariant string          `json:"material_variant,omitempty"`
	Comment         string          `json:"comment,omitempty"`
	PriceID         string          `json:"price_id,omitempty"`
}

// OrderRequest body para POST /api/orders y PUT /api/orders/:id.
type OrderRequest struct {
	Remito            string             `json:"remito"`
	Type              string             `json:"type" validate:"required,oneof=pedido presupuesto"`
	VendorID          string             `json:"vendor_id"`
	Client            ClientDTO          `json:"client"`
	Comment           string             `json:"comment,omitempty"`
	Lines             []OrderLineRequest `json:"lines" validate:"required,min=1"`
	Status            string             `json:"status,omitempty"`
	PaymentMethod     string             `json:"payment_method,omitempty"`
	Origin            string             `json:"origin,omitempty"`
	OrderDate         *time.Time         `json:"order_date,omitempty"`
	EstimatedDelivery *time.Time         `json:"estimated_delivery,omitempty"`
	Total             decimal.Decimal    `json:"total"`
}

// RemitoRequest body para POST /api/orders/:id/remito.
type RemitoRequest struct {
	URL string `json:"url" validate:"required"`
}

// OrderLineResponse línea con su estado de stock proyectado.
type OrderLineResponse struct {
	StockID         string          `json:"stock_id,omitempty"`
	ModelID         string          `json:"model_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit,omitempty"`
	MaterialVariant string          `json:"material_variant,omitempty"`
	Comment         string          `json:"comment,omitempty"`
	StockState      string          `json:"stock_state"`
	PriceID         string          `json:"price_id,omitempty"`
}

type RemitoResponse struct {
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderResponse salida de un pedido.
type OrderResponse struct {
	ID                string              `json:"id"`
	Remito            string              `json:"remito"`
	Type              string              `json:"type"`
	VendorID          string              `json:"vendor_id"`
	Client            ClientDTO           `json:"client"`
	Comment           string              `json:"comment,omitempty"`
	Lines             []OrderLineResponse `json:"lines"`
	Status            string              `json:"status"`
	PaymentMethod     string              `json:"payment_method,omitempty"`
	Origin            string              `json:"origin,omitempty"`
	OrderDate         time.Time           `json:"order_date"`
	EstimatedDelivery *time.Time          `json:"estimated_delivery,omitempty"`
	Total             decimal.Decimal     `json:"total"`
	Remitos           []RemitoResponse    `json:"remitos"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// SkippedLineResponse línea que no se pudo asignar. Index -1 indica un stock que desapareció durante la operación.
type SkippedLineResponse struct {
	Index   int    `json:"index"`
	StockID string `json:"stock_id,omitempty"`
	ModelID string `json:"model_id,omitempty"`
	Reason  string `json:"reason"`
}

// OrderResultResponse pedido persistido más las líneas omitidas.
type OrderResultResponse struct {
	Order   OrderResponse         `json:"order"`
	Skipped []SkippedLineResponse `json:"skipped"`
}

// OrderListResponse página de pedidos.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}
