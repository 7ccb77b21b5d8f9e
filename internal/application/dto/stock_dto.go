package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockRequest body para POST /api/stocks.
type CreateStockRequest struct {
	ModelID string `json:"model_id" validate:"required"`
	Unit    string `json:"unit"`
}

// ProductionRequest body para POST /api/stocks/:id/production.
type ProductionRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Reason   string          `json:"reason,omitempty"`
}

// AdjustmentRequest body para POST /api/stocks/:id/adjustment. Delta con signo.
type AdjustmentRequest struct {
	Delta  decimal.Decimal `json:"delta"`
	Reason string          `json:"reason"`
}

// SetTotalRequest body para PUT /api/stocks/:id/total (edición directa del stock).
type SetTotalRequest struct {
	Total  decimal.Decimal `json:"total"`
	Reason string          `json:"reason,omitempty"`
}

// SetActiveRequest body para PUT /api/stocks/:id/active.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// AllocationResponse entrada de la cola de asignaciones.
type AllocationResponse struct {
	OrderID   string          `json:"order_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	State     string          `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// StockResponse ledger de un stock con su cola en orden de llegada.
type StockResponse struct {
	ID        string               `json:"id"`
	ModelID   string               `json:"model_id"`
	Product   string               `json:"product"`
	Model     string               `json:"model"`
	Unit      string               `json:"unit"`
	Total     decimal.Decimal      `json:"total"`
	Reserved  decimal.Decimal      `json:"reserved"`
	Pending   decimal.Decimal      `json:"pending"`
	Available decimal.Decimal      `json:"available"`
	Active    bool                 `json:"active"`
	Queue     []AllocationResponse `json:"queue"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// StockListResponse lista de stocks.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Total int             `json:"total"`
}
