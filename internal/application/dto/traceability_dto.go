package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotDTO contadores antes o después de un movimiento.
type SnapshotDTO struct {
	Stock    decimal.Decimal `json:"stock"`
	Reserved decimal.Decimal `json:"reservado"`
	Pending  decimal.Decimal `json:"pendiente"`
}

// MovementResponse registro del log de trazabilidad.
type MovementResponse struct {
	ID          string           `json:"id"`
	StockID     string           `json:"stock_id"`
	ModelID     string           `json:"model_id"`
	OrderID     string           `json:"order_id,omitempty"`
	Product     string           `json:"product"`
	Model       string           `json:"model"`
	Type        string           `json:"type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Before      SnapshotDTO      `json:"before"`
	After       SnapshotDTO      `json:"after"`
	Remito      string           `json:"remito,omitempty"`
	ClientName  string           `json:"client_name,omitempty"`
	VendorID    string           `json:"vendor_id,omitempty"`
	OrderStatus string           `json:"order_status,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	TotalValue  *decimal.Decimal `json:"total_value,omitempty"`
	Actor       string           `json:"actor"`
	Reason      string           `json:"reason"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// MovementStatsResponse agregado por tipo.
type MovementStatsResponse struct {
	Type          string          `json:"type"`
	Count         int             `json:"count"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

type TypeSummaryResponse struct {
	Type     string          `json:"type"`
	Count    int             `json:"count"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OrderTraceResponse historia completa de un pedido.
type OrderTraceResponse struct {
	OrderID   string                `json:"order_id"`
	Movements []MovementResponse    `json:"movements"`
	Summary   []TypeSummaryResponse `json:"summary"`
	First     *time.Time            `json:"first,omitempty"`
	Last      *time.Time            `json:"last,omitempty"`
}

type ChainBreakResponse struct {
	Index      int         `json:"index"`
	MovementID string      `json:"movement_id"`
	Expected   SnapshotDTO `json:"expected"`
	Got        SnapshotDTO `json:"got"`
}

// ChainReportResponse resultado de verificar la cadena de auditoría de un stock.
type ChainReportResponse struct {
	StockID       string              `json:"stock_id"`
	Checked       int                 `json:"checked"`
	Valid         bool                `json:"valid"`
	Break         *ChainBreakResponse `json:"break,omitempty"`
	MatchesLedger bool                `json:"matches_ledger"`
}
