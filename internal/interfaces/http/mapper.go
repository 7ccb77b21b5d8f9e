package http

import (
	"github.com/jhoicas/stock-allocation/internal/application/dto"
	"github.com/jhoicas/stock-allocation/internal/application/stock"
	"github.com/jhoicas/stock-allocation/internal/application/traceability"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

func toOrderInput(in dto.OrderRequest) stock.OrderInput {
	lines := make([]entity.OrderLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, entity.OrderLine{
			StockID:         l.StockID,
			ModelID:         l.ModelID,
			Quantity:        l.Quantity,
			Unit:            l.Unit,
			MaterialVariant: l.MaterialVariant,
			Comment:         l.Comment,
			PriceID:         l.PriceID,
		})
	}
	return stock.OrderInput{
		Remito:            in.Remito,
		Type:              entity.OrderType(in.Type),
		VendorID:          in.VendorID,
		Client:            entity.Client{Name: in.Client.Name, Address: in.Client.Address, Contact: in.Client.Contact},
		Comment:           in.Comment,
		Lines:             lines,
		Status:            entity.OrderStatus(in.Status),
		PaymentMethod:     in.PaymentMethod,
		Origin:            in.Origin,
		OrderDate:         in.OrderDate,
		EstimatedDelivery: in.EstimatedDelivery,
		Total:             in.Total,
	}
}

func toOrderResponse(o *entity.Order) dto.OrderResponse {
	out := dto.OrderResponse{
		ID:                o.ID,
		Remito:            o.Remito,
		Type:              string(o.Type),
		VendorID:          o.VendorID,
		Client:            dto.ClientDTO{Name: o.Client.Name, Address: o.Client.Address, Contact: o.Client.Contact},
		Comment:           o.Comment,
		Lines:             make([]dto.OrderLineResponse, 0, len(o.Lines)),
		Status:            string(o.Status),
		PaymentMethod:     o.PaymentMethod,
		Origin:            o.Origin,
		OrderDate:         o.OrderDate,
		EstimatedDelivery: o.EstimatedDelivery,
		Total:             o.Total,
		Remitos:           make([]dto.RemitoResponse, 0, len(o.Remitos)),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, l := range o.Lines {
		out.Lines = append(out.Lines, dto.OrderLineResponse{
			StockID:         l.StockID,
			ModelID:         l.ModelID,
			Quantity:        l.Quantity,
			Unit:            l.Unit,
			MaterialVariant: l.MaterialVariant,
			Comment:         l.Comment,
			StockState:      string(l.StockState),
			PriceID:         l.PriceID,
		})
	}
	for _, d := range o.Remitos {
		out.Remitos = append(out.Remitos, dto.RemitoResponse{URL: d.URL, CreatedAt: d.CreatedAt})
	}
	return out
}

func toOrderResult(res *stock.OrderResult) dto.OrderResultResponse {
	out := dto.OrderResultResponse{
		Order:   toOrderResponse(res.Order),
		Skipped: make([]dto.SkippedLineResponse, 0, len(res.Skipped)),
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, dto.SkippedLineResponse{Index: s.Index, StockID: s.StockID, ModelID: s.ModelID, Reason: s.Reason})
	}
	return out
}

func toStockResponse(s *entity.StockItem) dto.StockResponse {
	out := dto.StockResponse{
		ID:        s.ID,
		ModelID:   s.ModelID,
		Product:   s.Product,
		Model:     s.Model,
		Unit:      s.Unit,
		Total:     s.Total,
		Reserved:  s.Reserved,
		Pending:   s.Pending,
		Available: s.Available(),
		Active:    s.Active,
		Queue:     make([]dto.AllocationResponse, 0, s.Queue.Len()),
		UpdatedAt: s.UpdatedAt,
	}
	s.Queue.Each(func(a *entity.Allocation) bool {
		out.Queue = append(out.Queue, dto.AllocationResponse{
			OrderID:   a.OrderID,
			Quantity:  a.Quantity,
			State:     string(a.State),
			CreatedAt: a.CreatedAt,
		})
		return true
	})
	return out
}

func toSnapshot(s entity.Snapshot) dto.SnapshotDTO {
	return dto.SnapshotDTO{Stock: s.Stock, Reserved: s.Reserved, Pending: s.Pending}
}

func toMovementResponse(m *entity.StockMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID,
		StockID:     m.StockID,
		ModelID:     m.ModelID,
		OrderID:     m.OrderID,
		Product:     m.Product,
		Model:       m.Model,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		Before:      toSnapshot(m.Before),
		After:       toSnapshot(m.After),
		Remito:      m.Remito,
		ClientName:  m.ClientName,
		VendorID:    m.VendorID,
		OrderStatus: string(m.OrderStatus),
		UnitPrice:   m.UnitPrice,
		TotalValue:  m.TotalValue,
		Actor:       m.Actor,
		Reason:      m.Reason,
		CreatedAt:   m.CreatedAt,
	}
}

func toMovements(list []*entity.StockMovement) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovementResponse(m))
	}
	return out
}

func toStats(list []repository.MovementTypeStats) []dto.MovementStatsResponse {
	out := make([]dto.MovementStatsResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.MovementStatsResponse{
			Type:          string(s.Type),
			Count:         s.Count,
			TotalQuantity: s.TotalQuantity,
			TotalValue:    s.TotalValue,
		})
	}
	return out
}

func toOrderTrace(tr *traceability.OrderTrace) dto.OrderTraceResponse {
	out := dto.OrderTraceResponse{
		OrderID:   tr.OrderID,
		Movements: toMovements(tr.Movements),
		Summary:   make([]dto.TypeSummaryResponse, 0, len(tr.Summary)),
		First:     tr.First,
		Last:      tr.Last,
	}
	for _, s := range tr.Summary {
		out.Summary = append(out.Summary, dto.TypeSummaryResponse{Type: string(s.Type), Count: s.Count, Quantity: s.Quantity})
	}
	return out
}

func toChainReport(rep *traceability.ChainReport) dto.ChainReportResponse {
	out := dto.ChainReportResponse{
		StockID:       rep.StockID,
		Checked:       rep.Checked,
		Valid:         rep.Break == nil && rep.MatchesLedger,
		MatchesLedger: rep.MatchesLedger,
	}
	if b := rep.Break; b != nil {
		out.Break = &dto.ChainBreakResponse{
			Index:      b.Index,
			MovementID: b.MovementID,
			Expected:   toSnapshot(b.Expected),
			Got:        toSnapshot(b.Got),
		}
	}
	return out
}
