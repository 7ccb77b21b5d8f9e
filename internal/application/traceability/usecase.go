package traceability

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
	"github.com/jhoicas/stock-allocation/pkg/textnorm"
)

// Límites por defecto de las consultas.
const (
	DefaultLimit      = 50
	DefaultRangeLimit = 100
	MaxLimit          = 500
)

// UseCase consultas de sólo lectura sobre el log de movimientos.
type UseCase struct {
	movements repository.StockMovementRepository
	stocks    repository.StockRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(movements repository.StockMovementRepository, stocks repository.StockRepository) *UseCase {
	return &UseCase{movements: movements, stocks: stocks}
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ByStock movimientos de un stock, más recientes primero.
func (uc *UseCase) ByStock(ctx context.Context, stockID string, limit, offset int) ([]*entity.StockMovement, error) {
	if stockID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movements.Find(ctx, repository.MovementFilter{StockID: stockID, Limit: clampLimit(limit, DefaultLimit), Offset: offset})
}

// ByModel movimientos de un modelo.
func (uc *UseCase) ByModel(ctx context.Context, modelID string, limit, offset int) ([]*entity.StockMovement, error) {
	if modelID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movements.Find(ctx, repository.MovementFilter{ModelID: modelID, Limit: clampLimit(limit, DefaultLimit), Offset: offset})
}

// ByOrder historia completa de un pedido en orden cronológico (sin límite).
func (uc *UseCase) ByOrder(ctx context.Context, orderID string) ([]*entity.StockMovement, error) {
	if orderID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movements.Find(ctx, repository.MovementFilter{OrderID: orderID, Ascending: true})
}

// ByClient movimientos cuyo cliente contiene el nombre (sin distinguir tildes ni mayúsculas).
func (uc *UseCase) ByClient(ctx context.Context, name string, limit, offset int) ([]*entity.StockMovement, error) {
	name = textnorm.Fold(name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movements.Find(ctx, repository.MovementFilter{ClientName: name, Limit: clampLimit(limit, DefaultLimit), Offset: offset})
}

// ByDateRange movimientos entre dos fechas inclusive.
func (uc *UseCase) ByDateRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if from.IsZero() || to.IsZero() || from.After(to) {
		return nil, fmt.Errorf("%w: rango de fechas", domain.ErrInvalidInput)
	}
	return uc.movements.Find(ctx, repository.MovementFilter{From: &from, To: &to, Limit: clampLimit(limit, DefaultRangeLimit), Offset: offset})
}

// ByType movimientos de un tipo.
func (uc *UseCase) ByType(ctx context.Context, t string, limit, offset int) ([]*entity.StockMovement, error) {
	mt := entity.MovementType(t)
	if !mt.Valid() {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, t)
	}
	return uc.movements.Find(ctx, repository.MovementFilter{Type: mt, Limit: clampLimit(limit, DefaultLimit), Offset: offset})
}

// Search búsqueda libre sobre producto, modelo, cliente y remito. Todos los términos deben aparecer.
func (uc *UseCase) Search(ctx context.Context, query string, limit, offset int) ([]*entity.StockMovement, error) {
	terms := textnorm.Terms(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: búsqueda vacía", domain.ErrInvalidInput)
	}
	return uc.movements.Find(ctx, repository.MovementFilter{Terms: terms, Limit: clampLimit(limit, DefaultLimit), Offset: offset})
}

// Stats agregados por tipo en el rango (opcional), ordenados por cantidad de movimientos.
func (uc *UseCase) Stats(ctx context.Context, from, to *time.Time) ([]repository.MovementTypeStats, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, fmt.Errorf("%w: rango de fechas", domain.ErrInvalidInput)
	}
	return uc.movements.Stats(ctx, from, to)
}

// TypeSummary resumen de un tipo dentro de la traza de un pedido.
type TypeSummary struct {
	Type     entity.MovementType
	Count    int
	Quantity decimal.Decimal // suma de valores absolutos
}

// OrderTrace traza completa de un pedido con resumen por tipo.
type OrderTrace struct {
	OrderID   string
	Movements []*entity.StockMovement
	Summary   []TypeSummary
	First     *time.Time
	Last      *time.Time
}

// OrderTrace arma la traza del pedido. Sin movimientos devuelve ErrNotFound.
func (uc *UseCase) OrderTrace(ctx context.Context, orderID string) (*OrderTrace, error) {
	movs, err := uc.ByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(movs) == 0 {
		return nil, domain.ErrNotFound
	}
	tr := &OrderTrace{OrderID: orderID, Movements: movs}
	idx := make(map[entity.MovementType]int)
	for _, m := range movs {
		i, ok := idx[m.Type]
		if !ok {
			i = len(tr.Summary)
			idx[m.Type] = i
			tr.Summary = append(tr.Summary, TypeSummary{Type: m.Type, Quantity: decimal.Zero})
		}
		tr.Summary[i].Count++
		tr.Summary[i].Quantity = tr.Summary[i].Quantity.Add(m.Quantity.Abs())
		t := m.CreatedAt
		if tr.First == nil || t.Before(*tr.First) {
			tr.First = &t
		}
		if tr.Last == nil || t.After(*tr.Last) {
			tr.Last = &t
		}
	}
	return tr, nil
}

// ChainBreak primer par de movimientos consecutivos cuyos contadores no encadenan.
type ChainBreak struct {
	Index      int
	MovementID string
	Expected   entity.Snapshot // posterior del movimiento anterior
	Got        entity.Snapshot // anterior del movimiento
}

// ChainReport resultado de verificar la cadena de auditoría de un stock.
type ChainReport struct {
	StockID       string
	Checked       int
	Break         *ChainBreak
	MatchesLedger bool // el último posterior coincide con los contadores actuales
}

// VerifyChain recorre los movimientos del stock del más viejo al más nuevo y reporta el primer
// movimiento cuyo "anterior" no coincide con el "posterior" del movimiento previo.
func (uc *UseCase) VerifyChain(ctx context.Context, stockID string) (*ChainReport, error) {
	st, err := uc.stocks.Get(ctx, stockID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	movs, err := uc.movements.Find(ctx, repository.MovementFilter{StockID: stockID, Ascending: true})
	if err != nil {
		return nil, err
	}
	rep := &ChainReport{StockID: stockID, Checked: len(movs)}
	for i := 1; i < len(movs); i++ {
		if !movs[i-1].After.Equal(movs[i].Before) {
			rep.Break = &ChainBreak{Index: i, MovementID: movs[i].ID, Expected: movs[i-1].After, Got: movs[i].Before}
			break
		}
	}
	if len(movs) == 0 {
		rep.MatchesLedger = true
	} else {
		rep.MatchesLedger = movs[len(movs)-1].After.Equal(st.Snapshot())
	}
	return rep, nil
}
