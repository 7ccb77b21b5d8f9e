package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

// StockUseCase alta y consulta de stocks. Las mutaciones de cantidades pasan por AllocationService.
type StockUseCase struct {
	txRunner TxRunner
	stocks   repository.StockRepository
	models   repository.ModelCatalog
}

// NewStockUseCase construye el caso de uso.
func NewStockUseCase(txRunner TxRunner, stocks repository.StockRepository, models repository.ModelCatalog) *StockUseCase {
	return &StockUseCase{txRunner: txRunner, stocks: stocks, models: models}
}

// CreateForModel crea el stock de un modelo en cero e inactivo. Un modelo tiene un único stock.
func (uc *StockUseCase) CreateForModel(ctx context.Context, modelID, unit string) (*entity.StockItem, error) {
	if modelID == "" {
		return nil, domain.ErrInvalidInput
	}
	model, err := uc.models.GetByID(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, domain.ErrNotFound
	}
	if model.RetiredAt != nil {
		return nil, fmt.Errorf("%w: el modelo fue dado de baja", domain.ErrConflict)
	}
	existing, err := uc.stocks.GetByModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now().UTC()
	st := &entity.StockItem{
		ID:        uuid.New().String(),
		ModelID:   model.ID,
		Product:   model.Product,
		Model:     model.Model,
		Unit:      unit,
		Total:     decimal.Zero,
		Reserved:  decimal.Zero,
		Pending:   decimal.Zero,
		Active:    false,
		Queue:     entity.NewAllocationQueue(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.stocks.Create(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Get obtiene un stock con su cola de asignaciones.
func (uc *StockUseCase) Get(ctx context.Context, id string) (*entity.StockItem, error) {
	st, err := uc.stocks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

// List lista los stocks; activeOnly filtra los inactivos.
func (uc *StockUseCase) List(ctx context.Context, activeOnly bool) ([]*entity.StockItem, error) {
	return uc.stocks.List(ctx, activeOnly)
}

// Delete borra un stock sin asignaciones. Con asignaciones vivas devuelve ErrConflict:
// primero hay que liberar o entregar los pedidos.
func (uc *StockUseCase) Delete(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(
		stockRepo repository.StockRepository,
		_ repository.StockMovementRepository,
		_ repository.OrderRepository,
	) error {
		st, err := stockRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if st == nil {
			return domain.ErrNotFound
		}
		if n := st.Queue.Len(); n > 0 {
			return fmt.Errorf("%w: el stock tiene %d asignaciones", domain.ErrConflict, n)
		}
		return stockRepo.Delete(ctx, id)
	})
}
