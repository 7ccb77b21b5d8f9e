package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-allocation/internal/application/stock"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

var _ stock.TxRunner = (*Store)(nil)

// Store almacenamiento en proceso. Cada stock tiene un candado exclusivo que se toma en
// GetForUpdate y se suelta al confirmar o descartar la transacción. Las escrituras de una
// transacción quedan en espera y se aplican juntas en el commit.
type Store struct {
	mu        sync.RWMutex
	stocks    map[string]*entity.StockItem
	locks     map[string]chan struct{}
	movements []*entity.StockMovement
	orders    map[string]*entity.Order
	models    map[string]*entity.ProductModel
	prices    map[string]decimal.Decimal

	failMovements error
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		stocks: make(map[string]*entity.StockItem),
		locks:  make(map[string]chan struct{}),
		orders: make(map[string]*entity.Order),
		models: make(map[string]*entity.ProductModel),
		prices: make(map[string]decimal.Decimal),
	}
}

// FailMovementsWith hace que toda escritura de movimientos falle con err (nil restablece).
func (s *Store) FailMovementsWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failMovements = err
}

// PutModel registra un modelo en el catálogo.
func (s *Store) PutModel(m *entity.ProductModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.models[m.ID] = &cp
}

// PutPrice registra un precio unitario.
func (s *Store) PutPrice(id string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[id] = price
}

func (s *Store) lockFor(id string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

// Run ejecuta fn con repositorios atados a una transacción. Commit si fn no falla; si falla, nada se aplica.
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	orderRepo repository.OrderRepository,
) error) error {
	t := newTx(s)
	defer t.release()
	if err := fn(&StockRepo{s: s, t: t}, &MovementRepo{s: s, t: t}, &OrderRepo{s: s, t: t}); err != nil {
		return err
	}
	return t.commit()
}

// Stocks repositorio de stocks fuera de transacción (cada escritura confirma sola).
func (s *Store) Stocks() *StockRepo { return &StockRepo{s: s} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Orders repositorio de pedidos fuera de transacción.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s: s} }

// Models catálogo de modelos.
func (s *Store) Models() *ModelCatalog { return &ModelCatalog{s: s} }

// Prices catálogo de precios.
func (s *Store) Prices() *PriceCatalog { return &PriceCatalog{s: s} }
