package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo ledger de stock sobre PostgreSQL (usable con pool o tx).
// Contadores en stock_items; la cola en stock_allocations, ordenada por position.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `id, model_id, product, model, unit, total, reserved, pending, active, created_at, updated_at`

func scanStock(row pgx.Row) (*entity.StockItem, error) {
	var s entity.StockItem
	err := row.Scan(&s.ID, &s.ModelID, &s.Product, &s.Model, &s.Unit,
		&s.Total, &s.Reserved, &s.Pending, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// getOne lee una fila y su cola. suffix agrega FOR UPDATE cuando corresponde.
func (r *StockRepo) getOne(ctx context.Context, where, suffix string, arg any) (*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_items WHERE ` + where + suffix
	s, err := scanStock(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	queues, err := r.loadQueues(ctx, []string{s.ID})
	if err != nil {
		return nil, err
	}
	s.Queue = queues[s.ID]
	return s, nil
}

func (r *StockRepo) loadQueues(ctx context.Context, ids []string) (map[string]*entity.AllocationQueue, error) {
	rows, err := r.q.Query(ctx, `
		SELECT stock_id, order_id, quantity, state, created_at
		FROM stock_allocations WHERE stock_id = ANY($1)
		ORDER BY stock_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("load allocations: %w", err)
	}
	defer rows.Close()
	out := make(map[string]*entity.AllocationQueue, len(ids))
	for _, id := range ids {
		out[id] = entity.NewAllocationQueue()
	}
	for rows.Next() {
		var (
			stockID string
			a       entity.Allocation
		)
		if err := rows.Scan(&stockID, &a.OrderID, &a.Quantity, &a.State, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		if err := out[stockID].Push(&a); err != nil {
			return nil, fmt.Errorf("load allocations: %w", err)
		}
	}
	return out, rows.Err()
}

// Get devuelve nil, nil si el stock no existe.
func (r *StockRepo) Get(ctx context.Context, id string) (*entity.StockItem, error) {
	s, err := r.getOne(ctx, "id = $1", "", id)
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el stock y bloquea la fila para update (SELECT FOR UPDATE).
// La cola se lee después del bloqueo, así que es la vigente.
func (r *StockRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockItem, error) {
	s, err := r.getOne(ctx, "id = $1", " FOR UPDATE", id)
	if err != nil {
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

func (r *StockRepo) GetByModel(ctx context.Context, modelID string) (*entity.StockItem, error) {
	s, err := r.getOne(ctx, "model_id = $1", "", modelID)
	if err != nil {
		return nil, fmt.Errorf("get stock by model: %w", err)
	}
	return s, nil
}

func (r *StockRepo) Create(ctx context.Context, s *entity.StockItem) error {
	query := `
		INSERT INTO stock_items (` + stockColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query, s.ID, s.ModelID, s.Product, s.Model, s.Unit,
		s.Total, s.Reserved, s.Pending, s.Active, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create stock: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("create stock: %w", err)
	}
	return r.writeQueue(ctx, s)
}

// Update persiste contadores y reescribe la cola completa en su orden actual.
func (r *StockRepo) Update(ctx context.Context, s *entity.StockItem) error {
	s.UpdatedAt = time.Now().UTC()
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_items
		SET total = $2, reserved = $3, pending = $4, active = $5, updated_at = $6
		WHERE id = $1`,
		s.ID, s.Total, s.Reserved, s.Pending, s.Active, s.UpdatedAt)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("update stock: %w", domain.ErrInvariantViolation)
		}
		return fmt.Errorf("update stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update stock: %w", domain.ErrNotFound)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_allocations WHERE stock_id = $1`, s.ID); err != nil {
		return fmt.Errorf("update stock: clear allocations: %w", err)
	}
	return r.writeQueue(ctx, s)
}

func (r *StockRepo) writeQueue(ctx context.Context, s *entity.StockItem) error {
	if s.Queue.Len() == 0 {
		return nil
	}
	rows := make([][]any, 0, s.Queue.Len())
	for i, a := range s.Queue.Items() {
		rows = append(rows, []any{s.ID, a.OrderID, i, a.Quantity, string(a.State), a.CreatedAt})
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"stock_allocations"},
		[]string{"stock_id", "order_id", "position", "quantity", "state", "created_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("write allocations: %w", err)
	}
	return nil
}

// Delete borra el stock. La FK de stock_allocations (RESTRICT) impide borrarlo con asignaciones.
func (r *StockRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_items WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete stock: %w: tiene asignaciones", domain.ErrConflict)
		}
		return fmt.Errorf("delete stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete stock: %w", domain.ErrNotFound)
	}
	return nil
}

// List lista los stocks ordenados por producto y modelo.
func (r *StockRepo) List(ctx context.Context, activeOnly bool) ([]*entity.StockItem, error) {
	query := `SELECT ` + stockColumns + ` FROM stock_items`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY product, model`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	defer rows.Close()
	var (
		list []*entity.StockItem
		ids  []string
	)
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}
	queues, err := r.loadQueues(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		s.Queue = queues[s.ID]
	}
	return list, nil
}
