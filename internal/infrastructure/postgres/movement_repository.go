package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
	"github.com/jhoicas/stock-allocation/pkg/textnorm"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo log de trazabilidad sobre PostgreSQL. Sólo inserta y lee; seq da el orden cronológico.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, stock_id, model_id, order_id, product, model, type, quantity,
	stock_before, reserved_before, pending_before, stock_after, reserved_after, pending_after,
	remito, client_name, vendor_id, order_status, unit_price, total_value, actor, reason, created_at`

// Create persiste un movimiento junto con sus columnas de búsqueda normalizadas.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `, client_folded, search_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.StockID, m.ModelID, nullable(m.OrderID), m.Product, m.Model, string(m.Type), m.Quantity,
		m.Before.Stock, m.Before.Reserved, m.Before.Pending,
		m.After.Stock, m.After.Reserved, m.After.Pending,
		m.Remito, m.ClientName, m.VendorID, string(m.OrderStatus), m.UnitPrice, m.TotalValue,
		m.Actor, m.Reason, m.CreatedAt,
		textnorm.Fold(m.ClientName),
		textnorm.SearchText(m.Product, m.Model, m.ClientName, m.Remito),
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// movementWhere arma la cláusula WHERE y sus argumentos a partir del filtro.
func movementWhere(f repository.MovementFilter, from, to *time.Time) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.StockID != "" {
		add("stock_id = $%d", f.StockID)
	}
	if f.ModelID != "" {
		add("model_id = $%d", f.ModelID)
	}
	if f.OrderID != "" {
		add("order_id = $%d", f.OrderID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if from != nil {
		add("created_at >= $%d", *from)
	}
	if to != nil {
		add("created_at <= $%d", *to)
	}
	if f.ClientName != "" {
		add(`client_folded LIKE $%d ESCAPE '\'`, containsPattern(textnorm.Fold(f.ClientName)))
	}
	for _, t := range f.Terms {
		add(`search_text LIKE $%d ESCAPE '\'`, containsPattern(t))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m           entity.StockMovement
		orderID     *string
		orderStatus string
	)
	err := row.Scan(
		&m.ID, &m.StockID, &m.ModelID, &orderID, &m.Product, &m.Model, &m.Type, &m.Quantity,
		&m.Before.Stock, &m.Before.Reserved, &m.Before.Pending,
		&m.After.Stock, &m.After.Reserved, &m.After.Pending,
		&m.Remito, &m.ClientName, &m.VendorID, &orderStatus, &m.UnitPrice, &m.TotalValue,
		&m.Actor, &m.Reason, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.OrderID = deref(orderID)
	m.OrderStatus = entity.OrderStatus(orderStatus)
	return &m, nil
}

// Find filtra el log. Sin Ascending devuelve los más recientes primero.
func (r *StockMovementRepo) Find(ctx context.Context, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	where, args := movementWhere(f, f.From, f.To)
	query := `SELECT ` + movementColumns + ` FROM stock_movements` + where
	if f.Ascending {
		query += ` ORDER BY seq ASC`
	} else {
		query += ` ORDER BY seq DESC`
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// Stats agrupa por tipo; orden por cantidad de movimientos desc y luego por tipo.
func (r *StockMovementRepo) Stats(ctx context.Context, from, to *time.Time) ([]repository.MovementTypeStats, error) {
	where, args := movementWhere(repository.MovementFilter{}, from, to)
	query := `
		SELECT type, COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_value), 0)
		FROM stock_movements` + where + `
		GROUP BY type
		ORDER BY COUNT(*) DESC, type`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stock movement stats: %w", err)
	}
	defer rows.Close()
	var out []repository.MovementTypeStats
	for rows.Next() {
		var s repository.MovementTypeStats
		if err := rows.Scan(&s.Type, &s.Count, &s.TotalQuantity, &s.TotalValue); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
