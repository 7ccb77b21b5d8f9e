package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-allocation/internal/domain"
	"github.com/jhoicas/stock-allocation/internal/domain/entity"
	"github.com/jhoicas/stock-allocation/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo pedidos sobre PostgreSQL: cabecera en orders, líneas en order_lines y remitos en order_remitos.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

func (r *OrderRepo) Create(ctx context.Context, o *entity.Order) error {
	query := `
		INSERT INTO orders (id, remito, type, vendor_id, client_name, client_address, client_contact, comment,
		                    status, payment_method, origin, order_date, estimated_delivery, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Remito, string(o.Type), o.VendorID, o.Client.Name, o.Client.Address, o.Client.Contact, o.Comment,
		string(o.Status), o.PaymentMethod, o.Origin, o.OrderDate, o.EstimatedDelivery, o.Total, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create order: %w", domain.ErrDuplicate)
		}
		return fmt.Errorf("create order: %w", err)
	}
	if err := r.insertLines(ctx, o); err != nil {
		return err
	}
	for _, d := range o.Remitos {
		if err := r.AddRemito(ctx, o.ID, d); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) insertLines(ctx context.Context, o *entity.Order) error {
	if len(o.Lines) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(o.Lines))
	for i, l := range o.Lines {
		rows = append(rows, []any{
			o.ID, i, nullable(l.StockID), nullable(l.ModelID), l.Quantity, l.Unit,
			l.MaterialVariant, l.Comment, string(l.StockState), nullable(l.PriceID),
		})
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"order_lines"},
		[]string{"order_id", "line_no", "stock_id", "model_id", "quantity", "unit", "material_variant", "comment", "stock_state", "price_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert order lines: %w", err)
	}
	return nil
}

const orderColumns = `id, remito, type, vendor_id, client_name, client_address, client_contact, comment,
	status, payment_method, origin, order_date, estimated_delivery, total, created_at, updated_at`

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var (
		o           entity.Order
		typ, status string
	)
	err := row.Scan(
		&o.ID, &o.Remito, &typ, &o.VendorID, &o.Client.Name, &o.Client.Address, &o.Client.Contact, &o.Comment,
		&status, &o.PaymentMethod, &o.Origin, &o.OrderDate, &o.EstimatedDelivery, &o.Total, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Type = entity.OrderType(typ)
	o.Status = entity.OrderStatus(status)
	return &o, nil
}

// GetByID devuelve nil, nil si el pedido no existe.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := r.loadDetails(ctx, []*entity.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

// List pagina los pedidos del más reciente al más antiguo y carga líneas y remitos en bloque.
func (r *OrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	var (
		conds []string
		args  []any
	)
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY order_date DESC, id`
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
		return nil, fmt.Errorf("list orders: %w", err)
	}
	list := make([]*entity.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}
	if err := r.loadDetails(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// loadDetails completa líneas y remitos de los pedidos con una consulta por tabla.
func (r *OrderRepo) loadDetails(ctx context.Context, orders []*entity.Order) error {
	byID := make(map[string]*entity.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.q.Query(ctx, `
		SELECT order_id, stock_id, model_id, quantity, unit, material_variant, comment, stock_state, price_id
		FROM order_lines WHERE order_id = ANY($1) ORDER BY order_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("get order lines: %w", err)
	}
	for rows.Next() {
		var (
			orderID                   string
			l                         entity.OrderLine
			stockID, modelID, priceID *string
			state                     string
		)
		if err := rows.Scan(&orderID, &stockID, &modelID, &l.Quantity, &l.Unit, &l.MaterialVariant, &l.Comment, &state, &priceID); err != nil {
			rows.Close()
			return fmt.Errorf("scan order line: %w", err)
		}
		l.StockID, l.ModelID, l.PriceID = deref(stockID), deref(modelID), deref(priceID)
		l.StockState = entity.LineStockState(state)
		byID[orderID].Lines = append(byID[orderID].Lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("get order lines: %w", err)
	}

	rows, err = r.q.Query(ctx, `
		SELECT order_id, url, created_at FROM order_remitos WHERE order_id = ANY($1) ORDER BY order_id, id`, ids)
	if err != nil {
		return fmt.Errorf("get order remitos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			d       entity.RemitoDoc
		)
		if err := rows.Scan(&orderID, &d.URL, &d.CreatedAt); err != nil {
			return fmt.Errorf("scan remito: %w", err)
		}
		byID[orderID].Remitos = append(byID[orderID].Remitos, d)
	}
	return rows.Err()
}

// Update reemplaza cabecera y líneas. Los remitos sólo se agregan con AddRemito.
func (r *OrderRepo) Update(ctx context.Context, o *entity.Order) error {
	query := `
		UPDATE orders SET remito = $2, type = $3, vendor_id = $4, client_name = $5, client_address = $6,
		       client_contact = $7, comment = $8, status = $9, payment_method = $10, origin = $11,
		       order_date = $12, estimated_delivery = $13, total = $14, updated_at = $15
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		o.ID, o.Remito, string(o.Type), o.VendorID, o.Client.Name, o.Client.Address,
		o.Client.Contact, o.Comment, string(o.Status), o.PaymentMethod, o.Origin,
		o.OrderDate, o.EstimatedDelivery, o.Total, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update order: %w", domain.ErrNotFound)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM order_lines WHERE order_id = $1`, o.ID); err != nil {
		return fmt.Errorf("update order: clear lines: %w", err)
	}
	return r.insertLines(ctx, o)
}

func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete order: %w", domain.ErrNotFound)
	}
	return nil
}

// SetLineStockState no falla si el pedido no existe: simplemente no hay filas que actualizar.
func (r *OrderRepo) SetLineStockState(ctx context.Context, orderID, stockID string, state entity.LineStockState) error {
	_, err := r.q.Exec(ctx,
		`UPDATE order_lines SET stock_state = $3 WHERE order_id = $1 AND stock_id = $2`,
		orderID, stockID, string(state))
	if err != nil {
		return fmt.Errorf("set line stock state: %w", err)
	}
	return nil
}

func (r *OrderRepo) SetStatus(ctx context.Context, id string, status entity.OrderStatus) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set order status: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *OrderRepo) AddRemito(ctx context.Context, id string, doc entity.RemitoDoc) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO order_remitos (order_id, url, created_at) VALUES ($1, $2, $3)`,
		id, doc.URL, doc.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("add remito: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("add remito: %w", err)
	}
	return nil
}
