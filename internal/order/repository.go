package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	Create(ctx context.Context, userID int64, lines []Line) (Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create prices every line from the current catalog and writes the order header and
// its items in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, userID int64, lines []Line) (Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := Order{UserID: userID, Items: make([]Item, 0, len(lines))}
	for i, line := range lines {
		it := Item{ProductID: line.ProductID, Quantity: line.Quantity}
		err := tx.QueryRow(ctx, `
			SELECT title, price::float8
			FROM products
			WHERE id=$1
			FOR SHARE
		`, line.ProductID).Scan(&it.ProductTitle, &it.Price)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Order{}, &ProductNotFoundError{Index: i, ProductID: line.ProductID}
			}
			return Order{}, fmt.Errorf("load product %d: %w", line.ProductID, err)
		}
		it.Subtotal = roundCents(it.Price * float64(it.Quantity))
		if it.Subtotal > MaxAmount {
			return Order{}, &AmountOutOfRangeError{Index: i, Amount: it.Subtotal}
		}
		o.TotalPrice += it.Subtotal
		o.Items = append(o.Items, it)
	}
	o.TotalPrice = roundCents(o.TotalPrice)
	if o.TotalPrice > MaxAmount {
		return Order{}, &AmountOutOfRangeError{Index: -1, Amount: o.TotalPrice}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, total_price)
		VALUES ($1, $2)
		RETURNING id, ordered_at
	`, userID, o.TotalPrice).Scan(&o.ID, &o.OrderedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		it.OrderID = o.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, product_title, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, o.ID, it.ProductID, it.ProductTitle, it.Quantity, it.Price, it.Subtotal).Scan(&it.ID)
		if err != nil {
			return Order{}, fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first, each with its items.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, total_price::float8, ordered_at
		FROM orders
		WHERE user_id=$1
		ORDER BY ordered_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	orders := []Order{}
	index := map[int64]int{}
	for rows.Next() {
		o := Order{Items: []Item{}}
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalPrice, &o.OrderedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}

	itemRows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, product_title, quantity, price::float8, subtotal::float8
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var it Item
		if err := itemRows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductTitle, &it.Quantity, &it.Price, &it.Subtotal); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return orders, nil
}
