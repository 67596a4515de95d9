package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecoloopkenya/ecoloop/internal/model"
)

// orderRow maps 1:1 to the orders table; line items are a JSON column.
type orderRow struct {
	ID          int64     `db:"id"`
	PublicID    string    `db:"public_id"`
	BuyerEmail  string    `db:"buyer_email"`
	SellerEmail string    `db:"seller_email"`
	ItemsJSON   string    `db:"items_json"`
	Total       float64   `db:"total"`
	Status      string    `db:"status"`
	UpdatedBy   string    `db:"updated_by"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r orderRow) toModel() (model.Order, error) {
	o := model.Order{
		ID:          r.ID,
		PublicID:    r.PublicID,
		BuyerEmail:  r.BuyerEmail,
		SellerEmail: r.SellerEmail,
		Total:       r.Total,
		Status:      r.Status,
		UpdatedBy:   r.UpdatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.ItemsJSON != "" && r.ItemsJSON != "[]" {
		if err := json.Unmarshal([]byte(r.ItemsJSON), &o.Items); err != nil {
			return model.Order{}, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	if o.Items == nil {
		o.Items = []model.OrderItem{}
	}
	return o, nil
}

// CreateOrder inserts a new order. The ID, CreatedAt, and UpdatedAt fields
// are populated after a successful insert.
func (s *Store) CreateOrder(ctx context.Context, o *model.Order) error {
	now := time.Now().UTC()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = model.OrderPending
	}

	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal order items: %w", err)
	}

	q := s.rebind(`INSERT INTO orders
		(public_id, buyer_email, seller_email, items_json, total, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	if err := s.db.QueryRowxContext(ctx, q,
		o.PublicID, o.BuyerEmail, o.SellerEmail, string(items), o.Total, o.Status,
		o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetOrderByPublicID returns an order by its public UUID.
func (s *Store) GetOrderByPublicID(ctx context.Context, publicID string) (*model.Order, error) {
	var row orderRow
	q := s.rebind("SELECT * FROM orders WHERE public_id = ?")
	if err := s.db.GetContext(ctx, &row, q, publicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// OrderFilter narrows ListOrders. Zero values match everything.
type OrderFilter struct {
	Status      string
	BuyerEmail  string
	SellerEmail string
}

// ListOrders returns a page of orders, newest first, with the total count for
// the filter.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter, page, limit int) ([]model.Order, int64, error) {
	where := ""
	args := []interface{}{}
	and := func(clause string, val interface{}) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, val)
	}
	if f.Status != "" {
		and("status = ?", f.Status)
	}
	if f.BuyerEmail != "" {
		and("buyer_email = ?", f.BuyerEmail)
	}
	if f.SellerEmail != "" {
		and("seller_email = ?", f.SellerEmail)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, s.rebind("SELECT COUNT(*) FROM orders"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	q := s.rebind("SELECT * FROM orders" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args = append(args, limit, (page-1)*limit)

	var rows []orderRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]model.Order, 0, len(rows))
	for _, r := range rows {
		o, err := r.toModel()
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, nil
}

// UpdateOrderStatus transitions an order and records who moved it.
func (s *Store) UpdateOrderStatus(ctx context.Context, publicID, status, updatedBy string) error {
	q := s.rebind("UPDATE orders SET status = ?, updated_by = ?, updated_at = ? WHERE public_id = ?")
	result, err := s.db.ExecContext(ctx, q, status, updatedBy, time.Now().UTC(), publicID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return requireRow(result)
}

// CountOrders returns the total number of orders.
func (s *Store) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM orders"); err != nil {
		return 0, fmt.Errorf("count orders: %w", err)
	}
	return count, nil
}

// CompletedRevenue sums the totals of all completed orders.
func (s *Store) CompletedRevenue(ctx context.Context) (float64, error) {
	var revenue sql.NullFloat64
	q := s.rebind("SELECT SUM(total) FROM orders WHERE status = ?")
	if err := s.db.GetContext(ctx, &revenue, q, model.OrderCompleted); err != nil {
		return 0, fmt.Errorf("sum completed revenue: %w", err)
	}
	return revenue.Float64, nil
}
