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

// productRow maps 1:1 to the products table; images are a JSON column.
type productRow struct {
	ID              int64      `db:"id"`
	PublicID        string     `db:"public_id"`
	SellerEmail     string     `db:"seller_email"`
	StoreName       string     `db:"store_name"`
	Name            string     `db:"name"`
	Description     string     `db:"description"`
	Price           float64    `db:"price"`
	Category        string     `db:"category"`
	Stock           int        `db:"stock"`
	ImagesJSON      string     `db:"images_json"`
	Status          string     `db:"status"`
	ApprovedBy      string     `db:"approved_by"`
	ApprovedAt      *time.Time `db:"approved_at"`
	RejectedBy      string     `db:"rejected_by"`
	RejectedAt      *time.Time `db:"rejected_at"`
	RejectionReason string     `db:"rejection_reason"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (r productRow) toModel() (model.Product, error) {
	p := model.Product{
		ID:              r.ID,
		PublicID:        r.PublicID,
		SellerEmail:     r.SellerEmail,
		StoreName:       r.StoreName,
		Name:            r.Name,
		Description:     r.Description,
		Price:           r.Price,
		Category:        r.Category,
		Stock:           r.Stock,
		Status:          r.Status,
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		RejectedBy:      r.RejectedBy,
		RejectedAt:      r.RejectedAt,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.ImagesJSON != "" && r.ImagesJSON != "[]" {
		if err := json.Unmarshal([]byte(r.ImagesJSON), &p.Images); err != nil {
			return model.Product{}, fmt.Errorf("unmarshal images: %w", err)
		}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p, nil
}

// CreateProduct inserts a new listing in pending state. The ID, CreatedAt,
// and UpdatedAt fields are populated after a successful insert.
func (s *Store) CreateProduct(ctx context.Context, p *model.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = model.ProductPending
	}

	images, err := json.Marshal(p.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}

	q := s.rebind(`INSERT INTO products
		(public_id, seller_email, store_name, name, description, price,
		 category, stock, images_json, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	if err := s.db.QueryRowxContext(ctx, q,
		p.PublicID, p.SellerEmail, p.StoreName, p.Name, p.Description, p.Price,
		p.Category, p.Stock, string(images), p.Status, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetProductByPublicID returns a product by its public UUID.
func (s *Store) GetProductByPublicID(ctx context.Context, publicID string) (*model.Product, error) {
	var row productRow
	q := s.rebind("SELECT * FROM products WHERE public_id = ?")
	if err := s.db.GetContext(ctx, &row, q, publicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	p, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProductFilter narrows ListProducts. Zero values match everything.
type ProductFilter struct {
	Status      string
	Category    string
	SellerEmail string
}

// ListProducts returns a page of products, newest first, with the total count
// for the filter.
func (s *Store) ListProducts(ctx context.Context, f ProductFilter, page, limit int) ([]model.Product, int64, error) {
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
	if f.Category != "" {
		and("category = ?", f.Category)
	}
	if f.SellerEmail != "" {
		and("seller_email = ?", f.SellerEmail)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, s.rebind("SELECT COUNT(*) FROM products"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	q := s.rebind("SELECT * FROM products" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args = append(args, limit, (page-1)*limit)

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	products := make([]model.Product, 0, len(rows))
	for _, r := range rows {
		p, err := r.toModel()
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, nil
}

// ApproveProduct marks a listing approved with audit metadata.
func (s *Store) ApproveProduct(ctx context.Context, publicID, adminEmail string) error {
	now := time.Now().UTC()
	q := s.rebind(`UPDATE products SET
		status = ?, approved_by = ?, approved_at = ?,
		rejected_by = '', rejected_at = NULL, rejection_reason = '',
		updated_at = ?
		WHERE public_id = ?`)
	result, err := s.db.ExecContext(ctx, q, model.ProductApproved, adminEmail, now, now, publicID)
	if err != nil {
		return fmt.Errorf("approve product: %w", err)
	}
	return requireRow(result)
}

// RejectProduct marks a listing rejected with audit metadata.
func (s *Store) RejectProduct(ctx context.Context, publicID, adminEmail, reason string) error {
	if reason == "" {
		reason = "Product does not meet guidelines"
	}
	now := time.Now().UTC()
	q := s.rebind(`UPDATE products SET
		status = ?, rejected_by = ?, rejected_at = ?, rejection_reason = ?,
		updated_at = ?
		WHERE public_id = ?`)
	result, err := s.db.ExecContext(ctx, q, model.ProductRejected, adminEmail, now, reason, now, publicID)
	if err != nil {
		return fmt.Errorf("reject product: %w", err)
	}
	return requireRow(result)
}

// CountProducts returns the number of products with the given status, or all
// products when status is empty.
func (s *Store) CountProducts(ctx context.Context, status string) (int64, error) {
	q := "SELECT COUNT(*) FROM products"
	args := []interface{}{}
	if status != "" {
		q += " WHERE status = ?"
		args = append(args, status)
	}
	var count int64
	if err := s.db.GetContext(ctx, &count, s.rebind(q), args...); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}
