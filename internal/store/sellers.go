package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ecoloopkenya/ecoloop/internal/model"
)

// CreateSeller inserts a new seller application. Both approval columns start
// as pending. The ID, CreatedAt, and UpdatedAt fields are populated after a
// successful insert.
func (s *Store) CreateSeller(ctx context.Context, sl *model.Seller) error {
	now := time.Now().UTC()
	sl.CreatedAt = now
	sl.UpdatedAt = now
	if sl.Status == model.ApprovalUnset {
		sl.Status = model.ApprovalPending
	}
	if sl.ApprovalStatus == model.ApprovalUnset {
		sl.ApprovalStatus = model.ApprovalPending
	}

	q := s.rebind(`INSERT INTO sellers
		(public_id, name, first_name, last_name, email, phone, password,
		 business_name, business_type, business_description, business_address,
		 business_city, business_country, store_name, store_description,
		 store_category, business_license, tax_id, bank_name, account_number,
		 account_name, website, status, approval_status,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	if err := s.db.QueryRowxContext(ctx, q,
		sl.PublicID, sl.Name, sl.FirstName, sl.LastName, sl.Email, sl.Phone, sl.Password,
		sl.BusinessName, sl.BusinessType, sl.BusinessDescription, sl.BusinessAddress,
		sl.BusinessCity, sl.BusinessCountry, sl.StoreName, sl.StoreDescription,
		sl.StoreCategory, sl.BusinessLicense, sl.TaxID, sl.BankName, sl.AccountNumber,
		sl.AccountName, sl.Website, string(sl.Status), string(sl.ApprovalStatus),
		sl.CreatedAt, sl.UpdatedAt,
	).Scan(&sl.ID); err != nil {
		return fmt.Errorf("insert seller: %w", err)
	}
	return nil
}

// GetSellerByEmail returns a seller by email address.
func (s *Store) GetSellerByEmail(ctx context.Context, email string) (*model.Seller, error) {
	var sl model.Seller
	q := s.rebind("SELECT * FROM sellers WHERE email = ?")
	if err := s.db.GetContext(ctx, &sl, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get seller by email: %w", err)
	}
	return &sl, nil
}

// GetSellerByPublicID returns a seller by its public UUID.
func (s *Store) GetSellerByPublicID(ctx context.Context, publicID string) (*model.Seller, error) {
	var sl model.Seller
	q := s.rebind("SELECT * FROM sellers WHERE public_id = ?")
	if err := s.db.GetContext(ctx, &sl, q, publicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get seller by public id: %w", err)
	}
	return &sl, nil
}

// SellerExists reports whether a seller with the given email or phone already
// exists.
func (s *Store) SellerExists(ctx context.Context, email, phone string) (bool, error) {
	var count int
	q := s.rebind("SELECT COUNT(*) FROM sellers WHERE email = ? OR (phone <> '' AND phone = ?)")
	if err := s.db.GetContext(ctx, &count, q, email, phone); err != nil {
		return false, fmt.Errorf("check seller exists: %w", err)
	}
	return count > 0, nil
}

// ListSellers returns a page of sellers, newest first, with the total count.
// A non-empty status filters on the canonical approval_status column.
func (s *Store) ListSellers(ctx context.Context, status string, page, limit int) ([]model.Seller, int64, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = " WHERE approval_status = ?"
		args = append(args, status)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, s.rebind("SELECT COUNT(*) FROM sellers"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count sellers: %w", err)
	}

	q := s.rebind("SELECT * FROM sellers" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args = append(args, limit, (page-1)*limit)

	var sellers []model.Seller
	if err := s.db.SelectContext(ctx, &sellers, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list sellers: %w", err)
	}
	return sellers, total, nil
}

// ApproveSeller marks a seller approved. Both legacy and canonical approval
// columns are written in a single statement together with the audit fields;
// this is the only sanctioned way a record reaches the approved state, and it
// is idempotent. Returns ErrNotFound if publicID does not resolve.
func (s *Store) ApproveSeller(ctx context.Context, publicID, adminEmail string) error {
	now := time.Now().UTC()
	q := s.rebind(`UPDATE sellers SET
		status = ?, approval_status = ?,
		approved_by = ?, approved_at = ?,
		rejected_by = '', rejected_at = NULL, rejection_reason = '',
		updated_at = ?
		WHERE public_id = ?`)
	result, err := s.db.ExecContext(ctx, q,
		string(model.ApprovalApproved), string(model.ApprovalApproved),
		adminEmail, now, now, publicID)
	if err != nil {
		return fmt.Errorf("approve seller: %w", err)
	}
	return requireRow(result)
}

// RejectSeller marks a seller rejected, writing both approval columns plus
// the audit fields atomically. Returns ErrNotFound if publicID does not
// resolve.
func (s *Store) RejectSeller(ctx context.Context, publicID, adminEmail, reason string) error {
	if reason == "" {
		reason = "Application does not meet requirements"
	}
	now := time.Now().UTC()
	q := s.rebind(`UPDATE sellers SET
		status = ?, approval_status = ?,
		rejected_by = ?, rejected_at = ?, rejection_reason = ?,
		updated_at = ?
		WHERE public_id = ?`)
	result, err := s.db.ExecContext(ctx, q,
		string(model.ApprovalRejected), string(model.ApprovalRejected),
		adminEmail, now, reason, now, publicID)
	if err != nil {
		return fmt.Errorf("reject seller: %w", err)
	}
	return requireRow(result)
}

// SetSellerApprovalPair writes the two approval columns independently.
// Exists only for seeding test fixtures and for the repair tooling that
// reproduces historically inconsistent records; application code must use
// ApproveSeller/RejectSeller.
func (s *Store) SetSellerApprovalPair(ctx context.Context, publicID string, status, approvalStatus model.ApprovalState) error {
	q := s.rebind("UPDATE sellers SET status = ?, approval_status = ?, updated_at = ? WHERE public_id = ?")
	result, err := s.db.ExecContext(ctx, q, string(status), string(approvalStatus), time.Now().UTC(), publicID)
	if err != nil {
		return fmt.Errorf("set seller approval pair: %w", err)
	}
	return requireRow(result)
}

// UpdateSellerPassword replaces a seller's stored credential.
func (s *Store) UpdateSellerPassword(ctx context.Context, email, password string) error {
	q := s.rebind("UPDATE sellers SET password = ?, updated_at = ? WHERE email = ?")
	result, err := s.db.ExecContext(ctx, q, password, time.Now().UTC(), email)
	if err != nil {
		return fmt.Errorf("update seller password: %w", err)
	}
	return requireRow(result)
}

// UpdateSellerLastLogin sets the last_login timestamp for a seller.
func (s *Store) UpdateSellerLastLogin(ctx context.Context, email string) error {
	now := time.Now().UTC()
	q := s.rebind("UPDATE sellers SET last_login = ?, updated_at = ? WHERE email = ?")
	result, err := s.db.ExecContext(ctx, q, now, now, email)
	if err != nil {
		return fmt.Errorf("update seller last login: %w", err)
	}
	return requireRow(result)
}

// AddSellerSale folds a completed order into the seller's running statistics.
func (s *Store) AddSellerSale(ctx context.Context, email string, amount float64) error {
	q := s.rebind(`UPDATE sellers SET
		total_sales = total_sales + 1,
		total_revenue = total_revenue + ?,
		updated_at = ?
		WHERE email = ?`)
	result, err := s.db.ExecContext(ctx, q, amount, time.Now().UTC(), email)
	if err != nil {
		return fmt.Errorf("add seller sale: %w", err)
	}
	return requireRow(result)
}

// AdjustSellerProductCount shifts the seller's listed-product counter by
// delta (new listing +1, removed listing -1).
func (s *Store) AdjustSellerProductCount(ctx context.Context, email string, delta int) error {
	q := s.rebind("UPDATE sellers SET total_products = total_products + ?, updated_at = ? WHERE email = ?")
	result, err := s.db.ExecContext(ctx, q, delta, time.Now().UTC(), email)
	if err != nil {
		return fmt.Errorf("adjust seller product count: %w", err)
	}
	return requireRow(result)
}

// CountSellers returns the number of sellers in the given canonical approval
// state, or all sellers when status is empty.
func (s *Store) CountSellers(ctx context.Context, status string) (int64, error) {
	q := "SELECT COUNT(*) FROM sellers"
	args := []interface{}{}
	if status != "" {
		q += " WHERE approval_status = ?"
		args = append(args, status)
	}
	var count int64
	if err := s.db.GetContext(ctx, &count, s.rebind(q), args...); err != nil {
		return 0, fmt.Errorf("count sellers: %w", err)
	}
	return count, nil
}
