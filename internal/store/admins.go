package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ecoloopkenya/ecoloop/internal/model"
)

// CreateAdmin inserts a new admin account. The ID, CreatedAt, and UpdatedAt
// fields are populated after a successful insert.
func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = "active"
	}
	if a.CreatedBy == "" {
		a.CreatedBy = "system"
	}

	q := s.rebind(`INSERT INTO admins
		(email, password, name, status, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	if err := s.db.QueryRowxContext(ctx, q,
		a.Email, a.Password, a.Name, a.Status, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}
	return nil
}

// GetAdminByEmail returns an admin by email address.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	q := s.rebind("SELECT * FROM admins WHERE email = ?")
	if err := s.db.GetContext(ctx, &a, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	return &a, nil
}

// ListAdmins returns all admin accounts.
func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := s.db.SelectContext(ctx, &admins, "SELECT * FROM admins ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// HasAnyAdmin reports whether at least one admin account exists. Used for
// first-run detection: the setup endpoint closes once this is true.
func (s *Store) HasAnyAdmin(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM admins"); err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}

// UpdateAdminPassword replaces an admin's stored credential.
func (s *Store) UpdateAdminPassword(ctx context.Context, email, password string) error {
	q := s.rebind("UPDATE admins SET password = ?, updated_at = ? WHERE email = ?")
	result, err := s.db.ExecContext(ctx, q, password, time.Now().UTC(), email)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}
	return requireRow(result)
}

// UpdateAdminLastLogin sets the last_login timestamp for an admin.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, email string) error {
	now := time.Now().UTC()
	q := s.rebind("UPDATE admins SET last_login = ?, updated_at = ? WHERE email = ?")
	result, err := s.db.ExecContext(ctx, q, now, now, email)
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return requireRow(result)
}
