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

// buyerRow maps 1:1 to the users table. Preferences are stored as a JSON
// column, so the model's nested struct is flattened here.
type buyerRow struct {
	ID              int64      `db:"id"`
	PublicID        string     `db:"public_id"`
	FirstName       string     `db:"first_name"`
	LastName        string     `db:"last_name"`
	Email           string     `db:"email"`
	Phone           string     `db:"phone"`
	Password        string     `db:"password"`
	StreetAddress   string     `db:"street_address"`
	City            string     `db:"city"`
	State           string     `db:"state"`
	PostalCode      string     `db:"postal_code"`
	Country         string     `db:"country"`
	PreferencesJSON string     `db:"preferences_json"`
	Status          string     `db:"status"`
	RoleMarker      string     `db:"role_marker"`
	LastLogin       *time.Time `db:"last_login"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func buyerRowFromModel(b *model.Buyer) (buyerRow, error) {
	prefs, err := json.Marshal(b.Preferences)
	if err != nil {
		return buyerRow{}, fmt.Errorf("marshal preferences: %w", err)
	}
	return buyerRow{
		ID:              b.ID,
		PublicID:        b.PublicID,
		FirstName:       b.FirstName,
		LastName:        b.LastName,
		Email:           b.Email,
		Phone:           b.Phone,
		Password:        b.Password,
		StreetAddress:   b.StreetAddress,
		City:            b.City,
		State:           b.State,
		PostalCode:      b.PostalCode,
		Country:         b.Country,
		PreferencesJSON: string(prefs),
		Status:          b.Status,
		RoleMarker:      b.RoleMarker,
		LastLogin:       b.LastLogin,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}, nil
}

func (r buyerRow) toModel() (model.Buyer, error) {
	b := model.Buyer{
		ID:            r.ID,
		PublicID:      r.PublicID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		Password:      r.Password,
		StreetAddress: r.StreetAddress,
		City:          r.City,
		State:         r.State,
		PostalCode:    r.PostalCode,
		Country:       r.Country,
		Status:        r.Status,
		RoleMarker:    r.RoleMarker,
		LastLogin:     r.LastLogin,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.PreferencesJSON != "" && r.PreferencesJSON != "{}" {
		if err := json.Unmarshal([]byte(r.PreferencesJSON), &b.Preferences); err != nil {
			return model.Buyer{}, fmt.Errorf("unmarshal preferences: %w", err)
		}
	}
	return b, nil
}

// CreateBuyer inserts a new buyer account. The ID, CreatedAt, and UpdatedAt
// fields on b are populated after a successful insert.
func (s *Store) CreateBuyer(ctx context.Context, b *model.Buyer) error {
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.RoleMarker == "" {
		b.RoleMarker = model.RoleBuyer.String()
	}

	row, err := buyerRowFromModel(b)
	if err != nil {
		return err
	}

	q := s.rebind(`INSERT INTO users
		(public_id, first_name, last_name, email, phone, password,
		 street_address, city, state, postal_code, country, preferences_json,
		 status, role_marker, last_login, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	if err := s.db.QueryRowxContext(ctx, q,
		row.PublicID, row.FirstName, row.LastName, row.Email, row.Phone, row.Password,
		row.StreetAddress, row.City, row.State, row.PostalCode, row.Country, row.PreferencesJSON,
		row.Status, row.RoleMarker, row.LastLogin, row.CreatedAt, row.UpdatedAt,
	).Scan(&b.ID); err != nil {
		return fmt.Errorf("insert buyer: %w", err)
	}
	return nil
}

// GetBuyerByEmail returns a buyer by email address.
func (s *Store) GetBuyerByEmail(ctx context.Context, email string) (*model.Buyer, error) {
	var row buyerRow
	q := s.rebind("SELECT * FROM users WHERE email = ?")
	if err := s.db.GetContext(ctx, &row, q, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get buyer by email: %w", err)
	}
	b, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// BuyerExists reports whether a buyer with the given email or phone already
// exists. Used at registration to give one combined duplicate message.
func (s *Store) BuyerExists(ctx context.Context, email, phone string) (bool, error) {
	var count int
	q := s.rebind("SELECT COUNT(*) FROM users WHERE email = ? OR phone = ?")
	if err := s.db.GetContext(ctx, &count, q, email, phone); err != nil {
		return false, fmt.Errorf("check buyer exists: %w", err)
	}
	return count > 0, nil
}

// ListBuyers returns a page of buyer accounts, newest first, with the total
// count for pagination. Empty filter values match everything.
func (s *Store) ListBuyers(ctx context.Context, status string, page, limit int) ([]model.Buyer, int64, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		where = " WHERE status = ?"
		args = append(args, status)
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, s.rebind("SELECT COUNT(*) FROM users"+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count buyers: %w", err)
	}

	q := s.rebind("SELECT * FROM users" + where + " ORDER BY created_at DESC LIMIT ? OFFSET ?")
	args = append(args, limit, (page-1)*limit)

	var rows []buyerRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("list buyers: %w", err)
	}

	buyers := make([]model.Buyer, 0, len(rows))
	for _, r := range rows {
		b, err := r.toModel()
		if err != nil {
			return nil, 0, err
		}
		buyers = append(buyers, b)
	}
	return buyers, total, nil
}

// CountBuyers returns the total number of buyer accounts.
func (s *Store) CountBuyers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("count buyers: %w", err)
	}
	return count, nil
}

// UpdateBuyerPassword replaces a buyer's stored credential.
func (s *Store) UpdateBuyerPassword(ctx context.Context, email, password string) error {
	q := s.rebind("UPDATE users SET password = ?, updated_at = ? WHERE email = ?")
	result, err := s.db.ExecContext(ctx, q, password, time.Now().UTC(), email)
	if err != nil {
		return fmt.Errorf("update buyer password: %w", err)
	}
	return requireRow(result)
}

// UpdateBuyerLastLogin sets the last_login timestamp for a buyer.
func (s *Store) UpdateBuyerLastLogin(ctx context.Context, email string) error {
	now := time.Now().UTC()
	q := s.rebind("UPDATE users SET last_login = ?, updated_at = ? WHERE email = ?")
	result, err := s.db.ExecContext(ctx, q, now, now, email)
	if err != nil {
		return fmt.Errorf("update buyer last login: %w", err)
	}
	return requireRow(result)
}

// requireRow converts a zero-rows-affected update into ErrNotFound.
func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
