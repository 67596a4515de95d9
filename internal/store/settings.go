package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ecoloopkenya/ecoloop/internal/model"
)

// GetSetting returns the value for a settings key, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	q := s.rebind("SELECT value FROM settings WHERE key = ?")
	if err := s.db.GetContext(ctx, &value, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting inserts or replaces a settings key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	q := s.rebind(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`)
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// AllSettings returns every settings key/value pair.
func (s *Store) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

// AddActivity appends a row to the admin activity log.
func (s *Store) AddActivity(ctx context.Context, actor, action, detail string) error {
	q := s.rebind("INSERT INTO activity (actor, action, detail) VALUES (?, ?, ?)")
	if _, err := s.db.ExecContext(ctx, q, actor, action, detail); err != nil {
		return fmt.Errorf("add activity: %w", err)
	}
	return nil
}

// ListActivity returns the most recent activity entries, newest first.
func (s *Store) ListActivity(ctx context.Context, limit int) ([]model.ActivityEntry, error) {
	var entries []model.ActivityEntry
	q := s.rebind("SELECT * FROM activity ORDER BY id DESC LIMIT ?")
	if err := s.db.SelectContext(ctx, &entries, q, limit); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
