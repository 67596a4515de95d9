package store

import (
	"fmt"
	"strings"
)

func (s *Store) migrate() error {
	migrations := sqliteMigrations
	if s.driver == "postgres" {
		migrations = postgresMigrations
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// SQLite ALTER TABLE ADD COLUMN fails if the column already
			// exists; treat "duplicate column" as a no-op so migrations
			// stay idempotent.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT UNIQUE NOT NULL,
		phone TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		street_address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		preferences_json TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'active',
		last_login DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS sellers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT UNIQUE NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL,
		business_name TEXT NOT NULL,
		business_type TEXT NOT NULL DEFAULT 'individual',
		business_description TEXT NOT NULL DEFAULT '',
		business_address TEXT NOT NULL DEFAULT '',
		business_city TEXT NOT NULL DEFAULT '',
		business_country TEXT NOT NULL DEFAULT 'Kenya',
		store_name TEXT NOT NULL DEFAULT '',
		store_description TEXT NOT NULL DEFAULT '',
		store_category TEXT NOT NULL DEFAULT 'general',
		business_license TEXT NOT NULL DEFAULT '',
		tax_id TEXT NOT NULL DEFAULT '',
		bank_name TEXT NOT NULL DEFAULT '',
		account_number TEXT NOT NULL DEFAULT '',
		account_name TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		approval_status TEXT NOT NULL DEFAULT 'pending',
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at DATETIME,
		rejected_by TEXT NOT NULL DEFAULT '',
		rejected_at DATETIME,
		rejection_reason TEXT NOT NULL DEFAULT '',
		total_products INTEGER NOT NULL DEFAULT 0,
		total_sales INTEGER NOT NULL DEFAULT 0,
		total_revenue REAL NOT NULL DEFAULT 0,
		email_verified INTEGER NOT NULL DEFAULT 0,
		phone_verified INTEGER NOT NULL DEFAULT 0,
		business_verified INTEGER NOT NULL DEFAULT 0,
		last_login DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS admins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT 'Administrator',
		status TEXT NOT NULL DEFAULT 'active',
		created_by TEXT NOT NULL DEFAULT 'system',
		last_login DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT UNIQUE NOT NULL,
		seller_email TEXT NOT NULL,
		store_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL,
		category TEXT NOT NULL DEFAULT 'general',
		stock INTEGER NOT NULL DEFAULT 0,
		images_json TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'pending',
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at DATETIME,
		rejected_by TEXT NOT NULL DEFAULT '',
		rejected_at DATETIME,
		rejection_reason TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		public_id TEXT UNIQUE NOT NULL,
		buyer_email TEXT NOT NULL,
		seller_email TEXT NOT NULL,
		items_json TEXT NOT NULL DEFAULT '[]',
		total REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		updated_by TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		thread_id TEXT UNIQUE NOT NULL,
		participant_a TEXT NOT NULL,
		participant_b TEXT NOT NULL,
		participants_json TEXT NOT NULL DEFAULT '[]',
		messages_json TEXT NOT NULL DEFAULT '[]',
		last_message TEXT NOT NULL DEFAULT '',
		last_timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		product_id TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS activity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_products_status ON products(status)`,
	`CREATE INDEX IF NOT EXISTS idx_products_seller ON products(seller_email)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_email)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders(seller_email)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_a ON conversations(participant_a)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_b ON conversations(participant_b)`,

	// v2: role marker on users. Legacy imports left seller-tagged rows in the
	// buyer table; login refuses those through the buyer path.
	`ALTER TABLE users ADD COLUMN role_marker TEXT NOT NULL DEFAULT 'buyer'`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		public_id TEXT UNIQUE NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT UNIQUE NOT NULL,
		phone TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		street_address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		preferences_json TEXT NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'active',
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS sellers (
		id BIGSERIAL PRIMARY KEY,
		public_id TEXT UNIQUE NOT NULL,
		name TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT UNIQUE NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL,
		business_name TEXT NOT NULL,
		business_type TEXT NOT NULL DEFAULT 'individual',
		business_description TEXT NOT NULL DEFAULT '',
		business_address TEXT NOT NULL DEFAULT '',
		business_city TEXT NOT NULL DEFAULT '',
		business_country TEXT NOT NULL DEFAULT 'Kenya',
		store_name TEXT NOT NULL DEFAULT '',
		store_description TEXT NOT NULL DEFAULT '',
		store_category TEXT NOT NULL DEFAULT 'general',
		business_license TEXT NOT NULL DEFAULT '',
		tax_id TEXT NOT NULL DEFAULT '',
		bank_name TEXT NOT NULL DEFAULT '',
		account_number TEXT NOT NULL DEFAULT '',
		account_name TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		approval_status TEXT NOT NULL DEFAULT 'pending',
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at TIMESTAMPTZ,
		rejected_by TEXT NOT NULL DEFAULT '',
		rejected_at TIMESTAMPTZ,
		rejection_reason TEXT NOT NULL DEFAULT '',
		total_products BIGINT NOT NULL DEFAULT 0,
		total_sales BIGINT NOT NULL DEFAULT 0,
		total_revenue DOUBLE PRECISION NOT NULL DEFAULT 0,
		email_verified BOOLEAN NOT NULL DEFAULT FALSE,
		phone_verified BOOLEAN NOT NULL DEFAULT FALSE,
		business_verified BOOLEAN NOT NULL DEFAULT FALSE,
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS admins (
		id BIGSERIAL PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT 'Administrator',
		status TEXT NOT NULL DEFAULT 'active',
		created_by TEXT NOT NULL DEFAULT 'system',
		last_login TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		public_id TEXT UNIQUE NOT NULL,
		seller_email TEXT NOT NULL,
		store_name TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL,
		category TEXT NOT NULL DEFAULT 'general',
		stock BIGINT NOT NULL DEFAULT 0,
		images_json TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL DEFAULT 'pending',
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at TIMESTAMPTZ,
		rejected_by TEXT NOT NULL DEFAULT '',
		rejected_at TIMESTAMPTZ,
		rejection_reason TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		public_id TEXT UNIQUE NOT NULL,
		buyer_email TEXT NOT NULL,
		seller_email TEXT NOT NULL,
		items_json TEXT NOT NULL DEFAULT '[]',
		total DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		updated_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		id BIGSERIAL PRIMARY KEY,
		thread_id TEXT UNIQUE NOT NULL,
		participant_a TEXT NOT NULL,
		participant_b TEXT NOT NULL,
		participants_json TEXT NOT NULL DEFAULT '[]',
		messages_json TEXT NOT NULL DEFAULT '[]',
		last_message TEXT NOT NULL DEFAULT '',
		last_timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
		product_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	)`,

	`CREATE TABLE IF NOT EXISTS activity (
		id BIGSERIAL PRIMARY KEY,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_products_status ON products(status)`,
	`CREATE INDEX IF NOT EXISTS idx_products_seller ON products(seller_email)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_buyer ON orders(buyer_email)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders(seller_email)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_a ON conversations(participant_a)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_b ON conversations(participant_b)`,

	`ALTER TABLE users ADD COLUMN IF NOT EXISTS role_marker TEXT NOT NULL DEFAULT 'buyer'`,
}
