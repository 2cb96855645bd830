package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the embedded database handle.
type DB struct {
	*sql.DB
}

// New opens (or creates) the database file and applies the schema.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time keeps sqlite's locking simple under the
	// single-process model.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{DB: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS institutions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	institution_id TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	access_token TEXT NOT NULL,
	item_id TEXT NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS accounts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT UNIQUE NOT NULL,
	institution_id INTEGER NOT NULL REFERENCES institutions(id),
	name TEXT NOT NULL,
	official_name TEXT,
	type TEXT NOT NULL,
	subtype TEXT NOT NULL DEFAULT '',
	mask TEXT,
	current_balance REAL,
	available_balance REAL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_accounts_institution ON accounts(institution_id);

CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	transaction_id TEXT UNIQUE NOT NULL,
	account_id TEXT NOT NULL,
	institution_id INTEGER NOT NULL REFERENCES institutions(id),
	amount REAL NOT NULL,
	date TIMESTAMP NOT NULL,
	name TEXT NOT NULL,
	merchant_name TEXT,
	category_primary TEXT NOT NULL DEFAULT 'Uncategorized',
	category_detailed TEXT NOT NULL DEFAULT 'Uncategorized',
	type TEXT NOT NULL,
	pending INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_transactions_institution ON transactions(institution_id);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_primary);

CREATE TABLE IF NOT EXISTS securities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	security_id TEXT UNIQUE NOT NULL,
	name TEXT,
	ticker_symbol TEXT,
	type TEXT,
	close_price REAL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS holdings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	account_id TEXT NOT NULL,
	security_id TEXT NOT NULL REFERENCES securities(security_id),
	institution_id INTEGER NOT NULL REFERENCES institutions(id),
	quantity REAL NOT NULL,
	cost_basis REAL,
	institution_price REAL NOT NULL,
	institution_value REAL NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(account_id, security_id)
);

CREATE INDEX IF NOT EXISTS idx_holdings_institution ON holdings(institution_id);

CREATE TABLE IF NOT EXISTS budgets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	category TEXT UNIQUE NOT NULL,
	monthly_limit REAL NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`
