package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the billing backend. The
// statements are valid for both SQLite and PostgreSQL.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS products (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            sku TEXT NOT NULL UNIQUE,
            price_minor BIGINT NOT NULL CHECK (price_minor >= 0),
            stock BIGINT NOT NULL DEFAULT 0 CHECK (stock >= 0),
            low_stock_threshold BIGINT NOT NULL DEFAULT 5 CHECK (low_stock_threshold >= 0),
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS customers (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            phone TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMP NOT NULL,
            updated_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS sales (
            id TEXT PRIMARY KEY,
            invoice_number TEXT NOT NULL UNIQUE,
            customer_id TEXT,
            total_minor BIGINT NOT NULL CHECK (total_minor >= 0),
            payment_method TEXT NOT NULL DEFAULT 'cash'
                CHECK (payment_method IN ('cash', 'card', 'upi', 'bank_transfer')),
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS sale_items (
            sale_id TEXT NOT NULL REFERENCES sales(id),
            line_no INTEGER NOT NULL,
            product_id TEXT NOT NULL,
            quantity BIGINT NOT NULL CHECK (quantity >= 1),
            unit_price_minor BIGINT NOT NULL CHECK (unit_price_minor >= 0),
            PRIMARY KEY (sale_id, line_no)
        );`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
            id TEXT PRIMARY KEY,
            product_id TEXT NOT NULL,
            movement_type TEXT NOT NULL,
            quantity_change BIGINT NOT NULL,
            quantity_before BIGINT NOT NULL,
            quantity_after BIGINT NOT NULL,
            reference_id TEXT,
            created_at TIMESTAMP NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sale_items_product ON sale_items (product_id);`,
		`CREATE INDEX IF NOT EXISTS idx_stock_movements_product ON stock_movements (product_id, created_at);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
