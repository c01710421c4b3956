// Package testutil provides in-memory databases and fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"makemybill/m/domain"
	"makemybill/m/internal/clock"
	"makemybill/m/internal/config"
	"makemybill/m/internal/database"
	"makemybill/m/internal/migrations"
	"makemybill/m/internal/store"
)

// Epoch is the start time of clocks created by NewClock.
var Epoch = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// NewDB opens a private in-memory SQLite database with the schema applied.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file::memory:?_pragma=foreign_keys(1)",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(db))
	return db
}

// NewStore returns a store over a fresh database.
func NewStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(NewDB(t), 5*time.Second)
}

// NewClock returns a mock clock that ticks one second per reading.
func NewClock() *clock.MockClock {
	c := clock.NewMockClock(Epoch)
	c.Step = time.Second
	return c
}

func Logger(t *testing.T) *zap.Logger {
	return zap.NewNop()
}

// Product inserts a product with the given price and stock.
func Product(t *testing.T, st *store.Store, sku, price string, stock int64) domain.Product {
	t.Helper()
	p, err := st.Products.Create(context.Background(), domain.Product{
		Name:              "Product " + sku,
		SKU:               sku,
		Price:             decimal.RequireFromString(price),
		Stock:             stock,
		LowStockThreshold: 1,
		CreatedAt:         Epoch,
		UpdatedAt:         Epoch,
	})
	require.NoError(t, err)
	return p
}

// Customer inserts a customer with sample contact details.
func Customer(t *testing.T, st *store.Store, name string) domain.Customer {
	t.Helper()
	c, err := st.Customers.Create(context.Background(), domain.Customer{
		Name:      name,
		Email:     "customer@example.com",
		Phone:     "+91 98765 43210",
		Address:   "123 Main Street",
		CreatedAt: Epoch,
		UpdatedAt: Epoch,
	})
	require.NoError(t, err)
	return c
}

// Stock reads a product's current stock.
func Stock(t *testing.T, st *store.Store, id string) int64 {
	t.Helper()
	p, err := st.Products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}
