package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makemybill/m/domain"
	"makemybill/m/internal/analytics"
	"makemybill/m/internal/clock"
	"makemybill/m/internal/store"
	"makemybill/m/internal/testutil"
)

var now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type saleFixture struct {
	number string
	at     time.Time
	items  []domain.SaleItem
}

func seedSales(t *testing.T, st *store.Store, fixtures []saleFixture) {
	t.Helper()
	ctx := context.Background()
	for _, f := range fixtures {
		sale := domain.Sale{
			ID:            f.number,
			InvoiceNumber: f.number,
			Items:         f.items,
			PaymentMethod: domain.PaymentCash,
			CreatedAt:     f.at,
		}
		sale.Total = sale.Subtotal()
		require.NoError(t, st.InTx(ctx, func(tx *sqlx.Tx) error {
			return store.InsertSale(ctx, tx, sale)
		}))
	}
}

func item(productID string, qty int64, price string) domain.SaleItem {
	return domain.SaleItem{ProductID: productID, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func newAggregator(st *store.Store) *analytics.Aggregator {
	agg := analytics.NewAggregator(st.DB, clock.NewMockClock(now))
	agg.Location = time.UTC
	return agg
}

func TestAggregator_Empty(t *testing.T) {
	st := testutil.NewStore(t)
	agg := newAggregator(st)
	ctx := context.Background()

	kpis, err := agg.KPIs(ctx)
	require.NoError(t, err)
	assert.True(t, kpis.TotalRevenue.IsZero())
	assert.Zero(t, kpis.TotalSales)

	series, err := agg.SalesByDay(ctx, 14)
	require.NoError(t, err)
	assert.Empty(t, series)

	ranks, err := agg.TopProducts(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, ranks)
}

func TestAggregator_KPIsAndSeries(t *testing.T) {
	st := testutil.NewStore(t)
	agg := newAggregator(st)
	ctx := context.Background()
	a := testutil.Product(t, st, "A", "10", 100)

	seedSales(t, st, []saleFixture{
		{"INV-000001", time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC), []domain.SaleItem{item(a.ID, 1, "500")}},
		{"INV-000002", time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), []domain.SaleItem{item(a.ID, 2, "10.25")}},
		{"INV-000003", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), []domain.SaleItem{item(a.ID, 1, "30")}},
		{"INV-000004", time.Date(2026, 3, 10, 11, 30, 0, 0, time.UTC), []domain.SaleItem{item(a.ID, 1, "19.50")}},
	})

	kpis, err := agg.KPIs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), kpis.TotalSales)
	assert.True(t, decimal.RequireFromString("570").Equal(kpis.TotalRevenue), kpis.TotalRevenue.String())
	assert.Equal(t, int64(3), kpis.MonthSales)
	assert.True(t, decimal.RequireFromString("70").Equal(kpis.MonthRevenue), kpis.MonthRevenue.String())

	series, err := agg.SalesByDay(ctx, 14)
	require.NoError(t, err)
	require.Len(t, series, 2, "the February sale is outside the window")
	assert.Equal(t, "2026-03-02", series[0].Date)
	assert.True(t, decimal.RequireFromString("20.50").Equal(series[0].Revenue))
	assert.Equal(t, "2026-03-10", series[1].Date)
	assert.True(t, decimal.RequireFromString("49.50").Equal(series[1].Revenue))

	today, err := agg.SalesByDay(ctx, 1)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, "2026-03-10", today[0].Date)
}

func TestAggregator_TopProducts(t *testing.T) {
	st := testutil.NewStore(t)
	agg := newAggregator(st)
	ctx := context.Background()
	a := testutil.Product(t, st, "A", "10", 100)
	b := testutil.Product(t, st, "B", "5", 100)
	gone := testutil.Product(t, st, "GONE", "1", 100)

	seedSales(t, st, []saleFixture{
		{"INV-000001", now.Add(-time.Hour), []domain.SaleItem{item(a.ID, 2, "10"), item(b.ID, 5, "5")}},
		{"INV-000002", now.Add(-time.Minute), []domain.SaleItem{item(a.ID, 1, "10"), item(gone.ID, 1, "1")}},
	})
	require.NoError(t, st.Products.Delete(ctx, gone.ID))

	ranks, err := agg.TopProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, ranks, 3)
	assert.Equal(t, b.ID, ranks[0].ProductID)
	assert.Equal(t, int64(5), ranks[0].Quantity)
	assert.True(t, decimal.NewFromInt(25).Equal(ranks[0].Revenue))
	assert.Equal(t, "Product A", ranks[1].Name)
	assert.Equal(t, int64(3), ranks[1].Quantity)
	assert.Equal(t, "Unknown Product", ranks[2].Name)

	limited, err := agg.TopProducts(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
