// Package analytics computes read-only rollups over persisted sales.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"makemybill/m/domain"
	"makemybill/m/internal/clock"
)

type KPIs struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalSales   int64           `json:"total_sales"`
	MonthRevenue decimal.Decimal `json:"month_revenue"`
	MonthSales   int64           `json:"month_sales"`
}

type DayRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ProductRank struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int64           `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type Aggregator struct {
	db       *sqlx.DB
	clock    clock.Clock
	Location *time.Location
}

func NewAggregator(db *sqlx.DB, clk clock.Clock) *Aggregator {
	return &Aggregator{db: db, clock: clk, Location: time.Local}
}

type totalsRow struct {
	Revenue int64 `db:"revenue"`
	Count   int64 `db:"count"`
}

// KPIs returns all-time and current-month revenue and sale counts.
func (a *Aggregator) KPIs(ctx context.Context) (KPIs, error) {
	now := a.clock.Now().In(a.Location)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, a.Location).UTC()

	var all, month totalsRow
	if err := a.db.GetContext(ctx, &all, `SELECT CAST(COALESCE(SUM(total_minor), 0) AS BIGINT) AS revenue, COUNT(*) AS count FROM sales`); err != nil {
		return KPIs{}, fmt.Errorf("total revenue: %w", err)
	}
	err := a.db.GetContext(ctx, &month, a.db.Rebind(`SELECT CAST(COALESCE(SUM(total_minor), 0) AS BIGINT) AS revenue, COUNT(*) AS count
        FROM sales WHERE created_at >= ?`), startOfMonth)
	if err != nil {
		return KPIs{}, fmt.Errorf("month revenue: %w", err)
	}
	return KPIs{
		TotalRevenue: domain.FromMinor(all.Revenue),
		TotalSales:   all.Count,
		MonthRevenue: domain.FromMinor(month.Revenue),
		MonthSales:   month.Count,
	}, nil
}

// SalesByDay buckets revenue per calendar day for the last days days,
// today included, in ascending date order. Days without sales are omitted.
func (a *Aggregator) SalesByDay(ctx context.Context, days int) ([]DayRevenue, error) {
	if days <= 0 {
		days = 14
	}
	now := a.clock.Now().In(a.Location)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.Location).AddDate(0, 0, -(days - 1))

	var rows []struct {
		TotalMinor int64     `db:"total_minor"`
		CreatedAt  time.Time `db:"created_at"`
	}
	err := a.db.SelectContext(ctx, &rows, a.db.Rebind(`SELECT total_minor, created_at FROM sales
        WHERE created_at >= ? ORDER BY created_at`), start.UTC())
	if err != nil {
		return nil, fmt.Errorf("sales by day: %w", err)
	}

	series := []DayRevenue{}
	index := make(map[string]int)
	for _, row := range rows {
		day := row.CreatedAt.In(a.Location).Format(time.DateOnly)
		i, ok := index[day]
		if !ok {
			i = len(series)
			index[day] = i
			series = append(series, DayRevenue{Date: day, Revenue: decimal.Zero})
		}
		series[i].Revenue = series[i].Revenue.Add(domain.FromMinor(row.TotalMinor))
	}
	return series, nil
}

// TopProducts ranks products by quantity sold. Products deleted since the
// sale are listed under a placeholder name.
func (a *Aggregator) TopProducts(ctx context.Context, limit int) ([]ProductRank, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []struct {
		ProductID    string `db:"product_id"`
		Quantity     int64  `db:"quantity"`
		RevenueMinor int64  `db:"revenue_minor"`
	}
	err := a.db.SelectContext(ctx, &rows, a.db.Rebind(`SELECT product_id, CAST(SUM(quantity) AS BIGINT) AS quantity,
        CAST(SUM(quantity * unit_price_minor) AS BIGINT) AS revenue_minor
        FROM sale_items GROUP BY product_id ORDER BY SUM(quantity) DESC, product_id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	if len(rows) == 0 {
		return []ProductRank{}, nil
	}

	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ProductID
	}
	query, args, err := sqlx.In(`SELECT id, name FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare product names query: %w", err)
	}
	var names []struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	if err := a.db.SelectContext(ctx, &names, a.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("product names: %w", err)
	}
	byID := make(map[string]string, len(names))
	for _, n := range names {
		byID[n.ID] = n.Name
	}

	ranks := make([]ProductRank, len(rows))
	for i, row := range rows {
		name, ok := byID[row.ProductID]
		if !ok {
			name = "Unknown Product"
		}
		ranks[i] = ProductRank{
			ProductID: row.ProductID,
			Name:      name,
			Quantity:  row.Quantity,
			Revenue:   domain.FromMinor(row.RevenueMinor),
		}
	}
	return ranks, nil
}
