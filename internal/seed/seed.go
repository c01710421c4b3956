package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"makemybill/m/domain"
	"makemybill/m/internal/clock"
	"makemybill/m/internal/store"
)

var demoProducts = []domain.Product{
	{Name: "Laptop Dell XPS 13", SKU: "LAP-DELL-XPS13", Price: decimal.NewFromInt(89999), Stock: 15, LowStockThreshold: 3},
	{Name: "iPhone 15 Pro", SKU: "PHN-IPH-15PRO", Price: decimal.NewFromInt(129999), Stock: 8, LowStockThreshold: 2},
	{Name: `Samsung 4K TV 55"`, SKU: "TV-SAM-4K55", Price: decimal.NewFromInt(65999), Stock: 12, LowStockThreshold: 4},
	{Name: "Wireless Headphones Sony", SKU: "AUD-SON-WH1000", Price: decimal.NewFromInt(24999), Stock: 25, LowStockThreshold: 5},
	{Name: "Gaming Mouse Logitech", SKU: "ACC-LOG-G502", Price: decimal.NewFromInt(3999), Stock: 2, LowStockThreshold: 10},
	{Name: "Mechanical Keyboard", SKU: "ACC-MEC-KB87", Price: decimal.NewFromInt(5999), Stock: 18, LowStockThreshold: 5},
}

var demoCustomers = []domain.Customer{
	{Name: "John Smith", Phone: "+91 98765 43210", Email: "john.smith@email.com", Address: "123 Main Street, Bangalore, Karnataka 560001"},
	{Name: "Sarah Johnson", Phone: "+91 87654 32109", Email: "sarah.j@email.com", Address: "456 Park Avenue, Mumbai, Maharashtra 400001"},
	{Name: "Mike Wilson", Phone: "+91 76543 21098", Email: "mike.w@email.com", Address: "789 Oak Road, Delhi, Delhi 110001"},
	{Name: "Emily Davis", Phone: "+91 65432 10987", Email: "emily.d@email.com", Address: "321 Pine Street, Chennai, Tamil Nadu 600001"},
}

// Demo inserts the sample catalog and customers into empty tables.
func Demo(ctx context.Context, st *store.Store, clk clock.Clock, logger *zap.Logger) error {
	products, err := st.Products.List(ctx)
	if err != nil {
		return err
	}
	customers, err := st.Customers.List(ctx)
	if err != nil {
		return err
	}
	if len(products) > 0 && len(customers) > 0 {
		logger.Info("database already seeded, skipping")
		return nil
	}

	if len(products) == 0 {
		for _, p := range demoProducts {
			p.CreatedAt, p.UpdatedAt = clk.Now(), clk.Now()
			if _, err := st.Products.Create(ctx, p); err != nil {
				return fmt.Errorf("seed product %s: %w", p.SKU, err)
			}
		}
		logger.Info("seeded sample products", zap.Int("count", len(demoProducts)))
	}
	if len(customers) == 0 {
		for _, c := range demoCustomers {
			c.CreatedAt, c.UpdatedAt = clk.Now(), clk.Now()
			if _, err := st.Customers.Create(ctx, c); err != nil {
				return fmt.Errorf("seed customer %s: %w", c.Name, err)
			}
		}
		logger.Info("seeded sample customers", zap.Int("count", len(demoCustomers)))
	}
	return nil
}

// LoadProducts ingests a CSV catalog with the header
// name,sku,price,stock,low_stock_threshold. Rows with an existing SKU or
// malformed values are skipped. It returns the number of rows inserted.
func LoadProducts(ctx context.Context, st *store.Store, clk clock.Clock, logger *zap.Logger, csvPath string) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("unable to load product catalog %s: %w", csvPath, err)
	}
	defer file.Close()
	return loadProducts(ctx, st, clk, logger, file)
}

func loadProducts(ctx context.Context, st *store.Store, clk clock.Clock, logger *zap.Logger, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("unable to read product header: %w", err)
	}

	rows := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn("unable to read product row", zap.Int("line", line), zap.Error(err))
			continue
		}
		p, err := parseProduct(record)
		if err != nil {
			logger.Warn("skipping product row", zap.Int("line", line), zap.Error(err))
			continue
		}
		p.CreatedAt, p.UpdatedAt = clk.Now(), clk.Now()
		if _, err := st.Products.Create(ctx, p); err != nil {
			if errors.Is(err, domain.ErrDuplicateSKU) {
				continue
			}
			return rows, err
		}
		rows++
	}
	logger.Info("seeded product catalog", zap.Int("rows", rows))
	return rows, nil
}

func parseProduct(record []string) (domain.Product, error) {
	if len(record) < 4 {
		return domain.Product{}, fmt.Errorf("expected at least 4 columns, got %d", len(record))
	}
	p := domain.Product{
		Name:              strings.TrimSpace(record[0]),
		SKU:               strings.TrimSpace(record[1]),
		LowStockThreshold: domain.DefaultLowStockThreshold,
	}
	if p.Name == "" || p.SKU == "" {
		return domain.Product{}, errors.New("name and sku are required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil || price.IsNegative() {
		return domain.Product{}, fmt.Errorf("invalid price %q", record[2])
	}
	p.Price = price
	if p.Stock, err = strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64); err != nil || p.Stock < 0 {
		return domain.Product{}, fmt.Errorf("invalid stock %q", record[3])
	}
	if len(record) > 4 && strings.TrimSpace(record[4]) != "" {
		if p.LowStockThreshold, err = strconv.ParseInt(strings.TrimSpace(record[4]), 10, 64); err != nil || p.LowStockThreshold < 0 {
			return domain.Product{}, fmt.Errorf("invalid low_stock_threshold %q", record[4])
		}
	}
	return p, nil
}
