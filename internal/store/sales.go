package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"makemybill/m/domain"
)

type saleRow struct {
	ID            string         `db:"id"`
	InvoiceNumber string         `db:"invoice_number"`
	CustomerID    sql.NullString `db:"customer_id"`
	TotalMinor    int64          `db:"total_minor"`
	PaymentMethod string         `db:"payment_method"`
	CreatedAt     time.Time      `db:"created_at"`
}

type saleItemRow struct {
	SaleID         string `db:"sale_id"`
	LineNo         int    `db:"line_no"`
	ProductID      string `db:"product_id"`
	Quantity       int64  `db:"quantity"`
	UnitPriceMinor int64  `db:"unit_price_minor"`
}

const saleColumns = `id, invoice_number, customer_id, total_minor, payment_method, created_at`

type SaleRepo struct {
	db *sqlx.DB
}

// LatestInvoiceNumber returns the invoice number of the most recently
// created sale, or "" when no sale exists.
func LatestInvoiceNumber(ctx context.Context, tx *sqlx.Tx) (string, error) {
	var number string
	err := tx.GetContext(ctx, &number, `SELECT invoice_number FROM sales
        ORDER BY created_at DESC, invoice_number DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", mapErr(fmt.Errorf("read latest sale: %w", err))
	}
	return number, nil
}

// HighestInvoiceNumber returns the numerically largest invoice number with
// the given prefix, or "" when there is none. Zero-padded suffixes compare
// by length first, then lexically.
func HighestInvoiceNumber(ctx context.Context, tx *sqlx.Tx, prefix string) (string, error) {
	var number string
	err := tx.GetContext(ctx, &number, tx.Rebind(`SELECT invoice_number FROM sales WHERE invoice_number LIKE ?
        ORDER BY LENGTH(invoice_number) DESC, invoice_number DESC LIMIT 1`), prefix+"-%")
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", mapErr(fmt.Errorf("read highest invoice number: %w", err))
	}
	return number, nil
}

// InsertSale stores the sale header and its lines in order. A clash on the
// invoice number is reported as ErrDuplicateInvoiceNumber.
func InsertSale(ctx context.Context, tx *sqlx.Tx, s domain.Sale) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO sales (`+saleColumns+`)
        VALUES (:id, :invoice_number, :customer_id, :total_minor, :payment_method, :created_at)`, saleRow{
		ID:            s.ID,
		InvoiceNumber: s.InvoiceNumber,
		CustomerID:    nullString(s.CustomerID),
		TotalMinor:    domain.ToMinor(s.Total),
		PaymentMethod: string(s.PaymentMethod),
		CreatedAt:     s.CreatedAt,
	})
	if err != nil {
		if isUniqueViolation(err, "invoice_number") {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateInvoiceNumber, s.InvoiceNumber)
		}
		return mapErr(fmt.Errorf("insert sale: %w", err))
	}

	for i, item := range s.Items {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO sale_items (sale_id, line_no, product_id, quantity, unit_price_minor)
            VALUES (:sale_id, :line_no, :product_id, :quantity, :unit_price_minor)`, saleItemRow{
			SaleID:         s.ID,
			LineNo:         i + 1,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceMinor: domain.ToMinor(item.UnitPrice),
		})
		if err != nil {
			return mapErr(fmt.Errorf("insert sale item %d: %w", i+1, err))
		}
	}
	return nil
}

// Get loads a sale with its customer and products resolved.
func (r *SaleRepo) Get(ctx context.Context, id string) (domain.Sale, error) {
	return getSale(ctx, r.db, id)
}

// GetSaleTx loads a sale through an open transaction, so a sale inserted
// by that transaction is visible before commit.
func GetSaleTx(ctx context.Context, tx *sqlx.Tx, id string) (domain.Sale, error) {
	return getSale(ctx, tx, id)
}

func getSale(ctx context.Context, q sqlx.ExtContext, id string) (domain.Sale, error) {
	var row saleRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT `+saleColumns+` FROM sales WHERE id = ?`), id)
	if err != nil {
		return domain.Sale{}, lookupErr(err, "sale "+id)
	}
	sales, err := resolve(ctx, q, []saleRow{row})
	if err != nil {
		return domain.Sale{}, err
	}
	return sales[0], nil
}

// List returns all sales, newest first, with references resolved.
func (r *SaleRepo) List(ctx context.Context) ([]domain.Sale, error) {
	var rows []saleRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC, invoice_number DESC`); err != nil {
		return nil, mapErr(fmt.Errorf("list sales: %w", err))
	}
	if len(rows) == 0 {
		return []domain.Sale{}, nil
	}
	return resolve(ctx, r.db, rows)
}

// resolve joins sale rows with their lines, products and customers. A
// product or customer that no longer exists stays nil on the result.
func resolve(ctx context.Context, q sqlx.ExtContext, rows []saleRow) ([]domain.Sale, error) {
	ids := make([]string, len(rows))
	var customerIDs []string
	for i, row := range rows {
		ids[i] = row.ID
		if row.CustomerID.Valid {
			customerIDs = append(customerIDs, row.CustomerID.String)
		}
	}

	query, args, err := sqlx.In(`SELECT sale_id, line_no, product_id, quantity, unit_price_minor
        FROM sale_items WHERE sale_id IN (?) ORDER BY sale_id, line_no`, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare sale items query: %w", err)
	}
	var itemRows []saleItemRow
	if err := sqlx.SelectContext(ctx, q, &itemRows, q.Rebind(query), args...); err != nil {
		return nil, mapErr(fmt.Errorf("load sale items: %w", err))
	}

	productIDs := make([]string, 0, len(itemRows))
	seen := make(map[string]bool)
	for _, item := range itemRows {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			productIDs = append(productIDs, item.ProductID)
		}
	}
	products, err := getProducts(ctx, q, productIDs)
	if err != nil {
		return nil, err
	}
	customers, err := getCustomers(ctx, q, customerIDs)
	if err != nil {
		return nil, err
	}

	itemsBySale := make(map[string][]domain.SaleItem, len(rows))
	for _, item := range itemRows {
		line := domain.SaleItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: domain.FromMinor(item.UnitPriceMinor),
		}
		if p, ok := products[item.ProductID]; ok {
			line.Product = &p
		}
		itemsBySale[item.SaleID] = append(itemsBySale[item.SaleID], line)
	}

	sales := make([]domain.Sale, len(rows))
	for i, row := range rows {
		sale := domain.Sale{
			ID:            row.ID,
			InvoiceNumber: row.InvoiceNumber,
			CustomerID:    stringPtr(row.CustomerID),
			Total:         domain.FromMinor(row.TotalMinor),
			PaymentMethod: domain.PaymentMethod(row.PaymentMethod),
			CreatedAt:     row.CreatedAt,
			Items:         itemsBySale[row.ID],
		}
		if sale.Items == nil {
			sale.Items = []domain.SaleItem{}
		}
		if sale.CustomerID != nil {
			if c, ok := customers[*sale.CustomerID]; ok {
				sale.Customer = &c
			}
		}
		sales[i] = sale
	}
	return sales, nil
}
