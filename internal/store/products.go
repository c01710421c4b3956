package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"makemybill/m/domain"
)

type productRow struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	SKU               string    `db:"sku"`
	PriceMinor        int64     `db:"price_minor"`
	Stock             int64     `db:"stock"`
	LowStockThreshold int64     `db:"low_stock_threshold"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:                r.ID,
		Name:              r.Name,
		SKU:               r.SKU,
		Price:             domain.FromMinor(r.PriceMinor),
		Stock:             r.Stock,
		LowStockThreshold: r.LowStockThreshold,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

func productRowFrom(p domain.Product) productRow {
	return productRow{
		ID:                p.ID,
		Name:              p.Name,
		SKU:               p.SKU,
		PriceMinor:        domain.ToMinor(p.Price),
		Stock:             p.Stock,
		LowStockThreshold: p.LowStockThreshold,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

const productColumns = `id, name, sku, price_minor, stock, low_stock_threshold, created_at, updated_at`

type ProductRepo struct {
	db        *sqlx.DB
	movements *MovementRepo
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	return r.selectProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, name`)
}

// LowStock lists products at or below their threshold, scarcest first.
func (r *ProductRepo) LowStock(ctx context.Context) ([]domain.Product, error) {
	return r.selectProducts(ctx, `SELECT `+productColumns+` FROM products WHERE stock <= low_stock_threshold ORDER BY stock ASC, name`)
}

func (r *ProductRepo) selectProducts(ctx context.Context, query string) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, mapErr(fmt.Errorf("list products: %w", err))
	}
	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = row.toDomain()
	}
	return products, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	return getProduct(ctx, r.db, id)
}

func getProduct(ctx context.Context, q sqlx.ExtContext, id string) (domain.Product, error) {
	var row productRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if err != nil {
		return domain.Product{}, lookupErr(err, "product "+id)
	}
	return row.toDomain(), nil
}

// getProducts loads the products with the given ids, keyed by id. Missing
// ids are absent from the result.
func getProducts(ctx context.Context, q sqlx.ExtContext, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare products query: %w", err)
	}
	var rows []productRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, mapErr(fmt.Errorf("load products: %w", err))
	}
	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}

func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO products (`+productColumns+`)
        VALUES (:id, :name, :sku, :price_minor, :stock, :low_stock_threshold, :created_at, :updated_at)`, productRowFrom(p))
	if err != nil {
		if isUniqueViolation(err, "sku") {
			return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrDuplicateSKU, p.SKU)
		}
		return domain.Product{}, mapErr(fmt.Errorf("insert product: %w", err))
	}
	return p, nil
}

// Update applies edit to the product as stored at the start of the
// transaction. Stock is written only when edit changes it, as a
// compare-and-set against that stored value, and the change is recorded as
// an adjustment movement. A sale that debits the product in between makes
// the update fail with ErrStockConflict instead of restoring old stock.
func (r *ProductRepo) Update(ctx context.Context, id string, at time.Time, edit func(p *domain.Product) error) (domain.Product, error) {
	var updated domain.Product
	err := inTx(ctx, r.db, func(tx *sqlx.Tx) error {
		current, err := getProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		p := current
		if err := edit(&p); err != nil {
			return err
		}
		p.ID, p.CreatedAt, p.UpdatedAt = current.ID, current.CreatedAt, at

		_, err = tx.NamedExecContext(ctx, `UPDATE products SET name = :name, sku = :sku, price_minor = :price_minor,
            low_stock_threshold = :low_stock_threshold, updated_at = :updated_at WHERE id = :id`, productRowFrom(p))
		if err != nil {
			if isUniqueViolation(err, "sku") {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateSKU, p.SKU)
			}
			return fmt.Errorf("update product: %w", err)
		}

		if p.Stock != current.Stock {
			res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE products SET stock = ? WHERE id = ? AND stock = ?`),
				p.Stock, id, current.Stock)
			if err != nil {
				return fmt.Errorf("update stock: %w", err)
			}
			if n, err := res.RowsAffected(); err != nil {
				return fmt.Errorf("update stock: %w", err)
			} else if n != 1 {
				return fmt.Errorf("product %s: %w", id, domain.ErrStockConflict)
			}
			err = r.movements.Insert(ctx, tx, domain.StockMovement{
				ProductID:      id,
				MovementType:   domain.MovementAdjustment,
				QuantityChange: p.Stock - current.Stock,
				QuantityBefore: current.Stock,
				QuantityAfter:  p.Stock,
				CreatedAt:      at,
			})
			if err != nil {
				return err
			}
		}
		updated = p
		return nil
	})
	return updated, err
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return mapErr(fmt.Errorf("delete product: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// DebitStock decrements stock only if enough is available. It reports
// false, without changing anything, when the product is missing or short.
func DebitStock(ctx context.Context, tx *sqlx.Tx, id string, quantity int64, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE products SET stock = stock - ?, updated_at = ?
        WHERE id = ? AND stock >= ?`), quantity, at, id, quantity)
	if err != nil {
		return false, mapErr(fmt.Errorf("debit stock for %s: %w", id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("debit stock for %s: %w", id, err)
	}
	return n == 1, nil
}

// GetProductTx reads a product through an open transaction.
func GetProductTx(ctx context.Context, tx *sqlx.Tx, id string) (domain.Product, error) {
	return getProduct(ctx, tx, id)
}
