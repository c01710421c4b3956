// Package inventory debits product stock for sale lines.
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"makemybill/m/domain"
	"makemybill/m/internal/clock"
	"makemybill/m/internal/store"
)

// Ledger is the only writer of stock outside direct product edits. Every
// debit runs inside the caller's transaction, so a failed sale rolls back
// all of its earlier debits.
type Ledger struct {
	movements *store.MovementRepo
	clock     clock.Clock
	logger    *zap.Logger
}

func NewLedger(movements *store.MovementRepo, clk clock.Clock, logger *zap.Logger) *Ledger {
	return &Ledger{movements: movements, clock: clk, logger: logger}
}

// Debit removes quantity units of the product if at least that many are in
// stock and returns the product as it was before the debit. The decrement
// is a single conditional update, so concurrent sales cannot oversell.
func (l *Ledger) Debit(ctx context.Context, tx *sqlx.Tx, productID string, quantity int64, saleID string) (domain.Product, error) {
	now := l.clock.Now()
	ok, err := store.DebitStock(ctx, tx, productID, quantity, now)
	if err != nil {
		return domain.Product{}, err
	}

	product, err := store.GetProductTx(ctx, tx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	if !ok {
		return product, fmt.Errorf("%w: %d requested, %d available", domain.ErrInsufficientStock, quantity, product.Stock)
	}

	after := product
	product.Stock += quantity
	reference := saleID
	err = l.movements.Insert(ctx, tx, domain.StockMovement{
		ProductID:      productID,
		MovementType:   domain.MovementSale,
		QuantityChange: -quantity,
		QuantityBefore: product.Stock,
		QuantityAfter:  after.Stock,
		ReferenceID:    &reference,
		CreatedAt:      now,
	})
	if err != nil {
		return domain.Product{}, err
	}

	if after.IsLowStock() {
		l.logger.Warn("product at or below low-stock threshold",
			zap.String("product_id", productID),
			zap.String("sku", product.SKU),
			zap.Int64("stock", after.Stock),
			zap.Int64("threshold", product.LowStockThreshold),
		)
	}
	return product, nil
}
