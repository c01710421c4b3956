// Package sales creates sale transactions: validate the request, debit
// inventory, allocate an invoice number and persist, all in one database
// transaction.
package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"makemybill/m/domain"
	"makemybill/m/internal/clock"
	"makemybill/m/internal/inventory"
	"makemybill/m/internal/invoice"
	"makemybill/m/internal/store"
)

// maxAttempts bounds how often a sale is tried when the invoice sequence
// races with another writer.
const maxAttempts = 2

type Line struct {
	ProductID string
	Quantity  int64
	// UnitPrice overrides the product's current price when valid.
	UnitPrice decimal.NullDecimal
}

type Request struct {
	CustomerID    *string
	Items         []Line
	Total         decimal.NullDecimal
	PaymentMethod string
}

// Allocator hands out the next invoice number inside the sale transaction.
// *invoice.Sequencer is the production implementation.
type Allocator interface {
	Allocate(ctx context.Context, tx *sqlx.Tx) (string, error)
}

var _ Allocator = (*invoice.Sequencer)(nil)

type Engine struct {
	store     *store.Store
	ledger    *inventory.Ledger
	sequencer Allocator
	clock     clock.Clock
	logger    *zap.Logger
}

func NewEngine(st *store.Store, ledger *inventory.Ledger, seq Allocator, clk clock.Clock, logger *zap.Logger) *Engine {
	return &Engine{store: st, ledger: ledger, sequencer: seq, clock: clk, logger: logger}
}

// Create runs a sale request to completion and returns the persisted sale
// with its customer and products resolved. Either every line is debited
// and the sale stored, or nothing changes.
func (e *Engine) Create(ctx context.Context, req Request) (domain.Sale, error) {
	if req.CustomerID != nil && strings.TrimSpace(*req.CustomerID) == "" {
		req.CustomerID = nil
	}
	method, err := validate(req)
	if err != nil {
		return domain.Sale{}, err
	}

	var sale domain.Sale
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		sale, err = e.attempt(ctx, req, method)
		if err == nil {
			break
		}
		if attempt < maxAttempts && domain.IsSequenceRace(err) {
			e.logger.Warn("invoice number allocation raced, retrying sale",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		return domain.Sale{}, err
	}

	e.logger.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("invoice_number", sale.InvoiceNumber),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.Int("items", len(sale.Items)),
	)
	return sale, nil
}

func (e *Engine) attempt(ctx context.Context, req Request, method domain.PaymentMethod) (domain.Sale, error) {
	ctx, cancel := e.store.WithTimeout(ctx)
	defer cancel()

	sale := domain.Sale{
		ID:            uuid.NewString(),
		CustomerID:    req.CustomerID,
		PaymentMethod: method,
		Items:         make([]domain.SaleItem, 0, len(req.Items)),
	}

	err := e.store.InTx(ctx, func(tx *sqlx.Tx) error {
		if sale.CustomerID != nil {
			if _, err := store.GetCustomerTx(ctx, tx, *sale.CustomerID); err != nil {
				return err
			}
		}

		for i, line := range req.Items {
			product, err := e.ledger.Debit(ctx, tx, line.ProductID, line.Quantity, sale.ID)
			if err != nil {
				if !isLineFailure(err) {
					return err
				}
				e.logger.Info("sale rejected, rolling back stock debits",
					zap.Int("line", i),
					zap.String("product_id", line.ProductID),
					zap.Error(err),
				)
				return &domain.LineItemError{Index: i, ProductID: line.ProductID, ProductName: product.Name, Err: err}
			}
			price := product.Price
			if line.UnitPrice.Valid {
				price = domain.RoundMoney(line.UnitPrice.Decimal)
			}
			sale.Items = append(sale.Items, domain.SaleItem{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: price,
			})
		}

		sale.Total = domain.RoundMoney(sale.Subtotal())
		if err := domain.CheckAmount("total", sale.Total); err != nil {
			return err
		}
		if req.Total.Valid && req.Total.Decimal.Sub(sale.Total).Abs().GreaterThan(domain.TotalTolerance) {
			return &domain.ValidationError{
				Field: "total",
				Err:   fmt.Errorf("%w: submitted %s, computed %s", domain.ErrTotalMismatch, req.Total.Decimal.StringFixed(2), sale.Total.StringFixed(2)),
			}
		}

		number, err := e.sequencer.Allocate(ctx, tx)
		if err != nil {
			return err
		}
		sale.InvoiceNumber = number
		sale.CreatedAt = e.clock.Now()

		if err := store.InsertSale(ctx, tx, sale); err != nil {
			return err
		}

		// Resolved before commit, so a sale is never reported as failed
		// after it was stored.
		resolved, err := store.GetSaleTx(ctx, tx, sale.ID)
		if err != nil {
			return fmt.Errorf("resolve sale %s: %w", sale.ID, err)
		}
		sale = resolved
		return nil
	})
	if err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

func isLineFailure(err error) bool {
	return errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInsufficientStock)
}

// validate checks the request shape before any storage is touched.
func validate(req Request) (domain.PaymentMethod, error) {
	if len(req.Items) == 0 {
		return "", domain.ErrEmptyOrder
	}
	for i, line := range req.Items {
		if strings.TrimSpace(line.ProductID) == "" {
			return "", &domain.LineItemError{Index: i, Err: &domain.ValidationError{Field: fmt.Sprintf("items[%d].product", i), Err: domain.ErrValidation}}
		}
		if line.Quantity < 1 {
			return "", &domain.LineItemError{Index: i, ProductID: line.ProductID, Err: domain.ErrInvalidQuantity}
		}
		if line.UnitPrice.Valid {
			if err := domain.CheckAmount(fmt.Sprintf("items[%d].unit_price", i), line.UnitPrice.Decimal); err != nil {
				return "", &domain.LineItemError{Index: i, ProductID: line.ProductID, Err: err}
			}
		}
	}
	if req.Total.Valid {
		if err := domain.CheckAmount("total", req.Total.Decimal); err != nil {
			return "", err
		}
	}
	return domain.ParsePaymentMethod(req.PaymentMethod)
}
