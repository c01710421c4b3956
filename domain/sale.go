package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// ParsePaymentMethod accepts one of the enumerated methods, case-insensitively.
// An empty value selects cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return PaymentCash, nil
	case PaymentCash, PaymentCard, PaymentUPI, PaymentBankTransfer:
		return m, nil
	default:
		return "", &ValidationError{Field: "payment_method", Err: fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, s)}
	}
}

// SaleItem is a line of a sale. UnitPrice is the price captured when the
// sale was made; Product is resolved on read and may be nil if the product
// has since been deleted.
type SaleItem struct {
	ProductID string          `json:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func (i SaleItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

type Sale struct {
	ID            string          `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Items         []SaleItem      `json:"items"`
	CustomerID    *string         `json:"customer_id,omitempty"`
	Customer      *Customer       `json:"customer,omitempty"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Subtotal sums the captured line totals.
func (s Sale) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range s.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}
