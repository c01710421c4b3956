// Package invoice numbers sales and turns persisted sales into printable
// invoice documents.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"makemybill/m/domain"
	"makemybill/m/internal/clock"
	"makemybill/m/internal/config"
)

const (
	WalkInCustomer  = "Walk-in Customer"
	UnknownCustomer = "Unknown Customer"
	UnknownProduct  = "Unknown Product"
	UnknownSKU      = "N/A"

	// CurrencySymbol prefixes every amount. The standard PDF fonts have no
	// rupee glyph, so the abbreviation is used.
	CurrencySymbol = "Rs."

	dateLayout      = "January 2, 2006"
	generatedLayout = "1/2/2006, 3:04:05 PM"
)

// Columns of the item table, in order.
var Columns = []string{"Item", "SKU", "Qty", "Price", "Total"}

// Document is a fully materialized invoice, ready to render. Fields are
// listed in the order they appear on the page.
type Document struct {
	Title    string
	Keywords string

	IssuerName    string
	IssuerTagline string

	InvoiceNumber string
	Date          string

	BilledTo []string
	WalkIn   bool

	Rows []Row

	Subtotal   string
	GrandTotal string

	PaymentMethod string

	Footer      []string
	GeneratedAt time.Time
}

type Row struct {
	Name      string
	SKU       string
	Quantity  string
	UnitPrice string
	LineTotal string
	Shaded    bool
}

// Builder projects a sale with resolved references into a Document.
type Builder struct {
	issuerName    string
	issuerTagline string
	clock         clock.Clock
	Location      *time.Location
}

func NewBuilder(cfg config.InvoiceConfig, clk clock.Clock) *Builder {
	return &Builder{
		issuerName:    cfg.IssuerName,
		issuerTagline: cfg.IssuerTagline,
		clock:         clk,
		Location:      time.Local,
	}
}

// Build validates the sale and produces its document. A sale without an
// invoice number or without items is rejected before anything is built.
func (b *Builder) Build(sale domain.Sale) (*Document, error) {
	if strings.TrimSpace(sale.InvoiceNumber) == "" {
		return nil, fmt.Errorf("%w: missing invoice number", domain.ErrInvalidSaleData)
	}
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: no items found", domain.ErrInvalidSaleData)
	}

	generated := b.clock.Now().In(b.Location)
	doc := &Document{
		Title:         "Invoice " + sale.InvoiceNumber,
		Keywords:      "invoice, billing, pos",
		IssuerName:    b.issuerName,
		IssuerTagline: b.issuerTagline,
		InvoiceNumber: sale.InvoiceNumber,
		Date:          sale.CreatedAt.In(b.Location).Format(dateLayout),
		Rows:          make([]Row, len(sale.Items)),
		PaymentMethod: strings.ToUpper(string(paymentMethod(sale))),
		GeneratedAt:   generated,
	}

	if c := sale.Customer; c != nil {
		name := c.Name
		if name == "" {
			name = UnknownCustomer
		}
		doc.BilledTo = []string{name}
		for _, line := range []string{c.Email, c.Phone, c.Address} {
			if line != "" {
				doc.BilledTo = append(doc.BilledTo, line)
			}
		}
	} else {
		doc.BilledTo = []string{WalkInCustomer}
		doc.WalkIn = true
	}

	for i, item := range sale.Items {
		row := Row{
			Name:      UnknownProduct,
			SKU:       UnknownSKU,
			Quantity:  fmt.Sprintf("%d", item.Quantity),
			UnitPrice: FormatMoney(item.UnitPrice),
			LineTotal: FormatMoney(item.LineTotal()),
			Shaded:    i%2 == 0,
		}
		if p := item.Product; p != nil {
			if p.Name != "" {
				row.Name = p.Name
			}
			if p.SKU != "" {
				row.SKU = p.SKU
			}
		}
		doc.Rows[i] = row
	}

	doc.Subtotal = FormatMoney(sale.Subtotal())
	doc.GrandTotal = FormatMoney(sale.Total)

	doc.Footer = []string{"Thank you for your business!"}
	if b.issuerName != "" {
		issuer := b.issuerName
		if b.issuerTagline != "" {
			issuer += " - " + b.issuerTagline
		}
		doc.Footer = append(doc.Footer, issuer)
	}
	doc.Footer = append(doc.Footer, "Generated on "+generated.Format(generatedLayout))
	return doc, nil
}

// FormatMoney renders an amount with the currency symbol and two decimals.
func FormatMoney(d decimal.Decimal) string {
	return CurrencySymbol + d.StringFixed(2)
}

func paymentMethod(sale domain.Sale) domain.PaymentMethod {
	if sale.PaymentMethod == "" {
		return domain.PaymentCash
	}
	return sale.PaymentMethod
}
