package invoice

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// ContentType is the media type of rendered invoices.
const ContentType = "application/pdf"

const (
	pageMargin   = 50.0
	bottomMargin = 70.0
	headerHeight = 25.0
	rowHeight    = 24.0
	footerOffset = 40.0
)

var columnWidths = []float64{200, 80, 80, 80, 55}

type rgb struct{ r, g, b int }

var (
	colorBrand  = rgb{0x63, 0x66, 0xf1}
	colorMuted  = rgb{0x64, 0x74, 0x8b}
	colorInk    = rgb{0x1e, 0x29, 0x3b}
	colorHeader = rgb{0xe2, 0xe8, 0xf0}
	colorShade  = rgb{0xf8, 0xfa, 0xfc}
)

// Renderer turns a Document into PDF bytes.
type Renderer struct {
	Compress bool
}

func NewRenderer() *Renderer {
	return &Renderer{Compress: true}
}

// Render draws the whole document into memory. Nothing is returned unless
// the PDF was produced without error, so callers can still report a
// failure before responding.
func (r *Renderer) Render(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.IssuerName, true)
	pdf.SetSubject("Invoice", true)
	pdf.SetKeywords(doc.Keywords, true)
	pdf.SetCreationDate(doc.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	text := func(style string, size float64, c rgb, h float64, s, align string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(c.r, c.g, c.b)
		pdf.CellFormat(0, h, tr(s), "", 1, align, false, 0, "")
	}

	pdf.AddPage()

	text("B", 24, colorBrand, 30, doc.IssuerName, "C")
	if doc.IssuerTagline != "" {
		text("", 14, colorMuted, 20, doc.IssuerTagline, "C")
	}
	pdf.Ln(28)

	text("B", 16, colorInk, 22, "INVOICE", "R")
	text("", 12, colorMuted, 16, "Invoice #: "+doc.InvoiceNumber, "R")
	text("", 12, colorMuted, 16, "Date: "+doc.Date, "R")
	pdf.Ln(24)

	text("B", 14, colorInk, 20, "Bill To:", "L")
	for _, line := range doc.BilledTo {
		text("", 12, colorMuted, 16, line, "L")
	}
	pdf.Ln(24)

	_, pageHeight := pdf.GetPageSize()
	tableHeader := func() {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetFillColor(colorHeader.r, colorHeader.g, colorHeader.b)
		pdf.SetTextColor(colorInk.r, colorInk.g, colorInk.b)
		pdf.SetX(pageMargin)
		for i, col := range Columns {
			pdf.CellFormat(columnWidths[i], headerHeight, "  "+col, "", 0, "L", true, 0, "")
		}
		pdf.Ln(headerHeight)
	}
	tableHeader()

	pdf.SetDrawColor(colorHeader.r, colorHeader.g, colorHeader.b)
	for _, row := range doc.Rows {
		if pdf.GetY()+rowHeight > pageHeight-bottomMargin {
			pdf.AddPage()
			tableHeader()
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(colorInk.r, colorInk.g, colorInk.b)
		pdf.SetFillColor(colorShade.r, colorShade.g, colorShade.b)
		pdf.SetX(pageMargin)
		cells := []string{row.Name, row.SKU, row.Quantity, row.UnitPrice, row.LineTotal}
		for i, cell := range cells {
			pdf.CellFormat(columnWidths[i], rowHeight, "  "+tr(cell), "B", 0, "L", row.Shaded, 0, "")
		}
		pdf.Ln(rowHeight)
	}
	pdf.Ln(20)

	totals := func(style string, size float64, c rgb, label, amount string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(c.r, c.g, c.b)
		pdf.SetX(pageMargin + 495 - 200)
		pdf.CellFormat(100, 20, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(100, 20, amount, "", 1, "R", false, 0, "")
	}
	totals("", 12, colorMuted, "Subtotal:", doc.Subtotal)
	totals("B", 14, colorInk, "Total:", doc.GrandTotal)
	pdf.Ln(24)

	text("B", 12, colorInk, 16, "Payment Method: "+doc.PaymentMethod, "L")
	pdf.Ln(36)

	for _, line := range doc.Footer {
		text("", 10, colorMuted, 16, line, "C")
	}

	// Page labels need the final count, so they are stamped once every
	// page exists.
	if n := pdf.PageCount(); n > 1 {
		pdf.SetAutoPageBreak(false, 0)
		for i := 1; i <= n; i++ {
			pdf.SetPage(i)
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(colorMuted.r, colorMuted.g, colorMuted.b)
			pdf.SetXY(pageMargin, pageHeight-footerOffset)
			pdf.CellFormat(0, 10, fmt.Sprintf("Page %d of %d", i, n), "", 0, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", doc.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}
