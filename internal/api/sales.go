package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"makemybill/m/domain"
	"makemybill/m/internal/invoice"
	"makemybill/m/internal/sales"
)

type saleLineRequest struct {
	ProductID string              `json:"product_id"`
	Quantity  int64               `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
}

type createSaleRequest struct {
	CustomerID    *string             `json:"customer_id"`
	Items         []saleLineRequest   `json:"items"`
	Total         decimal.NullDecimal `json:"total"`
	PaymentMethod string              `json:"payment_method"`
}

func (req createSaleRequest) toEngine() sales.Request {
	lines := make([]sales.Line, len(req.Items))
	for i, item := range req.Items {
		lines[i] = sales.Line{ProductID: item.ProductID, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	return sales.Request{
		CustomerID:    req.CustomerID,
		Items:         lines,
		Total:         req.Total,
		PaymentMethod: req.PaymentMethod,
	}
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	sale, err := h.engine.Create(r.Context(), req.toEngine())
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	list, err := h.store.Sales.List(ctx)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	sale, err := h.store.Sales.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

// saleInvoice renders the stored sale as a PDF attachment.
func (h *Handler) saleInvoice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	sale, err := h.store.Sales.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	h.writeInvoice(w, r, sale, fmt.Sprintf("attachment; filename=%q", "invoice-"+sale.InvoiceNumber+".pdf"))
}

// testInvoice renders a fixed sample sale without touching storage.
func (h *Handler) testInvoice(w http.ResponseWriter, r *http.Request) {
	now := h.clock.Now()
	customerID := uuid.NewString()
	sale := domain.Sale{
		ID:            uuid.NewString(),
		InvoiceNumber: "TEST-001",
		CustomerID:    &customerID,
		Customer: &domain.Customer{
			ID:      customerID,
			Name:    "Test Customer",
			Phone:   "1234567890",
			Email:   "test@example.com",
			Address: "123 Test Street",
		},
		Items: []domain.SaleItem{{
			ProductID: "test-product",
			Product: &domain.Product{
				ID:    "test-product",
				Name:  "Test Product",
				SKU:   "TEST-SKU",
				Price: decimal.NewFromInt(100),
			},
			Quantity:  2,
			UnitPrice: decimal.NewFromInt(100),
		}},
		Total:         decimal.NewFromInt(200),
		PaymentMethod: domain.PaymentCash,
		CreatedAt:     now,
	}
	h.writeInvoice(w, r, sale, `inline; filename="test-invoice.pdf"`)
}

// writeInvoice builds and renders the whole document before any header is
// written, so a failure still produces a JSON error response.
func (h *Handler) writeInvoice(w http.ResponseWriter, r *http.Request, sale domain.Sale, disposition string) {
	doc, err := h.builder.Build(sale)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	data, err := h.renderer.Render(doc)
	if err != nil {
		h.respondDomainError(w, r, fmt.Errorf("render invoice %s: %w", sale.InvoiceNumber, err))
		return
	}

	h.logger.Info("invoice rendered",
		zap.String("sale_id", sale.ID),
		zap.String("invoice_number", sale.InvoiceNumber),
		zap.Int("bytes", len(data)),
	)
	w.Header().Set("Content-Type", invoice.ContentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
