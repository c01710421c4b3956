package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"makemybill/m/domain"
)

type productRequest struct {
	Name              *string             `json:"name"`
	SKU               *string             `json:"sku"`
	Price             decimal.NullDecimal `json:"price"`
	Stock             *int64              `json:"stock"`
	LowStockThreshold *int64              `json:"low_stock_threshold"`
}

// apply copies the supplied fields onto p and validates the result.
func (req productRequest) apply(p *domain.Product) error {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		p.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.Price.Valid {
		p.Price = domain.RoundMoney(req.Price.Decimal)
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.LowStockThreshold != nil {
		p.LowStockThreshold = *req.LowStockThreshold
	}

	if err := required("name", p.Name); err != nil {
		return err
	}
	if err := required("sku", p.SKU); err != nil {
		return err
	}
	if err := domain.CheckAmount("price", p.Price); err != nil {
		return err
	}
	if p.Stock < 0 {
		return &domain.ValidationError{Field: "stock", Err: errors.New("must not be negative")}
	}
	if p.LowStockThreshold < 0 {
		return &domain.ValidationError{Field: "low_stock_threshold", Err: errors.New("must not be negative")}
	}
	return nil
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	products, err := h.store.Products.List(ctx)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	products, err := h.store.Products.LowStock(ctx)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	product, err := h.store.Products.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	if !req.Price.Valid {
		h.respondDomainError(w, r, &domain.ValidationError{Field: "price", Err: errors.New("is required")})
		return
	}
	now := h.clock.Now()
	product := domain.Product{
		LowStockThreshold: domain.DefaultLowStockThreshold,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := req.apply(&product); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	created, err := h.store.Products.Create(ctx, product)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// updateProduct changes only the fields present in the body. The edit is
// applied to the row as read inside the update transaction.
func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err)
		return
	}

	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	updated, err := h.store.Products.Update(ctx, chi.URLParam(r, "id"), h.clock.Now(), req.apply)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	if err := h.store.Products.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) productMovements(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	id := chi.URLParam(r, "id")
	if _, err := h.store.Products.Get(ctx, id); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	movements, err := h.store.Movements.ListByProduct(ctx, id)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, movements)
}
