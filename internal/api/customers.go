package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"makemybill/m/domain"
)

type customerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

func (req customerRequest) toDomain() (domain.Customer, error) {
	if err := required("name", req.Name); err != nil {
		return domain.Customer{}, err
	}
	return domain.Customer{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Address: strings.TrimSpace(req.Address),
	}, nil
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	customers, err := h.store.Customers.List(ctx)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	customer, err := h.store.Customers.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	customer, err := req.toDomain()
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	customer.CreatedAt = h.clock.Now()
	customer.UpdatedAt = customer.CreatedAt

	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	created, err := h.store.Customers.Create(ctx, customer)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	customer, err := req.toDomain()
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	customer.ID = chi.URLParam(r, "id")
	customer.UpdatedAt = h.clock.Now()

	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	updated, err := h.store.Customers.Update(ctx, customer)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	if err := h.store.Customers.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
