package api

import (
	"errors"
	"net/http"
	"strconv"

	"makemybill/m/domain"
)

const (
	defaultChartDays = 14
	maxChartDays     = 366
	defaultTopLimit  = 5
	maxTopLimit      = 100
)

func (h *Handler) kpis(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	kpis, err := h.analytics.KPIs(ctx)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, kpis)
}

func (h *Handler) salesByDay(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", defaultChartDays, maxChartDays)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	series, err := h.analytics.SalesByDay(ctx, days)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, series)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultTopLimit, maxTopLimit)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	ctx, cancel := h.store.WithTimeout(r.Context())
	defer cancel()
	ranks, err := h.analytics.TopProducts(ctx, limit)
	if err != nil {
		h.respondDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ranks)
}

// queryInt reads a positive integer query parameter, falling back to def
// when absent.
func queryInt(r *http.Request, key string, def, max int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > max {
		return 0, &domain.ValidationError{Field: key, Err: errors.New("must be a positive integer within range")}
	}
	return n, nil
}
