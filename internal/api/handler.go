package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"makemybill/m/internal/analytics"
	"makemybill/m/internal/clock"
	"makemybill/m/internal/invoice"
	"makemybill/m/internal/sales"
	"makemybill/m/internal/store"
)

// Dependencies are the collaborators the HTTP handlers delegate to.
type Dependencies struct {
	Store      *store.Store
	Engine     *sales.Engine
	Builder    *invoice.Builder
	Renderer   *invoice.Renderer
	Analytics  *analytics.Aggregator
	Clock      clock.Clock
	Logger     *zap.Logger
	Secret     string
	TokenTTL   time.Duration
	CORSOrigin string
}

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store      *store.Store
	engine     *sales.Engine
	builder    *invoice.Builder
	renderer   *invoice.Renderer
	analytics  *analytics.Aggregator
	clock      clock.Clock
	logger     *zap.Logger
	secret     string
	tokenTTL   time.Duration
	corsOrigin string
}

// New constructs a Handler.
func New(deps Dependencies) *Handler {
	if deps.TokenTTL <= 0 {
		deps.TokenTTL = 7 * 24 * time.Hour
	}
	if deps.CORSOrigin == "" {
		deps.CORSOrigin = "*"
	}
	return &Handler{
		store:      deps.Store,
		engine:     deps.Engine,
		builder:    deps.Builder,
		renderer:   deps.Renderer,
		analytics:  deps.Analytics,
		clock:      deps.Clock,
		logger:     deps.Logger,
		secret:     deps.Secret,
		tokenTTL:   deps.TokenTTL,
		corsOrigin: deps.CORSOrigin,
	}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{h.corsOrigin},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.authMiddleware)

			pr.Route("/products", func(r chi.Router) {
				r.Get("/", h.listProducts)
				r.Post("/", h.createProduct)
				r.Get("/low-stock", h.lowStockProducts)
				r.Get("/{id}", h.getProduct)
				r.Put("/{id}", h.updateProduct)
				r.Delete("/{id}", h.deleteProduct)
				r.Get("/{id}/movements", h.productMovements)
			})

			pr.Route("/customers", func(r chi.Router) {
				r.Get("/", h.listCustomers)
				r.Post("/", h.createCustomer)
				r.Get("/{id}", h.getCustomer)
				r.Put("/{id}", h.updateCustomer)
				r.Delete("/{id}", h.deleteCustomer)
			})

			pr.Route("/sales", func(r chi.Router) {
				r.Post("/", h.createSale)
				r.Get("/", h.listSales)
				r.Get("/test-pdf", h.testInvoice)
				r.Get("/{id}", h.getSale)
				r.Get("/{id}/invoice", h.saleInvoice)
			})

			pr.Route("/analytics", func(r chi.Router) {
				r.Get("/kpis", h.kpis)
				r.Get("/sales-by-day", h.salesByDay)
				r.Get("/top-products", h.topProducts)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs one structured line per request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			h.logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", requestID(r)),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func requestID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
