package httppresentation

import (
	"context"
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/minishop-orders/internal/application"
	appInventory "github.com/Zhima-Mochi/minishop-orders/internal/application/inventory"
	appOrder "github.com/Zhima-Mochi/minishop-orders/internal/application/order"
	domainOrder "github.com/Zhima-Mochi/minishop-orders/internal/domain/order"
	domainProduct "github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Catalogue is the product side of the API.
type Catalogue interface {
	Register(ctx context.Context, in appInventory.RegisterProductInput) (*domainProduct.Product, error)
	Get(ctx context.Context, id string) (*domainProduct.Product, error)
	Restock(ctx context.Context, id string, quantity int) (*domainProduct.Product, error)
}

type Deps struct {
	PlaceOrder application.UseCase[appOrder.PlaceOrderInput, *appOrder.PlaceOrderResult]
	GetOrder   application.UseCase[string, *domainOrder.Order]
	ListOrders application.UseCase[string, []*domainOrder.Order]
	Catalogue  Catalogue
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

type Handler struct {
	deps    Deps
	log     observability.Logger
	metrics observability.Metrics
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerTenantID       = "X-Tenant-ID"
	headerIdempotencyKey = "Idempotency-Key"
	maxBodyBytes         = 1 << 20
)

func NewHandler(deps Deps, tel observability.Observability) *Handler {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		deps:    deps,
		log:     tel.Logger().With(observability.F("component", componentHTTPHandler)),
		metrics: tel.Metrics(),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Trace → request logger → access log → HTTP metrics → handler
	h.route(r, http.MethodPost, "/orders", h.handlePlaceOrder)
	h.route(r, http.MethodGet, "/orders/{id}", h.handleGetOrder)
	h.route(r, http.MethodGet, "/products/{id}/orders", h.handleListOrders)
	h.route(r, http.MethodPost, "/products", h.handleRegisterProduct)
	h.route(r, http.MethodGet, "/products/{id}", h.handleGetProduct)
	h.route(r, http.MethodPost, "/products/{id}/restock", h.handleRestock)
	h.route(r, http.MethodGet, "/health", h.handleHealth)

	if h.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.deps.Metrics)
	}
	return r
}

func (h *Handler) route(r chi.Router, method, pattern string, handler http.HandlerFunc) {
	wrapped := h.withTrace(
		ObservabilityMiddleware(
			h.log,
			func(r *http.Request) string { return r.Header.Get(headerRequestID) },
			func(r *http.Request) string { return r.Header.Get(headerTenantID) },
		)(
			h.withAccessLog(
				h.withHTTPMetrics(handler),
			),
		),
	)
	r.Method(method, pattern, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// stable route template keeps metric labels low-cardinality
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), pattern)))
	}))
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func pathID(r *http.Request) string {
	return strings.TrimSpace(chi.URLParam(r, "id"))
}
