package httppresentation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	appInventory "github.com/Zhima-Mochi/minishop-orders/internal/application/inventory"
	appOrder "github.com/Zhima-Mochi/minishop-orders/internal/application/order"
	"github.com/Zhima-Mochi/minishop-orders/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/observability/zaplogger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) NewID() string { return fmt.Sprintf("id-%d", g.n.Add(1)) }

type fixture struct {
	srv   *httptest.Server
	store *memory.Store
	reg   *prometheus.Registry
	logs  *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	tel := infraobs.New(nil, zaplogger.Wrap(zap.New(core)), prometrics.StandardInstruments(prometrics.New(reg, "", "")))

	store := memory.NewStore()
	p, _ := product.New("1", "Widget", 10, decimal.NewFromInt(100))
	if err := store.Products().Insert(t.Context(), p); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ids := &seqIDs{}
	h := NewHandler(Deps{
		PlaceOrder: appOrder.NewPlaceOrderUseCase(store, ids, tel,
			appOrder.WithIdempotency(memory.NewIdempotencyStore(0)),
		),
		GetOrder:   appOrder.NewGetOrderUseCase(store.Orders(), tel),
		ListOrders: appOrder.NewListOrdersUseCase(store.Orders(), tel),
		Catalogue:  appInventory.NewService(store.Products(), ids, tel),
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}, tel)

	srv := httptest.NewServer(h.Router())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: store, reg: reg, logs: logs}
}

func (f *fixture) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestPlaceOrderEndpoint(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/orders", `{"product_id":"1","quantity":3}`, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	if body["success"] != true || body["remaining_stock"] != float64(7) {
		t.Fatalf("unexpected body %v", body)
	}
	order := body["order"].(map[string]any)
	if order["total_price"] != "300" || order["product_id"] != "1" {
		t.Fatalf("unexpected order %v", order)
	}
	if resp.Header.Get(headerRequestID) == "" {
		t.Fatalf("expected X-Request-ID to be echoed")
	}

	resp, body = f.do(t, http.MethodGet, "/orders/"+order["id"].(string), "", nil)
	if resp.StatusCode != http.StatusOK || body["order"].(map[string]any)["quantity"] != float64(3) {
		t.Fatalf("get order: %d %v", resp.StatusCode, body)
	}

	resp, body = f.do(t, http.MethodGet, "/products/1/orders", "", nil)
	if resp.StatusCode != http.StatusOK || len(body["orders"].([]any)) != 1 {
		t.Fatalf("list orders: %d %v", resp.StatusCode, body)
	}
}

func TestPlaceOrderErrors(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"insufficient stock", `{"product_id":"1","quantity":50}`, http.StatusConflict},
		{"unknown product", `{"product_id":"nope","quantity":1}`, http.StatusNotFound},
		{"zero quantity", `{"product_id":"1","quantity":0}`, http.StatusBadRequest},
		{"malformed", `{"product_id":`, http.StatusBadRequest},
		{"unknown field", `{"product_id":"1","quantity":1,"coupon":"x"}`, http.StatusBadRequest},
		{"empty", ``, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := f.do(t, http.MethodPost, "/orders", tc.body, nil)
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d (%v)", tc.want, resp.StatusCode, body)
			}
			if body["success"] != false || body["error"] == "" {
				t.Fatalf("unexpected error body %v", body)
			}
		})
	}

	p, _ := f.store.Products().Find(t.Context(), "1")
	if p.Stock != 10 {
		t.Fatalf("failed requests must not touch stock, got %d", p.Stock)
	}

	resp, _ := f.do(t, http.MethodGet, "/orders/missing", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing order, got %d", resp.StatusCode)
	}
}

func TestPlaceOrderIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	hdr := map[string]string{headerIdempotencyKey: "abc"}

	first, b1 := f.do(t, http.MethodPost, "/orders", `{"product_id":"1","quantity":2}`, hdr)
	second, b2 := f.do(t, http.MethodPost, "/orders", `{"product_id":"1","quantity":2}`, hdr)

	if first.StatusCode != http.StatusCreated || second.StatusCode != http.StatusOK {
		t.Fatalf("expected 201 then 200, got %d then %d", first.StatusCode, second.StatusCode)
	}
	id1 := b1["order"].(map[string]any)["id"]
	id2 := b2["order"].(map[string]any)["id"]
	if id1 != id2 || b2["replayed"] != true {
		t.Fatalf("expected replay of %v, got %v", id1, b2)
	}
}

func TestProductEndpoints(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodPost, "/products", `{"id":"2","name":"Gadget","stock":1,"price":"9.99"}`, nil)
	if resp.StatusCode != http.StatusCreated || body["product"].(map[string]any)["price"] != "9.99" {
		t.Fatalf("register: %d %v", resp.StatusCode, body)
	}

	resp, _ = f.do(t, http.MethodPost, "/products", `{"id":"2","name":"Gadget","stock":1,"price":"1"}`, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate, got %d", resp.StatusCode)
	}
	resp, _ = f.do(t, http.MethodPost, "/products", `{"name":"","stock":1,"price":"1"}`, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on blank name, got %d", resp.StatusCode)
	}

	resp, body = f.do(t, http.MethodPost, "/products/2/restock", `{"quantity":4}`, nil)
	if resp.StatusCode != http.StatusOK || body["product"].(map[string]any)["stock"] != float64(5) {
		t.Fatalf("restock: %d %v", resp.StatusCode, body)
	}

	for _, overflow := range []string{`{"quantity":9223372036854775807}`, `{"quantity":2147483647}`} {
		resp, _ = f.do(t, http.MethodPost, "/products/2/restock", overflow, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("restock %s: expected 400, got %d", overflow, resp.StatusCode)
		}
	}
	for _, price := range []string{`"0.123456"`, `"1e-50000000"`, `"1e20"`} {
		resp, _ = f.do(t, http.MethodPost, "/products", `{"name":"Odd","stock":1,"price":`+price+`}`, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("price %s: expected 400, got %d", price, resp.StatusCode)
		}
	}

	resp, body = f.do(t, http.MethodGet, "/products/2", "", nil)
	if resp.StatusCode != http.StatusOK || body["product"].(map[string]any)["name"] != "Gadget" || body["product"].(map[string]any)["stock"] != float64(5) {
		t.Fatalf("get product: %d %v", resp.StatusCode, body)
	}
	resp, _ = f.do(t, http.MethodGet, "/products/zzz", "", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestObservabilityAndHealth(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodGet, "/health", "", map[string]string{headerRequestID: "req-42"})
	if resp.StatusCode != http.StatusOK || resp.Header.Get(headerRequestID) != "req-42" {
		t.Fatalf("health: %d %q", resp.StatusCode, resp.Header.Get(headerRequestID))
	}

	access := f.logs.FilterMessage("http_access").All()
	if len(access) != 1 {
		t.Fatalf("expected 1 access log, got %d", len(access))
	}
	fields := access[0].ContextMap()
	if fields["request_id"] != "req-42" || fields["route"] != "/health" {
		t.Fatalf("unexpected access log fields %v", fields)
	}

	n, err := testutil.GatherAndCount(f.reg, "http_requests_total")
	if err != nil || n != 1 {
		t.Fatalf("expected one http_requests_total series, got %d (%v)", n, err)
	}

	resp, err = http.Get(f.srv.URL + "/metrics")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: %v %v", resp, err)
	}
	resp.Body.Close()
}
