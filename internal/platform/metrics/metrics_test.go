package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	m := New("test")
	router := chi.NewRouter()
	router.Use(m.Middleware())
	router.Get("/orders/{orderID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/def", nil))

	if got := testutil.ToFloat64(m.requests.WithLabelValues("/orders/{orderID}", "GET", "404")); got != 2 {
		t.Fatalf("expected 2 requests for route pattern, got %v", got)
	}
}

func TestStockCounters(t *testing.T) {
	m := New("test")
	m.StockAdjusted("confirm", -3)
	m.StockAdjusted("confirm", 2)
	m.StockRejected("insufficient_stock")
	m.OrderCreated()

	if got := testutil.ToFloat64(m.stockAdjustments.WithLabelValues("confirm")); got != 2 {
		t.Fatalf("expected 2 adjustments, got %v", got)
	}
	if got := testutil.ToFloat64(m.stockUnits.WithLabelValues("confirm")); got != 5 {
		t.Fatalf("expected 5 units, got %v", got)
	}
	if got := testutil.ToFloat64(m.stockRejections.WithLabelValues("insufficient_stock")); got != 1 {
		t.Fatalf("expected 1 rejection, got %v", got)
	}
	if got := testutil.ToFloat64(m.ordersCreated); got != 1 {
		t.Fatalf("expected 1 order, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New("test")
	m.OrderCreated()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_orders_created_total 1") {
		t.Fatalf("expected orders counter in exposition, got %s", rec.Body.String())
	}
}
