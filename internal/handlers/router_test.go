package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bookshelf-ua/api/internal/services"
)

func TestRouterUnknownRouteReturnsJSONError(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != errorNotFoundCode {
		t.Fatalf("expected %s, got %v", errorNotFoundCode, body["error"])
	}
	if body["request_id"] == nil {
		t.Fatalf("expected request id in error envelope")
	}
}

func TestRouterUnconfiguredGroupsAreNotImplemented(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rr.Code)
	}
}

func TestRouterMountsGroupsWithMiddleware(t *testing.T) {
	guard := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, withIdentity(r, "user-1"))
		})
	}
	orders := NewOrderHandlers(&stubOrderService{
		listFn: func(_ context.Context, filter services.OrderListFilter) (services.OrderPage, error) {
			if filter.UserID != "user-1" {
				t.Fatalf("expected user scoped listing, got %+v", filter)
			}
			return services.OrderPage{}, nil
		},
	}, nil)
	discounts := NewGroupDiscountHandlers(&stubGroupDiscountService{})
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	router := NewRouter(
		WithMetricsHandler(metrics),
		WithPublicRoutes(discounts.PublicRoutes),
		WithOrderRoutes(orders.Routes, guard),
		WithAdminRoutes(Registrars(orders.AdminRoutes, discounts.AdminRoutes), guard),
	)

	cases := []struct {
		method string
		path   string
		auth   bool
		want   int
	}{
		{http.MethodGet, "/api/v1/orders", false, http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/orders", true, http.StatusOK},
		{http.MethodGet, "/api/v1/group-discounts", false, http.StatusOK},
		{http.MethodGet, "/api/v1/metrics", false, http.StatusOK},
		{http.MethodDelete, "/api/v1/admin/group-discounts/gd1", true, http.StatusNoContent},
		{http.MethodDelete, "/api/v1/admin/group-discounts/gd1", false, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(""))
		if tc.auth {
			req.Header.Set("Authorization", "Bearer token")
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, rr.Code)
		}
	}
}

func TestRegistrarsAppliesInOrder(t *testing.T) {
	var order []string
	reg := Registrars(
		func(chi.Router) { order = append(order, "a") },
		nil,
		func(chi.Router) { order = append(order, "b") },
	)
	reg(chi.NewRouter())
	if strings.Join(order, ",") != "a,b" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestRouterAppliesRequestTimeout(t *testing.T) {
	var deadline time.Time
	router := NewRouter(
		WithRequestTimeout(2*time.Second),
		WithPublicRoutes(func(r chi.Router) {
			r.Get("/probe", func(w http.ResponseWriter, req *http.Request) {
				deadline, _ = req.Context().Deadline()
				w.WriteHeader(http.StatusNoContent)
			})
		}),
	)

	start := time.Now()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/probe", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if deadline.IsZero() || deadline.Sub(start) > 3*time.Second {
		t.Fatalf("expected a deadline within the configured timeout, got %v", deadline)
	}
}
