package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	domain "github.com/bookshelf-ua/api/internal/domain"
	"github.com/bookshelf-ua/api/internal/services"
)

func sampleDiscount() services.GroupDiscount {
	return services.GroupDiscount{
		ID:       "gd1",
		Key:      "b1|b2",
		Discount: 15,
		BookIDs:  []string{"b1", "b2"},
		Books:    []domain.Book{{ID: "b1", NumberInStock: 2}, {ID: "b2", NumberInStock: 1}},
	}
}

func TestGroupDiscountHandlersPublicList(t *testing.T) {
	var captured services.GroupDiscountListFilter
	svc := &stubGroupDiscountService{
		listFn: func(_ context.Context, filter services.GroupDiscountListFilter) (services.GroupDiscountPage, error) {
			captured = filter
			return services.GroupDiscountPage{Items: []services.GroupDiscount{sampleDiscount()}, TotalCount: 1}, nil
		},
	}
	router := chi.NewRouter()
	NewGroupDiscountHandlers(svc).PublicRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/group-discounts?isInStock=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured.IsInStock == nil || !*captured.IsInStock {
		t.Fatalf("expected in-stock filter, got %+v", captured)
	}
	var resp groupDiscountListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TotalCount != 1 || len(resp.Items) != 1 || !resp.Items[0].InStock || len(resp.Items[0].Books) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestGroupDiscountHandlersBatchGet(t *testing.T) {
	var capturedIDs []string
	svc := &stubGroupDiscountService{
		listByIDsFn: func(_ context.Context, ids []string, _ services.Pagination) (services.GroupDiscountPage, error) {
			capturedIDs = ids
			return services.GroupDiscountPage{Items: []services.GroupDiscount{sampleDiscount()}, TotalCount: 1}, nil
		},
		getFn: func(context.Context, string) (services.GroupDiscount, error) {
			t.Fatalf("batchGet must not route to the single-item handler")
			return services.GroupDiscount{}, nil
		},
	}
	router := chi.NewRouter()
	NewGroupDiscountHandlers(svc).PublicRoutes(router)

	req := httptest.NewRequest(http.MethodPost, "/group-discounts:batchGet", strings.NewReader(`{"ids":["gd1","gd9"]}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(capturedIDs) != 2 || capturedIDs[1] != "gd9" {
		t.Fatalf("unexpected ids %v", capturedIDs)
	}
}

func TestGroupDiscountHandlersAdminErrors(t *testing.T) {
	svc := &stubGroupDiscountService{
		createFn: func(context.Context, services.GroupDiscountCommand) (services.GroupDiscount, error) {
			return services.GroupDiscount{}, fmt.Errorf("%w: b1|b2", services.ErrGroupDiscountDuplicate)
		},
		updateFn: func(context.Context, string, services.GroupDiscountCommand) (services.GroupDiscount, error) {
			return services.GroupDiscount{}, fmt.Errorf("%w: book zz", services.ErrBookNotFound)
		},
		deleteFn: func(_ context.Context, id string) error {
			if id != "gd1" {
				return services.ErrGroupDiscountNotFound
			}
			return nil
		},
	}
	router := chi.NewRouter()
	router.Route("/admin", NewGroupDiscountHandlers(svc).AdminRoutes)

	cases := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodPost, "/admin/group-discounts", `{"bookIds":["b1","b2"],"discount":10}`, http.StatusConflict},
		{http.MethodPut, "/admin/group-discounts/gd1", `{"bookIds":["b1","zz"],"discount":10}`, http.StatusUnprocessableEntity},
		{http.MethodDelete, "/admin/group-discounts/gd1", "", http.StatusNoContent},
		{http.MethodDelete, "/admin/group-discounts/gd2", "", http.StatusNotFound},
		{http.MethodPost, "/admin/group-discounts", `not json`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, rr.Code)
		}
	}
}
