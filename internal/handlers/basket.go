package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookshelf-ua/api/internal/platform/httpx"
	"github.com/bookshelf-ua/api/internal/services"
)

// BasketHandlers exposes the current user's basket under /me.
type BasketHandlers struct {
	baskets services.BasketService
}

// NewBasketHandlers constructs basket handlers.
func NewBasketHandlers(baskets services.BasketService) *BasketHandlers {
	return &BasketHandlers{baskets: baskets}
}

type addBasketBookRequest struct {
	BookID string `json:"bookId"`
}

type addBasketGroupDiscountRequest struct {
	GroupDiscountID string `json:"groupDiscountId"`
}

type basketCountRequest struct {
	Count int `json:"count"`
}

// Routes wires the basket endpoints.
func (h *BasketHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/basket", h.getBasket)
	r.Delete("/basket", h.clearBasket)
	r.Post("/basket/books", h.addBook)
	r.Put("/basket/books/{bookId}", h.updateBookCount)
	r.Delete("/basket/books/{bookId}", h.removeBook)
	r.Post("/basket/group-discounts", h.addGroupDiscount)
	r.Put("/basket/group-discounts/{groupDiscountId}", h.updateGroupDiscountCount)
	r.Delete("/basket/group-discounts/{groupDiscountId}", h.removeGroupDiscount)
}

// basketCall runs fn for the authenticated user and writes the resulting basket.
func (h *BasketHandlers) basketCall(w http.ResponseWriter, r *http.Request, status int, fn func(ctx context.Context, userID string) (services.Basket, error)) {
	ctx := r.Context()
	if h.baskets == nil {
		writeUnavailable(ctx, w, "basket")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	basket, err := fn(ctx, identity.UID)
	if err != nil {
		writeBasketError(ctx, w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httpx.WriteJSON(w, status, buildBasketPayload(basket))
}

func (h *BasketHandlers) getBasket(w http.ResponseWriter, r *http.Request) {
	h.basketCall(w, r, http.StatusOK, func(ctx context.Context, userID string) (services.Basket, error) {
		return h.baskets.Get(ctx, userID)
	})
}

func (h *BasketHandlers) clearBasket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.baskets == nil {
		writeUnavailable(ctx, w, "basket")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	if err := h.baskets.Clear(ctx, identity.UID); err != nil {
		writeBasketError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BasketHandlers) addBook(w http.ResponseWriter, r *http.Request) {
	var req addBasketBookRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	h.basketCall(w, r, http.StatusOK, func(ctx context.Context, userID string) (services.Basket, error) {
		return h.baskets.AddBook(ctx, userID, req.BookID)
	})
}

func (h *BasketHandlers) updateBookCount(w http.ResponseWriter, r *http.Request) {
	var req basketCountRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	bookID := chi.URLParam(r, "bookId")
	h.basketCall(w, r, http.StatusOK, func(ctx context.Context, userID string) (services.Basket, error) {
		return h.baskets.UpdateBookCount(ctx, userID, bookID, req.Count)
	})
}

func (h *BasketHandlers) removeBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookId")
	h.basketCall(w, r, http.StatusOK, func(ctx context.Context, userID string) (services.Basket, error) {
		return h.baskets.RemoveBook(ctx, userID, bookID)
	})
}

func (h *BasketHandlers) addGroupDiscount(w http.ResponseWriter, r *http.Request) {
	var req addBasketGroupDiscountRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	h.basketCall(w, r, http.StatusOK, func(ctx context.Context, userID string) (services.Basket, error) {
		return h.baskets.AddGroupDiscount(ctx, userID, req.GroupDiscountID)
	})
}

func (h *BasketHandlers) updateGroupDiscountCount(w http.ResponseWriter, r *http.Request) {
	var req basketCountRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	discountID := chi.URLParam(r, "groupDiscountId")
	h.basketCall(w, r, http.StatusOK, func(ctx context.Context, userID string) (services.Basket, error) {
		return h.baskets.UpdateGroupDiscountCount(ctx, userID, discountID, req.Count)
	})
}

func (h *BasketHandlers) removeGroupDiscount(w http.ResponseWriter, r *http.Request) {
	discountID := chi.URLParam(r, "groupDiscountId")
	h.basketCall(w, r, http.StatusOK, func(ctx context.Context, userID string) (services.Basket, error) {
		return h.baskets.RemoveGroupDiscount(ctx, userID, discountID)
	})
}

func writeBasketError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrBasketInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrBasketItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("basket_item_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrBookNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("book_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrGroupDiscountNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("group_discount_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrBasketUnavailable):
		writeUnavailable(ctx, w, "basket")
	default:
		httpx.WriteError(ctx, w, httpx.NewError("basket_error", "failed to update basket", http.StatusInternalServerError))
	}
}
