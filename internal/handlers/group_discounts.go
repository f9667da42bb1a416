package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bookshelf-ua/api/internal/platform/httpx"
	"github.com/bookshelf-ua/api/internal/services"
)

// GroupDiscountHandlers exposes the bundle catalog and its staff management endpoints.
type GroupDiscountHandlers struct {
	discounts services.GroupDiscountService
}

// NewGroupDiscountHandlers constructs bundle handlers.
func NewGroupDiscountHandlers(discounts services.GroupDiscountService) *GroupDiscountHandlers {
	return &GroupDiscountHandlers{discounts: discounts}
}

type groupDiscountRequest struct {
	BookIDs  []string `json:"bookIds"`
	Discount int      `json:"discount"`
}

type batchGetRequest struct {
	IDs []string `json:"ids"`
}

// PublicRoutes wires the read-only bundle endpoints onto the API root.
func (h *GroupDiscountHandlers) PublicRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/group-discounts", h.listGroupDiscounts)
	r.Post("/group-discounts:batchGet", h.batchGetGroupDiscounts)
	r.Get("/group-discounts/{groupDiscountId}", h.getGroupDiscount)
}

// AdminRoutes wires bundle management under the admin group.
func (h *GroupDiscountHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/group-discounts", h.createGroupDiscount)
	r.Put("/group-discounts/{groupDiscountId}", h.updateGroupDiscount)
	r.Delete("/group-discounts/{groupDiscountId}", h.deleteGroupDiscount)
}

func (h *GroupDiscountHandlers) listGroupDiscounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		writeUnavailable(ctx, w, "group_discount")
		return
	}
	page, ok := pageFromRequest(w, r)
	if !ok {
		return
	}
	inStock, err := optionalBool(r, "isInStock")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	result, err := h.discounts.List(ctx, services.GroupDiscountListFilter{IsInStock: inStock, Pagination: page})
	if err != nil {
		writeGroupDiscountError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildGroupDiscountList(result))
}

func (h *GroupDiscountHandlers) batchGetGroupDiscounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		writeUnavailable(ctx, w, "group_discount")
		return
	}
	page, ok := pageFromRequest(w, r)
	if !ok {
		return
	}
	var req batchGetRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	result, err := h.discounts.ListByIDs(ctx, req.IDs, page)
	if err != nil {
		writeGroupDiscountError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildGroupDiscountList(result))
}

func (h *GroupDiscountHandlers) getGroupDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		writeUnavailable(ctx, w, "group_discount")
		return
	}
	discount, err := h.discounts.Get(ctx, chi.URLParam(r, "groupDiscountId"))
	if err != nil {
		writeGroupDiscountError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildGroupDiscountPayload(discount))
}

func (h *GroupDiscountHandlers) createGroupDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		writeUnavailable(ctx, w, "group_discount")
		return
	}
	var req groupDiscountRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	discount, err := h.discounts.Create(ctx, services.GroupDiscountCommand{BookIDs: req.BookIDs, Discount: req.Discount})
	if err != nil {
		writeGroupDiscountError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, buildGroupDiscountPayload(discount))
}

func (h *GroupDiscountHandlers) updateGroupDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		writeUnavailable(ctx, w, "group_discount")
		return
	}
	var req groupDiscountRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}
	discount, err := h.discounts.Update(ctx, chi.URLParam(r, "groupDiscountId"), services.GroupDiscountCommand{BookIDs: req.BookIDs, Discount: req.Discount})
	if err != nil {
		writeGroupDiscountError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildGroupDiscountPayload(discount))
}

func (h *GroupDiscountHandlers) deleteGroupDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discounts == nil {
		writeUnavailable(ctx, w, "group_discount")
		return
	}
	if err := h.discounts.Delete(ctx, chi.URLParam(r, "groupDiscountId")); err != nil {
		writeGroupDiscountError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeGroupDiscountError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrGroupDiscountInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrGroupDiscountNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("group_discount_not_found", "group discount not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBookNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("book_not_found", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrGroupDiscountDuplicate):
		httpx.WriteError(ctx, w, httpx.NewError("group_discount_exists", "a group discount with the same books already exists", http.StatusConflict))
	case errors.Is(err, services.ErrGroupDiscountUnavailable):
		writeUnavailable(ctx, w, "group_discount")
	default:
		httpx.WriteError(ctx, w, httpx.NewError("group_discount_error", "failed to process group discount", http.StatusInternalServerError))
	}
}
