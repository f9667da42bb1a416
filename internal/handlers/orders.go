package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/bookshelf-ua/api/internal/domain"
	"github.com/bookshelf-ua/api/internal/platform/httpx"
	"github.com/bookshelf-ua/api/internal/services"
)

// OrderHandlers exposes customer order endpoints and the staff order back office.
type OrderHandlers struct {
	orders      services.OrderService
	status      services.OrderStatusResolver
	idempotency func(http.Handler) http.Handler
}

// OrderHandlersOption customises OrderHandlers.
type OrderHandlersOption func(*OrderHandlers)

// WithOrderIdempotency wraps order creation with the idempotency middleware.
func WithOrderIdempotency(mw func(http.Handler) http.Handler) OrderHandlersOption {
	return func(h *OrderHandlers) { h.idempotency = mw }
}

// NewOrderHandlers constructs order handlers. A nil resolver falls back to the default rules.
func NewOrderHandlers(orders services.OrderService, status services.OrderStatusResolver, opts ...OrderHandlersOption) *OrderHandlers {
	if status == nil {
		status = services.NewOrderStatusResolver()
	}
	h := &OrderHandlers{orders: orders, status: status}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type createOrderRequest struct {
	Delivery deliveryPayload    `json:"delivery"`
	Lines    []orderLineRequest `json:"lines"`
	Comment  string             `json:"comment"`
}

type orderLineRequest struct {
	BookID string `json:"bookId"`
	Count  int    `json:"count"`
}

type updateOrderRequest struct {
	IsCanceled     *bool              `json:"isCanceled"`
	IsConfirmed    *bool              `json:"isConfirmed"`
	IsPaid         *bool              `json:"isPaid"`
	IsPartlyPaid   *bool              `json:"isPartlyPaid"`
	IsSent         *bool              `json:"isSent"`
	IsDone         *bool              `json:"isDone"`
	TrackingNumber *string            `json:"trackingNumber"`
	Delivery       *deliveryPayload   `json:"delivery"`
	Lines          []orderLineRequest `json:"lines"`
	AdminComment   *string            `json:"adminComment"`
}

// Routes wires the /orders endpoints for the authenticated customer.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	create := http.Handler(http.HandlerFunc(h.createOrder))
	if h.idempotency != nil {
		create = h.idempotency(create)
	}
	r.Method(http.MethodPost, "/", create)
	r.Get("/", h.listMyOrders)
	r.Get("/{orderId}", h.getOrder)
	r.Get("/{orderId}/status", h.getOrderStatus)
}

// AdminRoutes wires the staff order endpoints under the admin group.
func (h *OrderHandlers) AdminRoutes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/orders", h.adminListOrders)
	r.Get("/orders/{orderId}", h.adminGetOrder)
	r.Patch("/orders/{orderId}", h.updateOrder)
	r.Post("/orders/{orderId}:cancel", h.cancelOrder)
	r.Get("/orders/{orderId}/stock-adjustments", h.listStockAdjustments)
}

func (h *OrderHandlers) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}

	order, err := h.orders.Create(ctx, services.CreateOrderCommand{
		UserID:   identity.UID,
		Delivery: deliveryFromPayload(req.Delivery),
		Lines:    linesFromRequest(req.Lines),
		Comment:  req.Comment,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.ID)
	httpx.WriteJSON(w, http.StatusCreated, buildOrderPayload(order, h.status.ResolveOrder(ctx, order)))
}

func (h *OrderHandlers) listMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	page, ok := pageFromRequest(w, r)
	if !ok {
		return
	}
	h.writeOrderList(w, r, services.OrderListFilter{UserID: identity.UID, Pagination: page})
}

func (h *OrderHandlers) adminListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order")
		return
	}
	page, ok := pageFromRequest(w, r)
	if !ok {
		return
	}
	canceled, err := optionalBool(r, "isCanceled")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	confirmed, err := optionalBool(r, "isConfirmed")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	h.writeOrderList(w, r, services.OrderListFilter{
		UserID:      strings.TrimSpace(r.URL.Query().Get("userId")),
		IsCanceled:  canceled,
		IsConfirmed: confirmed,
		Pagination:  page,
	})
}

func (h *OrderHandlers) writeOrderList(w http.ResponseWriter, r *http.Request, filter services.OrderListFilter) {
	ctx := r.Context()
	page, err := h.orders.List(ctx, filter)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	resp := orderListResponse{Items: make([]orderPayload, 0, len(page.Items)), NextPageToken: page.NextPageToken}
	for _, order := range page.Items {
		resp.Items = append(resp.Items, buildOrderPayload(order, h.status.ResolveOrder(ctx, order)))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, ok := h.loadOwnOrder(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildOrderPayload(order, h.status.ResolveOrder(ctx, order)))
}

func (h *OrderHandlers) getOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, ok := h.loadOwnOrder(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildStatusPayload(h.status.ResolveOrder(ctx, order)))
}

// loadOwnOrder fetches the order and hides orders of other customers behind a 404.
func (h *OrderHandlers) loadOwnOrder(w http.ResponseWriter, r *http.Request) (services.Order, bool) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order")
		return services.Order{}, false
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return services.Order{}, false
	}
	order, err := h.orders.Get(ctx, chi.URLParam(r, "orderId"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return services.Order{}, false
	}
	if order.UserID != identity.UID && !identity.IsStaff() {
		writeOrderError(ctx, w, services.ErrOrderNotFound)
		return services.Order{}, false
	}
	return order, true
}

func (h *OrderHandlers) adminGetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order")
		return
	}
	order, err := h.orders.Get(ctx, chi.URLParam(r, "orderId"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildOrderPayload(order, h.status.ResolveOrder(ctx, order)))
}

func (h *OrderHandlers) updateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}

	var req updateOrderRequest
	if err := httpx.DecodeJSON(r, maxRequestBodySize, &req); err != nil {
		httpx.WriteBodyError(w, r, err)
		return
	}

	cmd := services.UpdateOrderCommand{
		OrderID:        chi.URLParam(r, "orderId"),
		ActorID:        identity.UID,
		IsCanceled:     req.IsCanceled,
		IsConfirmed:    req.IsConfirmed,
		IsPaid:         req.IsPaid,
		IsPartlyPaid:   req.IsPartlyPaid,
		IsSent:         req.IsSent,
		IsDone:         req.IsDone,
		TrackingNumber: req.TrackingNumber,
		AdminComment:   req.AdminComment,
	}
	if req.Delivery != nil {
		delivery := deliveryFromPayload(*req.Delivery)
		cmd.Delivery = &delivery
	}
	if req.Lines != nil {
		cmd.Lines = linesFromRequest(req.Lines)
		if cmd.Lines == nil {
			cmd.Lines = []services.OrderLineInput{}
		}
	}

	order, err := h.orders.Update(ctx, cmd)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildOrderPayload(order, h.status.ResolveOrder(ctx, order)))
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	order, err := h.orders.Cancel(ctx, services.CancelOrderCommand{
		OrderID: chi.URLParam(r, "orderId"),
		ActorID: identity.UID,
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildOrderPayload(order, h.status.ResolveOrder(ctx, order)))
}

func (h *OrderHandlers) listStockAdjustments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		writeUnavailable(ctx, w, "order")
		return
	}
	entries, err := h.orders.ListStockAdjustments(ctx, chi.URLParam(r, "orderId"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	items := make([]stockAdjustmentPayload, 0, len(entries))
	for _, entry := range entries {
		items = append(items, buildStockAdjustmentPayload(entry))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func deliveryFromPayload(p deliveryPayload) services.Delivery {
	return services.Delivery{
		Method:    domain.DeliveryMethod(p.Method),
		Recipient: p.Recipient,
		Phone:     p.Phone,
		City:      p.City,
		Address:   p.Address,
		Branch:    p.Branch,
	}
}

func linesFromRequest(lines []orderLineRequest) []services.OrderLineInput {
	if len(lines) == 0 {
		return nil
	}
	out := make([]services.OrderLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, services.OrderLineInput{BookID: line.BookID, Count: line.Count})
	}
	return out
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrBookNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("book_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrGroupDiscountNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("group_discount_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrOrderInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_transition", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrOrderConflict):
		httpx.WriteError(ctx, w, httpx.NewError("order_conflict", "order was modified concurrently; retry", http.StatusConflict))
	case errors.Is(err, services.ErrOrderInsufficientStock):
		httpx.WriteError(ctx, w, httpx.NewError("insufficient_stock", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrOrderUnavailable), errors.Is(err, services.ErrCounterUnavailable):
		writeUnavailable(ctx, w, "order")
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order", http.StatusInternalServerError))
	}
}
