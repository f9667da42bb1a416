package services

import (
	"context"
	"time"

	domain "github.com/bookshelf-ua/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Pagination          = domain.Pagination
	Order               = domain.Order
	OrderLine           = domain.OrderLine
	OrderTotals         = domain.OrderTotals
	OrderStatus         = domain.OrderStatus
	Delivery            = domain.Delivery
	Book                = domain.Book
	GroupDiscount       = domain.GroupDiscount
	Basket              = domain.Basket
	StockAdjustment     = domain.StockAdjustment
	SystemHealthReport  = domain.SystemHealthReport
	GroupDiscountPage   = domain.CountedPage[domain.GroupDiscount]
	OrderPage           = domain.CursorPage[domain.Order]
	BasketBook          = domain.BasketBook
	BasketGroupDiscount = domain.BasketGroupDiscount
)

// CounterService issues sequential numbers; order numbers come from the "orders" counter.
type CounterService interface {
	Next(ctx context.Context, name string) (int64, error)
	NextOrderNumber(ctx context.Context) (int64, error)
}

// OrderStatusResolver derives the human facing status from order flags.
type OrderStatusResolver interface {
	Resolve(order Order, selfPickup bool) OrderStatus
	// ResolveOrder infers self-pickup from the delivery method and localises the label using the
	// language stored on ctx.
	ResolveOrder(ctx context.Context, order Order) OrderStatus
}

// OrderService owns order creation and the confirmation/cancellation transitions that move book
// stock.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (Order, error)
	Get(ctx context.Context, orderID string) (Order, error)
	List(ctx context.Context, filter OrderListFilter) (OrderPage, error)
	Update(ctx context.Context, cmd UpdateOrderCommand) (Order, error)
	Cancel(ctx context.Context, cmd CancelOrderCommand) (Order, error)
	ListStockAdjustments(ctx context.Context, orderID string) ([]StockAdjustment, error)
}

// GroupDiscountService manages book bundles.
type GroupDiscountService interface {
	Create(ctx context.Context, cmd GroupDiscountCommand) (GroupDiscount, error)
	Update(ctx context.Context, discountID string, cmd GroupDiscountCommand) (GroupDiscount, error)
	Delete(ctx context.Context, discountID string) error
	Get(ctx context.Context, discountID string) (GroupDiscount, error)
	List(ctx context.Context, filter GroupDiscountListFilter) (GroupDiscountPage, error)
	ListByIDs(ctx context.Context, ids []string, page Pagination) (GroupDiscountPage, error)
}

// BasketService manages the per-user basket. Add and remove operations are idempotent.
type BasketService interface {
	Get(ctx context.Context, userID string) (Basket, error)
	AddBook(ctx context.Context, userID, bookID string) (Basket, error)
	RemoveBook(ctx context.Context, userID, bookID string) (Basket, error)
	UpdateBookCount(ctx context.Context, userID, bookID string, count int) (Basket, error)
	AddGroupDiscount(ctx context.Context, userID, discountID string) (Basket, error)
	RemoveGroupDiscount(ctx context.Context, userID, discountID string) (Basket, error)
	UpdateGroupDiscountCount(ctx context.Context, userID, discountID string, count int) (Basket, error)
	Clear(ctx context.Context, userID string) error
}

// BookService exposes the catalog collaborator to staff tooling.
type BookService interface {
	Get(ctx context.Context, bookID string) (Book, error)
	Upsert(ctx context.Context, cmd UpsertBookCommand) (Book, error)
}

// SystemService exposes health metadata for operational endpoints.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// OrderLineInput selects a book and quantity for a new order.
type OrderLineInput struct {
	BookID string
	Count  int
}

// CreateOrderCommand places an order for UserID. When Lines is empty the user's basket is used.
type CreateOrderCommand struct {
	UserID   string
	Delivery Delivery
	Lines    []OrderLineInput
	Comment  string
}

// UpdateOrderCommand carries a staff edit. Nil fields are left untouched; an empty TrackingNumber
// clears it.
type UpdateOrderCommand struct {
	OrderID        string
	ActorID        string
	IsCanceled     *bool
	IsConfirmed    *bool
	IsPaid         *bool
	IsPartlyPaid   *bool
	IsSent         *bool
	IsDone         *bool
	TrackingNumber *string
	Delivery       *Delivery
	Lines          []OrderLineInput
	AdminComment   *string
}

// CancelOrderCommand cancels an order and returns any committed stock.
type CancelOrderCommand struct {
	OrderID string
	ActorID string
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID      string
	IsCanceled  *bool
	IsConfirmed *bool
	Pagination  Pagination
}

// GroupDiscountCommand describes the book set and percent of a bundle.
type GroupDiscountCommand struct {
	BookIDs  []string
	Discount int
}

// GroupDiscountListFilter narrows bundle listings.
type GroupDiscountListFilter struct {
	// IsInStock keeps bundles whose member books are all (or not all) in stock.
	IsInStock  *bool
	Pagination Pagination
}

// UpsertBookCommand creates a catalog book or updates its descriptive fields. Stock counters only
// seed a book that does not exist yet.
type UpsertBookCommand struct {
	ID            string
	Title         string
	Author        string
	ImageURL      string
	Price         int64
	NumberInStock int64
	NumberSold    int64
}

// Order lifecycle event types published after successful commits.
const (
	OrderEventCreated     = "order.created"
	OrderEventUpdated     = "order.updated"
	OrderEventConfirmed   = "order.confirmed"
	OrderEventUnconfirmed = "order.unconfirmed"
	OrderEventCanceled    = "order.canceled"
)

// OrderEvent is the payload published for order lifecycle changes.
type OrderEvent struct {
	Type        string                 `json:"type"`
	OrderID     string                 `json:"orderId"`
	OrderNumber int64                  `json:"orderNumber"`
	UserID      string                 `json:"userId"`
	Status      domain.OrderStatusCode `json:"status"`
	ActorID     string                 `json:"actorId,omitempty"`
	OccurredAt  time.Time              `json:"occurredAt"`
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}

// OrderMetrics receives order and stock counters. platform/metrics.Metrics implements it.
type OrderMetrics interface {
	OrderCreated()
	StockAdjusted(kind string, units int)
	StockRejected(reason string)
}
