package domain

import (
	"time"
)

// Pagination defines standard cursor-based paging inputs for list operations.
type Pagination struct {
	PageSize  int
	PageToken string
}

// SortOrder indicates ascending or descending ordering for list queries.
type SortOrder string

const (
	// SortAsc sorts results in ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc sorts results in descending order.
	SortDesc SortOrder = "desc"
)

// DeliveryMethod identifies how an order reaches the customer.
type DeliveryMethod string

const (
	// DeliveryMethodSelfPickup means the customer collects the order from the shop; there is no shipping step.
	DeliveryMethodSelfPickup DeliveryMethod = "self_pickup"
	// DeliveryMethodNovaPoshta ships through a Nova Poshta branch.
	DeliveryMethodNovaPoshta DeliveryMethod = "nova_poshta"
	// DeliveryMethodUkrposhta ships through Ukrposhta.
	DeliveryMethodUkrposhta DeliveryMethod = "ukrposhta"
	// DeliveryMethodCourier delivers to the door.
	DeliveryMethodCourier DeliveryMethod = "courier"
)

// Delivery stores the delivery reference and address snapshot captured on an order.
type Delivery struct {
	Method    DeliveryMethod
	Recipient string
	Phone     string
	City      string
	Address   string
	Branch    string
}

// Order captures order headers returned to handlers/services. Flags are independent booleans;
// the human readable status is derived from them.
type Order struct {
	ID             string
	OrderNumber    int64
	UserID         string
	Delivery       Delivery
	IsCanceled     bool
	IsConfirmed    bool
	IsPaid         bool
	IsPartlyPaid   bool
	IsSent         bool
	IsDone         bool
	TrackingNumber *string
	Lines          []OrderLine
	Comment        string
	AdminComment   string
	Totals         OrderTotals
	// StockCommitted reports whether a confirm adjustment is currently applied to book stock.
	StockCommitted bool
	// StockRevision counts the stock ledger entries written for the order.
	StockRevision int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderLine stores one book with its quantity and price snapshot.
type OrderLine struct {
	BookID          string
	Book            BookSnapshot
	Count           int
	Price           int64
	Discount        int
	GroupDiscountID *string
}

// BookSnapshot is the denormalised book view kept on order lines for display.
type BookSnapshot struct {
	Title    string
	Author   string
	ImageURL string
}

// OrderTotals holds values derived from order lines. They are recomputed on every write and never
// treated as authoritative.
type OrderTotals struct {
	FinalSum              int64
	FinalSumWithDiscounts int64
	BooksCount            int
}

// OrderStatusCode enumerates the derived order states.
type OrderStatusCode string

const (
	OrderStatusCanceled                   OrderStatusCode = "canceled"
	OrderStatusAwaitingConfirmation       OrderStatusCode = "awaiting_confirmation"
	OrderStatusReadyForPickup             OrderStatusCode = "ready_for_pickup"
	OrderStatusAwaitingPayment            OrderStatusCode = "awaiting_payment"
	OrderStatusPaidAwaitingShipment       OrderStatusCode = "paid_awaiting_shipment"
	OrderStatusPartlyPaidAwaitingShipment OrderStatusCode = "partly_paid_awaiting_shipment"
	OrderStatusTrackingCreated            OrderStatusCode = "tracking_created"
	OrderStatusShipped                    OrderStatusCode = "shipped"
	OrderStatusShippedAwaitingBalance     OrderStatusCode = "shipped_awaiting_balance"
	OrderStatusCompleted                  OrderStatusCode = "completed"
	OrderStatusProcessing                 OrderStatusCode = "processing"
)

// OrderStatus is the human facing status of an order with a coarse progress index.
// Several codes share the same index.
type OrderStatus struct {
	Code  OrderStatusCode
	Label string
	Index int
}

// Book is the catalog entity whose stock counters are mutated by order reconciliation.
type Book struct {
	ID            string
	Title         string
	Author        string
	ImageURL      string
	Price         int64
	NumberInStock int64
	NumberSold    int64
	UpdatedAt     time.Time
}

// GroupDiscount is a bundle of two or more distinct books sold together at a discount.
// BookIDs are stored sorted; Key is the normalised composite key of the set.
type GroupDiscount struct {
	ID        string
	Key       string
	Discount  int
	BookIDs   []string
	Books     []Book
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Basket is the per-user selection of books and bundles that feeds order creation.
type Basket struct {
	UserID         string
	Books          []BasketBook
	GroupDiscounts []BasketGroupDiscount
	UpdatedAt      time.Time
}

// BasketBook is a single book entry in a basket.
type BasketBook struct {
	BookID string
	Count  int
}

// BasketGroupDiscount is a single bundle entry in a basket.
type BasketGroupDiscount struct {
	GroupDiscountID string
	Count           int
}

// Counter is a named monotonically increasing sequence.
type Counter struct {
	ID           string
	CurrentValue int64
	UpdatedAt    time.Time
}

// StockAdjustmentKind identifies the order transition edge that produced a ledger entry.
type StockAdjustmentKind string

const (
	// StockAdjustmentConfirm deducts stock and adds to sold counts.
	StockAdjustmentConfirm StockAdjustmentKind = "confirm"
	// StockAdjustmentUnconfirm reverses a confirm entry.
	StockAdjustmentUnconfirm StockAdjustmentKind = "unconfirm"
	// StockAdjustmentCancel reverses a confirm entry as part of cancellation.
	StockAdjustmentCancel StockAdjustmentKind = "cancel"
)

// StockAdjustment is an append-only ledger entry describing the signed deltas applied to books for
// one order transition.
type StockAdjustment struct {
	ID        string
	OrderID   string
	Revision  int
	Kind      StockAdjustmentKind
	Lines     []StockDelta
	CreatedAt time.Time
}

// StockDelta is the signed change applied to a single book.
type StockDelta struct {
	BookID       string
	InStockDelta int64
	SoldDelta    int64
}

// CursorPage packages list results with an encoded next token.
type CursorPage[T any] struct {
	Items         []T
	NextPageToken string
}

// CountedPage packages list results with the total number of matching records.
type CountedPage[T any] struct {
	Items         []T
	TotalCount    int
	NextPageToken string
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates a dependency is unreachable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for readiness endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}
