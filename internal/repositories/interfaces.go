package repositories

import (
	"context"

	domain "github.com/bookshelf-ua/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
// Firestore and Postgres drivers both satisfy it.
type Registry interface {
	Close(ctx context.Context) error

	Orders() OrderRepository
	StockLedger() StockLedgerRepository
	Books() BookRepository
	GroupDiscounts() GroupDiscountRepository
	Baskets() BasketRepository
	Counters() CounterRepository
	// Ping verifies the backend is reachable; used by readiness checks.
	Ping(ctx context.Context) error
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// OrderRepository persists orders. Save is the only path that touches book stock: the order write,
// the ledger entry and the per-book increments commit together or not at all.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	Save(ctx context.Context, req OrderSaveRequest) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) (domain.CursorPage[domain.Order], error)
}

// OrderSaveRequest carries an order mutation plus the optional stock adjustment produced by a
// confirmation edge.
type OrderSaveRequest struct {
	Order domain.Order
	// ExpectedRevision must match the stored StockRevision, otherwise the save fails with a
	// StockErrorRevisionConflict.
	ExpectedRevision int
	Adjustment       *domain.StockAdjustment
	// AllowNegativeStock permits numberInStock to drop below zero when applying the adjustment.
	AllowNegativeStock bool
}

// OrderListFilter narrows order listings.
type OrderListFilter struct {
	UserID      string
	IsCanceled  *bool
	IsConfirmed *bool
	Pagination  domain.Pagination
}

// StockLedgerRepository reads the append-only stock adjustment ledger. Entries are written by
// OrderRepository.Save.
type StockLedgerRepository interface {
	ListByOrder(ctx context.Context, orderID string) ([]domain.StockAdjustment, error)
}

// BookRepository is the catalog collaborator used for snapshots and availability.
type BookRepository interface {
	// FindByIDs returns the books that exist; unknown ids are omitted.
	FindByIDs(ctx context.Context, ids []string) ([]domain.Book, error)
	FindByID(ctx context.Context, bookID string) (domain.Book, error)
	Upsert(ctx context.Context, book domain.Book) (domain.Book, error)
}

// GroupDiscountRepository stores bundles. Insert and Update enforce uniqueness of the normalised
// book-set key at the storage layer.
type GroupDiscountRepository interface {
	Insert(ctx context.Context, discount domain.GroupDiscount) error
	Update(ctx context.Context, discount domain.GroupDiscount) error
	Delete(ctx context.Context, discountID string) error
	FindByID(ctx context.Context, discountID string) (domain.GroupDiscount, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.GroupDiscount, error)
	// List returns every bundle ordered by creation time, newest first.
	List(ctx context.Context) ([]domain.GroupDiscount, error)
}

// BasketRepository owns per-user baskets.
type BasketRepository interface {
	Get(ctx context.Context, userID string) (domain.Basket, error)
	// Mutate loads the basket (empty when missing), applies fn and stores the result atomically.
	Mutate(ctx context.Context, userID string, fn func(basket *domain.Basket) error) (domain.Basket, error)
	Clear(ctx context.Context, userID string) error
}

// CounterRepository issues sequential numbers with a single atomic increment-and-fetch.
type CounterRepository interface {
	Next(ctx context.Context, counterID string, step int64) (int64, error)
}

// HealthRepository aggregates dependency probes into a readiness report.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
