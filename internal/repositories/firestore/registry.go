package firestore

import (
	"context"
	"fmt"

	pfirestore "github.com/bookshelf-ua/api/internal/platform/firestore"
	"github.com/bookshelf-ua/api/internal/repositories"
)

// Registry wires every Firestore repository onto a shared provider.
type Registry struct {
	provider       *pfirestore.Provider
	orders         *OrderRepository
	ledger         *StockLedgerRepository
	books          *BookRepository
	groupDiscounts *GroupDiscountRepository
	baskets        *BasketRepository
	counters       *CounterRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs the Firestore registry. The provider is closed by Registry.Close.
func NewRegistry(provider *pfirestore.Provider) (*Registry, error) {
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	ledger, err := NewStockLedgerRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	books, err := NewBookRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	discounts, err := NewGroupDiscountRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	baskets, err := NewBasketRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	counters, err := NewCounterRepository(provider)
	if err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}
	return &Registry{
		provider:       provider,
		orders:         orders,
		ledger:         ledger,
		books:          books,
		groupDiscounts: discounts,
		baskets:        baskets,
		counters:       counters,
	}, nil
}

func (r *Registry) Close(ctx context.Context) error { return r.provider.Close(ctx) }

func (r *Registry) Orders() repositories.OrderRepository                 { return r.orders }
func (r *Registry) StockLedger() repositories.StockLedgerRepository      { return r.ledger }
func (r *Registry) Books() repositories.BookRepository                   { return r.books }
func (r *Registry) GroupDiscounts() repositories.GroupDiscountRepository { return r.groupDiscounts }
func (r *Registry) Baskets() repositories.BasketRepository               { return r.baskets }
func (r *Registry) Counters() repositories.CounterRepository             { return r.counters }

func (r *Registry) Ping(ctx context.Context) error { return r.provider.Ping(ctx) }
