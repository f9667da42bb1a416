package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bookshelf-ua/api/internal/repositories"
)

// Registry wires every pgx repository onto a shared pool.
type Registry struct {
	pool           *pgxpool.Pool
	orders         *OrderRepository
	ledger         *StockLedgerRepository
	books          *BookRepository
	groupDiscounts *GroupDiscountRepository
	baskets        *BasketRepository
	counters       *CounterRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs the registry. The pool is closed by Registry.Close.
func NewRegistry(pool *pgxpool.Pool) (*Registry, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres registry: pool is required")
	}
	reg := &Registry{pool: pool}
	reg.orders, _ = NewOrderRepository(pool)
	reg.ledger, _ = NewStockLedgerRepository(pool)
	reg.books, _ = NewBookRepository(pool)
	reg.groupDiscounts, _ = NewGroupDiscountRepository(pool)
	reg.baskets, _ = NewBasketRepository(pool)
	reg.counters, _ = NewCounterRepository(pool)
	return reg, nil
}

func (r *Registry) Close(context.Context) error {
	r.pool.Close()
	return nil
}

func (r *Registry) Orders() repositories.OrderRepository                 { return r.orders }
func (r *Registry) StockLedger() repositories.StockLedgerRepository      { return r.ledger }
func (r *Registry) Books() repositories.BookRepository                   { return r.books }
func (r *Registry) GroupDiscounts() repositories.GroupDiscountRepository { return r.groupDiscounts }
func (r *Registry) Baskets() repositories.BasketRepository               { return r.baskets }
func (r *Registry) Counters() repositories.CounterRepository             { return r.counters }

func (r *Registry) Ping(ctx context.Context) error {
	return wrapError("ping", r.pool.Ping(ctx))
}
