package di

import (
	"context"
	"strings"
	"testing"

	"github.com/bookshelf-ua/api/internal/platform/config"
	"github.com/bookshelf-ua/api/internal/repositories"
)

type fakeRegistry struct {
	orders    repositories.OrderRepository
	ledger    repositories.StockLedgerRepository
	books     repositories.BookRepository
	discounts repositories.GroupDiscountRepository
	baskets   repositories.BasketRepository
	counters  repositories.CounterRepository
	closed    bool
}

func (r *fakeRegistry) Close(context.Context) error                          { r.closed = true; return nil }
func (r *fakeRegistry) Orders() repositories.OrderRepository                 { return r.orders }
func (r *fakeRegistry) StockLedger() repositories.StockLedgerRepository      { return r.ledger }
func (r *fakeRegistry) Books() repositories.BookRepository                   { return r.books }
func (r *fakeRegistry) GroupDiscounts() repositories.GroupDiscountRepository { return r.discounts }
func (r *fakeRegistry) Baskets() repositories.BasketRepository               { return r.baskets }
func (r *fakeRegistry) Counters() repositories.CounterRepository             { return r.counters }
func (r *fakeRegistry) Ping(context.Context) error                           { return nil }

type (
	fakeOrders    struct{ repositories.OrderRepository }
	fakeLedger    struct{ repositories.StockLedgerRepository }
	fakeBooks     struct{ repositories.BookRepository }
	fakeDiscounts struct{ repositories.GroupDiscountRepository }
	fakeBaskets   struct{ repositories.BasketRepository }
	fakeCounters  struct{ repositories.CounterRepository }
)

func completeRegistry() *fakeRegistry {
	return &fakeRegistry{
		orders:    fakeOrders{},
		ledger:    fakeLedger{},
		books:     fakeBooks{},
		discounts: fakeDiscounts{},
		baskets:   fakeBaskets{},
		counters:  fakeCounters{},
	}
}

func TestNewContainerBuildsServices(t *testing.T) {
	reg := completeRegistry()
	container, err := NewContainer(config.Config{}, reg, Extras{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc := container.Services
	if svc.Counters == nil || svc.Status == nil || svc.Orders == nil || svc.GroupDiscounts == nil || svc.Baskets == nil || svc.Books == nil {
		t.Fatalf("expected every service to be built, got %+v", svc)
	}
	if err := container.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !reg.closed {
		t.Fatalf("expected registry to be closed")
	}
}

func TestNewContainerRequiresRepositories(t *testing.T) {
	if _, err := NewContainer(config.Config{}, nil, Extras{}); err == nil {
		t.Fatalf("expected error for nil registry")
	}

	reg := completeRegistry()
	reg.ledger = nil
	_, err := NewContainer(config.Config{}, reg, Extras{})
	if err == nil || !strings.Contains(err.Error(), "build order service") {
		t.Fatalf("expected order service error, got %v", err)
	}

	reg = completeRegistry()
	reg.baskets = nil
	_, err = NewContainer(config.Config{}, reg, Extras{})
	if err == nil || !strings.Contains(err.Error(), "build basket service") {
		t.Fatalf("expected basket service error, got %v", err)
	}
}

func TestContainerCloseToleratesNil(t *testing.T) {
	var c *Container
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
