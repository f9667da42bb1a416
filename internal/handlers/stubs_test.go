package handlers

import (
	"context"

	"github.com/bookshelf-ua/api/internal/services"
)

type stubOrderService struct {
	createFn      func(context.Context, services.CreateOrderCommand) (services.Order, error)
	getFn         func(context.Context, string) (services.Order, error)
	listFn        func(context.Context, services.OrderListFilter) (services.OrderPage, error)
	updateFn      func(context.Context, services.UpdateOrderCommand) (services.Order, error)
	cancelFn      func(context.Context, services.CancelOrderCommand) (services.Order, error)
	adjustmentsFn func(context.Context, string) ([]services.StockAdjustment, error)
}

func (s *stubOrderService) Create(ctx context.Context, cmd services.CreateOrderCommand) (services.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Order{}, nil
}

func (s *stubOrderService) Get(ctx context.Context, id string) (services.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return services.Order{}, services.ErrOrderNotFound
}

func (s *stubOrderService) List(ctx context.Context, filter services.OrderListFilter) (services.OrderPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return services.OrderPage{}, nil
}

func (s *stubOrderService) Update(ctx context.Context, cmd services.UpdateOrderCommand) (services.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.Order{}, nil
}

func (s *stubOrderService) Cancel(ctx context.Context, cmd services.CancelOrderCommand) (services.Order, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, cmd)
	}
	return services.Order{}, nil
}

func (s *stubOrderService) ListStockAdjustments(ctx context.Context, id string) ([]services.StockAdjustment, error) {
	if s.adjustmentsFn != nil {
		return s.adjustmentsFn(ctx, id)
	}
	return nil, nil
}

type stubGroupDiscountService struct {
	createFn    func(context.Context, services.GroupDiscountCommand) (services.GroupDiscount, error)
	updateFn    func(context.Context, string, services.GroupDiscountCommand) (services.GroupDiscount, error)
	deleteFn    func(context.Context, string) error
	getFn       func(context.Context, string) (services.GroupDiscount, error)
	listFn      func(context.Context, services.GroupDiscountListFilter) (services.GroupDiscountPage, error)
	listByIDsFn func(context.Context, []string, services.Pagination) (services.GroupDiscountPage, error)
}

func (s *stubGroupDiscountService) Create(ctx context.Context, cmd services.GroupDiscountCommand) (services.GroupDiscount, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.GroupDiscount{}, nil
}

func (s *stubGroupDiscountService) Update(ctx context.Context, id string, cmd services.GroupDiscountCommand) (services.GroupDiscount, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, cmd)
	}
	return services.GroupDiscount{}, nil
}

func (s *stubGroupDiscountService) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubGroupDiscountService) Get(ctx context.Context, id string) (services.GroupDiscount, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return services.GroupDiscount{}, services.ErrGroupDiscountNotFound
}

func (s *stubGroupDiscountService) List(ctx context.Context, filter services.GroupDiscountListFilter) (services.GroupDiscountPage, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return services.GroupDiscountPage{}, nil
}

func (s *stubGroupDiscountService) ListByIDs(ctx context.Context, ids []string, page services.Pagination) (services.GroupDiscountPage, error) {
	if s.listByIDsFn != nil {
		return s.listByIDsFn(ctx, ids, page)
	}
	return services.GroupDiscountPage{}, nil
}

// stubBasketService records the last call and returns basket or err.
type stubBasketService struct {
	basket services.Basket
	err    error
	calls  []string
	args   []string
	count  int
}

func (s *stubBasketService) record(name string, args ...string) (services.Basket, error) {
	s.calls = append(s.calls, name)
	s.args = args
	return s.basket, s.err
}

func (s *stubBasketService) Get(_ context.Context, userID string) (services.Basket, error) {
	return s.record("Get", userID)
}

func (s *stubBasketService) AddBook(_ context.Context, userID, bookID string) (services.Basket, error) {
	return s.record("AddBook", userID, bookID)
}

func (s *stubBasketService) RemoveBook(_ context.Context, userID, bookID string) (services.Basket, error) {
	return s.record("RemoveBook", userID, bookID)
}

func (s *stubBasketService) UpdateBookCount(_ context.Context, userID, bookID string, count int) (services.Basket, error) {
	s.count = count
	return s.record("UpdateBookCount", userID, bookID)
}

func (s *stubBasketService) AddGroupDiscount(_ context.Context, userID, id string) (services.Basket, error) {
	return s.record("AddGroupDiscount", userID, id)
}

func (s *stubBasketService) RemoveGroupDiscount(_ context.Context, userID, id string) (services.Basket, error) {
	return s.record("RemoveGroupDiscount", userID, id)
}

func (s *stubBasketService) UpdateGroupDiscountCount(_ context.Context, userID, id string, count int) (services.Basket, error) {
	s.count = count
	return s.record("UpdateGroupDiscountCount", userID, id)
}

func (s *stubBasketService) Clear(_ context.Context, userID string) error {
	_, err := s.record("Clear", userID)
	return err
}

type stubBookService struct {
	getFn    func(context.Context, string) (services.Book, error)
	upsertFn func(context.Context, services.UpsertBookCommand) (services.Book, error)
}

func (s *stubBookService) Get(ctx context.Context, id string) (services.Book, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return services.Book{}, services.ErrBookNotFound
}

func (s *stubBookService) Upsert(ctx context.Context, cmd services.UpsertBookCommand) (services.Book, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, cmd)
	}
	return services.Book{ID: cmd.ID, Title: cmd.Title}, nil
}

type stubSystemService struct {
	report services.SystemHealthReport
	err    error
}

func (s *stubSystemService) HealthReport(context.Context) (services.SystemHealthReport, error) {
	return s.report, s.err
}

var (
	_ services.OrderService         = (*stubOrderService)(nil)
	_ services.GroupDiscountService = (*stubGroupDiscountService)(nil)
	_ services.BasketService        = (*stubBasketService)(nil)
	_ services.BookService          = (*stubBookService)(nil)
	_ services.SystemService        = (*stubSystemService)(nil)
)
