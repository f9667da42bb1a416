package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	domain "github.com/bookshelf-ua/api/internal/domain"
	"github.com/bookshelf-ua/api/internal/repositories"
)

type stubRepoError struct {
	err         error
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepoError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "repository error"
}

func (e stubRepoError) Unwrap() error       { return e.err }
func (e stubRepoError) IsNotFound() bool    { return e.notFound }
func (e stubRepoError) IsConflict() bool    { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

var errStubNotFound = stubRepoError{err: fmt.Errorf("not found"), notFound: true}

// memoryStore is a shared in-memory backend for orders, books, the stock ledger and baskets. Save
// follows the same all-or-nothing rules as the real drivers.
type memoryStore struct {
	mu        sync.Mutex
	orders    map[string]domain.Order
	books     map[string]domain.Book
	ledger    map[string][]domain.StockAdjustment
	baskets   map[string]domain.Basket
	discounts map[string]domain.GroupDiscount

	saveErr    error
	insertErr  error
	clearErr   error
	saveCalls  int
	clearCalls int
}

func newMemoryStore(books ...domain.Book) *memoryStore {
	s := &memoryStore{
		orders:    map[string]domain.Order{},
		books:     map[string]domain.Book{},
		ledger:    map[string][]domain.StockAdjustment{},
		baskets:   map[string]domain.Basket{},
		discounts: map[string]domain.GroupDiscount{},
	}
	for _, b := range books {
		s.books[b.ID] = b
	}
	return s
}

func (s *memoryStore) book(id string) domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.books[id]
}

type memoryOrders struct{ s *memoryStore }

func (r memoryOrders) Insert(_ context.Context, order domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.insertErr != nil {
		return r.s.insertErr
	}
	if _, ok := r.s.orders[order.ID]; ok {
		return stubRepoError{err: fmt.Errorf("order %s exists", order.ID), conflict: true}
	}
	r.s.orders[order.ID] = order
	return nil
}

func (r memoryOrders) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.orders[orderID]
	if !ok {
		return domain.Order{}, errStubNotFound
	}
	order.Lines = slices.Clone(order.Lines)
	return order, nil
}

func (r memoryOrders) Save(_ context.Context, req repositories.OrderSaveRequest) (domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.saveCalls++
	if r.s.saveErr != nil {
		return domain.Order{}, r.s.saveErr
	}
	stored, ok := r.s.orders[req.Order.ID]
	if !ok {
		return domain.Order{}, errStubNotFound
	}
	if stored.StockRevision != req.ExpectedRevision {
		return domain.Order{}, repositories.NewStockError(repositories.StockErrorRevisionConflict, "", "revision mismatch", nil)
	}
	if adj := req.Adjustment; adj != nil {
		for _, entry := range r.s.ledger[adj.OrderID] {
			if entry.ID == adj.ID {
				return domain.Order{}, repositories.NewStockError(repositories.StockErrorRevisionConflict, "", "ledger entry exists", nil)
			}
		}
		updated := make(map[string]domain.Book, len(adj.Lines))
		for _, line := range adj.Lines {
			book, ok := r.s.books[line.BookID]
			if !ok {
				return domain.Order{}, repositories.NewStockError(repositories.StockErrorBookNotFound, line.BookID, "book missing", nil)
			}
			book.NumberInStock += line.InStockDelta
			book.NumberSold += line.SoldDelta
			if book.NumberInStock < 0 && !req.AllowNegativeStock {
				return domain.Order{}, repositories.NewStockError(repositories.StockErrorInsufficient, line.BookID, "insufficient stock", nil)
			}
			updated[book.ID] = book
		}
		for id, book := range updated {
			r.s.books[id] = book
		}
		r.s.ledger[adj.OrderID] = append(r.s.ledger[adj.OrderID], *adj)
	}
	next := req.Order
	next.OrderNumber = stored.OrderNumber
	next.CreatedAt = stored.CreatedAt
	r.s.orders[next.ID] = next
	return next, nil
}

func (r memoryOrders) List(_ context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var items []domain.Order
	for _, o := range r.s.orders {
		if filter.UserID != "" && o.UserID != filter.UserID {
			continue
		}
		if filter.IsCanceled != nil && o.IsCanceled != *filter.IsCanceled {
			continue
		}
		if filter.IsConfirmed != nil && o.IsConfirmed != *filter.IsConfirmed {
			continue
		}
		items = append(items, o)
	}
	slices.SortFunc(items, func(a, b domain.Order) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return domain.CursorPage[domain.Order]{Items: items}, nil
}

type memoryLedger struct{ s *memoryStore }

func (r memoryLedger) ListByOrder(_ context.Context, orderID string) ([]domain.StockAdjustment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.ledger[orderID]), nil
}

type memoryBooks struct{ s *memoryStore }

func (r memoryBooks) FindByIDs(_ context.Context, ids []string) ([]domain.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Book
	for _, id := range ids {
		if b, ok := r.s.books[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memoryBooks) FindByID(_ context.Context, id string) (domain.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.books[id]
	if !ok {
		return domain.Book{}, errStubNotFound
	}
	return b, nil
}

func (r memoryBooks) Upsert(_ context.Context, book domain.Book) (domain.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.books[book.ID]; ok {
		book.NumberInStock = existing.NumberInStock
		book.NumberSold = existing.NumberSold
	}
	r.s.books[book.ID] = book
	return book, nil
}

type memoryBaskets struct{ s *memoryStore }

func (r memoryBaskets) Get(_ context.Context, userID string) (domain.Basket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	basket, ok := r.s.baskets[userID]
	if !ok {
		return domain.Basket{UserID: userID}, nil
	}
	return basket, nil
}

func (r memoryBaskets) Mutate(_ context.Context, userID string, fn func(*domain.Basket) error) (domain.Basket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	basket, ok := r.s.baskets[userID]
	if !ok {
		basket = domain.Basket{UserID: userID}
	}
	basket.Books = slices.Clone(basket.Books)
	basket.GroupDiscounts = slices.Clone(basket.GroupDiscounts)
	if err := fn(&basket); err != nil {
		return domain.Basket{}, err
	}
	r.s.baskets[userID] = basket
	return basket, nil
}

func (r memoryBaskets) Clear(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.clearCalls++
	if r.s.clearErr != nil {
		return r.s.clearErr
	}
	delete(r.s.baskets, userID)
	return nil
}

type memoryDiscounts struct{ s *memoryStore }

func (r memoryDiscounts) Insert(_ context.Context, d domain.GroupDiscount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.discounts {
		if existing.Key == d.Key {
			return repositories.NewGroupDiscountError(repositories.GroupDiscountErrorDuplicate, d.Key, "duplicate bundle", nil)
		}
	}
	r.s.discounts[d.ID] = d
	return nil
}

func (r memoryDiscounts) Update(_ context.Context, d domain.GroupDiscount) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.discounts[d.ID]; !ok {
		return repositories.NewGroupDiscountError(repositories.GroupDiscountErrorNotFound, d.Key, "bundle missing", nil)
	}
	for id, existing := range r.s.discounts {
		if id != d.ID && existing.Key == d.Key {
			return repositories.NewGroupDiscountError(repositories.GroupDiscountErrorDuplicate, d.Key, "duplicate bundle", nil)
		}
	}
	r.s.discounts[d.ID] = d
	return nil
}

func (r memoryDiscounts) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.discounts[id]; !ok {
		return repositories.NewGroupDiscountError(repositories.GroupDiscountErrorNotFound, "", "bundle missing", nil)
	}
	delete(r.s.discounts, id)
	return nil
}

func (r memoryDiscounts) FindByID(_ context.Context, id string) (domain.GroupDiscount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.discounts[id]
	if !ok {
		return domain.GroupDiscount{}, repositories.NewGroupDiscountError(repositories.GroupDiscountErrorNotFound, "", "bundle missing", nil)
	}
	return d, nil
}

func (r memoryDiscounts) FindByIDs(_ context.Context, ids []string) ([]domain.GroupDiscount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.GroupDiscount
	for _, id := range ids {
		if d, ok := r.s.discounts[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r memoryDiscounts) List(_ context.Context) ([]domain.GroupDiscount, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.GroupDiscount, 0, len(r.s.discounts))
	for _, d := range r.s.discounts {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.GroupDiscount) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return compareStrings(a.ID, b.ID)
	})
	return out, nil
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

type captureOrderEvents struct {
	mu     sync.Mutex
	events []OrderEvent
	err    error
}

func (c *captureOrderEvents) PublishOrderEvent(_ context.Context, event OrderEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *captureOrderEvents) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

type captureOrderMetrics struct {
	mu       sync.Mutex
	created  int
	adjusted map[string]int
	rejected []string
}

func (m *captureOrderMetrics) OrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
}

func (m *captureOrderMetrics) StockAdjusted(kind string, units int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.adjusted == nil {
		m.adjusted = map[string]int{}
	}
	m.adjusted[kind] += units
}

func (m *captureOrderMetrics) StockRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected = append(m.rejected, reason)
}
