package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/bookshelf-ua/api/internal/domain"
	"github.com/bookshelf-ua/api/internal/platform/textutil"
	"github.com/bookshelf-ua/api/internal/repositories"
)

const (
	maxCommentLength = 2000
	maxTrackingLen   = 64
)

var (
	// ErrOrderInvalidInput signals the caller provided invalid data.
	ErrOrderInvalidInput = errors.New("order: invalid input")
	// ErrOrderNotFound indicates the order could not be located.
	ErrOrderNotFound = errors.New("order: not found")
	// ErrOrderInvalidTransition indicates the requested flag change is not allowed in the current state.
	ErrOrderInvalidTransition = errors.New("order: invalid transition")
	// ErrOrderInsufficientStock indicates confirming the order would drive a book's stock below zero.
	ErrOrderInsufficientStock = errors.New("order: insufficient stock")
	// ErrOrderConflict indicates the order changed concurrently.
	ErrOrderConflict = errors.New("order: conflict")
	// ErrOrderUnavailable indicates the backing store could not be reached.
	ErrOrderUnavailable = errors.New("order: unavailable")
)

var validDeliveryMethods = []domain.DeliveryMethod{
	domain.DeliveryMethodSelfPickup,
	domain.DeliveryMethodNovaPoshta,
	domain.DeliveryMethodUkrposhta,
	domain.DeliveryMethodCourier,
}

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Orders         repositories.OrderRepository
	Ledger         repositories.StockLedgerRepository
	Books          repositories.BookRepository
	GroupDiscounts repositories.GroupDiscountRepository
	Baskets        repositories.BasketRepository
	Counters       CounterService
	Status         OrderStatusResolver
	Events         OrderEventPublisher
	Metrics        OrderMetrics
	// AllowNegativeStock lets confirmation oversell books.
	AllowNegativeStock bool
	Clock              func() time.Time
	IDGenerator        func() string
	Logger             func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders         repositories.OrderRepository
	ledger         repositories.StockLedgerRepository
	books          repositories.BookRepository
	groupDiscounts repositories.GroupDiscountRepository
	baskets        repositories.BasketRepository
	counters       CounterService
	status         OrderStatusResolver
	events         OrderEventPublisher
	metrics        OrderMetrics
	allowNegative  bool
	clock          func() time.Time
	newID          func() string
	logger         func(context.Context, string, map[string]any)
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("order service: stock ledger repository is required")
	}
	if deps.Books == nil {
		return nil, errors.New("order service: book repository is required")
	}
	if deps.Counters == nil {
		return nil, errors.New("order service: counter service is required")
	}

	status := deps.Status
	if status == nil {
		status = NewOrderStatusResolver()
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:         deps.Orders,
		ledger:         deps.Ledger,
		books:          deps.Books,
		groupDiscounts: deps.GroupDiscounts,
		baskets:        deps.Baskets,
		counters:       deps.Counters,
		status:         status,
		events:         deps.Events,
		metrics:        deps.Metrics,
		allowNegative:  deps.AllowNegativeStock,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (Order, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return Order{}, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}
	delivery, err := normalizeDelivery(cmd.Delivery)
	if err != nil {
		return Order{}, err
	}

	lines, fromBasket, err := s.requestedLines(ctx, userID, cmd.Lines)
	if err != nil {
		return Order{}, err
	}
	if err := s.snapshotLines(ctx, lines); err != nil {
		return Order{}, err
	}

	number, err := s.counters.NextOrderNumber(ctx)
	if err != nil {
		return Order{}, err
	}

	now := s.clock()
	order := Order{
		ID:          s.newID(),
		OrderNumber: number,
		UserID:      userID,
		Delivery:    delivery,
		Lines:       lines,
		Comment:     textutil.SanitizePlainText(cmd.Comment, maxCommentLength),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orders.Insert(ctx, order); err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	order.Totals = ComputeOrderTotals(order.Lines)

	s.clearBasket(ctx, userID, fromBasket)
	if s.metrics != nil {
		s.metrics.OrderCreated()
	}
	s.publishEvent(ctx, OrderEventCreated, order, "")
	return order, nil
}

// requestedLines returns explicit lines or, when none were given, expands the user's basket.
func (s *orderService) requestedLines(ctx context.Context, userID string, inputs []OrderLineInput) ([]OrderLine, bool, error) {
	if len(inputs) > 0 {
		lines, err := linesFromInput(inputs)
		return lines, false, err
	}
	if s.baskets == nil {
		return nil, false, fmt.Errorf("%w: order must contain at least one line", ErrOrderInvalidInput)
	}
	basket, err := s.baskets.Get(ctx, userID)
	if err != nil {
		return nil, false, s.mapRepositoryError(err)
	}
	lines, err := s.linesFromBasket(ctx, basket)
	if err != nil {
		return nil, false, err
	}
	if len(lines) == 0 {
		return nil, false, fmt.Errorf("%w: order must contain at least one line", ErrOrderInvalidInput)
	}
	return lines, true, nil
}

func linesFromInput(inputs []OrderLineInput) ([]OrderLine, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one line", ErrOrderInvalidInput)
	}
	index := make(map[string]int, len(inputs))
	lines := make([]OrderLine, 0, len(inputs))
	for _, input := range inputs {
		bookID := strings.TrimSpace(input.BookID)
		if bookID == "" {
			return nil, fmt.Errorf("%w: book id is required", ErrOrderInvalidInput)
		}
		if input.Count <= 0 {
			return nil, fmt.Errorf("%w: count for book %s must be positive", ErrOrderInvalidInput, bookID)
		}
		if i, ok := index[bookID]; ok {
			lines[i].Count += input.Count
			continue
		}
		index[bookID] = len(lines)
		lines = append(lines, OrderLine{BookID: bookID, Count: input.Count})
	}
	return lines, nil
}

// linesFromBasket expands bundles into one line per member book carrying the bundle discount.
func (s *orderService) linesFromBasket(ctx context.Context, basket Basket) ([]OrderLine, error) {
	var lines []OrderLine
	for _, item := range basket.Books {
		if item.Count <= 0 {
			continue
		}
		lines = append(lines, OrderLine{BookID: item.BookID, Count: item.Count})
	}
	if len(basket.GroupDiscounts) == 0 {
		return lines, nil
	}
	if s.groupDiscounts == nil {
		return nil, errors.New("order service: group discount repository not configured")
	}
	ids := make([]string, 0, len(basket.GroupDiscounts))
	for _, item := range basket.GroupDiscounts {
		ids = append(ids, item.GroupDiscountID)
	}
	discounts, err := s.groupDiscounts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	byID := make(map[string]GroupDiscount, len(discounts))
	for _, d := range discounts {
		byID[d.ID] = d
	}
	for _, item := range basket.GroupDiscounts {
		discount, ok := byID[item.GroupDiscountID]
		if !ok {
			return nil, fmt.Errorf("%w: group discount %s", ErrGroupDiscountNotFound, item.GroupDiscountID)
		}
		if item.Count <= 0 {
			continue
		}
		discountID := discount.ID
		for _, bookID := range discount.BookIDs {
			lines = append(lines, OrderLine{
				BookID:          bookID,
				Count:           item.Count,
				Discount:        discount.Discount,
				GroupDiscountID: &discountID,
			})
		}
	}
	return lines, nil
}

// snapshotLines copies title, author, image and price from the catalog onto each line.
func (s *orderService) snapshotLines(ctx context.Context, lines []OrderLine) error {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.BookID)
	}
	books, err := s.books.FindByIDs(ctx, textutil.NormalizeIDs(ids))
	if err != nil {
		return s.mapRepositoryError(err)
	}
	byID := make(map[string]Book, len(books))
	for _, book := range books {
		byID[book.ID] = book
	}
	for i := range lines {
		book, ok := byID[lines[i].BookID]
		if !ok {
			return fmt.Errorf("%w: book %s", ErrBookNotFound, lines[i].BookID)
		}
		lines[i].Book = domain.BookSnapshot{Title: book.Title, Author: book.Author, ImageURL: book.ImageURL}
		lines[i].Price = book.Price
	}
	return nil
}

func (s *orderService) clearBasket(ctx context.Context, userID string, fromBasket bool) {
	if s.baskets == nil {
		return
	}
	if err := s.baskets.Clear(ctx, userID); err != nil {
		s.logger(ctx, "order.basket.clear.failed", map[string]any{
			"userId":     userID,
			"fromBasket": fromBasket,
			"error":      err.Error(),
		})
	}
}

func (s *orderService) Get(ctx context.Context, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	order.Totals = ComputeOrderTotals(order.Lines)
	return order, nil
}

func (s *orderService) List(ctx context.Context, filter OrderListFilter) (OrderPage, error) {
	page, err := s.orders.List(ctx, repositories.OrderListFilter{
		UserID:      strings.TrimSpace(filter.UserID),
		IsCanceled:  filter.IsCanceled,
		IsConfirmed: filter.IsConfirmed,
		Pagination:  filter.Pagination,
	})
	if err != nil {
		return OrderPage{}, s.mapRepositoryError(err)
	}
	for i := range page.Items {
		page.Items[i].Totals = ComputeOrderTotals(page.Items[i].Lines)
	}
	return page, nil
}

func (s *orderService) ListStockAdjustments(ctx context.Context, orderID string) ([]StockAdjustment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		return nil, s.mapRepositoryError(err)
	}
	entries, err := s.ledger.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return entries, nil
}

// Update applies a staff edit. A false→true change of IsConfirmed deducts stock, true→false
// returns it; both happen in the same write as the other field changes.
func (s *orderService) Update(ctx context.Context, cmd UpdateOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if cmd.IsCanceled != nil {
		return Order{}, fmt.Errorf("%w: use cancel to change the canceled flag", ErrOrderInvalidTransition)
	}

	current, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if current.IsCanceled {
		return Order{}, fmt.Errorf("%w: order %s is canceled", ErrOrderInvalidTransition, orderID)
	}

	next, linesChanged, err := s.applyUpdate(ctx, current, cmd)
	if err != nil {
		return Order{}, err
	}

	var (
		adjustment *StockAdjustment
		eventType  = OrderEventUpdated
	)
	switch {
	case !current.IsConfirmed && next.IsConfirmed:
		adjustment = s.newAdjustment(current, domain.StockAdjustmentConfirm, ConfirmDeltas(next.Lines))
		next.StockCommitted = true
		eventType = OrderEventConfirmed
	case current.IsConfirmed && !next.IsConfirmed:
		if next.IsDone || next.IsSent || next.IsPaid || next.IsPartlyPaid {
			return Order{}, fmt.Errorf("%w: paid, sent or done orders cannot be unconfirmed", ErrOrderInvalidTransition)
		}
		if current.StockCommitted {
			deltas, err := s.reversalDeltas(ctx, current)
			if err != nil {
				return Order{}, err
			}
			adjustment = s.newAdjustment(current, domain.StockAdjustmentUnconfirm, deltas)
		}
		next.StockCommitted = false
		eventType = OrderEventUnconfirmed
	case linesChanged && current.StockCommitted:
		return Order{}, fmt.Errorf("%w: lines of a confirmed order cannot change", ErrOrderInvalidTransition)
	}

	saved, err := s.save(ctx, current, next, adjustment)
	if err != nil {
		return Order{}, err
	}
	s.publishEvent(ctx, eventType, saved, strings.TrimSpace(cmd.ActorID))
	return saved, nil
}

func (s *orderService) applyUpdate(ctx context.Context, current Order, cmd UpdateOrderCommand) (Order, bool, error) {
	next := current
	next.Lines = slices.Clone(current.Lines)
	if cmd.IsConfirmed != nil {
		next.IsConfirmed = *cmd.IsConfirmed
	}
	if cmd.IsPaid != nil {
		next.IsPaid = *cmd.IsPaid
	}
	if cmd.IsPartlyPaid != nil {
		next.IsPartlyPaid = *cmd.IsPartlyPaid
	}
	if cmd.IsSent != nil {
		next.IsSent = *cmd.IsSent
	}
	if cmd.IsDone != nil {
		next.IsDone = *cmd.IsDone
	}
	if cmd.TrackingNumber != nil {
		tracking := textutil.SanitizePlainText(*cmd.TrackingNumber, maxTrackingLen)
		if tracking == "" {
			next.TrackingNumber = nil
		} else {
			next.TrackingNumber = &tracking
		}
	}
	if cmd.Delivery != nil {
		delivery, err := normalizeDelivery(*cmd.Delivery)
		if err != nil {
			return Order{}, false, err
		}
		next.Delivery = delivery
	}
	if cmd.AdminComment != nil {
		next.AdminComment = textutil.SanitizePlainText(*cmd.AdminComment, maxCommentLength)
	}

	linesChanged := false
	if cmd.Lines != nil {
		input, err := linesFromInput(cmd.Lines)
		if err != nil {
			return Order{}, false, err
		}
		if !sameLineCounts(current.Lines, input) {
			lines, err := s.reconcileLines(ctx, current.Lines, input)
			if err != nil {
				return Order{}, false, err
			}
			linesChanged = true
			next.Lines = lines
		}
	}
	return next, linesChanged, nil
}

// reconcileLines applies new per-book counts to existing lines. Books already on the order keep
// their price, snapshot and bundle discount; only books new to the order read the catalog.
func (s *orderService) reconcileLines(ctx context.Context, existing, input []OrderLine) ([]OrderLine, error) {
	byBook := make(map[string][]OrderLine, len(existing))
	for _, line := range existing {
		byBook[line.BookID] = append(byBook[line.BookID], line)
	}

	var fresh []OrderLine
	for _, line := range input {
		if _, ok := byBook[line.BookID]; !ok {
			fresh = append(fresh, line)
		}
	}
	if len(fresh) > 0 {
		if err := s.snapshotLines(ctx, fresh); err != nil {
			return nil, err
		}
	}
	freshByID := make(map[string]OrderLine, len(fresh))
	for _, line := range fresh {
		freshByID[line.BookID] = line
	}

	out := make([]OrderLine, 0, len(input))
	for _, line := range input {
		kept, ok := byBook[line.BookID]
		if !ok {
			out = append(out, freshByID[line.BookID])
			continue
		}
		out = append(out, resizeBookLines(kept, line.Count)...)
	}
	return out, nil
}

// resizeBookLines fits the lines of one book to count. Bundle lines are kept first, in order, and
// the remainder goes to a plain line priced as the book was when ordered.
func resizeBookLines(lines []OrderLine, count int) []OrderLine {
	total := 0
	for _, line := range lines {
		total += line.Count
	}
	if total == count {
		return slices.Clone(lines)
	}

	var out []OrderLine
	var plain *OrderLine
	remaining := count
	for _, line := range lines {
		if line.GroupDiscountID == nil {
			if plain == nil {
				p := line
				plain = &p
			}
			continue
		}
		if remaining == 0 {
			continue
		}
		if line.Count > remaining {
			line.Count = remaining
		}
		remaining -= line.Count
		out = append(out, line)
	}
	if remaining > 0 {
		if plain == nil {
			p := lines[0]
			p.Discount = 0
			p.GroupDiscountID = nil
			plain = &p
		}
		plain.Count = remaining
		out = append(out, *plain)
	}
	return out
}

// Cancel marks the order canceled, unconfirms it, clears tracking and returns committed stock.
// Canceling an already canceled order returns it unchanged.
func (s *orderService) Cancel(ctx context.Context, cmd CancelOrderCommand) (Order, error) {
	orderID := strings.TrimSpace(cmd.OrderID)
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	current, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return Order{}, s.mapRepositoryError(err)
	}
	if current.IsCanceled {
		current.Totals = ComputeOrderTotals(current.Lines)
		return current, nil
	}
	if s.status.Resolve(current, IsSelfPickup(current)).Code == domain.OrderStatusCompleted {
		return Order{}, fmt.Errorf("%w: completed orders cannot be canceled", ErrOrderInvalidTransition)
	}

	var adjustment *StockAdjustment
	if current.StockCommitted {
		deltas, err := s.reversalDeltas(ctx, current)
		if err != nil {
			return Order{}, err
		}
		adjustment = s.newAdjustment(current, domain.StockAdjustmentCancel, deltas)
	}

	next := current
	next.IsCanceled = true
	next.IsConfirmed = false
	next.TrackingNumber = nil
	next.StockCommitted = false

	saved, err := s.save(ctx, current, next, adjustment)
	if err != nil {
		return Order{}, err
	}
	s.publishEvent(ctx, OrderEventCanceled, saved, strings.TrimSpace(cmd.ActorID))
	return saved, nil
}

func (s *orderService) newAdjustment(current Order, kind domain.StockAdjustmentKind, deltas []domain.StockDelta) *StockAdjustment {
	revision := current.StockRevision + 1
	return &StockAdjustment{
		ID:        fmt.Sprintf("%s-%d", current.ID, revision),
		OrderID:   current.ID,
		Revision:  revision,
		Kind:      kind,
		Lines:     deltas,
		CreatedAt: s.clock(),
	}
}

// reversalDeltas negates the most recent confirm entry so exactly what was applied is returned.
func (s *orderService) reversalDeltas(ctx context.Context, order Order) ([]domain.StockDelta, error) {
	entries, err := s.ledger.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == domain.StockAdjustmentConfirm {
			return NegateDeltas(entries[i].Lines), nil
		}
	}
	s.logger(ctx, "order.stock.ledger.missing", map[string]any{"orderId": order.ID, "revision": order.StockRevision})
	return NegateDeltas(ConfirmDeltas(order.Lines)), nil
}

func (s *orderService) save(ctx context.Context, current, next Order, adjustment *StockAdjustment) (Order, error) {
	if adjustment != nil {
		next.StockRevision = adjustment.Revision
	}
	saved, err := s.orders.Save(ctx, repositories.OrderSaveRequest{
		Order:              next,
		ExpectedRevision:   current.StockRevision,
		Adjustment:         adjustment,
		AllowNegativeStock: s.allowNegative,
	})
	if err != nil {
		return Order{}, s.mapStockError(ctx, err)
	}
	if adjustment != nil {
		s.recordAdjustment(ctx, *adjustment)
	}
	saved.Totals = ComputeOrderTotals(saved.Lines)
	return saved, nil
}

func (s *orderService) recordAdjustment(ctx context.Context, adj StockAdjustment) {
	units := 0
	for _, line := range adj.Lines {
		units += int(abs64(line.InStockDelta))
	}
	if s.metrics != nil {
		s.metrics.StockAdjusted(string(adj.Kind), units)
	}
	s.logger(ctx, "order.stock.adjusted", map[string]any{
		"orderId":  adj.OrderID,
		"kind":     string(adj.Kind),
		"revision": adj.Revision,
		"units":    units,
	})
}

func (s *orderService) mapStockError(ctx context.Context, err error) error {
	var stockErr *repositories.StockError
	if !errors.As(err, &stockErr) {
		return s.mapRepositoryError(err)
	}
	if s.metrics != nil {
		s.metrics.StockRejected(string(stockErr.Code))
	}
	s.logger(ctx, "order.stock.rejected", map[string]any{
		"code":   string(stockErr.Code),
		"bookId": stockErr.BookID,
	})
	switch stockErr.Code {
	case repositories.StockErrorInsufficient:
		return fmt.Errorf("%w: %s", ErrOrderInsufficientStock, stockErr.Message)
	case repositories.StockErrorBookNotFound:
		return fmt.Errorf("%w: %s", ErrBookNotFound, stockErr.Message)
	case repositories.StockErrorRevisionConflict:
		return fmt.Errorf("%w: %s", ErrOrderConflict, stockErr.Message)
	}
	return err
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrOrderConflict, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}

	return err
}

func (s *orderService) publishEvent(ctx context.Context, eventType string, order Order, actorID string) {
	if s.events == nil {
		return
	}
	event := OrderEvent{
		Type:        eventType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      s.status.Resolve(order, IsSelfPickup(order)).Code,
		ActorID:     actorID,
		OccurredAt:  s.clock(),
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "order.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func normalizeDelivery(d Delivery) (Delivery, error) {
	method := domain.DeliveryMethod(strings.TrimSpace(string(d.Method)))
	if !slices.Contains(validDeliveryMethods, method) {
		return Delivery{}, fmt.Errorf("%w: unsupported delivery method %q", ErrOrderInvalidInput, d.Method)
	}
	out := Delivery{
		Method:    method,
		Recipient: textutil.SanitizePlainText(d.Recipient, 200),
		Phone:     textutil.SanitizePlainText(d.Phone, 32),
		City:      textutil.SanitizePlainText(d.City, 200),
		Address:   textutil.SanitizePlainText(d.Address, 500),
		Branch:    textutil.SanitizePlainText(d.Branch, 200),
	}
	if method != domain.DeliveryMethodSelfPickup && out.City == "" {
		return Delivery{}, fmt.Errorf("%w: city is required for %s delivery", ErrOrderInvalidInput, method)
	}
	return out, nil
}

func sameLineCounts(a, b []OrderLine) bool {
	count := func(lines []OrderLine) map[string]int {
		m := make(map[string]int, len(lines))
		for _, line := range lines {
			m[line.BookID] += line.Count
		}
		return m
	}
	ca, cb := count(a), count(b)
	if len(ca) != len(cb) {
		return false
	}
	for id, n := range ca {
		if cb[id] != n {
			return false
		}
	}
	return true
}
