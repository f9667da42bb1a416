package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/bookshelf-ua/api/internal/domain"
	"github.com/bookshelf-ua/api/internal/platform/pagination"
	"github.com/bookshelf-ua/api/internal/repositories"
)

const defaultOrderPageSize = 20

type deliveryRecord struct {
	Method    string `json:"method"`
	Recipient string `json:"recipient,omitempty"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
	Address   string `json:"address,omitempty"`
	Branch    string `json:"branch,omitempty"`
}

type orderLineRecord struct {
	BookID          string  `json:"bookId"`
	Title           string  `json:"title"`
	Author          string  `json:"author,omitempty"`
	ImageURL        string  `json:"imageUrl,omitempty"`
	Count           int     `json:"count"`
	Price           int64   `json:"price"`
	Discount        int     `json:"discount,omitempty"`
	GroupDiscountID *string `json:"groupDiscountId,omitempty"`
}

type stockDeltaRecord struct {
	BookID       string `json:"bookId"`
	InStockDelta int64  `json:"inStockDelta"`
	SoldDelta    int64  `json:"soldDelta"`
}

const orderColumns = `id, order_number, user_id, delivery, is_canceled, is_confirmed, is_paid, is_partly_paid,
  is_sent, is_done, tracking_number, lines, comment, admin_comment, stock_committed, stock_revision, created_at, updated_at`

// OrderRepository stores orders in the orders table and applies stock adjustments in one transaction.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository constructs a pgx-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool) (*OrderRepository, error) {
	if pool == nil {
		return nil, errors.New("order repository requires postgres pool")
	}
	return &OrderRepository{pool: pool}, nil
}

func encodeOrder(order domain.Order) (delivery, lines []byte, err error) {
	delivery, err = json.Marshal(deliveryRecord{
		Method:    string(order.Delivery.Method),
		Recipient: order.Delivery.Recipient,
		Phone:     order.Delivery.Phone,
		City:      order.Delivery.City,
		Address:   order.Delivery.Address,
		Branch:    order.Delivery.Branch,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode delivery: %w", err)
	}
	records := make([]orderLineRecord, 0, len(order.Lines))
	for _, line := range order.Lines {
		records = append(records, orderLineRecord{
			BookID:          line.BookID,
			Title:           line.Book.Title,
			Author:          line.Book.Author,
			ImageURL:        line.Book.ImageURL,
			Count:           line.Count,
			Price:           line.Price,
			Discount:        line.Discount,
			GroupDiscountID: line.GroupDiscountID,
		})
	}
	lines, err = json.Marshal(records)
	if err != nil {
		return nil, nil, fmt.Errorf("encode order lines: %w", err)
	}
	return delivery, lines, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		order         domain.Order
		deliveryBytes []byte
		linesBytes    []byte
	)
	if err := row.Scan(&order.ID, &order.OrderNumber, &order.UserID, &deliveryBytes,
		&order.IsCanceled, &order.IsConfirmed, &order.IsPaid, &order.IsPartlyPaid, &order.IsSent, &order.IsDone,
		&order.TrackingNumber, &linesBytes, &order.Comment, &order.AdminComment,
		&order.StockCommitted, &order.StockRevision, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	var delivery deliveryRecord
	if err := json.Unmarshal(deliveryBytes, &delivery); err != nil {
		return domain.Order{}, fmt.Errorf("decode delivery: %w", err)
	}
	order.Delivery = domain.Delivery{
		Method:    domain.DeliveryMethod(delivery.Method),
		Recipient: delivery.Recipient,
		Phone:     delivery.Phone,
		City:      delivery.City,
		Address:   delivery.Address,
		Branch:    delivery.Branch,
	}
	var lines []orderLineRecord
	if err := json.Unmarshal(linesBytes, &lines); err != nil {
		return domain.Order{}, fmt.Errorf("decode order lines: %w", err)
	}
	for _, line := range lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			BookID:          line.BookID,
			Book:            domain.BookSnapshot{Title: line.Title, Author: line.Author, ImageURL: line.ImageURL},
			Count:           line.Count,
			Price:           line.Price,
			Discount:        line.Discount,
			GroupDiscountID: line.GroupDiscountID,
		})
	}
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return order, nil
}

func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order repository: order id is required")
	}
	delivery, lines, err := encodeOrder(order)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		order.ID, order.OrderNumber, order.UserID, delivery,
		order.IsCanceled, order.IsConfirmed, order.IsPaid, order.IsPartlyPaid, order.IsSent, order.IsDone,
		order.TrackingNumber, lines, order.Comment, order.AdminComment,
		order.StockCommitted, order.StockRevision, order.CreatedAt.UTC(), order.UpdatedAt.UTC())
	if err != nil {
		return wrapError("orders.insert", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if err != nil {
		return domain.Order{}, wrapError("orders.get", err)
	}
	return order, nil
}

// Save locks the order row, applies the adjustment to books and the ledger, then rewrites the order.
func (r *OrderRepository) Save(ctx context.Context, req repositories.OrderSaveRequest) (domain.Order, error) {
	order := req.Order
	delivery, lines, err := encodeOrder(order)
	if err != nil {
		return domain.Order{}, err
	}
	now := time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Order{}, wrapError("orders.save", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		revision    int
		orderNumber int64
		createdAt   time.Time
	)
	err = tx.QueryRow(ctx, `SELECT stock_revision, order_number, created_at FROM orders WHERE id = $1 FOR UPDATE`, order.ID).
		Scan(&revision, &orderNumber, &createdAt)
	if err != nil {
		return domain.Order{}, wrapError("orders.save", err)
	}
	if revision != req.ExpectedRevision {
		return domain.Order{}, wrapTypedError("orders.save", repositories.NewStockError(repositories.StockErrorRevisionConflict, "",
			fmt.Sprintf("order %s changed concurrently (revision %d, expected %d)", order.ID, revision, req.ExpectedRevision), nil))
	}

	if adj := req.Adjustment; adj != nil {
		if err := applyAdjustment(ctx, tx, *adj, req.AllowNegativeStock, now); err != nil {
			return domain.Order{}, wrapTypedError("orders.save", err)
		}
	}

	order.OrderNumber = orderNumber
	order.CreatedAt = createdAt.UTC()
	order.UpdatedAt = now
	_, err = tx.Exec(ctx, `UPDATE orders SET user_id = $2, delivery = $3, is_canceled = $4, is_confirmed = $5,
  is_paid = $6, is_partly_paid = $7, is_sent = $8, is_done = $9, tracking_number = $10, lines = $11,
  comment = $12, admin_comment = $13, stock_committed = $14, stock_revision = $15, updated_at = $16
WHERE id = $1`,
		order.ID, order.UserID, delivery, order.IsCanceled, order.IsConfirmed,
		order.IsPaid, order.IsPartlyPaid, order.IsSent, order.IsDone, order.TrackingNumber, lines,
		order.Comment, order.AdminComment, order.StockCommitted, order.StockRevision, now)
	if err != nil {
		return domain.Order{}, wrapError("orders.save", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, wrapError("orders.save", err)
	}
	return order, nil
}

// lockOrder returns the deltas sorted by book id so concurrent adjustments lock rows in the same order.
func lockOrder(deltas []domain.StockDelta) []domain.StockDelta {
	sorted := slices.Clone(deltas)
	slices.SortStableFunc(sorted, func(a, b domain.StockDelta) int { return strings.Compare(a.BookID, b.BookID) })
	return sorted
}

func applyAdjustment(ctx context.Context, tx pgx.Tx, adj domain.StockAdjustment, allowNegative bool, now time.Time) error {
	for _, delta := range lockOrder(adj.Lines) {
		var inStock int64
		err := tx.QueryRow(ctx, `UPDATE books SET number_in_stock = number_in_stock + $2,
  number_sold = number_sold + $3, updated_at = $4 WHERE id = $1 RETURNING number_in_stock`,
			delta.BookID, delta.InStockDelta, delta.SoldDelta, now).Scan(&inStock)
		if errors.Is(err, pgx.ErrNoRows) {
			return repositories.NewStockError(repositories.StockErrorBookNotFound, delta.BookID, fmt.Sprintf("book %s not found", delta.BookID), err)
		}
		if err != nil {
			return err
		}
		if !allowNegative && inStock < 0 {
			return repositories.NewStockError(repositories.StockErrorInsufficient, delta.BookID,
				fmt.Sprintf("book %s has %d in stock, %d requested", delta.BookID, inStock-delta.InStockDelta, -delta.InStockDelta), nil)
		}
	}

	records := make([]stockDeltaRecord, 0, len(adj.Lines))
	for _, line := range adj.Lines {
		records = append(records, stockDeltaRecord(line))
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode stock adjustment: %w", err)
	}
	createdAt := adj.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	_, err = tx.Exec(ctx, `INSERT INTO stock_adjustments (id, order_id, revision, kind, lines, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`, adj.ID, adj.OrderID, adj.Revision, string(adj.Kind), payload, createdAt.UTC())
	if isUniqueViolation(err) {
		return repositories.NewStockError(repositories.StockErrorRevisionConflict, "", "stock adjustment already recorded", err)
	}
	return err
}

type orderCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

// List returns orders newest first using keyset pagination on (created_at, id).
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = defaultOrderPageSize
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if uid := strings.TrimSpace(filter.UserID); uid != "" {
		where = append(where, "user_id = "+arg(uid))
	}
	if filter.IsCanceled != nil {
		where = append(where, "is_canceled = "+arg(*filter.IsCanceled))
	}
	if filter.IsConfirmed != nil {
		where = append(where, "is_confirmed = "+arg(*filter.IsConfirmed))
	}
	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		var cursor orderCursor
		if err := pagination.DecodeToken(token, &cursor); err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", arg(cursor.CreatedAt), arg(cursor.ID)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT " + arg(pageSize+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, wrapError("orders.list", err)
	}
	defer rows.Close()

	var items []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return domain.CursorPage[domain.Order]{}, wrapError("orders.list", err)
		}
		items = append(items, order)
	}
	if err := rows.Err(); err != nil {
		return domain.CursorPage[domain.Order]{}, wrapError("orders.list", err)
	}

	page := domain.CursorPage[domain.Order]{Items: items}
	if len(items) > pageSize {
		page.Items = items[:pageSize]
		last := page.Items[pageSize-1]
		next, err := pagination.EncodeToken(orderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		page.NextPageToken = next
	}
	return page, nil
}

// StockLedgerRepository reads the stock_adjustments table.
type StockLedgerRepository struct {
	pool *pgxpool.Pool
}

func NewStockLedgerRepository(pool *pgxpool.Pool) (*StockLedgerRepository, error) {
	if pool == nil {
		return nil, errors.New("stock ledger repository requires postgres pool")
	}
	return &StockLedgerRepository{pool: pool}, nil
}

func (r *StockLedgerRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.StockAdjustment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, revision, kind, lines, created_at
FROM stock_adjustments WHERE order_id = $1 ORDER BY revision`, orderID)
	if err != nil {
		return nil, wrapError("stockAdjustments.list", err)
	}
	defer rows.Close()

	var entries []domain.StockAdjustment
	for rows.Next() {
		var (
			entry   domain.StockAdjustment
			kind    string
			payload []byte
		)
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.Revision, &kind, &payload, &entry.CreatedAt); err != nil {
			return nil, wrapError("stockAdjustments.list", err)
		}
		var records []stockDeltaRecord
		if err := json.Unmarshal(payload, &records); err != nil {
			return nil, fmt.Errorf("decode stock adjustment %s: %w", entry.ID, err)
		}
		for _, rec := range records {
			entry.Lines = append(entry.Lines, domain.StockDelta(rec))
		}
		entry.Kind = domain.StockAdjustmentKind(kind)
		entry.CreatedAt = entry.CreatedAt.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("stockAdjustments.list", err)
	}
	return entries, nil
}
