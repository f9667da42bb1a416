package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/bookshelf-ua/api/internal/domain"
	pfirestore "github.com/bookshelf-ua/api/internal/platform/firestore"
	"github.com/bookshelf-ua/api/internal/platform/pagination"
	"github.com/bookshelf-ua/api/internal/repositories"
)

const defaultOrderPageSize = 20

// OrderRepository stores orders and applies their stock adjustments transactionally.
type OrderRepository struct {
	provider *pfirestore.Provider
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{provider: provider}, nil
}

// Insert creates the order document; an existing id is reported as a conflict.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" {
		return errors.New("order repository: order id is required")
	}
	coll, err := r.provider.Collection(ctx, ordersCollection)
	if err != nil {
		return err
	}
	if _, err := coll.Doc(order.ID).Create(ctx, newOrderDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	coll, err := r.provider.Collection(ctx, ordersCollection)
	if err != nil {
		return domain.Order{}, err
	}
	snap, err := coll.Doc(orderID).Get(ctx)
	if err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.get", err)
	}
	var doc orderDocument
	if err := snap.DataTo(&doc); err != nil {
		return domain.Order{}, fmt.Errorf("decode order %s: %w", orderID, err)
	}
	return doc.toDomain(snap.Ref.ID), nil
}

// Save writes the order and, when present, its stock adjustment in a single transaction.
// All reads happen before any write, as Firestore transactions require.
func (r *OrderRepository) Save(ctx context.Context, req repositories.OrderSaveRequest) (domain.Order, error) {
	order := req.Order
	if strings.TrimSpace(order.ID) == "" {
		return domain.Order{}, errors.New("order repository: order id is required")
	}
	client, err := r.provider.Client(ctx)
	if err != nil {
		return domain.Order{}, err
	}
	now := time.Now().UTC()
	orderRef := client.Collection(ordersCollection).Doc(order.ID)

	var saved domain.Order
	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(orderRef)
		if err != nil {
			return err
		}
		var current orderDocument
		if err := snap.DataTo(&current); err != nil {
			return fmt.Errorf("decode order %s: %w", order.ID, err)
		}
		if current.StockRevision != req.ExpectedRevision {
			return repositories.NewStockError(repositories.StockErrorRevisionConflict, "",
				fmt.Sprintf("order %s changed concurrently (revision %d, expected %d)", order.ID, current.StockRevision, req.ExpectedRevision), nil)
		}

		var bookRefs []*firestore.DocumentRef
		if adj := req.Adjustment; adj != nil {
			for _, delta := range adj.Lines {
				ref := client.Collection(booksCollection).Doc(delta.BookID)
				bookSnap, err := tx.Get(ref)
				if err != nil {
					if pfirestore.IsNotFound(err) {
						return repositories.NewStockError(repositories.StockErrorBookNotFound, delta.BookID, fmt.Sprintf("book %s not found", delta.BookID), err)
					}
					return err
				}
				var book bookDocument
				if err := bookSnap.DataTo(&book); err != nil {
					return fmt.Errorf("decode book %s: %w", delta.BookID, err)
				}
				if !req.AllowNegativeStock && book.NumberInStock+delta.InStockDelta < 0 {
					return repositories.NewStockError(repositories.StockErrorInsufficient, delta.BookID,
						fmt.Sprintf("book %s has %d in stock, %d requested", delta.BookID, book.NumberInStock, -delta.InStockDelta), nil)
				}
				bookRefs = append(bookRefs, ref)
			}

			ledgerRef := orderRef.Collection(stockAdjustmentsCollection).Doc(adj.ID)
			if err := tx.Create(ledgerRef, newStockAdjustmentDocument(*adj)); err != nil {
				return err
			}
			for i, delta := range adj.Lines {
				if err := tx.Update(bookRefs[i], []firestore.Update{
					{Path: "numberInStock", Value: firestore.Increment(delta.InStockDelta)},
					{Path: "numberSold", Value: firestore.Increment(delta.SoldDelta)},
					{Path: "updatedAt", Value: now},
				}); err != nil {
					return err
				}
			}
		}

		order.OrderNumber = current.OrderNumber
		order.CreatedAt = current.CreatedAt
		order.UpdatedAt = now
		if err := tx.Set(orderRef, newOrderDocument(order)); err != nil {
			return err
		}
		saved = order
		return nil
	})
	if err != nil {
		if pfirestore.IsAlreadyExists(err) {
			return domain.Order{}, repositories.NewStockError(repositories.StockErrorRevisionConflict, "", "stock adjustment already recorded", err)
		}
		return domain.Order{}, wrapTypedError("orders.save", err)
	}
	return saved, nil
}

type orderCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

// List returns orders newest first with an opaque cursor.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	coll, err := r.provider.Collection(ctx, ordersCollection)
	if err != nil {
		return domain.CursorPage[domain.Order]{}, err
	}
	pageSize := filter.Pagination.PageSize
	if pageSize <= 0 {
		pageSize = defaultOrderPageSize
	}

	query := coll.Query
	if uid := strings.TrimSpace(filter.UserID); uid != "" {
		query = query.Where("userId", "==", uid)
	}
	if filter.IsCanceled != nil {
		query = query.Where("isCanceled", "==", *filter.IsCanceled)
	}
	if filter.IsConfirmed != nil {
		query = query.Where("isConfirmed", "==", *filter.IsConfirmed)
	}
	query = query.OrderBy("createdAt", firestore.Desc).OrderBy(firestore.DocumentID, firestore.Desc)

	if token := strings.TrimSpace(filter.Pagination.PageToken); token != "" {
		var cursor orderCursor
		if err := pagination.DecodeToken(token, &cursor); err != nil {
			return domain.CursorPage[domain.Order]{}, err
		}
		query = query.StartAfter(cursor.CreatedAt, cursor.ID)
	}

	iter := query.Limit(pageSize + 1).Documents(ctx)
	defer iter.Stop()

	var items []domain.Order
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.CursorPage[domain.Order]{}, pfirestore.WrapError("orders.list", err)
		}
		var doc orderDocument
		if err := snap.DataTo(&doc); err != nil {
			return domain.CursorPage[domain.Order]{}, fmt.Errorf("decode order %s: %w", snap.Ref.ID, err)
		}
		items = append(items, doc.toDomain(snap.Ref.ID))
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

// StockLedgerRepository reads the per-order stockAdjustments subcollection written by OrderRepository.Save.
type StockLedgerRepository struct {
	provider *pfirestore.Provider
}

// NewStockLedgerRepository constructs the ledger reader.
func NewStockLedgerRepository(provider *pfirestore.Provider) (*StockLedgerRepository, error) {
	if provider == nil {
		return nil, errors.New("stock ledger repository requires firestore provider")
	}
	return &StockLedgerRepository{provider: provider}, nil
}

// ListByOrder returns ledger entries in revision order.
func (r *StockLedgerRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.StockAdjustment, error) {
	coll, err := r.provider.Collection(ctx, ordersCollection)
	if err != nil {
		return nil, err
	}
	docs, err := coll.Doc(orderID).Collection(stockAdjustmentsCollection).OrderBy("revision", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, pfirestore.WrapError("stockAdjustments.list", err)
	}
	entries := make([]domain.StockAdjustment, 0, len(docs))
	for _, snap := range docs {
		var doc stockAdjustmentDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode stock adjustment %s: %w", snap.Ref.ID, err)
		}
		entries = append(entries, doc.toDomain(snap.Ref.ID))
	}
	return entries, nil
}

// wrapTypedError keeps repository-level typed errors intact and classifies everything else.
func wrapTypedError(op string, err error) error {
	if err == nil {
		return nil
	}
	var stockErr *repositories.StockError
	if errors.As(err, &stockErr) {
		if stockErr.Op == "" {
			stockErr.Op = op
		}
		return stockErr
	}
	var discountErr *repositories.GroupDiscountError
	if errors.As(err, &discountErr) {
		if discountErr.Op == "" {
			discountErr.Op = op
		}
		return discountErr
	}
	return pfirestore.WrapError(op, err)
}
