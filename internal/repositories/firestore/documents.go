package firestore

import (
	"time"

	domain "github.com/bookshelf-ua/api/internal/domain"
)

const (
	ordersCollection            = "orders"
	stockAdjustmentsCollection  = "stockAdjustments"
	booksCollection             = "books"
	groupDiscountsCollection    = "groupDiscounts"
	groupDiscountKeysCollection = "groupDiscountKeys"
	basketsCollection           = "baskets"
	countersCollection          = "counters"
)

type deliveryDocument struct {
	Method    string `firestore:"method"`
	Recipient string `firestore:"recipient,omitempty"`
	Phone     string `firestore:"phone,omitempty"`
	City      string `firestore:"city,omitempty"`
	Address   string `firestore:"address,omitempty"`
	Branch    string `firestore:"branch,omitempty"`
}

type orderLineDocument struct {
	BookID          string  `firestore:"bookId"`
	Title           string  `firestore:"title"`
	Author          string  `firestore:"author,omitempty"`
	ImageURL        string  `firestore:"imageUrl,omitempty"`
	Count           int     `firestore:"count"`
	Price           int64   `firestore:"price"`
	Discount        int     `firestore:"discount,omitempty"`
	GroupDiscountID *string `firestore:"groupDiscountId,omitempty"`
}

type orderDocument struct {
	OrderNumber    int64               `firestore:"orderNumber"`
	UserID         string              `firestore:"userId"`
	Delivery       deliveryDocument    `firestore:"delivery"`
	IsCanceled     bool                `firestore:"isCanceled"`
	IsConfirmed    bool                `firestore:"isConfirmed"`
	IsPaid         bool                `firestore:"isPaid"`
	IsPartlyPaid   bool                `firestore:"isPartlyPaid"`
	IsSent         bool                `firestore:"isSent"`
	IsDone         bool                `firestore:"isDone"`
	TrackingNumber *string             `firestore:"trackingNumber"`
	Lines          []orderLineDocument `firestore:"lines"`
	Comment        string              `firestore:"comment,omitempty"`
	AdminComment   string              `firestore:"adminComment,omitempty"`
	StockCommitted bool                `firestore:"stockCommitted"`
	StockRevision  int                 `firestore:"stockRevision"`
	CreatedAt      time.Time           `firestore:"createdAt"`
	UpdatedAt      time.Time           `firestore:"updatedAt"`
}

func newOrderDocument(order domain.Order) orderDocument {
	lines := make([]orderLineDocument, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLineDocument{
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
	return orderDocument{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Delivery: deliveryDocument{
			Method:    string(order.Delivery.Method),
			Recipient: order.Delivery.Recipient,
			Phone:     order.Delivery.Phone,
			City:      order.Delivery.City,
			Address:   order.Delivery.Address,
			Branch:    order.Delivery.Branch,
		},
		IsCanceled:     order.IsCanceled,
		IsConfirmed:    order.IsConfirmed,
		IsPaid:         order.IsPaid,
		IsPartlyPaid:   order.IsPartlyPaid,
		IsSent:         order.IsSent,
		IsDone:         order.IsDone,
		TrackingNumber: order.TrackingNumber,
		Lines:          lines,
		Comment:        order.Comment,
		AdminComment:   order.AdminComment,
		StockCommitted: order.StockCommitted,
		StockRevision:  order.StockRevision,
		CreatedAt:      order.CreatedAt.UTC(),
		UpdatedAt:      order.UpdatedAt.UTC(),
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	lines := make([]domain.OrderLine, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = append(lines, domain.OrderLine{
			BookID:          line.BookID,
			Book:            domain.BookSnapshot{Title: line.Title, Author: line.Author, ImageURL: line.ImageURL},
			Count:           line.Count,
			Price:           line.Price,
			Discount:        line.Discount,
			GroupDiscountID: line.GroupDiscountID,
		})
	}
	return domain.Order{
		ID:          id,
		OrderNumber: d.OrderNumber,
		UserID:      d.UserID,
		Delivery: domain.Delivery{
			Method:    domain.DeliveryMethod(d.Delivery.Method),
			Recipient: d.Delivery.Recipient,
			Phone:     d.Delivery.Phone,
			City:      d.Delivery.City,
			Address:   d.Delivery.Address,
			Branch:    d.Delivery.Branch,
		},
		IsCanceled:     d.IsCanceled,
		IsConfirmed:    d.IsConfirmed,
		IsPaid:         d.IsPaid,
		IsPartlyPaid:   d.IsPartlyPaid,
		IsSent:         d.IsSent,
		IsDone:         d.IsDone,
		TrackingNumber: d.TrackingNumber,
		Lines:          lines,
		Comment:        d.Comment,
		AdminComment:   d.AdminComment,
		StockCommitted: d.StockCommitted,
		StockRevision:  d.StockRevision,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

type stockDeltaDocument struct {
	BookID       string `firestore:"bookId"`
	InStockDelta int64  `firestore:"inStockDelta"`
	SoldDelta    int64  `firestore:"soldDelta"`
}

type stockAdjustmentDocument struct {
	OrderID   string               `firestore:"orderId"`
	Revision  int                  `firestore:"revision"`
	Kind      string               `firestore:"kind"`
	Lines     []stockDeltaDocument `firestore:"lines"`
	CreatedAt time.Time            `firestore:"createdAt"`
}

func newStockAdjustmentDocument(adj domain.StockAdjustment) stockAdjustmentDocument {
	lines := make([]stockDeltaDocument, 0, len(adj.Lines))
	for _, line := range adj.Lines {
		lines = append(lines, stockDeltaDocument(line))
	}
	return stockAdjustmentDocument{
		OrderID:   adj.OrderID,
		Revision:  adj.Revision,
		Kind:      string(adj.Kind),
		Lines:     lines,
		CreatedAt: adj.CreatedAt.UTC(),
	}
}

func (d stockAdjustmentDocument) toDomain(id string) domain.StockAdjustment {
	lines := make([]domain.StockDelta, 0, len(d.Lines))
	for _, line := range d.Lines {
		lines = append(lines, domain.StockDelta(line))
	}
	return domain.StockAdjustment{
		ID:        id,
		OrderID:   d.OrderID,
		Revision:  d.Revision,
		Kind:      domain.StockAdjustmentKind(d.Kind),
		Lines:     lines,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

type bookDocument struct {
	Title         string    `firestore:"title"`
	Author        string    `firestore:"author,omitempty"`
	ImageURL      string    `firestore:"imageUrl,omitempty"`
	Price         int64     `firestore:"price"`
	NumberInStock int64     `firestore:"numberInStock"`
	NumberSold    int64     `firestore:"numberSold"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func (d bookDocument) toDomain(id string) domain.Book {
	return domain.Book{
		ID:            id,
		Title:         d.Title,
		Author:        d.Author,
		ImageURL:      d.ImageURL,
		Price:         d.Price,
		NumberInStock: d.NumberInStock,
		NumberSold:    d.NumberSold,
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

type groupDiscountDocument struct {
	Key       string    `firestore:"key"`
	Discount  int       `firestore:"discount"`
	BookIDs   []string  `firestore:"bookIds"`
	CreatedAt time.Time `firestore:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

func (d groupDiscountDocument) toDomain(id string) domain.GroupDiscount {
	return domain.GroupDiscount{
		ID:        id,
		Key:       d.Key,
		Discount:  d.Discount,
		BookIDs:   append([]string(nil), d.BookIDs...),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type groupDiscountKeyDocument struct {
	GroupDiscountID string `firestore:"groupDiscountId"`
	Key             string `firestore:"key"`
}

type basketBookDocument struct {
	BookID string `firestore:"bookId"`
	Count  int    `firestore:"count"`
}

type basketGroupDiscountDocument struct {
	GroupDiscountID string `firestore:"groupDiscountId"`
	Count           int    `firestore:"count"`
}

type basketDocument struct {
	Books          []basketBookDocument          `firestore:"books"`
	GroupDiscounts []basketGroupDiscountDocument `firestore:"groupDiscounts"`
	UpdatedAt      time.Time                     `firestore:"updatedAt"`
}

func newBasketDocument(basket domain.Basket) basketDocument {
	doc := basketDocument{
		Books:          make([]basketBookDocument, 0, len(basket.Books)),
		GroupDiscounts: make([]basketGroupDiscountDocument, 0, len(basket.GroupDiscounts)),
		UpdatedAt:      basket.UpdatedAt.UTC(),
	}
	for _, item := range basket.Books {
		doc.Books = append(doc.Books, basketBookDocument(item))
	}
	for _, item := range basket.GroupDiscounts {
		doc.GroupDiscounts = append(doc.GroupDiscounts, basketGroupDiscountDocument(item))
	}
	return doc
}

func (d basketDocument) toDomain(userID string) domain.Basket {
	basket := domain.Basket{UserID: userID, UpdatedAt: d.UpdatedAt.UTC()}
	for _, item := range d.Books {
		basket.Books = append(basket.Books, domain.BasketBook(item))
	}
	for _, item := range d.GroupDiscounts {
		basket.GroupDiscounts = append(basket.GroupDiscounts, domain.BasketGroupDiscount(item))
	}
	return basket
}

type counterDocument struct {
	CurrentValue int64     `firestore:"currentValue"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}
