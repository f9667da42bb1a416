package handlers

import (
	"github.com/bookshelf-ua/api/internal/services"
)

type deliveryPayload struct {
	Method    string `json:"method"`
	Recipient string `json:"recipient,omitempty"`
	Phone     string `json:"phone,omitempty"`
	City      string `json:"city,omitempty"`
	Address   string `json:"address,omitempty"`
	Branch    string `json:"branch,omitempty"`
}

type orderLinePayload struct {
	BookID          string  `json:"bookId"`
	Title           string  `json:"title"`
	Author          string  `json:"author,omitempty"`
	ImageURL        string  `json:"imageUrl,omitempty"`
	Count           int     `json:"count"`
	Price           int64   `json:"price"`
	Discount        int     `json:"discount,omitempty"`
	GroupDiscountID *string `json:"groupDiscountId,omitempty"`
}

type orderTotalsPayload struct {
	FinalSum              int64 `json:"finalSum"`
	FinalSumWithDiscounts int64 `json:"finalSumWithDiscounts"`
	BooksCount            int   `json:"booksCount"`
}

type orderStatusPayload struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Index int    `json:"index"`
}

type orderPayload struct {
	ID             string             `json:"id"`
	OrderNumber    int64              `json:"orderNumber"`
	UserID         string             `json:"userId"`
	Delivery       deliveryPayload    `json:"delivery"`
	IsCanceled     bool               `json:"isCanceled"`
	IsConfirmed    bool               `json:"isConfirmed"`
	IsPaid         bool               `json:"isPaid"`
	IsPartlyPaid   bool               `json:"isPartlyPaid"`
	IsSent         bool               `json:"isSent"`
	IsDone         bool               `json:"isDone"`
	TrackingNumber *string            `json:"trackingNumber,omitempty"`
	Lines          []orderLinePayload `json:"lines"`
	Comment        string             `json:"comment,omitempty"`
	AdminComment   string             `json:"adminComment,omitempty"`
	Totals         orderTotalsPayload `json:"totals"`
	Status         orderStatusPayload `json:"status"`
	CreatedAt      string             `json:"createdAt"`
	UpdatedAt      string             `json:"updatedAt,omitempty"`
}

type orderListResponse struct {
	Items         []orderPayload `json:"items"`
	NextPageToken string         `json:"nextPageToken,omitempty"`
}

type stockDeltaPayload struct {
	BookID       string `json:"bookId"`
	InStockDelta int64  `json:"inStockDelta"`
	SoldDelta    int64  `json:"soldDelta"`
}

type stockAdjustmentPayload struct {
	ID        string              `json:"id"`
	Revision  int                 `json:"revision"`
	Kind      string              `json:"kind"`
	Lines     []stockDeltaPayload `json:"lines"`
	CreatedAt string              `json:"createdAt"`
}

type bookPayload struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	Price         int64  `json:"price"`
	NumberInStock int64  `json:"numberInStock"`
	NumberSold    int64  `json:"numberSold"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

type groupDiscountPayload struct {
	ID        string        `json:"id"`
	Discount  int           `json:"discount"`
	BookIDs   []string      `json:"bookIds"`
	Books     []bookPayload `json:"books"`
	InStock   bool          `json:"inStock"`
	CreatedAt string        `json:"createdAt"`
	UpdatedAt string        `json:"updatedAt,omitempty"`
}

type groupDiscountListResponse struct {
	Items         []groupDiscountPayload `json:"items"`
	TotalCount    int                    `json:"totalCount"`
	NextPageToken string                 `json:"nextPageToken,omitempty"`
}

type basketBookPayload struct {
	BookID string `json:"bookId"`
	Count  int    `json:"count"`
}

type basketGroupDiscountPayload struct {
	GroupDiscountID string `json:"groupDiscountId"`
	Count           int    `json:"count"`
}

type basketPayload struct {
	Books          []basketBookPayload          `json:"books"`
	GroupDiscounts []basketGroupDiscountPayload `json:"groupDiscounts"`
	UpdatedAt      string                       `json:"updatedAt,omitempty"`
}

func buildOrderPayload(order services.Order, status services.OrderStatus) orderPayload {
	payload := orderPayload{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Delivery: deliveryPayload{
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
		Lines:          make([]orderLinePayload, 0, len(order.Lines)),
		Comment:        order.Comment,
		AdminComment:   order.AdminComment,
		Totals: orderTotalsPayload{
			FinalSum:              order.Totals.FinalSum,
			FinalSumWithDiscounts: order.Totals.FinalSumWithDiscounts,
			BooksCount:            order.Totals.BooksCount,
		},
		Status:    buildStatusPayload(status),
		CreatedAt: formatTime(order.CreatedAt),
		UpdatedAt: formatTime(order.UpdatedAt),
	}
	for _, line := range order.Lines {
		payload.Lines = append(payload.Lines, orderLinePayload{
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
	return payload
}

func buildStatusPayload(status services.OrderStatus) orderStatusPayload {
	return orderStatusPayload{Code: string(status.Code), Label: status.Label, Index: status.Index}
}

func buildStockAdjustmentPayload(adj services.StockAdjustment) stockAdjustmentPayload {
	payload := stockAdjustmentPayload{
		ID:        adj.ID,
		Revision:  adj.Revision,
		Kind:      string(adj.Kind),
		Lines:     make([]stockDeltaPayload, 0, len(adj.Lines)),
		CreatedAt: formatTime(adj.CreatedAt),
	}
	for _, line := range adj.Lines {
		payload.Lines = append(payload.Lines, stockDeltaPayload{BookID: line.BookID, InStockDelta: line.InStockDelta, SoldDelta: line.SoldDelta})
	}
	return payload
}

func buildBookPayload(book services.Book) bookPayload {
	return bookPayload{
		ID:            book.ID,
		Title:         book.Title,
		Author:        book.Author,
		ImageURL:      book.ImageURL,
		Price:         book.Price,
		NumberInStock: book.NumberInStock,
		NumberSold:    book.NumberSold,
		UpdatedAt:     formatTime(book.UpdatedAt),
	}
}

func buildGroupDiscountPayload(d services.GroupDiscount) groupDiscountPayload {
	payload := groupDiscountPayload{
		ID:        d.ID,
		Discount:  d.Discount,
		BookIDs:   append([]string(nil), d.BookIDs...),
		Books:     make([]bookPayload, 0, len(d.Books)),
		InStock:   services.IsGroupDiscountInStock(d),
		CreatedAt: formatTime(d.CreatedAt),
		UpdatedAt: formatTime(d.UpdatedAt),
	}
	for _, book := range d.Books {
		payload.Books = append(payload.Books, buildBookPayload(book))
	}
	return payload
}

func buildGroupDiscountList(page services.GroupDiscountPage) groupDiscountListResponse {
	resp := groupDiscountListResponse{
		Items:         make([]groupDiscountPayload, 0, len(page.Items)),
		TotalCount:    page.TotalCount,
		NextPageToken: page.NextPageToken,
	}
	for _, d := range page.Items {
		resp.Items = append(resp.Items, buildGroupDiscountPayload(d))
	}
	return resp
}

func buildBasketPayload(basket services.Basket) basketPayload {
	payload := basketPayload{
		Books:          make([]basketBookPayload, 0, len(basket.Books)),
		GroupDiscounts: make([]basketGroupDiscountPayload, 0, len(basket.GroupDiscounts)),
		UpdatedAt:      formatTime(basket.UpdatedAt),
	}
	for _, item := range basket.Books {
		payload.Books = append(payload.Books, basketBookPayload{BookID: item.BookID, Count: item.Count})
	}
	for _, item := range basket.GroupDiscounts {
		payload.GroupDiscounts = append(payload.GroupDiscounts, basketGroupDiscountPayload{GroupDiscountID: item.GroupDiscountID, Count: item.Count})
	}
	return payload
}
